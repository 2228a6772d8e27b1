package identity

import (
	"context"
	"fmt"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

// user-facing copy; deliberately generic where enumeration is a concern
const (
	msgInvalidCredentials = "Invalid email or password"
	msgInvalidOrExpired   = "The link is invalid or has expired"
	msgResetRequested     = "If the address is registered, a reset link is on its way"
	msgRegistered         = "Congratulations, you are now a registered user!"
	msgDuplicateEmail     = "An account with this email already exists"
	msgAlreadyVerified    = "Your account is already verified"
	msgEmailVerified      = "Your email has been verified"
	msgPasswordChanged    = "Your password has been updated"
	msgVerificationResent = "A new verification email has been sent"
	msgSignedOut          = "You have been signed out"
	msgSomethingWentWrong = "Something went wrong, please try again"
)

// SessionController authenticates a request actor against the credential
// store and exposes that actor's identity for the lifetime of a client
// session. All collaborators are injected; there is no ambient global state.
type SessionController struct {
	repo        RepositoryManager
	credentials CredentialStore
	codec       *TokenCodec
	sessions    *SessionTokenService
	mail        *MailDispatcher
	audit       AuditSink
	gate        *VerificationGate
	machine     VerificationStateMachine
	logger      Logger
}

// SessionControllerOption customizes controller construction.
type SessionControllerOption func(*SessionController)

// WithControllerAuditSink sets the sink receiving auth events.
func WithControllerAuditSink(sink AuditSink) SessionControllerOption {
	return func(c *SessionController) {
		c.audit = normalizeAuditSink(sink)
	}
}

// WithControllerLogger overrides the controller logger.
func WithControllerLogger(logger Logger) SessionControllerOption {
	return func(c *SessionController) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithControllerGate overrides the default verification gate.
func WithControllerGate(gate *VerificationGate) SessionControllerOption {
	return func(c *SessionController) {
		if gate != nil {
			c.gate = gate
		}
	}
}

// NewSessionController wires the identity core together.
func NewSessionController(
	repo RepositoryManager,
	codec *TokenCodec,
	sessions *SessionTokenService,
	mail *MailDispatcher,
	opts ...SessionControllerOption,
) *SessionController {
	c := &SessionController{
		repo:     repo,
		codec:    codec,
		sessions: sessions,
		mail:     mail,
		audit:    noopAuditSink{},
		gate:     NewVerificationGate(),
		logger:   defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	c.machine = NewVerificationStateMachine(
		c.repo.Users(),
		WithVerificationAuditSink(c.audit),
		WithVerificationLogger(c.logger),
	)

	return c
}

// Gate exposes the verification gate for route-layer checks.
func (c *SessionController) Gate() *VerificationGate {
	return c.gate
}

// SessionFromToken rehydrates a client session from its signed token.
func (c *SessionController) SessionFromToken(raw string) (Session, error) {
	return c.sessions.SessionFromToken(raw)
}

// Login authenticates the email/password pair. The outcome for an unknown
// email and a wrong password is identical, so callers cannot enumerate
// accounts. remember extends the session to the long-lived duration.
func (c *SessionController) Login(ctx context.Context, email, password string, remember bool) Outcome {
	email = NormalizeEmail(email)

	user, err := c.repo.Users().GetByEmail(ctx, email)
	if err != nil {
		if !goerrors.IsNotFound(err) {
			c.logger.Error("Login user lookup failed: %v", err)
		}
		c.emitAudit(ctx, AuditEventLoginFailure, SeveritySecurity, ActorRef{Type: "unknown"}, "", map[string]any{
			"email": email,
		})
		return errorOutcome(msgInvalidCredentials)
	}

	if !c.credentials.CheckPassword(user, password) {
		c.emitAudit(ctx, AuditEventLoginFailure, SeveritySecurity, ActorRef{Type: "unknown"}, "", map[string]any{
			"email": email,
		})
		return errorOutcome(msgInvalidCredentials)
	}

	token, err := c.sessions.Generate(NewIdentityFromUser(user), remember)
	if err != nil {
		c.logger.Error("Login session token generation failed: %v", err)
		return errorOutcome(msgSomethingWentWrong)
	}

	c.emitAudit(ctx, AuditEventLoginSuccess, SeverityRoutine, c.actorFromUser(user), user.ID.String(), map[string]any{
		"email":    email,
		"remember": remember,
	})

	out := successOutcome("Welcome back")
	out.SessionToken = token
	out.User = user
	return out
}

// Logout clears the session identity. Safe to call with no active session.
func (c *SessionController) Logout(ctx context.Context, session Session) Outcome {
	userID := ""
	actor := ActorRef{Type: "unknown"}
	if session != nil {
		userID = session.GetUserID()
		actor = ActorRef{ID: userID, Type: "user"}
	}

	c.emitAudit(ctx, AuditEventLogout, SeverityRoutine, actor, userID, nil)

	return infoOutcome(msgSignedOut)
}

// Register creates an unverified account, dispatches the verification email
// fire-and-forget, and auto-logs the new user in. The verification gate keeps
// the fresh session away from protected areas until the email is confirmed.
func (c *SessionController) Register(ctx context.Context, firstName, lastName, email, password string) Outcome {
	email = NormalizeEmail(email)

	var resp *RegisterUserResponse
	msg := RegisterUserMessage{
		FirstName: firstName,
		LastName:  lastName,
		Email:     email,
		Password:  password,
		OnResponse: func(r *RegisterUserResponse) {
			resp = r
		},
	}

	handler := NewRegisterUserHandler(c.repo)
	if err := handler.Execute(ctx, msg); err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) && richErr.TextCode == TextCodeDuplicateEmail {
			return errorOutcome(msgDuplicateEmail)
		}
		c.logger.Error("Register failed: %v", err)
		return errorOutcome(msgSomethingWentWrong)
	}

	if resp == nil || resp.User == nil {
		c.logger.Error("Register produced no user")
		return errorOutcome(msgSomethingWentWrong)
	}
	user := resp.User

	c.dispatchVerification(ctx, user)

	c.emitAudit(ctx, AuditEventUserRegistered, SeverityRoutine, c.actorFromUser(user), user.ID.String(), map[string]any{
		"email": email,
	})

	token, err := c.sessions.Generate(NewIdentityFromUser(user), false)
	if err != nil {
		// the account exists; the user can still sign in manually
		c.logger.Error("Register auto-login failed: %v", err)
		return successOutcome(msgRegistered)
	}

	out := successOutcome(msgRegistered)
	out.SessionToken = token
	out.User = user
	return out
}

// RequestPasswordReset always reports the same outcome whether or not the
// address is registered; only a match triggers a mail dispatch.
func (c *SessionController) RequestPasswordReset(ctx context.Context, email string) Outcome {
	email = NormalizeEmail(email)

	user, err := c.repo.Users().GetByEmail(ctx, email)
	if err != nil {
		if !goerrors.IsNotFound(err) {
			c.logger.Error("RequestPasswordReset lookup failed: %v", err)
		}
		c.emitAudit(ctx, AuditEventPasswordResetRequested, SeverityRoutine, ActorRef{Type: "unknown"}, "", map[string]any{
			"email": email,
			"known": false,
		})
		return infoOutcome(msgResetRequested)
	}

	token, err := c.codec.Issue(user.Email, TokenPurposeResetPassword)
	if err != nil {
		c.logger.Error("RequestPasswordReset token issue failed: %v", err)
		return infoOutcome(msgResetRequested)
	}

	c.mail.Dispatch(ctx, user.Email, "Reset Password", resetPasswordBody(user, token))

	c.emitAudit(ctx, AuditEventPasswordResetRequested, SeverityRoutine, c.actorFromUser(user), user.ID.String(), map[string]any{
		"email": email,
		"known": true,
	})

	return infoOutcome(msgResetRequested)
}

// ResolveUser verifies a purpose token and loads the account it names. A
// valid token for a vanished account reports ErrTokenInvalid, so callers see
// one failure mode either way.
func (c *SessionController) ResolveUser(ctx context.Context, token string, purpose TokenPurpose) (*User, error) {
	email, err := c.codec.Verify(token, purpose)
	if err != nil {
		return nil, err
	}

	user, err := c.repo.Users().GetByEmail(ctx, email)
	if err != nil {
		if goerrors.IsNotFound(err) {
			return nil, ErrTokenInvalid
		}
		return nil, err
	}

	return user, nil
}

// CompletePasswordReset verifies a reset_password token and replaces the
// user's password hash. Expired, tampered, and wrong-purpose tokens all
// surface the same generic outcome.
func (c *SessionController) CompletePasswordReset(ctx context.Context, token, newPassword string) Outcome {
	user, err := c.ResolveUser(ctx, token, TokenPurposeResetPassword)
	if err != nil {
		return errorOutcome(msgInvalidOrExpired)
	}

	hash, err := c.credentials.HashPassword(newPassword)
	if err != nil {
		return errorOutcome(msgSomethingWentWrong)
	}

	if err := c.repo.Users().ResetPassword(ctx, user.ID, hash); err != nil {
		c.logger.Error("CompletePasswordReset persist failed: %v", err)
		return errorOutcome(msgSomethingWentWrong)
	}

	c.emitAudit(ctx, AuditEventPasswordResetCompleted, SeverityRoutine, c.actorFromUser(user), user.ID.String(), map[string]any{
		"email": user.Email,
	})

	return successOutcome(msgPasswordChanged)
}

// VerifyEmail verifies a verify_email token and confirms the account.
// Re-verifying an already confirmed account is an informational no-op.
func (c *SessionController) VerifyEmail(ctx context.Context, token string) Outcome {
	user, err := c.ResolveUser(ctx, token, TokenPurposeVerifyEmail)
	if err != nil {
		return errorOutcome(msgInvalidOrExpired)
	}

	if user.EmailVerified {
		out := infoOutcome(msgAlreadyVerified)
		out.User = user
		return out
	}

	user, err = c.machine.Transition(ctx, c.actorFromUser(user), user, VerificationConfirmed)
	if err != nil {
		c.logger.Error("VerifyEmail transition failed: %v", err)
		return errorOutcome(msgSomethingWentWrong)
	}

	out := successOutcome(msgEmailVerified)
	out.User = user
	return out
}

// ResendVerification issues a fresh verify_email token for an unverified
// account. Tokens are stateless, so the previous one stays valid until its
// own expiry.
func (c *SessionController) ResendVerification(ctx context.Context, user *User) Outcome {
	if user == nil {
		return errorOutcome(msgSomethingWentWrong)
	}

	if user.EmailVerified {
		return infoOutcome(msgAlreadyVerified)
	}

	c.dispatchVerification(ctx, user)

	c.emitAudit(ctx, AuditEventVerificationResent, SeverityRoutine, c.actorFromUser(user), user.ID.String(), map[string]any{
		"email": user.Email,
	})

	return successOutcome(msgVerificationResent)
}

func (c *SessionController) dispatchVerification(ctx context.Context, user *User) {
	token, err := c.codec.Issue(user.Email, TokenPurposeVerifyEmail)
	if err != nil {
		c.logger.Error("verification token issue failed: %v", err)
		return
	}

	c.mail.Dispatch(ctx, user.Email, "Verify Your Email", verifyEmailBody(user, token))
}

func (c *SessionController) emitAudit(ctx context.Context, name AuditEventName, severity AuditSeverity, actor ActorRef, userID string, metadata map[string]any) {
	event := AuditEvent{
		Name:       name,
		Severity:   severity,
		Actor:      actor,
		UserID:     userID,
		SourceAddr: SourceAddrFromContext(ctx),
		Metadata:   metadata,
		OccurredAt: time.Now(),
	}

	if event.Metadata == nil {
		event.Metadata = map[string]any{}
	}

	if err := normalizeAuditSink(c.audit).Record(ctx, event); err != nil {
		c.logger.Warn("audit sink record error: %v", err)
	}
}

func (c *SessionController) actorFromUser(user *User) ActorRef {
	if user == nil {
		return ActorRef{Type: "unknown"}
	}

	return ActorRef{
		ID:   user.ID.String(),
		Type: "user",
	}
}

func resetPasswordBody(user *User, token string) string {
	return fmt.Sprintf(
		"Dear %s,\n\nTo reset your password visit:\n\n/auth/reset-password/%s\n\nIf you have not requested a password reset simply ignore this message.",
		user.FirstName,
		token,
	)
}

func verifyEmailBody(user *User, token string) string {
	return fmt.Sprintf(
		"Dear %s,\n\nTo confirm your email address visit:\n\n/auth/verify-email/%s\n\nIf you did not create an account simply ignore this message.",
		user.FirstName,
		token,
	)
}
