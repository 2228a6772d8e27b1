package identity

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// DefaultSessionDuration is the short-lived session window.
const DefaultSessionDuration = 24 * time.Hour

// DefaultExtendedSessionDuration is the long-lived "remember me" window.
const DefaultExtendedSessionDuration = 30 * 24 * time.Hour

// SessionTokenService signs and validates the client-side session JWT.
type SessionTokenService struct {
	signingKey       []byte
	duration         time.Duration
	extendedDuration time.Duration
	issuer           string
	audience         jwt.ClaimStrings
	now              func() time.Time
	logger           Logger
}

// SessionTokenOption customizes service construction.
type SessionTokenOption func(*SessionTokenService)

// WithSessionClock injects a custom clock (useful for tests).
func WithSessionClock(clock func() time.Time) SessionTokenOption {
	return func(ts *SessionTokenService) {
		if clock != nil {
			ts.now = clock
		}
	}
}

// WithSessionLogger overrides the service logger.
func WithSessionLogger(logger Logger) SessionTokenOption {
	return func(ts *SessionTokenService) {
		if logger != nil {
			ts.logger = logger
		}
	}
}

// NewSessionTokenService creates a new SessionTokenService instance.
func NewSessionTokenService(cfg Config, opts ...SessionTokenOption) (*SessionTokenService, error) {
	if cfg.GetSigningKey() == "" {
		return nil, goerrors.New("session signing key is required", goerrors.CategoryInternal)
	}

	duration := DefaultSessionDuration
	if cfg.GetSessionDuration() > 0 {
		duration = time.Duration(cfg.GetSessionDuration()) * time.Hour
	}

	extended := DefaultExtendedSessionDuration
	if cfg.GetExtendedSessionDuration() > 0 {
		extended = time.Duration(cfg.GetExtendedSessionDuration()) * time.Hour
	}

	ts := &SessionTokenService{
		signingKey:       []byte(cfg.GetSigningKey()),
		duration:         duration,
		extendedDuration: extended,
		issuer:           cfg.GetIssuer(),
		audience:         cfg.GetAudience(),
		now:              time.Now,
		logger:           defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(ts)
		}
	}

	return ts, nil
}

// Duration returns the default session lifetime.
func (ts *SessionTokenService) Duration() time.Duration {
	return ts.duration
}

// ExtendedDuration returns the "remember me" session lifetime.
func (ts *SessionTokenService) ExtendedDuration() time.Duration {
	return ts.extendedDuration
}

// Generate creates a session JWT for the identity. When extended is set the
// token lives for the long "remember me" duration instead of the default.
func (ts *SessionTokenService) Generate(identity Identity, extended bool) (string, error) {
	if identity == nil {
		return "", ErrIdentityNotFound
	}

	duration := ts.duration
	if extended {
		duration = ts.extendedDuration
	}

	now := ts.now()
	claims := &SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    ts.issuer,
			Subject:   identity.ID(),
			Audience:  ts.audience,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(duration)),
			ID:        uuid.NewString(),
		},
		UID:      identity.ID(),
		UserRole: identity.Role(),
		Verified: identity.EmailVerified(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(ts.signingKey)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to sign session token")
	}

	return signed, nil
}

// Validate parses and validates a session token, returning structured claims.
func (ts *SessionTokenService) Validate(tokenString string) (*SessionClaims, error) {
	parserOptions := make([]jwt.ParserOption, 0, 3)
	parserOptions = append(parserOptions, jwt.WithTimeFunc(ts.now))
	if ts.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(ts.issuer))
	}
	if len(ts.audience) > 0 {
		parserOptions = append(parserOptions, jwt.WithAudience(ts.audience...))
	}

	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			ts.logger.Error("SessionTokenService validate encountered unexpected signing method", "alg", t.Header["alg"])
			return nil, ErrUnableToDecodeSession
		}
		return ts.signingKey, nil
	}, parserOptions...)

	if err != nil {
		if goerrors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryAuth, "unable to decode session").
			WithCode(goerrors.CodeUnauthorized)
	}

	if claims, ok := token.Claims.(*SessionClaims); ok && token.Valid {
		return claims, nil
	}

	ts.logger.Error("SessionTokenService validate could not decode or validate claims")
	return nil, ErrUnableToDecodeSession
}

// SessionFromToken validates a raw token and rehydrates the SessionObject.
func (ts *SessionTokenService) SessionFromToken(raw string) (Session, error) {
	claims, err := ts.Validate(raw)
	if err != nil {
		return nil, err
	}
	return sessionFromClaims(claims)
}
