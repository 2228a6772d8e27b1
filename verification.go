package identity

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// VerificationStatus is a user's account-verification state.
type VerificationStatus string

const (
	// VerificationPending is the initial state, set at registration.
	VerificationPending VerificationStatus = "pending"
	// VerificationConfirmed is terminal; there is no way back.
	VerificationConfirmed VerificationStatus = "confirmed"
)

// ErrInvalidVerificationTransition is returned for status changes the graph
// does not allow.
var ErrInvalidVerificationTransition = goerrors.New("invalid verification transition", goerrors.CategoryValidation).
	WithTextCode("INVALID_VERIFICATION_TRANSITION").
	WithCode(goerrors.CodeBadRequest)

// verificationStore is the narrow persistence surface the machine needs.
type verificationStore interface {
	MarkEmailVerified(ctx context.Context, id uuid.UUID) error
}

// VerificationStateMachine tracks whether a user's email address has been
// confirmed and gates access to protected areas.
type VerificationStateMachine interface {
	Transition(ctx context.Context, actor ActorRef, user *User, target VerificationStatus) (*User, error)
	CurrentStatus(user *User) VerificationStatus
}

// VerificationOption customizes machine construction.
type VerificationOption func(*verificationStateMachine)

// WithVerificationClock injects a custom clock (useful for tests).
func WithVerificationClock(clock func() time.Time) VerificationOption {
	return func(sm *verificationStateMachine) {
		if clock != nil {
			sm.now = clock
		}
	}
}

// WithVerificationAuditSink sets the sink used to publish transition events.
func WithVerificationAuditSink(sink AuditSink) VerificationOption {
	return func(sm *verificationStateMachine) {
		sm.audit = normalizeAuditSink(sink)
	}
}

// WithVerificationLogger overrides the logger used for sink failures.
func WithVerificationLogger(logger Logger) VerificationOption {
	return func(sm *verificationStateMachine) {
		if logger != nil {
			sm.logger = logger
		}
	}
}

// NewVerificationStateMachine returns the default implementation backed by
// the provided store. The transition graph has a single edge:
// pending -> confirmed.
func NewVerificationStateMachine(store verificationStore, opts ...VerificationOption) VerificationStateMachine {
	sm := &verificationStateMachine{
		store: store,
		transitions: map[VerificationStatus]map[VerificationStatus]struct{}{
			VerificationPending: {
				VerificationConfirmed: {},
			},
		},
		now:    time.Now,
		audit:  noopAuditSink{},
		logger: defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(sm)
		}
	}

	return sm
}

type verificationStateMachine struct {
	store       verificationStore
	transitions map[VerificationStatus]map[VerificationStatus]struct{}
	now         func() time.Time
	audit       AuditSink
	logger      Logger
}

// Transition moves a user toward the target status. Re-confirming an already
// confirmed user is an idempotent no-op: the user is returned unchanged and
// nothing is written.
func (sm *verificationStateMachine) Transition(ctx context.Context, actor ActorRef, user *User, target VerificationStatus) (*User, error) {
	if user == nil {
		return nil, ErrInvalidVerificationTransition.WithMetadata(map[string]any{
			"target": target,
			"reason": "user is nil",
		})
	}

	from := user.VerificationStatus()
	if target == "" {
		return nil, ErrInvalidVerificationTransition.WithMetadata(map[string]any{
			"reason": "target status is empty",
		})
	}

	if from == target {
		return user, nil
	}

	if !sm.canTransition(from, target) {
		return nil, ErrInvalidVerificationTransition.WithMetadata(map[string]any{
			"from": from,
			"to":   target,
		})
	}

	if err := sm.store.MarkEmailVerified(ctx, user.ID); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to persist verification status")
	}

	user.EmailVerified = true

	sm.recordAudit(ctx, AuditEvent{
		Name:     AuditEventEmailVerified,
		Severity: SeverityRoutine,
		Actor:    actor,
		UserID:   user.ID.String(),
		Metadata: map[string]any{
			"from": string(from),
			"to":   string(target),
		},
	})

	return user, nil
}

func (sm *verificationStateMachine) CurrentStatus(user *User) VerificationStatus {
	if user == nil {
		return ""
	}
	return user.VerificationStatus()
}

func (sm *verificationStateMachine) canTransition(from, to VerificationStatus) bool {
	if allowed, ok := sm.transitions[from]; ok {
		_, exists := allowed[to]
		return exists
	}
	return false
}

func (sm *verificationStateMachine) recordAudit(ctx context.Context, event AuditEvent) {
	if event.Actor == (ActorRef{}) {
		event.Actor = ActorRef{Type: "system"}
	}

	if event.OccurredAt.IsZero() {
		event.OccurredAt = sm.now()
	}

	if err := normalizeAuditSink(sm.audit).Record(ctx, event); err != nil {
		sm.logger.Warn("verification audit sink error: %v", err)
	}
}

// VerificationRedirect is where gated requests should land instead of the
// resource they asked for.
const VerificationRedirect = "/auth/unverified"

// VerificationGate is the access-control check that keeps unverified accounts
// away from protected resource classes.
type VerificationGate struct {
	exempt map[string]struct{}
}

// NewVerificationGate builds a gate. The named resource classes stay
// reachable for unverified users (the auth surface itself must be, or nobody
// could ever verify).
func NewVerificationGate(exemptResources ...string) *VerificationGate {
	exempt := make(map[string]struct{}, len(exemptResources)+1)
	exempt["auth"] = struct{}{}
	for _, r := range exemptResources {
		exempt[r] = struct{}{}
	}
	return &VerificationGate{exempt: exempt}
}

// IsAccessAllowed reports whether the user may touch the given resource
// class. Unverified users are rejected for anything not exempt; callers must
// redirect to VerificationRedirect instead of the requested resource.
func (g *VerificationGate) IsAccessAllowed(user *User, resource string) bool {
	if _, ok := g.exempt[resource]; ok {
		return true
	}

	if user == nil {
		return false
	}

	return user.EmailVerified
}
