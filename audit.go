package identity

import (
	"context"
	"time"
)

// AuditEventName enumerates the auth-relevant actions we record.
type AuditEventName string

const (
	AuditEventLoginSuccess           AuditEventName = "login_successful"
	AuditEventLoginFailure           AuditEventName = "login_failed"
	AuditEventLogout                 AuditEventName = "logout"
	AuditEventUserRegistered         AuditEventName = "user_registered"
	AuditEventPasswordResetRequested AuditEventName = "password_reset_requested"
	AuditEventPasswordResetCompleted AuditEventName = "password_reset_completed"
	AuditEventEmailVerified          AuditEventName = "email_verified"
	AuditEventVerificationResent     AuditEventName = "verification_resent"
	AuditEventMailDispatchFailed     AuditEventName = "mail_dispatch_failed"
)

// AuditSeverity separates routine actions from security-sensitive ones, the
// latter flagged distinctly for downstream alerting.
type AuditSeverity string

const (
	SeverityRoutine  AuditSeverity = "routine"
	SeveritySecurity AuditSeverity = "security"
)

// ActorRef identifies who/what triggered an event.
type ActorRef struct {
	ID   string
	Type string
}

// AuditEvent captures structured information about an auth action.
type AuditEvent struct {
	Name       AuditEventName
	Severity   AuditSeverity
	Actor      ActorRef
	UserID     string
	SourceAddr string
	Metadata   map[string]any
	OccurredAt time.Time
}

// AuditSink consumes audit events. Sinks are append-only, write-only, and
// best-effort: emitters log sink errors and keep going, so a failing sink can
// never interrupt an authentication flow.
type AuditSink interface {
	Record(ctx context.Context, event AuditEvent) error
}

// AuditSinkFunc adapts a function to the AuditSink interface.
type AuditSinkFunc func(ctx context.Context, event AuditEvent) error

// Record implements AuditSink.
func (f AuditSinkFunc) Record(ctx context.Context, event AuditEvent) error {
	if f == nil {
		return nil
	}
	return f(ctx, event)
}

type noopAuditSink struct{}

func (noopAuditSink) Record(context.Context, AuditEvent) error {
	return nil
}

func normalizeAuditSink(s AuditSink) AuditSink {
	if s == nil {
		return noopAuditSink{}
	}
	return s
}

// LoggerAuditSink renders events as structured log lines: Info for routine
// events, Warn for security-sensitive ones.
type LoggerAuditSink struct {
	logger Logger
}

// NewLoggerAuditSink wires an AuditSink to the given logger.
func NewLoggerAuditSink(logger Logger) *LoggerAuditSink {
	if logger == nil {
		logger = defLogger{}
	}
	return &LoggerAuditSink{logger: logger}
}

// Record implements AuditSink.
func (s *LoggerAuditSink) Record(_ context.Context, event AuditEvent) error {
	log := s.logger.Info
	if event.Severity == SeveritySecurity {
		log = s.logger.Warn
	}

	log("audit event=%s severity=%s user=%s source=%s meta=%v",
		event.Name,
		event.Severity,
		event.UserID,
		event.SourceAddr,
		event.Metadata,
	)

	return nil
}
