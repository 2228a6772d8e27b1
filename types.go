package identity

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Session holds attributes that are part of an authenticated client session
type Session interface {
	GetUserID() string
	GetUserUUID() (uuid.UUID, error)
	GetAudience() []string
	GetIssuer() string
	GetIssuedAt() *time.Time
	GetEmailVerified() bool
}

// Identity holds the attributes of an authenticated identity
type Identity interface {
	ID() string
	Email() string
	Role() string
	EmailVerified() bool
}

// Config holds identity options. A signing secret and one salt per token
// purpose must be present; a missing salt is a startup error, never a
// per-request one.
type Config interface {
	GetSigningKey() string
	GetPasswordResetSalt() string
	GetVerifyEmailSalt() string
	GetTokenMaxAge() int
	GetSessionDuration() int
	GetExtendedSessionDuration() int
	GetIssuer() string
	GetAudience() []string
	GetContextKey() string
}

// Mailer is the external mail gateway. Delivery is best-effort; errors are
// logged by the dispatcher and never surfaced to end users.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// PasswordAuthenticator authenticates passwords
type PasswordAuthenticator interface {
	HashPassword(password string) (string, error)
	ComparePasswordAndHash(password, hash string) error
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] IDENTITY "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] IDENTITY "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] IDENTITY "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] IDENTITY "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
