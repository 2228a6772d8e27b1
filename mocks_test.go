package identity_test

import (
	"context"
	"database/sql"
	"sync"
	"time"

	identity "github.com/clientease/go-identity"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/uptrace/bun"
)

// MockUsers mocks the subset of identity.Users the code under test touches.
// The embedded interface satisfies the rest; calling an unstubbed method
// panics, which is exactly what we want in a test.
type MockUsers struct {
	mock.Mock
	identity.Users
}

func (m *MockUsers) GetByEmail(ctx context.Context, email string) (*identity.User, error) {
	args := m.Called(ctx, email)
	user, _ := args.Get(0).(*identity.User)
	return user, args.Error(1)
}

func (m *MockUsers) Register(ctx context.Context, user *identity.User) (*identity.User, error) {
	args := m.Called(ctx, user)
	record, _ := args.Get(0).(*identity.User)
	return record, args.Error(1)
}

func (m *MockUsers) RegisterTx(ctx context.Context, tx bun.IDB, user *identity.User) (*identity.User, error) {
	args := m.Called(ctx, tx, user)
	record, _ := args.Get(0).(*identity.User)
	if record == nil && args.Error(1) == nil {
		// echo back what the insert would return
		record = user
	}
	return record, args.Error(1)
}

func (m *MockUsers) MarkEmailVerified(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockUsers) MarkEmailVerifiedTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error {
	args := m.Called(ctx, tx, id)
	return args.Error(0)
}

func (m *MockUsers) ResetPassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	args := m.Called(ctx, id, passwordHash)
	return args.Error(0)
}

func (m *MockUsers) ResetPasswordTx(ctx context.Context, tx bun.IDB, id uuid.UUID, passwordHash string) error {
	args := m.Called(ctx, tx, id, passwordHash)
	return args.Error(0)
}

// MockRepositoryManager implements identity.RepositoryManager
type MockRepositoryManager struct {
	mock.Mock
}

func (m *MockRepositoryManager) Validate() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockRepositoryManager) MustValidate() {
	m.Called()
}

func (m *MockRepositoryManager) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	args := m.Called(ctx, opts, f)
	return args.Error(0)
}

func (m *MockRepositoryManager) Users() identity.Users {
	args := m.Called()
	return args.Get(0).(identity.Users)
}

// runTxDirect stubs RunInTx by invoking the closure with a zero transaction.
func runTxDirect(repo *MockRepositoryManager) {
	repo.On("RunInTx", mock.Anything, (*sql.TxOptions)(nil), mock.Anything).
		Return(nil).
		Run(func(args mock.Arguments) {
			fn := args.Get(2).(func(context.Context, bun.Tx) error)
			var tx bun.Tx
			_ = fn(args.Get(0).(context.Context), tx)
		})
}

// MockMailer implements identity.Mailer
type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) Send(ctx context.Context, to, subject, body string) error {
	args := m.Called(ctx, to, subject, body)
	return args.Error(0)
}

// captureSink records every audit event it receives, concurrency safe.
type captureSink struct {
	mu     sync.Mutex
	events []identity.AuditEvent
	err    error
}

func (s *captureSink) Record(ctx context.Context, event identity.AuditEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return s.err
}

func (s *captureSink) Events() []identity.AuditEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]identity.AuditEvent, len(s.events))
	copy(out, s.events)
	return out
}

func (s *captureSink) ByName(name identity.AuditEventName) []identity.AuditEvent {
	var out []identity.AuditEvent
	for _, evt := range s.Events() {
		if evt.Name == name {
			out = append(out, evt)
		}
	}
	return out
}

// mockConfig implements identity.Config with test-friendly defaults.
type mockConfig struct {
	signingKey        string
	passwordResetSalt string
	verifyEmailSalt   string
	tokenMaxAge       int
	sessionDuration   int
	extendedDuration  int
	issuer            string
	audience          []string
	contextKey        string
}

func newMockConfig() *mockConfig {
	return &mockConfig{
		signingKey:        "test-signing-secret",
		passwordResetSalt: "reset-salt",
		verifyEmailSalt:   "verify-salt",
		tokenMaxAge:       24,
		sessionDuration:   24,
		extendedDuration:  24 * 30,
		issuer:            "clientease",
		audience:          []string{"web"},
		contextKey:        "session",
	}
}

func (c *mockConfig) GetSigningKey() string { return c.signingKey }
func (c *mockConfig) GetPasswordResetSalt() string { return c.passwordResetSalt }
func (c *mockConfig) GetVerifyEmailSalt() string { return c.verifyEmailSalt }
func (c *mockConfig) GetTokenMaxAge() int { return c.tokenMaxAge }
func (c *mockConfig) GetSessionDuration() int { return c.sessionDuration }
func (c *mockConfig) GetExtendedSessionDuration() int { return c.extendedDuration }
func (c *mockConfig) GetIssuer() string { return c.issuer }
func (c *mockConfig) GetAudience() []string { return c.audience }
func (c *mockConfig) GetContextKey() string { return c.contextKey }

type testLogger struct{}

func (testLogger) Debug(string, ...any) {}
func (testLogger) Info(string, ...any)  {}
func (testLogger) Warn(string, ...any)  {}
func (testLogger) Error(string, ...any) {}

func testUser(email string, verified bool) *identity.User {
	return &identity.User{
		ID:            uuid.New(),
		Role:          identity.RoleMember,
		FirstName:     "Ada",
		LastName:      "Lovelace",
		Email:         email,
		EmailVerified: verified,
	}
}

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}
