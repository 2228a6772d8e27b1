package identity_test

import (
	"context"
	"errors"
	"testing"

	identity "github.com/clientease/go-identity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestMailDispatcherDeliversSynchronously(t *testing.T) {
	mailer := &MockMailer{}
	mailer.On("Send", mock.Anything, "ada@example.com", "Verify Your Email", "body").
		Return(nil).Once()

	d := identity.NewMailDispatcher(mailer, identity.WithSynchronousSend())
	d.Dispatch(context.Background(), "ada@example.com", "Verify Your Email", "body")

	mailer.AssertExpectations(t)
}

func TestMailDispatcherDeliversAsynchronously(t *testing.T) {
	mailer := &MockMailer{}
	mailer.On("Send", mock.Anything, "ada@example.com", "subject", "body").
		Return(nil).Once()

	d := identity.NewMailDispatcher(mailer)
	d.Dispatch(context.Background(), "ada@example.com", "subject", "body")
	d.Wait()

	mailer.AssertExpectations(t)
}

func TestMailDispatcherFailureDoesNotPropagate(t *testing.T) {
	mailer := &MockMailer{}
	mailer.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(errors.New("gateway down")).Once()

	sink := &captureSink{}

	d := identity.NewMailDispatcher(mailer,
		identity.WithSynchronousSend(),
		identity.WithMailAuditSink(sink),
		identity.WithMailLogger(testLogger{}),
	)

	// Dispatch has no error return; the failure surfaces as an audit event
	d.Dispatch(context.Background(), "ada@example.com", "Reset Password", "body")

	events := sink.ByName(identity.AuditEventMailDispatchFailed)
	require.Len(t, events, 1)
	assert.Equal(t, identity.SeverityRoutine, events[0].Severity)
	assert.Equal(t, "ada@example.com", events[0].Metadata["to"])
	assert.Equal(t, "gateway down", events[0].Metadata["error"])

	mailer.AssertExpectations(t)
}

func TestMailDispatcherSurvivesCanceledRequestContext(t *testing.T) {
	delivered := make(chan context.Context, 1)

	mailer := &MockMailer{}
	mailer.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil).
		Run(func(args mock.Arguments) {
			delivered <- args.Get(0).(context.Context)
		}).Once()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d := identity.NewMailDispatcher(mailer, identity.WithSynchronousSend())
	d.Dispatch(ctx, "ada@example.com", "subject", "body")

	sendCtx := <-delivered
	assert.NoError(t, sendCtx.Err())
}

func TestMailDispatcherNoMailerConfigured(t *testing.T) {
	d := identity.NewMailDispatcher(nil, identity.WithMailLogger(testLogger{}))

	// must not panic
	d.Dispatch(context.Background(), "ada@example.com", "subject", "body")
	d.Wait()
}
