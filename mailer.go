package identity

import (
	"context"
	"sync"
)

// MailDispatcher sends mail fire-and-forget: callers never block on the mail
// gateway and never see its failures. A failed dispatch is audit-logged and
// the state transition that triggered it stands; the user can request a fresh
// token later.
type MailDispatcher struct {
	mailer Mailer
	audit  AuditSink
	logger Logger
	sync   bool
	wg     sync.WaitGroup
}

// MailDispatcherOption customizes dispatcher construction.
type MailDispatcherOption func(*MailDispatcher)

// WithMailAuditSink sets the sink that records dispatch failures.
func WithMailAuditSink(sink AuditSink) MailDispatcherOption {
	return func(d *MailDispatcher) {
		d.audit = normalizeAuditSink(sink)
	}
}

// WithMailLogger overrides the dispatcher logger.
func WithMailLogger(logger Logger) MailDispatcherOption {
	return func(d *MailDispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithSynchronousSend delivers on the calling goroutine. Tests use this to
// observe dispatches deterministically.
func WithSynchronousSend() MailDispatcherOption {
	return func(d *MailDispatcher) {
		d.sync = true
	}
}

// NewMailDispatcher wraps the external mail gateway.
func NewMailDispatcher(mailer Mailer, opts ...MailDispatcherOption) *MailDispatcher {
	d := &MailDispatcher{
		mailer: mailer,
		audit:  noopAuditSink{},
		logger: defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}

	return d
}

// Dispatch hands the message to the gateway without blocking the caller.
// Errors are logged and audit-recorded, never returned.
func (d *MailDispatcher) Dispatch(ctx context.Context, to, subject, body string) {
	if d.mailer == nil {
		d.logger.Warn("mail dispatch skipped, no mailer configured", "to", to)
		return
	}

	send := func() {
		// detach from the request context; the HTTP response must not wait
		// on mail transport latency
		if err := d.mailer.Send(context.WithoutCancel(ctx), to, subject, body); err != nil {
			d.logger.Error("mail dispatch failed", "to", to, "subject", subject, "error", err)
			if err := d.audit.Record(context.WithoutCancel(ctx), AuditEvent{
				Name:     AuditEventMailDispatchFailed,
				Severity: SeverityRoutine,
				Metadata: map[string]any{
					"to":      to,
					"subject": subject,
					"error":   err.Error(),
				},
			}); err != nil {
				d.logger.Warn("mail audit sink error: %v", err)
			}
			return
		}
		d.logger.Debug("mail dispatched", "to", to, "subject", subject)
	}

	if d.sync {
		send()
		return
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		send()
	}()
}

// Wait blocks until in-flight deliveries finish. Shutdown hook.
func (d *MailDispatcher) Wait() {
	d.wg.Wait()
}
