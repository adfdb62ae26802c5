// Package notify delivers outbound notifications to contractors and document
// owners. The engine treats dispatch as fire-and-log: a delivery failure is
// surfaced to the caller but never blocks the engine's own state transitions,
// with the single exception of reminder-sent bookkeeping, which is recorded
// only after a successful dispatch.
package notify

import (
	"context"
	"log"
)

// Recipient identifies who a notification is addressed to.
type Recipient struct {
	ID    string
	Name  string
	Email string
}

// Dispatcher delivers a notification to a single recipient.
type Dispatcher interface {
	Notify(ctx context.Context, to Recipient, subject, body string) error
}

// LogDispatcher writes notifications to the process log instead of sending
// them. Used when no email provider is configured, and in tests.
type LogDispatcher struct{}

// NewLogDispatcher creates a log-only dispatcher.
func NewLogDispatcher() *LogDispatcher {
	return &LogDispatcher{}
}

// Notify logs the notification and reports success.
func (d *LogDispatcher) Notify(_ context.Context, to Recipient, subject, _ string) error {
	log.Printf("Notification (log only) to %s <%s>: %s", to.Name, to.Email, subject)
	return nil
}
