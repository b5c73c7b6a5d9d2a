// Package notify is the seam for the transactional-email collaborator.
// The vendor client is wired in at deployment; this repository ships a
// logging implementation so notification points stay exercised.
package notify

import (
	"context"

	"github.com/minamikusatsuhifuka-maker/keiridocs-app/internal/logging"
)

// Notifier sends an HTML notification to one or more recipients.
type Notifier interface {
	Send(ctx context.Context, to []string, subject, html string) error
}

// LogNotifier records the would-be delivery instead of sending it.
type LogNotifier struct {
	Logger logging.Logger
}

var _ Notifier = (*LogNotifier)(nil)

// Send logs the notification and always succeeds.
func (n *LogNotifier) Send(ctx context.Context, to []string, subject, html string) error {
	n.Logger.WithFields(
		logging.Field{Key: "to", Value: to},
		logging.Field{Key: "subject", Value: subject},
		logging.Field{Key: "bytes", Value: len(html)},
	).Info("Notification recorded (no mail backend configured)")
	return nil
}
