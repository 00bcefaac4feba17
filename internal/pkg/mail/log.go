package mail

import (
	"context"
	"log/slog"
)

// Log is a Mail implementation that records messages instead of sending them.
type Log struct{}

// NewLog returns a Log mailer.
func NewLog() *Log {
	return &Log{}
}

// Send logs the message envelope. Bodies are not logged.
func (*Log) Send(ctx context.Context, msg Message) error {
	if len(msg.Recipients()) == 0 {
		return ErrSMTPNoRecipients
	}

	slog.InfoContext(ctx, "mail not delivered, log driver active",
		"to", msg.To,
		"subject", msg.Subject,
	)
	return nil
}

// Close implements io.Closer.
func (*Log) Close() error {
	return nil
}
