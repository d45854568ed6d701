// Package notify delivers account mail: password reset links and password
// change notices.
package notify

import (
	"context"
	"log/slog"
)

// Message is one outgoing mail with text and HTML alternatives.
type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

// Mailer sends a Message. Implementations must be safe for concurrent use.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// LogMailer writes messages to the log instead of sending them. Bodies may
// contain reset links, so they are only logged when LogBodies is set (dev).
type LogMailer struct {
	Logger    *slog.Logger
	LogBodies bool
}

func (m *LogMailer) Send(ctx context.Context, msg Message) error {
	logger := m.Logger
	if logger == nil {
		logger = slog.Default()
	}

	attrs := []any{"to", msg.To, "subject", msg.Subject}
	if m.LogBodies {
		attrs = append(attrs, "body", msg.Text)
	}
	logger.InfoContext(ctx, "mail_logged", attrs...)
	return nil
}
