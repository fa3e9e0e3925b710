// Package notify sends outbound email for gate events: claim confirmations
// to fans and roster alerts to artists. Delivery is best-effort; a failed
// send never fails the claim that triggered it.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"
)

// Mailer sends a single email message.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SMTPMailer delivers mail through a plain SMTP relay.
type SMTPMailer struct {
	host     string
	port     string
	from     string
	username string
	password string
}

// NewSMTPMailer creates a Mailer that sends through the given relay.
func NewSMTPMailer(host, port, from, username, password string) (*SMTPMailer, error) {
	if host == "" {
		return nil, fmt.Errorf("SMTP host cannot be empty")
	}
	if from == "" {
		return nil, fmt.Errorf("SMTP from address cannot be empty")
	}

	return &SMTPMailer{
		host:     host,
		port:     port,
		from:     from,
		username: username,
		password: password,
	}, nil
}

// Send delivers one message. Honors context cancellation before dialing.
func (m *SMTPMailer) Send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := strings.Join([]string{
		"From: " + m.from,
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
		"",
		body,
	}, "\r\n")

	var auth smtp.Auth
	if m.username != "" {
		auth = smtp.PlainAuth("", m.username, m.password, m.host)
	}

	addr := m.host + ":" + m.port
	if err := smtp.SendMail(addr, auth, m.from, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}

	return nil
}

// LogMailer logs messages instead of sending them.
// Used in development and whenever SMTP is not configured.
type LogMailer struct {
	logger *slog.Logger
}

// NewLogMailer creates a Mailer that only logs.
func NewLogMailer(logger *slog.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

// Send logs the message and succeeds.
func (m *LogMailer) Send(_ context.Context, to, subject, _ string) error {
	if m.logger != nil {
		m.logger.Info("email delivery disabled, logging instead", "to", to, "subject", subject)
	}
	return nil
}
