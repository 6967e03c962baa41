package notify

import (
	"fmt"
	"net/smtp"
	"strings"

	"github.com/rs/zerolog"
)

// Mailer delivers a single email message.
type Mailer interface {
	Send(to, subject, body string) error
}

// SMTPMailer delivers mail through a plain SMTP relay. The transport
// string has the form host:port, matching the MAILER_TRANSPORT env var.
type SMTPMailer struct {
	Addr string
	From string
}

func (m *SMTPMailer) Send(to, subject, body string) error {
	msg := strings.Join([]string{
		"From: " + m.From,
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"utf-8\"",
		"",
		body,
	}, "\r\n")

	if err := smtp.SendMail(m.Addr, nil, m.From, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("smtp send to %s: %w", to, err)
	}
	return nil
}

// LogMailer writes messages to the log instead of delivering them.
// Used in development when no SMTP transport is configured.
type LogMailer struct {
	Log zerolog.Logger
}

func (m *LogMailer) Send(to, subject, body string) error {
	m.Log.Info().
		Str("to", to).
		Str("subject", subject).
		Msg("email suppressed (no mailer transport configured)")
	return nil
}
