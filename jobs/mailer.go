package jobs

import (
	"fmt"
	"net/smtp"
	"strings"
)

// Mailer delivers plain-text mail over SMTP. It targets an
// unauthenticated relay such as Mailpit in development.
type Mailer interface {
	Send(to, subject, body string) error
}

type smtpMailer struct {
	addr string
	from string
}

// NewSMTPMailer builds a Mailer for the given host, port and sender.
func NewSMTPMailer(host string, port int, from string) Mailer {
	return &smtpMailer{addr: fmt.Sprintf("%s:%d", host, port), from: from}
}

func (m *smtpMailer) Send(to, subject, body string) error {
	msg := strings.Join([]string{
		"From: " + m.from,
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=utf-8",
		"",
		body,
	}, "\r\n")
	if err := smtp.SendMail(m.addr, nil, m.from, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}
	return nil
}
