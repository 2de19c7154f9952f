package notify

import (
	"fmt"
	"net/smtp"
	"strings"
)

// SMTPMailer sends notification email through a plain SMTP relay.
type SMTPMailer struct {
	Addr     string // host:port
	From     string
	Username string
	Password string
}

// Send delivers one message. Called from the dispatcher, which already treats
// failures as log-and-continue.
func (m *SMTPMailer) Send(to, subject, body string) error {
	msg := strings.Join([]string{
		"From: " + m.From,
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=utf-8",
		"",
		body,
	}, "\r\n")

	var auth smtp.Auth
	if m.Username != "" {
		host := m.Addr
		if i := strings.IndexByte(host, ':'); i >= 0 {
			host = host[:i]
		}
		auth = smtp.PlainAuth("", m.Username, m.Password, host)
	}

	if err := smtp.SendMail(m.Addr, auth, m.From, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("sending mail to %s: %w", to, err)
	}
	return nil
}
