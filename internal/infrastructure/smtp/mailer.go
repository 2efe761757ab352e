package smtp

import (
	"fmt"
	"net/smtp"

	"github.com/ecell-portal/internal/config"
	"github.com/ecell-portal/internal/infrastructure/otpstore"
)

// Mailer sends emails.
type Mailer interface {
	SendEmail(to, subject, body string) error
	SendVerificationCode(to, name, code string) error
}

type mailer struct {
	host     string
	port     string
	from     string
	username string
	password string
}

func NewMailer(cfg *config.Config) Mailer {
	return &mailer{
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		from:     cfg.SMTPFrom,
		username: cfg.SMTPUsername,
		password: cfg.SMTPPassword,
	}
}

func (m *mailer) SendEmail(to, subject, body string) error {
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s", m.from, to, subject, body)
	addr := fmt.Sprintf("%s:%s", m.host, m.port)

	var auth smtp.Auth
	if m.username != "" {
		auth = smtp.PlainAuth("", m.username, m.password, m.host)
	}

	return smtp.SendMail(addr, auth, m.from, []string{to}, []byte(msg))
}

// SendVerificationCode sends the registration one-time code.
func (m *mailer) SendVerificationCode(to, name, code string) error {
	body := fmt.Sprintf(
		"Hello %s!\n\nYour verification code is: %s\n\nThis code expires in %d minutes.\nIf you didn't request this code, please ignore this email.\n",
		name, code, int(otpstore.TTL.Minutes()),
	)
	return m.SendEmail(to, "Your verification code", body)
}
