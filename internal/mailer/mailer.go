package mailer

import (
	"fmt"
	"net/smtp"
	"strings"

	"clearancehub/internal/config"

	"go.uber.org/zap"
)

// Mailer delivers one-time login codes. Failures are the caller's to log;
// delivery never gates the flow that triggered it.
type Mailer interface {
	SendOTP(toEmail, code string) error
}

type smtpMailer struct {
	cfg config.SMTPConfig
	log *zap.Logger
}

func New(cfg config.SMTPConfig, log *zap.Logger) Mailer {
	return &smtpMailer{cfg: cfg, log: log}
}

func (m *smtpMailer) SendOTP(toEmail, code string) error {
	if !m.cfg.Enabled {
		m.log.Debug("smtp disabled, skipping otp mail", zap.String("to", toEmail))
		return nil
	}

	from := m.cfg.FromEmail
	subject := "Your login code"
	body := fmt.Sprintf("Your one-time login code is %s. It expires shortly; do not share it.", code)

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s <%s>\r\n", m.cfg.FromName, from)
	fmt.Fprintf(&msg, "To: %s\r\n", toEmail)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=UTF-8\r\n\r\n")
	msg.WriteString(body)

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}
	if err := smtp.SendMail(addr, auth, from, []string{toEmail}, []byte(msg.String())); err != nil {
		return fmt.Errorf("send otp mail: %w", err)
	}
	return nil
}
