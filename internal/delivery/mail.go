package delivery

import (
	"fmt"
	"net"
	"net/smtp"
	"strings"
)

// MailSender delivers an HTML mail to one or more addresses.
type MailSender interface {
	Send(to []string, subject, htmlBody string) error
}

// SMTPMailSender delivers mail through an authenticated SMTP relay.
type SMTPMailSender struct {
	host     string
	port     string
	user     string
	password string
	from     string
}

func NewSMTPMailSender(host, port, user, password, from string) *SMTPMailSender {
	return &SMTPMailSender{
		host:     host,
		port:     port,
		user:     user,
		password: password,
		from:     from,
	}
}

func (s *SMTPMailSender) Send(to []string, subject, htmlBody string) error {
	msg := []byte(
		"From: " + s.from + "\r\n" +
			"To: " + strings.Join(to, ", ") + "\r\n" +
			"Subject: " + subject + "\r\n" +
			"MIME-Version: 1.0\r\n" +
			"Content-Type: text/html; charset=\"utf-8\"\r\n" +
			"\r\n" +
			htmlBody + "\r\n")

	auth := smtp.PlainAuth("", s.user, s.password, s.host)
	if err := smtp.SendMail(net.JoinHostPort(s.host, s.port), auth, s.from, to, msg); err != nil {
		return fmt.Errorf("failed to send mail: %w", err)
	}

	return nil
}
