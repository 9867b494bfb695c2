package email

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"time"

	"labhive/internal/config"

	"go.uber.org/zap"
)

// Mailer delivers a rendered Email.
type Mailer interface {
	Send(ctx context.Context, mail Email) error
}

// NewMailer returns an SMTP mailer when mail is enabled and a logging
// mailer otherwise.
func NewMailer(cfg *config.Config, logger *zap.Logger) Mailer {
	if !cfg.EnableMail || cfg.Secrets.Mail == nil {
		return &LogMailer{logger: logger.Named("mail")}
	}
	return NewSMTPMailer(cfg.Secrets.Mail)
}

// LogMailer writes messages to the log instead of sending them.
type LogMailer struct {
	logger *zap.Logger
}

func (m *LogMailer) Send(ctx context.Context, mail Email) error {
	m.logger.Info("Mail delivery disabled, logging message",
		zap.String("kind", string(mail.Kind)),
		zap.String("to", mail.To),
		zap.String("subject", mail.Subject),
		zap.String("body", mail.TextBody),
	)
	return nil
}

type SMTPMailer struct {
	cfg     *config.MailConfig
	timeout time.Duration
}

func NewSMTPMailer(cfg *config.MailConfig) *SMTPMailer {
	return &SMTPMailer{cfg: cfg, timeout: 20 * time.Second}
}

func (m *SMTPMailer) from() string {
	if m.cfg.From != "" {
		return m.cfg.From
	}
	return m.cfg.Auth.User
}

func (m *SMTPMailer) Send(ctx context.Context, mail Email) error {
	addr := net.JoinHostPort(m.cfg.Host, fmt.Sprint(m.cfg.Port))
	msg := buildMessage(m.from(), mail)

	var auth smtp.Auth
	if m.cfg.Auth.User != "" {
		auth = smtp.PlainAuth("", m.cfg.Auth.User, m.cfg.Auth.Pass, m.cfg.Host)
	}

	if !m.cfg.Secure {
		return smtp.SendMail(addr, auth, m.from(), []string{mail.To}, msg)
	}
	return m.sendImplicitTLS(ctx, addr, auth, mail.To, msg)
}

// sendImplicitTLS talks SMTPS, which smtp.SendMail does not support.
func (m *SMTPMailer) sendImplicitTLS(ctx context.Context, addr string, auth smtp.Auth, to string, msg []byte) error {
	dialer := &tls.Dialer{
		NetDialer: &net.Dialer{Timeout: m.timeout},
		Config:    &tls.Config{ServerName: m.cfg.Host, MinVersion: tls.VersionTLS12},
	}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}

	client, err := smtp.NewClient(conn, m.cfg.Host)
	if err != nil {
		conn.Close()
		return err
	}
	defer client.Close()

	if auth != nil {
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("smtp auth: %w", err)
		}
	}
	if err := client.Mail(m.from()); err != nil {
		return err
	}
	if err := client.Rcpt(to); err != nil {
		return err
	}
	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return client.Quit()
}

const boundary = "LabHiveBoundary"

// buildMessage renders a multipart/alternative message with a text and an
// HTML part.
func buildMessage(from string, mail Email) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "From: %s\r\n", from)
	fmt.Fprintf(&buf, "To: %s\r\n", mail.To)
	fmt.Fprintf(&buf, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", mail.Subject))
	buf.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&buf, "Content-Type: multipart/alternative; boundary=%s\r\n", boundary)
	buf.WriteString("\r\n")

	fmt.Fprintf(&buf, "--%s\r\n", boundary)
	buf.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n\r\n")
	buf.WriteString(mail.TextBody)
	buf.WriteString("\r\n")

	if mail.HTMLBody != "" {
		fmt.Fprintf(&buf, "--%s\r\n", boundary)
		buf.WriteString("Content-Type: text/html; charset=\"utf-8\"\r\n\r\n")
		buf.WriteString(mail.HTMLBody)
		buf.WriteString("\r\n")
	}

	fmt.Fprintf(&buf, "--%s--\r\n", boundary)
	return buf.Bytes()
}
