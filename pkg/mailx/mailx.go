// Package mailx delivers transactional mail such as password reset links.
package mailx

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/smtp"
	"strings"
	"time"

	"github.com/aussiebroadwan/daybook/pkg/slogx"
)

// Mailer sends a plain text message.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

var ErrInvalidAddress = errors.New("mailx: invalid address")

type SMTPConfig struct {
	Addr     string // host:port
	User     string
	Password string
	From     string
	Timeout  time.Duration
}

// SMTPMailer sends through an SMTP relay using STARTTLS when offered.
type SMTPMailer struct {
	addr    string
	auth    smtp.Auth
	from    string
	timeout time.Duration
}

func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	var auth smtp.Auth
	if cfg.User != "" || cfg.Password != "" {
		auth = smtp.PlainAuth("", cfg.User, cfg.Password, host(cfg.Addr))
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &SMTPMailer{
		addr:    cfg.Addr,
		auth:    auth,
		from:    cfg.From,
		timeout: timeout,
	}
}

func (m *SMTPMailer) Send(ctx context.Context, to, subject, body string) error {
	msg, err := buildMessage(m.from, to, subject, body)
	if err != nil {
		return err
	}

	log := slogx.FromContext(ctx).With("smtp_addr", m.addr)
	start := time.Now()

	// smtp.SendMail has no context; run it in the background and stop
	// waiting when the request goes away.
	done := make(chan error, 1)
	go func() {
		done <- smtp.SendMail(m.addr, m.auth, m.from, []string{to}, msg)
	}()

	select {
	case err := <-done:
		if err != nil {
			log.Error("sendmail failed", "err", err)
			return err
		}
		log.Info("email sent", "elapsed", time.Since(start))
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(m.timeout):
		return errors.New("mailx: send timed out")
	}
}

// LogMailer writes messages to the log instead of sending them. It is used
// when no relay is configured, e.g. in development.
type LogMailer struct {
	Logger *slog.Logger
}

func (m LogMailer) Send(ctx context.Context, to, subject, body string) error {
	if _, err := buildMessage("daybook@localhost", to, subject, body); err != nil {
		return err
	}
	log := m.Logger
	if log == nil {
		log = slogx.FromContext(ctx)
	}
	log.Info("mail not sent, no SMTP relay configured",
		"to", to,
		"subject", subject,
		"body", body,
	)
	return nil
}

func buildMessage(from, to, subject, body string) ([]byte, error) {
	if strings.ContainsAny(to, "\r\n") || !strings.Contains(to, "@") {
		return nil, ErrInvalidAddress
	}
	subject = strings.NewReplacer("\r", " ", "\n", " ").Replace(subject)

	return []byte(
		"From: " + from + "\r\n" +
			"To: " + to + "\r\n" +
			"Subject: " + subject + "\r\n" +
			"MIME-Version: 1.0\r\n" +
			"Content-Type: text/plain; charset=utf-8\r\n" +
			"\r\n" + body + "\r\n"), nil
}

func host(addr string) string {
	if h, _, err := net.SplitHostPort(addr); err == nil {
		return h
	}
	return addr
}
