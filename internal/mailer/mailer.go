// Package mailer delivers transactional email such as one-time codes.
package mailer

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"quickchat-backend/internal/config"

	"github.com/rs/zerolog/log"
)

type Message struct {
	To      string
	Subject string
	Body    string
}

type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// New returns an SMTP sender when the relay is configured and a LogSender
// otherwise.
func New(cfg config.SMTPConfig) Sender {
	if !cfg.Enabled() {
		log.Warn().Msg("SMTP not configured, emails will be logged")
		return LogSender{}
	}
	return NewSMTPSender(cfg)
}

type SMTPSender struct {
	addr    string
	auth    smtp.Auth
	from    string
	send    func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
	timeNow func() time.Time
}

func NewSMTPSender(cfg config.SMTPConfig) *SMTPSender {
	var auth smtp.Auth
	if cfg.User != "" {
		auth = smtp.PlainAuth("", cfg.User, cfg.Password, cfg.Host)
	}
	return &SMTPSender{
		addr:    net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		auth:    auth,
		from:    cfg.Sender,
		send:    smtp.SendMail,
		timeNow: time.Now,
	}
}

func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.ContainsAny(msg.To, "\r\n") || strings.ContainsAny(msg.Subject, "\r\n") {
		return fmt.Errorf("mailer: header injection attempt")
	}

	if err := s.send(s.addr, s.auth, s.from, []string{msg.To}, s.compose(msg)); err != nil {
		return fmt.Errorf("mailer: send to %s: %w", msg.To, err)
	}
	log.Info().Str("to", msg.To).Str("subject", msg.Subject).Msg("Email sent")
	return nil
}

func (s *SMTPSender) compose(msg Message) []byte {
	var b strings.Builder
	b.WriteString("From: " + s.from + "\r\n")
	b.WriteString("To: " + msg.To + "\r\n")
	b.WriteString("Subject: " + msg.Subject + "\r\n")
	b.WriteString("Date: " + s.timeNow().Format(time.RFC1123Z) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(msg.Body)
	return []byte(b.String())
}

// LogSender writes messages to the log instead of sending them. The body
// carries one-time codes and is only logged at debug level.
type LogSender struct{}

func (LogSender) Send(_ context.Context, msg Message) error {
	log.Info().Str("to", msg.To).Str("subject", msg.Subject).Msg("Email (not sent)")
	log.Debug().Str("to", msg.To).Str("body", msg.Body).Msg("Email body")
	return nil
}
