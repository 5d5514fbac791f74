package mailer

import (
	"bytes"
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"quickchat-backend/internal/config"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func TestNewFallsBackToLogSender(t *testing.T) {
	if _, ok := New(config.SMTPConfig{}).(LogSender); !ok {
		t.Fatal("expected LogSender without SMTP host")
	}
	if _, ok := New(config.SMTPConfig{Host: "smtp.test", Port: 25, Sender: "noreply@test"}).(*SMTPSender); !ok {
		t.Fatal("expected SMTPSender when configured")
	}
}

func TestSMTPSenderComposesMessage(t *testing.T) {
	s := NewSMTPSender(config.SMTPConfig{Host: "smtp.test", Port: 2525, Sender: "noreply@test"})
	s.timeNow = func() time.Time { return time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC) }

	var gotAddr string
	var gotTo []string
	var gotBody string
	s.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotTo, gotBody = addr, to, string(msg)
		return nil
	}

	err := s.Send(context.Background(), Message{To: "user@test", Subject: "Account Verification OTP", Body: "Your OTP is 123456"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotAddr != "smtp.test:2525" {
		t.Fatalf("unexpected addr %s", gotAddr)
	}
	if len(gotTo) != 1 || gotTo[0] != "user@test" {
		t.Fatalf("unexpected recipients %v", gotTo)
	}
	if !strings.Contains(gotBody, "Subject: Account Verification OTP\r\n") || !strings.HasSuffix(gotBody, "Your OTP is 123456") {
		t.Fatalf("unexpected message %q", gotBody)
	}
}

func TestSMTPSenderRejectsHeaderInjection(t *testing.T) {
	s := NewSMTPSender(config.SMTPConfig{Host: "smtp.test", Port: 25, Sender: "noreply@test"})
	s.send = func(string, smtp.Auth, string, []string, []byte) error {
		return errors.New("should not be called")
	}

	if err := s.Send(context.Background(), Message{To: "a@test\r\nBcc: x@test", Subject: "hi"}); err == nil {
		t.Fatal("expected header injection to be rejected")
	}
}

func TestLogSenderKeepsBodyOutOfInfoLogs(t *testing.T) {
	var buf bytes.Buffer
	original := log.Logger
	log.Logger = zerolog.New(&buf).Level(zerolog.InfoLevel)
	t.Cleanup(func() { log.Logger = original })

	err := LogSender{}.Send(context.Background(), Message{To: "a@example.com", Subject: "Password Reset OTP", Body: "Your OTP is 123456"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(buf.String(), "Password Reset OTP") {
		t.Fatalf("expected subject to be logged, got %q", buf.String())
	}
	if strings.Contains(buf.String(), "123456") {
		t.Fatalf("expected OTP to stay out of info logs, got %q", buf.String())
	}
}
