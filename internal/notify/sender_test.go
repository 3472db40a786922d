package notify

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"
)

func TestSMTPSenderSend(t *testing.T) {
	sender, err := NewSMTPSender(SMTPConfig{Host: "smtp.example.com", Username: "portal@example.com", Password: "secret"})
	if err != nil {
		t.Fatalf("new sender: %v", err)
	}

	var (
		gotAddr string
		gotFrom string
		gotTo   []string
		gotMsg  string
		gotAuth smtp.Auth
	)
	sender.WithSendMail(func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotAuth, gotFrom, gotTo, gotMsg = addr, a, from, to, string(msg)
		return nil
	})

	if err := sender.Send(context.Background(), ApprovalMessage("viewer@example.com")); err != nil {
		t.Fatalf("send: %v", err)
	}

	if gotAddr != "smtp.example.com:587" {
		t.Fatalf("unexpected addr %q", gotAddr)
	}
	if gotAuth == nil {
		t.Fatal("expected plain auth when username is configured")
	}
	if gotFrom != "portal@example.com" || len(gotTo) != 1 || gotTo[0] != "viewer@example.com" {
		t.Fatalf("unexpected envelope from=%q to=%v", gotFrom, gotTo)
	}
	if !strings.Contains(gotMsg, "Subject: Your Video Portal account has been approved\r\n") {
		t.Fatalf("missing subject header: %q", gotMsg)
	}
	if !strings.Contains(gotMsg, "\r\n\r\nCongratulations!") {
		t.Fatalf("missing body: %q", gotMsg)
	}
}

func TestSMTPSenderErrors(t *testing.T) {
	if _, err := NewSMTPSender(SMTPConfig{}); err == nil {
		t.Fatal("expected error without host")
	}
	if _, err := NewSMTPSender(SMTPConfig{Host: "smtp.example.com"}); err == nil {
		t.Fatal("expected error without from address")
	}

	sender, err := NewSMTPSender(SMTPConfig{Host: "smtp.example.com", From: "portal@example.com"})
	if err != nil {
		t.Fatalf("new sender: %v", err)
	}
	relayErr := errors.New("535 auth failed")
	sender.WithSendMail(func(string, smtp.Auth, string, []string, []byte) error { return relayErr })

	if err := sender.Send(context.Background(), ApprovalMessage("a@x.com")); !errors.Is(err, relayErr) {
		t.Fatalf("expected relay error, got %v", err)
	}
	if err := sender.Send(context.Background(), Message{To: "a@x.com\r\nBcc: b@x.com", Subject: "hi"}); err == nil {
		t.Fatal("expected header injection to be rejected")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := sender.Send(ctx, ApprovalMessage("a@x.com")); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context error, got %v", err)
	}
}
