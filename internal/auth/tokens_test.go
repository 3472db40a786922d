package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func TestTokenServiceIssueAndValidate(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)}
	service := NewTokenService("secret", time.Hour).WithClock(clock.Now)

	token, err := service.Issue("user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if token.Token == "" || token.Subject != "user-1" {
		t.Fatalf("unexpected token: %+v", token)
	}
	if !token.ExpiresAt.Equal(clock.now.Add(time.Hour)) {
		t.Fatalf("unexpected expiry: %v", token.ExpiresAt)
	}

	clock.now = clock.now.Add(59 * time.Minute)
	subject, err := service.Validate(token.Token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if subject != "user-1" {
		t.Fatalf("expected subject user-1, got %q", subject)
	}
}

func TestTokenServiceRejectsExpiredToken(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)}
	service := NewTokenService("secret", time.Hour).WithClock(clock.Now)

	token, err := service.Issue("user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	clock.now = clock.now.Add(time.Hour + time.Second)
	if _, err := service.Validate(token.Token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken after expiry, got %v", err)
	}
}

func TestTokenServiceRejectsForeignSecret(t *testing.T) {
	issuer := NewTokenService("secret-a", time.Hour)
	verifier := NewTokenService("secret-b", time.Hour)

	token, err := issuer.Issue("user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, err := verifier.Validate(token.Token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for foreign secret, got %v", err)
	}
}

func TestTokenServiceRejectsMalformedTokens(t *testing.T) {
	service := NewTokenService("secret", time.Hour)

	token, err := service.Issue("user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	parts := strings.Split(token.Token, ".")
	tampered := parts[0] + "." + parts[1] + "x." + parts[2]

	for _, raw := range []string{"", "   ", "not-a-token", "a.b.c", tampered} {
		if _, err := service.Validate(raw); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("expected ErrInvalidToken for %q, got %v", raw, err)
		}
	}
}

func TestTokenServiceRejectsOtherAlgorithms(t *testing.T) {
	service := NewTokenService("secret", time.Hour)

	claims := jwt.RegisteredClaims{
		Subject:   "user-1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := service.Validate(signed); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected HS512 token to be rejected, got %v", err)
	}

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none: %v", err)
	}
	if _, err := service.Validate(unsigned); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected unsigned token to be rejected, got %v", err)
	}
}

func TestTokenServiceRequiresSubjectAndExpiry(t *testing.T) {
	service := NewTokenService("secret", time.Hour)

	noSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := service.Validate(noSubject); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected token without subject to be rejected, got %v", err)
	}

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject: "user-1",
	}).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := service.Validate(noExpiry); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected token without expiry to be rejected, got %v", err)
	}
}

func TestTokenServiceIssueValidation(t *testing.T) {
	if _, err := NewTokenService("secret", time.Hour).Issue(""); err == nil {
		t.Fatal("expected error for empty subject")
	}
	if _, err := NewTokenService("", time.Hour).Issue("user-1"); err == nil {
		t.Fatal("expected error for empty secret")
	}
}

func TestNewTokenServiceDefaultTTL(t *testing.T) {
	service := NewTokenService("secret", 0)
	if service.ttl != DefaultTokenTTL {
		t.Fatalf("expected default ttl, got %v", service.ttl)
	}
}
