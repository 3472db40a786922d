package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/videoportal/backend/internal/config"
)

type fakePool struct{}

func (fakePool) Acquire(context.Context) (*pgxpool.Conn, error) {
	return nil, errors.New("not implemented")
}

func (fakePool) Ping(context.Context) error { return nil }

func (fakePool) Close() {}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestBuildDependencies(t *testing.T) {
	cfg := config.Config{
		JWTSecret:   "secret",
		TokenTTL:    time.Hour,
		BcryptCost:  4,
		ObjectStore: config.ObjectStoreConfig{Bucket: "test-bucket", Endpoint: "http://localhost:9000", Region: "us-east-1", PublicBaseURL: "https://cdn.example.com"},
	}

	t.Setenv("AWS_ACCESS_KEY_ID", "test")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "test")

	deps, cleanup, err := buildDependencies(context.Background(), fakePool{}, cfg, discardLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cleanup == nil {
		t.Fatal("expected cleanup function")
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = cleanup(ctx)
	}()

	if deps.Accounts == nil {
		t.Fatal("expected account service to be configured")
	}
	if deps.Catalog == nil {
		t.Fatal("expected catalog to be configured")
	}
	if deps.Identities == nil {
		t.Fatal("expected identity resolver to be configured")
	}
	if deps.Uploader == nil {
		t.Fatal("expected uploader when an object store is configured")
	}
	if deps.AuthLimiter == nil || deps.Health == nil {
		t.Fatal("expected rate limiter and health checker")
	}
}

func TestBuildDependenciesWithoutObjectStore(t *testing.T) {
	cfg := config.Config{JWTSecret: "secret", TokenTTL: time.Hour}

	deps, cleanup, err := buildDependencies(context.Background(), fakePool{}, cfg, discardLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer func() { _ = cleanup(context.Background()) }()

	if deps.Uploader != nil {
		t.Fatal("expected uploads to be disabled")
	}
}

func TestBuildDependenciesRejectsBadSMTP(t *testing.T) {
	cfg := config.Config{JWTSecret: "secret", SMTP: config.SMTPConfig{Host: "smtp.example.com"}}

	if _, _, err := buildDependencies(context.Background(), fakePool{}, cfg, discardLogger()); err == nil {
		t.Fatal("expected smtp config without a from address to fail")
	}
}

func TestRunRejectsUnknownCommand(t *testing.T) {
	if err := Run(context.Background(), nil); err == nil {
		t.Fatal("expected missing command error")
	}
	if err := Run(context.Background(), []string{"explode"}); err == nil {
		t.Fatal("expected unknown command error")
	}
	if err := Run(context.Background(), []string{"create-admin", "only-email"}); err == nil {
		t.Fatal("expected usage error for create-admin")
	}
}
