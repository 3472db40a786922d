package config

import (
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	for _, key := range []string{
		"VIDEOPORTAL_PORT", "VIDEOPORTAL_JWT_SECRET", "VIDEOPORTAL_TOKEN_TTL",
		"VIDEOPORTAL_BCRYPT_COST", "VIDEOPORTAL_ALLOWED_ORIGINS", "VIDEOPORTAL_EXTRA_VIDEO_HOSTS",
	} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.AppPort != 8080 {
		t.Fatalf("expected default port 8080, got %d", cfg.AppPort)
	}
	if cfg.TokenTTL != 24*time.Hour {
		t.Fatalf("expected 24h token ttl, got %s", cfg.TokenTTL)
	}
	if cfg.BcryptCost != bcrypt.DefaultCost {
		t.Fatalf("expected default bcrypt cost, got %d", cfg.BcryptCost)
	}
	if cfg.SeedDir != "seeds" || cfg.MigrationDir != "migrations" {
		t.Fatalf("unexpected directories: %q %q", cfg.MigrationDir, cfg.SeedDir)
	}
	if len(cfg.ExtraVideoHosts) != 0 {
		t.Fatalf("expected no extra hosts, got %v", cfg.ExtraVideoHosts)
	}
	if !errors.Is(cfg.Validate(), ErrMissingJWTSecret) {
		t.Fatal("expected missing jwt secret to fail validation")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("VIDEOPORTAL_PORT", "9090")
	t.Setenv("VIDEOPORTAL_JWT_SECRET", "s3cret")
	t.Setenv("VIDEOPORTAL_TOKEN_TTL", "2h")
	t.Setenv("VIDEOPORTAL_ALLOWED_ORIGINS", "https://a.example, https://b.example ,")
	t.Setenv("VIDEOPORTAL_EXTRA_VIDEO_HOSTS", "vimeo.com")
	t.Setenv("VIDEOPORTAL_AUTH_RATE_PER_MINUTE", "not-a-number")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.AppPort != 9090 || cfg.TokenTTL != 2*time.Hour {
		t.Fatalf("unexpected overrides: %+v", cfg)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "https://b.example" {
		t.Fatalf("unexpected origins %v", cfg.AllowedOrigins)
	}
	if len(cfg.ExtraVideoHosts) != 1 || cfg.ExtraVideoHosts[0] != "vimeo.com" {
		t.Fatalf("unexpected hosts %v", cfg.ExtraVideoHosts)
	}
	if cfg.AuthRateLimit.RequestsPerMinute != 30 {
		t.Fatalf("expected malformed value to fall back, got %d", cfg.AuthRateLimit.RequestsPerMinute)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
}
