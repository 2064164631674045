package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("port = %q, want 8080", cfg.Port)
	}
	if cfg.TokenTTL != 30*time.Minute {
		t.Errorf("token ttl = %v, want 30m", cfg.TokenTTL)
	}
	if cfg.ArchiveSchedule != "@daily" {
		t.Errorf("archive schedule = %q, want @daily", cfg.ArchiveSchedule)
	}
	if cfg.JWTSecret != devSecret {
		t.Errorf("jwt secret = %q, want development default", cfg.JWTSecret)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("NUTRIBOX_PORT", "9090")
	t.Setenv("NUTRIBOX_TOKEN_TTL", "15m")
	t.Setenv("NUTRIBOX_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("NUTRIBOX_LOGIN_RATE_LIMIT", "3")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "9090" {
		t.Errorf("port = %q, want 9090", cfg.Port)
	}
	if cfg.TokenTTL != 15*time.Minute {
		t.Errorf("token ttl = %v, want 15m", cfg.TokenTTL)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "https://b.example" {
		t.Errorf("origins = %v", cfg.AllowedOrigins)
	}
	if cfg.LoginRateLimit != 3 {
		t.Errorf("login rate limit = %d, want 3", cfg.LoginRateLimit)
	}
}

func TestLoadDotEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("NUTRIBOX_DB_PATH=/tmp/from-file.db\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Cleanup(func() { os.Unsetenv("NUTRIBOX_DB_PATH") })

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DBPath != "/tmp/from-file.db" {
		t.Errorf("db path = %q, want value from .env", cfg.DBPath)
	}
}

func TestLoadRequiresSecretInProduction(t *testing.T) {
	t.Setenv("NUTRIBOX_ENV", "production")
	t.Setenv("NUTRIBOX_JWT_SECRET", "")

	if _, err := Load(filepath.Join(t.TempDir(), "missing.env")); err == nil {
		t.Fatal("expected error without JWT secret in production")
	}
}

func TestLoadRejectsBadDuration(t *testing.T) {
	t.Setenv("NUTRIBOX_TOKEN_TTL", "soon")

	if _, err := Load(filepath.Join(t.TempDir(), "missing.env")); err == nil {
		t.Fatal("expected error for malformed duration")
	}
}

func TestLoadAdminPair(t *testing.T) {
	t.Setenv("NUTRIBOX_ADMIN_EMAIL", "admin@example.com")

	if _, err := Load(filepath.Join(t.TempDir(), "missing.env")); err == nil {
		t.Fatal("expected error when only admin email is set")
	}
}
