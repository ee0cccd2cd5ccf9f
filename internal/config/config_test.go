package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("APP_ENV", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Auth.CookieName != "token" {
		t.Fatalf("expected cookie name token, got %q", cfg.Auth.CookieName)
	}
	if cfg.App.RequestTimeout() != 30*time.Second {
		t.Fatalf("expected 30s timeout, got %s", cfg.App.RequestTimeout())
	}
	if cfg.Postgres.DSN != "" {
		t.Fatalf("expected empty DSN by default")
	}
}

func TestLoad_YAMLThenEnvPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte(`
app:
  port: "9090"
  cors_origins: ["https://tasks.example.com"]
auth:
  admin_key: from-yaml
  jwt_secret: yaml-secret
logger:
  level: debug
`)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("AUTH_ADMIN_KEY", "from-env")
	t.Setenv("APP_PORT", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.App.Port != "9090" {
		t.Fatalf("expected yaml port 9090, got %q", cfg.App.Port)
	}
	if cfg.Auth.AdminKey != "from-env" {
		t.Fatalf("expected env to override yaml, got %q", cfg.Auth.AdminKey)
	}
	if cfg.Auth.JWTSecret != "yaml-secret" {
		t.Fatalf("expected yaml secret, got %q", cfg.Auth.JWTSecret)
	}
	if len(cfg.App.CORSOrigins) != 1 || cfg.App.CORSOrigins[0] != "https://tasks.example.com" {
		t.Fatalf("unexpected cors origins %v", cfg.App.CORSOrigins)
	}
	if cfg.Logger.Level != "debug" {
		t.Fatalf("expected debug level, got %q", cfg.Logger.Level)
	}
}

func TestLoad_MissingYAMLFile(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for missing config file")
	}
}

func TestValidate_RejectsDefaultSecretInProduction(t *testing.T) {
	cfg := Default()
	cfg.App.Env = "production"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error")
	}
	cfg.Auth.JWTSecret = "a-real-secret"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestGetEnvAsList(t *testing.T) {
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.example , ,https://b.example")
	got := getEnvAsList("CORS_ALLOWED_ORIGINS", nil)
	if len(got) != 2 || got[0] != "https://a.example" || got[1] != "https://b.example" {
		t.Fatalf("unexpected list %v", got)
	}
}
