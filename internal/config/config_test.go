package config

import (
	"os"
	"testing"
)

func setRequiredEnv(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", "test-secret")
	t.Setenv("GOOGLE_CLIENT_ID", "test-client-id.apps.googleusercontent.com")
	t.Setenv("PROVIDER_API_KEY", "sk-test")
	t.Setenv("DATABASE_DBNAME", "promptpilot_test")
	t.Setenv("DATABASE_USER", "testuser")
	t.Setenv("DATABASE_PASSWORD", "testpass")
}

func TestLoadFromEnv(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Auth.JWTSecret != "test-secret" {
		t.Errorf("Expected jwt secret test-secret, got %s", cfg.Auth.JWTSecret)
	}

	if cfg.Quota.DailyLimit != 100 {
		t.Errorf("Expected default daily limit 100, got %d", cfg.Quota.DailyLimit)
	}

	if cfg.Auth.TokenLifetime.Hours() != 168 {
		t.Errorf("Expected default token lifetime 168h, got %v", cfg.Auth.TokenLifetime)
	}

	if cfg.Provider.Model != "gpt-4o" {
		t.Errorf("Expected default model gpt-4o, got %s", cfg.Provider.Model)
	}
}

func TestLoadMissingRequired(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("AUTH_JWT_SECRET", "")

	_, err := Load("")
	if err == nil {
		t.Error("Expected error when required configuration is missing")
	}
}

func TestLoadFromFile(t *testing.T) {
	setRequiredEnv(t)

	content := `
server:
  port: 9090
  host: "127.0.0.1"

quota:
  daily_limit: 25

cors:
  allowed_origins: "http://a.example.com, http://b.example.com"
`

	tmpfile, err := os.CreateTemp("", "config-*.yaml")
	if err != nil {
		t.Fatal(err)
	}
	defer os.Remove(tmpfile.Name())

	if _, err := tmpfile.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := tmpfile.Close(); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(tmpfile.Name())
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Expected port 9090, got %d", cfg.Server.Port)
	}

	if cfg.Quota.DailyLimit != 25 {
		t.Errorf("Expected daily limit 25, got %d", cfg.Quota.DailyLimit)
	}

	if len(cfg.CORS.AllowedOrigins) != 2 {
		t.Errorf("Expected 2 allowed origins, got %v", cfg.CORS.AllowedOrigins)
	}
}

func TestLoadRejectsZeroCeiling(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("QUOTA_DAILY_LIMIT", "0")

	_, err := Load("")
	if err == nil {
		t.Error("Expected error for zero daily limit")
	}
}

func TestLoadNonExistentFile(t *testing.T) {
	setRequiredEnv(t)

	_, err := Load("nonexistent.yaml")
	if err == nil {
		t.Error("Expected error when loading nonexistent file")
	}
}
