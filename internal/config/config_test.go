package config

import (
	"os"
	"path/filepath"
	"testing"
)

func validConfig() Config {
	return Config{
		HTTP:     HTTPConfig{Port: 8080},
		Postgres: PostgresConfig{Host: "localhost", Database: "contentdex"},
		Redis:    RedisConfig{Addrs: []string{"localhost:6379"}},
		Auth:     AuthConfig{JWTSecret: "secret"},
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := validConfig()
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 10 {
		t.Errorf("read timeout = %d, want 10", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.Postgres.Port != 5432 {
		t.Errorf("postgres port = %d, want 5432", cfg.Postgres.Port)
	}
	if cfg.Postgres.SSLMode != "disable" {
		t.Errorf("ssl mode = %q, want disable", cfg.Postgres.SSLMode)
	}
	if cfg.Embedding.Model != "text-embedding-3-small" {
		t.Errorf("model = %q, want text-embedding-3-small", cfg.Embedding.Model)
	}
	if cfg.Embedding.Dimensions != 1536 {
		t.Errorf("dimensions = %d, want 1536", cfg.Embedding.Dimensions)
	}
	if cfg.Auth.SessionTTLSec != 86400 {
		t.Errorf("session ttl = %d, want 86400", cfg.Auth.SessionTTLSec)
	}
	if cfg.Search.WarnThresholdMs != 1000 {
		t.Errorf("warn threshold = %d, want 1000", cfg.Search.WarnThresholdMs)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(*Config) {}, false},
		{"bad port", func(c *Config) { c.HTTP.Port = 0 }, true},
		{"port too high", func(c *Config) { c.HTTP.Port = 70000 }, true},
		{"missing postgres host", func(c *Config) { c.Postgres.Host = "" }, true},
		{"missing database", func(c *Config) { c.Postgres.Database = "" }, true},
		{"missing redis addrs", func(c *Config) { c.Redis.Addrs = nil }, true},
		{"missing jwt secret", func(c *Config) { c.Auth.JWTSecret = "" }, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantErr && err == nil {
				t.Fatal("expected error")
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("CDX_TEST_SECRET", "s3cr3t")

	in := []byte("secret: ${CDX_TEST_SECRET}\nhost: ${CDX_TEST_MISSING:-localhost}\nempty: ${CDX_TEST_MISSING}")
	got := string(expandEnvVars(in))
	want := "secret: s3cr3t\nhost: localhost\nempty: "
	if got != want {
		t.Errorf("expanded = %q, want %q", got, want)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "config"), 0o755); err != nil {
		t.Fatal(err)
	}

	yaml := `
http:
  port: 9090
postgres:
  host: db.internal
  database: contentdex
redis:
  addrs: ["cache.internal:6379"]
auth:
  jwt_secret: ${CDX_JWT_SECRET:-fallback-secret}
search:
  warn_threshold_ms: 500
`
	if err := os.WriteFile(filepath.Join(dir, "config", "test.yaml"), []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}

	cwd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(cwd) })

	cfg, err := Load("test")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTP.Port != 9090 {
		t.Errorf("port = %d, want 9090", cfg.HTTP.Port)
	}
	if cfg.Auth.JWTSecret != "fallback-secret" {
		t.Errorf("jwt secret = %q, want fallback-secret", cfg.Auth.JWTSecret)
	}
	if cfg.Search.WarnThresholdMs != 500 {
		t.Errorf("warn threshold = %d, want 500", cfg.Search.WarnThresholdMs)
	}
	// Defaults applied on top of the file
	if cfg.Postgres.Port != 5432 {
		t.Errorf("postgres port default = %d, want 5432", cfg.Postgres.Port)
	}
}

func TestGetEnv(t *testing.T) {
	t.Setenv("ENV", "")
	if got := GetEnv(); got != "local" {
		t.Errorf("GetEnv() = %q, want local", got)
	}
	t.Setenv("ENV", "prod")
	if got := GetEnv(); got != "prod" {
		t.Errorf("GetEnv() = %q, want prod", got)
	}
}
