package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func load(t *testing.T, configFile string) (*Config, error) {
	t.Helper()
	envFile := filepath.Join(t.TempDir(), "missing.env")
	return Load(viper.New(), configFile, envFile)
}

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := load(t, "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := Default()
	if cfg.Server.Port != want.Server.Port {
		t.Errorf("port = %d, want %d", cfg.Server.Port, want.Server.Port)
	}
	if cfg.Auth.TokenTTL != 7*24*time.Hour {
		t.Errorf("token ttl = %v", cfg.Auth.TokenTTL)
	}
	if cfg.RateLimit.Window != 15*time.Minute || cfg.RateLimit.LoginMax != 5 {
		t.Errorf("rate limit = %+v", cfg.RateLimit)
	}
	if cfg.Database.Driver != "sqlite" {
		t.Errorf("driver = %q", cfg.Database.Driver)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("MAKEPLUS_AUTH_JWT_SECRET", "s3cret")
	t.Setenv("MAKEPLUS_SERVER_ENVIRONMENT", "production")
	t.Setenv("MAKEPLUS_RATE_LIMIT_LOGIN_MAX", "3")
	t.Setenv("MAKEPLUS_AUTH_TOKEN_TTL", "2h")
	t.Setenv("SMTP_HOST", "smtp.example.com")
	t.Setenv("EMAIL_TO", "team@example.com")

	cfg, err := load(t, "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Auth.JWTSecret != "s3cret" {
		t.Errorf("jwt secret = %q", cfg.Auth.JWTSecret)
	}
	if cfg.RateLimit.LoginMax != 3 {
		t.Errorf("login max = %d", cfg.RateLimit.LoginMax)
	}
	if cfg.Auth.TokenTTL != 2*time.Hour {
		t.Errorf("token ttl = %v", cfg.Auth.TokenTTL)
	}
	if cfg.Mail.Host != "smtp.example.com" || cfg.Mail.To != "team@example.com" {
		t.Errorf("mail = %+v", cfg.Mail)
	}
	if cfg.IsDevelopment() {
		t.Error("expected production mode")
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	envFile := filepath.Join(dir, ".env")
	body := "MAKEPLUS_SERVER_PORT=6060\nSMTP_HOST=smtp.example.com\nEMAIL_TO=team@example.com\n"
	if err := os.WriteFile(envFile, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(viper.New(), "", envFile)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 6060 {
		t.Errorf("port = %d, want 6060", cfg.Server.Port)
	}
	if cfg.Mail.Host != "smtp.example.com" {
		t.Errorf("mail host = %q, want the legacy name from .env", cfg.Mail.Host)
	}
	if _, ok := os.LookupEnv("MAKEPLUS_SERVER_PORT"); ok {
		t.Error(".env entries must not leak into the process environment")
	}
}

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	envFile := filepath.Join(dir, ".env")
	dotenv := "MAKEPLUS_SERVER_PORT=4000\nMAKEPLUS_SERVER_HOST=10.0.0.1\nMAKEPLUS_RATE_LIMIT_LOGIN_MAX=2\n"
	if err := os.WriteFile(envFile, []byte(dotenv), 0o600); err != nil {
		t.Fatal(err)
	}
	configFile := filepath.Join(dir, "makeplus.yaml")
	yaml := "server:\n  port: 5000\n  host: 127.0.0.1\n"
	if err := os.WriteFile(configFile, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("MAKEPLUS_SERVER_HOST", "0.0.0.0")

	cfg, err := Load(viper.New(), configFile, envFile)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	tests := []struct {
		name string
		got  any
		want any
	}{
		{"yaml over .env", cfg.Server.Port, 5000},
		{"environment over yaml", cfg.Server.Host, "0.0.0.0"},
		{".env over defaults", cfg.RateLimit.LoginMax, 2},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s: got %v, want %v", tt.name, tt.got, tt.want)
		}
	}
}

func TestWriteDefaultConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "makeplus.yaml")
	if err := WriteDefaultConfig(path, false); err != nil {
		t.Fatalf("WriteDefaultConfig: %v", err)
	}
	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), "window: 15m0s") {
		t.Errorf("durations should be written as strings:\n%s", data)
	}

	if err := WriteDefaultConfig(path, false); err == nil {
		t.Error("expected error when the file exists")
	}
	if err := WriteDefaultConfig(path, true); err != nil {
		t.Errorf("force overwrite: %v", err)
	}

	cfg, err := load(t, path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.ShutdownTimeout != 30*time.Second {
		t.Errorf("shutdown timeout = %v", cfg.Server.ShutdownTimeout)
	}
	if len(cfg.Server.CORSOrigins) != 1 || cfg.Server.CORSOrigins[0] != "http://localhost:3000" {
		t.Errorf("cors origins = %v", cfg.Server.CORSOrigins)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	if _, err := load(t, filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for a missing explicit config file")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"production without secret", func(c *Config) { c.Server.Environment = "production" }, "jwt_secret"},
		{"production with secret", func(c *Config) {
			c.Server.Environment = "production"
			c.Auth.JWTSecret = "x"
		}, ""},
		{"unknown driver", func(c *Config) { c.Database.Driver = "oracle" }, "database.driver"},
		{"zero login max", func(c *Config) { c.RateLimit.LoginMax = 0 }, "maxima"},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }, "server.port"},
		{"mail without recipient", func(c *Config) { c.Mail.Host = "smtp.example.com" }, "mail.to"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("got %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestSlogLevel(t *testing.T) {
	if got := (LoggingConfig{Level: "debug"}).SlogLevel().String(); got != "DEBUG" {
		t.Errorf("got %s", got)
	}
	if got := (LoggingConfig{Level: "nonsense"}).SlogLevel().String(); got != "INFO" {
		t.Errorf("got %s", got)
	}
}
