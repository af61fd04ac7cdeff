package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoad_ReportsMissingRequired(t *testing.T) {
	// Ensure a clean env by not setting anything and calling validation directly.
	c := Config{}
	if err := c.Validate(); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestValidate_ProductionRequiresSSLMode(t *testing.T) {
	c := Config{
		App:   AppConfig{Env: "production", Port: 8080},
		DB:    DBConfig{Host: "localhost", Port: 5432, User: "postgres", Password: "x", Name: "p360", SSLMode: ""},
		Redis: RedisConfig{Host: "localhost", Port: 6379},
		Auth:  AuthConfig{JWTSecret: "secret", JWTIssuer: "p360", JWTAudience: "p360-api"},
	}
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for production without DB_SSLMODE")
	}
}

func TestValidate_LocalDefaults(t *testing.T) {
	c := Config{
		App:   AppConfig{Env: "local", Port: 8080},
		DB:    DBConfig{Host: "localhost", Port: 5432, User: "postgres", Password: "x", Name: "p360", SSLMode: ""},
		Redis: RedisConfig{Host: "localhost", Port: 6379},
		Auth:  AuthConfig{JWTSecret: "secret"},
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if c.DB.SSLMode != "disable" {
		t.Fatalf("expected sslmode disable default, got %q", c.DB.SSLMode)
	}
	if c.CRM.RequestTimeout != 10*time.Second {
		t.Fatalf("expected 10s request timeout default, got %v", c.CRM.RequestTimeout)
	}
	if c.Dialer.QueuedDelay != 2*time.Second || c.Dialer.ProgressDelay != 30*time.Second {
		t.Fatalf("unexpected dialer delay defaults: %v %v", c.Dialer.QueuedDelay, c.Dialer.ProgressDelay)
	}
	if c.Dialer.WindowStartHour != 9 || c.Dialer.WindowEndHour != 21 {
		t.Fatalf("unexpected dial window defaults: [%d, %d)", c.Dialer.WindowStartHour, c.Dialer.WindowEndHour)
	}
}

func TestValidate_DialCapNeedsRedis(t *testing.T) {
	c := Config{
		App:    AppConfig{Env: "local", Port: 8080},
		Auth:   AuthConfig{JWTSecret: "secret"},
		Dialer: DialerConfig{DialCapPerMinute: 30},
	}
	err := c.Validate()
	if err == nil {
		t.Fatalf("expected error for dial cap without redis")
	}
	if !strings.Contains(err.Error(), "REDIS_HOST") {
		t.Fatalf("error should name REDIS_HOST, got %v", err)
	}
}

func TestValidate_RejectsBadDialWindow(t *testing.T) {
	c := Config{
		App:    AppConfig{Env: "local", Port: 8080},
		Auth:   AuthConfig{JWTSecret: "secret"},
		Dialer: DialerConfig{WindowStartHour: 22, WindowEndHour: 8},
	}
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for inverted dial window")
	}
}

func TestValidate_RejectsBadCRMBaseURL(t *testing.T) {
	c := Config{
		App:  AppConfig{Env: "local", Port: 8080},
		Auth: AuthConfig{JWTSecret: "secret"},
		CRM:  CRMConfig{BaseURL: "localhost:9000"},
	}
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for CRM base URL without scheme")
	}
}
