package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration required by the API process.
// All values must come from env (or an env-file loaded at startup).
// No business logic should depend on raw environment variables.
type Config struct {
	App     AppConfig
	CRM     CRMConfig
	DB      DBConfig
	Redis   RedisConfig
	Auth    AuthConfig
	Dialer  DialerConfig
	Tagging TaggingConfig
	Billing BillingConfig
}

type AppConfig struct {
	Env  string
	Port int
}

// CRMConfig points at the upstream CRM backend this process consumes.
// The backend is the only durable store; everything local is memory-resident.
type CRMConfig struct {
	BaseURL string

	// RequestTimeout bounds every single backend request.
	RequestTimeout time.Duration

	// RetryMaxElapsed caps retry time for idempotent reads. Writes are never retried.
	RetryMaxElapsed time.Duration
}

// DBConfig is optional. When Host is empty the process runs with in-memory
// repositories only.
type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string

	// SSLMode accepts: disable, require, verify-ca, verify-full
	SSLMode string
}

// RedisConfig is optional. When Host is empty the in-memory reminder store
// and no dial cap are used.
type RedisConfig struct {
	Host string
	Port int
}

type AuthConfig struct {
	JWTSecret       string
	JWTIssuer       string
	JWTAudience     string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
}

type DialerConfig struct {
	// Mock lifecycle delays: queued -> in-progress -> completed.
	QueuedDelay   time.Duration
	ProgressDelay time.Duration

	// DialCapPerMinute limits outbound attempts per agent (0 disables; requires Redis).
	DialCapPerMinute int

	// Calling window for the dial policy, local hours [start, end).
	WindowStartHour int
	WindowEndHour   int
	Timezone        string
}

type TaggingConfig struct {
	// SurfaceSaveFailure controls what happens when a call-record save fails.
	// false reproduces the legacy front-end behavior: log, hand the unsaved
	// form back through the completion callback, and close the workflow.
	// true returns the error to the caller and keeps the workflow open.
	SurfaceSaveFailure bool
}

// BillingConfig shapes the default late fee schedule. A zero LateFeeBps
// disables late fee accrual entirely.
type BillingConfig struct {
	Currency string

	// LateFeeBps is the daily late fee rate in basis points of the
	// outstanding amount.
	LateFeeBps       int
	LateFeeGraceDays int
	LateFeeCapMinor  int
}

func Load() (Config, error) {
	c := Config{}
	var parseErrs []error

	c.App.Env = strings.TrimSpace(os.Getenv("APP_ENV"))
	{
		n, err := mustInt("APP_PORT")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.App.Port = n
	}

	c.CRM.BaseURL = strings.TrimSpace(os.Getenv("CRM_BASE_URL"))
	c.CRM.RequestTimeout = mustDuration("CRM_REQUEST_TIMEOUT")
	c.CRM.RetryMaxElapsed = mustDuration("CRM_RETRY_MAX_ELAPSED")

	c.DB.Host = strings.TrimSpace(os.Getenv("DB_HOST"))
	if c.DB.Host != "" {
		n, err := mustInt("DB_PORT")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.DB.Port = n
		c.DB.User = strings.TrimSpace(os.Getenv("DB_USER"))
		c.DB.Password = os.Getenv("DB_PASSWORD")
		c.DB.Name = strings.TrimSpace(os.Getenv("DB_NAME"))
		c.DB.SSLMode = strings.TrimSpace(os.Getenv("DB_SSLMODE"))
	}

	c.Redis.Host = strings.TrimSpace(os.Getenv("REDIS_HOST"))
	if c.Redis.Host != "" {
		n, err := mustInt("REDIS_PORT")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.Redis.Port = n
	}

	c.Auth.JWTSecret = os.Getenv("JWT_SECRET")
	c.Auth.JWTIssuer = strings.TrimSpace(os.Getenv("JWT_ISSUER"))
	c.Auth.JWTAudience = strings.TrimSpace(os.Getenv("JWT_AUDIENCE"))
	c.Auth.AccessTokenTTL = mustDuration("JWT_ACCESS_TTL")
	c.Auth.RefreshTokenTTL = mustDuration("JWT_REFRESH_TTL")

	c.Dialer.QueuedDelay = mustDuration("DIALER_QUEUED_DELAY")
	c.Dialer.ProgressDelay = mustDuration("DIALER_PROGRESS_DELAY")
	c.Dialer.DialCapPerMinute = optionalInt("DIALER_CAP_PER_MINUTE")
	c.Dialer.WindowStartHour = optionalInt("DIALER_WINDOW_START_HOUR")
	c.Dialer.WindowEndHour = optionalInt("DIALER_WINDOW_END_HOUR")
	c.Dialer.Timezone = strings.TrimSpace(os.Getenv("DIALER_TIMEZONE"))

	c.Tagging.SurfaceSaveFailure = optionalBool("TAGGING_SURFACE_SAVE_FAILURE")

	c.Billing.Currency = strings.TrimSpace(os.Getenv("BILLING_CURRENCY"))
	c.Billing.LateFeeBps = optionalInt("BILLING_LATE_FEE_BPS")
	c.Billing.LateFeeGraceDays = optionalInt("BILLING_LATE_FEE_GRACE_DAYS")
	c.Billing.LateFeeCapMinor = optionalInt("BILLING_LATE_FEE_CAP_MINOR")

	if err := joinErrors(parseErrs); err != nil {
		return Config{}, err
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c *Config) Validate() error {
	var errs []error

	if c.App.Env == "" {
		errs = append(errs, errors.New("APP_ENV is required"))
	} else if !isValidEnv(c.App.Env) {
		errs = append(errs, fmt.Errorf("APP_ENV must be one of local, dev, staging, production, got %q", c.App.Env))
	}
	if c.App.Port <= 0 || c.App.Port > 65535 {
		errs = append(errs, fmt.Errorf("APP_PORT must be a valid port, got %d", c.App.Port))
	}

	if c.CRM.BaseURL != "" && !strings.HasPrefix(c.CRM.BaseURL, "http://") && !strings.HasPrefix(c.CRM.BaseURL, "https://") {
		errs = append(errs, fmt.Errorf("CRM_BASE_URL must be an http(s) URL, got %q", c.CRM.BaseURL))
	}
	if c.CRM.RequestTimeout <= 0 {
		c.CRM.RequestTimeout = 10 * time.Second
	}
	if c.CRM.RetryMaxElapsed <= 0 {
		c.CRM.RetryMaxElapsed = 30 * time.Second
	}

	if c.DB.Host != "" {
		if c.DB.Port <= 0 || c.DB.Port > 65535 {
			errs = append(errs, fmt.Errorf("DB_PORT must be a valid port, got %d", c.DB.Port))
		}
		if c.DB.User == "" {
			errs = append(errs, errors.New("DB_USER is required when DB_HOST is set"))
		}
		if c.DB.Name == "" {
			errs = append(errs, errors.New("DB_NAME is required when DB_HOST is set"))
		}
		if c.DB.SSLMode == "" {
			if c.IsProduction() {
				errs = append(errs, errors.New("DB_SSLMODE is required in production"))
			} else {
				c.DB.SSLMode = "disable"
			}
		}
		if c.DB.SSLMode != "" && !isValidSSLMode(c.DB.SSLMode) {
			errs = append(errs, fmt.Errorf("DB_SSLMODE must be one of disable, require, verify-ca, verify-full, got %q", c.DB.SSLMode))
		}
	}

	if c.Redis.Host != "" {
		if c.Redis.Port <= 0 || c.Redis.Port > 65535 {
			errs = append(errs, fmt.Errorf("REDIS_PORT must be a valid port, got %d", c.Redis.Port))
		}
	}

	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.IsProduction() {
		if c.Auth.JWTIssuer == "" {
			errs = append(errs, errors.New("JWT_ISSUER is required in production"))
		}
		if c.Auth.JWTAudience == "" {
			errs = append(errs, errors.New("JWT_AUDIENCE is required in production"))
		}
	}
	if c.Auth.AccessTokenTTL <= 0 {
		c.Auth.AccessTokenTTL = 15 * time.Minute
	}
	if c.Auth.RefreshTokenTTL <= 0 {
		c.Auth.RefreshTokenTTL = 30 * 24 * time.Hour
	}
	if c.Auth.RefreshTokenTTL <= c.Auth.AccessTokenTTL {
		errs = append(errs, errors.New("JWT_REFRESH_TTL must be greater than JWT_ACCESS_TTL"))
	}

	if c.Dialer.QueuedDelay <= 0 {
		c.Dialer.QueuedDelay = 2 * time.Second
	}
	if c.Dialer.ProgressDelay <= 0 {
		c.Dialer.ProgressDelay = 30 * time.Second
	}
	if c.Dialer.DialCapPerMinute > 0 && c.Redis.Host == "" {
		errs = append(errs, errors.New("DIALER_CAP_PER_MINUTE requires REDIS_HOST"))
	}
	if c.Dialer.WindowStartHour == 0 && c.Dialer.WindowEndHour == 0 {
		c.Dialer.WindowStartHour = 9
		c.Dialer.WindowEndHour = 21
	}
	if c.Dialer.WindowStartHour < 0 || c.Dialer.WindowEndHour > 24 || c.Dialer.WindowStartHour >= c.Dialer.WindowEndHour {
		errs = append(errs, fmt.Errorf("dialer window [%d, %d) is not a valid hour range", c.Dialer.WindowStartHour, c.Dialer.WindowEndHour))
	}
	if c.Dialer.Timezone != "" {
		if _, err := time.LoadLocation(c.Dialer.Timezone); err != nil {
			errs = append(errs, fmt.Errorf("DIALER_TIMEZONE: %v", err))
		}
	}

	if c.Billing.Currency == "" {
		c.Billing.Currency = "INR"
	}
	if c.Billing.LateFeeBps < 0 || c.Billing.LateFeeBps > 10000 {
		errs = append(errs, fmt.Errorf("BILLING_LATE_FEE_BPS must be within 0..10000, got %d", c.Billing.LateFeeBps))
	}
	if c.Billing.LateFeeGraceDays < 0 {
		errs = append(errs, fmt.Errorf("BILLING_LATE_FEE_GRACE_DAYS must not be negative, got %d", c.Billing.LateFeeGraceDays))
	}

	return joinErrors(errs)
}

func (c Config) IsProduction() bool {
	return c.App.Env == "production"
}

func (c Config) HTTPAddr() string {
	return fmt.Sprintf(":%d", c.App.Port)
}

func (c Config) PostgresDSN() string {
	// Avoid logging this string; it contains secrets.
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DB.Host,
		c.DB.Port,
		c.DB.User,
		c.DB.Password,
		c.DB.Name,
		c.DB.SSLMode,
	)
}

func (c Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

func mustInt(key string) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, fmt.Errorf("%s is required", key)
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, v)
	}
	return n, nil
}

func optionalInt(key string) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}

func optionalBool(key string) bool {
	v := strings.TrimSpace(os.Getenv(key))
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false
	}
	return b
}

func mustDuration(key string) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0
	}
	return d
}

func appendParseErr(errs []error, n int, err error) (int, []error) {
	if err != nil {
		errs = append(errs, err)
	}
	return n, errs
}

func isValidEnv(v string) bool {
	switch v {
	case "local", "dev", "staging", "production":
		return true
	default:
		return false
	}
}

func isValidSSLMode(v string) bool {
	switch v {
	case "disable", "require", "verify-ca", "verify-full":
		return true
	default:
		return false
	}
}

func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	if len(errs) == 1 {
		return errs[0]
	}
	var b strings.Builder
	b.WriteString("config errors:\n")
	for _, e := range errs {
		b.WriteString("- ")
		b.WriteString(e.Error())
		b.WriteString("\n")
	}
	return errors.New(strings.TrimSpace(b.String()))
}
