package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"

	"github.com/learnhub-academy/learnhub/internal/reports"
	"github.com/learnhub-academy/learnhub/internal/session"
)

// Config holds runtime configuration for the application.
type Config struct {
	AppEnv            string        `envconfig:"APP_ENV" default:"development" validate:"oneof=development staging production test"`
	AppAddr           string        `envconfig:"APP_ADDR" default:":8080" validate:"required"`
	AppReadTimeout    time.Duration `envconfig:"APP_READ_TIMEOUT" default:"15s"`
	AppWriteTimeout   time.Duration `envconfig:"APP_WRITE_TIMEOUT" default:"60s"`
	AppRequestTimeout time.Duration `envconfig:"APP_REQUEST_TIMEOUT" default:"45s"`

	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty" validate:"oneof=pretty json"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`

	BackendAPIURL  string        `envconfig:"BACKEND_API_URL" default:"http://localhost:5000/api" validate:"required,url"`
	BackendTimeout time.Duration `envconfig:"BACKEND_TIMEOUT" default:"15s"`
	FrontendURL    string        `envconfig:"FRONTEND_URL" default:"http://localhost:3000" validate:"omitempty,url"`

	// PGDSN is optional; without it export auditing is disabled.
	PGDSN string `envconfig:"PG_DSN"`

	RedisAddr     string        `envconfig:"REDIS_ADDR" default:"127.0.0.1:6379" validate:"required"`
	SessionSecret string        `envconfig:"SESSION_SECRET" required:"true" validate:"min=16"`
	SessionTTL    time.Duration `envconfig:"SESSION_TTL" default:"720h"`

	// CSRFSecret falls back to a key derived from SessionSecret.
	CSRFSecret string `envconfig:"CSRF_SECRET"`

	GotenbergURL string `envconfig:"GOTENBERG_URL" default:"http://127.0.0.1:3000" validate:"required,url"`

	ReportCacheTTL          time.Duration `envconfig:"REPORT_CACHE_TTL" default:"5m"`
	ReportCacheRefreshCron  string        `envconfig:"REPORT_CACHE_REFRESH_CRON" default:"*/15 * * * *"`
	ReportMissingUserPolicy string        `envconfig:"REPORT_MISSING_USER_POLICY" default:"skip"`
	ExportArtifactTTL       time.Duration `envconfig:"EXPORT_ARTIFACT_TTL" default:"1h"`
	ExportsPerMinute        int           `envconfig:"EXPORTS_PER_MINUTE" default:"10" validate:"gt=0"`
	WorkerConcurrency       int           `envconfig:"WORKER_CONCURRENCY" default:"5" validate:"gt=0"`
	WorkerMetricsAddr       string        `envconfig:"WORKER_METRICS_ADDR" default:":9091"`

	missingUserPolicy reports.MissingUserPolicy
	csrfKey           []byte
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.finalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) finalize() error {
	if c.SessionSecret == "" {
		return errors.New("session secret must be provided")
	}
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	policy, err := reports.ParseMissingUserPolicy(c.ReportMissingUserPolicy)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	c.missingUserPolicy = policy
	c.BackendAPIURL = strings.TrimRight(c.BackendAPIURL, "/")

	if c.CSRFSecret != "" {
		c.csrfKey = []byte(c.CSRFSecret)
	} else {
		key, err := session.DeriveKey(c.SessionSecret, "csrf")
		if err != nil {
			return fmt.Errorf("config: derive csrf key: %w", err)
		}
		c.csrfKey = key
	}
	return nil
}

// IsProduction returns true when the application runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}

// MissingUserPolicy returns the parsed REPORT_MISSING_USER_POLICY.
func (c *Config) MissingUserPolicy() reports.MissingUserPolicy {
	if c == nil || c.missingUserPolicy == "" {
		return reports.SkipMissingUsers
	}
	return c.missingUserPolicy
}

// CSRFKey returns the key used to mint CSRF tokens.
func (c *Config) CSRFKey() []byte {
	return c.csrfKey
}
