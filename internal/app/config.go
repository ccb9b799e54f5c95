package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Audit delivery modes.
const (
	AuditModeDirect = "direct"
	AuditModeQueue  = "queue"
)

// Config holds runtime configuration for the application.
type Config struct {
	AppEnv            string        `envconfig:"APP_ENV" default:"development"`
	AppAddr           string        `envconfig:"APP_ADDR" default:":8080"`
	AppReadTimeout    time.Duration `envconfig:"APP_READ_TIMEOUT" default:"15s"`
	AppWriteTimeout   time.Duration `envconfig:"APP_WRITE_TIMEOUT" default:"15s"`
	AppRequestTimeout time.Duration `envconfig:"APP_REQUEST_TIMEOUT" default:"30s"`

	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`

	PGDSN     string `envconfig:"PG_DSN"`
	RedisAddr string `envconfig:"REDIS_ADDR"`

	SupabaseURL            string        `envconfig:"SUPABASE_URL"`
	SupabaseAnonKey        string        `envconfig:"SUPABASE_ANON_KEY"`
	SupabaseServiceRoleKey string        `envconfig:"SUPABASE_SERVICE_ROLE_KEY"`
	SupabaseTimeout        time.Duration `envconfig:"SUPABASE_TIMEOUT" default:"5s"`

	PublicWebsiteURL string `envconfig:"PUBLIC_WEBSITE_URL"`

	DeployHookURL     string        `envconfig:"DEPLOY_HOOK_URL"`
	DeployCooldown    time.Duration `envconfig:"DEPLOY_COOLDOWN" default:"180s"`
	DeployHookTimeout time.Duration `envconfig:"DEPLOY_HOOK_TIMEOUT" default:"10s"`

	GateTimeout  time.Duration `envconfig:"GATE_TIMEOUT" default:"3s"`
	AuditTimeout time.Duration `envconfig:"AUDIT_TIMEOUT" default:"5s"`
	AuditMode    string        `envconfig:"AUDIT_MODE" default:"direct"`

	RateLimitPerMinute int `envconfig:"RATE_LIMIT_PER_MINUTE" default:"120"`

	WorkerMetricsAddr string `envconfig:"WORKER_METRICS_ADDR" default:":9091"`
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks required values and cross-field constraints.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.PGDSN) == "" {
		errs = append(errs, errors.New("PG_DSN must be provided"))
	}
	if strings.TrimSpace(c.SupabaseURL) == "" {
		errs = append(errs, errors.New("SUPABASE_URL must be provided"))
	}
	if strings.TrimSpace(c.SupabaseAnonKey) == "" {
		errs = append(errs, errors.New("SUPABASE_ANON_KEY must be provided"))
	}
	switch c.AuditMode {
	case AuditModeDirect:
	case AuditModeQueue:
		if c.RedisAddr == "" {
			errs = append(errs, errors.New("AUDIT_MODE=queue requires REDIS_ADDR"))
		}
	default:
		errs = append(errs, fmt.Errorf("AUDIT_MODE must be %q or %q, got %q", AuditModeDirect, AuditModeQueue, c.AuditMode))
	}
	if c.DeployCooldown <= 0 {
		errs = append(errs, errors.New("DEPLOY_COOLDOWN must be positive"))
	}
	if c.RateLimitPerMinute <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT_PER_MINUTE must be positive"))
	}
	return errors.Join(errs...)
}

// IsProduction returns true when the application runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}

// QueueEnabled reports whether audit entries go through the asynq queue.
func (c *Config) QueueEnabled() bool {
	return c != nil && c.AuditMode == AuditModeQueue
}
