// Package config loads runtime settings from the environment.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "PHARMALEDGER"

	EnvAppEnv            = "PHARMALEDGER_APP_ENV"
	EnvPort              = "PHARMALEDGER_APP_PORT"
	EnvDatabaseURL       = "PHARMALEDGER_DATABASE_URL"
	EnvJWTSecret         = "PHARMALEDGER_JWT_SECRET"
	EnvLoyaltyRule       = "PHARMALEDGER_LOYALTY_RULE"
	EnvReconcileInterval = "PHARMALEDGER_RECONCILE_INTERVAL"

	AppEnvDev  = "development"
	AppEnvProd = "production"
)

// Config is the full runtime configuration.
type Config struct {
	App       AppConfig
	DB        DBConfig
	JWT       JWTConfig
	Loyalty   LoyaltyConfig
	Audit     AuditConfig
	Reconcile ReconcileConfig
}

type AppConfig struct {
	Env      string `envconfig:"PHARMALEDGER_APP_ENV" default:"development"`
	Port     string `envconfig:"PHARMALEDGER_APP_PORT" default:"8080"`
	LogLevel string `envconfig:"PHARMALEDGER_LOG_LEVEL" default:"info"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// DBConfig configures the Postgres pool. An empty URL selects the
// in-memory store.
type DBConfig struct {
	URL             string        `envconfig:"PHARMALEDGER_DATABASE_URL"`
	MaxConns        int32         `envconfig:"PHARMALEDGER_DB_MAX_CONNS" default:"20"`
	MinConns        int32         `envconfig:"PHARMALEDGER_DB_MIN_CONNS" default:"2"`
	MaxConnLifetime time.Duration `envconfig:"PHARMALEDGER_DB_MAX_CONN_LIFETIME" default:"1h"`
	MaxConnIdleTime time.Duration `envconfig:"PHARMALEDGER_DB_MAX_CONN_IDLE_TIME" default:"10m"`
	AutoMigrate     bool          `envconfig:"PHARMALEDGER_AUTO_MIGRATE" default:"false"`
}

// InMemory reports whether no database is configured.
func (d DBConfig) InMemory() bool {
	return strings.TrimSpace(d.URL) == ""
}

type JWTConfig struct {
	Secret    string        `envconfig:"PHARMALEDGER_JWT_SECRET"`
	Issuer    string        `envconfig:"PHARMALEDGER_JWT_ISSUER" default:"pharmaledger"`
	AccessTTL time.Duration `envconfig:"PHARMALEDGER_JWT_ACCESS_TTL" default:"15m"`
	Disabled  bool          `envconfig:"PHARMALEDGER_AUTH_DISABLED" default:"false"`
}

type LoyaltyConfig struct {
	// Rule is a CEL expression over `units` and `amount` returning an int.
	Rule string `envconfig:"PHARMALEDGER_LOYALTY_RULE" default:"units / 10"`
}

type AuditConfig struct {
	WriteTimeout time.Duration `envconfig:"PHARMALEDGER_AUDIT_WRITE_TIMEOUT" default:"5s"`
	// CompressAbove is the payload size in bytes above which change sets
	// are stored zstd-compressed.
	CompressAbove int `envconfig:"PHARMALEDGER_AUDIT_COMPRESS_ABOVE" default:"2048"`
}

type ReconcileConfig struct {
	Interval time.Duration `envconfig:"PHARMALEDGER_RECONCILE_INTERVAL" default:"1h"`
}

// Load reads an optional .env file and then the PHARMALEDGER_* environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.App.IsProd() && !c.JWT.Disabled && c.JWT.Secret == "" {
		return fmt.Errorf("%s_JWT_SECRET is required in production", EnvPrefix)
	}
	if c.Reconcile.Interval <= 0 {
		return fmt.Errorf("%s_RECONCILE_INTERVAL must be positive", EnvPrefix)
	}
	return nil
}
