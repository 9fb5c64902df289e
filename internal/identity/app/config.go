package app

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

var ErrInvalidConfig = errors.New("invalid configuration")

type Config struct {
	HomeURL     string `env:"IDENTITY_HOME_URL,required"`      // application home page; its domain scopes the user cookie
	AuthBaseURL string `env:"IDENTITY_AUTH_BASE_URL,required"` // public base URL of this service

	DatabaseDriver      string        `env:"IDENTITY_DB_DRIVER" envDefault:"sqlite"` // sqlite or postgres
	DatabaseDSN         string        `env:"IDENTITY_DB_DSN" envDefault:"identity.db"`
	DBMaxOpenConns      int           `env:"IDENTITY_DB_MAX_OPEN_CONNS" envDefault:"10"`
	DBMaxIdleConns      int           `env:"IDENTITY_DB_MAX_IDLE_CONNS" envDefault:"5"`
	DBConnMaxLifetime   time.Duration `env:"IDENTITY_DB_CONN_MAX_LIFETIME" envDefault:"30m"`
	SessionSecret       string        `env:"IDENTITY_SESSION_SECRET,required,unset"`
	ExternalLoginSecret string        `env:"IDENTITY_EXTERNAL_LOGIN_SECRET,required,unset"`
	TokenLoginSecret    string        `env:"IDENTITY_TOKEN_LOGIN_SECRET,required,unset"`
	CookieSuffix        string        `env:"IDENTITY_COOKIE_SUFFIX"`
	TokenMaxDuration    time.Duration `env:"IDENTITY_TOKEN_MAX_DURATION" envDefault:"720h"`

	ProvidersFile   string        `env:"IDENTITY_PROVIDERS_FILE" envDefault:"providers.yaml"`
	ProviderTimeout time.Duration `env:"IDENTITY_PROVIDER_TIMEOUT" envDefault:"10s"`

	UserNamePrefix string `env:"IDENTITY_USER_NAME_PREFIX" envDefault:"user"`
	UserNameDigits int    `env:"IDENTITY_USER_NAME_DIGITS" envDefault:"8"`

	Env                 string        `env:"ENV" envDefault:"dev"`         // dev, staging, prod
	LogLevel            string        `env:"LOG_LEVEL" envDefault:"info"`  // debug, info, warn, error
	LogFormat           string        `env:"LOG_FORMAT" envDefault:"json"` // json, text
	Port                int           `env:"PORT" envDefault:"8080"`
	ShutdownGracePeriod time.Duration `env:"SHUTDOWN_GRACE_PERIOD" envDefault:"10s"`
}

// LoadConfig reads the configuration from the process environment. Secrets
// are removed from the environment once read.
func LoadConfig() (Config, error) {
	return parseConfig(env.Options{})
}

// LoadConfigFrom reads the configuration from the given variables only.
func LoadConfigFrom(environ map[string]string) (Config, error) {
	return parseConfig(env.Options{Environment: environ})
}

func parseConfig(opts env.Options) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the values env tags cannot express. Secrets, URLs and
// provider files are checked when the components using them are built.
func (c Config) Validate() error {
	switch c.DatabaseDriver {
	case DriverSQLite, DriverPostgres:
	default:
		return fmt.Errorf("%w: unknown database driver %q", ErrInvalidConfig, c.DatabaseDriver)
	}
	if c.DatabaseDSN == "" {
		return fmt.Errorf("%w: empty database dsn", ErrInvalidConfig)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("%w: port %d out of range", ErrInvalidConfig, c.Port)
	}
	if c.ProviderTimeout <= 0 {
		return fmt.Errorf("%w: provider timeout must be positive", ErrInvalidConfig)
	}
	return nil
}
