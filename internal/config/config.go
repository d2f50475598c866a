package config

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const envPrefix = "BOARD"

type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvProduction  Environment = "production"
)

// Config is read from BOARD_* environment variables.
type Config struct {
	Environment Environment `envconfig:"ENVIRONMENT" default:"development"`
	LogLevel    string      `envconfig:"LOG_LEVEL" default:"info"`
	HTTPAddr    string      `envconfig:"HTTP_ADDR" default:":8082"`

	MySQLDSN string `envconfig:"MYSQL_DSN" required:"true"`

	// mysql keeps sessions in the sessions table, redis in REDIS_ADDR
	SessionBackend string `envconfig:"SESSION_BACKEND" default:"mysql"`
	RedisAddr      string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisPassword  string `envconfig:"REDIS_PASSWORD"`
	RedisDB        int    `envconfig:"REDIS_DB" default:"0"`

	SessionCookieName string        `envconfig:"SESSION_COOKIE_NAME" default:"session_id"`
	SessionTimeout    time.Duration `envconfig:"SESSION_TIMEOUT" default:"24h"`
	CookieSecure      bool          `envconfig:"COOKIE_SECURE" default:"false"`
	CookieSameSite    string        `envconfig:"COOKIE_SAMESITE" default:"lax"`
	SweepInterval     time.Duration `envconfig:"SWEEP_INTERVAL" default:"10m"`

	// per client address, applied to signup and login
	LoginRate  float64 `envconfig:"LOGIN_RATE" default:"5"`
	LoginBurst int     `envconfig:"LOGIN_BURST" default:"10"`
}

// Load reads the env file named by START, or .env when present, then the
// process environment.
func Load() (*Config, error) {
	if file := os.Getenv("START"); file != "" {
		if err := godotenv.Load(file); err != nil {
			return nil, fmt.Errorf("env file %s: %w", file, err)
		}
	} else if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("env file .env: %w", err)
		}
	}

	var cfg Config
	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []error

	switch c.Environment {
	case EnvDevelopment, EnvProduction:
	default:
		errs = append(errs, fmt.Errorf("unsupported ENVIRONMENT: %s", c.Environment))
	}
	switch c.SessionBackend {
	case "mysql", "redis":
	default:
		errs = append(errs, fmt.Errorf("unsupported SESSION_BACKEND: %s", c.SessionBackend))
	}
	switch c.CookieSameSite {
	case "lax", "strict":
	case "none":
		if !c.CookieSecure {
			errs = append(errs, errors.New("COOKIE_SAMESITE=none requires COOKIE_SECURE"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported COOKIE_SAMESITE: %s", c.CookieSameSite))
	}
	if c.Environment == EnvProduction && !c.CookieSecure {
		errs = append(errs, errors.New("production requires COOKIE_SECURE"))
	}
	if c.SessionTimeout < time.Second {
		errs = append(errs, fmt.Errorf("SESSION_TIMEOUT too short: %s", c.SessionTimeout))
	}
	if c.SweepInterval <= 0 {
		errs = append(errs, fmt.Errorf("SWEEP_INTERVAL must be positive: %s", c.SweepInterval))
	}
	if c.LoginRate <= 0 || c.LoginBurst <= 0 {
		errs = append(errs, errors.New("LOGIN_RATE and LOGIN_BURST must be positive"))
	}
	return errors.Join(errs...)
}

func (c *Config) SameSite() http.SameSite {
	switch c.CookieSameSite {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}
