// Package config manages environment variables.
//
// It reads variables from the `.env` file and the process environment,
// loads them into structured Go types (struct), and validates that
// required values are present so they can be reused across the
// application runtime.
//
// Responsibilities:
//   - Load environment variables (optionally from a `.env` file).
//   - Map env vars into a structured Go config (structs).
//   - Validate required values so the app fails fast on bad/missing config.
//   - Provide local-development defaults for every block.
package config

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	// Side-effect import: triggers godotenv's autoload feature.
	// If a `.env` file exists, it gets loaded into process env
	// before any env var is read.
	_ "github.com/joho/godotenv/autoload"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

/*
	Two env sources are layered through koanf:

	1. libpq-style variables (PGHOST, PGPORT, ...) and PORT. These are what
	   most Postgres tooling and PaaS platforms export already.
	2. GREEDY_-prefixed variables. The prefix is stripped, the key is
	   lowercased and "__" becomes the nesting delimiter, so
	   GREEDY_DATABASE__SSL_MODE -> database.ssl_mode -> Config.Database.SSLMode.

	Later loads win, so GREEDY_ variables override the libpq ones.
*/

// EnvPrefix is the prefix every application-specific variable carries.
const EnvPrefix = "GREEDY_"

// standardEnvKeys maps well-known variables to koanf keys.
var standardEnvKeys = map[string]string{
	"PGHOST":     "database.host",
	"PGPORT":     "database.port",
	"PGDATABASE": "database.name",
	"PGUSER":     "database.user",
	"PGPASSWORD": "database.password",
	"PGSSLMODE":  "database.ssl_mode",
	"PORT":       "server.port",
	"REDIS_ADDR": "redis.address",
}

// Config is the root configuration object for the application.
//
// Observability is a pointer because it is optional. If not provided,
// defaults are injected at load time.
type Config struct {
	Primary       Primary              `koanf:"primary" validate:"required"`
	Server        ServerConfig         `koanf:"server" validate:"required"`
	Database      DatabaseConfig       `koanf:"database" validate:"required"`
	Redis         RedisConfig          `koanf:"redis"`
	RateLimit     RateLimitConfig      `koanf:"rate_limit"`
	Observability *ObservabilityConfig `koanf:"observability"`
}

// Primary holds top-level information about the runtime environment.
type Primary struct {
	Env string `koanf:"env" validate:"required"`
}

// ServerConfig groups settings for the HTTP server runtime.
// Timeouts are whole seconds.
type ServerConfig struct {
	Port               string   `koanf:"port" validate:"required"`
	ReadTimeout        int      `koanf:"read_timeout" validate:"required,min=1"`
	WriteTimeout       int      `koanf:"write_timeout" validate:"required,min=1"`
	IdleTimeout        int      `koanf:"idle_timeout" validate:"required,min=1"`
	CORSAllowedOrigins []string `koanf:"cors_allowed_origins" validate:"required,min=1"`
}

// DatabaseConfig contains PostgreSQL connection parameters and pool tuning.
//
// ConnMaxLifetime, ConnMaxIdleTime and AcquireTimeout are seconds.
// AcquireTimeout bounds how long a request waits for a pooled connection.
type DatabaseConfig struct {
	Host            string `koanf:"host" validate:"required"`
	Port            int    `koanf:"port" validate:"required"`
	User            string `koanf:"user" validate:"required"`
	Password        string `koanf:"password"`
	Name            string `koanf:"name" validate:"required"`
	SSLMode         string `koanf:"ssl_mode" validate:"required,oneof=disable allow prefer require verify-ca verify-full"`
	MaxConns        int    `koanf:"max_conns" validate:"required,min=1"`
	MinConns        int    `koanf:"min_conns" validate:"min=0"`
	ConnMaxLifetime int    `koanf:"conn_max_lifetime" validate:"required"`
	ConnMaxIdleTime int    `koanf:"conn_max_idle_time" validate:"required"`
	AcquireTimeout  int    `koanf:"acquire_timeout" validate:"required,min=1"`
}

// DSN builds the postgres URL for the configured database.
//
// The password is URL-escaped so characters like ':' or '@' don't
// break the URL structure.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s/%s?sslmode=%s",
		d.User,
		url.QueryEscape(d.Password),
		net.JoinHostPort(d.Host, strconv.Itoa(d.Port)),
		d.Name,
		d.SSLMode,
	)
}

// RedisConfig contains Redis connection details.
// Address is "host:port"; empty means Redis is not used.
type RedisConfig struct {
	Address string `koanf:"address"`
}

// RateLimitConfig controls the per-client request limiter on the API group.
//
// Requests is the number of requests allowed per Window seconds.
type RateLimitConfig struct {
	Enabled  bool `koanf:"enabled"`
	Requests int  `koanf:"requests" validate:"min=1"`
	Window   int  `koanf:"window" validate:"min=1"`
}

// DefaultConfig returns the configuration used for local development.
// Every value can be overridden from the environment.
func DefaultConfig() *Config {
	return &Config{
		Primary: Primary{Env: "development"},
		Server: ServerConfig{
			Port:               "3001",
			ReadTimeout:        15,
			WriteTimeout:       15,
			IdleTimeout:        60,
			CORSAllowedOrigins: []string{"*"},
		},
		Database: DatabaseConfig{
			Host:            "localhost",
			Port:            5432,
			User:            "postgres",
			Password:        "postgres",
			Name:            "greedy",
			SSLMode:         "disable",
			MaxConns:        16,
			MinConns:        0,
			ConnMaxLifetime: 3600,
			ConnMaxIdleTime: 300,
			AcquireTimeout:  5,
		},
		RateLimit: RateLimitConfig{
			Enabled:  false,
			Requests: 100,
			Window:   60,
		},
		Observability: DefaultObservabilityConfig(),
	}
}

// LoadConfig loads configuration from environment variables on top of
// DefaultConfig, validates it and fills in observability defaults.
//
// Unlike a fatal-on-error loader, every failure is returned so the caller
// (the CLI) decides how to exit.
func LoadConfig() (*Config, error) {
	return load(env.Provider("", ".", func(s string) string {
		return standardEnvKeys[s]
	}), env.Provider(EnvPrefix, ".", envKey))
}

// envKey turns GREEDY_DATABASE__SSL_MODE into database.ssl_mode.
func envKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
}

func load(providers ...koanf.Provider) (*Config, error) {
	// "." is the key-path delimiter koanf uses to represent nesting.
	k := koanf.New(".")

	for _, p := range providers {
		if err := k.Load(p, nil); err != nil {
			return nil, fmt.Errorf("could not load env variables: %w", err)
		}
	}

	// Unmarshal into a pre-populated struct: keys missing from the
	// environment keep their default values.
	mainConfig := DefaultConfig()
	if err := k.Unmarshal("", mainConfig); err != nil {
		return nil, fmt.Errorf("could not unmarshal main config: %w", err)
	}

	// List values come from env as a single comma separated string.
	if raw := k.String("server.cors_allowed_origins"); raw != "" {
		mainConfig.Server.CORSAllowedOrigins = splitList(raw)
	}
	if raw := k.String("observability.health_checks.checks"); raw != "" && mainConfig.Observability != nil {
		mainConfig.Observability.HealthChecks.Checks = splitList(raw)
	}

	if err := validator.New().Struct(mainConfig); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	if mainConfig.Observability == nil {
		mainConfig.Observability = DefaultObservabilityConfig()
	}

	// Service name and environment always follow the primary config so
	// logs and traces agree on what they describe.
	mainConfig.Observability.ServiceName = ServiceName
	mainConfig.Observability.Environment = mainConfig.Primary.Env

	if err := mainConfig.Observability.Validate(); err != nil {
		return nil, fmt.Errorf("invalid observability config: %w", err)
	}

	return mainConfig, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if v := strings.TrimSpace(part); v != "" {
			out = append(out, v)
		}
	}
	return out
}
