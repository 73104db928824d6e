package config

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"

	"github.com/ardanlabs/conf/v3"
	"github.com/joho/godotenv"
)

// Environment name constants used in ENVIRONMENT config field.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTesting     = "testing"
)

// Store driver names accepted by STORE_DRIVER.
const (
	StorePostgres = "postgres"
	StoreSQLite   = "sqlite"
)

// Config holds all configuration for the application
type Config struct {
	// Store
	StoreDriver string `conf:"default:postgres,enum:postgres|sqlite,env:STORE_DRIVER"`
	AutoMigrate bool   `conf:"default:true,env:AUTO_MIGRATE"`

	// PostgreSQL. DatabaseURL wins over the discrete PG* settings when set.
	DatabaseURL string `conf:"env:DATABASE_URL,noprint"`
	PGHost      string `conf:"default:localhost,env:PGHOST"`
	PGPort      int    `conf:"default:5432,env:PGPORT"`
	PGUser      string `conf:"default:postgres,env:PGUSER"`
	PGPassword  string `conf:"env:PGPASSWORD,noprint"`
	PGDatabase  string `conf:"default:medshelf,env:PGDATABASE"`
	PGSSL       bool   `conf:"default:false,env:PGSSL"`

	// SQLite file used when STORE_DRIVER=sqlite
	SQLitePath string `conf:"default:data.sqlite,env:DB_PATH"`

	// Redis read cache; disabled when empty
	RedisURL string `conf:"env:REDIS_URL,noprint"`

	// HTTP
	Port int `conf:"default:4000,env:PORT"`
	// Comma-separated list of allowed origins; * allows all (dev only)
	CORSAllowedOrigins string `conf:"default:*,env:CORS_ALLOWED_ORIGINS"`

	// Application
	LogLevel    string `conf:"default:info,env:LOG_LEVEL"`
	Environment string `conf:"default:development,enum:development|testing|production,env:ENVIRONMENT"`

	// Observability
	ServiceName    string `conf:"default:medshelf,env:SERVICE_NAME"`
	ServiceVersion string `conf:"default:dev,env:SERVICE_VERSION"`
	OtelEndpoint   string `conf:"env:OTEL_ENDPOINT"`
	SentryDSN      string `conf:"env:SENTRY_DSN,noprint"`
}

// Load reads configuration from environment variables with sensible defaults
func Load() (*Config, error) {
	var cfg Config
	_ = godotenv.Load()
	if _, err := conf.Parse("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &cfg, nil
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + strconv.Itoa(c.Port)
}

// IsProduction reports whether ENVIRONMENT=production.
func (c *Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

// PostgresDSN returns DATABASE_URL when set, otherwise a URL assembled from
// the PG* settings. PGSSL switches sslmode from disable to require.
func (c *Config) PostgresDSN() string {
	sslMode := "disable"
	if c.PGSSL {
		sslMode = "require"
	}

	if c.DatabaseURL != "" {
		if !c.PGSSL || strings.Contains(c.DatabaseURL, "sslmode=") {
			return c.DatabaseURL
		}
		sep := "?"
		if strings.Contains(c.DatabaseURL, "?") {
			sep = "&"
		}
		return c.DatabaseURL + sep + "sslmode=" + sslMode
	}

	u := url.URL{
		Scheme:   "postgres",
		Host:     net.JoinHostPort(c.PGHost, strconv.Itoa(c.PGPort)),
		Path:     "/" + c.PGDatabase,
		RawQuery: url.Values{"sslmode": {sslMode}}.Encode(),
	}
	if c.PGPassword != "" {
		u.User = url.UserPassword(c.PGUser, c.PGPassword)
	} else {
		u.User = url.User(c.PGUser)
	}
	return u.String()
}

// ValidateForProduction enforces deployment requirements when ENVIRONMENT=production.
// Returns an error if any critical settings are missing or unsafe.
// No-ops for non-production environments.
func ValidateForProduction(cfg *Config) error {
	if cfg.Environment != EnvProduction {
		return nil
	}

	var errs []string

	if cfg.LogLevel == "debug" {
		errs = append(errs, "LOG_LEVEL must not be 'debug' in production (may leak sensitive data)")
	}

	if cfg.StoreDriver == StoreSQLite && (cfg.SQLitePath == "" || strings.Contains(cfg.SQLitePath, ":memory:")) {
		errs = append(errs, "DB_PATH must point to a file when STORE_DRIVER=sqlite in production")
	}

	if strings.TrimSpace(cfg.CORSAllowedOrigins) == "*" {
		errs = append(errs, "CORS_ALLOWED_ORIGINS must list explicit origins in production")
	}

	if len(errs) == 0 {
		return nil
	}

	return fmt.Errorf("production config validation failed: %s", strings.Join(errs, "; "))
}
