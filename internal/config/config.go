// Package config loads server settings from environment variables, applies
// defaults and validates everything on startup.
package config

import (
	"log/slog"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/JonMunkholm/csvmatrix/internal/core"
	"github.com/JonMunkholm/csvmatrix/internal/store"
)

// Config holds all server configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Ingest   IngestConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Logging  LoggingConfig
	Metrics  MetricsConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	ReadTimeout  time.Duration `env:"SERVER_READ_TIMEOUT" default:"30s"`
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"2m"`
	IdleTimeout  time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout bounds graceful shutdown, including draining ingests (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 2m)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"2m"`
}

// DatabaseConfig selects the optional table store. When both are set,
// Postgres wins.
type DatabaseConfig struct {
	// URL is a PostgreSQL connection string. DB_URL is accepted as well.
	URL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	// SQLitePath is a SQLite database file used when URL is empty.
	SQLitePath string `env:"SQLITE_PATH"`

	MaxConns        int           `env:"DB_MAX_CONNS" default:"10"`
	MinConns        int           `env:"DB_MIN_CONNS" default:"1"`
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`
}

// IngestConfig holds table ingestion settings.
type IngestConfig struct {
	// MaxFileSize is the largest accepted input in bytes (default: 100MB)
	MaxFileSize int64 `env:"INGEST_MAX_FILE_SIZE" default:"104857600"`

	// MaxConcurrent is the number of ingests allowed at once (default: 5)
	MaxConcurrent int `env:"INGEST_MAX_CONCURRENT" default:"5"`

	// MaxWaitTime is how long a request waits for a free slot (default: 30s)
	MaxWaitTime time.Duration `env:"INGEST_MAX_WAIT_TIME" default:"30s"`

	// Timeout caps a single ingest (default: 5m)
	Timeout time.Duration `env:"INGEST_TIMEOUT" default:"5m"`

	// RowPolicy is strict or pad (default: strict)
	RowPolicy string `env:"INGEST_ROW_POLICY" default:"strict"`

	// Delimiter is the single-byte field separator; "tab" or `\t` mean a tab (default: ",")
	Delimiter string `env:"INGEST_DELIMITER" default:","`

	// Header is whether inputs carry a header line unless the request says otherwise
	Header bool `env:"INGEST_HEADER" default:"true"`
}

// RateLimitConfig holds per-client request limits.
type RateLimitConfig struct {
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the limit per client IP (default: 100)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"100"`
}

// SecurityConfig holds proxy trust and API key settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of proxy CIDRs or IPs whose
	// X-Real-IP / X-Forwarded-For headers are believed.
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// RequireAPIKey rejects /api requests without a valid X-API-Key.
	RequireAPIKey bool     `env:"REQUIRE_API_KEY" default:"false"`
	APIKeys       []string `env:"API_KEYS"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `env:"METRICS_ENABLED" default:"true"`
	Path    string `env:"METRICS_PATH" default:"/metrics"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Pool converts the connection settings for store.NewPGStore.
func (c *DatabaseConfig) Pool() store.PoolConfig {
	return store.PoolConfig{
		MaxConns:        c.MaxConns,
		MinConns:        c.MinConns,
		MaxConnLifetime: c.MaxConnLifetime,
		MaxConnIdleTime: c.MaxConnIdleTime,
	}
}

// Options converts ingest settings into core.Options. The config must have
// passed Validate.
func (c *IngestConfig) Options(logger *slog.Logger) core.Options {
	policy, _ := core.ParseRowPolicy(strings.ToLower(c.RowPolicy))
	opts := core.Options{
		RowPolicy: policy,
		MaxBytes:  c.MaxFileSize,
		Logger:    logger,
	}
	if d, ok := ParseDelimiter(c.Delimiter); ok {
		opts.Delimiter = d
	}
	return opts
}

// ParseDelimiter accepts a single byte other than a quote or line break, or
// "tab" / `\t` for a tab.
func ParseDelimiter(s string) (byte, bool) {
	switch s {
	case "tab", `\t`:
		return '\t', true
	}
	if len(s) != 1 || s[0] == '\n' || s[0] == '\r' || s[0] == '"' {
		return 0, false
	}
	return s[0], true
}
