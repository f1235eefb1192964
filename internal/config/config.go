// Package config reads process configuration from GENECORE_* environment
// variables.
package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Store drivers accepted by GENECORE_STORE_DRIVER.
const (
	DriverMemory   = "memory"
	DriverFS       = "fs"
	DriverS3       = "s3"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// S3 holds the settings of the s3 blob driver.
type S3 struct {
	Bucket    string `env:"BUCKET"`
	Region    string `env:"REGION"     envDefault:"us-east-1"`
	Endpoint  string `env:"ENDPOINT"`
	PathStyle bool   `env:"PATH_STYLE"`
}

// Config is the full process configuration.
type Config struct {
	// WriteFormat is the genome layout new data is written in. It is read
	// once at startup; changing it needs a restart.
	WriteFormat string   `env:"GENECORE_WRITE_FORMAT"  envDefault:"ordered"`
	StoreDriver string   `env:"GENECORE_STORE_DRIVER"  envDefault:"fs"`
	FSRoot      string   `env:"GENECORE_FS_ROOT"       envDefault:"./genedata"`
	S3          S3       `envPrefix:"GENECORE_S3_"`
	SQLitePath  string   `env:"GENECORE_SQLITE_PATH"   envDefault:"genecore.db"`
	PostgresDSN string   `env:"GENECORE_POSTGRES_DSN"`
	Definitions []string `env:"GENECORE_DEFINITIONS"   envSeparator:","`
	LogLevel    string   `env:"GENECORE_LOG_LEVEL"     envDefault:"info"`
}

// Load parses the process environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, cfg.Validate()
}

// LoadFrom parses vars instead of the process environment.
func LoadFrom(vars map[string]string) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: vars}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, cfg.Validate()
}

// Validate checks the driver specific settings.
func (c Config) Validate() error {
	switch c.StoreDriver {
	case DriverMemory, DriverFS, DriverSQLite:
	case DriverS3:
		if c.S3.Bucket == "" {
			return fmt.Errorf("GENECORE_S3_BUCKET required for s3 driver")
		}
	case DriverPostgres:
		if c.PostgresDSN == "" {
			return fmt.Errorf("GENECORE_POSTGRES_DSN required for postgres driver")
		}
	default:
		return fmt.Errorf("unknown store driver %q", c.StoreDriver)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// ParseLevel maps a level name to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, fmt.Errorf("log level %q: %w", s, err)
	}
	return l, nil
}
