package agent

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ethpandaops/sqlsink/internal/export"
	"github.com/ethpandaops/sqlsink/internal/reporter"
)

// Config is the top-level configuration for the sqlsink agent.
type Config struct {
	// LogLevel sets the logging verbosity (debug, info, warn, error).
	LogLevel string `yaml:"log_level"`

	// Database configures the relational sink connection.
	Database DatabaseConfig `yaml:"database"`

	// Reporter configures the export cycle.
	Reporter reporter.Config `yaml:"reporter"`

	// Health configures the Prometheus health metrics server.
	Health export.HealthConfig `yaml:"health"`
}

// DatabaseConfig configures the database/sql connection pool.
type DatabaseConfig struct {
	// Driver selects the registered driver: "sqlite" or "pgx".
	Driver string `yaml:"driver"`

	// DSN is the driver connection string.
	DSN string `yaml:"dsn"`

	// MaxOpenConns caps the pool size. Defaults to 5.
	MaxOpenConns int `yaml:"max_open_conns"`

	// MaxIdleConns caps idle pooled connections. Defaults to 2.
	MaxIdleConns int `yaml:"max_idle_conns"`

	// ConnMaxLifetime recycles connections older than this.
	// Defaults to 30m.
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`

	// Migrate runs schema migrations for the default tables on start.
	Migrate bool `yaml:"migrate"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		Database: DatabaseConfig{
			Driver:          "sqlite",
			MaxOpenConns:    5,
			MaxIdleConns:    2,
			ConnMaxLifetime: 30 * time.Minute,
			Migrate:         true,
		},
		Reporter: reporter.DefaultConfig(),
		Health: export.HealthConfig{
			Addr: ":9090",
		},
	}
}

// LoadConfig reads and parses a YAML configuration file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}

	cfg := DefaultConfig()

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Validate checks the configuration for required fields and consistency.
func (c *Config) Validate() error {
	if c.Database.Driver != "sqlite" && c.Database.Driver != "pgx" {
		return fmt.Errorf("database.driver must be \"sqlite\" or \"pgx\"")
	}

	if c.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required")
	}

	if err := c.Reporter.Validate(); err != nil {
		return fmt.Errorf("reporter: %w", err)
	}

	return nil
}

// MigrateDSN returns the scheme-qualified DSN golang-migrate expects.
func (c *DatabaseConfig) MigrateDSN() string {
	if c.Driver == "sqlite" {
		return "sqlite://" + c.DSN
	}

	return c.DSN
}
