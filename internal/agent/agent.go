// Package agent wires the sqlsink components: database connection,
// schema bootstrap, health server, metric registry and reporter.
package agent

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sirupsen/logrus"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver
	_ "modernc.org/sqlite"             // registers the "sqlite" driver

	"github.com/ethpandaops/sqlsink/internal/dbconn"
	"github.com/ethpandaops/sqlsink/internal/export"
	"github.com/ethpandaops/sqlsink/internal/metrics"
	"github.com/ethpandaops/sqlsink/internal/migrate"
	"github.com/ethpandaops/sqlsink/internal/reporter"
)

// Agent is the top-level orchestrator for sqlsink.
type Agent interface {
	// Start initializes all components and begins reporting.
	Start(ctx context.Context) error
	// Stop shuts down all components gracefully.
	Stop() error
	// Registry is the metric registry the reporter exports. Hosts
	// embedding the agent register their own metrics here before Start.
	Registry() *metrics.Registry
}

type agent struct {
	log      logrus.FieldLogger
	cfg      *Config
	health   *export.HealthMetrics
	registry *metrics.Registry
	db       *sql.DB
	reporter *reporter.Reporter
}

// New creates a new Agent.
func New(log logrus.FieldLogger, cfg *Config) (Agent, error) {
	return &agent{
		log:      log.WithField("component", "agent"),
		cfg:      cfg,
		health:   export.NewHealthMetrics(log, cfg.Health),
		registry: metrics.NewRegistry(),
	}, nil
}

// Registry exposes the agent's metric registry so hosts embedding the
// agent can register their own metrics before Start.
func (a *agent) Registry() *metrics.Registry {
	return a.registry
}

func (a *agent) Start(ctx context.Context) error {
	// 1. Open and verify the database connection pool.
	db, err := sql.Open(a.cfg.Database.Driver, a.cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}

	db.SetMaxOpenConns(a.cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(a.cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(a.cfg.Database.ConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		db.Close()

		return fmt.Errorf("pinging database: %w", err)
	}

	a.db = db

	a.log.WithField("driver", a.cfg.Database.Driver).
		Info("Database connected")

	// 2. Bootstrap the default metric tables.
	if a.cfg.Database.Migrate {
		mig := migrate.New(a.log, a.cfg.Database.MigrateDSN())
		if err := mig.Up(ctx); err != nil {
			return fmt.Errorf("migrating schema: %w", err)
		}
	}

	// 3. Start the health metrics server.
	if err := a.health.Start(ctx); err != nil {
		return fmt.Errorf("starting health metrics: %w", err)
	}

	// 4. Register runtime metrics for the demo workload.
	if err := registerRuntimeMetrics(a.registry); err != nil {
		return fmt.Errorf("registering runtime metrics: %w", err)
	}

	// 5. Start the reporter.
	rep, err := reporter.New(
		a.log,
		a.cfg.Reporter,
		a.registry,
		dbconn.NewPool(a.db),
		reporter.WithHealth(a.health),
	)
	if err != nil {
		return fmt.Errorf("creating reporter: %w", err)
	}

	a.reporter = rep

	if err := a.reporter.Start(ctx); err != nil {
		return fmt.Errorf("starting reporter: %w", err)
	}

	return nil
}

func (a *agent) Stop() error {
	if a.reporter != nil {
		if err := a.reporter.Stop(); err != nil {
			a.log.WithError(err).Error("Error stopping reporter")
		}
	}

	if err := a.health.Stop(); err != nil {
		a.log.WithError(err).Error("Error stopping health metrics")
	}

	if a.db != nil {
		if err := a.db.Close(); err != nil {
			return fmt.Errorf("closing database: %w", err)
		}
	}

	return nil
}
