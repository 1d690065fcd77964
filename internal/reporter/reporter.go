// Package reporter periodically exports a registry's metrics to a
// relational database, one atomic transaction per cycle.
package reporter

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ethpandaops/sqlsink/internal/dbconn"
	"github.com/ethpandaops/sqlsink/internal/export"
	"github.com/ethpandaops/sqlsink/internal/metrics"
	"github.com/ethpandaops/sqlsink/internal/units"
)

// Clock supplies the cycle timestamp.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to the Clock interface.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time {
	return f()
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now()
}

// Filter decides which metric names are reported. A nil filter accepts
// everything.
type Filter func(name string) bool

// MetricSource supplies a fresh view of each family at report time.
// *metrics.Registry implements it.
type MetricSource interface {
	Gauges() map[string]metrics.Gauge
	Counters() map[string]metrics.Counter
	Histograms() map[string]metrics.Histogram
	Meters() map[string]metrics.Meter
	Timers() map[string]metrics.Timer
}

// Snapshot is the immutable per-cycle view of the five families. The
// reporter never mutates it.
type Snapshot struct {
	Gauges     map[string]metrics.Gauge
	Counters   map[string]metrics.Counter
	Histograms map[string]metrics.Histogram
	Meters     map[string]metrics.Meter
	Timers     map[string]metrics.Timer
}

// SnapshotOf captures the current families of src.
func SnapshotOf(src MetricSource) Snapshot {
	return Snapshot{
		Gauges:     src.Gauges(),
		Counters:   src.Counters(),
		Histograms: src.Histograms(),
		Meters:     src.Meters(),
		Timers:     src.Timers(),
	}
}

// Option customizes collaborators that are not plain configuration.
type Option func(*Reporter)

// WithClock replaces the system clock.
func WithClock(c Clock) Option {
	return func(r *Reporter) {
		r.clock = c
	}
}

// WithFilter restricts reporting to names accepted by f.
func WithFilter(f Filter) Option {
	return func(r *Reporter) {
		r.filter = f
	}
}

// WithScheduler replaces the internal ticker scheduler. Combine with
// ShutdownSchedulerOnStop=false for externally managed schedulers.
func WithScheduler(s Scheduler) Option {
	return func(r *Reporter) {
		r.sched = s
	}
}

// WithHealth wires the reporter's self-observability metrics.
func WithHealth(h *export.HealthMetrics) Option {
	return func(r *Reporter) {
		r.health = h
	}
}

// Reporter writes metric snapshots to the configured tables.
type Reporter struct {
	log    logrus.FieldLogger
	cfg    Config
	src    MetricSource
	db     dbconn.Source
	conv   units.Converter
	clock  Clock
	filter Filter
	sched  Scheduler
	health *export.HealthMetrics
}

// New validates cfg and builds a Reporter. Unit and placeholder
// problems surface here, not during report cycles.
func New(
	log logrus.FieldLogger,
	cfg Config,
	src MetricSource,
	db dbconn.Source,
	opts ...Option,
) (*Reporter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	rateUnit, err := units.Parse(cfg.RateUnit)
	if err != nil {
		return nil, err
	}

	durationUnit, err := units.Parse(cfg.DurationUnit)
	if err != nil {
		return nil, err
	}

	conv, err := units.NewConverter(rateUnit, durationUnit)
	if err != nil {
		return nil, err
	}

	r := &Reporter{
		log:   log.WithField("component", "reporter"),
		cfg:   cfg,
		src:   src,
		db:    db,
		conv:  conv,
		clock: systemClock{},
		sched: newTickerScheduler(),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r, nil
}

// Start schedules report cycles every cfg.Interval. Cycle failures are
// logged and the next tick proceeds; there is no retry of a failed
// cycle.
func (r *Reporter) Start(ctx context.Context) error {
	r.log.WithFields(logrus.Fields{
		"interval":      r.cfg.Interval,
		"rate_unit":     r.cfg.RateUnit,
		"duration_unit": r.cfg.DurationUnit,
	}).Info("Reporter started")

	r.sched.Schedule(ctx, r.cfg.Interval, func() {
		if err := r.Report(ctx, SnapshotOf(r.src)); err != nil {
			r.log.WithError(err).Error("Report cycle failed")
		}
	})

	return nil
}

// Stop halts scheduling. The underlying scheduler is only stopped when
// the reporter owns its shutdown.
func (r *Reporter) Stop() error {
	if r.cfg.ShutdownSchedulerOnStop {
		r.sched.Stop()
	}

	r.log.Info("Reporter stopped")

	return nil
}
