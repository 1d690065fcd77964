package reporter

import (
	"fmt"
	"time"

	"github.com/ethpandaops/sqlsink/internal/units"
)

// Placeholder styles for parameterized statements.
const (
	PlaceholderQuestion = "question" // ?, ?, ...
	PlaceholderDollar   = "dollar"   // $1, $2, ...
)

// Config holds the reporter settings. All fields are fixed after New;
// zero values are filled from DefaultConfig when loaded from YAML.
type Config struct {
	// Interval between report cycles. Defaults to 30s.
	Interval time.Duration `yaml:"interval"`

	// RateUnit is the display unit for rates. Defaults to "seconds"
	// (events/second).
	RateUnit string `yaml:"rate_unit"`

	// DurationUnit is the display unit for durations. Defaults to
	// "milliseconds".
	DurationUnit string `yaml:"duration_unit"`

	// Placeholders selects the bind-parameter style the target driver
	// expects: "question" (sqlite) or "dollar" (postgres).
	// Defaults to "question".
	Placeholders string `yaml:"placeholders"`

	// GaugeTable receives gauge rows and, with a separate column set,
	// counter rows. Defaults to "gauge_metrics".
	GaugeTable string `yaml:"gauge_table"`

	// HistogramTable defaults to "histogram_metrics".
	HistogramTable string `yaml:"histogram_table"`

	// MeterTable defaults to "meter_metrics".
	MeterTable string `yaml:"meter_table"`

	// TimerTable defaults to "timer_metrics".
	TimerTable string `yaml:"timer_table"`

	// RollbackOnError controls the failure branch: when true (the
	// default) a failed family write rolls the transaction back; when
	// false the work written before the failure is committed instead.
	// A failure of that compensating commit is logged, not returned, so
	// opting out of rollback accepts a silent partial-loss window.
	RollbackOnError bool `yaml:"rollback_on_error"`

	// CloseOnComplete releases the connection back to its source at the
	// end of every cycle. Defaults to true.
	CloseOnComplete bool `yaml:"close_on_complete"`

	// SavepointPerFamily establishes a savepoint before each family
	// write, so a failure only discards the failing family and earlier
	// families in the cycle are committed during finalization.
	// Defaults to false.
	SavepointPerFamily bool `yaml:"savepoint_per_family"`

	// ShutdownSchedulerOnStop stops the scheduler when the reporter
	// stops. Set to false when scheduling on an externally managed
	// Scheduler. Defaults to true.
	ShutdownSchedulerOnStop bool `yaml:"shutdown_scheduler_on_stop"`
}

// DefaultConfig returns a Config with documented defaults.
func DefaultConfig() Config {
	return Config{
		Interval:                30 * time.Second,
		RateUnit:                string(units.Seconds),
		DurationUnit:            string(units.Milliseconds),
		Placeholders:            PlaceholderQuestion,
		GaugeTable:              "gauge_metrics",
		HistogramTable:          "histogram_metrics",
		MeterTable:              "meter_metrics",
		TimerTable:              "timer_metrics",
		RollbackOnError:         true,
		CloseOnComplete:         true,
		SavepointPerFamily:      false,
		ShutdownSchedulerOnStop: true,
	}
}

// Validate checks the configuration. Unit and placeholder errors are
// caught here, at construction, never at report time.
func (c *Config) Validate() error {
	if c.Interval <= 0 {
		return fmt.Errorf("interval must be positive")
	}

	if _, err := units.Parse(c.RateUnit); err != nil {
		return fmt.Errorf("rate_unit: %w", err)
	}

	if _, err := units.Parse(c.DurationUnit); err != nil {
		return fmt.Errorf("duration_unit: %w", err)
	}

	if c.Placeholders != PlaceholderQuestion && c.Placeholders != PlaceholderDollar {
		return fmt.Errorf("placeholders must be %q or %q", PlaceholderQuestion, PlaceholderDollar)
	}

	for _, table := range []struct {
		name  string
		value string
	}{
		{"gauge_table", c.GaugeTable},
		{"histogram_table", c.HistogramTable},
		{"meter_table", c.MeterTable},
		{"timer_table", c.TimerTable},
	} {
		if table.value == "" {
			return fmt.Errorf("%s is required", table.name)
		}
	}

	return nil
}
