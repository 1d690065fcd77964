package reporter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethpandaops/sqlsink/internal/metrics"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 30*time.Second, cfg.Interval)
	assert.Equal(t, "seconds", cfg.RateUnit)
	assert.Equal(t, "milliseconds", cfg.DurationUnit)
	assert.Equal(t, PlaceholderQuestion, cfg.Placeholders)
	assert.Equal(t, "gauge_metrics", cfg.GaugeTable)
	assert.Equal(t, "histogram_metrics", cfg.HistogramTable)
	assert.Equal(t, "meter_metrics", cfg.MeterTable)
	assert.Equal(t, "timer_metrics", cfg.TimerTable)
	assert.True(t, cfg.RollbackOnError)
	assert.True(t, cfg.CloseOnComplete)
	assert.False(t, cfg.SavepointPerFamily)
	assert.True(t, cfg.ShutdownSchedulerOnStop)

	assert.NoError(t, cfg.Validate())
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(cfg *Config)
	}{
		{"zero interval", func(cfg *Config) { cfg.Interval = 0 }},
		{"bad rate unit", func(cfg *Config) { cfg.RateUnit = "eons" }},
		{"bad duration unit", func(cfg *Config) { cfg.DurationUnit = "" }},
		{"bad placeholders", func(cfg *Config) { cfg.Placeholders = "at" }},
		{"empty gauge table", func(cfg *Config) { cfg.GaugeTable = "" }},
		{"empty timer table", func(cfg *Config) { cfg.TimerTable = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)

			assert.Error(t, cfg.Validate())
		})
	}
}

func TestNew_RejectsBadConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DurationUnit = "parsecs"

	// Unit problems are construction errors, not report-time errors.
	_, err := New(testLog(), cfg, metrics.NewRegistry(), &fakeSource{conn: newFakeConn()})
	require.Error(t, err)
}
