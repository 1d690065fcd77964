package reporter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethpandaops/sqlsink/internal/metrics"
	"github.com/ethpandaops/sqlsink/internal/units"
)

func encoderFor(t *testing.T, family string) familyEncoder {
	t.Helper()

	for _, f := range familyEncoders {
		if f.family == family {
			return f
		}
	}

	t.Fatalf("no encoder for family %q", family)

	return familyEncoder{}
}

func testEncodeContext(t *testing.T, rate, duration units.Unit) *encodeContext {
	t.Helper()

	conv, err := units.NewConverter(rate, duration)
	require.NoError(t, err)

	return &encodeContext{
		timestamp: 1000,
		conv:      conv,
	}
}

func TestInsertStatement_Placeholders(t *testing.T) {
	cfg := DefaultConfig()
	gauges := encoderFor(t, "gauges")

	assert.Equal(t,
		"insert into gauge_metrics (timestamp, name, value) values (?, ?, ?)",
		gauges.insertStatement(cfg, PlaceholderQuestion),
	)
	assert.Equal(t,
		"insert into gauge_metrics (timestamp, name, value) values ($1, $2, $3)",
		gauges.insertStatement(cfg, PlaceholderDollar),
	)
}

func TestInsertStatement_CustomTables(t *testing.T) {
	cfg := DefaultConfig()
	cfg.GaugeTable = "my_gauges"
	cfg.TimerTable = "my_timers"

	assert.Contains(t,
		encoderFor(t, "counters").insertStatement(cfg, PlaceholderQuestion),
		"insert into my_gauges (timestamp, name, count)",
	)
	assert.Contains(t,
		encoderFor(t, "timers").insertStatement(cfg, PlaceholderQuestion),
		"insert into my_timers",
	)
}

func TestEncodeHistogram_ColumnContract(t *testing.T) {
	h := encoderFor(t, "histograms")

	assert.Equal(t, []string{
		"timestamp", "name", "count",
		"max", "mean", "min", "stddev",
		"p50", "p75", "p95", "p98", "p99", "p999",
	}, h.columns)

	e := testEncodeContext(t, units.Seconds, units.Milliseconds)
	snap := Snapshot{
		Histograms: map[string]metrics.Histogram{
			"latency": staticHistogram{n: 100, s: metrics.Snapshot{
				Min: 1, Max: 90, Mean: 45.5, StdDev: 2.5,
				Median: 44, P75: 60, P95: 80, P98: 85, P99: 88, P999: 89,
			}},
		},
	}

	rows := h.rows(e, snap)
	require.Len(t, rows, 1)
	assert.Equal(t, []any{
		int64(1000), "latency", int64(100),
		int64(90), 45.5, int64(1), 2.5,
		44.0, 60.0, 80.0, 85.0, 88.0, 89.0,
	}, rows[0])
}

func TestEncodeMeter_RateConversion(t *testing.T) {
	m := encoderFor(t, "meters")

	// Per-minute display: raw 2 events/second shows as 120.
	e := testEncodeContext(t, units.Minutes, units.Milliseconds)
	snap := Snapshot{
		Meters: map[string]metrics.Meter{
			"throughput": staticMeter{n: 5, mean: 2, m1: 1, m5: 0.5, m15: 0.25},
		},
	}

	rows := m.rows(e, snap)
	require.Len(t, rows, 1)
	assert.Equal(t, []any{
		int64(1000), "throughput", int64(5),
		120.0, 60.0, 30.0, 15.0,
		"events/minute",
	}, rows[0])
}

func TestEncodeTimer_DurationAndRateConversion(t *testing.T) {
	tm := encoderFor(t, "timers")

	e := testEncodeContext(t, units.Seconds, units.Milliseconds)
	snap := Snapshot{
		Timers: map[string]metrics.Timer{
			"handler": staticTimer{
				staticMeter: staticMeter{n: 3, mean: 2, m1: 1, m5: 1, m15: 1},
				s: metrics.Snapshot{
					Min: 1_000_000, Max: 2_000_000, Mean: 1_500_000,
					StdDev: 100_000, Median: 1_400_000,
					P75: 1_600_000, P95: 1_900_000, P98: 1_950_000,
					P99: 1_980_000, P999: 1_999_000,
				},
			},
		},
	}

	rows := tm.rows(e, snap)
	require.Len(t, rows, 1)
	assert.Equal(t, []any{
		int64(1000), "handler", int64(3),
		2.0, 1.5, 1.0, 0.1, 1.4, 1.6, 1.9, 1.95, 1.98, 1.999,
		2.0, 1.0, 1.0, 1.0,
		"events/second", "milliseconds",
	}, rows[0])
}

func TestEncode_SortedByName(t *testing.T) {
	g := encoderFor(t, "gauges")

	e := testEncodeContext(t, units.Seconds, units.Milliseconds)
	snap := Snapshot{
		Gauges: map[string]metrics.Gauge{
			"zeta":  staticGauge{v: 1},
			"alpha": staticGauge{v: 2},
			"mid":   staticGauge{v: 3},
		},
	}

	rows := g.rows(e, snap)
	require.Len(t, rows, 3)
	assert.Equal(t, "alpha", rows[0][1])
	assert.Equal(t, "mid", rows[1][1])
	assert.Equal(t, "zeta", rows[2][1])
}

func TestEncode_FilterApplied(t *testing.T) {
	c := encoderFor(t, "counters")

	e := testEncodeContext(t, units.Seconds, units.Milliseconds)
	e.filter = func(name string) bool { return name == "keep" }

	snap := Snapshot{
		Counters: map[string]metrics.Counter{
			"keep": staticCounter(1),
			"drop": staticCounter(2),
		},
	}

	rows := c.rows(e, snap)
	require.Len(t, rows, 1)
	assert.Equal(t, "keep", rows[0][1])
}

func TestEncode_GaugeValueOpaque(t *testing.T) {
	g := encoderFor(t, "gauges")

	e := testEncodeContext(t, units.Seconds, units.Milliseconds)
	snap := Snapshot{
		Gauges: map[string]metrics.Gauge{
			"version": staticGauge{v: "v1.2.3"},
			"ratio":   staticGauge{v: 0.75},
		},
	}

	rows := g.rows(e, snap)
	require.Len(t, rows, 2)
	assert.Equal(t, 0.75, rows[0][2])
	assert.Equal(t, "v1.2.3", rows[1][2])
}
