package reporter

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ethpandaops/sqlsink/internal/units"
)

// familyEncoder describes how one metric family becomes rows: target
// table, column list, and a binder producing one row per metric.
// Adding a family or a column is a change to this table, not new
// control flow.
type familyEncoder struct {
	family  string
	table   func(cfg Config) string
	columns []string
	rows    func(e *encodeContext, snap Snapshot) [][]any
}

// encodeContext carries the per-cycle inputs every binder needs.
type encodeContext struct {
	timestamp int64
	filter    Filter
	conv      units.Converter
}

// familyEncoders is the fixed write order for a cycle. The order has no
// correctness dependency (one transaction) but stays stable for
// reproducibility.
var familyEncoders = []familyEncoder{
	{
		family:  "gauges",
		table:   func(cfg Config) string { return cfg.GaugeTable },
		columns: []string{"timestamp", "name", "value"},
		rows: func(e *encodeContext, snap Snapshot) [][]any {
			rows := make([][]any, 0, len(snap.Gauges))
			for _, name := range sortedNames(snap.Gauges, e.filter) {
				// Gauge values are opaque; bound as-is.
				rows = append(rows, []any{e.timestamp, name, snap.Gauges[name].Value()})
			}

			return rows
		},
	},
	{
		family: "counters",
		// Counters share the gauge table, writing a count column
		// instead of a value.
		table:   func(cfg Config) string { return cfg.GaugeTable },
		columns: []string{"timestamp", "name", "count"},
		rows: func(e *encodeContext, snap Snapshot) [][]any {
			rows := make([][]any, 0, len(snap.Counters))
			for _, name := range sortedNames(snap.Counters, e.filter) {
				rows = append(rows, []any{e.timestamp, name, snap.Counters[name].Count()})
			}

			return rows
		},
	},
	{
		family: "histograms",
		table:  func(cfg Config) string { return cfg.HistogramTable },
		columns: []string{
			"timestamp", "name", "count",
			"max", "mean", "min", "stddev",
			"p50", "p75", "p95", "p98", "p99", "p999",
		},
		rows: func(e *encodeContext, snap Snapshot) [][]any {
			rows := make([][]any, 0, len(snap.Histograms))
			for _, name := range sortedNames(snap.Histograms, e.filter) {
				h := snap.Histograms[name]
				s := h.Snapshot()
				rows = append(rows, []any{
					e.timestamp, name, h.Count(),
					s.Max, s.Mean, s.Min, s.StdDev,
					s.Median, s.P75, s.P95, s.P98, s.P99, s.P999,
				})
			}

			return rows
		},
	},
	{
		family: "meters",
		table:  func(cfg Config) string { return cfg.MeterTable },
		columns: []string{
			"timestamp", "name", "count",
			"mean_rate", "m1_rate", "m5_rate", "m15_rate",
			"rate_unit",
		},
		rows: func(e *encodeContext, snap Snapshot) [][]any {
			rows := make([][]any, 0, len(snap.Meters))
			for _, name := range sortedNames(snap.Meters, e.filter) {
				m := snap.Meters[name]
				rows = append(rows, []any{
					e.timestamp, name, m.Count(),
					e.conv.Rate(m.MeanRate()),
					e.conv.Rate(m.OneMinuteRate()),
					e.conv.Rate(m.FiveMinuteRate()),
					e.conv.Rate(m.FifteenMinuteRate()),
					e.conv.RateUnit().RateLabel(),
				})
			}

			return rows
		},
	},
	{
		family: "timers",
		table:  func(cfg Config) string { return cfg.TimerTable },
		columns: []string{
			"timestamp", "name", "count",
			"max", "mean", "min", "stddev",
			"p50", "p75", "p95", "p98", "p99", "p999",
			"mean_rate", "m1_rate", "m5_rate", "m15_rate",
			"rate_unit", "duration_unit",
		},
		rows: func(e *encodeContext, snap Snapshot) [][]any {
			rows := make([][]any, 0, len(snap.Timers))
			for _, name := range sortedNames(snap.Timers, e.filter) {
				t := snap.Timers[name]
				s := t.Snapshot()
				rows = append(rows, []any{
					e.timestamp, name, t.Count(),
					e.conv.Duration(float64(s.Max)),
					e.conv.Duration(s.Mean),
					e.conv.Duration(float64(s.Min)),
					e.conv.Duration(s.StdDev),
					e.conv.Duration(s.Median),
					e.conv.Duration(s.P75),
					e.conv.Duration(s.P95),
					e.conv.Duration(s.P98),
					e.conv.Duration(s.P99),
					e.conv.Duration(s.P999),
					e.conv.Rate(t.MeanRate()),
					e.conv.Rate(t.OneMinuteRate()),
					e.conv.Rate(t.FiveMinuteRate()),
					e.conv.Rate(t.FifteenMinuteRate()),
					e.conv.RateUnit().RateLabel(),
					string(e.conv.DurationUnit()),
				})
			}

			return rows
		},
	},
}

// insertStatement builds the parameterized insert for this family.
func (f familyEncoder) insertStatement(cfg Config, style string) string {
	params := make([]string, len(f.columns))
	for i := range f.columns {
		if style == PlaceholderDollar {
			params[i] = fmt.Sprintf("$%d", i+1)
		} else {
			params[i] = "?"
		}
	}

	return fmt.Sprintf(
		"insert into %s (%s) values (%s)",
		f.table(cfg),
		strings.Join(f.columns, ", "),
		strings.Join(params, ", "),
	)
}

// sortedNames returns the names passing the filter in lexical order, so
// batch contents are reproducible across cycles.
func sortedNames[M any](m map[string]M, filter Filter) []string {
	names := make([]string, 0, len(m))

	for name := range m {
		if filter != nil && !filter(name) {
			continue
		}

		names = append(names, name)
	}

	sort.Strings(names)

	return names
}
