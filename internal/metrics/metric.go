// Package metrics defines the five metric families the reporter exports
// and a registry to hold them. All statistical values (percentiles, rates)
// are computed by whoever implements the interfaces; this package only
// carries them to the reporter.
package metrics

import "sync/atomic"

// Gauge is an instantaneous value of arbitrary scalar type.
type Gauge interface {
	// Value returns the current value. It is bound into the insert
	// statement as-is, so it must be a type the driver accepts.
	Value() any
}

// Counter is a monotonically increasing count.
type Counter interface {
	Count() int64
}

// Snapshot is a statistical summary of a sample distribution, computed
// externally over whatever window the producer maintains. For timers the
// values are durations in nanoseconds.
type Snapshot struct {
	Min    int64
	Max    int64
	Mean   float64
	StdDev float64
	Median float64
	P75    float64
	P95    float64
	P98    float64
	P99    float64
	P999   float64
}

// Histogram is a count plus a distribution snapshot.
type Histogram interface {
	Count() int64
	Snapshot() Snapshot
}

// Meter tracks event rates. All rates are raw events/second; the
// reporter converts them to its configured rate unit.
type Meter interface {
	Count() int64
	MeanRate() float64
	OneMinuteRate() float64
	FiveMinuteRate() float64
	FifteenMinuteRate() float64
}

// Timer is a Meter whose distribution snapshot measures durations.
type Timer interface {
	Meter
	Snapshot() Snapshot
}

// StandardCounter is a concurrency-safe Counter.
type StandardCounter struct {
	n atomic.Int64
}

// NewCounter creates a StandardCounter starting at zero.
func NewCounter() *StandardCounter {
	return &StandardCounter{}
}

// Inc increments the counter by one.
func (c *StandardCounter) Inc() {
	c.n.Add(1)
}

// Add increments the counter by delta.
func (c *StandardCounter) Add(delta int64) {
	c.n.Add(delta)
}

func (c *StandardCounter) Count() int64 {
	return c.n.Load()
}

// GaugeFunc adapts a function to the Gauge interface. The function is
// invoked once per report cycle.
type GaugeFunc func() any

func (f GaugeFunc) Value() any {
	return f()
}
