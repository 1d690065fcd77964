package metrics

import (
	"fmt"
	"sync"
)

// Registry holds named metrics, one namespace per family. Names are
// unique within a family. All methods are safe for concurrent use.
type Registry struct {
	mu         sync.RWMutex
	gauges     map[string]Gauge
	counters   map[string]Counter
	histograms map[string]Histogram
	meters     map[string]Meter
	timers     map[string]Timer
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		gauges:     make(map[string]Gauge),
		counters:   make(map[string]Counter),
		histograms: make(map[string]Histogram),
		meters:     make(map[string]Meter),
		timers:     make(map[string]Timer),
	}
}

// RegisterGauge adds a gauge under name. Registering a duplicate name
// within the family is an error.
func (r *Registry) RegisterGauge(name string, g Gauge) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.gauges[name]; ok {
		return fmt.Errorf("gauge %q already registered", name)
	}

	r.gauges[name] = g

	return nil
}

// RegisterCounter adds a counter under name.
func (r *Registry) RegisterCounter(name string, c Counter) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.counters[name]; ok {
		return fmt.Errorf("counter %q already registered", name)
	}

	r.counters[name] = c

	return nil
}

// RegisterHistogram adds a histogram under name.
func (r *Registry) RegisterHistogram(name string, h Histogram) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.histograms[name]; ok {
		return fmt.Errorf("histogram %q already registered", name)
	}

	r.histograms[name] = h

	return nil
}

// RegisterMeter adds a meter under name.
func (r *Registry) RegisterMeter(name string, m Meter) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.meters[name]; ok {
		return fmt.Errorf("meter %q already registered", name)
	}

	r.meters[name] = m

	return nil
}

// RegisterTimer adds a timer under name.
func (r *Registry) RegisterTimer(name string, t Timer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.timers[name]; ok {
		return fmt.Errorf("timer %q already registered", name)
	}

	r.timers[name] = t

	return nil
}

// Counter returns the counter registered under name, creating and
// registering a StandardCounter if none exists.
func (r *Registry) Counter(name string) Counter {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c, ok := r.counters[name]; ok {
		return c
	}

	c := NewCounter()
	r.counters[name] = c

	return c
}

// Gauges returns a copy of the gauge family.
func (r *Registry) Gauges() map[string]Gauge {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]Gauge, len(r.gauges))
	for name, g := range r.gauges {
		out[name] = g
	}

	return out
}

// Counters returns a copy of the counter family.
func (r *Registry) Counters() map[string]Counter {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]Counter, len(r.counters))
	for name, c := range r.counters {
		out[name] = c
	}

	return out
}

// Histograms returns a copy of the histogram family.
func (r *Registry) Histograms() map[string]Histogram {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]Histogram, len(r.histograms))
	for name, h := range r.histograms {
		out[name] = h
	}

	return out
}

// Meters returns a copy of the meter family.
func (r *Registry) Meters() map[string]Meter {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]Meter, len(r.meters))
	for name, m := range r.meters {
		out[name] = m
	}

	return out
}

// Timers returns a copy of the timer family.
func (r *Registry) Timers() map[string]Timer {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]Timer, len(r.timers))
	for name, t := range r.timers {
		out[name] = t
	}

	return out
}
