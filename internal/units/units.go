// Package units converts raw metric values (rates in events/second,
// durations in nanoseconds) into configured display units. Conversion is
// pure arithmetic; unsupported units are rejected when the converter is
// built, never at report time.
package units

import (
	"fmt"
	"time"
)

// Unit is a time unit used for rate and duration display.
type Unit string

const (
	Nanoseconds  Unit = "nanoseconds"
	Microseconds Unit = "microseconds"
	Milliseconds Unit = "milliseconds"
	Seconds      Unit = "seconds"
	Minutes      Unit = "minutes"
	Hours        Unit = "hours"
	Days         Unit = "days"
)

var unitDurations = map[Unit]time.Duration{
	Nanoseconds:  time.Nanosecond,
	Microseconds: time.Microsecond,
	Milliseconds: time.Millisecond,
	Seconds:      time.Second,
	Minutes:      time.Minute,
	Hours:        time.Hour,
	Days:         24 * time.Hour,
}

// Parse maps a configuration string to a Unit.
func Parse(s string) (Unit, error) {
	u := Unit(s)
	if _, ok := unitDurations[u]; !ok {
		return "", fmt.Errorf("unsupported unit %q", s)
	}

	return u, nil
}

// Duration returns the length of one unit.
func (u Unit) Duration() time.Duration {
	return unitDurations[u]
}

// RateLabel returns the label written to rate_unit columns,
// e.g. "events/second".
func (u Unit) RateLabel() string {
	// Trim the plural for the per-unit form.
	s := string(u)

	return "events/" + s[:len(s)-1]
}

// Converter scales raw rates and durations into display units.
type Converter struct {
	rateUnit       Unit
	durationUnit   Unit
	rateFactor     float64
	durationFactor float64
}

// NewConverter builds a Converter for the given rate and duration units.
func NewConverter(rateUnit, durationUnit Unit) (Converter, error) {
	if _, ok := unitDurations[rateUnit]; !ok {
		return Converter{}, fmt.Errorf("unsupported rate unit %q", rateUnit)
	}

	if _, ok := unitDurations[durationUnit]; !ok {
		return Converter{}, fmt.Errorf("unsupported duration unit %q", durationUnit)
	}

	return Converter{
		rateUnit:       rateUnit,
		durationUnit:   durationUnit,
		rateFactor:     rateUnit.Duration().Seconds(),
		durationFactor: float64(durationUnit.Duration().Nanoseconds()),
	}, nil
}

// Rate converts a raw rate in events/second to events per rate unit.
func (c Converter) Rate(v float64) float64 {
	return v * c.rateFactor
}

// InvertRate converts a displayed rate back to events/second. Exact for
// rational unit ratios.
func (c Converter) InvertRate(v float64) float64 {
	return v / c.rateFactor
}

// Duration converts a raw duration in nanoseconds to the duration unit.
func (c Converter) Duration(v float64) float64 {
	return v / c.durationFactor
}

// RateUnit returns the configured rate unit.
func (c Converter) RateUnit() Unit {
	return c.rateUnit
}

// DurationUnit returns the configured duration unit.
func (c Converter) DurationUnit() Unit {
	return c.durationUnit
}
