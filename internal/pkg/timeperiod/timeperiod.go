// Package timeperiod holds the discretized interval the simulation horizon is built from.
package timeperiod

import (
	"errors"
	"time"
)

// ErrInvalidPeriod is returned when a period ends before it starts.
var ErrInvalidPeriod = errors.New("time period end precedes start")

// TimePeriod is an immutable [start, end) interval of the simulation horizon.
type TimePeriod struct {
	start time.Time
	end   time.Time
}

// New returns a TimePeriod spanning start to end.
func New(start, end time.Time) (TimePeriod, error) {
	if end.Before(start) {
		return TimePeriod{}, ErrInvalidPeriod
	}
	return TimePeriod{start: start, end: end}, nil
}

// Start is a getter for the period start
func (p TimePeriod) Start() time.Time { return p.start }

// End is a getter for the period end
func (p TimePeriod) End() time.Time { return p.end }

// Mid returns start + (end-start)/2.
func (p TimePeriod) Mid() time.Time {
	return p.start.Add(p.end.Sub(p.start) / 2)
}

// Duration returns the period length in hours.
func (p TimePeriod) Duration() float64 {
	return Hours(p.end.Sub(p.start))
}

// Horizon returns contiguous periods of length step covering [start, end). The
// final period is truncated at end.
func Horizon(start, end time.Time, step time.Duration) ([]TimePeriod, error) {
	if step <= 0 {
		return nil, errors.New("time period step must be positive")
	}
	if !end.After(start) {
		return nil, ErrInvalidPeriod
	}
	periods := make([]TimePeriod, 0, int(end.Sub(start)/step)+1)
	for t := start; t.Before(end); t = t.Add(step) {
		next := t.Add(step)
		if next.After(end) {
			next = end
		}
		periods = append(periods, TimePeriod{start: t, end: next})
	}
	return periods, nil
}

// Hours converts a duration into fractional hours.
func Hours(d time.Duration) float64 {
	return d.Hours()
}

// Duration converts fractional hours into a time.Duration.
func Duration(hours float64) time.Duration {
	return time.Duration(hours * float64(time.Hour))
}
