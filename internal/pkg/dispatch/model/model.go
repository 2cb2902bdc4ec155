// Package model is a load-following dispatch simulator: photovoltaic output is
// served first, the battery covers what it can, and diesel generation covers
// the rest. Surplus photovoltaic output recharges the battery.
package model

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/ohowland/cgc_resilience/internal/pkg/asset"
	"github.com/ohowland/cgc_resilience/internal/pkg/dispatch"
	"github.com/ohowland/cgc_resilience/internal/pkg/disturbance"
	"github.com/ohowland/cgc_resilience/internal/pkg/grid"
	"github.com/ohowland/cgc_resilience/internal/pkg/timeperiod"
)

// ErrEmptyLoad is returned when no load profile is configured.
var ErrEmptyLoad = errors.New("load profile must have at least one value")

// Config holds the scheduling horizon and site parameters.
type Config struct {
	Start time.Time
	End   time.Time
	Step  time.Duration
	// Extend lengthens the horizon past End by a proportion of its length.
	Extend float64
	// Load is demand in kW, indexed by whole hours since Start and cycled.
	Load     []float64
	Location Location
	Array    Array
	// BatteryCRate bounds battery power as a multiple of its energy rating per hour.
	BatteryCRate float64
	// InitialSOC is the battery state of charge at Start, within [0, 1].
	InitialSOC float64
}

// Model is the dispatch.Resizer used by the command line tools.
type Model struct {
	grid    *grid.Grid
	cfg     Config
	periods []timeperiod.TimePeriod
	load    []float64
	// solar is the per-kW photovoltaic output of each period.
	solar []float64
}

// New precomputes the horizon, load and solar profiles for g.
func New(g *grid.Grid, cfg Config) (*Model, error) {
	if len(cfg.Load) == 0 {
		return nil, ErrEmptyLoad
	}
	if cfg.Extend < 0 {
		return nil, errors.New("horizon extension must be non-negative")
	}
	if cfg.BatteryCRate <= 0 {
		cfg.BatteryCRate = 1
	}
	if cfg.InitialSOC < 0 || cfg.InitialSOC > 1 {
		return nil, errors.New("initial state of charge must be within [0, 1]")
	}

	end := cfg.End.Add(time.Duration(cfg.Extend * float64(cfg.End.Sub(cfg.Start))))
	periods, err := timeperiod.Horizon(cfg.Start, end, cfg.Step)
	if err != nil {
		return nil, err
	}

	load := make([]float64, len(periods))
	solar := make([]float64, len(periods))
	for i, p := range periods {
		hour := int(p.Start().Sub(cfg.Start).Hours())
		load[i] = cfg.Load[hour%len(cfg.Load)]
		solar[i] = Irradiance(cfg.Location, cfg.Array, p.Mid()) / 1000
	}

	return &Model{grid: g, cfg: cfg, periods: periods, load: load, solar: solar}, nil
}

// Periods returns the scheduling horizon.
func (m *Model) Periods() []timeperiod.TimePeriod {
	return m.periods
}

// PeakLoad returns the largest demand over the horizon.
func (m *Model) PeakLoad() float64 {
	var peak float64
	for _, l := range m.load {
		peak = math.Max(peak, l)
	}
	return peak
}

// UpdateCapacities resizes the grid in place for the next run.
func (m *Model) UpdateCapacities(capacities map[asset.Type]float64) {
	m.grid.UpdateCapacities(capacities)
}

// Run dispatches the grid over the horizon with d applied.
func (m *Model) Run(ctx context.Context, d *disturbance.Disturbance) (dispatch.Metrics, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	availability := disturbance.FullAvailability(m.periods)
	if d != nil {
		var err error
		availability, err = d.Propagate(m.grid, m.periods)
		if err != nil {
			return nil, err
		}
	}

	generators := m.grid.Generators()
	var batteryCapacity float64
	for _, gen := range generators {
		if gen.Type() == asset.Battery {
			batteryCapacity += gen.Rating()
		}
	}
	energy := batteryCapacity * m.cfg.InitialSOC

	records := make([]dispatch.Record, len(m.periods))
	for i, p := range m.periods {
		load := m.load[i]
		h := p.Duration()
		if h <= 0 {
			records[i] = dispatch.Record{Period: p, Load: load, Supply: load}
			continue
		}

		var pvAvailable, dieselAvailable, batteryOnline float64
		for _, gen := range generators {
			ratio := availability.OnlineRatio(gen.PID(), i)
			switch gen.Type() {
			case asset.Photovoltaic:
				pvAvailable += gen.Rating() * ratio * m.solar[i]
			case asset.DieselGenerator:
				dieselAvailable += gen.Rating() * ratio
			case asset.Battery:
				batteryOnline += gen.Rating() * ratio
			}
		}
		batteryPower := batteryOnline * m.cfg.BatteryCRate

		remaining := load
		pv := math.Min(remaining, pvAvailable)
		remaining -= pv

		discharge := math.Min(remaining, math.Min(batteryPower, energy/h))
		energy -= discharge * h
		remaining -= discharge

		diesel := math.Min(remaining, dieselAvailable)
		remaining -= diesel

		charge := math.Min(pvAvailable-pv, math.Min(batteryPower, (batteryCapacity-energy)/h))
		if charge > 0 {
			energy += charge * h
		}

		records[i] = dispatch.Record{Period: p, Load: load, Supply: load - remaining}
	}
	return dispatch.NewResults(records), nil
}
