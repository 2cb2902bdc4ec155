// Package mockdispatch is a scripted dispatch.Resizer for tests.
package mockdispatch

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/ohowland/cgc_resilience/internal/pkg/asset"
	"github.com/ohowland/cgc_resilience/internal/pkg/dispatch"
	"github.com/ohowland/cgc_resilience/internal/pkg/disturbance"
	"github.com/ohowland/cgc_resilience/internal/pkg/grid"
	"github.com/ohowland/cgc_resilience/internal/pkg/timeperiod"
)

// DeficitFunc maps the current capacities onto a deficit percentage.
type DeficitFunc func(capacities map[asset.Type]float64) float64

// MockDispatch serves each period's load scaled by the mean online ratio of
// the grid's generators. When a DeficitFunc is set the supply is instead scaled
// so the run's deficit percentage equals its value.
type MockDispatch struct {
	mux        *sync.Mutex
	grid       *grid.Grid
	periods    []timeperiod.TimePeriod
	load       []float64
	capacities map[asset.Type]float64
	deficit    DeficitFunc
	failAt     int
	failErr    error
	starts     []time.Time
	probes     []map[asset.Type]float64
}

// New returns a MockDispatch over periods with a per-period load, cycled.
func New(g *grid.Grid, periods []timeperiod.TimePeriod, load ...float64) *MockDispatch {
	return &MockDispatch{
		mux:        &sync.Mutex{},
		grid:       g,
		periods:    periods,
		load:       load,
		capacities: make(map[asset.Type]float64),
	}
}

// SetDeficit scripts the deficit percentage as a function of capacities.
func (d *MockDispatch) SetDeficit(f DeficitFunc) {
	d.mux.Lock()
	defer d.mux.Unlock()
	d.deficit = f
}

// FailOn makes the n-th Run call (1-based) return err.
func (d *MockDispatch) FailOn(n int, err error) {
	d.mux.Lock()
	defer d.mux.Unlock()
	d.failAt = n
	d.failErr = err
}

// UpdateCapacities records the capacities for the next run.
func (d *MockDispatch) UpdateCapacities(capacities map[asset.Type]float64) {
	d.mux.Lock()
	defer d.mux.Unlock()
	for k, v := range capacities {
		d.capacities[k] = v
	}
}

// PeakLoad returns the largest scripted load.
func (d *MockDispatch) PeakLoad() float64 {
	var peak float64
	for _, l := range d.load {
		peak = math.Max(peak, l)
	}
	return peak
}

// Runs returns the number of Run calls so far.
func (d *MockDispatch) Runs() int {
	d.mux.Lock()
	defer d.mux.Unlock()
	return len(d.starts)
}

// Starts returns the disturbance start of every run, zero for undisturbed runs.
func (d *MockDispatch) Starts() []time.Time {
	d.mux.Lock()
	defer d.mux.Unlock()
	out := make([]time.Time, len(d.starts))
	copy(out, d.starts)
	return out
}

// Probes returns the capacities of every run.
func (d *MockDispatch) Probes() []map[asset.Type]float64 {
	d.mux.Lock()
	defer d.mux.Unlock()
	out := make([]map[asset.Type]float64, len(d.probes))
	copy(out, d.probes)
	return out
}

// Run fulfills dispatch.Simulator.
func (d *MockDispatch) Run(ctx context.Context, dist *disturbance.Disturbance) (dispatch.Metrics, error) {
	d.mux.Lock()
	var start time.Time
	if dist != nil {
		start = dist.Start()
	}
	d.starts = append(d.starts, start)
	probe := make(map[asset.Type]float64, len(d.capacities))
	for k, v := range d.capacities {
		probe[k] = v
	}
	d.probes = append(d.probes, probe)
	n := len(d.starts)
	failAt, failErr, deficit := d.failAt, d.failErr, d.deficit
	d.mux.Unlock()

	if failAt > 0 && n == failAt {
		return nil, failErr
	}

	availability := disturbance.FullAvailability(d.periods)
	if dist != nil {
		var err error
		availability, err = dist.Propagate(d.grid, d.periods)
		if err != nil {
			return nil, err
		}
	}

	generators := d.grid.Generators()
	records := make([]dispatch.Record, len(d.periods))
	for i, p := range d.periods {
		load := d.load[i%len(d.load)]
		scale := 1.0
		if deficit != nil {
			scale = 1 - math.Min(100, math.Max(0, deficit(probe)))/100
		} else if len(generators) > 0 {
			var online float64
			for _, gen := range generators {
				online += availability.OnlineRatio(gen.PID(), i)
			}
			scale = online / float64(len(generators))
		}
		records[i] = dispatch.Record{Period: p, Load: load, Supply: load * scale}
	}
	return dispatch.NewResults(records), nil
}
