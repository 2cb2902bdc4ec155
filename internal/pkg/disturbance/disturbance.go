// Package disturbance turns failure probabilities and repair times into a concrete
// outage scenario and projects it onto the simulation horizon as per-generator
// online ratios.
package disturbance

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/ohowland/cgc_resilience/internal/pkg/asset"
	"github.com/ohowland/cgc_resilience/internal/pkg/grid"
	"github.com/ohowland/cgc_resilience/internal/pkg/timeperiod"
	"gonum.org/v1/gonum/stat/distuv"
)

var (
	ErrMissingRepairTime  = errors.New("no repair time for disturbed component type")
	ErrInvalidProbability = errors.New("failure probability must be within [0, 1]")
	ErrInvalidQuantity    = errors.New("affected quantity must be non-negative")
	ErrInvalidRepairTime  = errors.New("repair time must be non-negative")
	ErrDuplicateSpec      = errors.New("component type listed more than once")
	ErrNotSimulated       = errors.New("disturbance outcomes have not been simulated")
)

// Probability is the failure input for one component type.
type Probability struct {
	Type     asset.Type `yaml:"type" json:"type"`
	Value    float64    `yaml:"value" json:"value"`
	Quantity int        `yaml:"quantity" json:"quantity"`
}

// RepairTime is the nominal repair time, in hours, for one component type.
type RepairTime struct {
	Type  asset.Type `yaml:"type" json:"type"`
	Value float64    `yaml:"value" json:"value"`
}

// ComponentSpec joins the failure and repair inputs of one component type.
type ComponentSpec struct {
	Probability float64
	Quantity    int
	RepairTime  float64
}

// Outcome is the drawn state of one generator instance. Duration is in hours
// and only meaningful when Affected.
type Outcome struct {
	Affected bool
	Duration float64
}

// Disturbance is a single outage event. The zero value is not usable; build
// one with New.
type Disturbance struct {
	start    time.Time
	end      time.Time
	duration float64
	method   Method
	specs    map[asset.Type]ComponentSpec
	outcomes map[uuid.UUID]Outcome
	pcg      *rand.PCG
}

// New validates the inputs and returns a Disturbance starting at start. The
// random source is seeded from seed so outcomes are reproducible.
func New(start time.Time, probabilities []Probability, repairs []RepairTime, method Method, seed uint64) (*Disturbance, error) {
	repairTimes := make(map[asset.Type]float64, len(repairs))
	for _, r := range repairs {
		if _, ok := repairTimes[r.Type]; ok {
			return nil, fmt.Errorf("repair %v: %w", r.Type, ErrDuplicateSpec)
		}
		if r.Value < 0 || math.IsNaN(r.Value) {
			return nil, fmt.Errorf("repair %v: %w", r.Type, ErrInvalidRepairTime)
		}
		repairTimes[r.Type] = r.Value
	}

	specs := make(map[asset.Type]ComponentSpec, len(probabilities))
	for _, p := range probabilities {
		if _, ok := specs[p.Type]; ok {
			return nil, fmt.Errorf("disturbance %v: %w", p.Type, ErrDuplicateSpec)
		}
		if p.Value < 0 || p.Value > 1 || math.IsNaN(p.Value) {
			return nil, fmt.Errorf("disturbance %v: %w", p.Type, ErrInvalidProbability)
		}
		if p.Quantity < 0 {
			return nil, fmt.Errorf("disturbance %v: %w", p.Type, ErrInvalidQuantity)
		}
		repair, ok := repairTimes[p.Type]
		if !ok {
			return nil, fmt.Errorf("disturbance %v: %w", p.Type, ErrMissingRepairTime)
		}
		specs[p.Type] = ComponentSpec{Probability: p.Value, Quantity: p.Quantity, RepairTime: repair}
	}

	return &Disturbance{
		start:  start,
		end:    start,
		method: method,
		specs:  specs,
		pcg:    rand.NewPCG(seed, seed^0x9e3779b97f4a7c15),
	}, nil
}

// Start is a getter for the disturbance start time
func (d *Disturbance) Start() time.Time { return d.start }

// End returns the latest repair completion found by the last Propagate.
func (d *Disturbance) End() time.Time { return d.end }

// Duration returns End - Start in hours.
func (d *Disturbance) Duration() float64 { return d.duration }

// Method is a getter for the outcome draw method
func (d *Disturbance) Method() Method { return d.method }

// Spec returns the joined failure and repair inputs for a component type.
func (d *Disturbance) Spec(kind asset.Type) (ComponentSpec, bool) {
	s, ok := d.specs[kind]
	return s, ok
}

// Outcome returns the drawn outcome for a generator instance.
func (d *Disturbance) Outcome(pid uuid.UUID) (Outcome, bool) {
	o, ok := d.outcomes[pid]
	return o, ok
}

// Simulated reports whether outcomes have been drawn.
func (d *Disturbance) Simulated() bool {
	return d.outcomes != nil
}

// Clone returns an independent copy, including the random source state.
func (d *Disturbance) Clone() *Disturbance {
	c := *d
	c.specs = make(map[asset.Type]ComponentSpec, len(d.specs))
	for k, v := range d.specs {
		c.specs[k] = v
	}
	if d.outcomes != nil {
		c.outcomes = make(map[uuid.UUID]Outcome, len(d.outcomes))
		for k, v := range d.outcomes {
			c.outcomes[k] = v
		}
	}
	pcg := *d.pcg
	c.pcg = &pcg
	return &c
}

// Shifted returns a clone carrying the same outcomes but starting at start.
// End and duration are reset until the clone is propagated.
func (d *Disturbance) Shifted(start time.Time) *Disturbance {
	c := d.Clone()
	c.start = start
	c.end = start
	c.duration = 0
	return c
}

// Simulate draws an outcome for every generator in g, overwriting any previous
// outcomes. Each component type affects at most its configured quantity of
// generators, taken in grid order.
func (d *Disturbance) Simulate(g grid.Generators) {
	remaining := make(map[asset.Type]int, len(d.specs))
	for kind, spec := range d.specs {
		remaining[kind] = spec.Quantity
	}

	d.outcomes = make(map[uuid.UUID]Outcome)
	for _, gen := range g.Generators() {
		if remaining[gen.Type()] <= 0 {
			d.outcomes[gen.PID()] = Outcome{}
			continue
		}
		remaining[gen.Type()]--

		spec := d.specs[gen.Type()]
		if d.method == Stochastic && spec.RepairTime > 0 {
			draw := distuv.Uniform{Min: 0, Max: 1, Src: d.pcg}.Rand()
			if draw > spec.Probability {
				d.outcomes[gen.PID()] = Outcome{}
				continue
			}
			repair := distuv.Exponential{Rate: 1 / spec.RepairTime, Src: d.pcg}.Rand()
			d.outcomes[gen.PID()] = Outcome{Affected: true, Duration: repair}
			continue
		}
		d.outcomes[gen.PID()] = Outcome{Affected: true, Duration: spec.RepairTime}
	}
}

// Propagate projects the drawn outcomes onto periods and records the overall
// disturbance end. It does not draw randomness, so repeated calls with the same
// outcomes return identical profiles.
func (d *Disturbance) Propagate(g grid.Generators, periods []timeperiod.TimePeriod) (Availability, error) {
	if !d.Simulated() {
		return Availability{}, ErrNotSimulated
	}

	availability := Availability{
		periods: periods,
		ratios:  make(map[uuid.UUID][]float64),
	}
	end := d.start
	for _, gen := range g.Generators() {
		ratios := make([]float64, len(periods))
		outcome := d.outcomes[gen.PID()]
		windowEnd := d.start
		if outcome.Affected && outcome.Duration > 0 {
			windowEnd = d.start.Add(timeperiod.Duration(outcome.Duration))
		}
		if windowEnd.After(end) {
			end = windowEnd
		}
		for i, p := range periods {
			ratios[i] = onlineRatio(p, d.start, windowEnd)
		}
		availability.ratios[gen.PID()] = ratios
	}

	if end.After(d.start.Add(timeperiod.Duration(asset.Epsilon))) {
		d.end = end
		d.duration = timeperiod.Hours(end.Sub(d.start))
	} else {
		d.end = d.start
		d.duration = 0
	}
	return availability, nil
}

// onlineRatio is the fraction of p spent outside the unavailable window [from, to).
func onlineRatio(p timeperiod.TimePeriod, from, to time.Time) float64 {
	if !to.After(from) {
		return 1
	}
	if !p.End().After(p.Start()) {
		if !p.Start().Before(from) && p.Start().Before(to) {
			return 0
		}
		return 1
	}
	lo := p.Start()
	if from.After(lo) {
		lo = from
	}
	hi := p.End()
	if to.Before(hi) {
		hi = to
	}
	if !hi.After(lo) {
		return 1
	}
	ratio := 1 - hi.Sub(lo).Hours()/p.Duration()
	return math.Max(0, math.Min(1, ratio))
}
