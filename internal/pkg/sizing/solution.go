package sizing

import (
	"fmt"
	"strconv"

	"github.com/ohowland/cgc_resilience/internal/pkg/asset"
	"github.com/ohowland/cgc_resilience/internal/pkg/dispatch"
)

// Solution is a feasible capacity triple: diesel power and PV power in kW,
// battery energy in kWh.
type Solution struct {
	Diesel       float64          `json:"diesel_generator"`
	Battery      float64          `json:"battery"`
	Photovoltaic float64          `json:"photovoltaic_panel"`
	Metrics      dispatch.Metrics `json:"-"`
}

// Name identifies the solution on disk and on the wire.
func (s Solution) Name() string {
	return fmt.Sprintf("dg_%s_pv_%s_b_%s", format(s.Diesel), format(s.Photovoltaic), format(s.Battery))
}

// Capacities returns the triple keyed by component type.
func (s Solution) Capacities() map[asset.Type]float64 {
	return map[asset.Type]float64{
		asset.DieselGenerator: s.Diesel,
		asset.Battery:         s.Battery,
		asset.Photovoltaic:    s.Photovoltaic,
	}
}

// Dominates reports whether s is no larger than o in every dimension, within
// asset.Epsilon.
func (s Solution) Dominates(o Solution) bool {
	return s.Diesel <= o.Diesel+asset.Epsilon &&
		s.Battery <= o.Battery+asset.Epsilon &&
		s.Photovoltaic <= o.Photovoltaic+asset.Epsilon
}

func format(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Frontier is an antichain of solutions under Dominates, in insertion order.
type Frontier []Solution

// Dominated reports whether any member dominates c.
func (f Frontier) Dominated(c Solution) bool {
	for _, s := range f {
		if s.Dominates(c) {
			return true
		}
	}
	return false
}

// Insert adds c unless it is dominated, dropping the members c dominates.
func (f Frontier) Insert(c Solution) (Frontier, bool) {
	if f.Dominated(c) {
		return f, false
	}
	kept := f[:0]
	for _, s := range f {
		if !c.Dominates(s) {
			kept = append(kept, s)
		}
	}
	return append(kept, c), true
}
