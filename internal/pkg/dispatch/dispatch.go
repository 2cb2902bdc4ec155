// Package dispatch defines the contract of the time-stepped dispatch simulator the
// resilience and sizing analyses drive, and the metrics it reports.
package dispatch

import (
	"context"

	"github.com/ohowland/cgc_resilience/internal/pkg/asset"
	"github.com/ohowland/cgc_resilience/internal/pkg/disturbance"
	"github.com/ohowland/cgc_resilience/internal/pkg/timeperiod"
)

// Metrics is the read-only view of one simulation run. Period indices follow
// Periods().
type Metrics interface {
	Periods() []timeperiod.TimePeriod
	Load(i int) float64
	Supply(i int) float64
	Deficit(i int) float64
	LoadSatisfactionRatio(i int) float64
	LoadPeak() float64
	LoadMedian() float64
	DeficitPercentage() float64
}

// Simulator runs the grid over its scheduling horizon. A nil disturbance runs
// with every generator online. Run propagates d onto the horizon, so d's end
// and duration reflect the run on return. Implementations must be safe for
// concurrent Run calls given distinct disturbances.
type Simulator interface {
	Run(ctx context.Context, d *disturbance.Disturbance) (Metrics, error)
}

// Resizer is a Simulator whose generator ratings can be changed between runs.
type Resizer interface {
	Simulator
	UpdateCapacities(map[asset.Type]float64)
	PeakLoad() float64
}
