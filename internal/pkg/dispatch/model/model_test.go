package model

import (
	"context"
	"testing"
	"time"

	"github.com/ohowland/cgc_resilience/internal/pkg/asset"
	"github.com/ohowland/cgc_resilience/internal/pkg/disturbance"
	"github.com/ohowland/cgc_resilience/internal/pkg/grid"
	"gotest.tools/v3/assert"
)

var t0 = time.Date(2022, 3, 21, 0, 0, 0, 0, time.UTC)

func newGrid(t *testing.T, diesel, battery, pv float64) *grid.Grid {
	dg, err := asset.New("DG1", asset.DieselGenerator, diesel)
	assert.NilError(t, err)
	b, err := asset.New("B1", asset.Battery, battery)
	assert.NilError(t, err)
	p, err := asset.New("PV1", asset.Photovoltaic, pv)
	assert.NilError(t, err)
	g, err := grid.New(dg, b, p)
	assert.NilError(t, err)
	return g
}

func newModel(t *testing.T, g *grid.Grid) *Model {
	m, err := New(g, Config{
		Start:      t0,
		End:        t0.Add(24 * time.Hour),
		Step:       time.Hour,
		Load:       []float64{50},
		Location:   Location{Latitude: 35},
		Array:      Array{Tilt: 35},
		InitialSOC: 1,
	})
	assert.NilError(t, err)
	return m
}

func TestNewRequiresLoad(t *testing.T) {
	_, err := New(newGrid(t, 1, 1, 1), Config{Start: t0, End: t0.Add(time.Hour), Step: time.Hour})
	assert.ErrorIs(t, err, ErrEmptyLoad)
}

func TestExtendHorizon(t *testing.T) {
	m, err := New(newGrid(t, 1, 1, 1), Config{
		Start:  t0,
		End:    t0.Add(10 * time.Hour),
		Step:   time.Hour,
		Extend: 0.5,
		Load:   []float64{1},
	})
	assert.NilError(t, err)
	assert.Equal(t, len(m.Periods()), 15)
}

func TestDieselCoversLoad(t *testing.T) {
	m := newModel(t, newGrid(t, 100, 0, 0))
	metrics, err := m.Run(context.Background(), nil)
	assert.NilError(t, err)

	assert.Equal(t, metrics.DeficitPercentage(), 0.0)
	assert.Equal(t, metrics.LoadPeak(), 50.0)
	assert.Equal(t, m.PeakLoad(), 50.0)
}

func TestPVOnlyHasNightDeficit(t *testing.T) {
	m := newModel(t, newGrid(t, 0, 0, 1e6))
	metrics, err := m.Run(context.Background(), nil)
	assert.NilError(t, err)

	assert.Assert(t, metrics.DeficitPercentage() > 0)
	assert.Equal(t, metrics.Supply(0), 0.0)
	assert.Equal(t, metrics.Supply(12), 50.0)
}

func TestBatteryCarriesLoad(t *testing.T) {
	m := newModel(t, newGrid(t, 0, 2000, 0))
	metrics, err := m.Run(context.Background(), nil)
	assert.NilError(t, err)
	assert.Equal(t, metrics.DeficitPercentage(), 0.0)
}

func TestUpdateCapacities(t *testing.T) {
	m := newModel(t, newGrid(t, 100, 0, 0))
	m.UpdateCapacities(map[asset.Type]float64{asset.DieselGenerator: 25})

	metrics, err := m.Run(context.Background(), nil)
	assert.NilError(t, err)
	assert.Equal(t, metrics.DeficitPercentage(), 50.0)
}

func TestDisturbanceRemovesDiesel(t *testing.T) {
	g := newGrid(t, 100, 0, 0)
	m := newModel(t, g)
	d, err := disturbance.New(t0.Add(6*time.Hour),
		[]disturbance.Probability{{Type: asset.DieselGenerator, Value: 1, Quantity: 1}},
		[]disturbance.RepairTime{{Type: asset.DieselGenerator, Value: 6}},
		disturbance.Deterministic, 1)
	assert.NilError(t, err)
	d.Simulate(g)

	metrics, err := m.Run(context.Background(), d)
	assert.NilError(t, err)

	assert.Equal(t, metrics.DeficitPercentage(), 25.0)
	assert.Equal(t, metrics.Supply(6), 0.0)
	assert.Equal(t, metrics.Supply(12), 50.0)
	assert.Equal(t, d.Duration(), 6.0)
}

func TestRunCancelled(t *testing.T) {
	m := newModel(t, newGrid(t, 100, 0, 0))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := m.Run(ctx, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestIrradianceDayNight(t *testing.T) {
	l := Location{Latitude: 35}
	a := Array{Tilt: 35}
	assert.Equal(t, Irradiance(l, a, t0), 0.0)
	assert.Assert(t, Irradiance(l, a, t0.Add(12*time.Hour)) > 500)
}
