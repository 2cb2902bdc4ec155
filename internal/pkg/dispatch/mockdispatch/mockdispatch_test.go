package mockdispatch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ohowland/cgc_resilience/internal/pkg/asset"
	"github.com/ohowland/cgc_resilience/internal/pkg/grid"
	"github.com/ohowland/cgc_resilience/internal/pkg/timeperiod"
	"gotest.tools/v3/assert"
)

func newMock(t *testing.T) *MockDispatch {
	dg, err := asset.New("dg", asset.DieselGenerator, 10)
	assert.NilError(t, err)
	g, err := grid.New(dg)
	assert.NilError(t, err)
	start := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	periods, err := timeperiod.Horizon(start, start.Add(4*time.Hour), time.Hour)
	assert.NilError(t, err)
	return New(g, periods, 10, 20)
}

func TestRunServesLoad(t *testing.T) {
	d := newMock(t)
	m, err := d.Run(context.Background(), nil)
	assert.NilError(t, err)
	assert.Equal(t, m.DeficitPercentage(), 0.0)
	assert.Equal(t, m.Load(3), 20.0)
	assert.Equal(t, d.PeakLoad(), 20.0)
}

func TestRunScriptedDeficit(t *testing.T) {
	d := newMock(t)
	d.SetDeficit(func(c map[asset.Type]float64) float64 {
		if c[asset.Battery] >= 5 {
			return 0
		}
		return 50
	})

	d.UpdateCapacities(map[asset.Type]float64{asset.Battery: 1})
	m, err := d.Run(context.Background(), nil)
	assert.NilError(t, err)
	assert.Equal(t, m.DeficitPercentage(), 50.0)

	d.UpdateCapacities(map[asset.Type]float64{asset.Battery: 5})
	m, err = d.Run(context.Background(), nil)
	assert.NilError(t, err)
	assert.Equal(t, m.DeficitPercentage(), 0.0)

	assert.Equal(t, d.Runs(), 2)
	assert.Equal(t, d.Probes()[0][asset.Battery], 1.0)
}

func TestFailOn(t *testing.T) {
	errBoom := errors.New("boom")
	d := newMock(t)
	d.FailOn(2, errBoom)

	_, err := d.Run(context.Background(), nil)
	assert.NilError(t, err)
	_, err = d.Run(context.Background(), nil)
	assert.ErrorIs(t, err, errBoom)
}
