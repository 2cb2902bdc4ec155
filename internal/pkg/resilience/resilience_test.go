package resilience_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ohowland/cgc_resilience/internal/pkg/asset"
	"github.com/ohowland/cgc_resilience/internal/pkg/dispatch/mockdispatch"
	"github.com/ohowland/cgc_resilience/internal/pkg/disturbance"
	"github.com/ohowland/cgc_resilience/internal/pkg/grid"
	"github.com/ohowland/cgc_resilience/internal/pkg/resilience"
	"github.com/ohowland/cgc_resilience/internal/pkg/timeperiod"
	"go.uber.org/zap/zaptest"
	"gotest.tools/v3/assert"
)

var t0 = time.Date(2022, 6, 1, 0, 0, 0, 0, time.UTC)

func hours(h float64) time.Time {
	return t0.Add(timeperiod.Duration(h))
}

type fixture struct {
	sim  *mockdispatch.MockDispatch
	dist *disturbance.Disturbance
}

// newFixture builds two diesel units over 48 hourly periods with one unit out
// for 4 hours starting at hour 10, so every affected period serves half its load.
func newFixture(t *testing.T) fixture {
	dg1, err := asset.New("dg1", asset.DieselGenerator, 100)
	assert.NilError(t, err)
	dg2, err := asset.New("dg2", asset.DieselGenerator, 100)
	assert.NilError(t, err)
	g, err := grid.New(dg1, dg2)
	assert.NilError(t, err)

	periods, err := timeperiod.Horizon(t0, hours(48), time.Hour)
	assert.NilError(t, err)

	d, err := disturbance.New(hours(10),
		[]disturbance.Probability{{Type: asset.DieselGenerator, Value: 1, Quantity: 1}},
		[]disturbance.RepairTime{{Type: asset.DieselGenerator, Value: 4}},
		disturbance.Deterministic, 7)
	assert.NilError(t, err)
	d.Simulate(g)

	return fixture{sim: mockdispatch.New(g, periods, 10), dist: d}
}

type recordingStore struct {
	mux   sync.Mutex
	saved map[string]resilience.Results
	err   error
}

func (s *recordingStore) SaveResults(ctx context.Context, id string, r resilience.Results) error {
	s.mux.Lock()
	defer s.mux.Unlock()
	if s.err != nil {
		return s.err
	}
	if s.saved == nil {
		s.saved = make(map[string]resilience.Results)
	}
	s.saved[id] = r
	return nil
}

func TestNewRequiresSimulatedDisturbance(t *testing.T) {
	f := newFixture(t)
	_, err := resilience.New(nil, f.dist, resilience.Config{}, nil, nil)
	assert.ErrorIs(t, err, resilience.ErrNilSimulator)

	_, err = resilience.New(f.sim, nil, resilience.Config{}, nil, nil)
	assert.ErrorIs(t, err, resilience.ErrNilDisturbance)

	raw, err := disturbance.New(hours(1), nil, nil, disturbance.Deterministic, 1)
	assert.NilError(t, err)
	_, err = resilience.New(f.sim, raw, resilience.Config{}, nil, nil)
	assert.ErrorIs(t, err, disturbance.ErrNotSimulated)
}

func TestRunScoresEveryMethod(t *testing.T) {
	f := newFixture(t)
	a, err := resilience.New(f.sim, f.dist, resilience.Config{Workers: 4}, nil, zaptest.NewLogger(t))
	assert.NilError(t, err)

	results, err := a.Run(context.Background(), "", 0)
	assert.NilError(t, err)

	// 1 baseline, 24 local shifts, 44 global shifts
	assert.Equal(t, f.sim.Runs(), 69)
	assert.Equal(t, len(results), 3*len(resilience.SubMetrics))
	for _, prefix := range []string{
		resilience.FixedWindowPrefix,
		resilience.LocalShiftPrefix(24),
		resilience.GlobalShiftPrefix,
	} {
		for _, k := range resilience.SubMetrics {
			v, ok := results[prefix+k]
			assert.Assert(t, ok, "missing %s", prefix+k)
			assert.Equal(t, v, 0.5, prefix+k)
		}
	}
}

func TestRunRequestedLocalWindow(t *testing.T) {
	f := newFixture(t)
	a, err := resilience.New(f.sim, f.dist, resilience.Config{Workers: 2}, nil, zaptest.NewLogger(t))
	assert.NilError(t, err)

	results, err := a.Run(context.Background(), "", 12)
	assert.NilError(t, err)

	assert.Equal(t, f.sim.Runs(), 81)
	assert.Equal(t, len(results), 4*len(resilience.SubMetrics))
	_, ok := results["Local (12) Shift Method - "+resilience.InvulnerabilityRecovery]
	assert.Assert(t, ok)
}

func TestRunDefaultWindowNotRepeated(t *testing.T) {
	f := newFixture(t)
	a, err := resilience.New(f.sim, f.dist, resilience.Config{}, nil, nil)
	assert.NilError(t, err)

	results, err := a.Run(context.Background(), "", resilience.DefaultShiftHours)
	assert.NilError(t, err)
	assert.Equal(t, f.sim.Runs(), 69)
	assert.Equal(t, len(results), 3*len(resilience.SubMetrics))
}

func TestRunLeavesDisturbanceUntouched(t *testing.T) {
	f := newFixture(t)
	a, err := resilience.New(f.sim, f.dist, resilience.Config{Workers: 8}, nil, nil)
	assert.NilError(t, err)

	_, err = a.Run(context.Background(), "", 0)
	assert.NilError(t, err)

	assert.Equal(t, f.dist.Start(), hours(10))
	assert.Equal(t, f.dist.Duration(), 0.0)

	starts := make(map[time.Time]bool)
	for _, s := range f.sim.Starts() {
		starts[s] = true
	}
	assert.Assert(t, starts[hours(0)])
	assert.Assert(t, starts[hours(43)])
	assert.Assert(t, !starts[hours(44)])
}

func TestRunPropagatesSimulatorError(t *testing.T) {
	errBoom := errors.New("boom")

	f := newFixture(t)
	f.sim.FailOn(1, errBoom)
	a, err := resilience.New(f.sim, f.dist, resilience.Config{}, nil, nil)
	assert.NilError(t, err)
	_, err = a.Run(context.Background(), "", 0)
	assert.ErrorIs(t, err, errBoom)

	f = newFixture(t)
	f.sim.FailOn(5, errBoom)
	a, err = resilience.New(f.sim, f.dist, resilience.Config{Workers: 1}, nil, nil)
	assert.NilError(t, err)
	_, err = a.Run(context.Background(), "", 0)
	assert.ErrorIs(t, err, errBoom)
}

func TestRunSavesResults(t *testing.T) {
	f := newFixture(t)
	store := &recordingStore{}
	a, err := resilience.New(f.sim, f.dist, resilience.Config{}, resilience.MultiStore{store}, nil)
	assert.NilError(t, err)

	results, err := a.Run(context.Background(), "run-1", 0)
	assert.NilError(t, err)
	assert.DeepEqual(t, store.saved["run-1"], results)
}

func TestRunWrapsStoreError(t *testing.T) {
	errDown := errors.New("store down")

	f := newFixture(t)
	a, err := resilience.New(f.sim, f.dist, resilience.Config{}, &recordingStore{err: errDown}, nil)
	assert.NilError(t, err)

	results, err := a.Run(context.Background(), "run-1", 0)
	assert.ErrorIs(t, err, errDown)
	assert.Assert(t, len(results) > 0)
}
