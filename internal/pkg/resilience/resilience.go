// Package resilience scores how well a grid rides through a disturbance, at
// the disturbance's own start time and at shifted start times across the
// scheduling horizon.
package resilience

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"strconv"
	"time"

	"github.com/ohowland/cgc_resilience/internal/pkg/dispatch"
	"github.com/ohowland/cgc_resilience/internal/pkg/disturbance"
	"github.com/ohowland/cgc_resilience/internal/pkg/timeperiod"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultShiftHours is the local shift window always evaluated.
	DefaultShiftHours = 24
	// DefaultMaxShifts caps the number of shift points per method.
	DefaultMaxShifts = 100

	FixedWindowPrefix = "Fixed Window Method - "
	GlobalShiftPrefix = "Global Shift Method - "
)

var (
	ErrNilSimulator   = errors.New("resilience: simulator is required")
	ErrNilDisturbance = errors.New("resilience: disturbance is required")
	ErrEmptyHorizon   = errors.New("resilience: simulation returned no periods")
)

// Results maps a prefixed sub-score name onto its value in [0, 1].
type Results map[string]float64

// Merge copies every entry of o into r.
func (r Results) Merge(o Results) {
	for k, v := range o {
		r[k] = v
	}
}

func (r Results) prefixed(prefix string) Results {
	out := make(Results, len(r))
	for k, v := range r {
		out[prefix+k] = v
	}
	return out
}

// LocalShiftPrefix names the local shift method for a window of hours.
func LocalShiftPrefix(hours float64) string {
	return fmt.Sprintf("Local (%s) Shift Method - ", strconv.FormatFloat(hours, 'f', -1, 64))
}

// Store persists a completed analysis.
type Store interface {
	SaveResults(ctx context.Context, id string, r Results) error
}

// MultiStore saves to every store in order, stopping at the first error.
type MultiStore []Store

// SaveResults fulfills Store.
func (s MultiStore) SaveResults(ctx context.Context, id string, r Results) error {
	for _, st := range s {
		if err := st.SaveResults(ctx, id, r); err != nil {
			return err
		}
	}
	return nil
}

// Config tunes the analyzer. Zero values select defaults.
type Config struct {
	Workers   int `yaml:"workers" json:"workers"`
	MaxShifts int `yaml:"max_shifts" json:"max_shifts"`
}

// Analyzer runs the fixed window and shift methods for one simulated
// disturbance.
type Analyzer struct {
	sim    dispatch.Simulator
	dist   *disturbance.Disturbance
	store  Store
	cfg    Config
	logger *zap.Logger
}

// New returns an Analyzer. dist must already be simulated; its outcomes are
// reused at every shift point. store and logger may be nil.
func New(sim dispatch.Simulator, dist *disturbance.Disturbance, cfg Config, store Store, logger *zap.Logger) (*Analyzer, error) {
	if sim == nil {
		return nil, ErrNilSimulator
	}
	if dist == nil {
		return nil, ErrNilDisturbance
	}
	if !dist.Simulated() {
		return nil, disturbance.ErrNotSimulated
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.GOMAXPROCS(0)
	}
	if cfg.MaxShifts <= 0 {
		cfg.MaxShifts = DefaultMaxShifts
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Analyzer{
		sim:    sim,
		dist:   dist,
		store:  store,
		cfg:    cfg,
		logger: logger.Named("resilience"),
	}, nil
}

// Run evaluates the disturbance as configured, then the default local shift
// window, the requested local window when hours is positive and differs from
// the default, and finally the global shift across the whole horizon. The
// merged results are saved under id when a store is set and id is not empty.
func (a *Analyzer) Run(ctx context.Context, id string, hours float64) (Results, error) {
	baseline := a.dist.Clone()
	metrics, err := a.sim.Run(ctx, baseline)
	if err != nil {
		return nil, fmt.Errorf("baseline run: %w", err)
	}
	periods := metrics.Periods()
	if len(periods) == 0 {
		return nil, ErrEmptyHorizon
	}

	results := make(Results)
	fixed := fixedWindow(metrics, timeWindow(periods, baseline.Start(), baseline.End()))
	results.Merge(fixed.prefixed(FixedWindowPrefix))
	a.logger.Info("fixed window complete",
		zap.Time("start", baseline.Start()),
		zap.Float64("duration", baseline.Duration()),
		zap.Float64("deficit_pct", metrics.DeficitPercentage()))

	windows := []float64{DefaultShiftHours}
	if hours > 0 && hours != DefaultShiftHours {
		windows = append(windows, hours)
	}
	for _, h := range windows {
		local, err := a.shift(ctx, baseline, periods, h)
		if err != nil {
			return nil, err
		}
		results.Merge(local.prefixed(LocalShiftPrefix(h)))
	}

	global, err := a.shift(ctx, baseline, periods, 0)
	if err != nil {
		return nil, err
	}
	results.Merge(global.prefixed(GlobalShiftPrefix))

	if a.store != nil && id != "" {
		if err := a.store.SaveResults(ctx, id, results); err != nil {
			return results, fmt.Errorf("save results %s: %w", id, err)
		}
	}
	return results, nil
}

// shift moves the disturbance start across a window of numHours around the
// configured start, or across the whole horizon when numHours is zero, and
// averages the fixed window scores of each shifted run.
func (a *Analyzer) shift(ctx context.Context, baseline *disturbance.Disturbance, periods []timeperiod.TimePeriod, numHours float64) (Results, error) {
	start, end := shiftRange(periods, baseline.Start(), baseline.Duration(), numHours)
	candidates := timeWindow(periods, start, end)

	maxShifts := a.cfg.MaxShifts
	if numHours > 0 && numHours < float64(maxShifts) {
		maxShifts = int(numHours) + 1
	}
	selected := selectShifts(len(candidates), maxShifts)
	if len(selected) == 0 {
		return Results{}, nil
	}

	duration := timeperiod.Duration(baseline.Duration())
	scores := make([]Results, len(selected))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.cfg.Workers)
	for j, idx := range selected {
		ts := periods[candidates[idx]].Start()
		g.Go(func() error {
			shifted := baseline.Shifted(ts)
			m, err := a.sim.Run(gctx, shifted)
			if err != nil {
				return fmt.Errorf("shift %s: %w", ts.Format(time.RFC3339), err)
			}
			scores[j] = fixedWindow(m, timeWindow(m.Periods(), ts, ts.Add(duration)))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(Results, len(SubMetrics))
	for _, s := range scores {
		for k, v := range s {
			out[k] += v
		}
	}
	for k := range out {
		out[k] /= float64(len(scores))
	}
	a.logger.Debug("shift method complete",
		zap.Float64("hours", numHours),
		zap.Int("shifts", len(scores)))
	return out, nil
}

// shiftRange bounds the shift start times for a disturbance of duration hours
// starting at start. numHours of zero spans the whole horizon.
func shiftRange(periods []timeperiod.TimePeriod, start time.Time, duration, numHours float64) (time.Time, time.Time) {
	hs := periods[0].Start()
	he := periods[len(periods)-1].End()
	horizon := timeperiod.Hours(he.Sub(hs))
	if numHours <= 0 {
		numHours = horizon
	}
	dur := timeperiod.Duration(duration)
	half := timeperiod.Duration(numHours / 2)
	toStart := timeperiod.Hours(start.Sub(hs))

	switch {
	case duration >= horizon:
		return hs, hs
	case numHours > horizon-duration:
		return hs, he.Add(-dur)
	case toStart < numHours/2:
		return hs, hs.Add(timeperiod.Duration(numHours))
	case toStart > horizon-duration-numHours/2:
		return he.Add(-dur).Add(-timeperiod.Duration(numHours)), he.Add(-dur)
	default:
		return start.Add(-half), start.Add(half)
	}
}

// selectShifts thins count candidates down to roughly limit evenly spaced
// indices, always keeping the first and last.
func selectShifts(count, limit int) []int {
	if count <= 0 {
		return nil
	}
	if count <= limit {
		all := make([]int, count)
		for i := range all {
			all[i] = i
		}
		return all
	}
	if limit < 2 {
		limit = 2
	}
	divisor := int(math.Round(float64(count) / float64(limit-1)))
	if divisor < 1 {
		divisor = 1
	}
	selected := make([]int, 0, limit+1)
	for i := 0; i < count; i++ {
		if i%divisor == 0 {
			selected = append(selected, i)
		}
	}
	if selected[len(selected)-1] != count-1 {
		selected = append(selected, count-1)
	}
	return selected
}
