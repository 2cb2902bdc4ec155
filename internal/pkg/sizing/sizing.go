// Package sizing searches for minimal diesel, battery and PV capacities that
// serve the load without deficit, after Reich & Oriti (2021), and keeps the
// non-dominated designs.
package sizing

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/ohowland/cgc_resilience/internal/pkg/asset"
	"github.com/ohowland/cgc_resilience/internal/pkg/dispatch"
	"go.uber.org/zap"
)

const (
	epsilon       = 10 * asset.Epsilon
	deficitCutoff = 0.0
	infinity      = 1e10
	infinityCheck = infinity / 2
)

var (
	ErrNilSimulator       = errors.New("sizing: simulator is required")
	ErrInvalidStepSize    = errors.New("sizing: step sizes must be positive")
	ErrNoFeasibleCapacity = errors.New("sizing: no feasible capacity")
)

// Steps are the base search resolutions per component type.
type Steps struct {
	Diesel       float64 `yaml:"diesel" json:"diesel"`
	Battery      float64 `yaml:"battery" json:"battery"`
	Photovoltaic float64 `yaml:"photovoltaic" json:"photovoltaic"`
}

func (s Steps) validate() error {
	for _, v := range []float64{s.Diesel, s.Battery, s.Photovoltaic} {
		if !(v > 0) || math.IsInf(v, 0) {
			return ErrInvalidStepSize
		}
	}
	return nil
}

// Exporter persists an accepted solution under dir.
type Exporter interface {
	Export(ctx context.Context, dir string, s Solution) error
}

// MultiExporter exports to every exporter in order, stopping at the first error.
type MultiExporter []Exporter

// Export fulfills Exporter.
func (m MultiExporter) Export(ctx context.Context, dir string, s Solution) error {
	for _, e := range m {
		if err := e.Export(ctx, dir, s); err != nil {
			return err
		}
	}
	return nil
}

// Config parameterizes a search. Dir is handed to the exporter as is.
type Config struct {
	Steps Steps
	Dir   string
}

// Sizer runs the capacity search against a resizable simulator.
type Sizer struct {
	sim      dispatch.Resizer
	cfg      Config
	exporter Exporter
	logger   *zap.Logger
}

// New returns a Sizer. exporter and logger may be nil.
func New(sim dispatch.Resizer, cfg Config, exporter Exporter, logger *zap.Logger) (*Sizer, error) {
	if sim == nil {
		return nil, ErrNilSimulator
	}
	if err := cfg.Steps.validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sizer{
		sim:      sim,
		cfg:      cfg,
		exporter: exporter,
		logger:   logger.Named("sizing"),
	}, nil
}

// Size builds the frontier for diesel levels from zero through peakLoad plus
// one diesel step. The search is sequential. On error the solutions accepted so
// far are returned alongside it.
func (s *Sizer) Size(ctx context.Context, peakLoad float64) (Frontier, error) {
	steps := s.cfg.Steps
	frontier := Frontier{}

	for i := 0; ; i++ {
		diesel := float64(i) * steps.Diesel
		if diesel > peakLoad+steps.Diesel {
			break
		}

		pv := infinity
		bStep := steps.Battery
		battery, _, err := s.findMinCapacity(ctx, diesel, 0, pv, steps.Battery, asset.Battery)
		if errors.Is(err, ErrNoFeasibleCapacity) {
			s.logger.Warn("no feasible battery", zap.Float64("diesel", diesel))
			continue
		}
		if err != nil {
			return frontier, err
		}

		for pv >= steps.Photovoltaic && battery < infinityCheck {
			ok, err := s.feasible(ctx, diesel, battery)
			if err != nil {
				return frontier, err
			}
			if !ok {
				break
			}

			var m dispatch.Metrics
			if pv > infinityCheck {
				pv, m, err = s.findMinCapacity(ctx, diesel, battery, pv, steps.Photovoltaic, asset.Photovoltaic)
			} else {
				pv, m, err = s.findMinCapacityFromMax(ctx, diesel, battery, pv, steps.Photovoltaic, asset.Photovoltaic)
			}
			if errors.Is(err, ErrNoFeasibleCapacity) {
				break
			}
			if err != nil {
				return frontier, err
			}

			if bStep > steps.Battery {
				battery, m, err = s.findMinCapacityFromMax(ctx, diesel, battery, pv, steps.Battery, asset.Battery)
				if err != nil {
					return frontier, err
				}
			}

			candidate := Solution{Diesel: diesel, Battery: battery, Photovoltaic: pv, Metrics: m}
			var accepted bool
			frontier, accepted = frontier.Insert(candidate)
			if accepted {
				bStep = steps.Battery
				s.logger.Info("solution accepted",
					zap.Float64("diesel", diesel),
					zap.Float64("battery", battery),
					zap.Float64("photovoltaic", pv))
				if s.exporter != nil {
					if err := s.exporter.Export(ctx, s.cfg.Dir, candidate); err != nil {
						return frontier, fmt.Errorf("export %s: %w", candidate.Name(), err)
					}
				}
			} else {
				bStep *= 2
			}
			battery += bStep
		}
	}
	return frontier, nil
}

func ratings(diesel, battery, pv float64) map[asset.Type]float64 {
	return map[asset.Type]float64{
		asset.DieselGenerator: math.Max(diesel, epsilon),
		asset.Battery:         math.Max(battery, epsilon),
		asset.Photovoltaic:    math.Max(pv, epsilon),
	}
}

func (s *Sizer) probe(ctx context.Context, r map[asset.Type]float64) (dispatch.Metrics, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.sim.UpdateCapacities(r)
	m, err := s.sim.Run(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("probe dg=%g b=%g pv=%g: %w",
			r[asset.DieselGenerator], r[asset.Battery], r[asset.Photovoltaic], err)
	}
	s.logger.Debug("probe",
		zap.Float64("diesel", r[asset.DieselGenerator]),
		zap.Float64("battery", r[asset.Battery]),
		zap.Float64("photovoltaic", r[asset.Photovoltaic]),
		zap.Float64("deficit_pct", m.DeficitPercentage()))
	return m, nil
}

// feasible reports whether the pair can serve the load given unlimited PV.
func (s *Sizer) feasible(ctx context.Context, diesel, battery float64) (bool, error) {
	r := ratings(diesel, battery, 0)
	r[asset.Photovoltaic] = infinity
	m, err := s.probe(ctx, r)
	if err != nil {
		return false, err
	}
	return m.DeficitPercentage() <= deficitCutoff, nil
}

// nextLevel moves level up by step while infeasible, otherwise down, floored at
// zero.
func nextLevel(level, step, deficit float64) float64 {
	switch {
	case deficit > deficitCutoff:
		return level + step
	case level-step >= 0:
		return level - step
	default:
		return 0
	}
}

// findMinCapacity searches kind upward from zero, doubling the step while
// infeasible and halving it back to step once feasible.
func (s *Sizer) findMinCapacity(ctx context.Context, diesel, battery, pv, step float64, kind asset.Type) (float64, dispatch.Metrics, error) {
	r := ratings(diesel, battery, pv)
	level, deficit := 0.0, 1.0
	dynamic := step / 2
	increase := true

	var m dispatch.Metrics
	for increase || dynamic > step || deficit > deficitCutoff {
		if deficit <= deficitCutoff {
			increase = false
		}
		if increase {
			dynamic *= 2
		} else if dynamic > step {
			dynamic /= 2
		}
		level = nextLevel(level, dynamic, deficit)
		if level > infinity {
			return level, nil, fmt.Errorf("%v: %w", kind, ErrNoFeasibleCapacity)
		}

		r[kind] = math.Max(level, epsilon)
		var err error
		if m, err = s.probe(ctx, r); err != nil {
			return level, nil, err
		}
		deficit = m.DeficitPercentage()
	}
	return level, m, nil
}

// findMinCapacityFromMax tightens kind downward from its current rating.
func (s *Sizer) findMinCapacityFromMax(ctx context.Context, diesel, battery, pv, step float64, kind asset.Type) (float64, dispatch.Metrics, error) {
	r := ratings(diesel, battery, pv)
	level, deficit := r[kind], 0.0
	increase := level > step
	dynamic := step / 2

	var m dispatch.Metrics
	for first := true; first || increase || dynamic > step || deficit > deficitCutoff; first = false {
		if deficit > deficitCutoff || level < epsilon {
			increase = false
		}
		if increase || dynamic < step {
			dynamic *= 2
		} else if dynamic > step {
			dynamic /= 2
		}
		level = nextLevel(level, dynamic, deficit)
		if level > infinity {
			return level, nil, fmt.Errorf("%v: %w", kind, ErrNoFeasibleCapacity)
		}

		r[kind] = math.Max(level, epsilon)
		var err error
		if m, err = s.probe(ctx, r); err != nil {
			return level, nil, err
		}
		deficit = m.DeficitPercentage()
	}
	return level, m, nil
}
