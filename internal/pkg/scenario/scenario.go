// Package scenario reads the YAML document describing one study: the grid,
// its load and site, the scheduling horizon, the disturbance and repair inputs,
// and the analysis settings.
package scenario

import (
	"fmt"
	"os"
	"time"

	"github.com/ohowland/cgc_resilience/internal/pkg/asset"
	"github.com/ohowland/cgc_resilience/internal/pkg/dispatch/model"
	"github.com/ohowland/cgc_resilience/internal/pkg/disturbance"
	"github.com/ohowland/cgc_resilience/internal/pkg/grid"
	"github.com/ohowland/cgc_resilience/internal/pkg/resilience"
	"github.com/ohowland/cgc_resilience/internal/pkg/sizing"
	"gopkg.in/yaml.v3"
)

type Scenario struct {
	ID          string                   `yaml:"id" json:"id"`
	Seed        uint64                   `yaml:"seed" json:"seed"`
	Horizon     Horizon                  `yaml:"horizon" json:"horizon"`
	Location    model.Location           `yaml:"location" json:"location"`
	Array       model.Array              `yaml:"array" json:"array"`
	Battery     Battery                  `yaml:"battery" json:"battery"`
	Load        []float64                `yaml:"load" json:"load"`
	Assets      []Asset                  `yaml:"assets" json:"assets"`
	Disturbance Disturbance              `yaml:"disturbance" json:"disturbance"`
	Repair      []disturbance.RepairTime `yaml:"repair" json:"repair"`
	Resilience  Resilience               `yaml:"resilience" json:"resilience"`
	Sizing      sizing.Steps             `yaml:"sizing" json:"sizing"`
}

type Horizon struct {
	Start time.Time     `yaml:"start" json:"start"`
	End   time.Time     `yaml:"end" json:"end"`
	Step  time.Duration `yaml:"step" json:"step"`
	// Extend lengthens the horizon by this proportion of its length.
	Extend float64 `yaml:"extend" json:"extend"`
}

type Battery struct {
	CRate      float64 `yaml:"c_rate" json:"c_rate"`
	InitialSOC float64 `yaml:"initial_soc" json:"initial_soc"`
}

type Asset struct {
	Name   string     `yaml:"name" json:"name"`
	Type   asset.Type `yaml:"type" json:"type"`
	Rating float64    `yaml:"rating" json:"rating"`
}

type Disturbance struct {
	Start      time.Time                 `yaml:"start" json:"start"`
	Method     disturbance.Method        `yaml:"method" json:"method"`
	Components []disturbance.Probability `yaml:"components" json:"components"`
}

type Resilience struct {
	// Hours is the requested local shift window; zero runs only the default.
	Hours             float64 `yaml:"hours" json:"hours"`
	resilience.Config `yaml:",inline"`
}

// Load reads and validates the scenario at filename.
func Load(filename string) (*Scenario, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a scenario document.
func Parse(data []byte) (*Scenario, error) {
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse scenario: %w", err)
	}
	if err := validate(&s); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &s, nil
}

func validate(s *Scenario) error {
	if s.ID == "" {
		return fmt.Errorf("id is required")
	}
	if !s.Horizon.End.After(s.Horizon.Start) {
		return fmt.Errorf("horizon end must be after start")
	}
	if s.Horizon.Step <= 0 {
		return fmt.Errorf("horizon step must be greater than 0")
	}
	if s.Horizon.Extend < 0 {
		return fmt.Errorf("horizon extend must not be negative")
	}
	if len(s.Load) == 0 {
		return fmt.Errorf("at least one load value must be defined")
	}
	for i, l := range s.Load {
		if l < 0 {
			return fmt.Errorf("load %d: must not be negative", i)
		}
	}
	if len(s.Assets) == 0 {
		return grid.ErrEmptyGrid
	}
	for i, a := range s.Assets {
		if a.Name == "" {
			return fmt.Errorf("asset %d: name is required", i)
		}
		if a.Rating < 0 {
			return fmt.Errorf("asset %s: rating must not be negative", a.Name)
		}
	}
	if s.Disturbance.Start.Before(s.Horizon.Start) || !s.Disturbance.Start.Before(s.Horizon.End) {
		return fmt.Errorf("disturbance start must fall within the horizon")
	}
	if s.Battery.InitialSOC < 0 || s.Battery.InitialSOC > 1 {
		return fmt.Errorf("battery initial_soc must be within [0, 1]")
	}
	if s.Resilience.Hours < 0 {
		return fmt.Errorf("resilience hours must not be negative")
	}
	return nil
}

// Grid builds the generator set.
func (s *Scenario) Grid() (*grid.Grid, error) {
	assets := make([]asset.Asset, 0, len(s.Assets))
	for _, a := range s.Assets {
		built, err := asset.New(a.Name, a.Type, a.Rating)
		if err != nil {
			return nil, fmt.Errorf("asset %s: %w", a.Name, err)
		}
		assets = append(assets, built)
	}
	return grid.New(assets...)
}

// ModelConfig returns the dispatch model parameters.
func (s *Scenario) ModelConfig() model.Config {
	return model.Config{
		Start:        s.Horizon.Start,
		End:          s.Horizon.End,
		Step:         s.Horizon.Step,
		Extend:       s.Horizon.Extend,
		Load:         s.Load,
		Location:     s.Location,
		Array:        s.Array,
		BatteryCRate: s.Battery.CRate,
		InitialSOC:   s.Battery.InitialSOC,
	}
}

// NewDisturbance builds the disturbance and draws its outcomes against g.
func (s *Scenario) NewDisturbance(g grid.Generators) (*disturbance.Disturbance, error) {
	d, err := disturbance.New(s.Disturbance.Start, s.Disturbance.Components, s.Repair, s.Disturbance.Method, s.Seed)
	if err != nil {
		return nil, err
	}
	d.Simulate(g)
	return d, nil
}
