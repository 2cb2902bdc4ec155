package scenario

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/ohowland/cgc_resilience/internal/pkg/asset"
	"github.com/ohowland/cgc_resilience/internal/pkg/dispatch/model"
	"github.com/ohowland/cgc_resilience/internal/pkg/disturbance"
	"github.com/ohowland/cgc_resilience/internal/pkg/grid"
	"gotest.tools/v3/assert"
)

func TestLoad(t *testing.T) {
	s, err := Load("testdata/scenario.yaml")
	assert.NilError(t, err)

	assert.Equal(t, s.ID, "island-2022")
	assert.Equal(t, s.Seed, uint64(42))
	assert.Equal(t, s.Horizon.Step, time.Hour)
	assert.Equal(t, s.Horizon.Extend, 0.5)
	assert.Equal(t, len(s.Load), 24)
	assert.Equal(t, s.Assets[2].Type, asset.Battery)
	assert.Equal(t, s.Disturbance.Method, disturbance.Deterministic)
	assert.Equal(t, s.Disturbance.Components[0].Quantity, 1)
	assert.Equal(t, s.Repair[0].Value, 6.0)
	assert.Equal(t, s.Resilience.Hours, 12.0)
	assert.Equal(t, s.Resilience.Workers, 4)
	assert.Equal(t, s.Resilience.MaxShifts, 50)
	assert.Equal(t, s.Sizing.Battery, 50.0)
}

func TestBuild(t *testing.T) {
	s, err := Load("testdata/scenario.yaml")
	assert.NilError(t, err)

	g, err := s.Grid()
	assert.NilError(t, err)
	assert.Equal(t, len(g.Generators()), 4)
	assert.Equal(t, g.Capacity(asset.DieselGenerator), 100.0)

	d, err := s.NewDisturbance(g)
	assert.NilError(t, err)
	assert.Assert(t, d.Simulated())

	m, err := model.New(g, s.ModelConfig())
	assert.NilError(t, err)
	assert.Equal(t, len(m.Periods()), 72)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("testdata/missing.yaml")
	assert.ErrorContains(t, err, "failed to read scenario")
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		name    string
		replace [2]string
		want    string
	}{
		{"no id", [2]string{"id: island-2022", "id: \"\""}, "id is required"},
		{"zero step", [2]string{"step: 1h", "step: 0s"}, "horizon step"},
		{"bad type", [2]string{"type: battery,", "type: flywheel,"}, "failed to parse"},
		{"bad method", [2]string{"method: deterministic", "method: random"}, "failed to parse"},
		{"late disturbance", [2]string{"start: 2022-06-01T10:00:00Z", "start: 2022-06-05T10:00:00Z"}, "disturbance start"},
		{"negative hours", [2]string{"hours: 12", "hours: -1"}, "resilience hours"},
	}
	raw := readTestdata(t)
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			doc := strings.Replace(raw, tc.replace[0], tc.replace[1], 1)
			assert.Assert(t, doc != raw)
			_, err := Parse([]byte(doc))
			assert.ErrorContains(t, err, tc.want)
		})
	}
}

func TestParseEmptyGrid(t *testing.T) {
	raw := readTestdata(t)
	start := strings.Index(raw, "assets:")
	end := strings.Index(raw, "disturbance:")
	_, err := Parse([]byte(raw[:start] + raw[end:]))
	assert.ErrorIs(t, err, grid.ErrEmptyGrid)
}

func readTestdata(t *testing.T) string {
	b, err := os.ReadFile("testdata/scenario.yaml")
	assert.NilError(t, err)
	return string(b)
}
