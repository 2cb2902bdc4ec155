package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ohowland/cgc_resilience/internal/pkg/resilience"
	"gotest.tools/v3/assert"
)

func TestResilienceCommand(t *testing.T) {
	dir := t.TempDir()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"resilience", "testdata/scenario.yaml", "--out", dir, "--log-level", "error", "--workers", "2"})

	assert.NilError(t, rootCmd.Execute())

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	assert.Equal(t, len(lines), 4*len(resilience.SubMetrics))

	b, err := os.ReadFile(filepath.Join(dir, "island-2022", "resilience.json"))
	assert.NilError(t, err)
	results := resilience.Results{}
	assert.NilError(t, json.Unmarshal(b, &results))
	for k, v := range results {
		assert.Assert(t, v >= 0 && v <= 1, "%s = %v", k, v)
	}
	_, ok := results[resilience.LocalShiftPrefix(12)+resilience.AveragePerformanceDemand]
	assert.Assert(t, ok)

	_, err = os.Stat(filepath.Join(dir, "island-2022", paramsFilename))
	assert.NilError(t, err)
}

func TestResilienceCommandRequiresScenario(t *testing.T) {
	rootCmd.SetArgs([]string{"resilience"})
	rootCmd.SetOut(&bytes.Buffer{})
	rootCmd.SetErr(&bytes.Buffer{})
	assert.Assert(t, rootCmd.Execute() != nil)
}

func TestServeRequiresStore(t *testing.T) {
	rootCmd.SetArgs([]string{"serve", "--log-level", "error"})
	err := rootCmd.Execute()
	assert.ErrorIs(t, err, errNoStore)
}
