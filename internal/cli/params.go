package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/ohowland/cgc_resilience/internal/pkg/scenario"
)

const paramsFilename = "params.json"

type params struct {
	Command  string             `json:"command"`
	Started  time.Time          `json:"started"`
	Scenario *scenario.Scenario `json:"scenario"`
}

// writeParams records what a run was asked to do next to its results.
func writeParams(dir, command string, s *scenario.Scenario) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(params{Command: command, Started: time.Now().UTC(), Scenario: s}, "", "    ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, paramsFilename), b, 0o644)
}

func writeJSON(path string, v interface{}) error {
	b, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}
