package webservice

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ohowland/cgc_resilience/internal/pkg/database"
	"github.com/ohowland/cgc_resilience/internal/pkg/resilience"
	"go.uber.org/zap/zaptest"
	"gotest.tools/v3/assert"
)

type mapLoader map[string]resilience.Results

func (m mapLoader) LoadResults(ctx context.Context, id string) (resilience.Results, error) {
	if id == "broken" {
		return nil, errors.New("connection reset")
	}
	r, ok := m[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	return r, nil
}

func serve(t *testing.T, target string) *httptest.ResponseRecorder {
	loader := mapLoader{"run-1": {resilience.FixedWindowPrefix + resilience.InvulnerabilityRecovery: 0.5}}
	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "http://example.com"+target, nil)
	New(loader, zaptest.NewLogger(t)).Router().ServeHTTP(w, r)
	return w
}

func TestBase(t *testing.T) {
	w := serve(t, "/")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json; charset=UTF-8", w.Header().Get("Content-Type"))
}

func TestResultsGet(t *testing.T) {
	w := serve(t, "/resilience/run-1")
	assert.Equal(t, http.StatusOK, w.Code)

	resp := ResultsResponse{}
	assert.NilError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, resp.ID, "run-1")
	assert.Equal(t, resp.Results[resilience.FixedWindowPrefix+resilience.InvulnerabilityRecovery], 0.5)
}

func TestResultsNotFound(t *testing.T) {
	w := serve(t, "/resilience/missing")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestResultsLoadFailure(t *testing.T) {
	w := serve(t, "/resilience/broken")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestResultsMethodNotAllowed(t *testing.T) {
	loader := mapLoader{}
	w := httptest.NewRecorder()
	r := httptest.NewRequest("POST", "http://example.com/resilience/run-1", nil)
	New(loader, nil).Router().ServeHTTP(w, r)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}
