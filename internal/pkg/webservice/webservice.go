// Package webservice serves stored resilience results over HTTP.
package webservice

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/ohowland/cgc_resilience/internal/pkg/database"
	"github.com/ohowland/cgc_resilience/internal/pkg/resilience"
	"go.uber.org/zap"
)

// Loader reads results saved by a resilience.Store.
type Loader interface {
	LoadResults(ctx context.Context, id string) (resilience.Results, error)
}

// ResultsResponse is the body of GET /resilience/{id}.
type ResultsResponse struct {
	ID      string             `json:"id"`
	Results resilience.Results `json:"results"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Service holds the handler dependencies.
type Service struct {
	loader Loader
	logger *zap.Logger
}

// New returns a Service reading from loader.
func New(loader Loader, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{loader: loader, logger: logger.Named("webservice")}
}

// Router registers the service routes.
func (s *Service) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/", s.wrapHandler(BaseHandler)).Methods("GET")
	r.HandleFunc("/resilience/{id}", s.wrapHandler(s.ResultsHandler)).Methods("GET")
	return r
}

func (s *Service) wrapHandler(handler func(w http.ResponseWriter, r *http.Request),
) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		s.logger.Debug("request", zap.String("method", r.Method), zap.String("path", r.URL.Path))
		handler(w, r)
	}
}

// BaseHandler answers health checks.
func BaseHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	w.WriteHeader(http.StatusOK)
}

// ResultsHandler returns the results stored under the id path variable.
func (s *Service) ResultsHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")

	results, err := s.loader.LoadResults(r.Context(), id)
	switch {
	case errors.Is(err, database.ErrNotFound):
		s.write(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case err != nil:
		s.logger.Error("load results", zap.String("id", id), zap.Error(err))
		s.write(w, http.StatusInternalServerError, errorResponse{Error: "unable to load results"})
	default:
		s.write(w, http.StatusOK, ResultsResponse{ID: id, Results: results})
	}
}

func (s *Service) write(w http.ResponseWriter, code int, v interface{}) {
	body, err := json.Marshal(v)
	if err != nil {
		s.logger.Error("malformed JSON", zap.Error(err))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.WriteHeader(code)
	if _, err := w.Write(body); err != nil {
		s.logger.Warn("write response", zap.Error(err))
	}
}
