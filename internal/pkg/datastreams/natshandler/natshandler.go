// Package natshandler forwards resilience results and accepted sizing
// solutions to a NATS server.
package natshandler

import (
	"context"
	"encoding/json"

	"github.com/ohowland/cgc_resilience/internal/pkg/resilience"
	"github.com/ohowland/cgc_resilience/internal/pkg/sizing"
	"go.uber.org/zap"

	nats "github.com/nats-io/nats.go"
)

const (
	ResultsSubjectPrefix = "resilience.results."
	SolutionsSubject     = "sizing.solutions"
)

// Publisher is the subset of *nats.Conn the handler uses.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// Handler fulfills resilience.Store and sizing.Exporter.
type Handler struct {
	pub    Publisher
	conn   *nats.Conn
	logger *zap.Logger
}

type solutionMsg struct {
	Name string `json:"name"`
	Dir  string `json:"dir,omitempty"`
	sizing.Solution
	DeficitPercentage float64 `json:"deficit_pct"`
}

type resultsMsg struct {
	ID      string             `json:"id"`
	Results resilience.Results `json:"results"`
}

// New connects to the server at url.
func New(url string, logger *zap.Logger) (*Handler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	nc, err := nats.Connect(url, nats.Name("mgres"))
	if err != nil {
		return nil, err
	}
	h := NewWithPublisher(nc, logger)
	h.conn = nc
	return h, nil
}

// NewWithPublisher wraps an existing publisher.
func NewWithPublisher(pub Publisher, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{pub: pub, logger: logger.Named("nats")}
}

// Close flushes and closes a connection opened by New.
func (h *Handler) Close() error {
	if h.conn == nil {
		return nil
	}
	err := h.conn.Flush()
	h.conn.Close()
	return err
}

// SaveResults fulfills resilience.Store.
func (h *Handler) SaveResults(ctx context.Context, id string, r resilience.Results) error {
	data, err := json.Marshal(resultsMsg{ID: id, Results: r})
	if err != nil {
		return err
	}
	return h.publish(ResultsSubjectPrefix+id, data)
}

// Export fulfills sizing.Exporter.
func (h *Handler) Export(ctx context.Context, dir string, s sizing.Solution) error {
	m := solutionMsg{Name: s.Name(), Dir: dir, Solution: s}
	if s.Metrics != nil {
		m.DeficitPercentage = s.Metrics.DeficitPercentage()
	}
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return h.publish(SolutionsSubject, data)
}

func (h *Handler) publish(subject string, data []byte) error {
	if err := h.pub.Publish(subject, data); err != nil {
		h.logger.Warn("unable to publish", zap.String("subject", subject), zap.Error(err))
		return err
	}
	h.logger.Debug("published", zap.String("subject", subject), zap.Int("bytes", len(data)))
	return nil
}
