// Package sqldb stores resilience results in a relational table
// resilience(id, results) on MySQL or PostgreSQL.
package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/ohowland/cgc_resilience/internal/pkg/database"
	"github.com/ohowland/cgc_resilience/internal/pkg/resilience"
	"go.uber.org/zap"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
)

// Config selects the driver ("mysql" or "postgres") and its DSN.
type Config struct {
	Driver string `json:"Driver"`
	DSN    string `json:"DSN"`
}

var ErrUnsupportedDriver = errors.New("sqldb: unsupported driver")

var schema = map[string]string{
	"mysql":    `CREATE TABLE IF NOT EXISTS resilience (id VARCHAR(128) PRIMARY KEY, results BLOB)`,
	"postgres": `CREATE TABLE IF NOT EXISTS resilience (id VARCHAR(128) PRIMARY KEY, results BYTEA)`,
}

var upsert = map[string]string{
	"mysql":    `INSERT INTO resilience (id, results) VALUES (?, ?) ON DUPLICATE KEY UPDATE results = VALUES(results)`,
	"postgres": `INSERT INTO resilience (id, results) VALUES (?, ?) ON CONFLICT (id) DO UPDATE SET results = EXCLUDED.results`,
}

// Store fulfills resilience.Store.
type Store struct {
	db     *sqlx.DB
	driver string
	logger *zap.Logger
}

// New connects and ensures the results table exists.
func New(ctx context.Context, cfg Config, logger *zap.Logger) (*Store, error) {
	ddl, ok := schema[cfg.Driver]
	if !ok {
		return nil, fmt.Errorf("%q: %w", cfg.Driver, ErrUnsupportedDriver)
	}
	db, err := sqlx.ConnectContext(ctx, cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, err
	}
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		db.Close()
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{db: db, driver: cfg.Driver, logger: logger.Named("sqldb")}, nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveResults fulfills resilience.Store.
func (s *Store) SaveResults(ctx context.Context, id string, r resilience.Results) error {
	blob, err := database.EncodeResults(r)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, s.db.Rebind(upsert[s.driver]), id, blob); err != nil {
		return err
	}
	s.logger.Info("results saved", zap.String("id", id), zap.Int("bytes", len(blob)))
	return nil
}

// LoadResults returns the results saved under id, or database.ErrNotFound.
func (s *Store) LoadResults(ctx context.Context, id string) (resilience.Results, error) {
	var blob []byte
	err := s.db.GetContext(ctx, &blob, s.db.Rebind(`SELECT results FROM resilience WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, database.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return database.DecodeResults(blob)
}
