package cli

import (
	"context"
	"errors"

	"github.com/ohowland/cgc_resilience/internal/pkg/database/mongodb"
	"github.com/ohowland/cgc_resilience/internal/pkg/database/sqldb"
	"github.com/ohowland/cgc_resilience/internal/pkg/datastreams/natshandler"
	"github.com/ohowland/cgc_resilience/internal/pkg/resilience"
	"github.com/ohowland/cgc_resilience/internal/pkg/webservice"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var errNoStore = errors.New("no result store configured: set --mongo-uri or --sql-dsn")

// backends holds the collaborators opened from the runtime settings.
type backends struct {
	stores  resilience.MultiStore
	loader  webservice.Loader
	nats    *natshandler.Handler
	closers []func()
}

func (b *backends) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

func openBackends(ctx context.Context, logger *zap.Logger) (*backends, error) {
	b := &backends{}

	if uri := viper.GetString("mongo-uri"); uri != "" {
		s, err := mongodb.New(ctx, mongodb.Config{URI: uri, Database: viper.GetString("mongo-database")}, logger)
		if err != nil {
			b.Close()
			return nil, err
		}
		b.closers = append(b.closers, func() { s.Close(context.Background()) })
		b.stores = append(b.stores, s)
		b.loader = s
	}

	if dsn := viper.GetString("sql-dsn"); dsn != "" {
		s, err := sqldb.New(ctx, sqldb.Config{Driver: viper.GetString("sql-driver"), DSN: dsn}, logger)
		if err != nil {
			b.Close()
			return nil, err
		}
		b.closers = append(b.closers, func() { s.Close() })
		b.stores = append(b.stores, s)
		if b.loader == nil {
			b.loader = s
		}
	}

	if url := viper.GetString("nats-url"); url != "" {
		h, err := natshandler.New(url, logger)
		if err != nil {
			b.Close()
			return nil, err
		}
		b.closers = append(b.closers, func() { h.Close() })
		b.stores = append(b.stores, h)
		b.nats = h
	}
	return b, nil
}
