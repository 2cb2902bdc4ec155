// Package mongodb stores resilience results in the "resilience" collection.
package mongodb

import (
	"context"
	"errors"

	"github.com/ohowland/cgc_resilience/internal/pkg/database"
	"github.com/ohowland/cgc_resilience/internal/pkg/resilience"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const collection = "resilience"

// Config locates the server and database.
type Config struct {
	URI      string `json:"URI"`
	Database string `json:"Database"`
}

type document struct {
	ID      string `bson:"_id"`
	Results []byte `bson:"results"`
}

// Store fulfills resilience.Store.
type Store struct {
	client *mongo.Client
	coll   *mongo.Collection
	logger *zap.Logger
}

// New connects to the server described by cfg.
func New(ctx context.Context, cfg Config, logger *zap.Logger) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(ctx)
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		client: client,
		coll:   client.Database(cfg.Database).Collection(collection),
		logger: logger.Named("mongodb"),
	}, nil
}

// Close disconnects the client.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// SaveResults fulfills resilience.Store, replacing any earlier results for id.
func (s *Store) SaveResults(ctx context.Context, id string, r resilience.Results) error {
	blob, err := database.EncodeResults(r)
	if err != nil {
		return err
	}
	opts := options.Update().SetUpsert(true)
	_, err = s.coll.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"results": blob}},
		opts,
	)
	if err != nil {
		return err
	}
	s.logger.Info("results saved", zap.String("id", id), zap.Int("bytes", len(blob)))
	return nil
}

// LoadResults returns the results saved under id, or database.ErrNotFound.
func (s *Store) LoadResults(ctx context.Context, id string) (resilience.Results, error) {
	var doc document
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, database.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return database.DecodeResults(doc.Results)
}
