package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/Pesokrava/furniture_catalog/internal/config"
	"github.com/Pesokrava/furniture_catalog/internal/pkg/retry"
)

// NewMongoDB connects to MongoDB and returns the configured database handle
func NewMongoDB(cfg *config.Config) (*mongo.Database, error) {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Mongo.Timeout)
	defer cancel()

	opts := options.Client().
		ApplyURI(cfg.Mongo.URI).
		SetConnectTimeout(cfg.Mongo.Timeout).
		SetServerSelectionTimeout(cfg.Mongo.Timeout)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	return client.Database(cfg.Mongo.Database), nil
}

// WaitForMongo waits for MongoDB to become available with retries
func WaitForMongo(cfg *config.Config, maxRetries int, retryDelay time.Duration) (*mongo.Database, error) {
	return retry.Connect("mongo", maxRetries, retryDelay, func() (*mongo.Database, error) {
		return NewMongoDB(cfg)
	})
}
