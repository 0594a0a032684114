// Package repository opens the product store selected by configuration.
package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Pesokrava/furniture_catalog/internal/config"
	"github.com/Pesokrava/furniture_catalog/internal/domain"
	"github.com/Pesokrava/furniture_catalog/internal/pkg/database"
	"github.com/Pesokrava/furniture_catalog/internal/pkg/logger"
	"github.com/Pesokrava/furniture_catalog/internal/repository/memory"
	"github.com/Pesokrava/furniture_catalog/internal/repository/mongodb"
	"github.com/Pesokrava/furniture_catalog/internal/repository/postgres"
)

const (
	connectRetries    = 10
	connectRetryDelay = 2 * time.Second
)

// ReviewStore reads and writes product reviews
type ReviewStore interface {
	domain.ReviewRepository
	Create(ctx context.Context, review *domain.Review) error
}

// Store bundles the repositories of one backend
type Store struct {
	Products domain.ProductRepository
	Reviews  ReviewStore
	close    func() error
}

// Close releases the backend connection
func (s *Store) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}

// Open connects to the backend named by cfg.Store.Driver
func Open(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Store, error) {
	log = log.With("driver", cfg.Store.Driver)

	switch cfg.Store.Driver {
	case config.DriverMongo:
		log.Info("Connecting to MongoDB...")
		db, err := database.WaitForMongo(cfg, connectRetries, connectRetryDelay)
		if err != nil {
			return nil, err
		}

		products := mongodb.NewProductRepository(db)
		reviews := mongodb.NewReviewRepository(db)
		closeFn := func() error { return db.Client().Disconnect(context.Background()) }

		if err := products.EnsureIndexes(ctx); err != nil {
			_ = closeFn()
			return nil, fmt.Errorf("failed to ensure product indexes: %w", err)
		}
		if err := reviews.EnsureIndexes(ctx); err != nil {
			_ = closeFn()
			return nil, fmt.Errorf("failed to ensure review indexes: %w", err)
		}

		log.Info("Connected to MongoDB successfully")
		return &Store{Products: products, Reviews: reviews, close: closeFn}, nil

	case config.DriverPostgres:
		log.Info("Connecting to PostgreSQL...")
		db, err := database.WaitForDB(cfg, connectRetries, connectRetryDelay)
		if err != nil {
			return nil, err
		}

		log.Info("Connected to PostgreSQL successfully")
		return &Store{
			Products: postgres.NewProductRepository(db),
			Reviews:  postgres.NewReviewRepository(db),
			close:    db.Close,
		}, nil

	case config.DriverMemory:
		log.Warn("Using in-memory store, data is lost on exit")
		return &Store{
			Products: memory.NewProductRepository(),
			Reviews:  memory.NewReviewRepository(),
		}, nil

	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}
