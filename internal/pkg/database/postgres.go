package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/Pesokrava/furniture_catalog/internal/config"
	"github.com/Pesokrava/furniture_catalog/internal/pkg/retry"
)

const pingTimeout = 5 * time.Second

// NewPostgresDB opens a pooled PostgreSQL handle and checks it with a ping
func NewPostgresDB(cfg *config.Config) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	return db, nil
}

// WaitForDB waits for PostgreSQL to become available with retries
func WaitForDB(cfg *config.Config, maxRetries int, retryDelay time.Duration) (*sqlx.DB, error) {
	return retry.Connect("database", maxRetries, retryDelay, func() (*sqlx.DB, error) {
		return NewPostgresDB(cfg)
	})
}
