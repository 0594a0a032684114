package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Pesokrava/furniture_catalog/internal/config"
	"github.com/Pesokrava/furniture_catalog/internal/pkg/retry"
)

const (
	clientName  = "furniture-catalog"
	dialTimeout = 5 * time.Second
	ioTimeout   = 2 * time.Second
)

// NewRedisClient creates a Redis client and checks it with PING
func NewRedisClient(cfg *config.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.GetRedisAddr(),
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		ClientName:   clientName,
		DialTimeout:  dialTimeout,
		ReadTimeout:  ioTimeout,
		WriteTimeout: ioTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return client, nil
}

// WaitForRedis waits for Redis to become available with retries
func WaitForRedis(cfg *config.Config, maxRetries int, retryDelay time.Duration) (*redis.Client, error) {
	return retry.Connect("redis", maxRetries, retryDelay, func() (*redis.Client, error) {
		return NewRedisClient(cfg)
	})
}
