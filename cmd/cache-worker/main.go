package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/Pesokrava/furniture_catalog/internal/config"
	"github.com/Pesokrava/furniture_catalog/internal/delivery/events"
	"github.com/Pesokrava/furniture_catalog/internal/domain"
	"github.com/Pesokrava/furniture_catalog/internal/pkg/cache"
	"github.com/Pesokrava/furniture_catalog/internal/pkg/logger"
	cacheRepo "github.com/Pesokrava/furniture_catalog/internal/repository/cache"
	"github.com/Pesokrava/furniture_catalog/internal/worker"
)

const fetchBatch = 10

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger := logger.NewWithLevel(cfg.Env, cfg.LogLevel)
	appLogger.Info("Starting cache worker...")

	appLogger.Info("Connecting to Redis...")
	redisClient, err := cache.WaitForRedis(cfg, 10, 2*time.Second)
	if err != nil {
		appLogger.Fatal("Failed to connect to Redis", err)
	}
	defer redisClient.Close()

	redisCache := cacheRepo.NewRedisCache(redisClient, cfg.Cache.FacetsTTL, cfg.Cache.TopListsTTL)
	cacheWorker := worker.NewCacheWorker(redisCache, appLogger)

	appLogger.Info("Connecting to NATS JetStream...")
	nc, err := nats.Connect(cfg.NATS.URL, nats.Name(events.ConsumerName))
	if err != nil {
		appLogger.Fatal("Failed to connect to NATS", err)
	}
	defer nc.Close()

	js, err := nc.JetStream()
	if err != nil {
		appLogger.Fatal("Failed to create JetStream context", err)
	}

	streamConfig := events.NewStreamConfig(js, appLogger)
	if err := streamConfig.EnsureStream(); err != nil {
		appLogger.Fatal("Failed to ensure stream", err)
	}
	if err := streamConfig.EnsureConsumer(); err != nil {
		appLogger.Fatal("Failed to ensure consumer", err)
	}

	sub, err := js.PullSubscribe(domain.EventsSubject, events.ConsumerName, nats.ManualAck())
	if err != nil {
		appLogger.Fatal("Failed to subscribe to JetStream consumer", err)
	}
	defer func() {
		if err := sub.Unsubscribe(); err != nil {
			appLogger.Error("Failed to unsubscribe from JetStream", err)
		}
	}()

	appLogger.WithFields(map[string]any{
		"stream":   events.StreamName,
		"consumer": events.ConsumerName,
	}).Info("Subscribed to JetStream consumer")

	ctx, stop := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		defer close(done)
		for ctx.Err() == nil {
			msgs, err := sub.Fetch(fetchBatch, nats.MaxWait(5*time.Second))
			if err != nil {
				if errors.Is(err, nats.ErrTimeout) {
					continue
				}
				appLogger.Error("Failed to fetch messages from JetStream", err)
				select {
				case <-time.After(5 * time.Second):
				case <-ctx.Done():
				}
				continue
			}

			for _, msg := range msgs {
				if err := cacheWorker.HandleEvent(msg.Data); err != nil {
					// A malformed event never parses; terminate it instead of redelivering
					if termErr := msg.Term(); termErr != nil {
						appLogger.Error("Failed to terminate message", termErr)
					}
					continue
				}

				if ackErr := msg.Ack(); ackErr != nil {
					appLogger.Error("Failed to ACK message", ackErr)
				}
			}
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	<-sigCh
	appLogger.Info("Received shutdown signal")

	stop()
	<-done

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := cacheWorker.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("Error during shutdown", err)
	}

	appLogger.Info("Cache worker stopped")
}
