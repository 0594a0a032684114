package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Pesokrava/furniture_catalog/internal/config"
	"github.com/Pesokrava/furniture_catalog/internal/delivery/events"
	"github.com/Pesokrava/furniture_catalog/internal/domain"
	"github.com/Pesokrava/furniture_catalog/internal/pkg/logger"
)

// Replicas share one queue group so each event is logged once
const queueGroup = "notifier"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger := logger.NewWithLevel(cfg.Env, cfg.LogLevel).With("service", "notifier")
	appLogger.Info("Starting notifier service...")

	consumer, err := events.NewConsumer(cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to create NATS consumer", err)
	}
	defer consumer.Close()

	if err := consumer.Subscribe(domain.EventsSubject, queueGroup, events.LoggingHandler(appLogger)); err != nil {
		appLogger.Fatal("Failed to subscribe to catalog events", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	appLogger.Info("Notifier listening for catalog events")
	<-ctx.Done()

	appLogger.Info("Shutting down notifier service...")
}
