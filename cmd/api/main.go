package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Pesokrava/furniture_catalog/internal/config"
	"github.com/Pesokrava/furniture_catalog/internal/delivery/events"
	httpDelivery "github.com/Pesokrava/furniture_catalog/internal/delivery/http"
	"github.com/Pesokrava/furniture_catalog/internal/delivery/http/handler"
	"github.com/Pesokrava/furniture_catalog/internal/delivery/http/middleware"
	"github.com/Pesokrava/furniture_catalog/internal/pkg/cache"
	"github.com/Pesokrava/furniture_catalog/internal/pkg/logger"
	"github.com/Pesokrava/furniture_catalog/internal/repository"
	cacheRepo "github.com/Pesokrava/furniture_catalog/internal/repository/cache"
	"github.com/Pesokrava/furniture_catalog/internal/usecase/catalog"

	_ "github.com/Pesokrava/furniture_catalog/docs"
)

// @title Furniture Catalog API
// @version 1.0
// @description Furniture catalog with filtered product listings, facets and popularity lists.
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.url http://github.com/Pesokrava/furniture_catalog
// @contact.email support@example.com

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1/catalog
// @schemes http https

// @tag.name Products
// @tag.description Product listing and management endpoints

// @tag.name Facets
// @tag.description Distinct category, brand and material values

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger := logger.NewWithLevel(cfg.Env, cfg.LogLevel)
	logger.SetGlobalLogger(appLogger)
	appLogger.Info("Starting Furniture Catalog API...")

	store, err := repository.Open(context.Background(), cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to open product store", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			appLogger.Error("Failed to close product store", err)
		}
	}()

	// Redis and NATS are optional; without them reads go to the store and counters publish nothing
	var (
		catalogCache catalog.Cache
		limiter      middleware.RateLimiter
	)
	appLogger.Info("Connecting to Redis...")
	redisClient, err := cache.WaitForRedis(cfg, 3, 2*time.Second)
	if err != nil {
		appLogger.Error("Redis unavailable, running without cache and rate limiting", err)
	} else {
		defer redisClient.Close()
		catalogCache = cacheRepo.NewRedisCache(redisClient, cfg.Cache.FacetsTTL, cfg.Cache.TopListsTTL)
		limiter = cacheRepo.NewRateLimiter(redisClient, cfg.RateLimit.Requests, cfg.RateLimit.Window)
		appLogger.Info("Connected to Redis successfully")
	}

	var publisher catalog.EventPublisher
	appLogger.Info("Connecting to NATS...")
	natsPublisher, err := events.NewPublisher(cfg, appLogger)
	if err != nil {
		appLogger.Error("NATS unavailable, catalog events are disabled", err)
	} else {
		defer natsPublisher.Close()
		publisher = natsPublisher
	}

	catalogService := catalog.NewService(store.Products, store.Reviews, catalogCache, publisher, appLogger, catalog.Options{
		DefaultLimit: cfg.Catalog.DefaultLimit,
		MaxLimit:     cfg.Catalog.MaxLimit,
		TopLimit:     cfg.Catalog.TopLimit,
		StrictSort:   cfg.Catalog.StrictSort,
	})

	productHandler := handler.NewProductHandler(catalogService, appLogger)

	router := httpDelivery.NewRouter(productHandler, limiter, cfg, appLogger)
	httpHandler := router.Setup()

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      httpHandler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		appLogger.Infof("HTTP server listening on port %s", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal("HTTP server failed", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		appLogger.Error("Server forced to shutdown", err)
	}

	appLogger.Info("Server stopped gracefully")
}
