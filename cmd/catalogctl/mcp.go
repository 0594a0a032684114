package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Pesokrava/furniture_catalog/internal/delivery/mcp"
	"github.com/Pesokrava/furniture_catalog/internal/pkg/cache"
	"github.com/Pesokrava/furniture_catalog/internal/pkg/logger"
	"github.com/Pesokrava/furniture_catalog/internal/repository"
	cacheRepo "github.com/Pesokrava/furniture_catalog/internal/repository/cache"
	"github.com/Pesokrava/furniture_catalog/internal/usecase/catalog"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve catalog tools over MCP stdio",
	RunE:  runMCP,
}

func init() {
	mcpCmd.Flags().Bool("cache", true, "Read top lists and facets through Redis when available")
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
	// stdout carries the protocol
	log := logger.NewWithWriter(cmd.ErrOrStderr(), cfg.Env, cfg.LogLevel)

	store, err := repository.Open(context.Background(), cfg, log)
	if err != nil {
		return err
	}
	defer store.Close()

	var catalogCache catalog.Cache
	if useCache, _ := cmd.Flags().GetBool("cache"); useCache {
		if client, err := cache.WaitForRedis(cfg, 1, time.Second); err == nil {
			defer client.Close()
			catalogCache = cacheRepo.NewRedisCache(client, cfg.Cache.FacetsTTL, cfg.Cache.TopListsTTL)
		}
	}

	service := catalog.NewService(store.Products, store.Reviews, catalogCache, nil, log, catalog.Options{
		DefaultLimit: cfg.Catalog.DefaultLimit,
		MaxLimit:     cfg.Catalog.MaxLimit,
		TopLimit:     cfg.Catalog.TopLimit,
		StrictSort:   cfg.Catalog.StrictSort,
	})

	fmt.Fprintln(cmd.ErrOrStderr(), "Starting catalog MCP server on stdio...")
	return mcp.ServeStdio(service, log)
}
