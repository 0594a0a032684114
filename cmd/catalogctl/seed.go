package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Pesokrava/furniture_catalog/internal/repository"
	"github.com/Pesokrava/furniture_catalog/internal/seed"
	"github.com/Pesokrava/furniture_catalog/internal/usecase/catalog"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert randomly generated furniture products",
	RunE:  runSeed,
}

func init() {
	seedCmd.Flags().Int("count", 100, "Number of products to insert")
	seedCmd.Flags().Float64("rate", 50, "Products inserted per second (0 for unlimited)")
	seedCmd.Flags().Uint64("seed", 0, "Random seed (default: current time)")
	rootCmd.AddCommand(seedCmd)
}

func runSeed(cmd *cobra.Command, args []string) error {
	count, _ := cmd.Flags().GetInt("count")
	perSecond, _ := cmd.Flags().GetFloat64("rate")
	randomSeed, _ := cmd.Flags().GetUint64("seed")
	if randomSeed == 0 {
		randomSeed = uint64(time.Now().UnixNano())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := repository.Open(ctx, cfg, appLogger)
	if err != nil {
		return err
	}
	defer store.Close()

	// Products go through the service so IDs, timestamps and finalPrice are set as on the API
	service := catalog.NewService(store.Products, store.Reviews, nil, nil, appLogger, catalog.Options{})
	seeder := seed.NewSeeder(service, store.Reviews, seed.NewGenerator(randomSeed), perSecond, appLogger)

	start := time.Now()
	inserted, err := seeder.Run(ctx, count)

	appLogger.WithFields(map[string]any{
		"inserted":  inserted,
		"requested": count,
		"duration":  time.Since(start).String(),
	}).Info("Seeding finished")

	return err
}
