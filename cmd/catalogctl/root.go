package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Pesokrava/furniture_catalog/internal/config"
	"github.com/Pesokrava/furniture_catalog/internal/pkg/logger"
)

var (
	cfg       *config.Config
	appLogger *logger.Logger
)

var rootCmd = &cobra.Command{
	Use:   "catalogctl",
	Short: "Furniture catalog administration CLI",
	Long:  "Seeds demo data, runs migrations and serves catalog tools over MCP.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig(cmd)
	},
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("driver", "", "Store driver override: mongo, postgres, memory")
}

func initConfig(cmd *cobra.Command) error {
	var err error
	cfg, err = config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if v, _ := cmd.Flags().GetString("driver"); v != "" {
		cfg.Store.Driver = v
	}

	appLogger = logger.NewWithLevel(cfg.Env, cfg.LogLevel)
	return nil
}
