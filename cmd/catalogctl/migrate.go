package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Pesokrava/furniture_catalog/internal/pkg/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply PostgreSQL migrations",
	RunE:  runMigrate,
}

func init() {
	migrateCmd.Flags().String("dir", "migrations", "Directory holding *.up.sql files")
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	dir, _ := cmd.Flags().GetString("dir")

	db, err := database.WaitForDB(cfg, 10, 2*time.Second)
	if err != nil {
		return err
	}
	defer db.Close()

	applied, err := database.RunMigrations(db, dir)
	if err != nil {
		return err
	}

	for _, name := range applied {
		fmt.Fprintf(cmd.OutOrStdout(), "applied %s\n", name)
	}
	appLogger.Infof("Applied %d migrations from %s", len(applied), dir)
	return nil
}
