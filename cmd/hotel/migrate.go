package main

import (
	"fmt"

	"github.com/diagnosis/hotel-bookings/internal/schema"
	"github.com/diagnosis/hotel-bookings/pkg/config"
	"github.com/diagnosis/hotel-bookings/pkg/logger"
	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			db, err := schema.Open(cfg.Database.URL)
			if err != nil {
				return err
			}
			sqlDB, err := db.DB()
			if err != nil {
				return fmt.Errorf("database handle: %w", err)
			}
			defer sqlDB.Close()

			if err := schema.Migrate(db.WithContext(cmd.Context())); err != nil {
				return err
			}
			logger.Info("Schema is up to date")
			return nil
		},
	}
}
