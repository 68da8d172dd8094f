package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jengzang/vehicle-tracker-go/internal/database"
)

// migrateCmd manages the schema
func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(func() error {
				return database.MigrateUp(database.GetDB())
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(func() error {
				return database.MigrateDown(database.GetDB())
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(func() error {
				version, dirty, err := database.MigrateVersion(database.GetDB())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "version %d (dirty: %t)\n", version, dirty)
				return nil
			})
		},
	})

	return cmd
}

func withDB(fn func() error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := initDB(cfg, false); err != nil {
		return fmt.Errorf("database error: %w", err)
	}
	defer database.Close()
	return fn()
}
