package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jengzang/vehicle-tracker-go/internal/config"
	"github.com/jengzang/vehicle-tracker-go/internal/database"
)

var (
	configPath string
	dbPath     string
)

func main() {
	config.InitLogging()

	rootCmd := &cobra.Command{
		Use:   "vehicle-tracker",
		Short: "Vehicle telemetry ingestion, history and live map backend",
		Long: `Receives vehicle telemetry over UDP, stores it in SQLite and serves
historical queries, trace and congestion analysis and a live feed to the map UI.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML config file")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Path to SQLite database (overrides config)")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(listenCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(analyzeCmd())
	rootCmd.AddCommand(importCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig applies the global flags on top of file and environment
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if dbPath != "" {
		cfg.Database.Path = dbPath
	}
	return cfg, nil
}

// initDB opens the shared connection, creating the parent directory
func initDB(cfg *config.Config, autoMigrate bool) error {
	if dir := filepath.Dir(cfg.Database.Path); dir != "" && cfg.Database.Path != ":memory:" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	return database.Init(database.Config{
		Path:          cfg.Database.Path,
		MaxOpenConns:  cfg.Database.MaxOpenConns,
		BusyTimeoutMs: cfg.Database.BusyTimeoutMs,
		AutoMigrate:   autoMigrate,
	})
}
