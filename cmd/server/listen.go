package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jengzang/vehicle-tracker-go/internal/database"
	"github.com/jengzang/vehicle-tracker-go/internal/repository"
)

// listenCmd runs only the UDP ingestion path
func listenCmd() *cobra.Command {
	var addr string
	var verbose bool

	cmd := &cobra.Command{
		Use:   "listen",
		Short: "Receive UDP telemetry and store it",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.UDP.Address = addr
			}
			if verbose {
				cfg.UDP.Verbose = true
			}

			if err := initDB(cfg, cfg.Database.AutoMigrate); err != nil {
				return fmt.Errorf("database error: %w", err)
			}
			defer database.Close()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			// the serve process picks new rows up on its next poll
			listener := newListener(cfg, repository.NewSampleRepository(database.GetDB()), nil)
			if err := listener.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "UDP address to listen on (overrides config)")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Log every packet")
	return cmd
}
