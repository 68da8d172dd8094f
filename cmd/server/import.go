package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jengzang/vehicle-tracker-go/internal/database"
	"github.com/jengzang/vehicle-tracker-go/internal/ingest"
	"github.com/jengzang/vehicle-tracker-go/internal/repository"
)

// importCmd loads exported samples back into the store
func importCmd() *cobra.Command {
	var batch int

	cmd := &cobra.Command{
		Use:   "import [file]",
		Short: "Import samples from a JSON array or JSON lines file (stdin when omitted)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			var in io.Reader = cmd.InOrStdin()
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("failed to open import file: %w", err)
				}
				defer f.Close()
				in = f
			}

			if err := initDB(cfg, cfg.Database.AutoMigrate); err != nil {
				return fmt.Errorf("database error: %w", err)
			}
			defer database.Close()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			stats, err := ingest.Import(ctx, in, repository.NewSampleRepository(database.GetDB()), batch)
			log.Printf("[Import] read=%d stored=%d rejected=%d", stats.Read, stats.Stored, stats.Rejected)
			return err
		},
	}

	cmd.Flags().IntVar(&batch, "batch", ingest.DefaultImportBatch, "Samples per transaction")
	return cmd
}
