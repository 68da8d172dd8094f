package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jengzang/vehicle-tracker-go/internal/database"
	"github.com/jengzang/vehicle-tracker-go/internal/history"
	"github.com/jengzang/vehicle-tracker-go/internal/repository"
	"github.com/jengzang/vehicle-tracker-go/internal/service"
	"github.com/jengzang/vehicle-tracker-go/internal/timeutil"
)

// analyzeCmd runs offline analyses against the store
func analyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Run an analysis over a stored time range",
	}
	cmd.AddCommand(analyzeCongestionCmd())
	return cmd
}

func analyzeCongestionCmd() *cobra.Command {
	var start, end, vehicle string
	var precision int
	var full bool

	cmd := &cobra.Command{
		Use:   "congestion",
		Short: "Print the congestion report of a range as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			vehicleID, err := history.ParseVehicleFilter(vehicle)
			if err != nil {
				return err
			}
			req, err := history.ParseRequest(start, end, vehicleID)
			if err != nil {
				return err
			}

			if err := initDB(cfg, cfg.Database.AutoMigrate); err != nil {
				return fmt.Errorf("database error: %w", err)
			}
			defer database.Close()

			fetcher := history.NewFetcher(repository.NewSampleRepository(database.GetDB()), timeutil.RealClock{}, 1)
			samples, err := fetcher.Fetch(context.Background(), req)
			if err != nil {
				return err
			}

			report, err := service.Analyze(samples, cfg.Congestion, precision)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if full {
				return enc.Encode(report)
			}
			return enc.Encode(struct {
				Summary  interface{} `json:"summary"`
				Clusters interface{} `json:"clusters"`
			}{report.Summary, report.Clusters})
		},
	}

	cmd.Flags().StringVar(&start, "start", "", "Range start, e.g. 2025-06-01T10:00")
	cmd.Flags().StringVar(&end, "end", "", "Range end")
	cmd.Flags().StringVar(&vehicle, "vehicle", history.AllVehicles, "Vehicle id, or all")
	cmd.Flags().IntVar(&precision, "precision", 0, "Geohash precision for heatmap cells")
	cmd.Flags().BoolVar(&full, "full", false, "Include weighted points and heatmap layers")
	cmd.MarkFlagRequired("start")
	cmd.MarkFlagRequired("end")
	return cmd
}
