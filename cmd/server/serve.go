package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jengzang/vehicle-tracker-go/internal/api"
	"github.com/jengzang/vehicle-tracker-go/internal/config"
	"github.com/jengzang/vehicle-tracker-go/internal/database"
	"github.com/jengzang/vehicle-tracker-go/internal/handler"
	"github.com/jengzang/vehicle-tracker-go/internal/history"
	"github.com/jengzang/vehicle-tracker-go/internal/ingest"
	"github.com/jengzang/vehicle-tracker-go/internal/live"
	"github.com/jengzang/vehicle-tracker-go/internal/middleware"
	"github.com/jengzang/vehicle-tracker-go/internal/repository"
	"github.com/jengzang/vehicle-tracker-go/internal/service"
	"github.com/jengzang/vehicle-tracker-go/internal/timeutil"
)

// serveCmd starts the HTTP API, the live coordinator and optionally the UDP listener
func serveCmd() *cobra.Command {
	var withUDP bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API and live feed",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("udp") {
				cfg.UDP.Enabled = withUDP
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runServer(ctx, cfg)
		},
	}

	cmd.Flags().BoolVar(&withUDP, "udp", false, "Also run the UDP listener in this process")
	return cmd
}

func runServer(ctx context.Context, cfg *config.Config) error {
	if err := initDB(cfg, cfg.Database.AutoMigrate); err != nil {
		return fmt.Errorf("database error: %w", err)
	}
	defer database.Close()

	clock := timeutil.RealClock{}
	samples := repository.NewSampleRepository(database.GetDB())
	fetcher := history.NewFetcher(samples, clock, cfg.History.MaxConcurrentFetches)

	coord := live.NewCoordinator(samples, clock, cfg.Live.PollInterval)
	sio := live.NewSocketIOBroadcaster(coord)
	sio.Start()
	defer sio.Close()
	hub := live.NewWebSocketHub(coord)
	defer hub.Shutdown()

	congestionService, err := service.NewCongestionService(fetcher, cfg.Congestion)
	if err != nil {
		return err
	}

	h := api.Handlers{
		History:    handler.NewHistoryHandler(service.NewHistoryService(fetcher)),
		Trace:      handler.NewTraceHandler(service.NewTraceService(fetcher, cfg.Trace.DefaultRadiusMeters)),
		Congestion: handler.NewCongestionHandler(congestionService),
		Route:      handler.NewRouteHandler(service.NewRouteService(fetcher)),
		Live:       handler.NewLiveHandler(service.NewLiveService(coord)),
		Vehicle:    handler.NewVehicleHandler(service.NewVehicleService(samples)),
		SocketIO:   sio.Handler(),
		WebSocket:  hub,
	}
	if cfg.RateLimit.Requests > 0 {
		h.Limiter = middleware.NewRateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window, clock)
		go h.Limiter.RunCleanup(ctx)
	}

	go func() {
		if err := coord.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("[LiveCoordinator] Stopped: %v", err)
		}
	}()

	if cfg.UDP.Enabled {
		listener := newListener(cfg, samples, coord)
		go func() {
			if err := listener.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("[UDPListener] Stopped: %v", err)
			}
		}()
	}

	srv := &http.Server{
		Addr:    cfg.Server.Port,
		Handler: api.SetupRouter(cfg, h),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Server starting on port %s", cfg.Server.Port)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("failed to start server: %w", err)
	case <-ctx.Done():
	}

	log.Printf("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newListener(cfg *config.Config, store ingest.SampleStore, pub ingest.Publisher) *ingest.Listener {
	return ingest.NewListener(ingest.ListenerConfig{
		Address:     cfg.UDP.Address,
		RcvBuf:      cfg.UDP.ReadBuffer,
		LogInterval: cfg.UDP.LogInterval,
		Store:       store,
		Publisher:   pub,
		Verbose:     cfg.UDP.Verbose,
	})
}
