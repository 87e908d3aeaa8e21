// cmd/meal-sync/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"meal-sync/internal/config"
	"meal-sync/internal/fitatu"
	"meal-sync/internal/httpclient"
	"meal-sync/internal/mealsync"
	"meal-sync/internal/observability"
	"meal-sync/internal/server"
	"meal-sync/internal/viking"
)

const appVersion = "1.0.0"

var (
	serve   = flag.Bool("serve", false, "Serve MCP tools over HTTP instead of running once")
	port    = flag.Int("port", 8011, "Port for HTTP transport")
	host    = flag.String("host", "0.0.0.0", "Host address")
	address = flag.String("address", "", "Address (alias for host)")
	envFile = flag.String("env-file", ".env", "Path to a .env file")
	version = flag.Bool("version", false, "Show version")
)

func main() {
	flag.Parse()

	if *version {
		fmt.Printf("meal-sync version %s\n", appVersion)
		os.Exit(0)
	}

	cfg, err := config.Load(config.WithEnvFile(*envFile))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := observability.NewLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	dates, err := cfg.Sync.Dates()
	if err != nil {
		logger.Fatal("invalid date selection", zap.Error(err))
	}

	syncer, err := newSyncer(cfg, logger)
	if err != nil {
		logger.Fatal("failed to build sync pipeline", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if !*serve {
		runOnce(ctx, logger, syncer, dates)
		return
	}

	// Use address if provided, otherwise use host
	hostAddr := *host
	if *address != "" {
		hostAddr = *address
	}

	srv, err := server.NewSyncServer(&server.Config{
		Host:         hostAddr,
		Port:         *port,
		Version:      appVersion,
		DefaultDates: dates,
	}, syncer, logger.Named("server"))
	if err != nil {
		logger.Fatal("failed to create server", zap.Error(err))
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(ctx); err != nil {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("received shutdown signal")
	case err := <-errCh:
		logger.Error("server error", zap.Error(err))
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		logger.Error("error during shutdown", zap.Error(err))
	}
}

func newSyncer(cfg config.Config, logger *zap.Logger) (*mealsync.Syncer, error) {
	vikingClient, err := viking.NewClient(cfg.Viking, logger.Named("viking"), httpclient.WithTimeout(cfg.HTTP.Timeout))
	if err != nil {
		return nil, err
	}
	fitatuClient, err := fitatu.NewClient(cfg.Fitatu, logger.Named("fitatu"), httpclient.WithTimeout(cfg.HTTP.Timeout))
	if err != nil {
		return nil, err
	}

	return mealsync.New(mealsync.Deps{
		Orders:  vikingClient,
		Tracker: fitatuClient,
		OrderID: cfg.Viking.OrderID,
		Mapping: cfg.Sync.MealMapping,
		Logger:  logger.Named("sync"),
	})
}

// runOnce syncs the configured dates. Per-date failures are logged and do not
// change the exit status.
func runOnce(ctx context.Context, logger *zap.Logger, syncer *mealsync.Syncer, dates []string) {
	logger.Info("starting sync", zap.Strings("dates", dates))
	report, err := syncer.Run(ctx, dates)
	if err != nil {
		logger.Error("sync aborted", zap.Error(err))
		return
	}
	logger.Info("sync finished",
		zap.Int("dates", len(report.Dates)),
		zap.Int("failed", report.Failed()),
	)
}
