// Package main serves life expectancy predictions over HTTP.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/your-org/lifexp-predictor/db/schema"
	"github.com/your-org/lifexp-predictor/internal/config"
	"github.com/your-org/lifexp-predictor/internal/http/handler"
	"github.com/your-org/lifexp-predictor/internal/predlog"
	"github.com/your-org/lifexp-predictor/internal/serving"
	"github.com/your-org/lifexp-predictor/pkg/logger"
)

func main() {
	// --- Configuration ---
	configPath := flag.String("config", "config/app_config.yaml", "Path to the configuration file")
	runMigrations := flag.Bool("migrate", false, "Apply database migrations before serving")
	flag.Parse()

	cfg, err := config.LoadConfigOrDefault(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// --- Logger ---
	logger.SetGlobalLogLevel(cfg.LogLevel)
	zapLogger := logger.NewZap(cfg.LogLevel)
	logger.Info("Life expectancy prediction server starting...")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Prediction Log (Optional) ---
	writer := newPredictionLog(ctx, cfg, *runMigrations, zapLogger)
	defer writer.Close()

	// --- Serving ---
	src := serving.NewSource(cfg.Bundle)
	if _, err := src.Load(ctx); err != nil {
		// Not fatal: the bundle may be written after the server starts.
		logger.Warnf("Bundle %s is not loadable yet: %v", cfg.Bundle.Path, err)
	}

	var validator *handler.RequestValidator
	if cfg.Server.ValidateRequests {
		validator, err = handler.NewRequestValidator()
		if err != nil {
			logger.Fatalf("Failed to initialize request validator: %v", err)
		}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := handler.NewMetrics(reg)

	predictHandler := handler.NewPredictHandler(serving.NewPredictor(src), validator, writer, metrics, zapLogger)
	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           handler.NewRouter(predictHandler, src, metrics),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Infof("Listening on %s (bundle %s, cache %t)", cfg.Server.Addr, cfg.Bundle.Path, bool(cfg.Bundle.Cache))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("HTTP server failed: %v", err)
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()
	logger.Info("Shutdown signal received, draining requests...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err = multierr.Combine(srv.Shutdown(shutdownCtx), zapLogger.Sync())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Shutdown finished with errors: %v\n", err)
	}
}

// newPredictionLog connects the audit log when it is enabled and a database
// is configured, and falls back to a NopWriter otherwise.
func newPredictionLog(ctx context.Context, cfg *config.Config, migrate bool, l *zap.Logger) predlog.Writer {
	if !cfg.PredictionLog.Enabled {
		return predlog.NopWriter{}
	}
	if !cfg.Database.Configured() {
		logger.Warn("Prediction log is enabled but no database is configured, disabling it.")
		return predlog.NopWriter{}
	}
	if migrate {
		if err := schema.Up(cfg.Database.URL()); err != nil {
			logger.Fatalf("Failed to apply migrations: %v", err)
		}
		logger.Info("Database migrations applied.")
	}
	pool, err := pgxpool.New(ctx, cfg.Database.URL())
	if err != nil {
		logger.Fatalf("Unable to connect to database: %v", err)
	}
	return predlog.NewPostgresWriter(pool, cfg.PredictionLog, l)
}
