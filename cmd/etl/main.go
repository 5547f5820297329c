package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	httpadapter "github.com/couchcryptid/pandemic-map-etl/internal/adapter/http"
	"github.com/couchcryptid/pandemic-map-etl/internal/adapter/csvsource"
	kafkaadapter "github.com/couchcryptid/pandemic-map-etl/internal/adapter/kafka"
	"github.com/couchcryptid/pandemic-map-etl/internal/adapter/mapbox"
	"github.com/couchcryptid/pandemic-map-etl/internal/config"
	"github.com/couchcryptid/pandemic-map-etl/internal/domain"
	"github.com/couchcryptid/pandemic-map-etl/internal/observability"
	"github.com/couchcryptid/pandemic-map-etl/internal/pipeline"
)

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	// Initialize geocoder (feature-flagged via MAPBOX_ENABLED / MAPBOX_TOKEN).
	var geocoder domain.Geocoder
	if cfg.MapboxEnabled {
		client := mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, metrics, logger)
		geocoder = mapbox.NewCachedGeocoder(client, cfg.MapboxCacheSize, metrics)
		logger.Info("mapbox geocoding enabled", "cache_size", cfg.MapboxCacheSize, "timeout", cfg.MapboxTimeout)
	} else {
		logger.Info("mapbox geocoding disabled")
	}

	// Kafka publishing is optional; the API serves the bundle either way.
	var (
		loader pipeline.BatchLoader
		writer *kafkaadapter.Writer
	)
	if cfg.KafkaEnabled {
		writer = kafkaadapter.NewWriter(cfg, logger)
		loader = writer
		logger.Info("kafka publishing enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaSinkTopic)
	}

	transformer := pipeline.NewTransformer(geocoder, logger, metrics)
	p := pipeline.New(csvsource.Source{}, transformer, loader, pipeline.SourcesFromConfig(cfg), logger, metrics)

	api := httpadapter.NewAPI(p, httpadapter.APIConfig{TopK: cfg.TopK, JitterSeed: cfg.JitterSeed}, metrics, logger)
	srv := httpadapter.NewServer(cfg.HTTPAddr, cfg.CORSOrigins, p, api, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Build the bundle. Readiness flips once the tables are loaded.
	go func() {
		if err := p.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("pipeline error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
