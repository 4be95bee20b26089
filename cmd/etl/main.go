package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/dengue-rainfall-etl/internal/adapter/file"
	"github.com/couchcryptid/dengue-rainfall-etl/internal/adapter/httpadapter"
	kafkaadapter "github.com/couchcryptid/dengue-rainfall-etl/internal/adapter/kafka"
	"github.com/couchcryptid/dengue-rainfall-etl/internal/adapter/postgres"
	"github.com/couchcryptid/dengue-rainfall-etl/internal/adapter/xlsx"
	"github.com/couchcryptid/dengue-rainfall-etl/internal/config"
	"github.com/couchcryptid/dengue-rainfall-etl/internal/observability"
	"github.com/couchcryptid/dengue-rainfall-etl/internal/pipeline"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/joho/godotenv"
)

func main() {
	os.Exit(run())
}

func run() int {
	// A missing .env is fine; the environment may already be set.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Error("failed to read .env", "error", err)
		return 1
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		return 1
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	incidence, err := file.Open(cfg.IncidencePath, 1, logger)
	if err != nil {
		logger.Error("failed to open incidence input", "path", cfg.IncidencePath, "error", err)
		return 1
	}
	defer incidence.Close()

	rainfall, err := file.Open(cfg.RainfallPath, 1, logger)
	if err != nil {
		logger.Error("failed to open rainfall input", "path", cfg.RainfallPath, "error", err)
		return 1
	}
	defer rainfall.Close()

	// Local writers run before the CSV shards so a workbook failure leaves no shards behind.
	var sinks []pipeline.Sink
	if cfg.OutputXLSX != "" {
		sinks = append(sinks, pipeline.Sink{Name: "xlsx", Loader: xlsx.NewWriter(cfg.OutputXLSX, logger)})
		logger.Info("xlsx sink enabled", "path", cfg.OutputXLSX)
	}
	sinks = append(sinks, pipeline.Sink{
		Name:   "file",
		Loader: file.NewWriter(cfg.OutputPrefix, cfg.OutputSuffix, cfg.OutputShards, logger),
	})
	var checks []sharedobs.ReadinessChecker

	if cfg.PostgresEnabled() {
		repo, err := postgres.Open(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			logger.Error("failed to connect to postgres", "error", err)
			return 1
		}
		defer func() {
			if err := repo.Close(); err != nil {
				logger.Error("postgres close error", "error", err)
			}
		}()
		if err := repo.EnsureSchema(ctx); err != nil {
			logger.Error("failed to create schema", "error", err)
			return 1
		}
		sinks = append(sinks, pipeline.Sink{Name: "postgres", Loader: repo})
		checks = append(checks, repo)
		logger.Info("postgres sink enabled")
	}

	if cfg.KafkaEnabled() {
		writer := kafkaadapter.NewWriter(cfg, logger)
		defer func() {
			if err := writer.Close(); err != nil {
				logger.Error("kafka writer close error", "error", err)
			}
		}()
		sinks = append(sinks, pipeline.Sink{Name: "kafka", Loader: writer})
		logger.Info("kafka sink enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaSinkTopic)
	}

	p := pipeline.New(incidence, rainfall, pipeline.NewMultiLoader(metrics, sinks...), logger, metrics, pipeline.Options{
		Workers:   cfg.Workers,
		BatchSize: cfg.BatchSize,
	})

	if cfg.HTTPAddr != "" {
		srv := httpadapter.NewServer(cfg.HTTPAddr, logger, append(checks, p)...)
		go func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("http server error", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error("http server shutdown error", "error", err)
			}
		}()
	}

	summary, err := p.Run(ctx)
	if err != nil {
		logger.Error("pipeline error", "error", err)
		return 1
	}

	attrs := []any{
		"run_id", summary.RunID,
		"rows", summary.Join.Joined,
		"total_rainfall", summary.TotalRainfall,
		"total_cases", summary.TotalCases,
	}
	if summary.Fit != nil {
		attrs = append(attrs, "cases_per_mm", summary.Fit.Slope)
	}
	logger.Info("job complete", attrs...)
	return 0
}
