package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/ocean-health-etl/internal/acquire"
	"github.com/couchcryptid/ocean-health-etl/internal/adapter/httpadapter"
	kafkaadapter "github.com/couchcryptid/ocean-health-etl/internal/adapter/kafka"
	"github.com/couchcryptid/ocean-health-etl/internal/adapter/noaa"
	"github.com/couchcryptid/ocean-health-etl/internal/adapter/postgres"
	"github.com/couchcryptid/ocean-health-etl/internal/adapter/reefatlas"
	"github.com/couchcryptid/ocean-health-etl/internal/adapter/s3archive"
	"github.com/couchcryptid/ocean-health-etl/internal/adapter/sqlite"
	"github.com/couchcryptid/ocean-health-etl/internal/config"
	"github.com/couchcryptid/ocean-health-etl/internal/dataset"
	"github.com/couchcryptid/ocean-health-etl/internal/ingest"
	"github.com/couchcryptid/ocean-health-etl/internal/model"
	"github.com/couchcryptid/ocean-health-etl/internal/observability"
	"github.com/couchcryptid/ocean-health-etl/internal/pipeline"
	"github.com/couchcryptid/ocean-health-etl/internal/scheduler"
	"github.com/prometheus/client_golang/prometheus"
)

// NOAA Coral Reef Watch daily product file names.
const (
	sstFilename = "coraltemp_v3.1_" + acquire.DateToken
	dhwFilename = "ct5km_dhw_v3.1_" + acquire.DateToken
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger, metrics); err != nil {
		logger.Error("pipeline failed", "error", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) error {
	decoder, err := dataset.ForFormat(cfg.DatasetFormat)
	if err != nil {
		return fmt.Errorf("DATASET_FORMAT: %w", err)
	}

	cache := acquire.NewCache(cfg.CacheDir)
	if err := cache.Ensure(); err != nil {
		return err
	}

	var archiver acquire.Archiver
	if cfg.ArchiveS3Bucket != "" {
		a, err := s3archive.New(ctx, s3archive.Config{
			Bucket:    cfg.ArchiveS3Bucket,
			Region:    cfg.ArchiveS3Region,
			Endpoint:  cfg.ArchiveS3Endpoint,
			PathStyle: cfg.ArchiveS3PathStyle,
			Prefix:    cfg.ArchiveS3Prefix,
		}, logger)
		if err != nil {
			return err
		}
		archiver = a
		logger.Info("cache archive enabled", "bucket", cfg.ArchiveS3Bucket)
	}

	gridClient := noaa.NewClient("noaa-grid", cfg.FetchTimeout, cfg.BreakerMaxFailures, logger)
	phClient := noaa.NewClient("noaa-ph", cfg.PHFetchTimeout, cfg.BreakerMaxFailures, logger)

	ext := "." + cfg.DatasetFormat
	locator := acquire.NewLocator(acquire.NewFetcher(gridClient, archiver, logger), cache, cfg.FetchWindowDays, logger, metrics)
	normalizer := ingest.NewNormalizer(locator, acquire.NewFetcher(phClient, archiver, logger), decoder, ingest.Sources{
		SST:         acquire.Resource{Name: "sst", BaseURL: cfg.SSTBaseURL, FilenameTemplate: sstFilename + ext, LocalPrefix: "sst"},
		DHW:         acquire.Resource{Name: "dhw", BaseURL: cfg.DHWBaseURL, FilenameTemplate: dhwFilename + ext, LocalPrefix: "dhw"},
		PHURL:       cfg.PHURL,
		PHLocalPath: cache.FixedPath("PH_latest", ext),
	}, logger, metrics)

	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	var reporter pipeline.RunReporter
	if len(cfg.KafkaBrokers) > 0 {
		writer := kafkaadapter.NewWriter(cfg, logger)
		defer func() {
			if err := writer.Close(); err != nil {
				logger.Error("kafka writer close error", "error", err)
			}
		}()
		reporter = writer
	}

	var atlas pipeline.ReefAtlas
	if cfg.ReefAtlasPath != "" {
		atlas = reefatlas.New(cfg.ReefAtlasPath, logger)
	}

	p := pipeline.New(normalizer, atlas, model.HoltForecaster{}, store, reporter, pipeline.Options{
		FastMode:                cfg.FastMode,
		MaxRowsFast:             cfg.MaxRowsFast,
		SampleSeed:              cfg.SampleSeed,
		ForecastMinObservations: cfg.ForecastMinObservations,
		ForecastSteps:           cfg.ForecastSteps,
		ReefMatchRadiusKm:       cfg.ReefMatchRadiusKm,
	}, logger, metrics)

	if cfg.MetricsAddr != "" {
		srv := httpadapter.NewServer(cfg.MetricsAddr, httpadapter.Checks{p, store}, p, prometheus.DefaultGatherer, logger)
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

	runOnce := func(ctx context.Context) error {
		_, err := p.Run(ctx)
		if pushErr := observability.Push(ctx, cfg.PushgatewayURL, prometheus.DefaultGatherer); pushErr != nil {
			logger.Warn("metrics push failed", "error", pushErr)
		}
		return err
	}

	if cfg.Schedule == "" {
		return runOnce(ctx)
	}

	sched := scheduler.New(cfg.Schedule, runOnce, logger)
	if err := sched.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	logger.Info("shutting down")
	sched.Stop()
	logger.Info("shutdown complete")
	return nil
}

type readyStore interface {
	pipeline.Store
	CheckReadiness(ctx context.Context) error
}

// openStore opens the configured persistence gateway and returns its cleanup.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (readyStore, func(), error) {
	switch cfg.StoreDriver {
	case "sqlite":
		s, err := sqlite.Open(cfg.SQLitePath, logger)
		if err != nil {
			return nil, nil, err
		}
		return s, func() {
			if err := s.Close(); err != nil {
				logger.Error("sqlite close error", "error", err)
			}
		}, nil
	default:
		s, err := postgres.Open(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	}
}
