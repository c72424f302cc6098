package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/resonance-continuum/internal/adapter/feeds"
	httpadapter "github.com/couchcryptid/resonance-continuum/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/resonance-continuum/internal/adapter/kafka"
	"github.com/couchcryptid/resonance-continuum/internal/cache"
	"github.com/couchcryptid/resonance-continuum/internal/config"
	"github.com/couchcryptid/resonance-continuum/internal/domain"
	"github.com/couchcryptid/resonance-continuum/internal/observability"
	"github.com/couchcryptid/resonance-continuum/internal/pipeline"
	"github.com/couchcryptid/resonance-continuum/internal/repository"
)

func main() {
	// A missing .env is fine; the environment alone is enough.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := sharedobs.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()
	clock := clockwork.NewRealClock()

	client := feeds.NewClient(cfg.FeedTimeout, cfg.FeedRetries, logger, metrics)
	src := pipeline.Sources{
		SpaceWeather: feeds.NewNOAA(client, cfg.GeomagURL, cfg.SolarWindURL),
		Seismic:      feeds.NewINGV(client, cfg.INGVURL, clock),
	}
	if cfg.CMEEnabled {
		src.CME = feeds.NewDONKI(client, cfg.DONKIURL, cfg.NASAAPIKey, clock)
		logger.Info("cme feed enabled")
	} else {
		logger.Info("cme feed disabled")
	}

	synth, err := domain.NewSynthesizer(cfg.SynthProfile, cfg.SynthSeed)
	if err != nil {
		logger.Error("invalid synthetic profile", "error", err)
		os.Exit(1)
	}
	cycle := pipeline.NewCycle(src, cache.New(clock, metrics), cfg.FeedTTL, synth, domain.NewEngine(cfg.SynthSeed), clock, logger, metrics)

	var (
		sinks   []pipeline.Sink
		writer  *kafkaadapter.Writer
		archive *repository.SQLiteArchive
		history httpadapter.Archive
	)
	if cfg.KafkaEnabled() {
		writer = kafkaadapter.NewWriter(cfg, logger)
		sinks = append(sinks, writer)
		logger.Info("kafka sink enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}
	if cfg.ArchiveEnabled() {
		archive, err = repository.NewSQLiteArchive(cfg.ArchivePath)
		if err != nil {
			logger.Error("failed to open archive", "path", cfg.ArchivePath, "error", err)
			os.Exit(1)
		}
		sinks = append(sinks, archive)
		history = archive
		logger.Info("snapshot archive enabled", "path", cfg.ArchivePath)
	}

	runner, err := pipeline.NewRunner(cycle, cfg.RefreshInterval, cfg.PsiDefault, sinks, logger, metrics)
	if err != nil {
		logger.Error("failed to create runner", "error", err)
		os.Exit(1)
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, runner, history, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		logger.Info("http server listening", "addr", cfg.HTTPAddr)
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start refresh loop.
	runDone := make(chan struct{})
	go func() {
		defer close(runDone)
		if err := runner.Run(ctx); err != nil {
			logger.Error("runner error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	select {
	case <-runDone:
	case <-shutdownCtx.Done():
		logger.Warn("runner did not stop before shutdown timeout")
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}
	if archive != nil {
		if err := archive.Close(); err != nil {
			logger.Error("archive close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
