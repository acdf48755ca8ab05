package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/anaemia-predictor/internal/adapter/geocoding"
	httpadapter "github.com/couchcryptid/anaemia-predictor/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/anaemia-predictor/internal/adapter/kafka"
	"github.com/couchcryptid/anaemia-predictor/internal/config"
	"github.com/couchcryptid/anaemia-predictor/internal/model"
	"github.com/couchcryptid/anaemia-predictor/internal/observability"
	"github.com/couchcryptid/anaemia-predictor/internal/pipeline"
	"github.com/couchcryptid/anaemia-predictor/internal/view"
	_ "go.uber.org/automaxprocs"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat, os.Stdout)
	metrics := observability.NewMetrics()

	geocoder, err := geocoding.New(cfg, logger, metrics)
	if err != nil {
		logger.Error("failed to build geocoder", "error", err)
		os.Exit(1)
	}

	// Prediction events are optional; a nil publisher turns them off.
	var publisher pipeline.EventPublisher
	var writer *kafkaadapter.Writer
	if cfg.EventsEnabled() {
		writer = kafkaadapter.NewWriter(cfg, metrics, logger)
		publisher = writer
		logger.Info("prediction events enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	} else {
		logger.Info("prediction events disabled")
	}

	models := model.NewFileSource(cfg.ModelPath, logger, metrics)
	if _, err := models.Model(context.Background()); err != nil {
		// Not fatal: /readyz reports it and predictions fail until the
		// artifact appears.
		logger.Warn("model artifact not loadable at startup", "path", cfg.ModelPath, "error", err)
	}

	p := pipeline.New(models, geocoder, publisher, logger, metrics)
	srv := httpadapter.NewServer(cfg.HTTPAddr, p, p, view.Theme(cfg.DefaultTheme), logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := models.Watch(ctx); err != nil {
		logger.Warn("model file watch disabled; changes are picked up on the next prediction", "error", err)
	}

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
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
