package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/hazard-monitor/internal/adapter/bmkg"
	httpadapter "github.com/couchcryptid/hazard-monitor/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/hazard-monitor/internal/adapter/kafka"
	"github.com/couchcryptid/hazard-monitor/internal/config"
	"github.com/couchcryptid/hazard-monitor/internal/notify"
	"github.com/couchcryptid/hazard-monitor/internal/observability"
	"github.com/couchcryptid/hazard-monitor/internal/pipeline"
	"github.com/couchcryptid/hazard-monitor/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, closeStore, err := newStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer closeStore()

	var channels []notify.Channel
	if cfg.SlackEnabled {
		channels = append(channels, notify.NewSlack(cfg.SlackWebhookURL, cfg.ChannelTimeout))
		logger.Info("slack notifications enabled")
	}
	if cfg.TelegramEnabled {
		channels = append(channels, notify.NewTelegram(cfg.TelegramToken, cfg.TelegramChatID, cfg.ChannelTimeout))
		logger.Info("telegram notifications enabled")
	}
	if len(channels) == 0 {
		logger.Warn("no notification channels enabled, new records are stored only")
	}
	dispatcher := notify.NewDispatcher(channels, logger, metrics)

	var publisher pipeline.Publisher
	if cfg.KafkaEnabled {
		kp := kafkaadapter.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer func() {
			if err := kp.Close(); err != nil {
				logger.Error("kafka publisher close error", "error", err)
			}
		}()
		publisher = kp
		logger.Info("kafka export enabled", "topic", cfg.KafkaTopic)
	}

	fetcher := bmkg.NewFetcher(cfg.RetryAttempts, cfg.RetryDelay, cfg.ConnectTimeout, cfg.RequestTimeout, logger, metrics)
	monitor := pipeline.New(cfg, fetcher, st, dispatcher, publisher, logger, metrics)
	scheduler := pipeline.NewScheduler(monitor, cfg.TickInterval, logger)

	srv := httpadapter.NewServer(cfg.HTTPAddr, monitor, logger)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	go func() {
		if err := scheduler.Run(ctx); err != nil {
			logger.Error("scheduler error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
}

// newStore opens the configured storage backend. The returned close function
// is a no-op for the in-memory store.
func newStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (store.Store, func(), error) {
	switch cfg.StoreDriver {
	case "postgres":
		pg, err := store.NewPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("postgres store ready")
		return pg, pg.Close, nil
	default:
		logger.Info("in-memory store ready, records do not survive restarts")
		return store.NewMemory(), func() {}, nil
	}
}
