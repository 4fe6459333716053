package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tabledesk/internal/backend"
	"tabledesk/internal/config"
	"tabledesk/internal/console"
	"tabledesk/internal/domain"
	"tabledesk/internal/events"
	"tabledesk/internal/export"
	"tabledesk/internal/logging"
	"tabledesk/internal/metrics"
	"tabledesk/internal/models"
	"tabledesk/internal/refresh"
	"tabledesk/internal/repository"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func() { _ = closer.Close() })()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	redisClient := initRedis(cfg, &logger)
	if redisClient != nil {
		defer redisClient.Close()
	}

	store := initSnapshotStore(cfg, redisClient, &logger)
	apiClient := backend.NewClient(cfg.Backend, &logger)
	exporter := export.NewService(cfg.Exports, &logger)
	eventBus := events.NewEventBus()
	subscribeNotifications(eventBus, &logger)

	refresher := refresh.New(
		apiClient, store, eventBus,
		pushClient(cfg, redisClient), cfg.Refresh.PushChannel,
		cfg.Refresh.PollInterval(), refresh.DefaultRetryPolicy(), &logger,
	)
	go refresher.Start(ctx)

	startMetrics(ctx, cfg, &logger)

	server := console.NewServer(cfg.Console, store, apiClient, refresher, exporter, eventBus, &logger)
	go func() {
		if err := server.Start(); err != nil {
			logger.Error().Err(err).Msg("console server stopped")
		}
	}()

	logger.Info().
		Int("port", cfg.Console.Port).
		Str("backend", cfg.Backend.BaseURL).
		Msg("console started")

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = server.Shutdown(shutdownCtx)

	logger.Info().Msg("console stopped")
	return nil
}

func loadConfigAndLogger() (*config.Config, zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("init logger: %w", err)
	}
	logger := baseLogger.With().Str("component", "console-main").Logger()

	return cfg, logger, closer, nil
}

func initRedis(cfg *config.Config, logger *zerolog.Logger) *redis.Client {
	if !cfg.Redis.Enabled || cfg.Redis.Address == "" {
		return nil
	}

	redisClient := repository.NewRedisClient(cfg.Redis)
	if err := repository.Ping(context.Background(), redisClient); err != nil {
		logger.Warn().Err(err).Msg("redis connection failed, continuing without redis")
		return nil
	}

	logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	return redisClient
}

func initSnapshotStore(cfg *config.Config, redisClient *redis.Client, logger *zerolog.Logger) domain.SnapshotStore {
	memory := repository.NewMemorySnapshotStore(0)
	if redisClient == nil {
		return memory
	}

	primary := repository.NewRedisSnapshotStore(redisClient, models.SnapshotRedisTTL*time.Second)
	return repository.NewFailoverSnapshotStore(primary, memory, logger)
}

func pushClient(cfg *config.Config, redisClient *redis.Client) *redis.Client {
	if !cfg.Refresh.PushEnabled {
		return nil
	}
	return redisClient
}

// subscribeNotifications mirrors action outcomes into the log; this is the
// transient-notification feed a browser frontend would subscribe to.
func subscribeNotifications(bus *events.EventBus, logger *zerolog.Logger) {
	bus.Subscribe(events.EventActionFailed, func(event *events.Event) error {
		logger.Warn().RawJSON("payload", event.Payload).Msg("action failed")
		return nil
	})
	bus.Subscribe(events.EventActionSucceeded, func(event *events.Event) error {
		logger.Info().RawJSON("payload", event.Payload).Msg("action succeeded")
		return nil
	})
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}

	metrics.Register()
	port := cfg.Monitoring.PrometheusPort
	if port == 0 {
		port = 9090
	}
	go startMetricsServer(ctx, port, logger)
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
