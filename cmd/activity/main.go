package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"msigwallet/internal/application"
	"msigwallet/internal/config"
	"msigwallet/internal/infrastructure/journal"
	"msigwallet/internal/infrastructure/kafka"
	"msigwallet/internal/infrastructure/logging"
	"msigwallet/internal/infrastructure/telemetry"
	"msigwallet/internal/interfaces/httpapi"
)

var version = "dev"

func main() {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		slog.Error("config error", "err", err)
		os.Exit(1)
	}

	logCfg := logging.Config(cfg.Log)
	if logCfg.File == "" {
		logCfg.File = "logs/activity.log"
	}
	logCloser, err := logging.Init(logCfg)
	if err != nil {
		slog.Error("logger init error", "err", err)
	}
	if logCloser != nil {
		defer logCloser.Close()
	}

	if len(cfg.KafkaBrokers) == 0 {
		slog.Error("KAFKA_BROKERS is required for the activity consumer")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	shutdownTracing, err := telemetry.InitTracer(ctx, "msigwallet-activity", version, cfg.OtelEndpoint)
	if err != nil {
		slog.Warn("tracing init error", "err", err)
	} else {
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdownTracing(ctx); err != nil {
				slog.Warn("tracing shutdown error", "err", err)
			}
		}()
	}

	store, err := journal.Open(cfg, slog.Default())
	if err != nil {
		slog.Error("journal error", "err", err)
		os.Exit(1)
	}
	defer store.Close()
	if err := journal.PingWithTimeout(store, 5*time.Second); err != nil {
		slog.Error("journal not reachable", "err", err)
		os.Exit(1)
	}

	metrics := httpapi.NewMetrics()
	go serveMetrics(ctx, cfg.HTTPAddr, metrics)

	reader := kafka.NewReader(cfg.KafkaBrokers, cfg.KafkaTopic, cfg.KafkaGroupID)
	defer reader.Close()

	consumer := application.NewConsumer(reader, store, metrics, application.ConsumerConfig{})
	slog.Info("activity consumer started", "topic", cfg.KafkaTopic, "group", cfg.KafkaGroupID)
	if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("activity consumer stopped", "err", err)
		os.Exit(1)
	}
	slog.Info("activity consumer stopped")
}

func serveMetrics(ctx context.Context, addr string, metrics *httpapi.Metrics) {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", metrics.Handler())
	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Warn("metrics server error", "err", err)
	}
}
