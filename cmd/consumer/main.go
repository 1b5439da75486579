package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/spacesedan/komentar/config"
	"github.com/spacesedan/komentar/internal/clients"
	"github.com/spacesedan/komentar/internal/clients/kafka_client"
	"github.com/spacesedan/komentar/internal/consumers"
	"github.com/spacesedan/komentar/internal/db"
	"github.com/spacesedan/komentar/internal/logging"
	"github.com/spacesedan/komentar/internal/metrics"
	"github.com/spacesedan/komentar/internal/monitoring"
	"github.com/spacesedan/komentar/internal/processing"
	"github.com/spacesedan/komentar/internal/utils"
)

func main() {
	config.LoadEnv(config.AppEnv())
	cfg := config.Load()
	logging.InitLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	kafkaCfg := kafka_client.GetKafkaConfig()

	// Results are produced under their own transactional id so this process
	// never fences the comment producer.
	producerCfg := kafkaCfg
	producerCfg.TransactionalID += "-results"
	for {
		err := kafka_client.InitProducer(producerCfg)
		if err == nil {
			break
		}

		slog.Warn("[Main] Kafka init failed, retrying...", slog.String("error", err.Error()))
		select {
		case <-ctx.Done():
			return
		case <-time.After(5 * time.Second):
		}
	}
	defer kafka_client.CloseProducer()

	store, err := db.Open(ctx, cfg)
	if err != nil {
		slog.Error("[Main] Failed to open store", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer store.Close()

	m := metrics.New()
	go serveMetrics(ctx, cfg.MetricsAddr, m)

	opts := append(processing.ConfigOptions(cfg), processing.WithMetrics(m))

	searchHealthy := &atomic.Bool{}
	search, err := clients.GetOpensearchClient(ctx, clients.OpensearchOptions{
		Env:         cfg.Env,
		Endpoint:    cfg.OpensearchEndpoint,
		Username:    cfg.OpensearchUsername,
		Password:    cfg.OpensearchPassword,
		AWSEndpoint: cfg.AWSOpensearchEndpoint,
		Region:      cfg.AWSRegion,
	})
	if err != nil {
		slog.Warn("[Main] OpenSearch unavailable, indexing disabled",
			slog.String("error", err.Error()))
	} else {
		opts = append(opts, processing.WithIndexer(search, nil))
		go monitoring.MonitorSearchHealth(ctx, search, searchHealthy)
	}

	service := processing.NewService(processing.AnalyzerFromConfig(cfg), store, opts...)
	commentConsumer := consumers.NewCommentConsumer(service, kafka_client.PublishToKafka, utils.BATCH_SIZE)

	kafka_client.RegisterConsumer(kafka_client.KAFKA_TOPIC_COMMENTS_RAW,
		consumers.WrapConsumer("comments", commentConsumer.Start).WithHealthCheck(searchHealthy).Handler())

	if err := kafka_client.StartConsumer(ctx, kafkaCfg); err != nil {
		slog.Error("[Main] Failed to start consumer",
			slog.String("error", err.Error()))
	}
}

func serveMetrics(ctx context.Context, addr string, m *metrics.Metrics) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	slog.Info("[Main] Serving metrics", slog.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("[Main] Metrics server failed", slog.String("error", err.Error()))
	}
}
