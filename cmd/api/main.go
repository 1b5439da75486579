package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/spacesedan/komentar/config"
	"github.com/spacesedan/komentar/internal/clients"
	"github.com/spacesedan/komentar/internal/db"
	"github.com/spacesedan/komentar/internal/logging"
	"github.com/spacesedan/komentar/internal/metrics"
	"github.com/spacesedan/komentar/internal/monitoring"
	"github.com/spacesedan/komentar/internal/processing"
	"github.com/spacesedan/komentar/internal/server"
)

func main() {
	config.LoadEnv(config.AppEnv())
	cfg := config.Load()
	logging.InitLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := db.Open(ctx, cfg)
	if err != nil {
		slog.Error("[Main] Failed to open store", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer store.Close()

	m := metrics.New()
	opts := append(processing.ConfigOptions(cfg), processing.WithMetrics(m))

	if cfg.OpensearchEndpoint != "" || cfg.AWSOpensearchEndpoint != "" {
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
			searchHealthy := &atomic.Bool{}
			opts = append(opts, processing.WithIndexer(search, searchHealthy))
			go monitoring.MonitorSearchHealth(ctx, search, searchHealthy)
		}
	}

	service := processing.NewService(processing.AnalyzerFromConfig(cfg), store, opts...)

	srv := server.New(service,
		server.WithMetrics(m),
		server.WithScraper(func(token string) (server.Scraper, error) {
			if token == "" {
				token = cfg.ApifyToken
			}
			apify, err := clients.NewApifyClient(token, cfg.ApifyBaseURL, cfg.ApifyActorID, cfg.ApifyTimeout)
			if err != nil {
				return nil, err
			}
			return apify, nil
		}),
	)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("[Main] Shutdown failed", slog.String("error", err.Error()))
		}
	}()

	if err := srv.Listen(cfg.HTTPAddr); err != nil {
		slog.Error("[Main] Server stopped", slog.String("error", err.Error()))
	}
}
