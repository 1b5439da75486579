package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spacesedan/komentar/config"
	"github.com/spacesedan/komentar/internal/clients"
	"github.com/spacesedan/komentar/internal/clients/kafka_client"
	"github.com/spacesedan/komentar/internal/ingest"
	"github.com/spacesedan/komentar/internal/logging"
	"github.com/spacesedan/komentar/internal/models"
)

const (
	SOURCE_FILE  = "file"
	SOURCE_APIFY = "apify"
)

type ProducerConfig struct {
	file        string
	videoURL    string
	keyword     string
	maxComments int
	interval    time.Duration
}

// Deduplicator remembers which comments were already published.
type Deduplicator interface {
	IsProcessed(ctx context.Context, source string, key string) bool
	MarkProcessed(ctx context.Context, source string, key string) error
}

type publishFunc func(ctx context.Context, topic string, key string, value any) error

func main() {
	var pc ProducerConfig
	flag.StringVar(&pc.file, "file", "", "publish comments read from a .txt, .csv, .json or .md file")
	flag.StringVar(&pc.videoURL, "url", "", "publish comments scraped from a TikTok video")
	flag.StringVar(&pc.keyword, "keyword", "", "keyword the comments are grouped under")
	flag.IntVar(&pc.maxComments, "max", clients.DEFAULT_MAX_COMMENTS, "maximum comments to scrape")
	flag.DurationVar(&pc.interval, "interval", 0, "repeat the run on this interval, 0 runs once")
	flag.Parse()

	config.LoadEnv(config.AppEnv())
	cfg := config.Load()
	logging.InitLogger(cfg.LogLevel)

	if (pc.file == "") == (pc.videoURL == "") {
		slog.Error("[Main] Exactly one of -file or -url is required")
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fetch, source, err := newFetcher(cfg, pc)
	if err != nil {
		slog.Error("[Main] Failed to set up source", slog.String("error", err.Error()))
		os.Exit(1)
	}

	for {
		err := kafka_client.InitProducer(kafka_client.GetKafkaConfig())
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

	var dedup Deduplicator
	if cfg.ValkeyAddress != "" {
		vc, err := clients.InitValkey(clients.ValkeyOptions{
			Address:  cfg.ValkeyAddress,
			Password: cfg.ValkeyPassword,
			TLS:      cfg.ValkeyTLS,
		})
		if err != nil {
			slog.Warn("[Main] Valkey unavailable, comments will not be deduplicated",
				slog.String("error", err.Error()))
		} else {
			dedup = vc
			defer clients.CloseValkey()
		}
	}

	run := func() {
		comments, err := fetch(ctx)
		if err != nil {
			slog.Error("[Main] Failed to fetch comments", slog.String("error", err.Error()))
			return
		}
		publishComments(ctx, comments, source, dedup, kafka_client.PublishToKafka)
	}

	run()
	if pc.interval <= 0 {
		return
	}

	ticker := time.NewTicker(pc.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			run()
		case <-ctx.Done():
			slog.Info("[Main] Shutting down producer gracefully...")
			return
		}
	}
}

func newFetcher(cfg config.Config, pc ProducerConfig) (func(context.Context) ([]models.Comment, error), string, error) {
	if pc.file != "" {
		return func(context.Context) ([]models.Comment, error) {
			return ingest.ReadFile(pc.file, pc.keyword)
		}, SOURCE_FILE, nil
	}

	apify, err := clients.NewApifyClient(cfg.ApifyToken, cfg.ApifyBaseURL, cfg.ApifyActorID, cfg.ApifyTimeout)
	if err != nil {
		return nil, "", err
	}
	return func(ctx context.Context) ([]models.Comment, error) {
		result, err := apify.ScrapeComments(ctx, pc.videoURL, pc.maxComments)
		if err != nil {
			return nil, err
		}
		if len(result.Comments) == 0 {
			return nil, errors.New("no comments found for this video")
		}
		for i := range result.Comments {
			result.Comments[i].Keyword = pc.keyword
		}
		return result.Comments, nil
	}, SOURCE_APIFY, nil
}

// publishComments sends every comment not yet seen to the raw comments topic,
// keyed by its deterministic key. A comment is marked only after it was
// published.
func publishComments(ctx context.Context, comments []models.Comment, source string, dedup Deduplicator, publish publishFunc) (published int, skipped int) {
	for _, comment := range comments {
		key := comment.Key()
		if dedup != nil && dedup.IsProcessed(ctx, source, key) {
			skipped++
			continue
		}

		if err := publish(ctx, kafka_client.KAFKA_TOPIC_COMMENTS_RAW, key, comment); err != nil {
			slog.Error("[Main] Failed to publish comment",
				slog.String("key", key),
				slog.String("error", err.Error()))
			continue
		}
		published++

		if dedup != nil {
			if err := dedup.MarkProcessed(ctx, source, key); err != nil {
				slog.Warn("[Main] Failed to mark comment processed",
					slog.String("key", key),
					slog.String("error", err.Error()))
			}
		}
	}

	slog.Info("[Main] Published comments",
		slog.String("source", source),
		slog.Int("published", published),
		slog.Int("skipped", skipped))
	return published, skipped
}
