package main

import (
	"context"
	"errors"
	"log/slog"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"github.com/spacesedan/komentar/config"
	"github.com/spacesedan/komentar/internal/clients"
	"github.com/spacesedan/komentar/internal/logging"
	"github.com/spacesedan/komentar/internal/streams"
)

var index streams.SessionIndex

var errIndexUnavailable = errors.New("[StreamHandler] search index is not configured")

// init runs once per cold start.
func init() {
	config.LoadEnv(config.AppEnv())
	cfg := config.Load()
	logging.InitLogger(cfg.LogLevel)

	search, err := clients.GetOpensearchClient(context.Background(), clients.OpensearchOptions{
		Env:         cfg.Env,
		Endpoint:    cfg.OpensearchEndpoint,
		Username:    cfg.OpensearchUsername,
		Password:    cfg.OpensearchPassword,
		AWSEndpoint: cfg.AWSOpensearchEndpoint,
		Region:      cfg.AWSRegion,
	})
	if err != nil {
		slog.Error("[StreamHandler] OpenSearch client unavailable", slog.String("error", err.Error()))
		return
	}
	index = search

	slog.Info("[StreamHandler] Initialization complete", slog.String("environment", cfg.Env))
}

// HandleRequest mirrors a batch of SearchSessions stream records into the
// search index. The first failure fails the batch so Lambda retries it.
func HandleRequest(ctx context.Context, event events.DynamoDBEvent) error {
	slog.Info("[StreamHandler] Received DynamoDB event", slog.Int("records", len(event.Records)))

	if index == nil {
		return errIndexUnavailable
	}

	for _, record := range event.Records {
		if err := streams.ProcessSessionRecord(ctx, record, index); err != nil {
			slog.Error("[StreamHandler] Failed to process record, failing batch",
				slog.String("event_id", record.EventID),
				slog.String("error", err.Error()))
			return err
		}
	}

	return nil
}

func main() {
	lambda.Start(HandleRequest)
}
