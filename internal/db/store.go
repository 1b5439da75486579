package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/spacesedan/komentar/config"
	"github.com/spacesedan/komentar/internal/clients"
	"github.com/spacesedan/komentar/internal/models"
)

const DEFAULT_HISTORY_LIMIT = 20

var ErrSessionNotFound = errors.New("session not found")

// Store persists analysis sessions together with their comments and videos.
type Store interface {
	SaveSession(ctx context.Context, keyword string, summary models.BatchSummary) (int64, error)
	SaveComments(ctx context.Context, sessionID int64, comments []models.CommentRecord) error
	SaveVideos(ctx context.Context, sessionID int64, videos []models.Video) error
	History(ctx context.Context, limit int) ([]models.Session, error)
	SessionDetail(ctx context.Context, sessionID int64) (models.SessionDetail, error)
	SessionComments(ctx context.Context, sessionID int64) ([]models.CommentRecord, error)
	DeleteSession(ctx context.Context, sessionID int64) error
	Close() error
}

// Open returns the store selected by cfg.StoreDriver.
func Open(ctx context.Context, cfg config.Config) (Store, error) {
	switch cfg.StoreDriver {
	case config.STORE_SQLITE, "":
		return OpenSQLite(ctx, cfg.SQLitePath)
	case config.STORE_POSTGRES:
		pg, err := clients.GetPostgresClient(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		store := NewPostgresStore(pg.DB)
		if err := store.Migrate(ctx); err != nil {
			return nil, err
		}
		return store, nil
	case config.STORE_DYNAMODB:
		client, err := clients.GetDynamoDBClient(ctx, cfg.AWSRegion, cfg.AWSEndpoint)
		if err != nil {
			return nil, err
		}
		return NewDynamoStore(client), nil
	default:
		return nil, fmt.Errorf("[DB] unknown store driver %q", cfg.StoreDriver)
	}
}

func historyLimit(limit int) int {
	if limit <= 0 {
		return DEFAULT_HISTORY_LIMIT
	}
	return limit
}
