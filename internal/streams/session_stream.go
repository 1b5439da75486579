package streams

import (
	"context"
	"log/slog"

	"github.com/aws/aws-lambda-go/events"

	"github.com/spacesedan/komentar/internal/models"
)

// SessionIndex is the search side of the sessions table.
type SessionIndex interface {
	IndexSession(ctx context.Context, session models.Session) error
	DeleteSession(ctx context.Context, sessionID int64) error
}

// ProcessSessionRecord mirrors one change of the sessions table into the
// search index. Inserts and updates index the new image; removals delete the
// session and its comments using the old keys.
func ProcessSessionRecord(ctx context.Context, record events.DynamoDBEventRecord, index SessionIndex) error {
	switch events.DynamoDBOperationType(record.EventName) {
	case events.DynamoDBOperationTypeInsert, events.DynamoDBOperationTypeModify:
		var session models.Session
		if err := UnmarshalImage(record.Change.NewImage, &session); err != nil {
			slog.Error("[Streams] Failed to unmarshal session",
				slog.String("event_id", record.EventID),
				slog.String("error", err.Error()))
			return err
		}

		slog.Debug("[Streams] Indexing session",
			slog.String("event_id", record.EventID),
			slog.Int64("session_id", session.ID),
			slog.String("keyword", session.Keyword))
		return index.IndexSession(ctx, session)

	case events.DynamoDBOperationTypeRemove:
		var key struct {
			ID int64 `dynamodbav:"id"`
		}
		if err := UnmarshalImage(record.Change.Keys, &key); err != nil {
			slog.Error("[Streams] Failed to unmarshal removed session key",
				slog.String("event_id", record.EventID),
				slog.String("error", err.Error()))
			return err
		}
		return index.DeleteSession(ctx, key.ID)

	default:
		slog.Debug("[Streams] Skipping record",
			slog.String("event_id", record.EventID),
			slog.String("event_name", record.EventName))
		return nil
	}
}
