package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/spacesedan/komentar/internal/models"
)

const (
	SESSIONS_TABLE_NAME = "SearchSessions"
	COMMENTS_TABLE_NAME = "Comments"
	VIDEOS_TABLE_NAME   = "Videos"

	maxBatchSize        = 25
	maxBatchRetries     = 3
	initialBatchBackoff = 500 * time.Millisecond
)

// DynamoAPI is the subset of the DynamoDB client used by DynamoStore.
type DynamoAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	BatchWriteItem(ctx context.Context, params *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// DynamoStore keeps sessions in one table and their comments and videos in
// tables keyed by (session_id, id).
type DynamoStore struct {
	client  DynamoAPI
	backoff time.Duration
	now     func() time.Time
}

func NewDynamoStore(client DynamoAPI) *DynamoStore {
	return &DynamoStore{
		client:  client,
		backoff: initialBatchBackoff,
		now:     time.Now,
	}
}

func (s *DynamoStore) Close() error {
	return nil
}

// nextID hands out time-based identifiers. Comment and video IDs are offset
// from it so the sort key follows insertion order.
func (s *DynamoStore) nextID() int64 {
	return s.now().UnixNano()
}

func (s *DynamoStore) SaveSession(ctx context.Context, keyword string, summary models.BatchSummary) (int64, error) {
	session := models.NewSession(keyword, summary)
	session.ID = s.nextID()
	session.CreatedAt = s.now().UTC()

	item, err := attributevalue.MarshalMap(session)
	if err != nil {
		return 0, fmt.Errorf("[DynamoDB] failed to marshal session: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(SESSIONS_TABLE_NAME),
		Item:      item,
	})
	if err != nil {
		return 0, fmt.Errorf("[DynamoDB] failed to save session: %w", err)
	}
	return session.ID, nil
}

func (s *DynamoStore) SaveComments(ctx context.Context, sessionID int64, comments []models.CommentRecord) error {
	if len(comments) == 0 {
		return nil
	}

	base := s.nextID()
	now := s.now().UTC()
	requests := make([]types.WriteRequest, 0, len(comments))
	for i, c := range comments {
		c.ID = base + int64(i)
		c.SessionID = sessionID
		c.CreatedAt = now
		if c.SentimentLabel == "" {
			c.SentimentLabel = models.LabelNeutral
		}

		item, err := attributevalue.MarshalMap(c)
		if err != nil {
			return fmt.Errorf("[DynamoDB] failed to marshal comment: %w", err)
		}
		requests = append(requests, types.WriteRequest{PutRequest: &types.PutRequest{Item: item}})
	}

	return s.batchWrite(ctx, COMMENTS_TABLE_NAME, requests)
}

func (s *DynamoStore) SaveVideos(ctx context.Context, sessionID int64, videos []models.Video) error {
	if len(videos) == 0 {
		return nil
	}

	base := s.nextID()
	now := s.now().UTC()
	requests := make([]types.WriteRequest, 0, len(videos))
	for i, v := range videos {
		v.ID = base + int64(i)
		v.SessionID = sessionID
		v.CreatedAt = now

		item, err := attributevalue.MarshalMap(v)
		if err != nil {
			return fmt.Errorf("[DynamoDB] failed to marshal video: %w", err)
		}
		requests = append(requests, types.WriteRequest{PutRequest: &types.PutRequest{Item: item}})
	}

	return s.batchWrite(ctx, VIDEOS_TABLE_NAME, requests)
}

// batchWrite sends requests in chunks of 25 and retries unprocessed items with
// exponential backoff.
func (s *DynamoStore) batchWrite(ctx context.Context, table string, requests []types.WriteRequest) error {
	for i := 0; i < len(requests); i += maxBatchSize {
		if err := ctx.Err(); err != nil {
			slog.Warn("[DynamoDB] context canceled")
			return err
		}

		end := min(i+maxBatchSize, len(requests))
		out, err := s.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
			RequestItems: map[string][]types.WriteRequest{
				table: requests[i:end],
			},
		})
		if err != nil {
			return fmt.Errorf("[DynamoDB] failed to batch write %s: %w", table, err)
		}

		retryCount := 0
		backoff := s.backoff
		for len(out.UnprocessedItems) > 0 && retryCount < maxBatchRetries {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2

			slog.Warn("[DynamoDB] Retrying unprocessed items...",
				slog.String("table", table),
				slog.Int("retry_attempt", retryCount+1),
				slog.Int("remaining_items", len(out.UnprocessedItems[table])))

			out, err = s.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
				RequestItems: out.UnprocessedItems,
			})
			if err != nil {
				return fmt.Errorf("[DynamoDB] failed to retry batch write: %w", err)
			}
			retryCount++
		}

		if remaining := len(out.UnprocessedItems[table]); remaining > 0 {
			slog.Error("[DynamoDB] Some items were not written even after retries",
				slog.String("table", table),
				slog.Int("remaining_items", remaining))
			return fmt.Errorf("[DynamoDB] %d items left unprocessed in %s", remaining, table)
		}
	}
	return nil
}

func (s *DynamoStore) History(ctx context.Context, limit int) ([]models.Session, error) {
	sessions := []models.Session{}

	paginator := dynamodb.NewScanPaginator(s.client, &dynamodb.ScanInput{
		TableName: aws.String(SESSIONS_TABLE_NAME),
	})
	for paginator.HasMorePages() {
		out, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("[DynamoDB] scan for sessions failed: %w", err)
		}
		var page []models.Session
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			return nil, fmt.Errorf("[DynamoDB] unable to unmarshal session page: %w", err)
		}
		sessions = append(sessions, page...)
	}

	sort.Slice(sessions, func(i, j int) bool {
		if !sessions[i].CreatedAt.Equal(sessions[j].CreatedAt) {
			return sessions[i].CreatedAt.After(sessions[j].CreatedAt)
		}
		return sessions[i].ID > sessions[j].ID
	})

	if n := historyLimit(limit); len(sessions) > n {
		sessions = sessions[:n]
	}
	return sessions, nil
}

func (s *DynamoStore) SessionDetail(ctx context.Context, sessionID int64) (models.SessionDetail, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(SESSIONS_TABLE_NAME),
		Key:       sessionKey(sessionID),
	})
	if err != nil {
		return models.SessionDetail{}, fmt.Errorf("[DynamoDB] failed to get session: %w", err)
	}
	if len(out.Item) == 0 {
		return models.SessionDetail{}, ErrSessionNotFound
	}

	var session models.Session
	if err := attributevalue.UnmarshalMap(out.Item, &session); err != nil {
		return models.SessionDetail{}, fmt.Errorf("[DynamoDB] unable to unmarshal session: %w", err)
	}

	comments, err := s.SessionComments(ctx, sessionID)
	if err != nil {
		return models.SessionDetail{}, err
	}

	videos := []models.Video{}
	if err := querySession(ctx, s, VIDEOS_TABLE_NAME, sessionID, &videos); err != nil {
		return models.SessionDetail{}, err
	}

	return models.SessionDetail{Session: session, Comments: comments, Videos: videos}, nil
}

func (s *DynamoStore) SessionComments(ctx context.Context, sessionID int64) ([]models.CommentRecord, error) {
	comments := []models.CommentRecord{}
	if err := querySession(ctx, s, COMMENTS_TABLE_NAME, sessionID, &comments); err != nil {
		return nil, err
	}
	return comments, nil
}

// querySession reads every item of table stored under sessionID, in sort key
// order, appending them to out.
func querySession[T any](ctx context.Context, s *DynamoStore, table string, sessionID int64, out *[]T) error {
	paginator := dynamodb.NewQueryPaginator(s.client, sessionQuery(table, sessionID))
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return fmt.Errorf("[DynamoDB] query on %s failed: %w", table, err)
		}
		var items []T
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &items); err != nil {
			return fmt.Errorf("[DynamoDB] unable to unmarshal %s page: %w", table, err)
		}
		*out = append(*out, items...)
	}
	return nil
}

func (s *DynamoStore) DeleteSession(ctx context.Context, sessionID int64) error {
	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:           aws.String(SESSIONS_TABLE_NAME),
		Key:                 sessionKey(sessionID),
		ConditionExpression: aws.String("attribute_exists(id)"),
	})
	var conditionFailed *types.ConditionalCheckFailedException
	if errors.As(err, &conditionFailed) {
		return ErrSessionNotFound
	}
	if err != nil {
		return fmt.Errorf("[DynamoDB] failed to delete session: %w", err)
	}

	for _, table := range []string{COMMENTS_TABLE_NAME, VIDEOS_TABLE_NAME} {
		if err := s.deleteChildren(ctx, table, sessionID); err != nil {
			return err
		}
	}
	return nil
}

func (s *DynamoStore) deleteChildren(ctx context.Context, table string, sessionID int64) error {
	query := sessionQuery(table, sessionID)
	query.ProjectionExpression = aws.String("session_id, id")

	requests := []types.WriteRequest{}
	paginator := dynamodb.NewQueryPaginator(s.client, query)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return fmt.Errorf("[DynamoDB] query on %s failed: %w", table, err)
		}
		for _, key := range page.Items {
			requests = append(requests, types.WriteRequest{DeleteRequest: &types.DeleteRequest{Key: key}})
		}
	}

	return s.batchWrite(ctx, table, requests)
}

func sessionKey(sessionID int64) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"id": &types.AttributeValueMemberN{Value: strconv.FormatInt(sessionID, 10)},
	}
}

func sessionQuery(table string, sessionID int64) *dynamodb.QueryInput {
	return &dynamodb.QueryInput{
		TableName:              aws.String(table),
		KeyConditionExpression: aws.String("session_id = :sid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":sid": &types.AttributeValueMemberN{Value: strconv.FormatInt(sessionID, 10)},
		},
		ScanIndexForward: aws.Bool(true),
	}
}
