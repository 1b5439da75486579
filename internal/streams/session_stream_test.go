package streams

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"

	"github.com/spacesedan/komentar/internal/models"
)

type fakeIndex struct {
	indexed []models.Session
	deleted []int64
	err     error
}

func (f *fakeIndex) IndexSession(_ context.Context, session models.Session) error {
	f.indexed = append(f.indexed, session)
	return f.err
}

func (f *fakeIndex) DeleteSession(_ context.Context, sessionID int64) error {
	f.deleted = append(f.deleted, sessionID)
	return f.err
}

func sessionImage() map[string]events.DynamoDBAttributeValue {
	return map[string]events.DynamoDBAttributeValue{
		"id":                  events.NewNumberAttribute("42"),
		"keyword":             events.NewStringAttribute("skincare"),
		"total_comments":      events.NewNumberAttribute("3"),
		"positive_count":      events.NewNumberAttribute("2"),
		"negative_count":      events.NewNumberAttribute("1"),
		"neutral_count":       events.NewNumberAttribute("0"),
		"avg_sentiment_score": events.NewNumberAttribute("0.21"),
		"created_at":          events.NewStringAttribute("2025-01-01T08:00:00Z"),
	}
}

func TestProcessSessionRecordInsert(t *testing.T) {
	index := &fakeIndex{}
	record := events.DynamoDBEventRecord{
		EventID:   "1",
		EventName: "INSERT",
		Change:    events.DynamoDBStreamRecord{NewImage: sessionImage()},
	}

	if err := ProcessSessionRecord(context.Background(), record, index); err != nil {
		t.Fatal(err)
	}

	if len(index.indexed) != 1 {
		t.Fatalf("indexed %d sessions, want 1", len(index.indexed))
	}
	got := index.indexed[0]
	want := models.Session{
		ID:                42,
		Keyword:           "skincare",
		TotalComments:     3,
		PositiveCount:     2,
		NegativeCount:     1,
		AvgSentimentScore: 0.21,
		CreatedAt:         time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC),
	}
	if got != want {
		t.Errorf("session = %+v, want %+v", got, want)
	}
}

func TestProcessSessionRecordRemove(t *testing.T) {
	index := &fakeIndex{}
	record := events.DynamoDBEventRecord{
		EventName: "REMOVE",
		Change: events.DynamoDBStreamRecord{
			Keys: map[string]events.DynamoDBAttributeValue{"id": events.NewNumberAttribute("42")},
		},
	}

	if err := ProcessSessionRecord(context.Background(), record, index); err != nil {
		t.Fatal(err)
	}
	if len(index.deleted) != 1 || index.deleted[0] != 42 || len(index.indexed) != 0 {
		t.Errorf("deleted %v, indexed %v", index.deleted, index.indexed)
	}
}

func TestProcessSessionRecordErrors(t *testing.T) {
	t.Run("missing image", func(t *testing.T) {
		record := events.DynamoDBEventRecord{EventName: "MODIFY"}
		if err := ProcessSessionRecord(context.Background(), record, &fakeIndex{}); !errors.Is(err, errNilImage) {
			t.Errorf("err = %v, want errNilImage", err)
		}
	})

	t.Run("index failure", func(t *testing.T) {
		index := &fakeIndex{err: errors.New("cluster red")}
		record := events.DynamoDBEventRecord{EventName: "INSERT", Change: events.DynamoDBStreamRecord{NewImage: sessionImage()}}
		if err := ProcessSessionRecord(context.Background(), record, index); err == nil {
			t.Error("expected the index error to be returned")
		}
	})

	t.Run("unknown event", func(t *testing.T) {
		index := &fakeIndex{}
		if err := ProcessSessionRecord(context.Background(), events.DynamoDBEventRecord{EventName: "TTL"}, index); err != nil {
			t.Fatal(err)
		}
		if len(index.indexed)+len(index.deleted) != 0 {
			t.Error("unknown events should be skipped")
		}
	})
}

func TestUnmarshalImageNested(t *testing.T) {
	image := map[string]events.DynamoDBAttributeValue{
		"tags": events.NewStringSetAttribute([]string{"a", "b"}),
		"meta": events.NewMapAttribute(map[string]events.DynamoDBAttributeValue{
			"ok":   events.NewBooleanAttribute(true),
			"nums": events.NewListAttribute([]events.DynamoDBAttributeValue{events.NewNumberAttribute("1"), events.NewNumberAttribute("2")}),
		}),
	}

	var out struct {
		Tags []string `dynamodbav:"tags,stringset"`
		Meta struct {
			OK   bool  `dynamodbav:"ok"`
			Nums []int `dynamodbav:"nums"`
		} `dynamodbav:"meta"`
	}
	if err := UnmarshalImage(image, &out); err != nil {
		t.Fatal(err)
	}
	if len(out.Tags) != 2 || !out.Meta.OK || len(out.Meta.Nums) != 2 || out.Meta.Nums[1] != 2 {
		t.Errorf("out = %+v", out)
	}
}
