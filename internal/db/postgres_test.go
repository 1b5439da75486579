package db

import (
	"strings"
	"testing"

	"github.com/spacesedan/komentar/internal/models"
)

func TestCommentInsertPlaceholders(t *testing.T) {
	comments := []models.CommentRecord{
		{Username: "a", CommentText: "bagus", SentimentLabel: models.LabelPositive},
		{Username: "b", CommentText: "biasa"},
	}

	query, values := commentInsert(9, comments)

	if !strings.HasSuffix(query, "($1, $2, $3, $4, $5, $6, $7, NOW()), ($8, $9, $10, $11, $12, $13, $14, NOW())") {
		t.Errorf("unexpected placeholders in %q", query)
	}
	if len(values) != 14 {
		t.Fatalf("got %d values, want 14", len(values))
	}
	if values[0] != int64(9) || values[7] != int64(9) {
		t.Errorf("session id not bound per row: %v", values)
	}
	if values[13] != string(models.LabelNeutral) {
		t.Errorf("missing label bound as %v, want neutral", values[13])
	}
}

func TestVideoInsertPlaceholders(t *testing.T) {
	query, values := videoInsert(3, []models.Video{{VideoURL: "u", LikesCount: 5}})

	if !strings.HasSuffix(query, "($1, $2, $3, $4, $5, $6, NOW())") {
		t.Errorf("unexpected placeholders in %q", query)
	}
	if len(values) != 6 || values[4] != 5 {
		t.Errorf("values = %v", values)
	}
}
