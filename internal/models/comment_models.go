package models

import (
	"fmt"

	"github.com/google/uuid"
)

var commentNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/spacesedan/komentar/comments"))

// Comment is a raw comment as it arrives from an ingestion source.
type Comment struct {
	Keyword     string `json:"keyword,omitempty"`
	CommentText string `json:"comment_text"`
	Provenance
}

// Key is a stable identifier derived from the comment's origin and text, so
// the same comment scraped twice maps to the same key.
func (c Comment) Key() string {
	name := fmt.Sprintf("%s\x00%s\x00%s", c.VideoURL, c.Username, c.CommentText)
	return uuid.NewSHA1(commentNamespace, []byte(name)).String()
}

// ManualComments wraps plain texts the way manual entry does, naming the
// authors user_1..n.
func ManualComments(keyword string, texts []string) []Comment {
	comments := make([]Comment, 0, len(texts))
	for i, text := range texts {
		comments = append(comments, Comment{
			Keyword:     keyword,
			CommentText: text,
			Provenance: Provenance{
				Username: fmt.Sprintf("user_%d", i+1),
			},
		})
	}
	return comments
}

func CommentTexts(comments []Comment) []string {
	texts := make([]string, len(comments))
	for i, c := range comments {
		texts[i] = c.CommentText
	}
	return texts
}
