package models

import "time"

// CommentDocument is the search index form of an analyzed comment.
type CommentDocument struct {
	SessionID int64     `json:"session_id"`
	Keyword   string    `json:"keyword"`
	IndexedAt time.Time `json:"indexed_at"`
	AnalysisResult
}
