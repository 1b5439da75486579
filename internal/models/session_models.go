package models

import "time"

type Session struct {
	ID                int64     `json:"id" dynamodbav:"id"`
	Keyword           string    `json:"keyword" dynamodbav:"keyword"`
	TotalComments     int       `json:"total_comments" dynamodbav:"total_comments"`
	PositiveCount     int       `json:"positive_count" dynamodbav:"positive_count"`
	NegativeCount     int       `json:"negative_count" dynamodbav:"negative_count"`
	NeutralCount      int       `json:"neutral_count" dynamodbav:"neutral_count"`
	AvgSentimentScore float64   `json:"avg_sentiment_score" dynamodbav:"avg_sentiment_score"`
	CreatedAt         time.Time `json:"created_at" dynamodbav:"created_at"`
}

// CommentRecord is the flat, persisted form of an AnalysisResult.
type CommentRecord struct {
	ID             int64     `json:"id" dynamodbav:"id"`
	SessionID      int64     `json:"session_id" dynamodbav:"session_id"`
	VideoURL       string    `json:"video_url" dynamodbav:"video_url"`
	Username       string    `json:"username" dynamodbav:"username"`
	CommentText    string    `json:"comment_text" dynamodbav:"comment_text"`
	CleanedText    string    `json:"cleaned_text" dynamodbav:"cleaned_text"`
	SentimentScore float64   `json:"sentiment_score" dynamodbav:"sentiment_score"`
	SentimentLabel Label     `json:"sentiment_label" dynamodbav:"sentiment_label"`
	CreatedAt      time.Time `json:"created_at" dynamodbav:"created_at"`
}

type Video struct {
	ID            int64     `json:"id" dynamodbav:"id"`
	SessionID     int64     `json:"session_id" dynamodbav:"session_id"`
	VideoURL      string    `json:"video_url" dynamodbav:"video_url"`
	VideoTitle    string    `json:"video_title" dynamodbav:"video_title"`
	Author        string    `json:"author" dynamodbav:"author"`
	LikesCount    int       `json:"likes_count" dynamodbav:"likes_count"`
	CommentsCount int       `json:"comments_count" dynamodbav:"comments_count"`
	CreatedAt     time.Time `json:"created_at" dynamodbav:"created_at"`
}

type SessionDetail struct {
	Session  Session         `json:"session"`
	Comments []CommentRecord `json:"comments"`
	Videos   []Video         `json:"videos"`
}

func NewSession(keyword string, summary BatchSummary) Session {
	return Session{
		Keyword:           keyword,
		TotalComments:     summary.Total,
		PositiveCount:     summary.PositiveCount,
		NegativeCount:     summary.NegativeCount,
		NeutralCount:      summary.NeutralCount,
		AvgSentimentScore: summary.AvgScore,
	}
}

func CommentRecordFromResult(result AnalysisResult) CommentRecord {
	return CommentRecord{
		VideoURL:       result.VideoURL,
		Username:       result.Username,
		CommentText:    result.OriginalText,
		CleanedText:    result.CleanedText,
		SentimentScore: result.SentimentScore,
		SentimentLabel: result.SentimentLabel,
	}
}

// ToResult rebuilds the analysis view of a stored comment, so summaries can be
// recomputed from history.
func (c CommentRecord) ToResult() AnalysisResult {
	return AnalysisResult{
		OriginalText:   c.CommentText,
		CleanedText:    c.CleanedText,
		SentimentScore: c.SentimentScore,
		SentimentLabel: c.SentimentLabel,
		Provenance: Provenance{
			Username: c.Username,
			VideoURL: c.VideoURL,
		},
	}
}

// SessionResult is published once a streamed batch has been analyzed.
type SessionResult struct {
	SessionID int64        `json:"session_id"`
	Keyword   string       `json:"keyword"`
	Summary   BatchSummary `json:"summary"`
	TopWords  []WordCount  `json:"top_words"`
}
