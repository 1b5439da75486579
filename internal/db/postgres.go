package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spacesedan/komentar/internal/models"
)

// Rows per multi-row INSERT. Keeps comment batches well under PostgreSQL's
// 65535 bind parameter limit.
const postgresInsertChunk = 1000

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS search_sessions (
		id BIGSERIAL PRIMARY KEY,
		keyword TEXT NOT NULL,
		total_comments INTEGER DEFAULT 0,
		positive_count INTEGER DEFAULT 0,
		negative_count INTEGER DEFAULT 0,
		neutral_count INTEGER DEFAULT 0,
		avg_sentiment_score DOUBLE PRECISION DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS comments (
		id BIGSERIAL PRIMARY KEY,
		session_id BIGINT NOT NULL REFERENCES search_sessions(id) ON DELETE CASCADE,
		video_url TEXT,
		username TEXT,
		comment_text TEXT,
		cleaned_text TEXT,
		sentiment_score DOUBLE PRECISION,
		sentiment_label TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS videos (
		id BIGSERIAL PRIMARY KEY,
		session_id BIGINT NOT NULL REFERENCES search_sessions(id) ON DELETE CASCADE,
		video_url TEXT,
		video_title TEXT,
		author TEXT,
		likes_count INTEGER DEFAULT 0,
		comments_count INTEGER DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_comments_session ON comments(session_id)`,
	`CREATE INDEX IF NOT EXISTS idx_videos_session ON videos(session_id)`,
}

type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: pool}
}

// Migrate creates the tables if they do not exist yet.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	for _, stmt := range postgresSchema {
		if _, err := s.db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("[Postgres] failed to apply schema: %w", err)
		}
	}
	slog.Info("[Postgres] Schema ready")
	return nil
}

func (s *PostgresStore) Close() error {
	s.db.Close()
	return nil
}

func (s *PostgresStore) SaveSession(ctx context.Context, keyword string, summary models.BatchSummary) (int64, error) {
	var id int64
	err := s.db.QueryRow(ctx, `
		INSERT INTO search_sessions
		(keyword, total_comments, positive_count, negative_count, neutral_count, avg_sentiment_score, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		RETURNING id`,
		keyword, summary.Total, summary.PositiveCount, summary.NegativeCount,
		summary.NeutralCount, summary.AvgScore).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("[Postgres] failed to save session: %w", err)
	}
	return id, nil
}

func (s *PostgresStore) SaveComments(ctx context.Context, sessionID int64, comments []models.CommentRecord) error {
	for start := 0; start < len(comments); start += postgresInsertChunk {
		end := min(start+postgresInsertChunk, len(comments))

		query, values := commentInsert(sessionID, comments[start:end])
		if _, err := s.db.Exec(ctx, query, values...); err != nil {
			return fmt.Errorf("[Postgres] failed to insert comments: %w", err)
		}
	}
	return nil
}

func commentInsert(sessionID int64, comments []models.CommentRecord) (string, []any) {
	query := `INSERT INTO comments (session_id, video_url, username, comment_text, cleaned_text, sentiment_score, sentiment_label, created_at) VALUES `

	values := []any{}
	placeholderParts := []string{}
	for i, c := range comments {
		offset := i * 7
		placeholderParts = append(placeholderParts, fmt.Sprintf("($%d, $%d, $%d, $%d, $%d, $%d, $%d, NOW())",
			offset+1, offset+2, offset+3, offset+4, offset+5, offset+6, offset+7))

		label := c.SentimentLabel
		if label == "" {
			label = models.LabelNeutral
		}
		values = append(values, sessionID, c.VideoURL, c.Username, c.CommentText,
			c.CleanedText, c.SentimentScore, string(label))
	}

	return query + strings.Join(placeholderParts, ", "), values
}

func (s *PostgresStore) SaveVideos(ctx context.Context, sessionID int64, videos []models.Video) error {
	for start := 0; start < len(videos); start += postgresInsertChunk {
		end := min(start+postgresInsertChunk, len(videos))

		query, values := videoInsert(sessionID, videos[start:end])
		if _, err := s.db.Exec(ctx, query, values...); err != nil {
			return fmt.Errorf("[Postgres] failed to insert videos: %w", err)
		}
	}
	return nil
}

func videoInsert(sessionID int64, videos []models.Video) (string, []any) {
	query := `INSERT INTO videos (session_id, video_url, video_title, author, likes_count, comments_count, created_at) VALUES `

	values := []any{}
	placeholderParts := []string{}
	for i, v := range videos {
		offset := i * 6
		placeholderParts = append(placeholderParts, fmt.Sprintf("($%d, $%d, $%d, $%d, $%d, $%d, NOW())",
			offset+1, offset+2, offset+3, offset+4, offset+5, offset+6))
		values = append(values, sessionID, v.VideoURL, v.VideoTitle, v.Author, v.LikesCount, v.CommentsCount)
	}

	return query + strings.Join(placeholderParts, ", "), values
}

func (s *PostgresStore) History(ctx context.Context, limit int) ([]models.Session, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, keyword, total_comments, positive_count, negative_count,
		       neutral_count, avg_sentiment_score, created_at
		FROM search_sessions
		ORDER BY created_at DESC, id DESC
		LIMIT $1`, historyLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("[Postgres] failed to query history: %w", err)
	}
	defer rows.Close()

	sessions := []models.Session{}
	for rows.Next() {
		var session models.Session
		if err := rows.Scan(&session.ID, &session.Keyword, &session.TotalComments, &session.PositiveCount,
			&session.NegativeCount, &session.NeutralCount, &session.AvgSentimentScore, &session.CreatedAt); err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	return sessions, rows.Err()
}

func (s *PostgresStore) SessionDetail(ctx context.Context, sessionID int64) (models.SessionDetail, error) {
	var session models.Session
	err := s.db.QueryRow(ctx, `
		SELECT id, keyword, total_comments, positive_count, negative_count,
		       neutral_count, avg_sentiment_score, created_at
		FROM search_sessions WHERE id = $1`, sessionID).
		Scan(&session.ID, &session.Keyword, &session.TotalComments, &session.PositiveCount,
			&session.NegativeCount, &session.NeutralCount, &session.AvgSentimentScore, &session.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.SessionDetail{}, ErrSessionNotFound
	}
	if err != nil {
		return models.SessionDetail{}, fmt.Errorf("[Postgres] failed to query session: %w", err)
	}

	comments, err := s.SessionComments(ctx, sessionID)
	if err != nil {
		return models.SessionDetail{}, err
	}

	videos, err := s.sessionVideos(ctx, sessionID)
	if err != nil {
		return models.SessionDetail{}, err
	}

	return models.SessionDetail{Session: session, Comments: comments, Videos: videos}, nil
}

func (s *PostgresStore) SessionComments(ctx context.Context, sessionID int64) ([]models.CommentRecord, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, session_id, video_url, username, comment_text, cleaned_text,
		       sentiment_score, sentiment_label, created_at
		FROM comments WHERE session_id = $1 ORDER BY id`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("[Postgres] failed to query comments: %w", err)
	}
	defer rows.Close()

	comments := []models.CommentRecord{}
	for rows.Next() {
		var c models.CommentRecord
		var label string
		if err := rows.Scan(&c.ID, &c.SessionID, &c.VideoURL, &c.Username, &c.CommentText,
			&c.CleanedText, &c.SentimentScore, &label, &c.CreatedAt); err != nil {
			return nil, err
		}
		c.SentimentLabel = models.Label(label)
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

func (s *PostgresStore) sessionVideos(ctx context.Context, sessionID int64) ([]models.Video, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, session_id, video_url, video_title, author, likes_count, comments_count, created_at
		FROM videos WHERE session_id = $1 ORDER BY id`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("[Postgres] failed to query videos: %w", err)
	}
	defer rows.Close()

	videos := []models.Video{}
	for rows.Next() {
		var v models.Video
		if err := rows.Scan(&v.ID, &v.SessionID, &v.VideoURL, &v.VideoTitle, &v.Author,
			&v.LikesCount, &v.CommentsCount, &v.CreatedAt); err != nil {
			return nil, err
		}
		videos = append(videos, v)
	}
	return videos, rows.Err()
}

func (s *PostgresStore) DeleteSession(ctx context.Context, sessionID int64) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM comments WHERE session_id = $1`, sessionID); err != nil {
		return fmt.Errorf("[Postgres] failed to delete comments: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM videos WHERE session_id = $1`, sessionID); err != nil {
		return fmt.Errorf("[Postgres] failed to delete videos: %w", err)
	}
	tag, err := tx.Exec(ctx, `DELETE FROM search_sessions WHERE id = $1`, sessionID)
	if err != nil {
		return fmt.Errorf("[Postgres] failed to delete session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrSessionNotFound
	}

	return tx.Commit(ctx)
}
