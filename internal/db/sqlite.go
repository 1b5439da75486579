package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/spacesedan/komentar/internal/models"
)

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS search_sessions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		keyword TEXT NOT NULL,
		total_comments INTEGER DEFAULT 0,
		positive_count INTEGER DEFAULT 0,
		negative_count INTEGER DEFAULT 0,
		neutral_count INTEGER DEFAULT 0,
		avg_sentiment_score REAL DEFAULT 0,
		created_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS comments (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id INTEGER NOT NULL,
		video_url TEXT,
		username TEXT,
		comment_text TEXT,
		cleaned_text TEXT,
		sentiment_score REAL,
		sentiment_label TEXT,
		created_at TEXT NOT NULL,
		FOREIGN KEY (session_id) REFERENCES search_sessions(id)
	)`,
	`CREATE TABLE IF NOT EXISTS videos (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id INTEGER NOT NULL,
		video_url TEXT,
		video_title TEXT,
		author TEXT,
		likes_count INTEGER DEFAULT 0,
		comments_count INTEGER DEFAULT 0,
		created_at TEXT NOT NULL,
		FOREIGN KEY (session_id) REFERENCES search_sessions(id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_comments_session ON comments(session_id)`,
	`CREATE INDEX IF NOT EXISTS idx_videos_session ON videos(session_id)`,
}

type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path and applies the
// schema. ":memory:" gives a private in-memory database.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("[SQLite] failed to create data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("[SQLite] failed to open %s: %w", path, err)
	}
	// One connection keeps writes serialized and an in-memory database alive.
	db.SetMaxOpenConns(1)

	for _, stmt := range sqliteSchema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("[SQLite] failed to apply schema: %w", err)
		}
	}

	slog.Info("[SQLite] Database ready", slog.String("path", path))
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveSession(ctx context.Context, keyword string, summary models.BatchSummary) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO search_sessions
		(keyword, total_comments, positive_count, negative_count, neutral_count, avg_sentiment_score, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		keyword, summary.Total, summary.PositiveCount, summary.NegativeCount,
		summary.NeutralCount, summary.AvgScore, formatTime(time.Now()))
	if err != nil {
		return 0, fmt.Errorf("[SQLite] failed to save session: %w", err)
	}
	return res.LastInsertId()
}

func (s *SQLiteStore) SaveComments(ctx context.Context, sessionID int64, comments []models.CommentRecord) error {
	if len(comments) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO comments
		(session_id, video_url, username, comment_text, cleaned_text, sentiment_score, sentiment_label, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := formatTime(time.Now())
	for _, c := range comments {
		label := c.SentimentLabel
		if label == "" {
			label = models.LabelNeutral
		}
		if _, err := stmt.ExecContext(ctx, sessionID, c.VideoURL, c.Username, c.CommentText,
			c.CleanedText, c.SentimentScore, string(label), now); err != nil {
			return fmt.Errorf("[SQLite] failed to save comment: %w", err)
		}
	}

	return tx.Commit()
}

func (s *SQLiteStore) SaveVideos(ctx context.Context, sessionID int64, videos []models.Video) error {
	if len(videos) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO videos
		(session_id, video_url, video_title, author, likes_count, comments_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := formatTime(time.Now())
	for _, v := range videos {
		if _, err := stmt.ExecContext(ctx, sessionID, v.VideoURL, v.VideoTitle, v.Author,
			v.LikesCount, v.CommentsCount, now); err != nil {
			return fmt.Errorf("[SQLite] failed to save video: %w", err)
		}
	}

	return tx.Commit()
}

func (s *SQLiteStore) History(ctx context.Context, limit int) ([]models.Session, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, keyword, total_comments, positive_count, negative_count,
		       neutral_count, avg_sentiment_score, created_at
		FROM search_sessions
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, historyLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("[SQLite] failed to query history: %w", err)
	}
	defer rows.Close()

	sessions := []models.Session{}
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	return sessions, rows.Err()
}

func (s *SQLiteStore) SessionDetail(ctx context.Context, sessionID int64) (models.SessionDetail, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, keyword, total_comments, positive_count, negative_count,
		       neutral_count, avg_sentiment_score, created_at
		FROM search_sessions WHERE id = ?`, sessionID)

	session, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.SessionDetail{}, ErrSessionNotFound
	}
	if err != nil {
		return models.SessionDetail{}, err
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

func (s *SQLiteStore) SessionComments(ctx context.Context, sessionID int64) ([]models.CommentRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_id, video_url, username, comment_text, cleaned_text,
		       sentiment_score, sentiment_label, created_at
		FROM comments WHERE session_id = ? ORDER BY id`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("[SQLite] failed to query comments: %w", err)
	}
	defer rows.Close()

	comments := []models.CommentRecord{}
	for rows.Next() {
		var c models.CommentRecord
		var label, createdAt string
		if err := rows.Scan(&c.ID, &c.SessionID, &c.VideoURL, &c.Username, &c.CommentText,
			&c.CleanedText, &c.SentimentScore, &label, &createdAt); err != nil {
			return nil, err
		}
		c.SentimentLabel = models.Label(label)
		c.CreatedAt = parseTime(createdAt)
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

func (s *SQLiteStore) sessionVideos(ctx context.Context, sessionID int64) ([]models.Video, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_id, video_url, video_title, author, likes_count, comments_count, created_at
		FROM videos WHERE session_id = ? ORDER BY id`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("[SQLite] failed to query videos: %w", err)
	}
	defer rows.Close()

	videos := []models.Video{}
	for rows.Next() {
		var v models.Video
		var createdAt string
		if err := rows.Scan(&v.ID, &v.SessionID, &v.VideoURL, &v.VideoTitle, &v.Author,
			&v.LikesCount, &v.CommentsCount, &createdAt); err != nil {
			return nil, err
		}
		v.CreatedAt = parseTime(createdAt)
		videos = append(videos, v)
	}
	return videos, rows.Err()
}

// DeleteSession removes a session and everything recorded under it.
func (s *SQLiteStore) DeleteSession(ctx context.Context, sessionID int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM comments WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("[SQLite] failed to delete comments: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM videos WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("[SQLite] failed to delete videos: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM search_sessions WHERE id = ?`, sessionID)
	if err != nil {
		return fmt.Errorf("[SQLite] failed to delete session: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrSessionNotFound
	}

	return tx.Commit()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(row scanner) (models.Session, error) {
	var s models.Session
	var createdAt string
	err := row.Scan(&s.ID, &s.Keyword, &s.TotalComments, &s.PositiveCount, &s.NegativeCount,
		&s.NeutralCount, &s.AvgSentimentScore, &createdAt)
	if err != nil {
		return s, err
	}
	s.CreatedAt = parseTime(createdAt)
	return s, nil
}

// Timestamps are stored as fixed-width UTC text so they sort chronologically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(raw string) time.Time {
	t, err := time.Parse(timeLayout, raw)
	if err != nil {
		return time.Time{}
	}
	return t
}
