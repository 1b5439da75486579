package processing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/spacesedan/komentar/internal/db"
	"github.com/spacesedan/komentar/internal/metrics"
	"github.com/spacesedan/komentar/internal/models"
	"github.com/spacesedan/komentar/internal/sentiment"
)

// Indexer mirrors analyzed sessions into a search backend.
type Indexer interface {
	IndexSession(ctx context.Context, session models.Session) error
	IndexComments(ctx context.Context, sessionID int64, keyword string, results []models.AnalysisResult) error
}

// Report is everything one analysis run produces.
type Report struct {
	SessionID       int64                               `json:"session_id,omitempty"`
	Keyword         string                              `json:"keyword"`
	Summary         models.BatchSummary                 `json:"summary"`
	Results         []models.AnalysisResult             `json:"results"`
	TopWords        []models.WordCount                  `json:"top_words"`
	TopWordsByLabel map[models.Label][]models.WordCount `json:"top_words_by_label"`
	Histogram       []models.HistogramBin               `json:"histogram"`
}

type Service struct {
	analyzer *sentiment.Analyzer
	store    db.Store
	indexer  Indexer
	// indexHealthy, when set, gates indexing on the search backend's health.
	indexHealthy *atomic.Bool
	metrics      *metrics.Metrics

	topN    int
	bins    int
	filters []sentiment.WordFilter
}

type Option func(*Service)

func WithIndexer(indexer Indexer, healthy *atomic.Bool) Option {
	return func(s *Service) {
		s.indexer = indexer
		s.indexHealthy = healthy
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithTopN(n int) Option {
	return func(s *Service) {
		s.topN = n
	}
}

func WithHistogramBins(bins int) Option {
	return func(s *Service) {
		if bins > 0 {
			s.bins = bins
		}
	}
}

func WithWordFilters(filters ...sentiment.WordFilter) Option {
	return func(s *Service) {
		s.filters = append(s.filters, filters...)
	}
}

// NewService wires the analyzer to an optional store. With a nil store runs
// are never persisted.
func NewService(analyzer *sentiment.Analyzer, store db.Store, opts ...Option) *Service {
	s := &Service{
		analyzer: analyzer,
		store:    store,
		topN:     sentiment.DEFAULT_TOP_N,
		bins:     sentiment.DEFAULT_HISTOGRAM_BINS,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type runConfig struct {
	persist  bool
	index    bool
	topN     int
	analyzer *sentiment.Analyzer
}

type RunOption func(*runConfig)

// SkipPersist analyzes without writing a session.
func SkipPersist() RunOption {
	return func(c *runConfig) {
		c.persist = false
	}
}

func SkipIndexing() RunOption {
	return func(c *runConfig) {
		c.index = false
	}
}

// UseThresholds classifies this run with t instead of the service's
// thresholds.
func UseThresholds(t sentiment.Thresholds) RunOption {
	return func(c *runConfig) {
		c.analyzer = c.analyzer.Clone(sentiment.WithThresholds(t))
	}
}

func UseTopN(n int) RunOption {
	return func(c *runConfig) {
		c.topN = n
	}
}

// Run analyzes comments, stores the session with its comments and videos and
// mirrors it to the search index. Indexing failures are logged and do not
// fail the run.
func (s *Service) Run(ctx context.Context, keyword string, comments []models.Comment, videos []models.Video, opts ...RunOption) (Report, error) {
	cfg := runConfig{persist: true, index: true, topN: s.topN, analyzer: s.analyzer}
	for _, opt := range opts {
		opt(&cfg)
	}

	start := time.Now()
	results := cfg.analyzer.AnalyzeComments(comments)
	report := s.buildReport(keyword, results, cfg.topN)
	s.metrics.ObserveResults(results)

	if cfg.persist && s.store != nil {
		sessionID, err := s.persist(ctx, keyword, report.Summary, results, videos)
		if err != nil {
			return report, err
		}
		report.SessionID = sessionID
		s.metrics.SessionSaved()

		if cfg.index && s.indexingEnabled() {
			s.index(ctx, report)
		}
	}

	elapsed := time.Since(start)
	s.metrics.ObserveRun(elapsed)

	slog.Info("[Processing] Analysis run finished",
		slog.String("keyword", keyword),
		slog.Int64("session_id", report.SessionID),
		slog.Int("comments", report.Summary.Total),
		slog.Float64("avg_score", report.Summary.AvgScore),
		slog.Duration("elapsed", elapsed))

	return report, nil
}

func (s *Service) persist(ctx context.Context, keyword string, summary models.BatchSummary, results []models.AnalysisResult, videos []models.Video) (int64, error) {
	sessionID, err := s.store.SaveSession(ctx, keyword, summary)
	if err != nil {
		return 0, fmt.Errorf("[Processing] failed to save session: %w", err)
	}

	records := make([]models.CommentRecord, len(results))
	for i, r := range results {
		records[i] = models.CommentRecordFromResult(r)
	}
	if err := s.store.SaveComments(ctx, sessionID, records); err != nil {
		s.discardSession(ctx, sessionID)
		return 0, fmt.Errorf("[Processing] failed to save comments: %w", err)
	}

	if err := s.store.SaveVideos(ctx, sessionID, videos); err != nil {
		s.discardSession(ctx, sessionID)
		return 0, fmt.Errorf("[Processing] failed to save videos: %w", err)
	}

	return sessionID, nil
}

// discardSession removes a partially written session so a retried run does
// not leave a duplicate behind.
func (s *Service) discardSession(ctx context.Context, sessionID int64) {
	if err := s.store.DeleteSession(context.WithoutCancel(ctx), sessionID); err != nil && !errors.Is(err, db.ErrSessionNotFound) {
		slog.Error("[Processing] Failed to remove partial session",
			slog.Int64("session_id", sessionID),
			slog.String("error", err.Error()))
	}
}

func (s *Service) indexingEnabled() bool {
	if s.indexer == nil {
		return false
	}
	return s.indexHealthy == nil || s.indexHealthy.Load()
}

func (s *Service) index(ctx context.Context, report Report) {
	session := models.NewSession(report.Keyword, report.Summary)
	session.ID = report.SessionID
	session.CreatedAt = time.Now().UTC()

	if err := s.indexer.IndexSession(ctx, session); err != nil {
		s.metrics.IndexFailed()
		slog.Warn("[Processing] Failed to index session",
			slog.Int64("session_id", report.SessionID),
			slog.String("error", err.Error()))
		return
	}

	if err := s.indexer.IndexComments(ctx, report.SessionID, report.Keyword, report.Results); err != nil {
		s.metrics.IndexFailed()
		slog.Warn("[Processing] Failed to index comments",
			slog.Int64("session_id", report.SessionID),
			slog.String("error", err.Error()))
	}
}

// SessionReport rebuilds the report of a stored session from its comments.
func (s *Service) SessionReport(ctx context.Context, sessionID int64) (models.SessionDetail, Report, error) {
	if s.store == nil {
		return models.SessionDetail{}, Report{}, db.ErrSessionNotFound
	}

	detail, err := s.store.SessionDetail(ctx, sessionID)
	if err != nil {
		return models.SessionDetail{}, Report{}, err
	}

	results := make([]models.AnalysisResult, len(detail.Comments))
	for i, c := range detail.Comments {
		results[i] = c.ToResult()
	}

	report := s.buildReport(detail.Session.Keyword, results, s.topN)
	report.SessionID = sessionID
	return detail, report, nil
}

func (s *Service) buildReport(keyword string, results []models.AnalysisResult, topN int) Report {
	byLabel := make(map[models.Label][]models.WordCount, 3)
	for _, label := range []models.Label{models.LabelPositive, models.LabelNegative, models.LabelNeutral} {
		byLabel[label] = sentiment.TopWords(results, label, topN, s.filters...)
	}

	return Report{
		Keyword:         keyword,
		Summary:         sentiment.Summarize(results),
		Results:         results,
		TopWords:        sentiment.TopWords(results, "", topN, s.filters...),
		TopWordsByLabel: byLabel,
		Histogram:       sentiment.ScoreHistogram(results, s.bins),
	}
}

// Analyzer exposes the analyzer so callers can run single-text analysis with
// the same lexicon and thresholds.
func (s *Service) Analyzer() *sentiment.Analyzer {
	return s.analyzer
}

func (s *Service) Store() db.Store {
	return s.store
}
