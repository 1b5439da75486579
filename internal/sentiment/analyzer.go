package sentiment

import (
	"golang.org/x/sync/errgroup"

	"github.com/spacesedan/komentar/internal/lexicon"
	"github.com/spacesedan/komentar/internal/models"
	"github.com/spacesedan/komentar/internal/textclean"
)

const DEFAULT_WORKERS = 4

type Analyzer struct {
	scorer     *Scorer
	thresholds Thresholds
	workers    int
}

type Option func(*Analyzer)

func WithThresholds(t Thresholds) Option {
	return func(a *Analyzer) {
		a.thresholds = t
	}
}

// WithWorkers bounds the number of goroutines used by batch analysis.
// Values below 1 are ignored.
func WithWorkers(n int) Option {
	return func(a *Analyzer) {
		if n > 0 {
			a.workers = n
		}
	}
}

func NewAnalyzer(lex *lexicon.Lexicon, opts ...Option) *Analyzer {
	a := &Analyzer{
		scorer:     NewScorer(lex),
		thresholds: DefaultThresholds(),
		workers:    DEFAULT_WORKERS,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Clone copies the analyzer with opts applied. The scorer and its lexicon
// are shared.
func (a *Analyzer) Clone(opts ...Option) *Analyzer {
	c := *a
	for _, opt := range opts {
		opt(&c)
	}
	return &c
}

func (a *Analyzer) Thresholds() Thresholds {
	return a.thresholds
}

// Analyze scores and labels a single text.
func (a *Analyzer) Analyze(text string) models.AnalysisResult {
	cleaned := textclean.Clean(text, true)
	score := a.scorer.ScoreTokens(textclean.Tokenize(cleaned))

	return models.AnalysisResult{
		OriginalText:   text,
		CleanedText:    cleaned,
		SentimentScore: score,
		SentimentLabel: Classify(score, a.thresholds),
	}
}

// AnalyzeBatch analyzes texts on a bounded pool of goroutines. Result i
// always belongs to texts[i].
func (a *Analyzer) AnalyzeBatch(texts []string) []models.AnalysisResult {
	results := make([]models.AnalysisResult, len(texts))

	var g errgroup.Group
	g.SetLimit(a.workers)
	for i, text := range texts {
		i, text := i, text
		g.Go(func() error {
			results[i] = a.Analyze(text)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// AnalyzeComments analyzes comments and copies each comment's provenance onto
// its result.
func (a *Analyzer) AnalyzeComments(comments []models.Comment) []models.AnalysisResult {
	results := a.AnalyzeBatch(models.CommentTexts(comments))
	for i, c := range comments {
		results[i].Username = c.Username
		results[i].VideoURL = c.VideoURL
		results[i].LikesCount = c.LikesCount
		results[i].ReplyCount = c.ReplyCount
		results[i].CreatedAt = c.CreatedAt
	}
	return results
}
