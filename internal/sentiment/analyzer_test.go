package sentiment

import (
	"fmt"
	"math"
	"testing"

	"github.com/spacesedan/komentar/internal/lexicon"
	"github.com/spacesedan/komentar/internal/models"
)

func TestAnalyze(t *testing.T) {
	analyzer := NewAnalyzer(testLexicon())

	got := analyzer.Analyze("Bagus banget produknya, recommended!")

	if got.OriginalText != "Bagus banget produknya, recommended!" {
		t.Errorf("original text = %q", got.OriginalText)
	}
	if got.CleanedText != "bagus banget produknya recommended" {
		t.Errorf("cleaned text = %q", got.CleanedText)
	}
	if got.SentimentScore <= 0.1 {
		t.Errorf("score = %v, want > 0.1", got.SentimentScore)
	}
	if got.SentimentLabel != models.LabelPositive {
		t.Errorf("label = %s, want positive", got.SentimentLabel)
	}
}

func TestAnalyzeScenarios(t *testing.T) {
	for _, lex := range []*lexicon.Lexicon{testLexicon(), lexicon.Default()} {
		analyzer := NewAnalyzer(lex)

		tests := []struct {
			text string
			want models.Label
		}{
			{"Bagus banget produknya, recommended!", models.LabelPositive},
			{"Jelek parah, nyesel beli", models.LabelNegative},
			{"Biasa aja sih menurutku", models.LabelNeutral},
			{"Worth it banget! Gak nyesel", models.LabelPositive},
			{"Zonk, gak sesuai ekspektasi", models.LabelNegative},
			{"", models.LabelNeutral},
		}

		for _, tt := range tests {
			if got := analyzer.Analyze(tt.text); got.SentimentLabel != tt.want {
				t.Errorf("Analyze(%q) = %s (%v), want %s", tt.text, got.SentimentLabel, got.SentimentScore, tt.want)
			}
		}
	}
}

func TestAnalyzerThresholdOverride(t *testing.T) {
	strict := NewAnalyzer(testLexicon(), WithThresholds(Thresholds{Positive: 0.5, Negative: -0.5}))

	got := strict.Analyze("Bagus banget produknya, recommended!")
	if got.SentimentLabel != models.LabelNeutral {
		t.Errorf("label = %s, want neutral under strict thresholds", got.SentimentLabel)
	}
	if strict.Thresholds().Positive != 0.5 {
		t.Errorf("thresholds not applied: %+v", strict.Thresholds())
	}
}

func TestAnalyzeBatchKeepsOrder(t *testing.T) {
	analyzer := NewAnalyzer(testLexicon(), WithWorkers(8))

	texts := make([]string, 200)
	for i := range texts {
		switch i % 3 {
		case 0:
			texts[i] = fmt.Sprintf("bagus %d kali", i)
		case 1:
			texts[i] = fmt.Sprintf("jelek %d kali", i)
		default:
			texts[i] = fmt.Sprintf("biasa %d kali", i)
		}
	}

	results := analyzer.AnalyzeBatch(texts)

	if len(results) != len(texts) {
		t.Fatalf("got %d results, want %d", len(results), len(texts))
	}
	for i, r := range results {
		if r.OriginalText != texts[i] {
			t.Fatalf("result %d belongs to %q, want %q", i, r.OriginalText, texts[i])
		}
	}
}

func TestAnalyzeBatchEmpty(t *testing.T) {
	if got := NewAnalyzer(testLexicon()).AnalyzeBatch(nil); len(got) != 0 {
		t.Errorf("got %d results for empty input", len(got))
	}
}

func TestAnalyzeCommentsCopiesProvenance(t *testing.T) {
	analyzer := NewAnalyzer(testLexicon())
	comments := []models.Comment{
		{
			CommentText: "Bagus!",
			Provenance: models.Provenance{
				Username:   "rina",
				VideoURL:   "https://www.tiktok.com/@toko/video/1",
				LikesCount: 12,
				ReplyCount: 3,
				CreatedAt:  "2024-05-01T10:00:00.000Z",
			},
		},
		{CommentText: "Jelek!"},
	}

	results := analyzer.AnalyzeComments(comments)

	if results[0].Provenance != comments[0].Provenance {
		t.Errorf("provenance = %+v, want %+v", results[0].Provenance, comments[0].Provenance)
	}
	if results[1].Username != "" || results[1].SentimentLabel != models.LabelNegative {
		t.Errorf("second result = %+v", results[1])
	}
}

func TestBatchSummaryScenario(t *testing.T) {
	analyzer := NewAnalyzer(testLexicon())

	summary := Summarize(analyzer.AnalyzeBatch([]string{"Bagus!", "Jelek!", "Biasa aja"}))

	if summary.Total != 3 {
		t.Fatalf("total = %d, want 3", summary.Total)
	}
	if summary.PositiveCount != 1 || summary.NegativeCount != 1 || summary.NeutralCount != 1 {
		t.Errorf("counts = %d/%d/%d, want 1/1/1",
			summary.PositiveCount, summary.NegativeCount, summary.NeutralCount)
	}
	sum := summary.PositivePct + summary.NegativePct + summary.NeutralPct
	if math.Abs(sum-100) > 0.2 {
		t.Errorf("percentages sum to %v", sum)
	}
}

func TestCloneKeepsOriginal(t *testing.T) {
	base := NewAnalyzer(testLexicon())
	strict := base.Clone(WithThresholds(Thresholds{Positive: 0.9, Negative: -0.9}))

	text := "Bagus banget produknya, recommended!"
	if got := strict.Analyze(text).SentimentLabel; got != models.LabelNeutral {
		t.Errorf("strict label = %s, want neutral", got)
	}
	if got := base.Analyze(text).SentimentLabel; got != models.LabelPositive {
		t.Errorf("base label = %s, want positive", got)
	}
	if base.Thresholds() != DefaultThresholds() {
		t.Errorf("base thresholds changed to %+v", base.Thresholds())
	}
}
