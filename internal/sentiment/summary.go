package sentiment

import (
	"math"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/bbalet/stopwords"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/spacesedan/komentar/internal/models"
	"github.com/spacesedan/komentar/internal/textclean"
)

const (
	DEFAULT_TOP_N          = 20
	DEFAULT_HISTOGRAM_BINS = 20

	// Words of this many runes or fewer are left out of frequency tables.
	minWordRunes = 2
)

// Summarize computes label counts, percentages of the total (1 decimal) and
// the mean score (3 decimals). An empty batch summarizes to all zeros.
func Summarize(results []models.AnalysisResult) models.BatchSummary {
	if len(results) == 0 {
		return models.BatchSummary{}
	}

	summary := models.BatchSummary{Total: len(results)}
	scores := make([]float64, len(results))
	for i, r := range results {
		scores[i] = r.SentimentScore
		switch r.SentimentLabel {
		case models.LabelPositive:
			summary.PositiveCount++
		case models.LabelNegative:
			summary.NegativeCount++
		case models.LabelNeutral:
			summary.NeutralCount++
		}
	}

	total := float64(summary.Total)
	summary.PositivePct = round(float64(summary.PositiveCount)/total*100, 1)
	summary.NegativePct = round(float64(summary.NegativeCount)/total*100, 1)
	summary.NeutralPct = round(float64(summary.NeutralCount)/total*100, 1)
	summary.AvgScore = round(stat.Mean(scores, nil), 3)

	return summary
}

// WordFilter reports whether a word should be counted.
type WordFilter func(word string) bool

// IndonesianStopwords drops common Indonesian function words.
func IndonesianStopwords() WordFilter {
	return func(word string) bool {
		return strings.TrimSpace(stopwords.CleanString(word, "id", false)) != ""
	}
}

// TopWords ranks the words of the results' cleaned text by frequency. An empty
// label counts every result. Ties keep the order in which words were first
// seen. topN <= 0 yields an empty table.
func TopWords(results []models.AnalysisResult, label models.Label, topN int, filters ...WordFilter) []models.WordCount {
	if topN <= 0 {
		return []models.WordCount{}
	}

	texts := make([]string, 0, len(results))
	for _, r := range results {
		if label != "" && r.SentimentLabel != label {
			continue
		}
		texts = append(texts, r.CleanedText)
	}

	ranked := WordFrequencies(texts, filters...)
	if len(ranked) > topN {
		ranked = ranked[:topN]
	}
	return ranked
}

// WordFrequencies counts every word longer than two runes across texts and
// returns the full table, most frequent first.
func WordFrequencies(texts []string, filters ...WordFilter) []models.WordCount {
	index := make(map[string]int)
	ranked := []models.WordCount{}

	for _, text := range texts {
	words:
		for _, word := range textclean.Tokenize(text) {
			if utf8.RuneCountInString(word) <= minWordRunes {
				continue
			}
			if i, ok := index[word]; ok {
				ranked[i].Count++
				continue
			}
			for _, keep := range filters {
				if !keep(word) {
					continue words
				}
			}
			index[word] = len(ranked)
			ranked = append(ranked, models.WordCount{Word: word, Count: 1})
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Count > ranked[j].Count
	})
	return ranked
}

// ScoreHistogram buckets scores into equal-width bins spanning [min, max].
// The maximum lands in the last bin. When every score is equal the range is
// widened by 0.5 on each side.
func ScoreHistogram(results []models.AnalysisResult, bins int) []models.HistogramBin {
	if len(results) == 0 || bins < 1 {
		return nil
	}

	scores := make([]float64, len(results))
	for i, r := range results {
		scores[i] = r.SentimentScore
	}
	sort.Float64s(scores)

	lo, hi := scores[0], scores[len(scores)-1]
	if lo == hi {
		lo -= 0.5
		hi += 0.5
	}

	dividers := floats.Span(make([]float64, bins+1), lo, hi)
	dividers[bins] = math.Nextafter(hi, math.Inf(1))
	counts := stat.Histogram(nil, dividers, scores, nil)

	histogram := make([]models.HistogramBin, bins)
	for i, c := range counts {
		upper := dividers[i+1]
		if i == bins-1 {
			upper = hi
		}
		histogram[i] = models.HistogramBin{
			Lower: dividers[i],
			Upper: upper,
			Count: int(c),
		}
	}
	return histogram
}
