package sentiment

import "github.com/spacesedan/komentar/internal/lexicon"

// testLexicon is a small fixed lexicon so expectations do not move when the
// embedded default grows.
func testLexicon() *lexicon.Lexicon {
	return lexicon.New(lexicon.Document{
		Positive: map[string]float64{
			"bagus":       0.8,
			"recommended": 0.9,
			"worth":       0.7,
			"sesuai":      0.5,
		},
		Negative: map[string]float64{
			"jelek":  0.8,
			"parah":  0.6,
			"nyesel": 0.7,
			"zonk":   0.8,
		},
		Intensifier: map[string]float64{
			"banget": 1.5,
		},
		Negator: map[string]float64{
			"tidak": -1.0,
		},
	})
}
