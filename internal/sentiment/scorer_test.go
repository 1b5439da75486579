package sentiment

import (
	"math"
	"testing"

	"github.com/spacesedan/komentar/internal/lexicon"
)

func TestScore(t *testing.T) {
	scorer := NewScorer(testLexicon())

	tests := []struct {
		desc string
		text string
		want float64
	}{
		{"positive with second order intensifier", "Bagus banget produknya, recommended!", 0.369},
		{"negative terms", "Jelek parah, nyesel beli", -0.525},
		{"single positive", "bagus", 0.8},
		{"negated positive via slang", "gak bagus", -0.4},
		{"intensified", "banget bagus", 0.6},
		{"negated negative", "Worth it banget! Gak nyesel", 0.245},
		{"no sentiment words", "Biasa aja sih menurutku", 0},
		{"empty", "", 0},
		{"only noise", "!!! 123 @someone https://x.y", 0},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			got := scorer.Score(tt.text)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Score(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestNegatorFlipsSign(t *testing.T) {
	scorer := NewScorer(testLexicon())

	plain := scorer.Score("bagus")
	negated := scorer.Score("gak bagus")

	if plain <= 0 || negated >= 0 {
		t.Fatalf("bagus = %v, gak bagus = %v; want opposite signs", plain, negated)
	}
}

func TestNegatorAndIntensifierStack(t *testing.T) {
	// A word listed as both is resolved to one category at build time, so
	// stacking needs two different modifiers at prev1 and prev2.
	scorer := NewScorer(testLexicon())

	// jelek: -0.8, prev1 tidak (-1), prev2 banget (1.5 * 0.5) => 0.6 / 3
	got := scorer.Score("banget tidak jelek")
	if math.Abs(got-0.2) > 1e-9 {
		t.Errorf("Score = %v, want 0.2", got)
	}
}

func TestScoreIsDeterministic(t *testing.T) {
	scorer := NewScorer(lexicon.Default())
	text := "Worth it banget! Gak nyesel, pengiriman cepat 👍"

	first := scorer.Score(text)
	for i := 0; i < 50; i++ {
		if got := scorer.Score(text); got != first {
			t.Fatalf("run %d: %v != %v", i, got, first)
		}
	}
}

func TestEmptyLexiconScoresZero(t *testing.T) {
	scorer := NewScorer(lexicon.Empty())

	for _, text := range []string{"Bagus banget", "Jelek parah", "gak bagus"} {
		if got := scorer.Score(text); got != 0 {
			t.Errorf("Score(%q) = %v, want 0", text, got)
		}
	}
}

func TestRound(t *testing.T) {
	tests := []struct {
		x        float64
		decimals int
		want     float64
	}{
		{0.36875, 3, 0.369},
		{-0.525, 3, -0.525},
		{33.33333, 1, 33.3},
		{66.66666, 1, 66.7},
		{0, 3, 0},
	}

	for _, tt := range tests {
		if got := round(tt.x, tt.decimals); got != tt.want {
			t.Errorf("round(%v, %d) = %v, want %v", tt.x, tt.decimals, got, tt.want)
		}
	}
}
