package sentiment

import (
	"github.com/spacesedan/komentar/internal/lexicon"
	"github.com/spacesedan/komentar/internal/textclean"
)

// secondOrderFactor scales an intensifier seen two tokens back.
const secondOrderFactor = 0.5

// Scorer computes lexicon polarity scores. It holds no mutable state and is
// safe for concurrent use.
type Scorer struct {
	lex *lexicon.Lexicon
}

func NewScorer(lex *lexicon.Lexicon) *Scorer {
	return &Scorer{lex: lex}
}

// Score cleans text with slang expansion on and scores its tokens.
func (s *Scorer) Score(text string) float64 {
	return s.ScoreTokens(textclean.Tokenize(textclean.Clean(text, true)))
}

// ScoreTokens walks already-normalized tokens with a two-token look-back:
// a negator or intensifier right before a word multiplies its weight by the
// modifier value, and an intensifier two tokens back multiplies it by half
// its value. Both prev1 checks apply when a word is somehow both. The sum is
// divided by the token count and rounded to 3 decimals.
func (s *Scorer) ScoreTokens(tokens []string) float64 {
	if len(tokens) == 0 {
		return 0
	}

	var total float64
	var prev1, prev2 string

	for _, token := range tokens {
		weight := s.lex.Polarity(token)

		if v, ok := s.lex.Negator(prev1); ok {
			weight *= v
		}
		if v, ok := s.lex.Intensifier(prev1); ok {
			weight *= v
		}
		if v, ok := s.lex.Intensifier(prev2); ok {
			weight *= v * secondOrderFactor
		}

		total += weight
		prev2, prev1 = prev1, token
	}

	return round(total/float64(len(tokens)), 3)
}
