package lexicon

import (
	"log/slog"
	"math"
	"sort"
	"strings"
)

type Category int

const (
	CategoryNone Category = iota
	CategoryPositive
	CategoryNegative
	CategoryNegator
	CategoryIntensifier
)

func (c Category) String() string {
	switch c {
	case CategoryPositive:
		return "positif"
	case CategoryNegative:
		return "negatif"
	case CategoryNegator:
		return "negator"
	case CategoryIntensifier:
		return "intensifier"
	default:
		return "none"
	}
}

type Entry struct {
	Category Category
	Weight   float64
}

// Document is the on-disk shape of a lexicon: four sections mapping a
// lowercase word to a weight. Negative weights are magnitudes; the sign is
// applied when scoring.
type Document struct {
	Positive    map[string]float64 `json:"positif" yaml:"positif"`
	Negative    map[string]float64 `json:"negatif" yaml:"negatif"`
	Intensifier map[string]float64 `json:"intensifier" yaml:"intensifier"`
	Negator     map[string]float64 `json:"negator" yaml:"negator"`
}

// Lexicon is an immutable word table. Every word belongs to exactly one
// category; a nil *Lexicon behaves like an empty one.
type Lexicon struct {
	entries map[string]Entry
	counts  map[Category]int
}

// New builds a Lexicon from a document. A word listed in more than one
// section is kept in the first of positif, negatif, negator, intensifier and
// dropped from the others with a warning.
func New(doc Document) *Lexicon {
	l := &Lexicon{
		entries: make(map[string]Entry),
		counts:  make(map[Category]int),
	}

	sections := []struct {
		category Category
		words    map[string]float64
	}{
		{CategoryPositive, doc.Positive},
		{CategoryNegative, doc.Negative},
		{CategoryNegator, doc.Negator},
		{CategoryIntensifier, doc.Intensifier},
	}

	for _, section := range sections {
		keys := make([]string, 0, len(section.words))
		for word := range section.words {
			keys = append(keys, word)
		}
		sort.Strings(keys)

		for _, raw := range keys {
			weight := section.words[raw]
			word := normalizeKey(raw)
			if word == "" {
				continue
			}
			if math.IsNaN(weight) || math.IsInf(weight, 0) {
				slog.Warn("[Lexicon] Skipping non-finite weight",
					slog.String("word", word),
					slog.String("category", section.category.String()))
				continue
			}
			if existing, ok := l.entries[word]; ok {
				slog.Warn("[Lexicon] Word listed more than once, keeping first category",
					slog.String("word", word),
					slog.String("kept", existing.Category.String()),
					slog.String("dropped", section.category.String()))
				continue
			}
			l.entries[word] = Entry{Category: section.category, Weight: weight}
			l.counts[section.category]++
		}
	}

	return l
}

func Empty() *Lexicon {
	return New(Document{})
}

func normalizeKey(word string) string {
	return strings.ToLower(strings.TrimSpace(word))
}

func (l *Lexicon) Lookup(word string) (Entry, bool) {
	if l == nil {
		return Entry{}, false
	}
	e, ok := l.entries[word]
	return e, ok
}

// Polarity returns the signed base weight of a sentiment-bearing word:
// positive terms score +w, negative terms -|w|, anything else 0.
func (l *Lexicon) Polarity(word string) float64 {
	e, ok := l.Lookup(word)
	if !ok {
		return 0
	}
	switch e.Category {
	case CategoryPositive:
		return e.Weight
	case CategoryNegative:
		return -math.Abs(e.Weight)
	default:
		return 0
	}
}

func (l *Lexicon) Negator(word string) (float64, bool) {
	e, ok := l.Lookup(word)
	if !ok || e.Category != CategoryNegator {
		return 0, false
	}
	return e.Weight, true
}

func (l *Lexicon) Intensifier(word string) (float64, bool) {
	e, ok := l.Lookup(word)
	if !ok || e.Category != CategoryIntensifier {
		return 0, false
	}
	return e.Weight, true
}

func (l *Lexicon) Len() int {
	if l == nil {
		return 0
	}
	return len(l.entries)
}

func (l *Lexicon) Count(c Category) int {
	if l == nil {
		return 0
	}
	return l.counts[c]
}
