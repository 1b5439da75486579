package lexicon

import "testing"

func TestNewPrecedence(t *testing.T) {
	lex := New(Document{
		Positive:    map[string]float64{"mantap": 0.8, "oke": 0.4},
		Negative:    map[string]float64{"oke": 0.5, "jelek": 0.8, "kurang": 0.3},
		Negator:     map[string]float64{"kurang": -0.5, "tidak": -1},
		Intensifier: map[string]float64{"tidak": 2, "banget": 1.5},
	})

	tests := []struct {
		word string
		want Category
	}{
		{"mantap", CategoryPositive},
		{"oke", CategoryPositive},
		{"jelek", CategoryNegative},
		{"kurang", CategoryNegative},
		{"tidak", CategoryNegator},
		{"banget", CategoryIntensifier},
	}

	for _, tt := range tests {
		t.Run(tt.word, func(t *testing.T) {
			e, ok := lex.Lookup(tt.word)
			if !ok {
				t.Fatalf("%q missing from lexicon", tt.word)
			}
			if e.Category != tt.want {
				t.Errorf("category = %v, want %v", e.Category, tt.want)
			}
		})
	}

	if lex.Len() != 6 {
		t.Errorf("Len() = %d, want 6", lex.Len())
	}
	if lex.Count(CategoryNegative) != 2 {
		t.Errorf("negatif count = %d, want 2", lex.Count(CategoryNegative))
	}
}

func TestPolaritySigns(t *testing.T) {
	lex := New(Document{
		Positive: map[string]float64{"bagus": 0.8},
		Negative: map[string]float64{"jelek": 0.8, "rusak": -0.6},
		Negator:  map[string]float64{"tidak": -1},
	})

	tests := []struct {
		word string
		want float64
	}{
		{"bagus", 0.8},
		{"jelek", -0.8},
		{"rusak", -0.6},
		{"tidak", 0},
		{"meja", 0},
	}

	for _, tt := range tests {
		if got := lex.Polarity(tt.word); got != tt.want {
			t.Errorf("Polarity(%q) = %v, want %v", tt.word, got, tt.want)
		}
	}
}

func TestModifierLookups(t *testing.T) {
	lex := New(Document{
		Negator:     map[string]float64{"tidak": -1},
		Intensifier: map[string]float64{"banget": 1.5},
	})

	if v, ok := lex.Negator("tidak"); !ok || v != -1 {
		t.Errorf("Negator(tidak) = %v, %v", v, ok)
	}
	if _, ok := lex.Negator("banget"); ok {
		t.Error("banget is not a negator")
	}
	if v, ok := lex.Intensifier("banget"); !ok || v != 1.5 {
		t.Errorf("Intensifier(banget) = %v, %v", v, ok)
	}
	if _, ok := lex.Intensifier("tidak"); ok {
		t.Error("tidak is not an intensifier")
	}
}

func TestKeysAreNormalized(t *testing.T) {
	lex := New(Document{Positive: map[string]float64{"  Keren ": 0.7}})

	if got := lex.Polarity("keren"); got != 0.7 {
		t.Errorf("Polarity(keren) = %v, want 0.7", got)
	}
	if _, ok := lex.Lookup("Keren"); ok {
		t.Error("lookups expect normalized tokens")
	}
}

func TestNilLexiconIsEmpty(t *testing.T) {
	var lex *Lexicon

	if lex.Len() != 0 || lex.Polarity("bagus") != 0 {
		t.Error("nil lexicon should behave as empty")
	}
	if _, ok := lex.Negator("tidak"); ok {
		t.Error("nil lexicon has no negators")
	}
}
