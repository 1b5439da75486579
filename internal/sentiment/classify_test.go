package sentiment

import (
	"math"
	"testing"

	"github.com/spacesedan/komentar/internal/models"
)

func TestClassify(t *testing.T) {
	defaults := DefaultThresholds()

	tests := []struct {
		desc  string
		score float64
		t     Thresholds
		want  models.Label
	}{
		{"above positive", 0.369, defaults, models.LabelPositive},
		{"below negative", -0.525, defaults, models.LabelNegative},
		{"zero", 0, defaults, models.LabelNeutral},
		{"positive boundary", 0.1, defaults, models.LabelNeutral},
		{"negative boundary", -0.1, defaults, models.LabelNeutral},
		{"just above boundary", 0.1001, defaults, models.LabelPositive},
		{"just below boundary", -0.1001, defaults, models.LabelNegative},
		{"custom thresholds", 0.2, Thresholds{Positive: 0.25, Negative: -0.25}, models.LabelNeutral},
		{"custom negative", -0.3, Thresholds{Positive: 0.25, Negative: -0.25}, models.LabelNegative},
		{"infinity", math.Inf(1), defaults, models.LabelPositive},
		{"negative infinity", math.Inf(-1), defaults, models.LabelNegative},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			if got := Classify(tt.score, tt.t); got != tt.want {
				t.Errorf("Classify(%v) = %s, want %s", tt.score, got, tt.want)
			}
		})
	}
}

func TestClassifyPartitionsTheLine(t *testing.T) {
	defaults := DefaultThresholds()

	for score := -2.0; score <= 2.0; score += 0.001 {
		switch Classify(score, defaults) {
		case models.LabelPositive:
			if !(score > defaults.Positive) {
				t.Fatalf("%v labelled positive", score)
			}
		case models.LabelNegative:
			if !(score < defaults.Negative) {
				t.Fatalf("%v labelled negative", score)
			}
		case models.LabelNeutral:
			if score > defaults.Positive || score < defaults.Negative {
				t.Fatalf("%v labelled neutral", score)
			}
		default:
			t.Fatalf("%v got no label", score)
		}
	}
}
