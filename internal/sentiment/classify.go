package sentiment

import "github.com/spacesedan/komentar/internal/models"

type Thresholds struct {
	Positive float64 `json:"positive_threshold"`
	Negative float64 `json:"negative_threshold"`
}

func DefaultThresholds() Thresholds {
	return Thresholds{Positive: 0.1, Negative: -0.1}
}

// Classify maps a score to a label. Only scores strictly beyond a threshold
// are polar; a score equal to either threshold is neutral.
func Classify(score float64, t Thresholds) models.Label {
	switch {
	case score > t.Positive:
		return models.LabelPositive
	case score < t.Negative:
		return models.LabelNegative
	default:
		return models.LabelNeutral
	}
}
