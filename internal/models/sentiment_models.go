package models

type Label string

const (
	LabelPositive Label = "positive"
	LabelNegative Label = "negative"
	LabelNeutral  Label = "neutral"
)

// Provenance carries caller-supplied metadata about where a comment came
// from. The engine copies it through without interpreting it.
type Provenance struct {
	Username   string `json:"username,omitempty"`
	VideoURL   string `json:"video_url,omitempty"`
	LikesCount int    `json:"likes_count,omitempty"`
	ReplyCount int    `json:"reply_count,omitempty"`
	CreatedAt  string `json:"created_at,omitempty"`
}

type AnalysisResult struct {
	OriginalText   string  `json:"original_text"`
	CleanedText    string  `json:"cleaned_text"`
	SentimentScore float64 `json:"sentiment_score"`
	SentimentLabel Label   `json:"sentiment_label"`
	Provenance
}

type BatchSummary struct {
	Total         int     `json:"total"`
	PositiveCount int     `json:"positive_count"`
	NegativeCount int     `json:"negative_count"`
	NeutralCount  int     `json:"neutral_count"`
	PositivePct   float64 `json:"positive_pct"`
	NegativePct   float64 `json:"negative_pct"`
	NeutralPct    float64 `json:"neutral_pct"`
	AvgScore      float64 `json:"avg_score"`
}

type WordCount struct {
	Word  string `json:"word"`
	Count int    `json:"count"`
}

type HistogramBin struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
	Count int     `json:"count"`
}
