package processing

import (
	"github.com/spacesedan/komentar/config"
	"github.com/spacesedan/komentar/internal/lexicon"
	"github.com/spacesedan/komentar/internal/sentiment"
)

// AnalyzerFromConfig loads the configured lexicon and applies the configured
// thresholds and worker count.
func AnalyzerFromConfig(cfg config.Config) *sentiment.Analyzer {
	lex := lexicon.NewStore(cfg.LexiconPath).Load()
	return sentiment.NewAnalyzer(lex,
		sentiment.WithThresholds(sentiment.Thresholds{
			Positive: cfg.PositiveThreshold,
			Negative: cfg.NegativeThreshold,
		}),
		sentiment.WithWorkers(cfg.Workers),
	)
}

func ConfigOptions(cfg config.Config) []Option {
	var opts []Option
	if cfg.StopwordFilter {
		opts = append(opts, WithWordFilters(sentiment.IndonesianStopwords()))
	}
	return opts
}
