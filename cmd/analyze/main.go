package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spacesedan/komentar/config"
	"github.com/spacesedan/komentar/internal/db"
	"github.com/spacesedan/komentar/internal/ingest"
	"github.com/spacesedan/komentar/internal/logging"
	"github.com/spacesedan/komentar/internal/models"
	"github.com/spacesedan/komentar/internal/processing"
	"github.com/spacesedan/komentar/internal/sentiment"
)

type textFlags []string

func (t *textFlags) String() string {
	return strings.Join(*t, "; ")
}

func (t *textFlags) Set(v string) error {
	*t = append(*t, v)
	return nil
}

type options struct {
	texts     textFlags
	file      string
	format    string
	keyword   string
	lexicon   string
	label     string
	topN      int
	bins      int
	save      bool
	asJSON    bool
	histogram bool
}

func main() {
	var o options
	flag.Var(&o.texts, "text", "comment to analyze, repeatable")
	flag.StringVar(&o.file, "file", "", "read comments from a .txt, .csv, .json or .md file")
	flag.StringVar(&o.format, "format", string(ingest.FormatText), "format of comments read from stdin")
	flag.StringVar(&o.keyword, "keyword", "", "keyword recorded with the session")
	flag.StringVar(&o.lexicon, "lexicon", "", "lexicon file, overrides LEXICON_PATH")
	flag.StringVar(&o.label, "label", "", "only list top words of this label")
	flag.IntVar(&o.topN, "top", sentiment.DEFAULT_TOP_N, "number of top words to list")
	flag.IntVar(&o.bins, "bins", sentiment.DEFAULT_HISTOGRAM_BINS, "histogram bins")
	flag.BoolVar(&o.save, "save", false, "store the session")
	flag.BoolVar(&o.asJSON, "json", false, "print the report as JSON")
	flag.BoolVar(&o.histogram, "histogram", false, "print a score histogram")
	flag.Parse()

	config.LoadEnv(config.AppEnv())
	cfg := config.Load()
	level := cfg.LogLevel
	if o.asJSON {
		// Keep stdout parseable.
		level = "error"
	}
	logging.InitLogger(level)

	if err := run(context.Background(), cfg, o, os.Stdin, os.Stdout); err != nil {
		slog.Error("[Analyze] Failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, o options, stdin io.Reader, stdout io.Writer) error {
	label, err := parseLabel(o.label)
	if err != nil {
		return err
	}

	comments, err := readComments(o, stdin)
	if err != nil {
		return err
	}
	if len(comments) == 0 {
		return fmt.Errorf("no comments to analyze")
	}

	if o.lexicon != "" {
		cfg.LexiconPath = o.lexicon
	}

	var store db.Store
	if o.save {
		store, err = db.Open(ctx, cfg)
		if err != nil {
			return err
		}
		defer store.Close()
	}

	opts := append(processing.ConfigOptions(cfg),
		processing.WithTopN(o.topN),
		processing.WithHistogramBins(o.bins))
	service := processing.NewService(processing.AnalyzerFromConfig(cfg), store, opts...)

	report, err := service.Run(ctx, o.keyword, comments, nil)
	if err != nil {
		return err
	}

	if o.asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	render(stdout, report, label, o.histogram)
	return nil
}

func readComments(o options, stdin io.Reader) ([]models.Comment, error) {
	switch {
	case len(o.texts) > 0:
		return models.ManualComments(o.keyword, ingest.Texts(o.texts)), nil
	case o.file != "":
		return ingest.ReadFile(o.file, o.keyword)
	default:
		return ingest.Read(stdin, ingest.Format(strings.ToLower(o.format)), o.keyword)
	}
}

func parseLabel(raw string) (models.Label, error) {
	switch label := models.Label(strings.ToLower(raw)); label {
	case "", models.LabelPositive, models.LabelNegative, models.LabelNeutral:
		return label, nil
	default:
		return "", fmt.Errorf("unknown label %q", raw)
	}
}
