package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spacesedan/komentar/internal/models"
	"github.com/spacesedan/komentar/internal/processing"
)

const histogramWidth = 40

func render(w io.Writer, report processing.Report, label models.Label, histogram bool) {
	for _, r := range report.Results {
		fmt.Fprintf(w, "%-10s %+.3f  %s\n", "["+string(r.SentimentLabel)+"]", r.SentimentScore, r.OriginalText)
	}

	s := report.Summary
	fmt.Fprintln(w)
	if report.Keyword != "" {
		fmt.Fprintf(w, "Summary for %q\n", report.Keyword)
	} else {
		fmt.Fprintln(w, "Summary")
	}
	fmt.Fprintf(w, "  total      %d\n", s.Total)
	fmt.Fprintf(w, "  positive   %d (%.2f%%)\n", s.PositiveCount, s.PositivePct)
	fmt.Fprintf(w, "  negative   %d (%.2f%%)\n", s.NegativeCount, s.NegativePct)
	fmt.Fprintf(w, "  neutral    %d (%.2f%%)\n", s.NeutralCount, s.NeutralPct)
	fmt.Fprintf(w, "  avg score  %+.3f\n", s.AvgScore)
	if report.SessionID != 0 {
		fmt.Fprintf(w, "  session    %d\n", report.SessionID)
	}

	words := report.TopWords
	title := "Top words"
	if label != "" {
		words = report.TopWordsByLabel[label]
		title = fmt.Sprintf("Top words (%s)", label)
	}
	if len(words) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, title)
		for i, wc := range words {
			fmt.Fprintf(w, "  %2d. %-20s %d\n", i+1, wc.Word, wc.Count)
		}
	}

	if histogram && len(report.Histogram) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Score histogram")
		renderHistogram(w, report.Histogram)
	}
}

func renderHistogram(w io.Writer, bins []models.HistogramBin) {
	peak := 0
	for _, b := range bins {
		peak = max(peak, b.Count)
	}

	for _, b := range bins {
		bar := 0
		if peak > 0 {
			bar = b.Count * histogramWidth / peak
		}
		fmt.Fprintf(w, "  [%+.3f, %+.3f] %-*s %d\n", b.Lower, b.Upper, histogramWidth, strings.Repeat("#", bar), b.Count)
	}
}
