package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/spacesedan/komentar/internal/models"
)

// Metrics holds the collectors of one process. Each instance owns its
// registry so tests can build as many as they like. A nil *Metrics records
// nothing.
type Metrics struct {
	Registry *prometheus.Registry

	commentsAnalyzed *prometheus.CounterVec
	sessionsSaved    prometheus.Counter
	indexFailures    prometheus.Counter
	runDuration      prometheus.Histogram
}

func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		commentsAnalyzed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "komentar_comments_analyzed_total",
				Help: "Total number of comments analyzed, by sentiment label.",
			},
			[]string{"label"},
		),
		sessionsSaved: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "komentar_sessions_saved_total",
				Help: "Total number of analysis sessions persisted.",
			},
		),
		indexFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "komentar_index_failures_total",
				Help: "Total number of failed search index writes.",
			},
		),
		runDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "komentar_run_duration_seconds",
				Help:    "Time spent analyzing and storing one batch of comments.",
				Buckets: prometheus.DefBuckets,
			},
		),
	}

	m.Registry.MustRegister(
		m.commentsAnalyzed,
		m.sessionsSaved,
		m.indexFailures,
		m.runDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) ObserveResults(results []models.AnalysisResult) {
	if m == nil {
		return
	}
	for _, r := range results {
		m.commentsAnalyzed.WithLabelValues(string(r.SentimentLabel)).Inc()
	}
}

func (m *Metrics) SessionSaved() {
	if m == nil {
		return
	}
	m.sessionsSaved.Inc()
}

func (m *Metrics) IndexFailed() {
	if m == nil {
		return
	}
	m.indexFailures.Inc()
}

func (m *Metrics) ObserveRun(elapsed time.Duration) {
	if m == nil {
		return
	}
	m.runDuration.Observe(elapsed.Seconds())
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}
