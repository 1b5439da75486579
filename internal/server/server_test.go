package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/spacesedan/komentar/internal/clients"
	"github.com/spacesedan/komentar/internal/db"
	"github.com/spacesedan/komentar/internal/lexicon"
	"github.com/spacesedan/komentar/internal/metrics"
	"github.com/spacesedan/komentar/internal/models"
	"github.com/spacesedan/komentar/internal/processing"
	"github.com/spacesedan/komentar/internal/sentiment"
)

type fakeScraper struct {
	result models.ScrapeResult
	err    error
	calls  int
}

func (f *fakeScraper) ScrapeComments(_ context.Context, videoURL string, _ int) (models.ScrapeResult, error) {
	f.calls++
	if f.err != nil {
		return models.ScrapeResult{}, f.err
	}
	return f.result, nil
}

func newTestApp(t *testing.T, opts ...Option) (*fiber.App, db.Store) {
	t.Helper()

	store, err := db.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "api.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })

	service := processing.NewService(sentiment.NewAnalyzer(lexicon.Default()), store)
	opts = append([]Option{WithoutAccessLog()}, opts...)
	return New(service, opts...).App(), store
}

func do(t *testing.T, app *fiber.App, method, path string, body any) (int, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return resp.StatusCode, data
}

func decode[T any](t *testing.T, data []byte) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		t.Fatalf("decode %s: %v", data, err)
	}
	return v
}

var scenarioTexts = []string{
	"Bagus banget produknya, recommended!",
	"Jelek parah, nyesel beli",
	"Biasa aja sih",
}

func TestHealth(t *testing.T) {
	app, _ := newTestApp(t)

	status, body := do(t, app, http.MethodGet, "/health", nil)
	if status != http.StatusOK || !strings.Contains(string(body), `"ok"`) {
		t.Errorf("GET /health = %d %s", status, body)
	}
}

func TestClean(t *testing.T) {
	app, _ := newTestApp(t)

	status, body := do(t, app, http.MethodPost, "/api/clean", map[string]any{"text": "Bagus BGT!! @toko https://x.id"})
	if status != http.StatusOK {
		t.Fatalf("status = %d %s", status, body)
	}
	if got := decode[cleanResponse](t, body).Cleaned; got != "bagus banget" {
		t.Errorf("cleaned = %q, want %q", got, "bagus banget")
	}

	status, body = do(t, app, http.MethodPost, "/api/clean", map[string]any{"texts": []string{"Gk", "BGT"}, "normalize_slang": false})
	if status != http.StatusOK {
		t.Fatalf("status = %d %s", status, body)
	}
	if got := decode[cleanResponse](t, body).CleanedTexts; len(got) != 2 || got[0] != "gk" {
		t.Errorf("cleaned_texts = %q", got)
	}

	if status, _ := do(t, app, http.MethodPost, "/api/clean", map[string]any{}); status != http.StatusBadRequest {
		t.Errorf("empty clean status = %d, want 400", status)
	}
}

func TestAnalyzeSavesSession(t *testing.T) {
	app, store := newTestApp(t)

	status, body := do(t, app, http.MethodPost, "/api/analyze", map[string]any{
		"texts":   scenarioTexts,
		"keyword": "produk",
	})
	if status != http.StatusOK {
		t.Fatalf("status = %d %s", status, body)
	}

	report := decode[processing.Report](t, body)
	if report.SessionID == 0 {
		t.Fatal("expected a saved session")
	}
	if report.Summary.PositiveCount != 1 || report.Summary.NegativeCount != 1 || report.Summary.NeutralCount != 1 {
		t.Errorf("summary = %+v", report.Summary)
	}
	if report.Results[0].Username != "user_1" {
		t.Errorf("username = %q", report.Results[0].Username)
	}

	history, err := store.History(context.Background(), 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != 1 || history[0].Keyword != "produk" {
		t.Errorf("history = %+v", history)
	}
}

func TestAnalyzeOptions(t *testing.T) {
	app, store := newTestApp(t)

	status, body := do(t, app, http.MethodPost, "/api/analyze", map[string]any{
		"texts":              scenarioTexts,
		"save":               false,
		"label":              "negative",
		"top_n":              2,
		"positive_threshold": 0.5,
	})
	if status != http.StatusOK {
		t.Fatalf("status = %d %s", status, body)
	}

	report := decode[processing.Report](t, body)
	if report.SessionID != 0 {
		t.Error("save=false still saved a session")
	}
	if report.Summary.PositiveCount != 0 {
		t.Errorf("threshold 0.5 should leave no positives, summary = %+v", report.Summary)
	}
	if len(report.TopWords) != 2 || report.TopWords[0].Word != "jelek" {
		t.Errorf("top words = %+v, want the two leading negative words", report.TopWords)
	}

	history, err := store.History(context.Background(), 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != 0 {
		t.Errorf("history has %d sessions, want 0", len(history))
	}
}

func TestAnalyzeRejectsBadInput(t *testing.T) {
	app, _ := newTestApp(t)

	tests := []struct {
		name string
		body map[string]any
	}{
		{"no texts", map[string]any{"texts": []string{" ", ""}}},
		{"bad label", map[string]any{"text": "bagus", "label": "mixed"}},
		{"negative top_n", map[string]any{"text": "bagus", "top_n": -1}},
		{"crossed thresholds", map[string]any{"text": "bagus", "positive_threshold": -0.5, "negative_threshold": 0.5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := do(t, app, http.MethodPost, "/api/analyze", tt.body)
			if status != http.StatusBadRequest {
				t.Errorf("status = %d %s, want 400", status, body)
			}
			if !strings.Contains(string(body), `"error"`) {
				t.Errorf("body = %s, want an error message", body)
			}
		})
	}
}

func TestScrape(t *testing.T) {
	scraper := &fakeScraper{result: models.ScrapeResult{
		Comments: []models.Comment{
			{CommentText: "Keren parah", Provenance: models.Provenance{Username: "a", VideoURL: "https://v/1", LikesCount: 3}},
			{CommentText: "Jelek", Provenance: models.Provenance{Username: "b", VideoURL: "https://v/1"}},
		},
		Videos: []models.Video{models.DefaultVideo("https://v/1", 2)},
	}}

	var tokens []string
	app, store := newTestApp(t, WithScraper(func(token string) (Scraper, error) {
		tokens = append(tokens, token)
		return scraper, nil
	}))

	status, body := do(t, app, http.MethodPost, "/api/scrape", map[string]any{
		"url":     "https://v/1",
		"keyword": "skincare",
		"token":   "secret",
	})
	if status != http.StatusOK {
		t.Fatalf("status = %d %s", status, body)
	}
	if len(tokens) != 1 || tokens[0] != "secret" {
		t.Errorf("scraper tokens = %q", tokens)
	}

	resp := decode[scrapeResponse](t, body)
	if resp.Summary.Total != 2 || len(resp.Videos) != 1 {
		t.Errorf("response = %+v", resp)
	}
	if resp.Results[0].LikesCount != 3 {
		t.Errorf("provenance lost: %+v", resp.Results[0])
	}

	detail, err := store.SessionDetail(context.Background(), resp.SessionID)
	if err != nil {
		t.Fatal(err)
	}
	if detail.Session.Keyword != "skincare" || len(detail.Videos) != 1 {
		t.Errorf("detail = %+v", detail)
	}
}

func TestScrapeDefaultsKeyword(t *testing.T) {
	scraper := &fakeScraper{result: models.ScrapeResult{
		Comments: []models.Comment{{CommentText: "Mantap", Provenance: models.Provenance{Username: "a", VideoURL: "https://v/2"}}},
	}}
	app, store := newTestApp(t, WithScraper(func(string) (Scraper, error) { return scraper, nil }))

	status, body := do(t, app, http.MethodPost, "/api/scrape", map[string]any{"url": "https://v/2", "keyword": "  "})
	if status != http.StatusOK {
		t.Fatalf("status = %d %s", status, body)
	}

	resp := decode[scrapeResponse](t, body)
	if resp.Keyword != DEFAULT_SCRAPE_KEYWORD {
		t.Errorf("keyword = %q, want %q", resp.Keyword, DEFAULT_SCRAPE_KEYWORD)
	}
	detail, err := store.SessionDetail(context.Background(), resp.SessionID)
	if err != nil {
		t.Fatal(err)
	}
	if detail.Session.Keyword != DEFAULT_SCRAPE_KEYWORD {
		t.Errorf("stored keyword = %q", detail.Session.Keyword)
	}
}

func TestAnalyzeDropsBlankEntries(t *testing.T) {
	app, _ := newTestApp(t)

	status, body := do(t, app, http.MethodPost, "/api/analyze", map[string]any{
		"texts": []string{"Bagus banget", "   ", "", "Jelek parah"},
		"save":  false,
	})
	if status != http.StatusOK {
		t.Fatalf("status = %d %s", status, body)
	}
	if resp := decode[processing.Report](t, body); resp.Summary.Total != 2 || resp.Summary.NeutralCount != 0 {
		t.Errorf("summary = %+v, want blanks dropped", resp.Summary)
	}
}

func TestScrapeErrors(t *testing.T) {
	t.Run("not configured", func(t *testing.T) {
		app, _ := newTestApp(t)
		if status, _ := do(t, app, http.MethodPost, "/api/scrape", map[string]any{"url": "https://v/1"}); status != http.StatusNotImplemented {
			t.Errorf("status = %d, want 501", status)
		}
	})

	t.Run("missing token", func(t *testing.T) {
		app, _ := newTestApp(t, WithScraper(func(string) (Scraper, error) {
			return nil, clients.ErrMissingToken
		}))
		if status, _ := do(t, app, http.MethodPost, "/api/scrape", map[string]any{"url": "https://v/1"}); status != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", status)
		}
	})

	t.Run("upstream failure", func(t *testing.T) {
		scraper := &fakeScraper{err: errors.New("actor failed")}
		app, _ := newTestApp(t, WithScraper(func(string) (Scraper, error) { return scraper, nil }))
		if status, _ := do(t, app, http.MethodPost, "/api/scrape", map[string]any{"url": "https://v/1"}); status != http.StatusBadGateway {
			t.Errorf("status = %d, want 502", status)
		}
	})

	t.Run("no comments", func(t *testing.T) {
		scraper := &fakeScraper{}
		app, _ := newTestApp(t, WithScraper(func(string) (Scraper, error) { return scraper, nil }))
		if status, _ := do(t, app, http.MethodPost, "/api/scrape", map[string]any{"url": "https://v/1"}); status != http.StatusNotFound {
			t.Errorf("status = %d, want 404", status)
		}
	})

	t.Run("missing url", func(t *testing.T) {
		scraper := &fakeScraper{}
		app, _ := newTestApp(t, WithScraper(func(string) (Scraper, error) { return scraper, nil }))
		if status, _ := do(t, app, http.MethodPost, "/api/scrape", map[string]any{}); status != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", status)
		}
		if scraper.calls != 0 {
			t.Error("scraper called without a url")
		}
	})
}

func TestSessions(t *testing.T) {
	app, _ := newTestApp(t)

	_, body := do(t, app, http.MethodPost, "/api/analyze", map[string]any{"texts": scenarioTexts, "keyword": "produk"})
	saved := decode[processing.Report](t, body)

	status, body := do(t, app, http.MethodGet, "/api/sessions?limit=5", nil)
	if status != http.StatusOK {
		t.Fatalf("history status = %d %s", status, body)
	}
	history := decode[struct {
		Sessions []models.Session `json:"sessions"`
	}](t, body)
	if len(history.Sessions) != 1 || history.Sessions[0].ID != saved.SessionID {
		t.Errorf("history = %+v", history)
	}

	path := "/api/sessions/" + strconv.FormatInt(saved.SessionID, 10)
	status, body = do(t, app, http.MethodGet, path, nil)
	if status != http.StatusOK {
		t.Fatalf("detail status = %d %s", status, body)
	}
	detail := decode[sessionResponse](t, body)
	if len(detail.Comments) != 3 || detail.Summary != saved.Summary {
		t.Errorf("detail = %+v", detail)
	}

	if status, _ := do(t, app, http.MethodDelete, path, nil); status != http.StatusNoContent {
		t.Errorf("delete status = %d, want 204", status)
	}
	if status, _ := do(t, app, http.MethodGet, path, nil); status != http.StatusNotFound {
		t.Errorf("detail after delete = %d, want 404", status)
	}
	if status, _ := do(t, app, http.MethodDelete, path, nil); status != http.StatusNotFound {
		t.Errorf("second delete = %d, want 404", status)
	}
	if status, _ := do(t, app, http.MethodGet, "/api/sessions/abc", nil); status != http.StatusBadRequest {
		t.Errorf("bad id = %d, want 400", status)
	}
}

func TestSessionsWithoutStore(t *testing.T) {
	service := processing.NewService(sentiment.NewAnalyzer(lexicon.Default()), nil)
	app := New(service, WithoutAccessLog()).App()

	if status, _ := do(t, app, http.MethodGet, "/api/sessions", nil); status != http.StatusNotImplemented {
		t.Errorf("status = %d, want 501", status)
	}
	if status, _ := do(t, app, http.MethodGet, "/api/sessions/1", nil); status != http.StatusNotFound {
		t.Errorf("status = %d, want 404", status)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	app, _ := newTestApp(t, WithMetrics(metrics.New()))

	status, body := do(t, app, http.MethodGet, "/metrics", nil)
	if status != http.StatusOK || !strings.Contains(string(body), "go_goroutines") {
		t.Errorf("GET /metrics = %d", status)
	}

	plain, _ := newTestApp(t)
	if status, _ := do(t, plain, http.MethodGet, "/metrics", nil); status != http.StatusNotFound {
		t.Errorf("metrics without a registry = %d, want 404", status)
	}
}

func TestRequestIDHeader(t *testing.T) {
	app, _ := newTestApp(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil), -1)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.Header.Get(fiber.HeaderXRequestID) == "" {
		t.Error("missing request id header")
	}
}
