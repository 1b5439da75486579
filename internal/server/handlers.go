package server

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spacesedan/komentar/internal/clients"
	"github.com/spacesedan/komentar/internal/db"
	"github.com/spacesedan/komentar/internal/ingest"
	"github.com/spacesedan/komentar/internal/models"
	"github.com/spacesedan/komentar/internal/processing"
	"github.com/spacesedan/komentar/internal/textclean"
)

// Keyword stored with scraped sessions when the request names none.
const DEFAULT_SCRAPE_KEYWORD = "Apify Result"

type cleanRequest struct {
	Text           string   `json:"text"`
	Texts          []string `json:"texts"`
	NormalizeSlang *bool    `json:"normalize_slang"`
}

type cleanResponse struct {
	Cleaned      string   `json:"cleaned,omitempty"`
	CleanedTexts []string `json:"cleaned_texts,omitempty"`
}

type analyzeRequest struct {
	Text              string   `json:"text"`
	Texts             []string `json:"texts"`
	Keyword           string   `json:"keyword"`
	Save              *bool    `json:"save"`
	Label             string   `json:"label"`
	TopN              *int     `json:"top_n"`
	PositiveThreshold *float64 `json:"positive_threshold"`
	NegativeThreshold *float64 `json:"negative_threshold"`
}

type scrapeRequest struct {
	URL         string `json:"url"`
	Keyword     string `json:"keyword"`
	MaxComments int    `json:"max_comments"`
	Token       string `json:"token"`
	Save        *bool  `json:"save"`
	Label       string `json:"label"`
}

type scrapeResponse struct {
	processing.Report
	Videos []models.Video `json:"videos"`
}

type sessionResponse struct {
	models.SessionDetail
	Summary         models.BatchSummary                 `json:"summary"`
	TopWords        []models.WordCount                  `json:"top_words"`
	TopWordsByLabel map[models.Label][]models.WordCount `json:"top_words_by_label"`
	Histogram       []models.HistogramBin               `json:"histogram"`
}

func (s *Server) health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

func (s *Server) clean(c *fiber.Ctx) error {
	var req cleanRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid JSON")
	}

	normalize := req.NormalizeSlang == nil || *req.NormalizeSlang
	if len(req.Texts) > 0 {
		return c.JSON(cleanResponse{CleanedTexts: textclean.CleanBatch(req.Texts, normalize)})
	}
	if strings.TrimSpace(req.Text) == "" {
		return fiber.NewError(fiber.StatusBadRequest, "text or texts is required")
	}
	return c.JSON(cleanResponse{Cleaned: textclean.Clean(req.Text, normalize)})
}

// analyze scores text and texts as one session. Blank entries are dropped
// before analysis, so they count toward neither the total nor the neutral
// share.
func (s *Server) analyze(c *fiber.Ctx) error {
	var req analyzeRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid JSON")
	}

	texts := ingest.Texts(append([]string{req.Text}, req.Texts...))
	if len(texts) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "at least one comment is required")
	}

	label, err := parseLabel(req.Label)
	if err != nil {
		return err
	}

	opts, err := s.runOptions(req)
	if err != nil {
		return err
	}

	report, err := s.service.Run(c.UserContext(), req.Keyword, models.ManualComments(req.Keyword, texts), nil, opts...)
	if err != nil {
		return err
	}

	return c.JSON(filterTopWords(report, label))
}

func (s *Server) runOptions(req analyzeRequest) ([]processing.RunOption, error) {
	var opts []processing.RunOption
	if req.Save != nil && !*req.Save {
		opts = append(opts, processing.SkipPersist())
	}
	if req.TopN != nil {
		if *req.TopN < 0 {
			return nil, fiber.NewError(fiber.StatusBadRequest, "top_n must not be negative")
		}
		opts = append(opts, processing.UseTopN(*req.TopN))
	}

	if req.PositiveThreshold != nil || req.NegativeThreshold != nil {
		t := s.service.Analyzer().Thresholds()
		if req.PositiveThreshold != nil {
			t.Positive = *req.PositiveThreshold
		}
		if req.NegativeThreshold != nil {
			t.Negative = *req.NegativeThreshold
		}
		if t.Negative > t.Positive {
			return nil, fiber.NewError(fiber.StatusBadRequest, "negative_threshold must not exceed positive_threshold")
		}
		opts = append(opts, processing.UseThresholds(t))
	}
	return opts, nil
}

func (s *Server) scrape(c *fiber.Ctx) error {
	if s.newScraper == nil {
		return fiber.NewError(fiber.StatusNotImplemented, "scraping is not configured")
	}

	var req scrapeRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid JSON")
	}
	if strings.TrimSpace(req.URL) == "" {
		return fiber.NewError(fiber.StatusBadRequest, "url is required")
	}
	label, err := parseLabel(req.Label)
	if err != nil {
		return err
	}

	scraper, err := s.newScraper(req.Token)
	if errors.Is(err, clients.ErrMissingToken) {
		return fiber.NewError(fiber.StatusBadRequest, "an Apify token is required")
	}
	if err != nil {
		return err
	}

	result, err := scraper.ScrapeComments(c.UserContext(), req.URL, req.MaxComments)
	if err != nil {
		return fiber.NewError(fiber.StatusBadGateway, err.Error())
	}
	if len(result.Comments) == 0 {
		return fiber.NewError(fiber.StatusNotFound, "no comments found for this video")
	}

	keyword := strings.TrimSpace(req.Keyword)
	if keyword == "" {
		keyword = DEFAULT_SCRAPE_KEYWORD
	}
	for i := range result.Comments {
		result.Comments[i].Keyword = keyword
	}

	var opts []processing.RunOption
	if req.Save != nil && !*req.Save {
		opts = append(opts, processing.SkipPersist())
	}

	report, err := s.service.Run(c.UserContext(), keyword, result.Comments, result.Videos, opts...)
	if err != nil {
		return err
	}

	return c.JSON(scrapeResponse{Report: filterTopWords(report, label), Videos: result.Videos})
}

func (s *Server) history(c *fiber.Ctx) error {
	store, err := s.store()
	if err != nil {
		return err
	}

	sessions, err := store.History(c.UserContext(), c.QueryInt("limit", db.DEFAULT_HISTORY_LIMIT))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"sessions": sessions})
}

func (s *Server) sessionDetail(c *fiber.Ctx) error {
	id, err := sessionID(c)
	if err != nil {
		return err
	}

	detail, report, err := s.service.SessionReport(c.UserContext(), id)
	if errors.Is(err, db.ErrSessionNotFound) {
		return fiber.NewError(fiber.StatusNotFound, "session not found")
	}
	if err != nil {
		return err
	}

	return c.JSON(sessionResponse{
		SessionDetail:   detail,
		Summary:         report.Summary,
		TopWords:        report.TopWords,
		TopWordsByLabel: report.TopWordsByLabel,
		Histogram:       report.Histogram,
	})
}

func (s *Server) deleteSession(c *fiber.Ctx) error {
	store, err := s.store()
	if err != nil {
		return err
	}
	id, err := sessionID(c)
	if err != nil {
		return err
	}

	err = store.DeleteSession(c.UserContext(), id)
	if errors.Is(err, db.ErrSessionNotFound) {
		return fiber.NewError(fiber.StatusNotFound, "session not found")
	}
	if err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) store() (db.Store, error) {
	store := s.service.Store()
	if store == nil {
		return nil, fiber.NewError(fiber.StatusNotImplemented, "no store configured")
	}
	return store, nil
}

func sessionID(c *fiber.Ctx) (int64, error) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "invalid session id")
	}
	return int64(id), nil
}

func parseLabel(raw string) (models.Label, error) {
	switch label := models.Label(strings.ToLower(strings.TrimSpace(raw))); label {
	case "", models.LabelPositive, models.LabelNegative, models.LabelNeutral:
		return label, nil
	default:
		return "", fiber.NewError(fiber.StatusBadRequest, "label must be positive, negative or neutral")
	}
}

// filterTopWords narrows the top words to one label when one was asked for.
func filterTopWords(report processing.Report, label models.Label) processing.Report {
	if label != "" {
		report.TopWords = report.TopWordsByLabel[label]
	}
	return report
}
