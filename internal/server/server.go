package server

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"github.com/spacesedan/komentar/internal/metrics"
	"github.com/spacesedan/komentar/internal/models"
	"github.com/spacesedan/komentar/internal/processing"
)

const MAX_BODY_BYTES = 10 * 1024 * 1024

type Scraper interface {
	ScrapeComments(ctx context.Context, videoURL string, maxComments int) (models.ScrapeResult, error)
}

// ScraperFunc returns a scraper for the request's token. An empty token
// means the configured one.
type ScraperFunc func(token string) (Scraper, error)

type Server struct {
	app        *fiber.App
	service    *processing.Service
	newScraper ScraperFunc
	metrics    *metrics.Metrics
	accessLog  bool
}

type Option func(*Server)

func WithScraper(fn ScraperFunc) Option {
	return func(s *Server) {
		s.newScraper = fn
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithoutAccessLog turns the per-request log line off.
func WithoutAccessLog() Option {
	return func(s *Server) {
		s.accessLog = false
	}
}

func New(service *processing.Service, opts ...Option) *Server {
	s := &Server{service: service, accessLog: true}
	for _, opt := range opts {
		opt(s)
	}

	s.app = fiber.New(fiber.Config{
		AppName:      "komentar",
		BodyLimit:    MAX_BODY_BYTES,
		ErrorHandler: errorHandler,
	})

	s.app.Use(recover.New())
	s.app.Use(requestid.New())
	if s.accessLog {
		s.app.Use(logger.New(logger.Config{
			Format: "${time} ${locals:requestid} ${status} - ${latency} ${method} ${path}\n",
		}))
	}

	s.routes()
	return s
}

func (s *Server) routes() {
	s.app.Get("/health", s.health)

	if s.metrics != nil {
		s.app.Get("/metrics", adaptor.HTTPHandler(s.metrics.Handler()))
	}

	api := s.app.Group("/api")
	api.Post("/clean", s.clean)
	api.Post("/analyze", s.analyze)
	api.Post("/scrape", s.scrape)

	sessions := api.Group("/sessions")
	sessions.Get("/", s.history)
	sessions.Get("/:id", s.sessionDetail)
	sessions.Delete("/:id", s.deleteSession)
}

func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) Listen(addr string) error {
	slog.Info("[Server] Listening", slog.String("addr", addr))
	return s.app.Listen(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	slog.Warn("[Server] Shutting down...")
	return s.app.ShutdownWithContext(ctx)
}

// errorHandler renders every error as {"error": message}. Errors that are
// not *fiber.Error are internal and get logged.
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "internal server error"

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		message = fe.Message
	} else {
		slog.Error("[Server] Request failed",
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
			slog.String("error", err.Error()))
	}

	return c.Status(code).JSON(fiber.Map{"error": message})
}
