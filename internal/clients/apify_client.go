package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/spacesedan/komentar/internal/models"
)

const DEFAULT_MAX_COMMENTS = 100

var ErrMissingToken = errors.New("[ApifyClient] Apify API token is required")

type ApifyClient struct {
	Client  *http.Client
	BaseURL string
	ActorID string
	backoff time.Duration
}

// NewApifyClient builds a client that authenticates every request with the
// API token as a bearer token.
func NewApifyClient(token, baseURL, actorID string, timeout time.Duration) (*ApifyClient, error) {
	if token == "" {
		return nil, ErrMissingToken
	}

	httpClient := oauth2.NewClient(context.Background(), oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: token,
		TokenType:   "Bearer",
	}))
	httpClient.Timeout = timeout

	slog.Info("[ApifyClient] Initializing Client",
		slog.String("actor", actorID),
		slog.Duration("timeout", timeout))

	return &ApifyClient{
		Client:  httpClient,
		BaseURL: strings.TrimRight(baseURL, "/"),
		ActorID: actorID,
		backoff: INITIAL_BACKOFF,
	}, nil
}

func (a *ApifyClient) runURL() string {
	actor := strings.ReplaceAll(a.ActorID, "/", "~")
	return fmt.Sprintf("%s/v2/acts/%s/run-sync-get-dataset-items", a.BaseURL, actor)
}

// ScrapeComments runs the comment scraper actor against a single video and
// waits for its dataset. Items without text are dropped.
func (a *ApifyClient) ScrapeComments(ctx context.Context, videoURL string, maxComments int) (models.ScrapeResult, error) {
	if maxComments <= 0 {
		maxComments = DEFAULT_MAX_COMMENTS
	}

	body, err := json.Marshal(models.ApifyRunInput{
		PostURLs:        []string{videoURL},
		CommentsPerPost: maxComments,
	})
	if err != nil {
		return models.ScrapeResult{}, fmt.Errorf("failed to marshal actor input: %w", err)
	}

	slog.Info("[ApifyClient] Starting scraper run", slog.String("video_url", videoURL))
	start := time.Now()

	resp, err := a.DoWithRetry(ctx, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.runURL(), bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("User-Agent", USER_AGENT)
		return req, nil
	})
	if err != nil {
		return models.ScrapeResult{}, fmt.Errorf("[ApifyClient] request failed after retries: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return models.ScrapeResult{}, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 300 {
		slog.Error("[ApifyClient] Actor run rejected",
			slog.Int("status", resp.StatusCode),
			getPreview(respBody))
		return models.ScrapeResult{}, fmt.Errorf("[ApifyClient] actor run failed with status %d", resp.StatusCode)
	}

	var items []models.ApifyCommentItem
	if err := json.Unmarshal(respBody, &items); err != nil {
		slog.Error("[ApifyClient] Failed to unmarshal dataset",
			slog.String("error", err.Error()),
			getPreview(respBody))
		return models.ScrapeResult{}, fmt.Errorf("failed to unmarshal dataset: %w", err)
	}

	comments := make([]models.Comment, 0, len(items))
	for _, item := range items {
		if comment, ok := item.ToComment(videoURL); ok {
			comments = append(comments, comment)
		}
	}

	slog.Info("[ApifyClient] Scraper run finished",
		slog.Int("comments", len(comments)),
		slog.Duration("elapsed", time.Since(start)))

	return models.ScrapeResult{
		Videos:   []models.Video{models.DefaultVideo(videoURL, len(comments))},
		Comments: comments,
	}, nil
}

// DoWithRetry retries transport errors, 429s and 5xx responses with
// exponential backoff. newRequest is called once per attempt so the body can
// be replayed.
func (a *ApifyClient) DoWithRetry(ctx context.Context, newRequest func() (*http.Request, error)) (*http.Response, error) {
	var resp *http.Response
	var err error
	backoff := a.backoff

	for attempt := 0; attempt < MAX_RETRIES; attempt++ {
		var req *http.Request
		req, err = newRequest()
		if err != nil {
			return nil, err
		}

		resp, err = a.Client.Do(req)
		if err == nil && resp.StatusCode != http.StatusTooManyRequests && resp.StatusCode < 500 {
			return resp, nil
		}

		slog.Warn("[ApifyClient] Request failed, will retry",
			slog.Int("attempt", attempt+1),
			slog.String("error", errMsg(err, resp)))

		if resp != nil {
			resp.Body.Close()
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, MAX_BACKOFF)
	}

	if err == nil {
		err = fmt.Errorf("status code %d", resp.StatusCode)
	}
	return nil, err
}

func getPreview(respBody []byte) slog.Attr {
	raw := string(respBody)
	if len(raw) > 50 {
		raw = raw[:50]
	}
	return slog.String("raw_response", raw)
}

func errMsg(err error, resp *http.Response) string {
	if err != nil {
		return err.Error()
	}
	if resp != nil {
		return fmt.Sprintf("status code %d", resp.StatusCode)
	}
	return "unknown error"
}
