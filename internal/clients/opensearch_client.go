package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/opensearch-project/opensearch-go/v4"
	"github.com/opensearch-project/opensearch-go/v4/opensearchapi"

	"github.com/spacesedan/komentar/internal/models"
)

const (
	SESSIONS_INDEX = "komentar-sessions"
	COMMENTS_INDEX = "komentar-comments"
)

var (
	opensearchInstance Opensearch
	opensearchErr      error
	opensearchOnce     sync.Once
)

type OpensearchOptions struct {
	Env      string
	Endpoint string
	Username string
	Password string
	// AWSEndpoint is used with SigV4 signing when Env is "prod".
	AWSEndpoint string
	Region      string
}

type Opensearch struct {
	Client *opensearch.Client
}

// GetOpensearchClient builds the shared client. In prod requests are signed
// with the default AWS credentials; elsewhere basic auth is used.
func GetOpensearchClient(ctx context.Context, o OpensearchOptions) (Opensearch, error) {
	opensearchOnce.Do(func() {
		client, err := NewOpensearch(ctx, o)
		if err != nil {
			opensearchErr = err
			return
		}
		opensearchInstance = client
	})
	return opensearchInstance, opensearchErr
}

func NewOpensearch(ctx context.Context, o OpensearchOptions) (Opensearch, error) {
	var cfg opensearch.Config

	if o.Env == "prod" {
		awsCfg, err := GetAWSConfig(ctx, o.Region)
		if err != nil {
			return Opensearch{}, err
		}

		cfg = opensearch.Config{
			Addresses: []string{o.AWSEndpoint},
			Transport: NewSigV4Transport(awsCfg.Credentials, v4.NewSigner(), awsCfg.Region, "es"),
		}
	} else {
		if o.Endpoint == "" || o.Password == "" {
			return Opensearch{}, fmt.Errorf("[OpenSearchClient] missing credentials for opensearch")
		}
		cfg = opensearch.Config{
			Addresses: []string{o.Endpoint},
			Username:  o.Username,
			Password:  o.Password,
		}
	}

	client, err := opensearch.NewClient(cfg)
	if err != nil {
		return Opensearch{}, fmt.Errorf("[OpenSearchClient] failed to initialize client: %w", err)
	}

	return Opensearch{Client: client}, nil
}

type sigV4Transport struct {
	credentials aws.CredentialsProvider
	signer      *v4.Signer
	region      string
	service     string
	next        http.RoundTripper
}

func NewSigV4Transport(creds aws.CredentialsProvider, signer *v4.Signer, region string, service string) http.RoundTripper {
	return &sigV4Transport{
		credentials: creds,
		signer:      signer,
		region:      region,
		service:     service,
		next:        http.DefaultTransport,
	}
}

func (t *sigV4Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	creds, err := t.credentials.Retrieve(req.Context())
	if err != nil {
		return nil, err
	}

	signedReq := req.Clone(req.Context())
	signedReq.Header.Del("Authorization")

	err = t.signer.SignHTTP(
		req.Context(),
		creds,
		signedReq,
		v4.GetPayloadHash(req.Context()),
		t.service,
		t.region,
		time.Now(),
	)
	if err != nil {
		return nil, err
	}

	return t.next.RoundTrip(signedReq)
}

func (o Opensearch) IsHealthy(ctx context.Context) bool {
	req := opensearchapi.ClusterHealthReq{}
	res, err := o.Client.Do(ctx, req, nil)
	if err != nil {
		return false
	}
	defer res.Body.Close()

	if res.IsError() {
		return false
	}

	return res.StatusCode == http.StatusOK
}

// IndexSession stores the session summary under its ID.
func (o Opensearch) IndexSession(ctx context.Context, session models.Session) error {
	payload, err := json.Marshal(session)
	if err != nil {
		slog.Error("[OpenSearchClient] failed to marshal session",
			slog.Int64("session_id", session.ID),
			slog.String("error", err.Error()))
		return err
	}

	req := opensearchapi.IndexReq{
		Index:      SESSIONS_INDEX,
		DocumentID: strconv.FormatInt(session.ID, 10),
		Body:       bytes.NewReader(payload),
	}

	res, err := o.Client.Do(ctx, req, nil)
	if err != nil {
		slog.Error("[OpenSearchClient] Failed to index session",
			slog.String("error", err.Error()))
		return err
	}
	defer res.Body.Close()

	if res.IsError() {
		slog.Error("[OpenSearchClient] OpenSearch indexing error",
			slog.String("status", res.Status()))
		return fmt.Errorf("opensearch error: %s", res.Status())
	}

	return nil
}

// DeleteSession removes a session and its comments from the index. A session
// that was never indexed is not an error.
func (o Opensearch) DeleteSession(ctx context.Context, sessionID int64) error {
	res, err := o.Client.Do(ctx, opensearchapi.DocumentDeleteReq{
		Index:      SESSIONS_INDEX,
		DocumentID: strconv.FormatInt(sessionID, 10),
	}, nil)
	if err != nil {
		slog.Error("[OpenSearchClient] Failed to delete session",
			slog.String("error", err.Error()))
		return err
	}
	res.Body.Close()
	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("opensearch error: %s", res.Status())
	}

	query := fmt.Sprintf(`{"query":{"term":{"session_id":%d}}}`, sessionID)
	res, err = o.Client.Do(ctx, opensearchapi.DocumentDeleteByQueryReq{
		Indices: []string{COMMENTS_INDEX},
		Body:    strings.NewReader(query),
	}, nil)
	if err != nil {
		slog.Error("[OpenSearchClient] Failed to delete session comments",
			slog.String("error", err.Error()))
		return err
	}
	defer res.Body.Close()

	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("opensearch error: %s", res.Status())
	}

	slog.Info("[OpenSearchClient] Removed session from index", slog.Int64("session_id", sessionID))
	return nil
}

type bulkResponse struct {
	Errors bool `json:"errors"`
}

// IndexComments writes every analyzed comment of a session in one bulk
// request. Document IDs are "<session>-<position>" so re-indexing a session
// overwrites instead of duplicating.
func (o Opensearch) IndexComments(ctx context.Context, sessionID int64, keyword string, results []models.AnalysisResult) error {
	if len(results) == 0 {
		return nil
	}

	slog.Info("[OpenSearchClient] Indexing analyzed comments",
		slog.Int64("session_id", sessionID),
		slog.Int("count", len(results)))

	body, err := commentsBulkBody(sessionID, keyword, results, time.Now().UTC())
	if err != nil {
		return err
	}

	res, err := o.Client.Do(ctx, opensearchapi.BulkReq{Index: COMMENTS_INDEX, Body: body}, nil)
	if err != nil {
		slog.Error("[OpenSearchClient] Failed to bulk index comments",
			slog.String("error", err.Error()))
		return err
	}
	defer res.Body.Close()

	if res.IsError() {
		slog.Error("[OpenSearchClient] OpenSearch bulk error",
			slog.String("status", res.Status()))
		return fmt.Errorf("opensearch error: %s", res.Status())
	}

	var bulk bulkResponse
	if err := json.NewDecoder(res.Body).Decode(&bulk); err == nil && bulk.Errors {
		return fmt.Errorf("[OpenSearchClient] bulk request reported item errors for session %d", sessionID)
	}

	return nil
}

func commentsBulkBody(sessionID int64, keyword string, results []models.AnalysisResult, now time.Time) (*strings.Reader, error) {
	var sb strings.Builder
	for i, result := range results {
		action, err := json.Marshal(map[string]map[string]string{
			"index": {"_id": fmt.Sprintf("%d-%d", sessionID, i)},
		})
		if err != nil {
			return nil, err
		}

		doc, err := json.Marshal(models.CommentDocument{
			SessionID:      sessionID,
			Keyword:        keyword,
			IndexedAt:      now,
			AnalysisResult: result,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to marshal comment document: %w", err)
		}

		sb.Write(action)
		sb.WriteByte('\n')
		sb.Write(doc)
		sb.WriteByte('\n')
	}
	return strings.NewReader(sb.String()), nil
}
