package rag

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/orcha-ai/orcha-backend/internal/pkg/httpx"
	"github.com/orcha-ai/orcha-backend/internal/pkg/logger"
)

// Context is one retrieved passage.
type Context struct {
	Text   string  `json:"text"`
	Source string  `json:"source,omitempty"`
	DocID  string  `json:"doc_id,omitempty"`
	Score  float64 `json:"score,omitempty"`
}

type QueryResult struct {
	Contexts []Context `json:"contexts"`
}

// The sidecar has shipped several response shapes over time; accept them all.
type rawQueryResponse struct {
	Contexts []rawContext `json:"contexts"`
	Results  []rawContext `json:"results"`
}

type rawContext struct {
	Text    string  `json:"text"`
	Chunk   string  `json:"chunk"`
	Content string  `json:"content"`
	Source  string  `json:"source"`
	DocID   string  `json:"doc_id"`
	Score   float64 `json:"score"`
}

func (r rawContext) normalize() Context {
	text := r.Text
	if text == "" {
		text = r.Chunk
	}
	if text == "" {
		text = r.Content
	}
	return Context{Text: text, Source: r.Source, DocID: r.DocID, Score: r.Score}
}

type IngestResult struct {
	DocID      string `json:"doc_id"`
	ChunkCount int    `json:"chunk_count"`
}

// Client talks to the retrieval sidecar.
type Client interface {
	// Query fetches the top passages for a message.
	Query(ctx context.Context, query string, topK int, rerank bool) (QueryResult, error)
	// Ingest pushes a source document (by URI) into the retrieval index. The
	// confirmation is stored for audit but not otherwise inspected.
	Ingest(ctx context.Context, source, uri string, metadata map[string]any) (IngestResult, error)
}

type client struct {
	log        *logger.Logger
	baseURL    string
	httpc      *http.Client
	maxRetries int
}

func NewClient(log *logger.Logger) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	baseURL := strings.TrimSpace(os.Getenv("RAG_BASE_URL"))
	if baseURL == "" {
		baseURL = "http://localhost:8002"
	}
	baseURL = strings.TrimRight(baseURL, "/")

	// Retrieval sits on the hot path of every augmented turn; keep it short.
	timeoutSec := 15
	if v := os.Getenv("RAG_TIMEOUT_SECONDS"); v != "" {
		if parsed, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && parsed > 0 {
			timeoutSec = parsed
		}
	}

	maxRetries := 1
	if v := os.Getenv("RAG_MAX_RETRIES"); v != "" {
		if parsed, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && parsed >= 0 {
			maxRetries = parsed
		}
	}

	return &client{
		log:        log.With("service", "RAGClient"),
		baseURL:    baseURL,
		httpc:      &http.Client{Timeout: time.Duration(timeoutSec) * time.Second},
		maxRetries: maxRetries,
	}, nil
}

type ragHTTPError struct {
	StatusCode int
	Body       string
}

func (e *ragHTTPError) Error() string {
	return fmt.Sprintf("rag http %d: %s", e.StatusCode, e.Body)
}

func (e *ragHTTPError) HTTPStatusCode() int {
	if e == nil {
		return 0
	}
	return e.StatusCode
}

func (c *client) Query(ctx context.Context, query string, topK int, rerank bool) (QueryResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return QueryResult{}, fmt.Errorf("empty query")
	}
	if topK <= 0 {
		topK = 8
	}

	body := map[string]any{
		"query":  query,
		"k":      topK,
		"rerank": rerank,
	}

	var raw rawQueryResponse
	if err := c.do(ctx, http.MethodPost, "/query", body, &raw); err != nil {
		return QueryResult{}, err
	}

	items := raw.Contexts
	if len(items) == 0 {
		items = raw.Results
	}
	out := QueryResult{Contexts: make([]Context, 0, len(items))}
	for _, it := range items {
		out.Contexts = append(out.Contexts, it.normalize())
	}
	return out, nil
}

func (c *client) Ingest(ctx context.Context, source, uri string, metadata map[string]any) (IngestResult, error) {
	if strings.TrimSpace(uri) == "" {
		return IngestResult{}, fmt.Errorf("empty uri")
	}

	body := map[string]any{
		"source": source,
		"uri":    uri,
	}
	if len(metadata) > 0 {
		body["metadata"] = metadata
	}

	var out IngestResult
	if err := c.do(ctx, http.MethodPost, "/ingest", body, &out); err != nil {
		return IngestResult{}, err
	}
	return out, nil
}

func (c *client) doOnce(ctx context.Context, method, path string, body any) (*http.Response, []byte, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, nil, err
	}

	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return resp, nil, readErr
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp, raw, &ragHTTPError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	return resp, raw, nil
}

func (c *client) do(ctx context.Context, method, path string, body any, out any) error {
	backoff := 1 * time.Second

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		resp, raw, err := c.doOnce(ctx, method, path, body)
		if err == nil {
			if out == nil {
				return nil
			}
			if uErr := json.Unmarshal(raw, out); uErr != nil {
				return fmt.Errorf("rag decode error: %w; raw=%s", uErr, string(raw))
			}
			return nil
		}

		if !httpx.IsRetryableError(err) {
			return err
		}
		if attempt == c.maxRetries {
			return err
		}

		sleepFor := httpx.RetryAfterDuration(resp, backoff, 10*time.Second)
		sleepFor = httpx.JitterSleep(sleepFor)

		c.log.Warn("RAG request retrying",
			"path", path,
			"attempt", attempt+1,
			"max_retries", c.maxRetries,
			"sleep", sleepFor.String(),
			"error", err.Error(),
		)

		time.Sleep(sleepFor)
		backoff *= 2
	}

	return fmt.Errorf("unreachable retry loop")
}
