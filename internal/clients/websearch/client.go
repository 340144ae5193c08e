package websearch

import (
	"context"
	"fmt"
	"os"
	"strings"

	"google.golang.org/api/customsearch/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/orcha-ai/orcha-backend/internal/pkg/logger"
)

// User-visible failure strings. The orchestrator injects these into the
// prompt instead of failing the whole turn.
const (
	MsgQuotaExceeded = "Web search is temporarily unavailable (daily quota exceeded). Please try again tomorrow."
	MsgAuthFailed    = "Web search is not configured correctly (authentication failed)."
	MsgUnavailable   = "Web search is temporarily unavailable. Please try again later."
)

// Result is one search hit.
type Result struct {
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
	URL     string `json:"url"`
}

type Client interface {
	// Search returns up to maxResults hits for the query.
	Search(ctx context.Context, query string, maxResults int) ([]Result, error)
	// SearchFormatted returns the prompt-ready block. Failures come back as a
	// user-visible message with ok=false, never as an error.
	SearchFormatted(ctx context.Context, query string, maxResults int) (text string, ok bool)
}

type client struct {
	log      *logger.Logger
	apiKey   string
	engineID string
}

func NewClient(log *logger.Logger) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	apiKey := strings.TrimSpace(os.Getenv("GOOGLE_SEARCH_API_KEY"))
	engineID := strings.TrimSpace(os.Getenv("GOOGLE_SEARCH_ENGINE_ID"))
	if apiKey == "" || engineID == "" {
		return nil, fmt.Errorf("missing GOOGLE_SEARCH_API_KEY or GOOGLE_SEARCH_ENGINE_ID")
	}

	return &client{
		log:      log.With("service", "WebSearchClient"),
		apiKey:   apiKey,
		engineID: engineID,
	}, nil
}

func (c *client) Search(ctx context.Context, query string, maxResults int) ([]Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("empty query")
	}
	if maxResults <= 0 || maxResults > 10 {
		maxResults = 5
	}

	svc, err := customsearch.NewService(ctx, option.WithAPIKey(c.apiKey))
	if err != nil {
		return nil, fmt.Errorf("customsearch service: %w", err)
	}

	resp, err := svc.Cse.List().
		Cx(c.engineID).
		Q(query).
		Num(int64(maxResults)).
		Context(ctx).
		Do()
	if err != nil {
		return nil, err
	}

	out := make([]Result, 0, len(resp.Items))
	for _, item := range resp.Items {
		out = append(out, Result{
			Title:   item.Title,
			Snippet: item.Snippet,
			URL:     item.Link,
		})
	}
	return out, nil
}

func (c *client) SearchFormatted(ctx context.Context, query string, maxResults int) (string, bool) {
	results, err := c.Search(ctx, query, maxResults)
	if err != nil {
		msg := classifyError(err)
		c.log.Warn("web search failed", "query", query, "error", err.Error())
		return msg, false
	}
	if len(results) == 0 {
		return "No web search results found for: " + query, true
	}
	return FormatResults(results), true
}

// FormatResults renders hits the way the prompt assembler expects them.
func FormatResults(results []Result) string {
	var b strings.Builder
	b.WriteString("Web search results:\n\n")
	for i, r := range results {
		fmt.Fprintf(&b, "%d. %s\n", i+1, r.Title)
		if r.Snippet != "" {
			fmt.Fprintf(&b, "   %s\n", r.Snippet)
		}
		if r.URL != "" {
			fmt.Fprintf(&b, "   %s\n", r.URL)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func classifyError(err error) string {
	if gerr, ok := err.(*googleapi.Error); ok {
		switch gerr.Code {
		case 429:
			return MsgQuotaExceeded
		case 401, 403:
			// 403 is also what the API returns on daily quota exhaustion.
			if strings.Contains(strings.ToLower(gerr.Message), "quota") {
				return MsgQuotaExceeded
			}
			return MsgAuthFailed
		}
	}
	return MsgUnavailable
}
