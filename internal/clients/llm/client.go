package llm

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

// Message is a single chat turn sent to the completion endpoint. Content is
// either a plain string or a []ContentPart for multimodal turns.
type Message struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

// ContentPart is one element of a multimodal message body.
type ContentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

type ImageURL struct {
	URL string `json:"url"`
}

func TextMessage(role, text string) Message {
	return Message{Role: role, Content: text}
}

func TextPart(text string) ContentPart {
	return ContentPart{Type: "text", Text: text}
}

func ImagePart(dataURI string) ContentPart {
	return ContentPart{Type: "image_url", ImageURL: &ImageURL{URL: dataURI}}
}

type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type Completion struct {
	Text  string
	Model string
	Usage Usage
}

// Client talks to an OpenAI-compatible chat completion server.
type Client interface {
	// Complete runs a chat completion. maxTokens <= 0 leaves the server default.
	Complete(ctx context.Context, model string, messages []Message, maxTokens int) (Completion, error)
	ListModels(ctx context.Context) ([]string, error)

	DefaultModel() string
	VisionModel() string
}

type client struct {
	log         *logger.Logger
	baseURL     string
	apiKey      string
	model       string
	visionModel string
	httpClient  *http.Client

	maxRetries int
}

func NewClient(log *logger.Logger) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	baseURL := strings.TrimSpace(os.Getenv("LLM_BASE_URL"))
	if baseURL == "" {
		baseURL = "http://localhost:8000"
	}
	baseURL = strings.TrimRight(baseURL, "/")

	model := strings.TrimSpace(os.Getenv("LLM_MODEL"))
	if model == "" {
		model = "google/gemma-3-12b"
	}

	visionModel := strings.TrimSpace(os.Getenv("LLM_VISION_MODEL"))
	if visionModel == "" {
		visionModel = "llava-v1.6-34b"
	}

	// Long completions on self-hosted hardware routinely run minutes.
	timeoutSec := 500
	if v := os.Getenv("LLM_TIMEOUT_SECONDS"); v != "" {
		if parsed, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && parsed > 0 {
			timeoutSec = parsed
		}
	}

	maxRetries := 2
	if v := os.Getenv("LLM_MAX_RETRIES"); v != "" {
		if parsed, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && parsed >= 0 {
			maxRetries = parsed
		}
	}

	return &client{
		log:         log.With("service", "LLMClient"),
		baseURL:     baseURL,
		apiKey:      strings.TrimSpace(os.Getenv("LLM_API_KEY")),
		model:       model,
		visionModel: visionModel,
		httpClient:  &http.Client{Timeout: time.Duration(timeoutSec) * time.Second},
		maxRetries:  maxRetries,
	}, nil
}

func (c *client) DefaultModel() string { return c.model }
func (c *client) VisionModel() string  { return c.visionModel }

type llmHTTPError struct {
	StatusCode int
	Body       string
}

func (e *llmHTTPError) Error() string {
	return fmt.Sprintf("llm http %d: %s", e.StatusCode, e.Body)
}

func (e *llmHTTPError) HTTPStatusCode() int {
	if e == nil {
		return 0
	}
	return e.StatusCode
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
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, err
	}

	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return resp, nil, readErr
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp, raw, &llmHTTPError{StatusCode: resp.StatusCode, Body: string(raw)}
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
				return fmt.Errorf("llm decode error: %w; raw=%s", uErr, string(raw))
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

		c.log.Warn("LLM request retrying",
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

type chatCompletionRequest struct {
	Model     string    `json:"model"`
	Messages  []Message `json:"messages"`
	MaxTokens int       `json:"max_tokens,omitempty"`
}

type chatCompletionResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage Usage `json:"usage"`
}

func (c *client) Complete(ctx context.Context, model string, messages []Message, maxTokens int) (Completion, error) {
	if model == "" {
		model = c.model
	}
	if len(messages) == 0 {
		return Completion{}, fmt.Errorf("no messages")
	}

	req := chatCompletionRequest{Model: model, Messages: messages}
	if maxTokens > 0 {
		req.MaxTokens = maxTokens
	}

	var out chatCompletionResponse
	if err := c.do(ctx, http.MethodPost, "/v1/chat/completions", req, &out); err != nil {
		return Completion{}, err
	}

	respModel := out.Model
	if respModel == "" {
		respModel = model
	}

	// Some backends answer 200 with an empty choices array under load. That is
	// not a transport failure; hand the caller an empty text so its own
	// fallback reply applies instead of failing the turn.
	text := ""
	if len(out.Choices) > 0 {
		text = out.Choices[0].Message.Content
	} else {
		c.log.Warn("completion response had no choices", "model", respModel)
	}

	return Completion{
		Text:  text,
		Model: respModel,
		Usage: out.Usage,
	}, nil
}

type modelListResponse struct {
	Data []struct {
		ID string `json:"id"`
	} `json:"data"`
}

func (c *client) ListModels(ctx context.Context) ([]string, error) {
	var out modelListResponse
	if err := c.do(ctx, http.MethodGet, "/v1/models", nil, &out); err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(out.Data))
	for _, m := range out.Data {
		ids = append(ids, m.ID)
	}
	return ids, nil
}
