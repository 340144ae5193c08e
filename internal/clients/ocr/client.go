package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/orcha-ai/orcha-backend/internal/pkg/httpx"
	"github.com/orcha-ai/orcha-backend/internal/pkg/logger"
)

// Result is the extracted text for one attachment.
type Result struct {
	Text      string   `json:"text"`
	Provider  string   `json:"provider"`
	Filename  string   `json:"filename,omitempty"`
	Languages []string `json:"languages,omitempty"`
}

// Client extracts text from images and scanned documents.
type Client interface {
	// ExtractFromBytes runs OCR on raw file bytes uploaded by the user.
	ExtractFromBytes(ctx context.Context, filename string, data []byte, languages []string) (Result, error)
	// ExtractFromURI runs OCR on a file the OCR service can fetch itself.
	ExtractFromURI(ctx context.Context, uri string, languages []string) (Result, error)
}

// NewFromEnv picks the OCR backend. OCR_PROVIDER=vision selects the Google
// Vision implementation, anything else the HTTP sidecar.
func NewFromEnv(log *logger.Logger) (Client, error) {
	provider := strings.ToLower(strings.TrimSpace(os.Getenv("OCR_PROVIDER")))
	if provider == "vision" {
		return NewVisionClient(log)
	}
	return NewHTTPClient(log)
}

// supportedLanguages are the codes the OCR backends accept.
var supportedLanguages = map[string]bool{
	"en": true, "fr": true, "ar": true, "zh": true, "es": true, "de": true,
	"it": true, "pt": true, "ru": true, "ja": true, "ko": true,
}

// normalizeLanguages trims and validates the hint list. Unknown codes fall
// back to "en" rather than being forwarded, as does an empty list.
func normalizeLanguages(languages []string) []string {
	out := make([]string, 0, len(languages))
	seen := map[string]bool{}
	for _, l := range languages {
		l = strings.ToLower(strings.TrimSpace(l))
		if l == "" {
			continue
		}
		if !supportedLanguages[l] {
			l = "en"
		}
		if !seen[l] {
			seen[l] = true
			out = append(out, l)
		}
	}
	if len(out) == 0 {
		out = []string{"en"}
	}
	return out
}

type httpClient struct {
	log        *logger.Logger
	baseURL    string
	httpc      *http.Client
	maxRetries int
}

func NewHTTPClient(log *logger.Logger) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	baseURL := strings.TrimSpace(os.Getenv("OCR_BASE_URL"))
	if baseURL == "" {
		baseURL = "http://localhost:8004"
	}
	baseURL = strings.TrimRight(baseURL, "/")

	timeoutSec := 60
	if v := os.Getenv("OCR_TIMEOUT_SECONDS"); v != "" {
		if parsed, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && parsed > 0 {
			timeoutSec = parsed
		}
	}

	maxRetries := 2
	if v := os.Getenv("OCR_MAX_RETRIES"); v != "" {
		if parsed, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && parsed >= 0 {
			maxRetries = parsed
		}
	}

	return &httpClient{
		log:        log.With("service", "OCRClient"),
		baseURL:    baseURL,
		httpc:      &http.Client{Timeout: time.Duration(timeoutSec) * time.Second},
		maxRetries: maxRetries,
	}, nil
}

type ocrHTTPError struct {
	StatusCode int
	Body       string
}

func (e *ocrHTTPError) Error() string {
	return fmt.Sprintf("ocr http %d: %s", e.StatusCode, e.Body)
}

func (e *ocrHTTPError) HTTPStatusCode() int {
	if e == nil {
		return 0
	}
	return e.StatusCode
}

type extractResponse struct {
	Text      string   `json:"text"`
	Languages []string `json:"languages"`
}

func (c *httpClient) ExtractFromBytes(ctx context.Context, filename string, data []byte, languages []string) (Result, error) {
	if len(data) == 0 {
		return Result{}, fmt.Errorf("empty file")
	}
	languages = normalizeLanguages(languages)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return Result{}, err
	}
	if _, err := fw.Write(data); err != nil {
		return Result{}, err
	}
	if err := mw.WriteField("languages", strings.Join(languages, ",")); err != nil {
		return Result{}, err
	}
	if err := mw.Close(); err != nil {
		return Result{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/extract-text", &body)
	if err != nil {
		return Result{}, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var out extractResponse
	if err := c.send(req, &out); err != nil {
		return Result{}, err
	}
	return Result{
		Text:      out.Text,
		Provider:  "http",
		Filename:  filename,
		Languages: languages,
	}, nil
}

func (c *httpClient) ExtractFromURI(ctx context.Context, uri string, languages []string) (Result, error) {
	uri = strings.TrimSpace(uri)
	if uri == "" {
		return Result{}, fmt.Errorf("empty uri")
	}
	languages = normalizeLanguages(languages)

	payload, err := json.Marshal(map[string]any{
		"uri":       uri,
		"languages": languages,
	})
	if err != nil {
		return Result{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/ocr", bytes.NewReader(payload))
	if err != nil {
		return Result{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	var out extractResponse
	if err := c.send(req, &out); err != nil {
		return Result{}, err
	}
	return Result{
		Text:      out.Text,
		Provider:  "http",
		Languages: languages,
	}, nil
}

// send runs the request with retry. The request body must be replayable only
// when retries occur, so it is buffered up front by the callers.
func (c *httpClient) send(req *http.Request, out any) error {
	bodyBytes, err := io.ReadAll(req.Body)
	if err != nil {
		return err
	}
	_ = req.Body.Close()

	backoff := 1 * time.Second
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if req.Context().Err() != nil {
			return req.Context().Err()
		}

		req.Body = io.NopCloser(bytes.NewReader(bodyBytes))
		resp, raw, err := c.doOnce(req)
		if err == nil {
			if out == nil {
				return nil
			}
			if uErr := json.Unmarshal(raw, out); uErr != nil {
				return fmt.Errorf("ocr decode error: %w; raw=%s", uErr, string(raw))
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

		c.log.Warn("OCR request retrying",
			"path", req.URL.Path,
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

func (c *httpClient) doOnce(req *http.Request) (*http.Response, []byte, error) {
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
		return resp, raw, &ocrHTTPError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	return resp, raw, nil
}
