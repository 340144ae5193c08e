package llm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/orcha-ai/orcha-backend/internal/pkg/logger"
)

func testClient(t *testing.T, baseURL string) *client {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return &client{
		log:         log,
		baseURL:     baseURL,
		model:       "google/gemma-3-12b",
		visionModel: "llava-v1.6-34b",
		httpClient:  &http.Client{Timeout: 5 * time.Second},
		maxRetries:  0,
	}
}

func TestCompleteReturnsText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"model":"m1","choices":[{"message":{"role":"assistant","content":"hello"}}],"usage":{"total_tokens":7}}`))
	}))
	defer srv.Close()

	c := testClient(t, srv.URL)
	out, err := c.Complete(context.Background(), "", []Message{TextMessage("user", "hi")}, 0)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if out.Text != "hello" {
		t.Fatalf("text = %q, want %q", out.Text, "hello")
	}
	if out.Model != "m1" {
		t.Fatalf("model = %q, want %q", out.Model, "m1")
	}
	if out.Usage.TotalTokens != 7 {
		t.Fatalf("total tokens = %d, want 7", out.Usage.TotalTokens)
	}
}

func TestCompleteEmptyChoicesIsNotAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"model":"m1","choices":[],"usage":{"total_tokens":0}}`))
	}))
	defer srv.Close()

	c := testClient(t, srv.URL)
	out, err := c.Complete(context.Background(), "m1", []Message{TextMessage("user", "hi")}, 0)
	if err != nil {
		t.Fatalf("empty choices must not fail the call: %v", err)
	}
	if out.Text != "" {
		t.Fatalf("text = %q, want empty", out.Text)
	}
	if out.Model != "m1" {
		t.Fatalf("model = %q, want %q", out.Model, "m1")
	}
}

func TestCompleteServerErrorPropagates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadRequest)
	}))
	defer srv.Close()

	c := testClient(t, srv.URL)
	if _, err := c.Complete(context.Background(), "m1", []Message{TextMessage("user", "hi")}, 0); err == nil {
		t.Fatalf("expected error on 400")
	}
}
