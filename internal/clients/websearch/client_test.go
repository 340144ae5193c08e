package websearch

import (
	"strings"
	"testing"
)

func TestFormatResults(t *testing.T) {
	out := FormatResults([]Result{
		{Title: "First hit", Snippet: "some snippet", URL: "https://example.com/1"},
		{Title: "Second hit", URL: "https://example.com/2"},
	})

	if !strings.HasPrefix(out, "Web search results:") {
		t.Fatalf("missing header, got %q", out)
	}
	if !strings.Contains(out, "1. First hit") || !strings.Contains(out, "2. Second hit") {
		t.Fatalf("hits must be numbered, got %q", out)
	}
	if !strings.Contains(out, "some snippet") {
		t.Fatalf("snippet missing")
	}
	if !strings.Contains(out, "https://example.com/2") {
		t.Fatalf("url missing")
	}
	if strings.HasSuffix(out, "\n") {
		t.Fatalf("trailing newlines should be trimmed")
	}
}
