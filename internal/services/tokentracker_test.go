package services

import (
	"testing"
	"time"

	"github.com/orcha-ai/orcha-backend/internal/types"
)

func TestNextWindow_FirstIncrement(t *testing.T) {
	now := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)

	total, resetAt := nextWindow(nil, 150, now)
	if total != 150 {
		t.Fatalf("first increment should start the counter at the increment, got %d", total)
	}
	if !resetAt.Equal(now.Add(24 * time.Hour)) {
		t.Fatalf("fresh window must reset 24h out, got %v", resetAt)
	}
}

func TestNextWindow_ActiveWindowAccumulates(t *testing.T) {
	now := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	existing := &types.TokenUsage{
		TotalTokens: 500,
		ResetAt:     now.Add(6 * time.Hour),
	}

	total, resetAt := nextWindow(existing, 250, now)
	if total != 750 {
		t.Fatalf("active window should accumulate, got %d", total)
	}
	if !resetAt.Equal(existing.ResetAt) {
		t.Fatalf("active window must keep its reset timestamp")
	}
}

func TestNextWindow_ExpiredWindowResets(t *testing.T) {
	now := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	existing := &types.TokenUsage{
		TotalTokens: 9999,
		ResetAt:     now.Add(-time.Minute),
	}

	total, resetAt := nextWindow(existing, 42, now)
	if total != 42 {
		t.Fatalf("expired window must reset to exactly the increment, got %d", total)
	}
	if !resetAt.Equal(now.Add(24 * time.Hour)) {
		t.Fatalf("expired window must start a fresh 24h window, got %v", resetAt)
	}
}

func TestNextWindow_BoundaryCountsAsExpired(t *testing.T) {
	now := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	existing := &types.TokenUsage{
		TotalTokens: 100,
		ResetAt:     now, // exactly at the boundary
	}

	total, _ := nextWindow(existing, 10, now)
	if total != 10 {
		t.Fatalf("reset timestamp equal to now should count as expired, got %d", total)
	}
}

func TestNextWindow_ZeroIncrement(t *testing.T) {
	now := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	existing := &types.TokenUsage{
		TotalTokens: 300,
		ResetAt:     now.Add(time.Hour),
	}

	total, _ := nextWindow(existing, 0, now)
	if total != 300 {
		t.Fatalf("zero increment must be a no-op on the counter, got %d", total)
	}
}
