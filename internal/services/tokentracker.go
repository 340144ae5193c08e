package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/orcha-ai/orcha-backend/internal/data/repos"
	"github.com/orcha-ai/orcha-backend/internal/pkg/dbctx"
	"github.com/orcha-ai/orcha-backend/internal/pkg/logger"
	"github.com/orcha-ai/orcha-backend/internal/types"
)

const tokenWindow = 24 * time.Hour

// TokenUsageInfo is the post-update view of a user's rolling window.
type TokenUsageInfo struct {
	CurrentUsage     int64      `json:"current_usage"`
	ResetAt          *time.Time `json:"reset_at,omitempty"`
	TrackingDisabled bool       `json:"tracking_disabled,omitempty"`
}

type TokenTracker interface {
	// Increment adds tokens to the user's 24h window, resetting first when
	// the window has lapsed. Storage failures are swallowed into a
	// tracking-disabled result; token tracking never fails a chat turn.
	Increment(ctx context.Context, userID uuid.UUID, tokens int64) TokenUsageInfo

	// Get is read-only and reports zero once the window has lapsed, even
	// before any write has reset the row.
	Get(ctx context.Context, userID uuid.UUID) (TokenUsageInfo, error)

	// Reset is the administrative hard reset: the row is deleted.
	Reset(ctx context.Context, userID uuid.UUID) error
}

type tokenTracker struct {
	db   *gorm.DB
	log  *logger.Logger
	repo repos.TokenUsageRepo
}

func NewTokenTracker(db *gorm.DB, log *logger.Logger, repo repos.TokenUsageRepo) TokenTracker {
	return &tokenTracker{
		db:   db,
		log:  log.With("service", "TokenTracker"),
		repo: repo,
	}
}

// nextWindow computes the post-increment counter and reset time. Pure so the
// window semantics are testable without a database: a missing or expired row
// starts a fresh window at exactly the increment amount.
func nextWindow(existing *types.TokenUsage, tokens int64, now time.Time) (total int64, resetAt time.Time) {
	if existing == nil || !now.Before(existing.ResetAt) {
		return tokens, now.Add(tokenWindow)
	}
	return existing.TotalTokens + tokens, existing.ResetAt
}

func (t *tokenTracker) Increment(ctx context.Context, userID uuid.UUID, tokens int64) TokenUsageInfo {
	var info TokenUsageInfo

	err := t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		now := time.Now().UTC()

		existing, err := t.repo.LockByUserID(dbc, userID)
		if err != nil {
			return err
		}

		total, resetAt := nextWindow(existing, tokens, now)

		if existing == nil {
			if err := t.repo.Create(dbc, &types.TokenUsage{
				UserID:      userID,
				TotalTokens: total,
				ResetAt:     resetAt,
				LastUpdated: now,
			}); err != nil {
				return err
			}
		} else {
			if err := t.repo.UpdateFields(dbc, userID, map[string]interface{}{
				"total_tokens": total,
				"reset_at":     resetAt,
				"last_updated": now,
			}); err != nil {
				return err
			}
		}

		info = TokenUsageInfo{CurrentUsage: total, ResetAt: &resetAt}
		return nil
	})
	if err != nil {
		t.log.Warn("token tracking failed (non-fatal)", "user_id", userID.String(), "error", err.Error())
		return TokenUsageInfo{TrackingDisabled: true}
	}
	return info
}

func (t *tokenTracker) Get(ctx context.Context, userID uuid.UUID) (TokenUsageInfo, error) {
	dbc := dbctx.Context{Ctx: ctx}
	row, err := t.repo.GetByUserID(dbc, userID)
	if err != nil {
		return TokenUsageInfo{}, err
	}
	if row == nil || !time.Now().UTC().Before(row.ResetAt) {
		// Lazy expiry: a lapsed window reads as zero without a write.
		return TokenUsageInfo{CurrentUsage: 0}, nil
	}
	resetAt := row.ResetAt
	return TokenUsageInfo{CurrentUsage: row.TotalTokens, ResetAt: &resetAt}, nil
}

func (t *tokenTracker) Reset(ctx context.Context, userID uuid.UUID) error {
	dbc := dbctx.Context{Ctx: ctx}
	if err := t.repo.DeleteByUserID(dbc, userID); err != nil {
		return err
	}
	t.log.Info("token usage reset", "user_id", userID.String())
	return nil
}
