package repos_test

import (
	"context"
	"testing"
	"time"

	"github.com/orcha-ai/orcha-backend/internal/data/repos"
	"github.com/orcha-ai/orcha-backend/internal/data/repos/testutil"
	"github.com/orcha-ai/orcha-backend/internal/pkg/dbctx"
	"github.com/orcha-ai/orcha-backend/internal/types"
)

func TestTokenUsageRepo_Lifecycle(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	repo := repos.NewTokenUsageRepo(db, testutil.Logger(t))

	u := testutil.SeedUser(t, ctx, tx, "tokens@test.local")

	got, err := repo.GetByUserID(dbc, u.ID)
	if err != nil {
		t.Fatalf("GetByUserID empty: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil before first record, got %+v", got)
	}

	resetAt := time.Now().UTC().Add(24 * time.Hour)
	if err := repo.Create(dbc, &types.TokenUsage{
		UserID:      u.ID,
		TotalTokens: 120,
		ResetAt:     resetAt,
		LastUpdated: time.Now().UTC(),
	}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := repo.UpdateFields(dbc, u.ID, map[string]interface{}{
		"total_tokens": 180,
		"last_updated": time.Now().UTC(),
	}); err != nil {
		t.Fatalf("UpdateFields: %v", err)
	}

	locked, err := repo.LockByUserID(dbc, u.ID)
	if err != nil {
		t.Fatalf("LockByUserID: %v", err)
	}
	if locked == nil || locked.TotalTokens != 180 {
		t.Fatalf("expected 180 tokens after update, got %+v", locked)
	}

	if err := repo.DeleteByUserID(dbc, u.ID); err != nil {
		t.Fatalf("DeleteByUserID: %v", err)
	}
	got, err = repo.GetByUserID(dbc, u.ID)
	if err != nil {
		t.Fatalf("GetByUserID after delete: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil after delete, got %+v", got)
	}
}
