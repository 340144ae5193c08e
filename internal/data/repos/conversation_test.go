package repos_test

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/orcha-ai/orcha-backend/internal/data/repos"
	"github.com/orcha-ai/orcha-backend/internal/data/repos/testutil"
	"github.com/orcha-ai/orcha-backend/internal/pkg/dbctx"
	"github.com/orcha-ai/orcha-backend/internal/types"
)

func TestConversationRepo_GetActiveForUser(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	repo := repos.NewConversationRepo(db, testutil.Logger(t))

	owner := testutil.SeedUser(t, ctx, tx, "owner@test.local")
	other := testutil.SeedUser(t, ctx, tx, "other@test.local")
	c := testutil.SeedConversation(t, ctx, tx, owner.ID)

	got, err := repo.GetActiveForUser(dbc, c.ID, owner.ID)
	if err != nil {
		t.Fatalf("GetActiveForUser: %v", err)
	}
	if got == nil || got.ID != c.ID {
		t.Fatalf("expected conversation %s, got %+v", c.ID, got)
	}

	// Other users must not see it.
	got, err = repo.GetActiveForUser(dbc, c.ID, other.ID)
	if err != nil {
		t.Fatalf("GetActiveForUser other user: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil for non-owner, got %+v", got)
	}

	// Unknown ids resolve to nil without error.
	got, err = repo.GetActiveForUser(dbc, uuid.New(), owner.ID)
	if err != nil {
		t.Fatalf("GetActiveForUser unknown id: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil for unknown id, got %+v", got)
	}
}

func TestConversationRepo_SoftDeleteHidesFromList(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	repo := repos.NewConversationRepo(db, testutil.Logger(t))

	u := testutil.SeedUser(t, ctx, tx, "softdelete@test.local")
	keep := testutil.SeedConversation(t, ctx, tx, u.ID)
	gone := testutil.SeedConversation(t, ctx, tx, u.ID)

	if err := repo.UpdateFields(dbc, gone.ID, map[string]interface{}{"is_active": false}); err != nil {
		t.Fatalf("UpdateFields: %v", err)
	}

	list, err := repo.ListActiveByUser(dbc, u.ID, 10, 0)
	if err != nil {
		t.Fatalf("ListActiveByUser: %v", err)
	}
	if len(list) != 1 || list[0].ID != keep.ID {
		t.Fatalf("expected only %s active, got %d rows", keep.ID, len(list))
	}
}

func TestConversationRepo_ClearFolder(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	convRepo := repos.NewConversationRepo(db, testutil.Logger(t))

	u := testutil.SeedUser(t, ctx, tx, "folders@test.local")
	f := testutil.SeedFolder(t, ctx, tx, u.ID, "work")

	c := testutil.SeedConversation(t, ctx, tx, u.ID)
	if err := convRepo.UpdateFields(dbc, c.ID, map[string]interface{}{"folder_id": f.ID}); err != nil {
		t.Fatalf("assign folder: %v", err)
	}

	if err := convRepo.ClearFolder(dbc, f.ID); err != nil {
		t.Fatalf("ClearFolder: %v", err)
	}

	var reloaded types.Conversation
	if err := tx.WithContext(ctx).First(&reloaded, "id = ?", c.ID).Error; err != nil {
		t.Fatalf("reload conversation: %v", err)
	}
	if reloaded.FolderID != nil {
		t.Fatalf("expected folder_id cleared, got %v", reloaded.FolderID)
	}
}
