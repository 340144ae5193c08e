package repos_test

import (
	"context"
	"testing"

	"github.com/orcha-ai/orcha-backend/internal/data/repos"
	"github.com/orcha-ai/orcha-backend/internal/data/repos/testutil"
	"github.com/orcha-ai/orcha-backend/internal/pkg/dbctx"
	"github.com/orcha-ai/orcha-backend/internal/types"
)

func TestMessageRepo_GetMaxSeq(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	repo := repos.NewMessageRepo(db, testutil.Logger(t))

	u := testutil.SeedUser(t, ctx, tx, "maxseq@test.local")
	c := testutil.SeedConversation(t, ctx, tx, u.ID)

	maxSeq, err := repo.GetMaxSeq(dbc, c.ID)
	if err != nil {
		t.Fatalf("GetMaxSeq empty: %v", err)
	}
	if maxSeq != 0 {
		t.Fatalf("expected max seq 0 for empty conversation, got %d", maxSeq)
	}

	testutil.SeedMessage(t, ctx, tx, c.ID, 1, types.RoleUser)
	testutil.SeedMessage(t, ctx, tx, c.ID, 2, types.RoleAssistant)
	testutil.SeedMessage(t, ctx, tx, c.ID, 3, types.RoleUser)

	maxSeq, err = repo.GetMaxSeq(dbc, c.ID)
	if err != nil {
		t.Fatalf("GetMaxSeq: %v", err)
	}
	if maxSeq != 3 {
		t.Fatalf("expected max seq 3, got %d", maxSeq)
	}
}

func TestMessageRepo_ListBeforeSeq(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	repo := repos.NewMessageRepo(db, testutil.Logger(t))

	u := testutil.SeedUser(t, ctx, tx, "history@test.local")
	c := testutil.SeedConversation(t, ctx, tx, u.ID)
	for seq := int64(1); seq <= 6; seq++ {
		role := types.RoleUser
		if seq%2 == 0 {
			role = types.RoleAssistant
		}
		testutil.SeedMessage(t, ctx, tx, c.ID, seq, role)
	}

	out, err := repo.ListBeforeSeq(dbc, c.ID, 6, 3)
	if err != nil {
		t.Fatalf("ListBeforeSeq: %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(out))
	}
	// Newest 3 below seq 6, returned oldest first.
	want := []int64{3, 4, 5}
	for i, m := range out {
		if m.Seq != want[i] {
			t.Fatalf("position %d: expected seq %d, got %d", i, want[i], m.Seq)
		}
	}
}

func TestMessageRepo_CountByConversation(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	repo := repos.NewMessageRepo(db, testutil.Logger(t))

	u := testutil.SeedUser(t, ctx, tx, "count@test.local")
	c := testutil.SeedConversation(t, ctx, tx, u.ID)
	testutil.SeedMessage(t, ctx, tx, c.ID, 1, types.RoleUser)
	testutil.SeedMessage(t, ctx, tx, c.ID, 2, types.RoleAssistant)

	n, err := repo.CountByConversation(dbc, c.ID)
	if err != nil {
		t.Fatalf("CountByConversation: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 messages, got %d", n)
	}
}
