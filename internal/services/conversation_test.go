package services_test

import (
	"context"
	"testing"

	"gorm.io/gorm"

	"github.com/orcha-ai/orcha-backend/internal/data/repos"
	"github.com/orcha-ai/orcha-backend/internal/data/repos/testutil"
	"github.com/orcha-ai/orcha-backend/internal/services"
	"github.com/orcha-ai/orcha-backend/internal/types"
)

func newConversationService(t *testing.T, tx *gorm.DB) services.ConversationService {
	t.Helper()
	log := testutil.Logger(t)
	return services.NewConversationService(
		tx,
		log,
		repos.NewConversationRepo(tx, log),
		repos.NewMessageRepo(tx, log),
		repos.NewFolderRepo(tx, log),
	)
}

func TestConversationService_MaybeSetTitleIdempotent(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()

	svc := newConversationService(t, tx)

	owner := testutil.SeedUser(t, ctx, tx, "titles@test.local")
	conv := testutil.SeedConversation(t, ctx, tx, owner.ID)
	testutil.SeedMessage(t, ctx, tx, conv.ID, 1, types.RoleUser)
	testutil.SeedMessage(t, ctx, tx, conv.ID, 2, types.RoleAssistant)

	if err := svc.MaybeSetTitle(ctx, conv.ID, "what is my deductible?"); err != nil {
		t.Fatalf("MaybeSetTitle: %v", err)
	}

	var got types.Conversation
	if err := tx.WithContext(ctx).First(&got, "id = ?", conv.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got.Title == nil || *got.Title != "what is my deductible?" {
		t.Fatalf("title = %v, want the first user message", got.Title)
	}

	// A second call must not overwrite the existing title.
	if err := svc.MaybeSetTitle(ctx, conv.ID, "a different candidate"); err != nil {
		t.Fatalf("MaybeSetTitle second call: %v", err)
	}
	if err := tx.WithContext(ctx).First(&got, "id = ?", conv.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got.Title == nil || *got.Title != "what is my deductible?" {
		t.Fatalf("title changed on second call: %v", got.Title)
	}
}

func TestConversationService_MaybeSetTitleSkipsLongThreads(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()

	svc := newConversationService(t, tx)

	owner := testutil.SeedUser(t, ctx, tx, "longthread@test.local")
	conv := testutil.SeedConversation(t, ctx, tx, owner.ID)
	for seq := int64(1); seq <= 3; seq++ {
		role := types.RoleUser
		if seq%2 == 0 {
			role = types.RoleAssistant
		}
		testutil.SeedMessage(t, ctx, tx, conv.ID, seq, role)
	}

	if err := svc.MaybeSetTitle(ctx, conv.ID, "too late for a title"); err != nil {
		t.Fatalf("MaybeSetTitle: %v", err)
	}

	var got types.Conversation
	if err := tx.WithContext(ctx).First(&got, "id = ?", conv.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got.Title != nil {
		t.Fatalf("threads past the first exchange must not be titled, got %q", *got.Title)
	}
}
