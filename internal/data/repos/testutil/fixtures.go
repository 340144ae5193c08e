package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/orcha-ai/orcha-backend/internal/types"
)

func SeedUser(tb testing.TB, ctx context.Context, tx *gorm.DB, email string) *types.User {
	tb.Helper()
	u := &types.User{
		ID:       uuid.New(),
		Username: email,
		Email:    email,
		Password: "pw",
		IsActive: true,
		PlanType: "free",
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

func SeedConversation(tb testing.TB, ctx context.Context, tx *gorm.DB, userID uuid.UUID) *types.Conversation {
	tb.Helper()
	c := &types.Conversation{
		ID:       uuid.New(),
		UserID:   userID,
		IsActive: true,
	}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed conversation: %v", err)
	}
	return c
}

func SeedMessage(tb testing.TB, ctx context.Context, tx *gorm.DB, conversationID uuid.UUID, seq int64, role string) *types.ChatMessage {
	tb.Helper()
	m := &types.ChatMessage{
		ID:             uuid.New(),
		ConversationID: conversationID,
		Seq:            seq,
		Role:           role,
		Content:        fmt.Sprintf("message %d", seq),
	}
	if err := tx.WithContext(ctx).Create(m).Error; err != nil {
		tb.Fatalf("seed message: %v", err)
	}
	return m
}

func SeedMemory(tb testing.TB, ctx context.Context, tx *gorm.DB, userID uuid.UUID, content string) *types.UserMemory {
	tb.Helper()
	mem := &types.UserMemory{
		ID:       uuid.New(),
		UserID:   userID,
		Content:  content,
		Source:   types.MemorySourceManual,
		IsActive: true,
	}
	if err := tx.WithContext(ctx).Create(mem).Error; err != nil {
		tb.Fatalf("seed memory: %v", err)
	}
	return mem
}

func SeedFolder(tb testing.TB, ctx context.Context, tx *gorm.DB, userID uuid.UUID, name string) *types.Folder {
	tb.Helper()
	f := &types.Folder{
		ID:     uuid.New(),
		UserID: userID,
		Name:   name,
	}
	if err := tx.WithContext(ctx).Create(f).Error; err != nil {
		tb.Fatalf("seed folder: %v", err)
	}
	return f
}

func SeedTokenUsage(tb testing.TB, ctx context.Context, tx *gorm.DB, userID uuid.UUID, total int64, resetAt time.Time) *types.TokenUsage {
	tb.Helper()
	tu := &types.TokenUsage{
		UserID:      userID,
		TotalTokens: total,
		ResetAt:     resetAt,
		LastUpdated: time.Now().UTC(),
	}
	if err := tx.WithContext(ctx).Create(tu).Error; err != nil {
		tb.Fatalf("seed token usage: %v", err)
	}
	return tu
}
