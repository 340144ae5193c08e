package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/orcha-ai/orcha-backend/internal/data/repos"
	"github.com/orcha-ai/orcha-backend/internal/pkg/dbctx"
	"github.com/orcha-ai/orcha-backend/internal/pkg/logger"
	"github.com/orcha-ai/orcha-backend/internal/types"
)

type MemoryService interface {
	// RecentForPrompt returns the newest active memories for the context
	// assembler (newest first; the assembler reorders within the block).
	RecentForPrompt(ctx context.Context, userID uuid.UUID) ([]*types.UserMemory, error)

	List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*types.UserMemory, error)
	Create(ctx context.Context, userID uuid.UUID, title, content string) (*types.UserMemory, error)
	SoftDelete(ctx context.Context, userID, memoryID uuid.UUID) error

	// StoreExtraction records the assistant reply of a memory-extraction
	// turn as a durable memory tied to its conversation.
	StoreExtraction(ctx context.Context, userID, conversationID uuid.UUID, content string) (*types.UserMemory, error)
}

type memoryService struct {
	db   *gorm.DB
	log  *logger.Logger
	repo repos.MemoryRepo
}

func NewMemoryService(db *gorm.DB, log *logger.Logger, repo repos.MemoryRepo) MemoryService {
	return &memoryService{
		db:   db,
		log:  log.With("service", "MemoryService"),
		repo: repo,
	}
}

func (s *memoryService) RecentForPrompt(ctx context.Context, userID uuid.UUID) ([]*types.UserMemory, error) {
	dbc := dbctx.Context{Ctx: ctx}
	return s.repo.ListRecentActive(dbc, userID, maxMemoriesInPrompt)
}

func (s *memoryService) List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*types.UserMemory, error) {
	dbc := dbctx.Context{Ctx: ctx}
	return s.repo.ListActiveByUser(dbc, userID, limit, offset)
}

func (s *memoryService) Create(ctx context.Context, userID uuid.UUID, title, content string) (*types.UserMemory, error) {
	if content == "" {
		return nil, fmt.Errorf("content is required")
	}
	dbc := dbctx.Context{Ctx: ctx}
	row := &types.UserMemory{
		ID:       uuid.New(),
		UserID:   userID,
		Title:    title,
		Content:  content,
		Source:   types.MemorySourceManual,
		IsActive: true,
	}
	if _, err := s.repo.Create(dbc, []*types.UserMemory{row}); err != nil {
		return nil, err
	}
	return row, nil
}

func (s *memoryService) SoftDelete(ctx context.Context, userID, memoryID uuid.UUID) error {
	dbc := dbctx.Context{Ctx: ctx}
	row, err := s.repo.GetActiveForUser(dbc, memoryID, userID)
	if err != nil {
		return err
	}
	if row == nil {
		return fmt.Errorf("memory %s not found", memoryID)
	}
	return s.repo.UpdateFields(dbc, memoryID, map[string]interface{}{"is_active": false})
}

func (s *memoryService) StoreExtraction(ctx context.Context, userID, conversationID uuid.UUID, content string) (*types.UserMemory, error) {
	if content == "" {
		return nil, fmt.Errorf("empty extraction")
	}
	dbc := dbctx.Context{Ctx: ctx}
	convID := conversationID
	row := &types.UserMemory{
		ID:             uuid.New(),
		UserID:         userID,
		Content:        content,
		ConversationID: &convID,
		Source:         types.MemorySourceExtraction,
		IsActive:       true,
	}
	if _, err := s.repo.Create(dbc, []*types.UserMemory{row}); err != nil {
		return nil, err
	}
	s.log.Info("stored extracted memory", "user_id", userID.String(), "conversation_id", conversationID.String())
	return row, nil
}
