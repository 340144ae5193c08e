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

type FolderService interface {
	Create(ctx context.Context, userID uuid.UUID, name string) (*types.Folder, error)
	List(ctx context.Context, userID uuid.UUID) ([]*types.Folder, error)
	Rename(ctx context.Context, userID, folderID uuid.UUID, name string) error
	// Delete removes the folder and nulls the folder link of member
	// conversations; the conversations themselves survive.
	Delete(ctx context.Context, userID, folderID uuid.UUID) error
}

type folderService struct {
	db         *gorm.DB
	log        *logger.Logger
	folderRepo repos.FolderRepo
	convRepo   repos.ConversationRepo
}

func NewFolderService(db *gorm.DB, log *logger.Logger, folderRepo repos.FolderRepo, convRepo repos.ConversationRepo) FolderService {
	return &folderService{
		db:         db,
		log:        log.With("service", "FolderService"),
		folderRepo: folderRepo,
		convRepo:   convRepo,
	}
}

func (s *folderService) Create(ctx context.Context, userID uuid.UUID, name string) (*types.Folder, error) {
	if name == "" {
		return nil, fmt.Errorf("name is required")
	}
	row := &types.Folder{
		ID:     uuid.New(),
		UserID: userID,
		Name:   name,
	}
	if _, err := s.folderRepo.Create(dbctx.Context{Ctx: ctx}, []*types.Folder{row}); err != nil {
		return nil, err
	}
	return row, nil
}

func (s *folderService) List(ctx context.Context, userID uuid.UUID) ([]*types.Folder, error) {
	return s.folderRepo.ListByUser(dbctx.Context{Ctx: ctx}, userID)
}

func (s *folderService) Rename(ctx context.Context, userID, folderID uuid.UUID, name string) error {
	if name == "" {
		return fmt.Errorf("name is required")
	}
	dbc := dbctx.Context{Ctx: ctx}
	folder, err := s.folderRepo.GetForUser(dbc, folderID, userID)
	if err != nil {
		return err
	}
	if folder == nil {
		return fmt.Errorf("folder %s not found", folderID)
	}
	return s.folderRepo.UpdateFields(dbc, folderID, map[string]interface{}{"name": name})
}

func (s *folderService) Delete(ctx context.Context, userID, folderID uuid.UUID) error {
	folder, err := s.folderRepo.GetForUser(dbctx.Context{Ctx: ctx}, folderID, userID)
	if err != nil {
		return err
	}
	if folder == nil {
		return fmt.Errorf("folder %s not found", folderID)
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txc := dbctx.Context{Ctx: ctx, Tx: tx}
		if err := s.convRepo.ClearFolder(txc, folderID); err != nil {
			return err
		}
		return s.folderRepo.DeleteByID(txc, folderID)
	})
}
