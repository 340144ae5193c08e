package repos

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/orcha-ai/orcha-backend/internal/pkg/dbctx"
	"github.com/orcha-ai/orcha-backend/internal/pkg/logger"
	"github.com/orcha-ai/orcha-backend/internal/types"
)

type MemoryRepo interface {
	Create(dbc dbctx.Context, rows []*types.UserMemory) ([]*types.UserMemory, error)
	// ListRecentActive returns the newest active memories first.
	ListRecentActive(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*types.UserMemory, error)
	ListActiveByUser(dbc dbctx.Context, userID uuid.UUID, limit, offset int) ([]*types.UserMemory, error)
	GetActiveForUser(dbc dbctx.Context, id, userID uuid.UUID) (*types.UserMemory, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
}

type memoryRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMemoryRepo(db *gorm.DB, log *logger.Logger) MemoryRepo {
	return &memoryRepo{db: db, log: log.With("repo", "MemoryRepo")}
}

func (r *memoryRepo) Create(dbc dbctx.Context, rows []*types.UserMemory) ([]*types.UserMemory, error) {
	if len(rows) == 0 {
		return []*types.UserMemory{}, nil
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	if err := txx.WithContext(dbc.Ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *memoryRepo) ListRecentActive(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*types.UserMemory, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("missing user_id")
	}
	if limit <= 0 || limit > 100 {
		limit = 5
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out []*types.UserMemory
	if err := txx.WithContext(dbc.Ctx).
		Where("user_id = ? AND is_active = ?", userID, true).
		Order("created_at DESC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *memoryRepo) ListActiveByUser(dbc dbctx.Context, userID uuid.UUID, limit, offset int) ([]*types.UserMemory, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("missing user_id")
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out []*types.UserMemory
	if err := txx.WithContext(dbc.Ctx).
		Where("user_id = ? AND is_active = ?", userID, true).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *memoryRepo) GetActiveForUser(dbc dbctx.Context, id, userID uuid.UUID) (*types.UserMemory, error) {
	if id == uuid.Nil || userID == uuid.Nil {
		return nil, fmt.Errorf("missing id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out []*types.UserMemory
	if err := txx.WithContext(dbc.Ctx).
		Where("id = ? AND user_id = ? AND is_active = ?", id, userID, true).
		Limit(1).
		Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *memoryRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	if id == uuid.Nil {
		return fmt.Errorf("missing id")
	}
	if len(updates) == 0 {
		return nil
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	return txx.WithContext(dbc.Ctx).
		Model(&types.UserMemory{}).
		Where("id = ?", id).
		Updates(updates).Error
}
