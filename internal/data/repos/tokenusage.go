package repos

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/orcha-ai/orcha-backend/internal/pkg/dbctx"
	"github.com/orcha-ai/orcha-backend/internal/pkg/logger"
	"github.com/orcha-ai/orcha-backend/internal/types"
)

type TokenUsageRepo interface {
	// GetByUserID returns nil (no error) when no row exists for the user.
	GetByUserID(dbc dbctx.Context, userID uuid.UUID) (*types.TokenUsage, error)
	// LockByUserID takes a row lock so concurrent turns cannot lose updates.
	LockByUserID(dbc dbctx.Context, userID uuid.UUID) (*types.TokenUsage, error)
	Create(dbc dbctx.Context, row *types.TokenUsage) error
	UpdateFields(dbc dbctx.Context, userID uuid.UUID, updates map[string]interface{}) error
	DeleteByUserID(dbc dbctx.Context, userID uuid.UUID) error
}

type tokenUsageRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTokenUsageRepo(db *gorm.DB, log *logger.Logger) TokenUsageRepo {
	return &tokenUsageRepo{db: db, log: log.With("repo", "TokenUsageRepo")}
}

func (r *tokenUsageRepo) GetByUserID(dbc dbctx.Context, userID uuid.UUID) (*types.TokenUsage, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("missing user_id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out []*types.TokenUsage
	if err := txx.WithContext(dbc.Ctx).
		Where("user_id = ?", userID).
		Limit(1).
		Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *tokenUsageRepo) LockByUserID(dbc dbctx.Context, userID uuid.UUID) (*types.TokenUsage, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("missing user_id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out []*types.TokenUsage
	if err := txx.WithContext(dbc.Ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).
		Limit(1).
		Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *tokenUsageRepo) Create(dbc dbctx.Context, row *types.TokenUsage) error {
	if row == nil || row.UserID == uuid.Nil {
		return fmt.Errorf("missing user_id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	return txx.WithContext(dbc.Ctx).Create(row).Error
}

func (r *tokenUsageRepo) UpdateFields(dbc dbctx.Context, userID uuid.UUID, updates map[string]interface{}) error {
	if userID == uuid.Nil {
		return fmt.Errorf("missing user_id")
	}
	if len(updates) == 0 {
		return nil
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	return txx.WithContext(dbc.Ctx).
		Model(&types.TokenUsage{}).
		Where("user_id = ?", userID).
		Updates(updates).Error
}

func (r *tokenUsageRepo) DeleteByUserID(dbc dbctx.Context, userID uuid.UUID) error {
	if userID == uuid.Nil {
		return fmt.Errorf("missing user_id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	return txx.WithContext(dbc.Ctx).
		Where("user_id = ?", userID).
		Delete(&types.TokenUsage{}).Error
}
