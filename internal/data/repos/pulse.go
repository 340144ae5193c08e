package repos

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/orcha-ai/orcha-backend/internal/pkg/dbctx"
	"github.com/orcha-ai/orcha-backend/internal/pkg/logger"
	"github.com/orcha-ai/orcha-backend/internal/types"
)

type PulseRepo interface {
	// GetByUserID returns nil (no error) when the user has no pulse yet.
	GetByUserID(dbc dbctx.Context, userID uuid.UUID) (*types.Pulse, error)
	Create(dbc dbctx.Context, row *types.Pulse) error
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	// ListDueUserIDs returns users whose pulse regeneration deadline has passed.
	ListDueUserIDs(dbc dbctx.Context, now time.Time) ([]uuid.UUID, error)
}

type pulseRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPulseRepo(db *gorm.DB, log *logger.Logger) PulseRepo {
	return &pulseRepo{db: db, log: log.With("repo", "PulseRepo")}
}

func (r *pulseRepo) GetByUserID(dbc dbctx.Context, userID uuid.UUID) (*types.Pulse, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("missing user_id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out []*types.Pulse
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

func (r *pulseRepo) Create(dbc dbctx.Context, row *types.Pulse) error {
	if row == nil || row.UserID == uuid.Nil {
		return fmt.Errorf("missing user_id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	return txx.WithContext(dbc.Ctx).Create(row).Error
}

func (r *pulseRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
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
		Model(&types.Pulse{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *pulseRepo) ListDueUserIDs(dbc dbctx.Context, now time.Time) ([]uuid.UUID, error) {
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var ids []uuid.UUID
	if err := txx.WithContext(dbc.Ctx).
		Model(&types.Pulse{}).
		Where("next_generation <= ?", now).
		Pluck("user_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}
