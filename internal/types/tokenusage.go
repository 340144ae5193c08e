package types

import (
	"time"

	"github.com/google/uuid"
)

// TokenUsage is the per-user rolling 24h counter. One row per user.
type TokenUsage struct {
	UserID      uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	TotalTokens int64     `gorm:"not null;default:0" json:"total_tokens"`
	ResetAt     time.Time `gorm:"not null" json:"reset_at"`
	LastUpdated time.Time `gorm:"not null;default:now()" json:"last_updated"`
}

func (TokenUsage) TableName() string { return "token_usage" }
