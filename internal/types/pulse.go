package types

import (
	"time"

	"github.com/google/uuid"
)

// Pulse is the latest generated daily digest for a user. At most one row per user.
type Pulse struct {
	ID     uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`

	Content string `gorm:"type:text;not null" json:"content"`

	GeneratedAt           time.Time `gorm:"not null;default:now()" json:"generated_at"`
	ConversationsAnalyzed int       `gorm:"not null;default:0" json:"conversations_analyzed"`
	MessagesAnalyzed      int       `gorm:"not null;default:0" json:"messages_analyzed"`
	NextGeneration        time.Time `gorm:"not null;index" json:"next_generation"`
}

func (Pulse) TableName() string { return "pulses" }
