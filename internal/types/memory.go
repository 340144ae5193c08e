package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// UserMemory is a durable user-scoped fact, distinct from per-conversation history.
type UserMemory struct {
	ID     uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`

	Content string `gorm:"type:text;not null" json:"content"`
	Title   string `gorm:"type:varchar(200)" json:"title,omitempty"`

	ConversationID *uuid.UUID     `gorm:"type:uuid" json:"conversation_id,omitempty"`
	Source         string         `gorm:"type:varchar(50);not null;default:'manual'" json:"source"`
	Tags           datatypes.JSON `gorm:"type:jsonb" json:"tags,omitempty"`

	IsActive  bool      `gorm:"not null;default:true;index" json:"is_active"`
	CreatedAt time.Time `gorm:"not null;default:now();index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (UserMemory) TableName() string { return "user_memories" }

const (
	MemorySourceManual     = "manual"
	MemorySourceExtraction = "auto_extraction"
	MemorySourceImport     = "import"
)
