package types

import (
	"time"

	"github.com/google/uuid"
)

type Conversation struct {
	ID     uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`

	// Nil until auto-generated from the first exchange; set at most once.
	Title    *string `gorm:"type:varchar(200)" json:"title,omitempty"`
	TenantID string  `gorm:"type:varchar(100);index" json:"tenant_id,omitempty"`

	FolderID *uuid.UUID `gorm:"type:uuid;index" json:"folder_id,omitempty"`

	IsActive  bool      `gorm:"not null;default:true;index" json:"is_active"`
	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now();index" json:"updated_at"`
}

func (Conversation) TableName() string { return "conversations" }
