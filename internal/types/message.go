package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type ChatMessage struct {
	ID             uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ConversationID uuid.UUID `gorm:"type:uuid;not null;index;index:idx_chat_messages_conversation_seq,unique,priority:1" json:"conversation_id"`

	// Seq is the per-conversation insertion order. History queries compare on
	// seq, not created_at, since timestamps collide at sub-second granularity.
	Seq int64 `gorm:"column:seq;not null;index:idx_chat_messages_conversation_seq,unique,priority:2" json:"seq"`

	Role    string `gorm:"type:varchar(20);not null;index" json:"role"`
	Content string `gorm:"type:text;not null" json:"content"`

	Attachments  datatypes.JSON `gorm:"type:jsonb" json:"attachments,omitempty"`
	TokenCount   int            `gorm:"column:token_count" json:"token_count,omitempty"`
	ModelUsed    string         `gorm:"column:model_used;type:varchar(100)" json:"model_used,omitempty"`
	ErrorMessage string         `gorm:"column:error_message;type:text" json:"error_message,omitempty"`
	RagContexts  datatypes.JSON `gorm:"column:rag_contexts_used;type:jsonb" json:"rag_contexts_used,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now();index" json:"created_at"`
}

func (ChatMessage) TableName() string { return "chat_messages" }

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)
