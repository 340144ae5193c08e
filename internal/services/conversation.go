package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/orcha-ai/orcha-backend/internal/data/repos"
	"github.com/orcha-ai/orcha-backend/internal/pkg/dbctx"
	"github.com/orcha-ai/orcha-backend/internal/pkg/logger"
	"github.com/orcha-ai/orcha-backend/internal/types"
)

const titleMaxChars = 50

// AppendMessageInput is one message row to insert. Attachments and contexts
// are persisted as opaque JSON blobs on the row.
type AppendMessageInput struct {
	ConversationID uuid.UUID
	Role           string
	Content        string
	Attachments    any
	TokenCount     int
	ModelUsed      string
	ErrorMessage   string
	RagContexts    any
}

// ConversationSummary is the list-view projection.
type ConversationSummary struct {
	Conversation *types.Conversation `json:"conversation"`
	MessageCount int64               `json:"message_count"`
}

type ConversationService interface {
	// ResolveOrCreate returns the caller's active conversation when the id
	// resolves, otherwise creates a fresh one. A supplied id that does not
	// resolve is logged and treated as "create new", favoring availability
	// over strictness.
	ResolveOrCreate(ctx context.Context, userID uuid.UUID, conversationID *uuid.UUID, tenantID string) (conv *types.Conversation, created bool, err error)

	// AppendMessage inserts the row with the next sequence number. The
	// conversation row is locked for the duration so concurrent turns cannot
	// allocate the same seq.
	AppendMessage(ctx context.Context, in AppendMessageInput) (*types.ChatMessage, error)

	// HistoryBefore loads up to the 10 user/assistant messages immediately
	// preceding the given seq, in chronological order.
	HistoryBefore(ctx context.Context, conversationID uuid.UUID, beforeSeq int64) ([]*types.ChatMessage, error)

	// MaybeSetTitle sets the title from the first user message, only while
	// the conversation holds at most one full exchange and has no title yet.
	// Idempotent no-op otherwise.
	MaybeSetTitle(ctx context.Context, conversationID uuid.UUID, candidate string) error

	Touch(ctx context.Context, conversationID uuid.UUID) error

	List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]ConversationSummary, error)
	Detail(ctx context.Context, userID, conversationID uuid.UUID) (*types.Conversation, []*types.ChatMessage, error)
	Rename(ctx context.Context, userID, conversationID uuid.UUID, title string) error
	SoftDelete(ctx context.Context, userID, conversationID uuid.UUID) error

	// MoveToFolder assigns the conversation to one of the caller's folders,
	// or clears the assignment when folderID is nil.
	MoveToFolder(ctx context.Context, userID, conversationID uuid.UUID, folderID *uuid.UUID) error
}

type conversationService struct {
	db          *gorm.DB
	log         *logger.Logger
	convRepo    repos.ConversationRepo
	messageRepo repos.MessageRepo
	folderRepo  repos.FolderRepo
}

func NewConversationService(db *gorm.DB, log *logger.Logger, convRepo repos.ConversationRepo, messageRepo repos.MessageRepo, folderRepo repos.FolderRepo) ConversationService {
	return &conversationService{
		db:          db,
		log:         log.With("service", "ConversationService"),
		convRepo:    convRepo,
		messageRepo: messageRepo,
		folderRepo:  folderRepo,
	}
}

func (s *conversationService) ResolveOrCreate(ctx context.Context, userID uuid.UUID, conversationID *uuid.UUID, tenantID string) (*types.Conversation, bool, error) {
	dbc := dbctx.Context{Ctx: ctx}

	if conversationID != nil && *conversationID != uuid.Nil {
		conv, err := s.convRepo.GetActiveForUser(dbc, *conversationID, userID)
		if err != nil {
			return nil, false, err
		}
		if conv != nil {
			return conv, false, nil
		}
		s.log.Warn("conversation not found for user, creating new",
			"conversation_id", conversationID.String(),
			"user_id", userID.String(),
		)
	}

	conv := &types.Conversation{
		ID:       uuid.New(),
		UserID:   userID,
		TenantID: tenantID,
		IsActive: true,
	}
	if _, err := s.convRepo.Create(dbc, []*types.Conversation{conv}); err != nil {
		return nil, false, err
	}
	s.log.Info("created conversation", "conversation_id", conv.ID.String(), "user_id", userID.String())
	return conv, true, nil
}

func (s *conversationService) AppendMessage(ctx context.Context, in AppendMessageInput) (*types.ChatMessage, error) {
	if in.ConversationID == uuid.Nil {
		return nil, fmt.Errorf("missing conversation_id")
	}

	var created *types.ChatMessage
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}

		conv, err := s.convRepo.LockByID(dbc, in.ConversationID)
		if err != nil {
			return err
		}
		if conv == nil {
			return fmt.Errorf("conversation %s not found", in.ConversationID)
		}

		maxSeq, err := s.messageRepo.GetMaxSeq(dbc, in.ConversationID)
		if err != nil {
			return err
		}

		row := &types.ChatMessage{
			ID:             uuid.New(),
			ConversationID: in.ConversationID,
			Seq:            maxSeq + 1,
			Role:           in.Role,
			Content:        in.Content,
			TokenCount:     in.TokenCount,
			ModelUsed:      in.ModelUsed,
			ErrorMessage:   in.ErrorMessage,
		}
		if in.Attachments != nil {
			raw, err := json.Marshal(in.Attachments)
			if err != nil {
				return fmt.Errorf("marshal attachments: %w", err)
			}
			row.Attachments = datatypes.JSON(raw)
		}
		if in.RagContexts != nil {
			raw, err := json.Marshal(in.RagContexts)
			if err != nil {
				return fmt.Errorf("marshal contexts: %w", err)
			}
			row.RagContexts = datatypes.JSON(raw)
		}

		if _, err := s.messageRepo.Create(dbc, []*types.ChatMessage{row}); err != nil {
			return err
		}
		created = row
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *conversationService) HistoryBefore(ctx context.Context, conversationID uuid.UUID, beforeSeq int64) ([]*types.ChatMessage, error) {
	dbc := dbctx.Context{Ctx: ctx}
	msgs, err := s.messageRepo.ListBeforeSeq(dbc, conversationID, beforeSeq, historyMessagesInPrompt)
	if err != nil {
		return nil, err
	}
	out := make([]*types.ChatMessage, 0, len(msgs))
	for _, m := range msgs {
		if m.Role == types.RoleUser || m.Role == types.RoleAssistant {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *conversationService) MaybeSetTitle(ctx context.Context, conversationID uuid.UUID, candidate string) error {
	var titled bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txc := dbctx.Context{Ctx: ctx, Tx: tx}

		conv, err := s.convRepo.LockByID(txc, conversationID)
		if err != nil {
			return err
		}
		if conv == nil || conv.Title != nil {
			return nil
		}

		count, err := s.messageRepo.CountByConversation(txc, conversationID)
		if err != nil {
			return err
		}
		// Only the first exchange (one user + one assistant turn) titles the
		// conversation.
		if count > 2 {
			return nil
		}

		title := TitleFromMessage(candidate)
		if title == "" {
			return nil
		}
		if err := s.convRepo.UpdateFields(txc, conversationID, map[string]interface{}{"title": title}); err != nil {
			return err
		}
		titled = true
		return nil
	})
	if err != nil {
		return err
	}
	if titled {
		s.log.Info("auto-generated conversation title", "conversation_id", conversationID.String())
	}
	return nil
}

// TitleFromMessage derives the auto-generated title: the first 50 characters
// of the message, with an ellipsis when truncated.
func TitleFromMessage(message string) string {
	runes := []rune(message)
	if len(runes) > titleMaxChars {
		return string(runes[:titleMaxChars]) + "..."
	}
	return message
}

func (s *conversationService) Touch(ctx context.Context, conversationID uuid.UUID) error {
	dbc := dbctx.Context{Ctx: ctx}
	return s.convRepo.UpdateFields(dbc, conversationID, map[string]interface{}{
		"updated_at": time.Now().UTC(),
	})
}

func (s *conversationService) List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]ConversationSummary, error) {
	dbc := dbctx.Context{Ctx: ctx}
	convs, err := s.convRepo.ListActiveByUser(dbc, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	out := make([]ConversationSummary, 0, len(convs))
	for _, c := range convs {
		count, err := s.messageRepo.CountByConversation(dbc, c.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, ConversationSummary{Conversation: c, MessageCount: count})
	}
	return out, nil
}

func (s *conversationService) Detail(ctx context.Context, userID, conversationID uuid.UUID) (*types.Conversation, []*types.ChatMessage, error) {
	dbc := dbctx.Context{Ctx: ctx}
	conv, err := s.convRepo.GetActiveForUser(dbc, conversationID, userID)
	if err != nil {
		return nil, nil, err
	}
	if conv == nil {
		return nil, nil, nil
	}
	msgs, err := s.messageRepo.ListByConversation(dbc, conversationID, 500, 0)
	if err != nil {
		return nil, nil, err
	}
	return conv, msgs, nil
}

func (s *conversationService) Rename(ctx context.Context, userID, conversationID uuid.UUID, title string) error {
	dbc := dbctx.Context{Ctx: ctx}
	conv, err := s.convRepo.GetActiveForUser(dbc, conversationID, userID)
	if err != nil {
		return err
	}
	if conv == nil {
		return fmt.Errorf("conversation %s not found", conversationID)
	}
	return s.convRepo.UpdateFields(dbc, conversationID, map[string]interface{}{"title": title})
}

func (s *conversationService) MoveToFolder(ctx context.Context, userID, conversationID uuid.UUID, folderID *uuid.UUID) error {
	dbc := dbctx.Context{Ctx: ctx}
	conv, err := s.convRepo.GetActiveForUser(dbc, conversationID, userID)
	if err != nil {
		return err
	}
	if conv == nil {
		return fmt.Errorf("conversation %s not found", conversationID)
	}
	if folderID != nil {
		folder, err := s.folderRepo.GetForUser(dbc, *folderID, userID)
		if err != nil {
			return err
		}
		if folder == nil {
			return fmt.Errorf("folder %s not found", *folderID)
		}
	}
	return s.convRepo.UpdateFields(dbc, conversationID, map[string]interface{}{"folder_id": folderID})
}

func (s *conversationService) SoftDelete(ctx context.Context, userID, conversationID uuid.UUID) error {
	dbc := dbctx.Context{Ctx: ctx}
	conv, err := s.convRepo.GetActiveForUser(dbc, conversationID, userID)
	if err != nil {
		return err
	}
	if conv == nil {
		return fmt.Errorf("conversation %s not found", conversationID)
	}
	return s.convRepo.UpdateFields(dbc, conversationID, map[string]interface{}{"is_active": false})
}
