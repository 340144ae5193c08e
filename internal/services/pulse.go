package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/orcha-ai/orcha-backend/internal/clients/llm"
	"github.com/orcha-ai/orcha-backend/internal/data/repos"
	"github.com/orcha-ai/orcha-backend/internal/pkg/dbctx"
	"github.com/orcha-ai/orcha-backend/internal/pkg/logger"
	"github.com/orcha-ai/orcha-backend/internal/types"
)

const pulseGenerationPrompt = `Your task is to generate a Professional Daily Pulse from the following chats, with the language that been used the most in these chats (French/English). Create a concise, structured summary focused exclusively on the user's professional activities and work-related conversations.

Focus on identifying:
Key Projects & Meetings: What were the main projects, meetings, or professional topics discussed?
Action Items & Deadlines: What are the specific tasks, follow-ups, or deadlines the user mentioned or was assigned?
Key Decisions & Insights: What important decisions were made, strategies discussed, or professional insights gained?
Strictly Ignore: All personal, casual, or non-work-related conversations (e.g., small talk, personal plans, general news).

Output format:
Professional Pulse - [Date]
Main Projects / Meetings:
- ...
Action Items / Deadlines:
- ...
Key Decisions & Insights:
- ...
Summary Context:
(Brief sentence describing the user's primary work focus or challenges for the day)

If there is nothing important, respond with "Nothing important for now."`

const (
	pulseEmptyFallback = "Nothing important for now."

	pulseConversationLimit = 5
	pulseMaxMessageChars   = 300
	// Conservative total context cap; oversized prompts draw 400s from the
	// completion server.
	pulseMaxContextChars = 4000

	pulseInterval   = 24 * time.Hour
	pulseGenTimeout = 120 * time.Second
)

type PulseService interface {
	// Get returns the stored pulse, or nil when none exists yet.
	Get(ctx context.Context, userID uuid.UUID) (*types.Pulse, error)
	// GetOrGenerate returns the stored pulse, generating one on demand for
	// users who have none.
	GetOrGenerate(ctx context.Context, userID uuid.UUID) (*types.Pulse, error)
	// Regenerate builds a fresh pulse and upserts the user's single row.
	Regenerate(ctx context.Context, userID uuid.UUID) (*types.Pulse, error)
}

type pulseService struct {
	db          *gorm.DB
	log         *logger.Logger
	pulseRepo   repos.PulseRepo
	convRepo    repos.ConversationRepo
	messageRepo repos.MessageRepo
	llm         llm.Client
}

func NewPulseService(
	db *gorm.DB,
	log *logger.Logger,
	pulseRepo repos.PulseRepo,
	convRepo repos.ConversationRepo,
	messageRepo repos.MessageRepo,
	llmClient llm.Client,
) PulseService {
	return &pulseService{
		db:          db,
		log:         log.With("service", "PulseService"),
		pulseRepo:   pulseRepo,
		convRepo:    convRepo,
		messageRepo: messageRepo,
		llm:         llmClient,
	}
}

func (s *pulseService) Get(ctx context.Context, userID uuid.UUID) (*types.Pulse, error) {
	return s.pulseRepo.GetByUserID(dbctx.Context{Ctx: ctx}, userID)
}

func (s *pulseService) GetOrGenerate(ctx context.Context, userID uuid.UUID) (*types.Pulse, error) {
	existing, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}
	return s.Regenerate(ctx, userID)
}

func (s *pulseService) Regenerate(ctx context.Context, userID uuid.UUID) (*types.Pulse, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("missing user_id")
	}

	content, convCount, msgCount, err := s.generate(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	nextGen := now.Add(pulseInterval)

	// Single row per user: create if absent, else overwrite in place.
	var saved *types.Pulse
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txc := dbctx.Context{Ctx: ctx, Tx: tx}
		existing, err := s.pulseRepo.GetByUserID(txc, userID)
		if err != nil {
			return err
		}
		if existing == nil {
			row := &types.Pulse{
				ID:                    uuid.New(),
				UserID:                userID,
				Content:               content,
				GeneratedAt:           now,
				ConversationsAnalyzed: convCount,
				MessagesAnalyzed:      msgCount,
				NextGeneration:        nextGen,
			}
			if err := s.pulseRepo.Create(txc, row); err != nil {
				return err
			}
			saved = row
			return nil
		}
		if err := s.pulseRepo.UpdateFields(txc, existing.ID, map[string]interface{}{
			"content":                content,
			"generated_at":           now,
			"conversations_analyzed": convCount,
			"messages_analyzed":      msgCount,
			"next_generation":        nextGen,
		}); err != nil {
			return err
		}
		existing.Content = content
		existing.GeneratedAt = now
		existing.ConversationsAnalyzed = convCount
		existing.MessagesAnalyzed = msgCount
		existing.NextGeneration = nextGen
		saved = existing
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("pulse saved",
		"user_id", userID.String(),
		"conversations_analyzed", convCount,
		"messages_analyzed", msgCount,
		"next_generation", nextGen.Format(time.RFC3339),
	)
	return saved, nil
}

// generate builds the analysis context from the user's recent activity and
// asks the model for the digest. It never returns an empty pulse; quiet
// periods produce the fixed fallback text.
func (s *pulseService) generate(ctx context.Context, userID uuid.UUID) (content string, convCount, msgCount int, err error) {
	dbc := dbctx.Context{Ctx: ctx}

	conversations, err := s.convRepo.ListRecentActiveByUser(dbc, userID, pulseConversationLimit)
	if err != nil {
		return "", 0, 0, err
	}
	if len(conversations) == 0 {
		return pulseEmptyFallback, 0, 0, nil
	}

	contextText, msgCount, err := s.buildContext(dbc, conversations)
	if err != nil {
		return "", 0, 0, err
	}
	if strings.TrimSpace(contextText) == "" {
		return pulseEmptyFallback, len(conversations), 0, nil
	}

	genCtx, cancel := context.WithTimeout(ctx, pulseGenTimeout)
	defer cancel()

	completion, err := s.llm.Complete(genCtx, "", []llm.Message{
		llm.TextMessage(types.RoleSystem, pulseGenerationPrompt),
		llm.TextMessage(types.RoleUser, "Here are all the conversations to analyze:\n"+contextText),
	}, 0)
	if err != nil {
		s.log.Error("pulse model call failed", "user_id", userID.String(), "error", err.Error())
		return "", 0, 0, err
	}

	if strings.TrimSpace(completion.Text) == "" {
		s.log.Warn("model returned empty pulse content", "user_id", userID.String())
		return pulseEmptyFallback, len(conversations), msgCount, nil
	}
	return completion.Text, len(conversations), msgCount, nil
}

func (s *pulseService) buildContext(dbc dbctx.Context, conversations []*types.Conversation) (string, int, error) {
	var b strings.Builder
	totalMessages := 0

	for _, conv := range conversations {
		messages, err := s.messageRepo.ListByConversation(dbc, conv.ID, 500, 0)
		if err != nil {
			return "", 0, err
		}
		if len(messages) == 0 {
			continue
		}
		totalMessages += len(messages)

		title := "Untitled Conversation"
		if conv.Title != nil && *conv.Title != "" {
			title = *conv.Title
		}
		fmt.Fprintf(&b, "\n\n=== Conversation: %s ===\nDate: %s\n\n", title, conv.CreatedAt.Format("2006-01-02 15:04"))

		capped := false
		for _, msg := range messages {
			if msg.Role != types.RoleUser && msg.Role != types.RoleAssistant {
				continue
			}
			roleLabel := "User"
			if msg.Role == types.RoleAssistant {
				roleLabel = "Orion"
			}
			content := msg.Content
			if truncated := headRunes(content, pulseMaxMessageChars); truncated != content {
				content = truncated + "... (truncated)"
			}
			fmt.Fprintf(&b, "%s: %s\n\n", roleLabel, content)

			if b.Len() > pulseMaxContextChars {
				b.WriteString("\n... (Additional conversations truncated to fit context limit)\n")
				capped = true
				break
			}
		}
		if capped {
			break
		}
	}

	return b.String(), totalMessages, nil
}
