package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/orcha-ai/orcha-backend/internal/clients/llm"
	"github.com/orcha-ai/orcha-backend/internal/clients/ocr"
	"github.com/orcha-ai/orcha-backend/internal/clients/rag"
	"github.com/orcha-ai/orcha-backend/internal/clients/websearch"
	"github.com/orcha-ai/orcha-backend/internal/pkg/logger"
	"github.com/orcha-ai/orcha-backend/internal/types"
)

// Fixed user-visible strings. The end user never sees a raw error; the real
// failure text is kept server-side on the message row.
const (
	EmptyReplyFallback = "I apologize, but I couldn't generate a proper response. Please try again."
	ErrorSentinel      = "Sorry, I encountered an error processing your request. Please try again."
)

const retrievalTopK = 8

// HistoryMessage is a caller-supplied prior turn. When present, it replaces
// the store-loaded history for this turn.
type HistoryMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is one inbound chat turn.
type ChatRequest struct {
	UserID         uuid.UUID
	TenantID       string
	ConversationID *uuid.UUID
	Message        string
	Attachments    []Attachment
	UseRAG         bool
	UseWebSearch   bool
	History        []HistoryMessage
}

// ChatResult is the terminal state of a turn. Status is "ok" or "error";
// both carry the conversation id so the caller can retry on the same thread.
type ChatResult struct {
	Status         string         `json:"status"`
	Message        string         `json:"message"`
	ConversationID uuid.UUID      `json:"conversation_id"`
	Contexts       []rag.Context  `json:"contexts"`
	TokenUsage     TokenUsageInfo `json:"token_usage,omitempty"`
	ModelUsed      string         `json:"model_used,omitempty"`
	Error          string         `json:"error,omitempty"`

	AttachmentsProcessed int `json:"attachments_processed,omitempty"`
	IngestedDocuments    int `json:"ingested_documents,omitempty"`
	PDFTextLength        int `json:"pdf_text_length,omitempty"`
}

type Orchestrator interface {
	// HandleChatTurn runs the full turn state machine. Collaborator failures
	// never surface as an error return; the result's status reflects them.
	HandleChatTurn(ctx context.Context, req ChatRequest) (ChatResult, error)
}

type orchestrator struct {
	log *logger.Logger

	conversations ConversationService
	memories      MemoryService
	tokens        TokenTracker

	llm       llm.Client
	ocr       ocr.Client
	rag       rag.Client
	websearch websearch.Client // nil when not configured

	router   ModelRouter
	personas Personas
}

func NewOrchestrator(
	log *logger.Logger,
	conversations ConversationService,
	memories MemoryService,
	tokens TokenTracker,
	llmClient llm.Client,
	ocrClient ocr.Client,
	ragClient rag.Client,
	searchClient websearch.Client,
	personas Personas,
) Orchestrator {
	return &orchestrator{
		log:           log.With("service", "Orchestrator"),
		conversations: conversations,
		memories:      memories,
		tokens:        tokens,
		llm:           llmClient,
		ocr:           ocrClient,
		rag:           ragClient,
		websearch:     searchClient,
		router:        NewModelRouter(llmClient.DefaultModel(), llmClient.VisionModel()),
		personas:      personas,
	}
}

func (o *orchestrator) HandleChatTurn(ctx context.Context, req ChatRequest) (ChatResult, error) {
	if req.UserID == uuid.Nil {
		return ChatResult{}, fmt.Errorf("user_id is required")
	}
	if req.Message == "" {
		return ChatResult{}, fmt.Errorf("message is required")
	}

	// 1. Resolve or create the conversation.
	conv, _, err := o.conversations.ResolveOrCreate(ctx, req.UserID, req.ConversationID, req.TenantID)
	if err != nil {
		return ChatResult{}, err
	}

	// 2. Persist the inbound user turn. This commit is durable regardless of
	// what happens afterward.
	var attachmentsBlob any
	if len(req.Attachments) > 0 {
		attachmentsBlob = req.Attachments
	}
	userMsg, err := o.conversations.AppendMessage(ctx, AppendMessageInput{
		ConversationID: conv.ID,
		Role:           types.RoleUser,
		Content:        req.Message,
		Attachments:    attachmentsBlob,
	})
	if err != nil {
		return ChatResult{}, err
	}

	// 3. Classify attachments and process them. Per-attachment failures skip
	// that attachment, never the turn.
	cls := ClassifyAttachments(req.Attachments)
	useRAG := req.UseRAG

	documentText := ""
	for _, a := range cls.PDFs {
		text, err := ExtractPDFText(a.Data)
		if err != nil {
			o.log.Error("PDF extraction failed", "filename", a.Filename, "error", err.Error())
			continue
		}
		documentText += fmt.Sprintf("\n\n=== Document: %s ===\n%s\n=== End of %s ===\n", a.Filename, text, a.Filename)
	}

	ingested := 0
	for _, a := range cls.URIs {
		ocrResult, err := o.ocr.ExtractFromURI(ctx, a.URI, nil)
		if err != nil {
			o.log.Error("failed to process attachment", "uri", a.URI, "error", err.Error())
			continue
		}
		_, err = o.rag.Ingest(ctx, fmt.Sprintf("attachment_%s", req.UserID), a.URI, map[string]any{
			"user_id":          req.UserID.String(),
			"original_message": req.Message,
			"type":             a.Type,
			"ocr_text":         ocrResult.Text,
		})
		if err != nil {
			o.log.Error("failed to ingest attachment", "uri", a.URI, "error", err.Error())
			continue
		}
		ingested++
		// Legacy URI attachments force the retrieval path.
		useRAG = true
	}

	// 4. Retrieval contexts. Failure degrades to an empty context set.
	var contexts []rag.Context
	route := o.router.Decide(cls, useRAG)
	if route.Kind == RouteRetrieval {
		result, err := o.rag.Query(ctx, req.Message, retrievalTopK, true)
		if err != nil {
			o.log.Warn("RAG query failed", "error", err.Error())
		} else {
			contexts = result.Contexts
			o.log.Info("RAG returned contexts", "count", len(contexts))
		}
	}

	webSearchText := ""
	if req.UseWebSearch && o.websearch != nil {
		text, ok := o.websearch.SearchFormatted(ctx, req.Message, 5)
		webSearchText = text
		if !ok {
			o.log.Warn("web search degraded", "detail", text)
		}
	}

	// Memory and history loads are both best-effort.
	memories, err := o.memories.RecentForPrompt(ctx, req.UserID)
	if err != nil {
		o.log.Warn("failed to load memories", "error", err.Error())
		memories = nil
	}

	history := callerHistory(req.History)
	if history == nil {
		history, err = o.conversations.HistoryBefore(ctx, conv.ID, userMsg.Seq)
		if err != nil {
			o.log.Warn("failed to load conversation history", "error", err.Error())
			history = nil
		}
	}

	// 5. Assemble the prompt.
	visionImages := make([]VisionImage, 0, len(cls.Vision))
	for _, a := range cls.Vision {
		visionImages = append(visionImages, VisionImage{Data: a.Data, MimeType: a.Type, Filename: a.Filename})
	}
	messages := AssembleContext(AssembleInput{
		Personas:      o.personas,
		Message:       req.Message,
		Contexts:      contexts,
		WebSearchText: webSearchText,
		Memories:      memories,
		History:       history,
		DocumentText:  documentText,
		VisionImages:  visionImages,
	})

	// 6. The primary model call: one failure branch for every failure mode.
	completion, err := o.llm.Complete(ctx, route.Model, messages, route.MaxTokens)
	if err != nil {
		return o.failTurn(ctx, conv.ID, err), nil
	}

	reply := completion.Text
	if reply == "" {
		o.log.Warn("model returned empty message")
		reply = EmptyReplyFallback
	}

	var contextsBlob any
	if len(contexts) > 0 {
		contextsBlob = contexts
	}
	if _, err := o.conversations.AppendMessage(ctx, AppendMessageInput{
		ConversationID: conv.ID,
		Role:           types.RoleAssistant,
		Content:        reply,
		TokenCount:     completion.Usage.TotalTokens,
		ModelUsed:      completion.Model,
		RagContexts:    contextsBlob,
	}); err != nil {
		// The reply exists but could not be persisted; surface as a turn
		// failure so the thread stays consistent.
		return o.failTurn(ctx, conv.ID, err), nil
	}

	if IsMemoryExtractionRequest(req.Message) && reply != EmptyReplyFallback {
		if _, err := o.memories.StoreExtraction(ctx, req.UserID, conv.ID, reply); err != nil {
			o.log.Warn("failed to store extracted memory", "error", err.Error())
		}
	}

	if err := o.conversations.MaybeSetTitle(ctx, conv.ID, req.Message); err != nil {
		o.log.Warn("title update failed", "error", err.Error())
	}
	if err := o.conversations.Touch(ctx, conv.ID); err != nil {
		o.log.Warn("conversation touch failed", "error", err.Error())
	}

	var usage TokenUsageInfo
	if completion.Usage.TotalTokens > 0 {
		usage = o.tokens.Increment(ctx, req.UserID, int64(completion.Usage.TotalTokens))
	}

	result := ChatResult{
		Status:         "ok",
		Message:        reply,
		ConversationID: conv.ID,
		Contexts:       contexts,
		TokenUsage:     usage,
		ModelUsed:      completion.Model,
	}
	if len(req.Attachments) > 0 {
		result.AttachmentsProcessed = len(req.Attachments)
		result.IngestedDocuments = ingested
		result.PDFTextLength = len(documentText)
	}
	return result, nil
}

// failTurn is the single failure branch of step 6: store the sentinel reply
// with the real error on the row, touch the conversation, and return a
// degraded but well-formed result.
func (o *orchestrator) failTurn(ctx context.Context, conversationID uuid.UUID, cause error) ChatResult {
	o.log.Error("model call failed", "conversation_id", conversationID.String(), "error", cause.Error())

	if _, err := o.conversations.AppendMessage(ctx, AppendMessageInput{
		ConversationID: conversationID,
		Role:           types.RoleAssistant,
		Content:        ErrorSentinel,
		ErrorMessage:   cause.Error(),
	}); err != nil {
		o.log.Error("failed to store error message", "error", err.Error())
	}
	if err := o.conversations.Touch(ctx, conversationID); err != nil {
		o.log.Warn("conversation touch failed", "error", err.Error())
	}

	return ChatResult{
		Status:         "error",
		Message:        ErrorSentinel,
		ConversationID: conversationID,
		Error:          cause.Error(),
	}
}

func callerHistory(history []HistoryMessage) []*types.ChatMessage {
	if len(history) == 0 {
		return nil
	}
	out := make([]*types.ChatMessage, 0, len(history))
	for _, h := range history {
		if h.Role != types.RoleUser && h.Role != types.RoleAssistant {
			continue
		}
		out = append(out, &types.ChatMessage{Role: h.Role, Content: h.Content})
	}
	return out
}
