package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/orcha-ai/orcha-backend/internal/http/response"
	"github.com/orcha-ai/orcha-backend/internal/services"
)

type ChatHandler struct {
	orchestrator services.Orchestrator
}

func NewChatHandler(orchestrator services.Orchestrator) *ChatHandler {
	return &ChatHandler{orchestrator: orchestrator}
}

type chatRequestBody struct {
	Message        string                    `json:"message"`
	ConversationID *string                   `json:"conversation_id"`
	TenantID       string                    `json:"tenant_id"`
	Attachments    []services.Attachment     `json:"attachments"`
	UseRAG         bool                      `json:"use_rag"`
	UseWebSearch   bool                      `json:"use_web_search"`
	History        []services.HistoryMessage `json:"history"`
}

func (h *ChatHandler) Chat(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", err)
		return
	}

	var body chatRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	req := services.ChatRequest{
		UserID:       userID,
		TenantID:     body.TenantID,
		Message:      body.Message,
		Attachments:  body.Attachments,
		UseRAG:       body.UseRAG,
		UseWebSearch: body.UseWebSearch,
		History:      body.History,
	}
	// A malformed conversation id behaves like an unknown one: the turn
	// starts a new conversation rather than failing.
	if body.ConversationID != nil {
		if id, err := uuid.Parse(*body.ConversationID); err == nil {
			req.ConversationID = &id
		}
	}

	result, err := h.orchestrator.HandleChatTurn(c.Request.Context(), req)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "chat_failed", err)
		return
	}
	response.RespondOK(c, result)
}
