package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/orcha-ai/orcha-backend/internal/http/response"
	"github.com/orcha-ai/orcha-backend/internal/services"
)

type ConversationHandler struct {
	conversations services.ConversationService
}

func NewConversationHandler(conversations services.ConversationService) *ConversationHandler {
	return &ConversationHandler{conversations: conversations}
}

func (h *ConversationHandler) List(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", err)
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	summaries, err := h.conversations.List(c.Request.Context(), userID, limit, offset)
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, "list_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"conversations": summaries})
}

func (h *ConversationHandler) Get(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", err)
		return
	}
	convID, err := pathUUID(c, "id")
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}

	conv, messages, err := h.conversations.Detail(c.Request.Context(), userID, convID)
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, "detail_failed", err)
		return
	}
	if conv == nil {
		response.RespondError(c, http.StatusNotFound, "not_found", errNotFound("conversation"))
		return
	}
	response.RespondOK(c, gin.H{"conversation": conv, "messages": messages})
}

type conversationUpdateBody struct {
	Title    *string `json:"title"`
	FolderID *string `json:"folder_id"`
}

func (h *ConversationHandler) Update(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", err)
		return
	}
	convID, err := pathUUID(c, "id")
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	var body conversationUpdateBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	ctx := c.Request.Context()
	if body.Title != nil {
		if err := h.conversations.Rename(ctx, userID, convID, *body.Title); err != nil {
			response.RespondError(c, http.StatusBadRequest, "rename_failed", err)
			return
		}
	}
	if body.FolderID != nil {
		var folderID *uuid.UUID
		if *body.FolderID != "" {
			id, err := uuid.Parse(*body.FolderID)
			if err != nil {
				response.RespondError(c, http.StatusBadRequest, "invalid_folder_id", err)
				return
			}
			folderID = &id
		}
		if err := h.conversations.MoveToFolder(ctx, userID, convID, folderID); err != nil {
			response.RespondError(c, http.StatusBadRequest, "move_failed", err)
			return
		}
	}
	response.RespondOK(c, gin.H{"ok": true})
}

func (h *ConversationHandler) Delete(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", err)
		return
	}
	convID, err := pathUUID(c, "id")
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	if err := h.conversations.SoftDelete(c.Request.Context(), userID, convID); err != nil {
		response.RespondError(c, http.StatusNotFound, "delete_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}
