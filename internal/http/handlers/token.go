package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/orcha-ai/orcha-backend/internal/http/response"
	"github.com/orcha-ai/orcha-backend/internal/services"
)

type TokenHandler struct {
	tokens services.TokenTracker
}

func NewTokenHandler(tokens services.TokenTracker) *TokenHandler {
	return &TokenHandler{tokens: tokens}
}

func (h *TokenHandler) Usage(c *gin.Context) {
	userID, err := pathUUID(c, "userID")
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	info, err := h.tokens.Get(c.Request.Context(), userID)
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, "usage_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"user_id": userID.String(), "usage": info})
}

func (h *TokenHandler) Reset(c *gin.Context) {
	userID, err := pathUUID(c, "userID")
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	if err := h.tokens.Reset(c.Request.Context(), userID); err != nil {
		response.RespondError(c, http.StatusInternalServerError, "reset_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true, "user_id": userID.String()})
}
