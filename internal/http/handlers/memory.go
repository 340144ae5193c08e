package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/orcha-ai/orcha-backend/internal/http/response"
	"github.com/orcha-ai/orcha-backend/internal/services"
)

type MemoryHandler struct {
	memories services.MemoryService
}

func NewMemoryHandler(memories services.MemoryService) *MemoryHandler {
	return &MemoryHandler{memories: memories}
}

func (h *MemoryHandler) List(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", err)
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	memories, err := h.memories.List(c.Request.Context(), userID, limit, offset)
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, "list_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"memories": memories})
}

func (h *MemoryHandler) Create(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", err)
		return
	}
	var body struct {
		Title   string `json:"title"`
		Content string `json:"content"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	memory, err := h.memories.Create(c.Request.Context(), userID, body.Title, body.Content)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "create_failed", err)
		return
	}
	response.RespondCreated(c, gin.H{"memory": memory})
}

func (h *MemoryHandler) Delete(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", err)
		return
	}
	memoryID, err := pathUUID(c, "id")
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	if err := h.memories.SoftDelete(c.Request.Context(), userID, memoryID); err != nil {
		response.RespondError(c, http.StatusNotFound, "delete_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}
