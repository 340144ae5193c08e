package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/orcha-ai/orcha-backend/internal/http/response"
	"github.com/orcha-ai/orcha-backend/internal/services"
)

type FolderHandler struct {
	folders services.FolderService
}

func NewFolderHandler(folders services.FolderService) *FolderHandler {
	return &FolderHandler{folders: folders}
}

func (h *FolderHandler) Create(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", err)
		return
	}
	var body struct {
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	folder, err := h.folders.Create(c.Request.Context(), userID, body.Name)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "create_failed", err)
		return
	}
	response.RespondCreated(c, gin.H{"folder": folder})
}

func (h *FolderHandler) List(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", err)
		return
	}
	folders, err := h.folders.List(c.Request.Context(), userID)
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, "list_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"folders": folders})
}

func (h *FolderHandler) Rename(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", err)
		return
	}
	folderID, err := pathUUID(c, "id")
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	var body struct {
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if err := h.folders.Rename(c.Request.Context(), userID, folderID, body.Name); err != nil {
		response.RespondError(c, http.StatusBadRequest, "rename_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

func (h *FolderHandler) Delete(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", err)
		return
	}
	folderID, err := pathUUID(c, "id")
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	if err := h.folders.Delete(c.Request.Context(), userID, folderID); err != nil {
		response.RespondError(c, http.StatusNotFound, "delete_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}
