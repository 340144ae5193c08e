package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/orcha-ai/orcha-backend/internal/clients/llm"
	"github.com/orcha-ai/orcha-backend/internal/http/response"
)

type ModelsHandler struct {
	llm llm.Client
}

func NewModelsHandler(llmClient llm.Client) *ModelsHandler {
	return &ModelsHandler{llm: llmClient}
}

func (h *ModelsHandler) List(c *gin.Context) {
	models, err := h.llm.ListModels(c.Request.Context())
	if err != nil {
		response.RespondError(c, http.StatusBadGateway, "models_failed", err)
		return
	}
	response.RespondOK(c, gin.H{
		"models":        models,
		"default_model": h.llm.DefaultModel(),
		"vision_model":  h.llm.VisionModel(),
	})
}
