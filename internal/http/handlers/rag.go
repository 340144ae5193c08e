package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/orcha-ai/orcha-backend/internal/clients/rag"
	"github.com/orcha-ai/orcha-backend/internal/http/response"
)

type RAGHandler struct {
	rag rag.Client
}

func NewRAGHandler(ragClient rag.Client) *RAGHandler {
	return &RAGHandler{rag: ragClient}
}

func (h *RAGHandler) Query(c *gin.Context) {
	var body struct {
		Query  string `json:"query"`
		K      int    `json:"k"`
		Rerank *bool  `json:"rerank"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if body.Query == "" {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", fmt.Errorf("query is required"))
		return
	}
	rerank := true
	if body.Rerank != nil {
		rerank = *body.Rerank
	}
	result, err := h.rag.Query(c.Request.Context(), body.Query, body.K, rerank)
	if err != nil {
		response.RespondError(c, http.StatusBadGateway, "rag_failed", err)
		return
	}
	response.RespondOK(c, result)
}

func (h *RAGHandler) Ingest(c *gin.Context) {
	var body struct {
		Source   string         `json:"source"`
		URI      string         `json:"uri"`
		Metadata map[string]any `json:"metadata"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if body.Source == "" || body.URI == "" {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", fmt.Errorf("source and uri are required"))
		return
	}
	result, err := h.rag.Ingest(c.Request.Context(), body.Source, body.URI, body.Metadata)
	if err != nil {
		response.RespondError(c, http.StatusBadGateway, "ingest_failed", err)
		return
	}
	response.RespondOK(c, result)
}
