package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/orcha-ai/orcha-backend/internal/clients/websearch"
	"github.com/orcha-ai/orcha-backend/internal/http/response"
)

type SearchHandler struct {
	search websearch.Client // nil when not configured
}

func NewSearchHandler(search websearch.Client) *SearchHandler {
	return &SearchHandler{search: search}
}

func (h *SearchHandler) Search(c *gin.Context) {
	var body struct {
		Query      string `json:"query"`
		MaxResults int    `json:"max_results"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if strings.TrimSpace(body.Query) == "" {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", fmt.Errorf("query is required"))
		return
	}
	if h.search == nil {
		response.RespondError(c, http.StatusServiceUnavailable, "search_unavailable", fmt.Errorf("web search is not configured"))
		return
	}
	if body.MaxResults <= 0 {
		body.MaxResults = 5
	}

	results, err := h.search.Search(c.Request.Context(), body.Query, body.MaxResults)
	if err != nil {
		response.RespondError(c, http.StatusBadGateway, "search_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"query": body.Query, "results": results})
}
