package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/orcha-ai/orcha-backend/internal/http/response"
	"github.com/orcha-ai/orcha-backend/internal/services"
)

type RouteHandler struct{}

func NewRouteHandler() *RouteHandler {
	return &RouteHandler{}
}

type routeRequestBody struct {
	Message     string                `json:"message"`
	Attachments []services.Attachment `json:"attachments"`
	UseRAG      bool                  `json:"use_rag"`
}

// RouteSuggestion names the endpoint a request should be sent to, with the
// payload already shaped for it.
type RouteSuggestion struct {
	Endpoint        string         `json:"endpoint"`
	Reason          string         `json:"reason"`
	PreparedPayload map[string]any `json:"prepared_payload"`
}

var (
	ocrKeywords    = []string{"scan", "ocr", "extract text", "read file"}
	ingestKeywords = []string{"ingest", "index", "add document", "load dataset"}
	ragKeywords    = []string{"rag", "search", "retrieve", "context"}
)

func containsAny(message string, keywords []string) bool {
	lower := strings.ToLower(message)
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// SuggestRoute is the keyword heuristic behind the /route endpoint.
func SuggestRoute(message string, attachments []services.Attachment, useRAG bool) RouteSuggestion {
	switch {
	case len(attachments) > 0 || containsAny(message, ocrKeywords):
		return RouteSuggestion{
			Endpoint: "/ocr/extract",
			Reason:   "attachments or text-extraction intent detected",
			PreparedPayload: map[string]any{
				"languages": []string{"en"},
			},
		}
	case containsAny(message, ingestKeywords):
		return RouteSuggestion{
			Endpoint: "/ingest",
			Reason:   "document ingestion intent detected",
			PreparedPayload: map[string]any{
				"source":   "user_request",
				"metadata": map[string]any{"original_message": message},
			},
		}
	case useRAG || containsAny(message, ragKeywords):
		return RouteSuggestion{
			Endpoint: "/rag/query",
			Reason:   "retrieval intent detected",
			PreparedPayload: map[string]any{
				"query":  message,
				"k":      8,
				"rerank": true,
			},
		}
	default:
		return RouteSuggestion{
			Endpoint: "/chat",
			Reason:   "plain conversational request",
			PreparedPayload: map[string]any{
				"message": message,
			},
		}
	}
}

func (h *RouteHandler) Route(c *gin.Context) {
	var body routeRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	response.RespondOK(c, SuggestRoute(body.Message, body.Attachments, body.UseRAG))
}
