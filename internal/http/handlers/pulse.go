package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/orcha-ai/orcha-backend/internal/http/response"
	"github.com/orcha-ai/orcha-backend/internal/services"
)

type PulseHandler struct {
	pulses services.PulseService
}

func NewPulseHandler(pulses services.PulseService) *PulseHandler {
	return &PulseHandler{pulses: pulses}
}

// Get returns the user's pulse, generating one on first access.
func (h *PulseHandler) Get(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", err)
		return
	}
	pulse, err := h.pulses.GetOrGenerate(c.Request.Context(), userID)
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, "pulse_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"pulse": pulse})
}

func (h *PulseHandler) Regenerate(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", err)
		return
	}
	pulse, err := h.pulses.Regenerate(c.Request.Context(), userID)
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, "pulse_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"pulse": pulse})
}
