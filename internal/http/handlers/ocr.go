package handlers

import (
	"encoding/base64"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/orcha-ai/orcha-backend/internal/clients/ocr"
	"github.com/orcha-ai/orcha-backend/internal/http/response"
)

type OCRHandler struct {
	ocr ocr.Client
}

func NewOCRHandler(ocrClient ocr.Client) *OCRHandler {
	return &OCRHandler{ocr: ocrClient}
}

type ocrExtractBody struct {
	Data      string   `json:"data"`
	URI       string   `json:"uri"`
	Filename  string   `json:"filename"`
	Languages []string `json:"languages"`
}

// Extract runs OCR on an inline base64 payload or a remote uri.
func (h *OCRHandler) Extract(c *gin.Context) {
	var body ocrExtractBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	switch {
	case body.Data != "":
		raw, err := base64.StdEncoding.DecodeString(body.Data)
		if err != nil {
			response.RespondError(c, http.StatusBadRequest, "invalid_base64", err)
			return
		}
		result, err := h.ocr.ExtractFromBytes(c.Request.Context(), body.Filename, raw, body.Languages)
		if err != nil {
			response.RespondError(c, http.StatusBadGateway, "ocr_failed", err)
			return
		}
		response.RespondOK(c, result)
	case body.URI != "":
		result, err := h.ocr.ExtractFromURI(c.Request.Context(), body.URI, body.Languages)
		if err != nil {
			response.RespondError(c, http.StatusBadGateway, "ocr_failed", err)
			return
		}
		response.RespondOK(c, result)
	default:
		response.RespondError(c, http.StatusBadRequest, "invalid_request", fmt.Errorf("data or uri is required"))
	}
}
