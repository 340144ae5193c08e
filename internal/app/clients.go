package app

import (
	"fmt"

	"github.com/orcha-ai/orcha-backend/internal/clients/llm"
	"github.com/orcha-ai/orcha-backend/internal/clients/ocr"
	"github.com/orcha-ai/orcha-backend/internal/clients/rag"
	"github.com/orcha-ai/orcha-backend/internal/clients/websearch"
	"github.com/orcha-ai/orcha-backend/internal/pkg/logger"
)

type Clients struct {
	LLM       llm.Client
	OCR       ocr.Client
	RAG       rag.Client
	WebSearch websearch.Client // nil when not configured
}

func wireClients(log *logger.Logger) (Clients, error) {
	log.Info("Wiring clients...")

	llmClient, err := llm.NewClient(log)
	if err != nil {
		return Clients{}, fmt.Errorf("init llm client: %w", err)
	}
	ocrClient, err := ocr.NewFromEnv(log)
	if err != nil {
		return Clients{}, fmt.Errorf("init ocr client: %w", err)
	}
	ragClient, err := rag.NewClient(log)
	if err != nil {
		return Clients{}, fmt.Errorf("init rag client: %w", err)
	}

	// Web search is optional; without credentials the turn simply degrades.
	searchClient, err := websearch.NewClient(log)
	if err != nil {
		log.Warn("web search disabled", "reason", err.Error())
		searchClient = nil
	}

	return Clients{
		LLM:       llmClient,
		OCR:       ocrClient,
		RAG:       ragClient,
		WebSearch: searchClient,
	}, nil
}
