package app

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/orcha-ai/orcha-backend/internal/http"
	httpH "github.com/orcha-ai/orcha-backend/internal/http/handlers"
	httpMW "github.com/orcha-ai/orcha-backend/internal/http/middleware"
	"github.com/orcha-ai/orcha-backend/internal/pkg/logger"
)

type Middleware struct {
	Auth *httpMW.AuthMiddleware
}

type Handlers struct {
	Health       *httpH.HealthHandler
	Auth         *httpH.AuthHandler
	Chat         *httpH.ChatHandler
	Conversation *httpH.ConversationHandler
	Folder       *httpH.FolderHandler
	Memory       *httpH.MemoryHandler
	Token        *httpH.TokenHandler
	Pulse        *httpH.PulseHandler
	OCR          *httpH.OCRHandler
	RAG          *httpH.RAGHandler
	Search       *httpH.SearchHandler
	Models       *httpH.ModelsHandler
	Route        *httpH.RouteHandler
}

func wireHandlers(log *logger.Logger, db *gorm.DB, serviceset Services, clients Clients) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:       httpH.NewHealthHandler(db),
		Auth:         httpH.NewAuthHandler(serviceset.Auth),
		Chat:         httpH.NewChatHandler(serviceset.Orchestrator),
		Conversation: httpH.NewConversationHandler(serviceset.Conversations),
		Folder:       httpH.NewFolderHandler(serviceset.Folders),
		Memory:       httpH.NewMemoryHandler(serviceset.Memories),
		Token:        httpH.NewTokenHandler(serviceset.Tokens),
		Pulse:        httpH.NewPulseHandler(serviceset.Pulses),
		OCR:          httpH.NewOCRHandler(clients.OCR),
		RAG:          httpH.NewRAGHandler(clients.RAG),
		Search:       httpH.NewSearchHandler(clients.WebSearch),
		Models:       httpH.NewModelsHandler(clients.LLM),
		Route:        httpH.NewRouteHandler(),
	}
}

func wireMiddleware(log *logger.Logger, serviceset Services) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Auth: httpMW.NewAuthMiddleware(log, serviceset.Auth),
	}
}

func wireRouter(log *logger.Logger, cfg Config, handlers Handlers, middleware Middleware) *gin.Engine {
	return http.NewRouter(http.RouterConfig{
		Log:         log,
		ServiceName: cfg.ServiceName,

		AuthHandler:    handlers.Auth,
		AuthMiddleware: middleware.Auth,

		ChatHandler:         handlers.Chat,
		ConversationHandler: handlers.Conversation,
		FolderHandler:       handlers.Folder,
		MemoryHandler:       handlers.Memory,
		TokenHandler:        handlers.Token,
		PulseHandler:        handlers.Pulse,

		OCRHandler:    handlers.OCR,
		RAGHandler:    handlers.RAG,
		SearchHandler: handlers.Search,
		ModelsHandler: handlers.Models,
		RouteHandler:  handlers.Route,

		HealthHandler: handlers.Health,
	})
}
