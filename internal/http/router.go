package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/orcha-ai/orcha-backend/internal/http/handlers"
	httpMW "github.com/orcha-ai/orcha-backend/internal/http/middleware"
	"github.com/orcha-ai/orcha-backend/internal/pkg/logger"
)

type RouterConfig struct {
	Log *logger.Logger

	AuthHandler    *httpH.AuthHandler
	AuthMiddleware *httpMW.AuthMiddleware

	ChatHandler         *httpH.ChatHandler
	ConversationHandler *httpH.ConversationHandler
	FolderHandler       *httpH.FolderHandler
	MemoryHandler       *httpH.MemoryHandler
	TokenHandler        *httpH.TokenHandler
	PulseHandler        *httpH.PulseHandler

	OCRHandler    *httpH.OCRHandler
	RAGHandler    *httpH.RAGHandler
	SearchHandler *httpH.SearchHandler
	ModelsHandler *httpH.ModelsHandler
	RouteHandler  *httpH.RouteHandler

	HealthHandler *httpH.HealthHandler

	ServiceName string
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(cfg.ServiceName))
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.CORS())

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/health", cfg.HealthHandler.HealthCheck)
	}

	api := r.Group("/api")
	{
		// Auth (public)
		if cfg.AuthHandler != nil {
			api.POST("/auth/register", cfg.AuthHandler.Register)
			api.POST("/auth/login", cfg.AuthHandler.Login)
		}
	}

	protected := api.Group("/")
	{
		if cfg.AuthMiddleware != nil {
			protected.Use(cfg.AuthMiddleware.RequireAuth())
		}

		// Auth (protected)
		if cfg.AuthHandler != nil {
			protected.GET("/auth/me", cfg.AuthHandler.Me)
			protected.GET("/auth/check", cfg.AuthHandler.Check)
		}

		// Chat turn
		if cfg.ChatHandler != nil {
			protected.POST("/chat", cfg.ChatHandler.Chat)
		}

		// Conversations
		if cfg.ConversationHandler != nil {
			protected.GET("/conversations", cfg.ConversationHandler.List)
			protected.GET("/conversations/:id", cfg.ConversationHandler.Get)
			protected.PATCH("/conversations/:id", cfg.ConversationHandler.Update)
			protected.DELETE("/conversations/:id", cfg.ConversationHandler.Delete)
		}

		// Folders
		if cfg.FolderHandler != nil {
			protected.POST("/folders", cfg.FolderHandler.Create)
			protected.GET("/folders", cfg.FolderHandler.List)
			protected.PATCH("/folders/:id", cfg.FolderHandler.Rename)
			protected.DELETE("/folders/:id", cfg.FolderHandler.Delete)
		}

		// Memories
		if cfg.MemoryHandler != nil {
			protected.GET("/memories", cfg.MemoryHandler.List)
			protected.POST("/memories", cfg.MemoryHandler.Create)
			protected.DELETE("/memories/:id", cfg.MemoryHandler.Delete)
		}

		// Token accounting
		if cfg.TokenHandler != nil {
			protected.GET("/tokens/usage/:userID", cfg.TokenHandler.Usage)
			protected.POST("/tokens/reset/:userID", cfg.TokenHandler.Reset)
		}

		// Pulse
		if cfg.PulseHandler != nil {
			protected.GET("/pulse", cfg.PulseHandler.Get)
			protected.POST("/pulse/regenerate", cfg.PulseHandler.Regenerate)
		}

		// Standalone collaborator endpoints
		if cfg.OCRHandler != nil {
			protected.POST("/ocr/extract", cfg.OCRHandler.Extract)
		}
		if cfg.RAGHandler != nil {
			protected.POST("/rag/query", cfg.RAGHandler.Query)
			protected.POST("/ingest", cfg.RAGHandler.Ingest)
		}
		if cfg.SearchHandler != nil {
			protected.POST("/search", cfg.SearchHandler.Search)
		}
		if cfg.ModelsHandler != nil {
			protected.GET("/models", cfg.ModelsHandler.List)
		}
		if cfg.RouteHandler != nil {
			protected.POST("/route", cfg.RouteHandler.Route)
		}
	}

	return r
}
