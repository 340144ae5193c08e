package app

import (
	"fmt"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/orcha-ai/orcha-backend/internal/pkg/logger"
	"github.com/orcha-ai/orcha-backend/internal/services"
)

type Services struct {
	Auth          services.AuthService
	Conversations services.ConversationService
	Folders       services.FolderService
	Memories      services.MemoryService
	Tokens        services.TokenTracker
	Pulses        services.PulseService
	Orchestrator  services.Orchestrator

	PulseScheduler *services.PulseScheduler
}

func wireServices(db *gorm.DB, log *logger.Logger, reposet Repos, clients Clients, redisClient *redis.Client) (Services, error) {
	log.Info("Wiring services...")

	auth, err := services.NewAuthService(db, log, reposet.User)
	if err != nil {
		return Services{}, fmt.Errorf("init auth service: %w", err)
	}

	conversations := services.NewConversationService(db, log, reposet.Conversation, reposet.Message, reposet.Folder)
	folders := services.NewFolderService(db, log, reposet.Folder, reposet.Conversation)
	memories := services.NewMemoryService(db, log, reposet.Memory)
	tokens := services.NewTokenTracker(db, log, reposet.TokenUsage)
	pulses := services.NewPulseService(db, log, reposet.Pulse, reposet.Conversation, reposet.Message, clients.LLM)

	personas := services.LoadPersonas(log)
	orchestrator := services.NewOrchestrator(
		log,
		conversations,
		memories,
		tokens,
		clients.LLM,
		clients.OCR,
		clients.RAG,
		clients.WebSearch,
		personas,
	)

	scheduler := services.NewPulseScheduler(log, pulses, reposet.User, reposet.Pulse, redisClient)

	return Services{
		Auth:           auth,
		Conversations:  conversations,
		Folders:        folders,
		Memories:       memories,
		Tokens:         tokens,
		Pulses:         pulses,
		Orchestrator:   orchestrator,
		PulseScheduler: scheduler,
	}, nil
}
