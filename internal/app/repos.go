package app

import (
	"gorm.io/gorm"

	"github.com/orcha-ai/orcha-backend/internal/data/repos"
	"github.com/orcha-ai/orcha-backend/internal/pkg/logger"
)

type Repos struct {
	User         repos.UserRepo
	Folder       repos.FolderRepo
	Conversation repos.ConversationRepo
	Message      repos.MessageRepo
	Memory       repos.MemoryRepo
	TokenUsage   repos.TokenUsageRepo
	Pulse        repos.PulseRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		User:         repos.NewUserRepo(db, log),
		Folder:       repos.NewFolderRepo(db, log),
		Conversation: repos.NewConversationRepo(db, log),
		Message:      repos.NewMessageRepo(db, log),
		Memory:       repos.NewMemoryRepo(db, log),
		TokenUsage:   repos.NewTokenUsageRepo(db, log),
		Pulse:        repos.NewPulseRepo(db, log),
	}
}
