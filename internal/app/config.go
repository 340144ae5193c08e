package app

import (
	"github.com/orcha-ai/orcha-backend/internal/pkg/logger"
	"github.com/orcha-ai/orcha-backend/internal/utils"
)

type Config struct {
	ServiceName string
	Environment string
	Version     string

	HTTPAddr string
}

func LoadConfig(log *logger.Logger) Config {
	return Config{
		ServiceName: utils.GetEnv("SERVICE_NAME", "orcha-backend", log),
		Environment: utils.GetEnv("ENVIRONMENT", "development", log),
		Version:     utils.GetEnv("SERVICE_VERSION", "dev", log),
		HTTPAddr:    utils.GetEnv("HTTP_ADDR", ":8000", log),
	}
}
