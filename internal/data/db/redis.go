package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/orcha-ai/orcha-backend/internal/pkg/logger"
	"github.com/orcha-ai/orcha-backend/internal/utils"
)

// NewRedisClient connects to the redis used for cross-replica coordination
// (pulse scheduler lock). Returns nil when REDIS_ADDR is unset.
func NewRedisClient(logg *logger.Logger) (*redis.Client, error) {
	addr := strings.TrimSpace(utils.GetEnv("REDIS_ADDR", "", logg))
	if addr == "" {
		return nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: utils.GetEnv("REDIS_PASSWORD", "", nil),
		DB:       utils.GetEnvAsInt("REDIS_DB", 0, nil),
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}
