package database

import (
	"becky-backend/config"
	"becky-backend/logger"
	"context"

	"github.com/redis/go-redis/v9"
)

var Redis *redis.Client

// ConnectRedis is optional: on any failure Redis stays nil and callers skip
// locking and chat history.
func ConnectRedis() {
	if config.AppConfig.RedisURL == "" {
		logger.L.Warn("REDIS_URL not set, running without redis")
		return
	}

	opts, err := redis.ParseURL(config.AppConfig.RedisURL)
	if err != nil {
		logger.L.Warn("invalid REDIS_URL, running without redis", "error", err)
		return
	}

	client := redis.NewClient(opts)
	if _, err := client.Ping(context.Background()).Result(); err != nil {
		logger.L.Warn("redis not available, running without redis", "error", err)
		client.Close()
		return
	}

	Redis = client
	logger.L.Info("redis connected")
}
