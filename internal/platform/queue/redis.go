package queue

import (
	"context"
	"fmt"
	"time"

	"skillwise/internal/platform/config"
	"skillwise/internal/platform/logger"

	"github.com/redis/go-redis/v9"
)

var RDB *redis.Client

func ConnectRedis(ctx context.Context, log *logger.Logger) error {
	client := redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisDB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if _, err := client.Ping(pingCtx).Result(); err != nil {
		client.Close()
		return fmt.Errorf("could not connect to redis at %s: %w", config.AppConfig.RedisAddr, err)
	}
	RDB = client
	log.Info("connected to Redis", "addr", config.AppConfig.RedisAddr, "db", config.AppConfig.RedisDB)
	return nil
}

func CloseRedis(log *logger.Logger) {
	if RDB != nil {
		RDB.Close()
		log.Info("redis connection closed")
	}
}
