// Package redis управляет подключением к Redis.
// Redis используется ограничителем изменений кармы (счётчики с TTL).
package redis

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"karma-bot/internal/config"
)

// NewClient создаёт клиент Redis и проверяет доступность сервера.
func NewClient(ctx context.Context, cfg *config.Config) (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis недоступен: %w", err)
	}

	log.Info("Подключение к Redis установлено")
	return client, nil
}
