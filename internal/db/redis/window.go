// Package redis — window.go реализует счётчик с фиксированным окном.
// Первый INCR по ключу выставляет TTL, дальше счётчик растёт до истечения окна.
package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// WindowStore считает события в фиксированном окне на базе Redis.
type WindowStore struct {
	client *goredis.Client
}

// NewWindowStore создаёт хранилище окон поверх клиента Redis.
func NewWindowStore(client *goredis.Client) *WindowStore {
	return &WindowStore{client: client}
}

// IncrementWindow увеличивает счётчик ключа и возвращает его значение
// вместе с оставшимся временем окна.
func (s *WindowStore) IncrementWindow(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	if s.client == nil {
		return 0, 0, fmt.Errorf("redis client is nil")
	}
	if key == "" || window <= 0 {
		return 0, 0, fmt.Errorf("некорректные параметры окна")
	}

	count, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, 0, fmt.Errorf("инкремент ключа окна: %w", err)
	}
	if count == 1 {
		if err := s.client.Expire(ctx, key, window).Err(); err != nil {
			return 0, 0, fmt.Errorf("установка TTL окна: %w", err)
		}
	}

	ttl, err := s.client.TTL(ctx, key).Result()
	if err != nil {
		return 0, 0, fmt.Errorf("чтение TTL окна: %w", err)
	}
	if ttl < 0 {
		ttl = 0
	}

	return count, ttl, nil
}
