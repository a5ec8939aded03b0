// Package karma — restriction.go ограничивает частоту изменений кармы.
// Счётчик в фиксированном окне на пару пользователь+чат; исчерпанное окно
// подавляет изменение. Награды за репорты вызываются с выключенным
// ограничителем и проходят всегда.
package karma

import (
	"context"
	"fmt"
	"time"
)

// WindowStore считает события в фиксированном окне (Redis INCR+EXPIRE).
type WindowStore interface {
	IncrementWindow(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
}

// Restriction — ограничитель изменений кармы.
type Restriction struct {
	store  WindowStore
	limit  int
	window time.Duration
}

// NewRestriction создаёт ограничитель. limit <= 0 отключает ограничение.
func NewRestriction(store WindowStore, limit int, window time.Duration) *Restriction {
	return &Restriction{store: store, limit: limit, window: window}
}

// Allow регистрирует попытку изменения кармы пользователю target в чате
// и сообщает, разрешено ли изменение.
func (r *Restriction) Allow(ctx context.Context, targetID, chatID int64) (bool, error) {
	if r.limit <= 0 {
		return true, nil
	}
	if r.store == nil {
		return false, fmt.Errorf("хранилище ограничителя не задано")
	}

	count, _, err := r.store.IncrementWindow(ctx, restrictionKey(targetID, chatID), r.window)
	if err != nil {
		return false, err
	}
	return count <= int64(r.limit), nil
}

func restrictionKey(targetID, chatID int64) string {
	return fmt.Sprintf("karma:restrict:%d:%d", chatID, targetID)
}
