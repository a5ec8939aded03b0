package middleware

import (
	"sync"
	"time"
)

// RateLimiter — транспортный ограничитель команд на пользователя.
// Скользящее окно: учитываются только запросы за последние window.
// Не путать с ограничителем изменений кармы, тот живёт в Redis
// и действует на пару пользователь+чат.
type RateLimiter struct {
	mu     sync.Mutex
	seen   map[int64][]time.Time
	limit  int
	window time.Duration

	stopOnce sync.Once
	stopCh   chan struct{}
}

// NewRateLimiter создаёт ограничитель и запускает фоновую очистку.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		seen:   make(map[int64][]time.Time),
		limit:  limit,
		window: window,
		stopCh: make(chan struct{}),
	}
	go rl.cleanupLoop()
	return rl
}

// Close останавливает фоновую очистку. Вызывается на shutdown.
func (rl *RateLimiter) Close() {
	rl.stopOnce.Do(func() { close(rl.stopCh) })
}

// Allow регистрирует запрос пользователя и сообщает, пропускать ли его.
func (rl *RateLimiter) Allow(userID int64) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	recent := trimOld(rl.seen[userID], now.Add(-rl.window))

	if len(recent) >= rl.limit {
		rl.seen[userID] = recent
		return false
	}

	rl.seen[userID] = append(recent, now)
	return true
}

// cleanupLoop раз в 5 минут выбрасывает пользователей без свежих запросов,
// иначе карта растёт на каждого, кто хоть раз написал боту.
func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stopCh:
			return
		case <-ticker.C:
			rl.mu.Lock()
			cutoff := time.Now().Add(-rl.window)
			for userID, times := range rl.seen {
				recent := trimOld(times, cutoff)
				if len(recent) == 0 {
					delete(rl.seen, userID)
					continue
				}
				rl.seen[userID] = recent
			}
			rl.mu.Unlock()
		}
	}
}

// trimOld возвращает только отметки времени после cutoff.
// Отметки упорядочены по возрастанию, достаточно найти первую свежую.
func trimOld(times []time.Time, cutoff time.Time) []time.Time {
	for i, t := range times {
		if t.After(cutoff) {
			return append([]time.Time(nil), times[i:]...)
		}
	}
	return nil
}
