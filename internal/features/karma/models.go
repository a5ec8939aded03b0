// Package karma реализует реестр репутации: счёт кармы на пару
// пользователь+чат, рейтинг и импорт.
// models.go описывает структуры для таблиц user_karma и karma_events.
package karma

import (
	"time"

	"karma-bot/internal/features/users"
)

// UserKarma хранит карму пользователя в конкретном чате.
// На пару (user_id, chat_id) существует не более одной записи;
// создаётся лениво при первом чтении или изменении.
type UserKarma struct {
	ID        int64     `db:"id"`
	UserID    int64     `db:"user_id"` // Telegram user ID
	ChatID    int64     `db:"chat_id"` // Telegram chat ID
	Karma     float64   `db:"karma"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// ScoredUser — пользователь со счётом кармы, как он участвует в рейтинге.
type ScoredUser struct {
	User  users.User
	Karma float64
}

// Neighbours — записи рейтинга непосредственно над, на и под позицией
// пользователя. Prev и Next могут отсутствовать (первая/последняя позиция).
type Neighbours struct {
	Prev *ScoredUser
	Self *ScoredUser
	Next *ScoredUser
}

// ChatKarma — карма пользователя в одном из чатов с позицией в топе.
// Используется командой !я в личке.
type ChatKarma struct {
	Chat     users.Chat
	Karma    float64
	Position int
}

// ResultChangeKarma — результат изменения кармы.
// Restricted означает, что ограничитель подавил изменение.
type ResultChangeKarma struct {
	Karma      float64 // итоговый счёт
	Restricted bool
}

// ImportEntry — одна запись административного импорта кармы.
type ImportEntry struct {
	ID    int64   `json:"id"`    // Telegram user ID
	Karma float64 `json:"karma"` // абсолютное значение
}

// Event — запись журнала изменений кармы (кто, кому, сколько, почему).
type Event struct {
	ID        int64     `db:"id"`
	ActorID   int64     `db:"actor_id"`
	TargetID  int64     `db:"target_id"`
	ChatID    int64     `db:"chat_id"`
	Delta     float64   `db:"delta"`
	Comment   string    `db:"comment"`
	CreatedAt time.Time `db:"created_at"`
}
