// Package users управляет пользователями и чатами, известными боту.
// models.go описывает структуры данных для таблиц users и chats.
package users

import "time"

// User представляет пользователя Telegram в базе данных.
// Запись создаётся при первом наблюдаемом взаимодействии;
// идентификатор tg_id неизменен, отображаемые поля обновляются.
type User struct {
	ID        int64     `db:"id"`         // Автоинкрементный ID записи в БД
	TgID      int64     `db:"tg_id"`      // Telegram user ID (уникальный)
	Username  string    `db:"username"`   // @username (может быть пустым)
	FirstName string    `db:"first_name"` // Имя пользователя
	LastName  string    `db:"last_name"`  // Фамилия (может быть пустой)
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// Chat представляет групповой чат, в котором работает бот.
type Chat struct {
	ID        int64     `db:"id"`      // Автоинкрементный ID записи в БД
	ChatID    int64     `db:"chat_id"` // Telegram chat ID (уникальный)
	Title     string    `db:"title"`   // Название чата
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// Mention возвращает упоминание пользователя без ссылки.
// Если есть @username — возвращает его, иначе — имя + фамилию.
func (u *User) Mention() string {
	if u.Username != "" {
		return "@" + u.Username
	}
	name := u.FirstName
	if u.LastName != "" {
		name += " " + u.LastName
	}
	return name
}

// Mention возвращает метку чата для списков (!я в личке).
func (c *Chat) Mention() string {
	if c.Title != "" {
		return c.Title
	}
	return "чат"
}
