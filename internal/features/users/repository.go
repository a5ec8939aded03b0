// Package users — repository.go отвечает за все операции с таблицами users и chats в БД.
// Каждая функция выполняет один SQL-запрос и возвращает результат или ошибку.
package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"karma-bot/internal/common"
)

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// GetOrCreateUser создаёт пользователя при первом наблюдаемом взаимодействии.
// Апсерт атомарен: два конкурентных первых обращения по одному tg_id
// не создадут дубликат. Идентификатор не трогаем, отображаемые поля обновляем.
func (r *Repository) GetOrCreateUser(ctx context.Context, tgID int64, username, firstName, lastName string) (*User, error) {
	query := `
		INSERT INTO users (tg_id, username, first_name, last_name)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (tg_id) DO UPDATE
		SET username = EXCLUDED.username,
		    first_name = EXCLUDED.first_name,
		    last_name = EXCLUDED.last_name,
		    updated_at = NOW()
		RETURNING id, tg_id, username, first_name, last_name, created_at, updated_at
	`
	var u User
	err := r.db.QueryRow(ctx, query, tgID, username, firstName, lastName).Scan(
		&u.ID, &u.TgID, &u.Username, &u.FirstName, &u.LastName, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания/обновления пользователя: %w", err)
	}
	return &u, nil
}

// GetUserByTgID возвращает пользователя по Telegram ID.
func (r *Repository) GetUserByTgID(ctx context.Context, tgID int64) (*User, error) {
	query := `
		SELECT id, tg_id, username, first_name, last_name, created_at, updated_at
		FROM users
		WHERE tg_id = $1
	`
	var u User
	err := r.db.QueryRow(ctx, query, tgID).Scan(
		&u.ID, &u.TgID, &u.Username, &u.FirstName, &u.LastName, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrUserNotFound
		}
		return nil, fmt.Errorf("ошибка чтения пользователя (tg_id=%d): %w", tgID, err)
	}
	return &u, nil
}

// GetOrCreateChat создаёт чат при первом наблюдаемом взаимодействии.
func (r *Repository) GetOrCreateChat(ctx context.Context, chatID int64, title string) (*Chat, error) {
	query := `
		INSERT INTO chats (chat_id, title)
		VALUES ($1, $2)
		ON CONFLICT (chat_id) DO UPDATE
		SET title = EXCLUDED.title, updated_at = NOW()
		RETURNING id, chat_id, title, created_at, updated_at
	`
	var c Chat
	err := r.db.QueryRow(ctx, query, chatID, title).Scan(
		&c.ID, &c.ChatID, &c.Title, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания/обновления чата: %w", err)
	}
	return &c, nil
}

// GetChatByID возвращает чат по Telegram chat ID.
func (r *Repository) GetChatByID(ctx context.Context, chatID int64) (*Chat, error) {
	query := `
		SELECT id, chat_id, title, created_at, updated_at
		FROM chats
		WHERE chat_id = $1
	`
	var c Chat
	err := r.db.QueryRow(ctx, query, chatID).Scan(
		&c.ID, &c.ChatID, &c.Title, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrChatNotFound
		}
		return nil, fmt.Errorf("ошибка чтения чата (chat_id=%d): %w", chatID, err)
	}
	return &c, nil
}
