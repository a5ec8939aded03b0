// Package users — service.go содержит бизнес-логику учёта пользователей и чатов.
package users

import (
	"context"

	log "github.com/sirupsen/logrus"
)

// Service регистрирует пользователей и чаты при первом взаимодействии.
type Service struct {
	repo *Repository
}

// NewService создаёт сервис пользователей.
func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

// EnsureUser гарантирует, что пользователь есть в базе, и возвращает его.
// Вызывается на каждом входящем сообщении.
func (s *Service) EnsureUser(ctx context.Context, tgID int64, username, firstName, lastName string) (*User, error) {
	u, err := s.repo.GetOrCreateUser(ctx, tgID, username, firstName, lastName)
	if err != nil {
		log.WithError(err).WithField("tg_id", tgID).Error("Не удалось зарегистрировать пользователя")
		return nil, err
	}
	return u, nil
}

// EnsureChat гарантирует, что чат есть в базе, и возвращает его.
func (s *Service) EnsureChat(ctx context.Context, chatID int64, title string) (*Chat, error) {
	c, err := s.repo.GetOrCreateChat(ctx, chatID, title)
	if err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("Не удалось зарегистрировать чат")
		return nil, err
	}
	return c, nil
}

// GetUser возвращает пользователя по Telegram ID.
func (s *Service) GetUser(ctx context.Context, tgID int64) (*User, error) {
	return s.repo.GetUserByTgID(ctx, tgID)
}

// GetChat возвращает чат по Telegram chat ID.
func (s *Service) GetChat(ctx context.Context, chatID int64) (*Chat, error) {
	return s.repo.GetChatByID(ctx, chatID)
}
