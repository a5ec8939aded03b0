// Package karma — service.go содержит бизнес-логику кармы:
// изменение счёта с ограничителем, административный импорт
// и сборку текста рейтинга.
package karma

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"karma-bot/internal/common"
	"karma-bot/internal/features/users"
)

// Store — операции хранилища кармы, нужные сервису.
type Store interface {
	GetOrCreate(ctx context.Context, userID, chatID int64) (*UserKarma, error)
	ApplyDelta(ctx context.Context, userID, chatID int64, delta float64) (float64, error)
	BulkSet(ctx context.Context, chatID int64, entries []ImportEntry) error
	TopN(ctx context.Context, chatID int64, limit int) ([]ScoredUser, error)
	RankOf(ctx context.Context, userID, chatID int64) (int, error)
	Neighbours(ctx context.Context, userID, chatID int64) (*Neighbours, error)
	UserChats(ctx context.Context, userID int64) ([]ChatKarma, error)
	LogEvent(ctx context.Context, e *Event) error
}

// Restrictor решает, разрешено ли очередное изменение кармы.
type Restrictor interface {
	Allow(ctx context.Context, targetID, chatID int64) (bool, error)
}

// Service управляет системой кармы.
type Service struct {
	store       Store
	restriction Restrictor
}

// NewService создаёт сервис кармы.
func NewService(store Store, restriction Restrictor) *Service {
	return &Service{store: store, restriction: restriction}
}

// ChangeKarma изменяет карму target в чате на delta.
// При включённом ограничителе исчерпанное окно подавляет изменение:
// счёт не меняется, в результате выставлен флаг Restricted.
// Награды за репорты вызывают ChangeKarma с restrictionEnabled=false.
func (s *Service) ChangeKarma(
	ctx context.Context,
	actor, target *users.User,
	chat *users.Chat,
	delta float64,
	restrictionEnabled bool,
	comment string,
) (*ResultChangeKarma, error) {
	if restrictionEnabled && s.restriction != nil {
		allowed, err := s.restriction.Allow(ctx, target.TgID, chat.ChatID)
		if err != nil {
			return nil, fmt.Errorf("ошибка проверки ограничителя: %w", err)
		}
		if !allowed {
			uk, err := s.store.GetOrCreate(ctx, target.TgID, chat.ChatID)
			if err != nil {
				return nil, err
			}
			log.WithFields(log.Fields{
				"target_id": target.TgID,
				"chat_id":   chat.ChatID,
			}).Debug("Изменение кармы подавлено ограничителем")
			return &ResultChangeKarma{Karma: uk.Karma, Restricted: true}, nil
		}
	}

	karma, err := s.store.ApplyDelta(ctx, target.TgID, chat.ChatID, delta)
	if err != nil {
		return nil, err
	}

	if err := s.store.LogEvent(ctx, &Event{
		ActorID:  actor.TgID,
		TargetID: target.TgID,
		ChatID:   chat.ChatID,
		Delta:    delta,
		Comment:  comment,
	}); err != nil {
		log.WithError(err).Error("Ошибка записи журнала кармы")
	}

	return &ResultChangeKarma{Karma: karma}, nil
}

// Import устанавливает абсолютные значения кармы для списка пользователей
// чата одной атомарной операцией.
func (s *Service) Import(ctx context.Context, chat *users.Chat, entries []ImportEntry) error {
	if len(entries) == 0 {
		return common.ErrNotEnoughArguments
	}
	if err := s.store.BulkSet(ctx, chat.ChatID, entries); err != nil {
		return err
	}
	log.WithFields(log.Fields{
		"chat_id": chat.ChatID,
		"count":   len(entries),
	}).Info("Импорт кармы применён")
	return nil
}

// GetTop собирает текст рейтинга чата для пользователя user.
//
// Алгоритм: топ limit записей с подписью; затем соседи пользователя по
// рейтингу. Если соседей нет — возвращается только топ. Строки соседей,
// не вошедшие в топ, добавляются отдельным блоком с позициями от
// глобального ранга пользователя (prev = ранг-1, self = ранг, next = ранг+1);
// непустой блок отделяется маркером «...» ровно один раз.
func (s *Service) GetTop(ctx context.Context, chat *users.Chat, user *users.User, limit int) (string, error) {
	top, err := s.store.TopN(ctx, chat.ChatID, limit)
	if err != nil {
		return "", err
	}

	rows := make([]Row, 0, len(top))
	for i, su := range top {
		rows = append(rows, Row{Position: i + 1, Mention: su.User.Mention(), Karma: su.Karma})
	}
	text := AddCaption(FormatRows(rows))

	nb, err := s.store.Neighbours(ctx, user.TgID, chat.ChatID)
	if err != nil {
		if errors.Is(err, common.ErrNoNeighbours) {
			return text, nil
		}
		return "", err
	}

	rank, err := s.store.RankOf(ctx, user.TgID, chat.ChatID)
	if err != nil {
		return "", err
	}

	inTop := make(map[int64]struct{}, len(top))
	for _, su := range top {
		inTop[su.User.TgID] = struct{}{}
	}

	var extra []Row
	appendMissing := func(su *ScoredUser, position int) {
		if su == nil {
			return
		}
		if _, ok := inTop[su.User.TgID]; ok {
			return
		}
		extra = append(extra, Row{Position: position, Mention: su.User.Mention(), Karma: su.Karma})
	}
	appendMissing(nb.Prev, rank-1)
	appendMissing(nb.Self, rank)
	appendMissing(nb.Next, rank+1)

	if len(extra) == 0 {
		return text, nil
	}
	return AddSeparator(text) + "\n" + FormatRows(extra), nil
}

// GetMeChatInfo возвращает карму пользователя в чате и позицию в топе.
// Запись создаётся лениво, если её ещё нет.
func (s *Service) GetMeChatInfo(ctx context.Context, user *users.User, chat *users.Chat) (*UserKarma, int, error) {
	uk, err := s.store.GetOrCreate(ctx, user.TgID, chat.ChatID)
	if err != nil {
		return nil, 0, err
	}
	rank, err := s.store.RankOf(ctx, user.TgID, chat.ChatID)
	if err != nil {
		return nil, 0, err
	}
	return uk, rank, nil
}

// GetMeInfo возвращает карму пользователя во всех чатах с позициями.
func (s *Service) GetMeInfo(ctx context.Context, user *users.User) ([]ChatKarma, error) {
	return s.store.UserChats(ctx, user.TgID)
}
