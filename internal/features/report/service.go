// Package report — service.go содержит state-машину репортов.
// Разрешение группы связанных репортов атомарно: вердикт получает только
// первый репорт, дубликаты автоматически отменяются с тем же временем.
package report

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"karma-bot/internal/common"
	"karma-bot/internal/features/karma"
	"karma-bot/internal/features/users"
)

// Store — операции хранилища репортов, нужные сервису.
type Store interface {
	Create(ctx context.Context, reporterID, reportedUserID, chatID int64, reportedMessageID, commandMessageID int) (*Report, error)
	GetByID(ctx context.Context, reportID int64) (*Report, error)
	GetLinkedPending(ctx context.Context, reportID int64) ([]*Report, error)
	SaveBotReply(ctx context.Context, rep *Report) error
	SaveGroup(ctx context.Context, group []*Report) error
}

// KarmaChanger выдаёт награду за подтверждённый репорт.
type KarmaChanger interface {
	ChangeKarma(ctx context.Context, actor, target *users.User, chat *users.Chat,
		delta float64, restrictionEnabled bool, comment string) (*karma.ResultChangeKarma, error)
}

// UserDirectory находит и регистрирует пользователей.
type UserDirectory interface {
	GetUser(ctx context.Context, tgID int64) (*users.User, error)
	EnsureUser(ctx context.Context, tgID int64, username, firstName, lastName string) (*users.User, error)
}

// BotIdentity — учётные данные самого бота; от его имени выдаются награды.
type BotIdentity struct {
	TgID      int64
	Username  string
	FirstName string
}

// Service управляет жизненным циклом репортов.
type Service struct {
	store Store
	karma KarmaChanger
	users UserDirectory
	self  BotIdentity
}

// NewService создаёт сервис репортов.
func NewService(store Store, karmaChanger KarmaChanger, userDirectory UserDirectory, self BotIdentity) *Service {
	return &Service{
		store: store,
		karma: karmaChanger,
		users: userDirectory,
		self:  self,
	}
}

// Register создаёт новый репорт в статусе PENDING.
func (s *Service) Register(ctx context.Context, reporter, reportedUser *users.User, chat *users.Chat, reportedMessageID, commandMessageID int) (*Report, error) {
	rep, err := s.store.Create(ctx, reporter.TgID, reportedUser.TgID, chat.ChatID,
		reportedMessageID, commandMessageID)
	if err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{
		"report_id":   rep.ID,
		"reporter_id": reporter.TgID,
		"chat_id":     chat.ChatID,
	}).Info("Зарегистрирован репорт")
	return rep, nil
}

// Resolve разрешает все PENDING-репорты, связанные с тем же сообщением.
// Вердикт (только APPROVED или DECLINED) получает первый репорт группы,
// остальные отменяются; у всей группы одно время решения. Запись группы
// атомарна; если конкурентное решение успело раньше, хранилище возвращает
// common.ErrReportAlreadyResolved и ничего не перезаписывает.
// Возвращает группу, первый репорт — первым.
func (s *Service) Resolve(ctx context.Context, reportID int64, resolvedBy *users.User, resolution Resolution) ([]*Report, error) {
	if !resolution.Valid() {
		return nil, common.ErrInvalidResolution
	}

	group, err := s.store.GetLinkedPending(ctx, reportID)
	if err != nil {
		return nil, err
	}

	resolutionTime := time.Now().UTC()
	for i, rep := range group {
		rep.ResolvedBy = &resolvedBy.TgID
		rep.ResolutionTime = &resolutionTime
		if i == 0 {
			rep.Status = Status(resolution)
		} else {
			rep.Status = StatusCancelled
		}
	}

	if err := s.store.SaveGroup(ctx, group); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"report_id":  group[0].ID,
		"resolution": resolution,
		"linked":     len(group) - 1,
	}).Info("Группа репортов разрешена")
	return group, nil
}

// Cancel отменяет один репорт. Связанные репорты не затрагиваются:
// отмена, в отличие от разрешения, действует на единственную запись.
// Запись идёт через SaveGroup с группой из одного репорта, то есть под
// той же защитой от конкурентного решения.
func (s *Service) Cancel(ctx context.Context, reportID int64, resolvedBy *users.User) (*Report, error) {
	rep, err := s.store.GetByID(ctx, reportID)
	if err != nil {
		return nil, err
	}
	if rep.Status != StatusPending {
		return nil, common.ErrReportAlreadyResolved
	}

	now := time.Now().UTC()
	rep.ResolvedBy = &resolvedBy.TgID
	rep.ResolutionTime = &now
	rep.Status = StatusCancelled

	if err := s.store.SaveGroup(ctx, []*Report{rep}); err != nil {
		return nil, err
	}
	return rep, nil
}

// SetBotReply запоминает ID ответа бота на репорт для последующей очистки.
// Не зависит от статуса репорта.
func (s *Service) SetBotReply(ctx context.Context, rep *Report, messageID int) error {
	rep.BotReplyMessageID = &messageID
	return s.store.SaveBotReply(ctx, rep)
}

// RewardReporter начисляет награду подавшему репорт от имени бота.
// Награда идёт мимо ограничителя изменений кармы.
func (s *Service) RewardReporter(ctx context.Context, reporterID int64, amount float64, chat *users.Chat) (*karma.ResultChangeKarma, error) {
	botUser, err := s.users.EnsureUser(ctx, s.self.TgID, s.self.Username, s.self.FirstName, "")
	if err != nil {
		return nil, err
	}
	target, err := s.users.GetUser(ctx, reporterID)
	if err != nil {
		return nil, err
	}
	return s.karma.ChangeKarma(ctx, botUser, target, chat, amount, false, "Награда за репорт")
}

// CleanupDialog вычисляет ID сообщений, которые нужно удалить после
// разрешения группы: команды всех репортов, ответ бота на первый —
// только при deleteFirstReply, ответы на остальные — всегда.
// Только вычисление, без изменения состояния.
func CleanupDialog(first *Report, linked []*Report, deleteFirstReply bool) []int {
	toDelete := []int{first.CommandMessageID}

	if deleteFirstReply && first.BotReplyMessageID != nil {
		toDelete = append(toDelete, *first.BotReplyMessageID)
	}

	for _, rep := range linked {
		toDelete = append(toDelete, rep.CommandMessageID)
		if rep.BotReplyMessageID != nil {
			toDelete = append(toDelete, *rep.BotReplyMessageID)
		}
	}
	return toDelete
}
