// Package report — handlers.go обрабатывает команды !репорт, !ок,
// !отклонить и !отмена.
package report

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"karma-bot/internal/common"
	"karma-bot/internal/features/users"
)

// Cleaner планирует отложенное удаление сообщений диалога репорта.
type Cleaner interface {
	ScheduleDeletion(chatID int64, messageIDs ...int)
}

// Handler обрабатывает команды репортов.
type Handler struct {
	service      *Service
	userService  *users.Service
	bot          *tgbotapi.BotAPI
	cleaner      Cleaner
	adminIDs     map[int64]struct{}
	rewardAmount float64
}

// NewHandler создаёт обработчик репортов.
func NewHandler(service *Service, userService *users.Service, bot *tgbotapi.BotAPI, cleaner Cleaner, adminIDs []int64, rewardAmount float64) *Handler {
	ids := make(map[int64]struct{}, len(adminIDs))
	for _, id := range adminIDs {
		ids[id] = struct{}{}
	}
	return &Handler{
		service:      service,
		userService:  userService,
		bot:          bot,
		cleaner:      cleaner,
		adminIDs:     ids,
		rewardAmount: rewardAmount,
	}
}

// HandleReport — команда !репорт в ответ на сообщение нарушителя.
func (h *Handler) HandleReport(ctx context.Context, message *tgbotapi.Message) {
	if message.ReplyToMessage == nil || message.ReplyToMessage.From == nil {
		replyID := h.reply(message, "Команда работает только в ответ на сообщение нарушителя")
		if replyID != 0 && h.cleaner != nil {
			h.cleaner.ScheduleDeletion(message.Chat.ID, message.MessageID, replyID)
		}
		return
	}

	reporter, err := h.userService.EnsureUser(ctx, message.From.ID,
		message.From.UserName, message.From.FirstName, message.From.LastName)
	if err != nil {
		return
	}
	offender := message.ReplyToMessage.From
	reported, err := h.userService.EnsureUser(ctx, offender.ID,
		offender.UserName, offender.FirstName, offender.LastName)
	if err != nil {
		return
	}
	chat, err := h.userService.EnsureChat(ctx, message.Chat.ID, message.Chat.Title)
	if err != nil {
		return
	}

	rep, err := h.service.Register(ctx, reporter, reported, chat,
		message.ReplyToMessage.MessageID, message.MessageID)
	if err != nil {
		log.WithError(err).Error("Ошибка регистрации репорта")
		h.reply(message, "❌ Не удалось зарегистрировать репорт")
		return
	}

	text := fmt.Sprintf(
		"Репорт %s отправлен администраторам.\nРешение: <code>!ок %d</code> / <code>!отклонить %d</code> / <code>!отмена %d</code>",
		common.Bold("#"+strconv.FormatInt(rep.ID, 10)), rep.ID, rep.ID, rep.ID,
	)
	replyID := h.reply(message, text)
	if replyID != 0 {
		if err := h.service.SetBotReply(ctx, rep, replyID); err != nil {
			log.WithError(err).WithField("report_id", rep.ID).Error("Не удалось сохранить ответ бота")
		}
	}
}

// HandleApprove — команда !ок <id>: репорт подтверждён, подавший получает
// награду, диалог группы зачищается целиком.
func (h *Handler) HandleApprove(ctx context.Context, message *tgbotapi.Message, args []string) {
	h.resolve(ctx, message, args, ResolutionApproved)
}

// HandleDecline — команда !отклонить <id>: репорт отклонён. Ответ бота на
// первый репорт остаётся в чате как след решения, остальной диалог зачищается.
func (h *Handler) HandleDecline(ctx context.Context, message *tgbotapi.Message, args []string) {
	h.resolve(ctx, message, args, ResolutionDeclined)
}

func (h *Handler) resolve(ctx context.Context, message *tgbotapi.Message, args []string, resolution Resolution) {
	resolver, reportID, ok := h.moderationContext(ctx, message, args)
	if !ok {
		return
	}

	group, err := h.service.Resolve(ctx, reportID, resolver, resolution)
	if err != nil {
		h.reply(message, resolveErrorText(err))
		return
	}

	first, linked := group[0], group[1:]

	if resolution == ResolutionApproved {
		chat, err := h.userService.GetChat(ctx, first.ChatID)
		if err != nil {
			log.WithError(err).Error("Ошибка поиска чата для награды")
		} else if _, err := h.service.RewardReporter(ctx, first.ReporterID, h.rewardAmount, chat); err != nil {
			log.WithError(err).WithField("report_id", first.ID).Error("Ошибка начисления награды")
		}
	}

	// При подтверждении удаляем весь диалог; при отклонении оставляем
	// ответ бота на первый репорт как след решения.
	deleteFirstReply := resolution == ResolutionApproved
	if h.cleaner != nil {
		toDelete := CleanupDialog(first, linked, deleteFirstReply)
		toDelete = append(toDelete, message.MessageID)
		h.cleaner.ScheduleDeletion(first.ChatID, toDelete...)
	}

	verdict := "отклонён"
	if resolution == ResolutionApproved {
		verdict = "подтверждён"
	}
	extra := ""
	if len(linked) > 0 {
		extra = fmt.Sprintf(" (+%d связанных %s)", len(linked), common.PluralizeReports(len(linked)))
	}
	h.reply(message, fmt.Sprintf("Репорт #%d %s%s", first.ID, verdict, extra))
}

// HandleCancel — команда !отмена <id>. Отменяет один репорт,
// связанные не затрагиваются.
func (h *Handler) HandleCancel(ctx context.Context, message *tgbotapi.Message, args []string) {
	resolver, reportID, ok := h.moderationContext(ctx, message, args)
	if !ok {
		return
	}

	rep, err := h.service.Cancel(ctx, reportID, resolver)
	if err != nil {
		h.reply(message, resolveErrorText(err))
		return
	}

	if h.cleaner != nil {
		toDelete := []int{rep.CommandMessageID, message.MessageID}
		if rep.BotReplyMessageID != nil {
			toDelete = append(toDelete, *rep.BotReplyMessageID)
		}
		h.cleaner.ScheduleDeletion(rep.ChatID, toDelete...)
	}
	h.reply(message, fmt.Sprintf("Репорт #%d отменён", rep.ID))
}

// moderationContext проверяет права и разбирает аргумент <id>.
func (h *Handler) moderationContext(ctx context.Context, message *tgbotapi.Message, args []string) (*users.User, int64, bool) {
	if _, isAdmin := h.adminIDs[message.From.ID]; !isAdmin {
		h.reply(message, "❌ "+common.ErrNotAdmin.Error())
		return nil, 0, false
	}

	resolver, err := h.userService.EnsureUser(ctx, message.From.ID,
		message.From.UserName, message.From.FirstName, message.From.LastName)
	if err != nil {
		return nil, 0, false
	}

	if len(args) == 0 {
		h.reply(message, "Укажите номер репорта, например: <code>!ок 42</code>")
		return nil, 0, false
	}
	reportID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		h.reply(message, "Номер репорта должен быть числом")
		return nil, 0, false
	}
	return resolver, reportID, true
}

// resolveErrorText превращает доменную ошибку в сообщение модератору.
func resolveErrorText(err error) string {
	switch {
	case errors.Is(err, common.ErrReportNotFound):
		return "Не удалось найти репорт с таким номером"
	case errors.Is(err, common.ErrReportAlreadyResolved):
		return "Этот репорт уже рассмотрен"
	case errors.Is(err, common.ErrInvalidResolution):
		return "Недопустимое решение по репорту"
	case errors.Is(err, common.ErrTransaction):
		return "Не удалось записать решение, попробуйте ещё раз"
	default:
		return "❌ Ошибка обработки репорта"
	}
}

// reply отправляет HTML-ответ на сообщение и возвращает ID ответа.
func (h *Handler) reply(message *tgbotapi.Message, text string) int {
	msg := tgbotapi.NewMessage(message.Chat.ID, text)
	msg.ReplyToMessageID = message.MessageID
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	sent, err := h.bot.Send(msg)
	if err != nil {
		log.WithError(err).WithField("chat_id", message.Chat.ID).Error("Ошибка отправки сообщения")
		return 0
	}
	return sent.MessageID
}
