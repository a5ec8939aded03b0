// Package karma — handlers.go обрабатывает команды !топ и !я.
package karma

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"karma-bot/internal/common"
	"karma-bot/internal/features/users"
)

// Cleaner планирует отложенное удаление временных сообщений.
type Cleaner interface {
	ScheduleDeletion(chatID int64, messageIDs ...int)
}

// Handler обрабатывает команды кармы.
type Handler struct {
	service     *Service
	userService *users.Service
	bot         *tgbotapi.BotAPI
	cleaner     Cleaner
	topLimit    int
}

// NewHandler создаёт обработчик кармы.
func NewHandler(service *Service, userService *users.Service, bot *tgbotapi.BotAPI, cleaner Cleaner, topLimit int) *Handler {
	return &Handler{
		service:     service,
		userService: userService,
		bot:         bot,
		cleaner:     cleaner,
		topLimit:    topLimit,
	}
}

// HandleTop — команда !топ в группе. Показывает рейтинг текущего чата.
// Просмотр топа другого чата из группы запрещён — подсказка удаляется.
func (h *Handler) HandleTop(ctx context.Context, message *tgbotapi.Message, args []string) {
	if len(args) > 0 {
		replyID := h.reply(message, "Просмотр топа другого чата возможен только в личных сообщениях с ботом")
		if replyID != 0 && h.cleaner != nil {
			h.cleaner.ScheduleDeletion(message.Chat.ID, message.MessageID, replyID)
		}
		return
	}

	user, chat, err := h.ensure(ctx, message)
	if err != nil {
		return
	}

	log.WithFields(log.Fields{
		"user_id": user.TgID,
		"chat_id": chat.ChatID,
	}).Info("Запрошен топ кармы чата")

	text, err := h.service.GetTop(ctx, chat, user, h.topLimit)
	if err != nil {
		log.WithError(err).Error("Ошибка сборки топа")
		h.reply(message, "❌ Не удалось получить рейтинг")
		return
	}
	h.reply(message, text)
}

// HandleTopPrivate — команда !топ <chat_id> в личке.
func (h *Handler) HandleTopPrivate(ctx context.Context, message *tgbotapi.Message, args []string) {
	user, err := h.userService.EnsureUser(ctx, message.From.ID,
		message.From.UserName, message.From.FirstName, message.From.LastName)
	if err != nil {
		return
	}

	chat, err := h.chatFromArgs(ctx, args)
	if err != nil {
		h.reply(message, topPrivateErrorText(err))
		return
	}

	log.WithFields(log.Fields{
		"user_id": user.TgID,
		"chat_id": chat.ChatID,
	}).Info("Запрошен топ кармы чата из лички")

	text, err := h.service.GetTop(ctx, chat, user, h.topLimit)
	if err != nil {
		log.WithError(err).Error("Ошибка сборки топа")
		h.reply(message, "❌ Не удалось получить рейтинг")
		return
	}
	h.reply(message, text)
}

// HandleThanks обрабатывает «спасибо» в ответе на сообщение: автор
// отвеченного сообщения получает +1 к карме. Единственный пользовательский
// путь изменения кармы, поэтому здесь ограничитель включён; исчерпанное
// окно подавляет изменение молча.
func (h *Handler) HandleThanks(ctx context.Context, message *tgbotapi.Message) {
	replied := message.ReplyToMessage
	if replied == nil || replied.From == nil {
		return
	}
	if replied.From.ID == message.From.ID || replied.From.IsBot {
		return
	}

	actor, chat, err := h.ensure(ctx, message)
	if err != nil {
		return
	}
	target, err := h.userService.EnsureUser(ctx, replied.From.ID,
		replied.From.UserName, replied.From.FirstName, replied.From.LastName)
	if err != nil {
		return
	}

	res, err := h.service.ChangeKarma(ctx, actor, target, chat, 1, true, "Спасибо")
	if err != nil {
		log.WithError(err).Error("Ошибка начисления кармы за спасибо")
		return
	}
	if res.Restricted {
		log.WithFields(log.Fields{
			"target_id": target.TgID,
			"chat_id":   chat.ChatID,
		}).Debug("Спасибо подавлено ограничителем")
		return
	}

	text := fmt.Sprintf("⭐ +1 к карме! Карма %s: %s",
		common.EscapeHTML(target.Mention()), common.Bold(common.FormatKarma(res.Karma)))
	replyID := h.reply(message, text)
	if replyID != 0 && h.cleaner != nil {
		h.cleaner.ScheduleDeletion(message.Chat.ID, replyID)
	}
}

// HandleMe — команда !я в группе. Ответ временный и удаляется вместе
// с командой.
func (h *Handler) HandleMe(ctx context.Context, message *tgbotapi.Message) {
	user, chat, err := h.ensure(ctx, message)
	if err != nil {
		return
	}

	uk, position, err := h.service.GetMeChatInfo(ctx, user, chat)
	if err != nil {
		log.WithError(err).Error("Ошибка получения своей кармы")
		return
	}

	text := fmt.Sprintf("Ваша карма в данном чате: %s (%d)",
		common.Bold(common.FormatKarma(uk.Karma)), position)
	replyID := h.reply(message, text)
	if replyID != 0 && h.cleaner != nil {
		h.cleaner.ScheduleDeletion(message.Chat.ID, message.MessageID, replyID)
	}
}

// HandleMePrivate — команда !я в личке. Показывает карму во всех чатах.
func (h *Handler) HandleMePrivate(ctx context.Context, message *tgbotapi.Message) {
	user, err := h.userService.EnsureUser(ctx, message.From.ID,
		message.From.UserName, message.From.FirstName, message.From.LastName)
	if err != nil {
		return
	}

	list, err := h.service.GetMeInfo(ctx, user)
	if err != nil {
		log.WithError(err).Error("Ошибка получения кармы по чатам")
		return
	}
	if len(list) == 0 {
		h.reply(message, "У Вас нет никакой кармы ни в каких чатах")
		return
	}

	var b strings.Builder
	b.WriteString("У Вас есть карма в следующих чатах:")
	for _, ck := range list {
		b.WriteString(fmt.Sprintf("\n%s %s (%d)",
			common.EscapeHTML(ck.Chat.Mention()),
			common.Bold(common.FormatKarma(ck.Karma)),
			ck.Position,
		))
	}
	h.reply(message, b.String())
}

// ensure регистрирует пользователя и чат входящего сообщения.
func (h *Handler) ensure(ctx context.Context, message *tgbotapi.Message) (*users.User, *users.Chat, error) {
	user, err := h.userService.EnsureUser(ctx, message.From.ID,
		message.From.UserName, message.From.FirstName, message.From.LastName)
	if err != nil {
		return nil, nil, err
	}
	chat, err := h.userService.EnsureChat(ctx, message.Chat.ID, message.Chat.Title)
	if err != nil {
		return nil, nil, err
	}
	return user, chat, nil
}

// chatFromArgs разбирает аргумент !топ <chat_id> из лички.
func (h *Handler) chatFromArgs(ctx context.Context, args []string) (*users.Chat, error) {
	if len(args) == 0 {
		return nil, common.ErrNotEnoughArguments
	}
	chatID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return nil, common.ErrBadID
	}
	return h.userService.GetChat(ctx, chatID)
}

// topPrivateErrorText превращает доменную ошибку в подсказку пользователю.
func topPrivateErrorText(err error) string {
	switch {
	case errors.Is(err, common.ErrNotEnoughArguments):
		return "Эту команду можно использовать только в группах " +
			"или с указанием ID нужного чата, например:\n<code>!топ -1001399056118</code>"
	case errors.Is(err, common.ErrBadID):
		return "Введите число. Например: <code>!топ -1001399056118</code>"
	case errors.Is(err, common.ErrChatNotFound):
		return "Не удалось найти чат с таким ID, убедитесь, " +
			"что бот состоит в этом чате и попробуйте еще раз"
	default:
		return "❌ Не удалось получить рейтинг"
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
