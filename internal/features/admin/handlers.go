// Package admin — handlers.go обрабатывает /login и !импорт в личке.
package admin

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"karma-bot/internal/common"
	"karma-bot/internal/features/karma"
	"karma-bot/internal/features/users"
)

// Handler обрабатывает административные команды.
type Handler struct {
	service      *Service
	karmaService *karma.Service
	userService  *users.Service
	bot          *tgbotapi.BotAPI
}

// NewHandler создаёт обработчик админки.
func NewHandler(service *Service, karmaService *karma.Service, userService *users.Service, bot *tgbotapi.BotAPI) *Handler {
	return &Handler{
		service:      service,
		karmaService: karmaService,
		userService:  userService,
		bot:          bot,
	}
}

// HandleLogin — команда /login <пароль> в личке.
func (h *Handler) HandleLogin(ctx context.Context, message *tgbotapi.Message, args []string) {
	if len(args) == 0 {
		h.send(message.Chat.ID, "Использование: /login <пароль>")
		return
	}

	err := h.service.Login(message.From.ID, strings.Join(args, " "))
	switch {
	case err == nil:
		h.send(message.Chat.ID, "✅ Авторизация успешна")
	case errors.Is(err, common.ErrNotAdmin):
		h.send(message.Chat.ID, "❌ "+common.ErrNotAdmin.Error())
	case errors.Is(err, common.ErrTooManyAttempts):
		h.send(message.Chat.ID, "❌ "+common.ErrTooManyAttempts.Error())
	default:
		h.send(message.Chat.ID, "❌ "+common.ErrWrongPassword.Error())
	}
}

// HandleImport — команда !импорт <chat_id> <json> в личке.
// Формат: JSON-массив записей {"id": <tg_id>, "karma": <значение>}.
// Импорт атомарен: при любом сбое ни одна запись не применяется.
func (h *Handler) HandleImport(ctx context.Context, message *tgbotapi.Message, args []string) {
	if !h.service.IsAdmin(message.From.ID) || !h.service.HasActiveSession(message.From.ID) {
		h.send(message.Chat.ID, "❌ Сначала авторизуйтесь: /login <пароль>")
		return
	}

	if len(args) < 2 {
		h.send(message.Chat.ID,
			"Использование: !импорт <chat_id> <json>\n"+
				`Например: <code>!импорт -1001399056118 [{"id":123,"karma":5.5}]</code>`)
		return
	}

	chatID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		h.send(message.Chat.ID, "chat_id должен быть числом")
		return
	}
	chat, err := h.userService.GetChat(ctx, chatID)
	if err != nil {
		h.send(message.Chat.ID, "Не удалось найти чат с таким ID")
		return
	}

	var entries []karma.ImportEntry
	payload := strings.Join(args[1:], " ")
	if err := json.Unmarshal([]byte(payload), &entries); err != nil {
		h.send(message.Chat.ID, "Некорректный JSON импорта")
		return
	}

	if err := h.karmaService.Import(ctx, chat, entries); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("Ошибка импорта кармы")
		if errors.Is(err, common.ErrTransaction) {
			h.send(message.Chat.ID, "❌ Импорт не применён: сбой записи, состояние не изменено")
			return
		}
		h.send(message.Chat.ID, "❌ Импорт не применён")
		return
	}

	h.send(message.Chat.ID, "✅ Импорт применён: записей — "+strconv.Itoa(len(entries)))
}

func (h *Handler) send(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if _, err := h.bot.Send(msg); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("Ошибка отправки сообщения")
	}
}
