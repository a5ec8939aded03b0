// Package bot содержит главный модуль бота — инициализацию, запуск и остановку.
// bot.go запускает polling и маршрутизирует команды к обработчикам.
package bot

import (
	"context"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"karma-bot/internal/bot/filters"
	"karma-bot/internal/bot/middleware"
	"karma-bot/internal/config"
	"karma-bot/internal/features/admin"
	"karma-bot/internal/features/karma"
	"karma-bot/internal/features/report"
)

// Bot — главная структура бота, объединяющая все компоненты.
type Bot struct {
	api *tgbotapi.BotAPI
	cfg *config.Config

	chatFilter  *filters.ChatFilter
	rateLimiter *middleware.RateLimiter

	karmaHandler  *karma.Handler
	reportHandler *report.Handler
	adminHandler  *admin.Handler

	parser *CommandParser

	// ограничитель параллелизма обработки апдейтов
	inflight chan struct{}
	// учёт запущенных обработчиков, чтобы shutdown дождался их завершения
	wg sync.WaitGroup
}

// New создаёт новый экземпляр бота со всеми зависимостями.
func New(
	api *tgbotapi.BotAPI,
	cfg *config.Config,
	karmaHandler *karma.Handler,
	reportHandler *report.Handler,
	adminHandler *admin.Handler,
) *Bot {
	maxInFlight := cfg.BotMaxInflight
	if maxInFlight <= 0 {
		maxInFlight = 64
	}

	return &Bot{
		api:           api,
		cfg:           cfg,
		chatFilter:    filters.NewChatFilter(),
		rateLimiter:   middleware.NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow),
		karmaHandler:  karmaHandler,
		reportHandler: reportHandler,
		adminHandler:  adminHandler,
		parser:        NewCommandParser(),
		inflight:      make(chan struct{}, maxInFlight),
	}
}

// Start запускает polling обновлений от Telegram.
func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.cfg.BotUpdateTimeoutSeconds

	updates := b.api.GetUpdatesChan(u)

	log.WithFields(log.Fields{
		"max_inflight": b.cfg.BotMaxInflight,
		"timeout_sec":  b.cfg.BotUpdateTimeoutSeconds,
	}).Info("Бот запущен и ожидает сообщения...")

	for {
		select {
		case <-ctx.Done():
			log.Info("Бот останавливается (ctx done)...")
			b.api.StopReceivingUpdates()
			b.wg.Wait()
			b.rateLimiter.Close()
			log.Info("Все обработчики завершены, бот остановлен")
			return

		case update, ok := <-updates:
			if !ok {
				log.Info("Канал updates закрыт, бот остановлен")
				b.wg.Wait()
				b.rateLimiter.Close()
				return
			}
			b.dispatch(ctx, update)
		}
	}
}

// dispatch запускает обработку апдейта в отдельной горутине
// под лимитом параллелизма и учётом для shutdown.
func (b *Bot) dispatch(ctx context.Context, update tgbotapi.Update) {
	b.inflight <- struct{}{}
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		defer func() { <-b.inflight }()
		b.handleUpdate(ctx, update)
	}()
}

// handleUpdate обрабатывает одно обновление от Telegram.
func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	defer middleware.RecoverFromPanic()

	if update.Message == nil || update.Message.Text == "" {
		return
	}
	message := update.Message

	middleware.LogMessage(message)

	if !b.chatFilter.CheckAccess(message) {
		return
	}

	// Rate limiting (транспортный, от флуда командами)
	if !b.rateLimiter.Allow(message.From.ID) {
		log.WithField("user_id", message.From.ID).Debug("rate limited")
		return
	}

	// Проверяем «спасибо» для кармы
	if !message.Chat.IsPrivate() && message.ReplyToMessage != nil && message.ReplyToMessage.From != nil {
		if karma.IsThankYou(message.Text) {
			b.karmaHandler.HandleThanks(ctx, message)
			return
		}
	}

	cmd, args, isCommand := b.parser.ParseCommand(message.Text)
	if !isCommand {
		return
	}

	log.WithFields(log.Fields{
		"cmd":  cmd,
		"args": args,
	}).Debug("routing command")

	if message.Chat.IsPrivate() {
		b.routePrivateCommand(ctx, message, cmd, args)
		return
	}
	b.routeGroupCommand(ctx, message, cmd, args)
}

// routeGroupCommand маршрутизирует команду из группового чата.
func (b *Bot) routeGroupCommand(ctx context.Context, message *tgbotapi.Message, cmd string, args []string) {
	switch cmd {
	case "топ", "top":
		b.karmaHandler.HandleTop(ctx, message, args)

	case "я", "me":
		b.karmaHandler.HandleMe(ctx, message)

	case "репорт", "report":
		b.reportHandler.HandleReport(ctx, message)

	case "ок", "ok":
		b.reportHandler.HandleApprove(ctx, message, args)

	case "отклонить", "decline":
		b.reportHandler.HandleDecline(ctx, message, args)

	case "отмена", "cancel":
		b.reportHandler.HandleCancel(ctx, message, args)
	}
}

// routePrivateCommand маршрутизирует команду из лички.
func (b *Bot) routePrivateCommand(ctx context.Context, message *tgbotapi.Message, cmd string, args []string) {
	switch cmd {
	case "start", "help":
		b.sendMessage(message.Chat.ID,
			"Я считаю карму и принимаю репорты.\n"+
				"Команды: !топ, !я, !репорт (ответом на сообщение), "+
				"/login <пароль> и !импорт (админ)")

	case "login":
		b.adminHandler.HandleLogin(ctx, message, args)

	case "импорт", "import":
		b.adminHandler.HandleImport(ctx, message, args)

	case "топ", "top":
		b.karmaHandler.HandleTopPrivate(ctx, message, args)

	case "я", "me":
		b.karmaHandler.HandleMePrivate(ctx, message)
	}
}

// sendMessage — утилита для отправки сообщений.
func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("Ошибка отправки сообщения")
	}
}

// CommandParser парсит русские команды с префиксами !, . и /
type CommandParser struct {
	validPrefixes []string
}

// NewCommandParser создаёт парсер команд.
func NewCommandParser() *CommandParser {
	return &CommandParser{
		validPrefixes: []string{"!", ".", "/"},
	}
}

// ParseCommand разбирает текст на команду и аргументы.
func (p *CommandParser) ParseCommand(text string) (string, []string, bool) {
	text = strings.TrimSpace(text)

	hasPrefix := false
	for _, prefix := range p.validPrefixes {
		if strings.HasPrefix(text, prefix) {
			text = strings.TrimPrefix(text, prefix)
			hasPrefix = true
			break
		}
	}

	if !hasPrefix {
		return "", nil, false
	}

	text = strings.TrimSpace(text)
	parts := strings.Fields(text)

	if len(parts) == 0 {
		return "", nil, false
	}

	command := strings.ToLower(parts[0])
	var args []string
	if len(parts) > 1 {
		args = parts[1:]
	}

	return command, args, true
}
