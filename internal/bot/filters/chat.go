// Package filters решает, обрабатывать ли входящее сообщение.
// Бот работает в любом количестве групп и в личке; каналы и служебные
// сообщения без отправителя игнорируются.
package filters

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"
)

// ChatFilter отсекает сообщения, с которыми бот не работает.
type ChatFilter struct{}

// NewChatFilter создаёт фильтр чатов.
func NewChatFilter() *ChatFilter {
	return &ChatFilter{}
}

// CheckAccess возвращает true, если сообщение нужно обрабатывать:
// группа, супергруппа или личка с известным отправителем.
func (f *ChatFilter) CheckAccess(message *tgbotapi.Message) bool {
	if message == nil || message.Chat == nil {
		log.WithField("component", "ChatFilter").Warn("nil message/chat")
		return false
	}
	if message.From == nil {
		log.WithFields(log.Fields{
			"component": "ChatFilter",
			"chat_id":   message.Chat.ID,
			"chat_type": message.Chat.Type,
		}).Debug("deny: сообщение без отправителя (канал/сервисное)")
		return false
	}

	if message.Chat.IsGroup() || message.Chat.IsSuperGroup() || message.Chat.IsPrivate() {
		return true
	}

	log.WithFields(log.Fields{
		"component": "ChatFilter",
		"chat_id":   message.Chat.ID,
		"chat_type": message.Chat.Type,
	}).Debug("deny: неподдерживаемый тип чата")
	return false
}
