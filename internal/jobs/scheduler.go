// Package jobs управляет фоновыми задачами (cron).
// scheduler.go реализует отложенное удаление временных сообщений:
// обработчики ставят сообщения в очередь, cron раз в минуту удаляет
// те, чей срок наступил. Удаление best-effort: сбой логируется и не повторяется.
package jobs

import (
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

// batch — одна отложенная пачка удалений.
type batch struct {
	chatID     int64
	messageIDs []int
	due        time.Time
}

// Scheduler управляет отложенным удалением сообщений.
type Scheduler struct {
	cron  *cron.Cron
	bot   *tgbotapi.BotAPI
	delay time.Duration

	mu      sync.Mutex
	pending []batch
}

// NewScheduler создаёт планировщик с задержкой удаления delay.
func NewScheduler(bot *tgbotapi.BotAPI, delay time.Duration) *Scheduler {
	return &Scheduler{
		cron:  cron.New(),
		bot:   bot,
		delay: delay,
	}
}

// ScheduleDeletion ставит сообщения чата в очередь на удаление.
// Не блокирует вызывающего и не зависит от исхода удаления.
func (s *Scheduler) ScheduleDeletion(chatID int64, messageIDs ...int) {
	if len(messageIDs) == 0 {
		return
	}
	s.mu.Lock()
	s.pending = append(s.pending, batch{
		chatID:     chatID,
		messageIDs: messageIDs,
		due:        time.Now().Add(s.delay),
	})
	s.mu.Unlock()
}

// Start запускает фоновые задачи.
func (s *Scheduler) Start() {
	s.cron.AddFunc("* * * * *", func() {
		s.flushDue(time.Now())
	})
	s.cron.Start()
	log.WithField("delay", s.delay).Info("Планировщик удаления сообщений запущен")
}

// Stop останавливает планировщик и дожидается завершения задач.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Info("Планировщик задач остановлен")
}

// flushDue удаляет все пачки, чей срок наступил к моменту now.
func (s *Scheduler) flushDue(now time.Time) {
	s.mu.Lock()
	var due, rest []batch
	for _, b := range s.pending {
		if b.due.After(now) {
			rest = append(rest, b)
		} else {
			due = append(due, b)
		}
	}
	s.pending = rest
	s.mu.Unlock()

	for _, b := range due {
		s.deleteBatch(b)
	}
}

func (s *Scheduler) deleteBatch(b batch) {
	for _, id := range b.messageIDs {
		if _, err := s.bot.Request(tgbotapi.NewDeleteMessage(b.chatID, id)); err != nil {
			log.WithError(err).WithFields(log.Fields{
				"chat_id":    b.chatID,
				"message_id": id,
			}).Debug("Не удалось удалить сообщение")
		}
	}
	log.WithFields(log.Fields{
		"chat_id": b.chatID,
		"count":   len(b.messageIDs),
	}).Debug("Пачка временных сообщений обработана")
}
