// Package report реализует работу с жалобами на сообщения:
// регистрацию, связывание по одному сообщению и атомарное разрешение группы.
// models.go описывает структуры для таблицы reports.
package report

import "time"

// Status — состояние репорта. PENDING — начальное; APPROVED, DECLINED
// и CANCELLED — терминальные, выход из них невозможен.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusApproved  Status = "APPROVED"
	StatusDeclined  Status = "DECLINED"
	StatusCancelled Status = "CANCELLED"
)

// Resolution — вердикт модератора. Допустимы только Approved и Declined:
// CANCELLED проставляется связанным репортам автоматически, а PENDING
// вердиктом не является. Валидность проверяется на границе вызова.
type Resolution string

const (
	ResolutionApproved = Resolution(StatusApproved)
	ResolutionDeclined = Resolution(StatusDeclined)
)

// Valid сообщает, является ли значение допустимым вердиктом.
func (r Resolution) Valid() bool {
	return r == ResolutionApproved || r == ResolutionDeclined
}

// Report — жалоба на сообщение в чате.
// Несколько репортов с одинаковыми chat_id и reported_message_id — «связанные»:
// поданы независимо, но описывают одно и то же сообщение.
type Report struct {
	ID                int64      `db:"id"`
	ReporterID        int64      `db:"reporter_id"`      // Telegram ID подавшего
	ReportedUserID    int64      `db:"reported_user_id"` // Telegram ID нарушителя
	ChatID            int64      `db:"chat_id"`
	ReportedMessageID int        `db:"reported_message_id"`
	CommandMessageID  int        `db:"command_message_id"`
	BotReplyMessageID *int       `db:"bot_reply_message_id"` // nil, пока бот не ответил
	Status            Status     `db:"status"`
	ResolvedBy        *int64     `db:"resolved_by"`     // ставится вместе с ResolutionTime
	ResolutionTime    *time.Time `db:"resolution_time"` // ровно один раз, при выходе из PENDING
	CreatedAt         time.Time  `db:"created_at"`
}
