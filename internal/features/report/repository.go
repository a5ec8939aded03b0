// Package report — repository.go выполняет операции с таблицей reports.
// Групповые записи выполняются в одной транзакции БД: разрешение связанных
// репортов либо применяется целиком, либо не применяется вовсе.
package report

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"karma-bot/internal/common"
)

// Repository работает с таблицей reports.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository создаёт репозиторий репортов.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

const reportColumns = `
	id, reporter_id, reported_user_id, chat_id, reported_message_id,
	command_message_id, bot_reply_message_id, status, resolved_by,
	resolution_time, created_at
`

// Create регистрирует новый репорт в статусе PENDING.
func (r *Repository) Create(ctx context.Context, reporterID, reportedUserID, chatID int64, reportedMessageID, commandMessageID int) (*Report, error) {
	query := `
		INSERT INTO reports (
			reporter_id, reported_user_id, chat_id,
			reported_message_id, command_message_id, status
		)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + reportColumns
	row := r.db.QueryRow(ctx, query,
		reporterID, reportedUserID, chatID, reportedMessageID, commandMessageID, StatusPending,
	)
	rep, err := scanReport(row)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания репорта: %w", err)
	}
	return rep, nil
}

// GetByID возвращает репорт по идентификатору.
func (r *Repository) GetByID(ctx context.Context, reportID int64) (*Report, error) {
	query := `SELECT ` + reportColumns + ` FROM reports WHERE id = $1`
	rep, err := scanReport(r.db.QueryRow(ctx, query, reportID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrReportNotFound
		}
		return nil, fmt.Errorf("ошибка чтения репорта (id=%d): %w", reportID, err)
	}
	return rep, nil
}

// GetLinkedPending возвращает все PENDING-репорты на то же сообщение
// в том же чате, включая указанный. Указанный репорт идёт первым,
// остальные — в порядке создания.
// Если репорт не найден — common.ErrReportNotFound; если он уже
// рассмотрен — common.ErrReportAlreadyResolved.
func (r *Repository) GetLinkedPending(ctx context.Context, reportID int64) ([]*Report, error) {
	first, err := r.GetByID(ctx, reportID)
	if err != nil {
		return nil, err
	}
	if first.Status != StatusPending {
		return nil, common.ErrReportAlreadyResolved
	}

	query := `
		SELECT ` + reportColumns + `
		FROM reports
		WHERE chat_id = $1 AND reported_message_id = $2
		  AND status = $3 AND id <> $4
		ORDER BY created_at, id
	`
	rows, err := r.db.Query(ctx, query,
		first.ChatID, first.ReportedMessageID, StatusPending, first.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса связанных репортов: %w", err)
	}
	defer rows.Close()

	group := []*Report{first}
	for rows.Next() {
		rep, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования репорта: %w", err)
		}
		group = append(group, rep)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка чтения связанных репортов: %w", err)
	}
	return group, nil
}

// SaveBotReply сохраняет ID ответа бота. Статус не трогает,
// поэтому работает для репорта в любом состоянии.
func (r *Repository) SaveBotReply(ctx context.Context, rep *Report) error {
	query := `UPDATE reports SET bot_reply_message_id = $2 WHERE id = $1`
	_, err := r.db.Exec(ctx, query, rep.ID, rep.BotReplyMessageID)
	if err != nil {
		return fmt.Errorf("ошибка сохранения ответа бота (id=%d): %w", rep.ID, err)
	}
	return nil
}

// SaveGroup записывает выход группы репортов из PENDING одной транзакцией.
// Каждый UPDATE защищён условием status = PENDING: если конкурентный
// модератор успел рассмотреть хотя бы один репорт группы между чтением
// и записью, вся транзакция откатывается с common.ErrReportAlreadyResolved —
// терминальный статус никогда не перезаписывается. Любой другой сбой
// откатывает всю группу (common.ErrTransaction), частичное применение
// невозможно.
func (r *Repository) SaveGroup(ctx context.Context, group []*Report) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		UPDATE reports
		SET status = $2, resolved_by = $3, resolution_time = $4
		WHERE id = $1 AND status = $5
	`
	for _, rep := range group {
		ct, err := tx.Exec(ctx, query,
			rep.ID, rep.Status, rep.ResolvedBy, rep.ResolutionTime, StatusPending,
		)
		if err != nil {
			return fmt.Errorf("%w: репорт id=%d: %v", common.ErrTransaction, rep.ID, err)
		}
		if ct.RowsAffected() == 0 {
			return common.ErrReportAlreadyResolved
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%w: %v", common.ErrTransaction, err)
	}
	return nil
}

func scanReport(row pgx.Row) (*Report, error) {
	var rep Report
	err := row.Scan(
		&rep.ID, &rep.ReporterID, &rep.ReportedUserID, &rep.ChatID,
		&rep.ReportedMessageID, &rep.CommandMessageID, &rep.BotReplyMessageID,
		&rep.Status, &rep.ResolvedBy, &rep.ResolutionTime, &rep.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &rep, nil
}
