// Package karma — repository.go выполняет операции с таблицами user_karma и karma_events.
// Все изменения счёта атомарны на уровне строки: конкурентные дельты
// не теряются, импорт выполняется в одной транзакции.
package karma

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"karma-bot/internal/common"
)

// Repository работает с таблицами user_karma и karma_events.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository создаёт репозиторий кармы.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// GetOrCreate возвращает запись кармы, создавая её с нулём при отсутствии.
// Апсерт атомарен: два конкурентных первых обращения не создадут дубликат.
// Фиктивный DO UPDATE нужен, чтобы RETURNING отдал строку в обоих случаях.
func (r *Repository) GetOrCreate(ctx context.Context, userID, chatID int64) (*UserKarma, error) {
	query := `
		INSERT INTO user_karma (user_id, chat_id, karma)
		VALUES ($1, $2, 0)
		ON CONFLICT (user_id, chat_id) DO UPDATE SET karma = user_karma.karma
		RETURNING id, user_id, chat_id, karma, created_at, updated_at
	`
	var uk UserKarma
	err := r.db.QueryRow(ctx, query, userID, chatID).Scan(
		&uk.ID, &uk.UserID, &uk.ChatID, &uk.Karma, &uk.CreatedAt, &uk.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания записи кармы: %w", err)
	}
	return &uk, nil
}

// ApplyDelta атомарно прибавляет delta к карме пользователя в чате
// и возвращает итоговый счёт. Однострочный апсерт-инкремент гарантирует,
// что две конкурентные дельты не потеряются.
func (r *Repository) ApplyDelta(ctx context.Context, userID, chatID int64, delta float64) (float64, error) {
	query := `
		INSERT INTO user_karma (user_id, chat_id, karma)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, chat_id) DO UPDATE
		SET karma = user_karma.karma + EXCLUDED.karma, updated_at = NOW()
		RETURNING karma
	`
	var karma float64
	if err := r.db.QueryRow(ctx, query, userID, chatID, delta).Scan(&karma); err != nil {
		return 0, fmt.Errorf("ошибка изменения кармы: %w", err)
	}
	return karma, nil
}

// BulkSet устанавливает абсолютные значения кармы для списка пользователей
// одного чата. Выполняется одной транзакцией: либо применятся все записи,
// либо ни одной (любой сбой — common.ErrTransaction).
func (r *Repository) BulkSet(ctx context.Context, chatID int64, entries []ImportEntry) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO user_karma (user_id, chat_id, karma)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, chat_id) DO UPDATE
		SET karma = EXCLUDED.karma, updated_at = NOW()
	`
	for _, e := range entries {
		if _, err := tx.Exec(ctx, query, e.ID, chatID, e.Karma); err != nil {
			return fmt.Errorf("%w: запись user_id=%d: %v", common.ErrTransaction, e.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%w: %v", common.ErrTransaction, err)
	}
	return nil
}

// TopN возвращает первые limit записей рейтинга чата.
// Сортировка: карма по убыванию, при равенстве — user_id по возрастанию
// (детерминированный вторичный ключ).
func (r *Repository) TopN(ctx context.Context, chatID int64, limit int) ([]ScoredUser, error) {
	query := `
		SELECT u.id, u.tg_id, u.username, u.first_name, u.last_name,
		       u.created_at, u.updated_at, uk.karma
		FROM user_karma uk
		JOIN users u ON u.tg_id = uk.user_id
		WHERE uk.chat_id = $1
		ORDER BY uk.karma DESC, uk.user_id ASC
		LIMIT $2
	`
	rows, err := r.db.Query(ctx, query, chatID, limit)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса топа: %w", err)
	}
	defer rows.Close()

	var out []ScoredUser
	for rows.Next() {
		var su ScoredUser
		if err := rows.Scan(
			&su.User.ID, &su.User.TgID, &su.User.Username, &su.User.FirstName,
			&su.User.LastName, &su.User.CreatedAt, &su.User.UpdatedAt, &su.Karma,
		); err != nil {
			return nil, fmt.Errorf("ошибка сканирования строки топа: %w", err)
		}
		out = append(out, su)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка чтения топа: %w", err)
	}
	return out, nil
}

// RankOf возвращает позицию пользователя (с единицы) в полном рейтинге чата.
// Если записи кармы нет — common.ErrNotFound.
func (r *Repository) RankOf(ctx context.Context, userID, chatID int64) (int, error) {
	query := `
		SELECT pos FROM (
			SELECT user_id,
			       ROW_NUMBER() OVER (ORDER BY karma DESC, user_id ASC) AS pos
			FROM user_karma
			WHERE chat_id = $1
		) ranked
		WHERE user_id = $2
	`
	var pos int
	err := r.db.QueryRow(ctx, query, chatID, userID).Scan(&pos)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, common.ErrNotFound
		}
		return 0, fmt.Errorf("ошибка вычисления позиции: %w", err)
	}
	return pos, nil
}

// Neighbours возвращает записи рейтинга непосредственно над, на и под
// позицией пользователя. Если у чата нет данных рейтинга для пользователя
// либо пользователь единственный в рейтинге (нет ни prev, ни next) —
// common.ErrNoNeighbours.
func (r *Repository) Neighbours(ctx context.Context, userID, chatID int64) (*Neighbours, error) {
	query := `
		WITH ranked AS (
			SELECT uk.user_id, uk.karma,
			       ROW_NUMBER() OVER (ORDER BY uk.karma DESC, uk.user_id ASC) AS pos
			FROM user_karma uk
			WHERE uk.chat_id = $1
		)
		SELECT u.id, u.tg_id, u.username, u.first_name, u.last_name,
		       u.created_at, u.updated_at, r.karma, r.pos
		FROM ranked r
		JOIN users u ON u.tg_id = r.user_id
		WHERE r.pos BETWEEN
			(SELECT pos FROM ranked WHERE user_id = $2) - 1
			AND (SELECT pos FROM ranked WHERE user_id = $2) + 1
		ORDER BY r.pos
	`
	rows, err := r.db.Query(ctx, query, chatID, userID)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса соседей: %w", err)
	}
	defer rows.Close()

	type posScored struct {
		su  ScoredUser
		pos int
	}
	var got []posScored
	for rows.Next() {
		var ps posScored
		if err := rows.Scan(
			&ps.su.User.ID, &ps.su.User.TgID, &ps.su.User.Username, &ps.su.User.FirstName,
			&ps.su.User.LastName, &ps.su.User.CreatedAt, &ps.su.User.UpdatedAt,
			&ps.su.Karma, &ps.pos,
		); err != nil {
			return nil, fmt.Errorf("ошибка сканирования соседа: %w", err)
		}
		got = append(got, ps)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка чтения соседей: %w", err)
	}

	var nb Neighbours
	for i := range got {
		ps := got[i]
		switch {
		case ps.su.User.TgID == userID:
			nb.Self = &ps.su
		case nb.Self == nil:
			nb.Prev = &ps.su
		default:
			nb.Next = &ps.su
		}
	}
	if nb.Self == nil || (nb.Prev == nil && nb.Next == nil) {
		return nil, common.ErrNoNeighbours
	}
	return &nb, nil
}

// UserChats возвращает карму пользователя во всех чатах с позицией в топе.
func (r *Repository) UserChats(ctx context.Context, userID int64) ([]ChatKarma, error) {
	query := `
		WITH ranked AS (
			SELECT user_id, chat_id, karma,
			       ROW_NUMBER() OVER (
			           PARTITION BY chat_id ORDER BY karma DESC, user_id ASC
			       ) AS pos
			FROM user_karma
		)
		SELECT c.id, c.chat_id, c.title, c.created_at, c.updated_at, r.karma, r.pos
		FROM ranked r
		JOIN chats c ON c.chat_id = r.chat_id
		WHERE r.user_id = $1
		ORDER BY r.karma DESC
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса кармы по чатам: %w", err)
	}
	defer rows.Close()

	var out []ChatKarma
	for rows.Next() {
		var ck ChatKarma
		if err := rows.Scan(
			&ck.Chat.ID, &ck.Chat.ChatID, &ck.Chat.Title,
			&ck.Chat.CreatedAt, &ck.Chat.UpdatedAt, &ck.Karma, &ck.Position,
		); err != nil {
			return nil, fmt.Errorf("ошибка сканирования кармы чата: %w", err)
		}
		out = append(out, ck)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка чтения кармы по чатам: %w", err)
	}
	return out, nil
}

// LogEvent записывает изменение кармы в журнал.
func (r *Repository) LogEvent(ctx context.Context, e *Event) error {
	query := `
		INSERT INTO karma_events (actor_id, target_id, chat_id, delta, comment)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.db.Exec(ctx, query, e.ActorID, e.TargetID, e.ChatID, e.Delta, e.Comment)
	return err
}
