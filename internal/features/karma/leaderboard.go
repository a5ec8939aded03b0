// Package karma — leaderboard.go форматирует рейтинг в текст.
// Чистые детерминированные функции без обращений к хранилищу.
package karma

import (
	"strconv"
	"strings"

	"karma-bot/internal/common"
)

// Подпись и заглушка рейтинга.
const (
	topCaption = "Список самых почётных пользователей чата:"
	topEmpty   = "Никто в чате не имеет кармы"
)

// Row — одна строка рейтинга: позиция, упоминание, карма.
type Row struct {
	Position int
	Mention  string
	Karma    float64
}

// FormatRows форматирует строки рейтинга:
// "<позиция> <упоминание> <b>карма с двумя знаками</b>", через перевод строки.
func FormatRows(rows []Row) string {
	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		lines = append(lines, formatRow(row))
	}
	return strings.Join(lines, "\n")
}

func formatRow(row Row) string {
	var b strings.Builder
	b.WriteString(strconv.Itoa(row.Position))
	b.WriteByte(' ')
	b.WriteString(common.EscapeHTML(row.Mention))
	b.WriteByte(' ')
	b.WriteString(common.Bold(common.FormatKarma(row.Karma)))
	return b.String()
}

// AddCaption добавляет подпись к списку; пустой список заменяется заглушкой.
func AddCaption(textList string) string {
	if textList == "" {
		return topEmpty
	}
	return topCaption + "\n" + textList
}

// AddSeparator добавляет маркер разрыва «...» после основного списка.
// Маркер ставится ровно один раз, сколько бы строк-соседей ни следовало.
func AddSeparator(text string) string {
	return text + "\n..."
}
