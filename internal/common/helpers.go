// Package common содержит общие утилиты, используемые во всём проекте.
// Сюда входят: форматирование кармы, HTML-выделение, русская плюрализация.
package common

import (
	"fmt"
	"html"
	"math"
)

// FormatKarma форматирует значение кармы с округлением до двух знаков.
//
// Примеры:
//
//	FormatKarma(10)     → "10.00"
//	FormatKarma(2.5)    → "2.50"
//	FormatKarma(-0.333) → "-0.33"
func FormatKarma(karma float64) string {
	return fmt.Sprintf("%.2f", karma)
}

// Bold оборачивает текст в HTML-тег <b> для Telegram (parse_mode=HTML).
func Bold(text string) string {
	return "<b>" + text + "</b>"
}

// EscapeHTML экранирует спецсимволы HTML в пользовательском тексте
// (имена пользователей могут содержать < > &).
func EscapeHTML(text string) string {
	return html.EscapeString(text)
}

// PluralizeReports возвращает правильную форму слова «репорт» для числа n.
//
// Правила русского языка:
//   - n%10==1 И n%100!=11 → "репорт" (1, 21, 31, 101, ...)
//   - n%10 в [2,3,4] И n%100 НЕ в [12,13,14] → "репорта" (2, 3, 4, 22, ...)
//   - Остальные случаи → "репортов" (0, 5-20, 25-30, 100, ...)
func PluralizeReports(n int) string {
	absN := int(math.Abs(float64(n)))
	lastDigit := absN % 10
	lastTwoDigits := absN % 100

	if lastDigit == 1 && lastTwoDigits != 11 {
		return "репорт"
	}
	if lastDigit >= 2 && lastDigit <= 4 && (lastTwoDigits < 12 || lastTwoDigits > 14) {
		return "репорта"
	}
	return "репортов"
}
