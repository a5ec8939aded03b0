// Package common — errors.go определяет пользовательские ошибки,
// которые используются во всех модулях бота.
// Эти ошибки позволяют обработчикам различать типы проблем
// и отправлять пользователю понятные сообщения.
package common

import "errors"

// Ошибки разбора команд
var (
	// ErrNotEnoughArguments — команде не хватает аргументов
	ErrNotEnoughArguments = errors.New("недостаточно аргументов")
	// ErrBadID — идентификатор не является числом
	ErrBadID = errors.New("некорректный идентификатор")
)

// Ошибки поиска сущностей
var (
	// ErrUserNotFound — пользователь не найден в базе
	ErrUserNotFound = errors.New("пользователь не найден")
	// ErrChatNotFound — чат не найден в базе
	ErrChatNotFound = errors.New("чат не найден")
	// ErrReportNotFound — репорт не найден в базе
	ErrReportNotFound = errors.New("репорт не найден")
	// ErrNotFound — запись кармы не найдена
	ErrNotFound = errors.New("запись кармы не найдена")
)

// Ошибки кармы
var (
	// ErrNoNeighbours — у пользователя нет соседей по рейтингу.
	// Это не ошибка для пользователя: топ просто показывается без добавок.
	ErrNoNeighbours = errors.New("нет соседей по рейтингу")
	// ErrTransaction — атомарная групповая запись не прошла целиком
	ErrTransaction = errors.New("транзакция не выполнена")
)

// Ошибки репортов
var (
	// ErrReportAlreadyResolved — репорт уже рассмотрен, повторное решение невозможно
	ErrReportAlreadyResolved = errors.New("репорт уже рассмотрен")
	// ErrInvalidResolution — решение может быть только «одобрен» или «отклонён»
	ErrInvalidResolution = errors.New("недопустимое решение по репорту")
)

// Ошибки админки
var (
	// ErrNotAdmin — пользователь не является администратором
	ErrNotAdmin = errors.New("у вас нет прав администратора")
	// ErrWrongPassword — неверный пароль
	ErrWrongPassword = errors.New("неверный пароль")
	// ErrTooManyAttempts — слишком много неудачных попыток входа
	ErrTooManyAttempts = errors.New("слишком много попыток, подождите 1 час")
)
