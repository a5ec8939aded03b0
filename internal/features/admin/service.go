// Package admin — service.go содержит логику аутентификации администраторов.
// Сессии и счётчики неудачных попыток живут в памяти процесса:
// бот работает в единственном экземпляре, таблица сессий не нужна.
package admin

import (
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/argon2"

	"karma-bot/internal/common"
)

const (
	sessionTTL     = 24 * time.Hour
	maxAttempts    = 3
	attemptsWindow = 1 * time.Hour
)

// Service управляет доступом администраторов.
type Service struct {
	passwordHash string
	adminIDs     map[int64]struct{}

	mu       sync.Mutex
	sessions map[int64]time.Time   // user_id → истечение сессии
	attempts map[int64][]time.Time // user_id → времена неудачных попыток
}

// NewService создаёт сервис админки.
func NewService(passwordHash string, adminIDs []int64) *Service {
	ids := make(map[int64]struct{}, len(adminIDs))
	for _, id := range adminIDs {
		ids[id] = struct{}{}
	}
	return &Service{
		passwordHash: passwordHash,
		adminIDs:     ids,
		sessions:     make(map[int64]time.Time),
		attempts:     make(map[int64][]time.Time),
	}
}

// IsAdmin проверяет, входит ли пользователь в список администраторов.
func (s *Service) IsAdmin(userID int64) bool {
	_, ok := s.adminIDs[userID]
	return ok
}

// Login проверяет пароль администратора с использованием Argon2id.
// Включает защиту от brute-force: 3 неудачные попытки = блокировка на 1 час.
func (s *Service) Login(userID int64, password string) error {
	if !s.IsAdmin(userID) {
		return common.ErrNotAdmin
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-attemptsWindow)
	var recent []time.Time
	for _, t := range s.attempts[userID] {
		if t.After(cutoff) {
			recent = append(recent, t)
		}
	}
	s.attempts[userID] = recent
	if len(recent) >= maxAttempts {
		return common.ErrTooManyAttempts
	}

	if !verifyArgon2id(password, s.passwordHash) {
		s.attempts[userID] = append(s.attempts[userID], time.Now())
		return common.ErrWrongPassword
	}

	delete(s.attempts, userID)
	s.sessions[userID] = time.Now().Add(sessionTTL)
	log.WithField("user_id", userID).Info("Администратор авторизован")
	return nil
}

// HasActiveSession проверяет, есть ли у пользователя активная сессия.
func (s *Service) HasActiveSession(userID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	expires, ok := s.sessions[userID]
	if !ok {
		return false
	}
	if time.Now().After(expires) {
		delete(s.sessions, userID)
		return false
	}
	return true
}

// verifyArgon2id проверяет пароль по хешу Argon2id.
// Формат хеша: $argon2id$v=19$m=65536,t=3,p=2$<salt_base64>$<hash_base64>
func verifyArgon2id(password, encodedHash string) bool {
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 {
		log.Error("Некорректный формат хеша Argon2id")
		return false
	}

	var memory uint32
	var iterations uint32
	var parallelism uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &iterations, &parallelism); err != nil {
		log.WithError(err).Error("Ошибка парсинга параметров Argon2id")
		return false
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		log.WithError(err).Error("Ошибка декодирования соли")
		return false
	}
	expected, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		log.WithError(err).Error("Ошибка декодирования хеша")
		return false
	}

	actual := argon2.IDKey([]byte(password), salt, iterations, memory, parallelism, uint32(len(expected)))
	return subtle.ConstantTimeCompare(actual, expected) == 1
}
