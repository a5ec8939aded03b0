// Package app инициализирует все компоненты приложения.
// app.go — точка сборки: создаёт пулы БД и Redis, репозитории, сервисы,
// обработчики и собирает всё в один объект Bot.
package app

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"karma-bot/internal/bot"
	"karma-bot/internal/config"
	"karma-bot/internal/db/postgres"
	"karma-bot/internal/db/redis"
	"karma-bot/internal/features/admin"
	"karma-bot/internal/features/karma"
	"karma-bot/internal/features/report"
	"karma-bot/internal/features/users"
	"karma-bot/internal/jobs"
)

// App содержит все компоненты приложения.
type App struct {
	Bot       *bot.Bot
	Scheduler *jobs.Scheduler
	DB        *pgxpool.Pool
	Redis     *goredis.Client
	BotAPI    *tgbotapi.BotAPI
}

// New создаёт и инициализирует приложение.
// Порядок инициализации важен — компоненты зависят друг от друга.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	// === 1. Хранилища ===
	pool, err := postgres.NewPool(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("ошибка подключения к БД: %w", err)
	}

	if err := runMigrations(ctx, pool); err != nil {
		return nil, fmt.Errorf("ошибка миграций: %w", err)
	}

	redisClient, err := redis.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("ошибка подключения к Redis: %w", err)
	}

	// === 2. Telegram Bot API ===
	botAPI, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания Telegram API: %w", err)
	}
	botAPI.Debug = cfg.AppEnv == "development"
	log.Infof("Авторизован как @%s", botAPI.Self.UserName)

	// === 3. Планировщик удаления сообщений ===
	scheduler := jobs.NewScheduler(botAPI, cfg.CleanupDelay)

	// === 4. Репозитории ===
	userRepo := users.NewRepository(pool)
	karmaRepo := karma.NewRepository(pool)
	reportRepo := report.NewRepository(pool)

	// === 5. Сервисы ===
	userService := users.NewService(userRepo)
	restriction := karma.NewRestriction(
		redis.NewWindowStore(redisClient), cfg.KarmaChangeLimit, cfg.KarmaChangeWindow)
	karmaService := karma.NewService(karmaRepo, restriction)
	reportService := report.NewService(reportRepo, karmaService, userService, report.BotIdentity{
		TgID:      botAPI.Self.ID,
		Username:  botAPI.Self.UserName,
		FirstName: botAPI.Self.FirstName,
	})
	adminService := admin.NewService(cfg.AdminPasswordHash, cfg.AdminIDs)

	// === 6. Обработчики ===
	karmaHandler := karma.NewHandler(karmaService, userService, botAPI, scheduler, cfg.TopLimit)
	reportHandler := report.NewHandler(reportService, userService, botAPI, scheduler,
		cfg.AdminIDs, cfg.ReportRewardAmount)
	adminHandler := admin.NewHandler(adminService, karmaService, userService, botAPI)

	// === 7. Собираем бота ===
	b := bot.New(botAPI, cfg, karmaHandler, reportHandler, adminHandler)

	return &App{
		Bot:       b,
		Scheduler: scheduler,
		DB:        pool,
		Redis:     redisClient,
		BotAPI:    botAPI,
	}, nil
}

// runMigrations выполняет все SQL-миграции.
func runMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return err
	}

	migrations := []struct {
		version int
		sql     string
	}{
		{1, migration001Identity},
		{2, migration002Karma},
		{3, migration003KarmaEvents},
		{4, migration004Reports},
	}

	for _, m := range migrations {
		if err := postgres.ExecMigrationSQL(ctx, pool, m.version, m.sql); err != nil {
			return fmt.Errorf("миграция %d: %w", m.version, err)
		}
		log.Infof("Миграция %d применена", m.version)
	}

	return nil
}

// SQL-миграции встроены в код для упрощения деплоя.

var migration001Identity = `
CREATE TABLE IF NOT EXISTS users (
    id BIGSERIAL PRIMARY KEY,
    tg_id BIGINT UNIQUE NOT NULL,
    username VARCHAR(255) NOT NULL DEFAULT '',
    first_name VARCHAR(255) NOT NULL DEFAULT '',
    last_name VARCHAR(255) NOT NULL DEFAULT '',
    created_at TIMESTAMP NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP NOT NULL DEFAULT NOW()
);
CREATE TABLE IF NOT EXISTS chats (
    id BIGSERIAL PRIMARY KEY,
    chat_id BIGINT UNIQUE NOT NULL,
    title VARCHAR(255) NOT NULL DEFAULT '',
    created_at TIMESTAMP NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP NOT NULL DEFAULT NOW()
);
`

var migration002Karma = `
CREATE TABLE IF NOT EXISTS user_karma (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT NOT NULL REFERENCES users(tg_id),
    chat_id BIGINT NOT NULL REFERENCES chats(chat_id),
    karma DOUBLE PRECISION NOT NULL DEFAULT 0,
    created_at TIMESTAMP NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP NOT NULL DEFAULT NOW(),
    UNIQUE (user_id, chat_id)
);
CREATE INDEX IF NOT EXISTS idx_user_karma_chat_rank
    ON user_karma(chat_id, karma DESC, user_id ASC);
`

var migration003KarmaEvents = `
CREATE TABLE IF NOT EXISTS karma_events (
    id BIGSERIAL PRIMARY KEY,
    actor_id BIGINT NOT NULL REFERENCES users(tg_id),
    target_id BIGINT NOT NULL REFERENCES users(tg_id),
    chat_id BIGINT NOT NULL REFERENCES chats(chat_id),
    delta DOUBLE PRECISION NOT NULL,
    comment TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMP NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_karma_events_target ON karma_events(target_id, chat_id);
CREATE INDEX IF NOT EXISTS idx_karma_events_created_at ON karma_events(created_at DESC);
`

var migration004Reports = `
CREATE TABLE IF NOT EXISTS reports (
    id BIGSERIAL PRIMARY KEY,
    reporter_id BIGINT NOT NULL REFERENCES users(tg_id),
    reported_user_id BIGINT NOT NULL REFERENCES users(tg_id),
    chat_id BIGINT NOT NULL REFERENCES chats(chat_id),
    reported_message_id INTEGER NOT NULL,
    command_message_id INTEGER NOT NULL,
    bot_reply_message_id INTEGER,
    status VARCHAR(16) NOT NULL DEFAULT 'PENDING',
    resolved_by BIGINT REFERENCES users(tg_id),
    resolution_time TIMESTAMP,
    created_at TIMESTAMP NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_reports_linked
    ON reports(chat_id, reported_message_id, status);
`
