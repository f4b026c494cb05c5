// Package app собирает зависимости бота из конфигурации.
package app

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/ivanoskov/mani_bot/internal/bot"
	"github.com/ivanoskov/mani_bot/internal/charts"
	"github.com/ivanoskov/mani_bot/internal/config"
	"github.com/ivanoskov/mani_bot/internal/conversation"
	"github.com/ivanoskov/mani_bot/internal/health"
	"github.com/ivanoskov/mani_bot/internal/log"
	"github.com/ivanoskov/mani_bot/internal/report"
	"github.com/ivanoskov/mani_bot/internal/repository"
	"github.com/ivanoskov/mani_bot/internal/service"
)

type App struct {
	Bot    *bot.Bot
	Health *health.Server
	repo   repository.Repository
}

// New подключается к Telegram и хранилищу
func New(ctx context.Context, cfg *config.Config, logger *log.Logger) (*App, error) {
	api, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		return nil, fmt.Errorf("connect to telegram: %w", err)
	}
	return assemble(ctx, cfg, logger, api)
}

func assemble(ctx context.Context, cfg *config.Config, logger *log.Logger, api bot.API) (*App, error) {
	repo, err := OpenRepository(cfg, logger)
	if err != nil {
		return nil, err
	}

	if cfg.SeedFile != "" {
		seed, err := repository.LoadSeed(cfg.SeedFile)
		if err != nil {
			repo.Close()
			return nil, err
		}
		if err := repository.ApplySeed(ctx, repo, seed); err != nil {
			repo.Close()
			return nil, fmt.Errorf("apply seed: %w", err)
		}
		logger.Info("seed applied",
			"file", cfg.SeedFile,
			"users", len(seed.AllowedUsers),
			"categories", len(seed.Categories))
	}

	ledger := service.NewLedger(repo, logger)
	router := conversation.NewRouter(
		ledger,
		report.NewAggregator(ledger, cfg.ReportWindowDays, logger),
		charts.NewRenderer(),
		conversation.NewSessions(),
		logger,
	)

	return &App{
		Bot:    bot.New(api, router, logger),
		Health: health.NewServer(logger),
		repo:   repo,
	}, nil
}

// OpenRepository открывает хранилище, выбранное в STORE_BACKEND
func OpenRepository(cfg *config.Config, logger *log.Logger) (repository.Repository, error) {
	var (
		repo repository.Repository
		err  error
	)
	switch cfg.StoreBackend {
	case config.BackendSQLite:
		repo, err = repository.NewSQLiteRepository(cfg.SQLitePath, logger)
	case config.BackendSupabase:
		repo, err = repository.NewSupabaseRepository(cfg.SupabaseURL, cfg.SupabaseKey, logger)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
	if err != nil {
		return nil, err
	}
	logger.Info("store opened", "backend", cfg.StoreBackend)
	return repo, nil
}

func (a *App) Close() error {
	return a.repo.Close()
}
