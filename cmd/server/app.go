package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"

	"signal-backend/internal/config"
	"signal-backend/internal/domain"
	"signal-backend/internal/infrastructure/binance"
	"signal-backend/internal/infrastructure/binancesdk"
	"signal-backend/internal/infrastructure/db"
	"signal-backend/internal/infrastructure/fcm"
	"signal-backend/internal/infrastructure/logger"
	"signal-backend/internal/infrastructure/telegram"
	"signal-backend/internal/repository"
	"signal-backend/internal/usecase"
)

// app holds the wired dependencies shared by the run and serve commands.
type app struct {
	cfg     config.Config
	log     *log.Logger
	logFile io.Closer
	pool    *pgxpool.Pool

	prices        domain.PriceRepository
	signals       domain.SignalRepository
	trades        domain.TradeRepository
	notifications domain.NotificationRepository

	pipeline *usecase.Pipeline
}

func newApp(ctx context.Context, envFile string) (*app, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, err
	}
	lg, closer, err := logger.New(cfg.LogLevel, cfg.LogFormat, cfg.LogFile)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, log: lg, logFile: closer}

	var (
		settingsRepo domain.SettingsRepository
		locks        domain.TransitionLockRepository
	)
	switch cfg.StorageDriver {
	case config.StoragePostgres:
		a.pool, err = db.NewPool(ctx, cfg.DatabaseURL, db.PoolConfigFromEnv())
		if err != nil {
			a.Close()
			return nil, err
		}
		a.prices = repository.NewPostgresPriceRepository(a.pool)
		a.signals = repository.NewPostgresSignalRepository(a.pool)
		a.trades = repository.NewPostgresTradeRepository(a.pool)
		a.notifications = repository.NewPostgresNotificationRepository(a.pool)
		settingsRepo = repository.NewPostgresSettingsRepository(a.pool, cfg.SettingsID)
		locks = repository.NewPostgresTransitionLockRepository(a.pool)
	default:
		lg.Warn("using in-memory storage; nothing survives a restart")
		a.prices = repository.NewInMemoryPriceRepository()
		a.signals = repository.NewInMemorySignalRepository()
		a.trades = repository.NewInMemoryTradeRepository()
		a.notifications = repository.NewInMemoryNotificationRepository()
		settingsRepo = repository.NewInMemorySettingsRepository(nil)
		locks = repository.NewInMemoryTransitionLockRepository()
	}

	var credentials domain.CredentialStore
	if cfg.CredentialsSource == config.CredentialsPostgres {
		credentials = repository.NewPostgresCredentialRepository(a.pool, cfg.EncryptionKey)
	} else {
		credentials = repository.NewEnvCredentialStore(
			cfg.TestnetAPIKey, cfg.TestnetAPISecret,
			cfg.ProductionAPIKey, cfg.ProductionAPISecret,
		)
	}

	notifiers, err := buildNotifiers(ctx, cfg, lg)
	if err != nil {
		a.Close()
		return nil, err
	}

	executor := usecase.NewTradeExecutor(
		usecase.TradeExecutorConfig{
			Symbol:      cfg.Symbol,
			BaseAsset:   cfg.BaseAsset,
			QuoteAsset:  cfg.QuoteAsset,
			CallTimeout: cfg.CallTimeout,
		},
		buildConnectors(cfg),
		credentials,
		locks,
		lg,
	)
	dispatcher := usecase.NewNotificationDispatcher(cfg.BaseAsset, notifiers, a.notifications, cfg.CallTimeout, lg)

	a.pipeline = usecase.NewPipeline(
		usecase.PipelineConfig{PriceLookback: cfg.PriceLookback, CallTimeout: cfg.CallTimeout},
		usecase.NewSettingsResolver(settingsRepo, cfg.CallTimeout, lg),
		a.prices,
		a.signals,
		a.trades,
		executor,
		dispatcher,
		lg,
	)

	lg.WithFields(log.Fields{
		"storage":     cfg.StorageDriver,
		"exchange":    cfg.ExchangeDriver,
		"credentials": cfg.CredentialsSource,
		"notifiers":   len(notifiers),
	}).Info("signal backend initialized")
	return a, nil
}

// buildConnectors maps each trading mode to its exchange base URL. Switching
// testnet and production is a settings change, never a code path change.
func buildConnectors(cfg config.Config) map[domain.TradingMode]domain.ExchangeConnector {
	urls := map[domain.TradingMode]string{
		domain.ModeTestnet:    cfg.TestnetBaseURL,
		domain.ModeProduction: cfg.ProductionBaseURL,
	}
	connectors := make(map[domain.TradingMode]domain.ExchangeConnector, len(urls))
	for mode, url := range urls {
		if cfg.ExchangeDriver == config.ExchangeSDK {
			connectors[mode] = binancesdk.NewConnector(url, cfg.CallTimeout)
		} else {
			connectors[mode] = binance.NewConnector(url, cfg.RecvWindow, cfg.CallTimeout)
		}
	}
	return connectors
}

func buildNotifiers(ctx context.Context, cfg config.Config, lg log.FieldLogger) ([]domain.Notifier, error) {
	var notifiers []domain.Notifier

	push, err := fcm.NewClient(ctx, cfg.FirebaseCredentialsPath, cfg.FirebaseCredentialsJSON, cfg.FCMTopic, lg)
	switch {
	case errors.Is(err, fcm.ErrDisabled):
		lg.Info("fcm disabled: no firebase credentials")
	case err != nil:
		return nil, err
	default:
		notifiers = append(notifiers, push)
	}

	if cfg.TelegramToken != "" {
		if cfg.TelegramChatID == 0 {
			return nil, fmt.Errorf("TELEGRAM_CHAT_ID is required with TELEGRAM_TOKEN")
		}
		bot, err := telegram.NewNotifier("", cfg.TelegramToken, cfg.TelegramChatID, cfg.CallTimeout)
		if err != nil {
			return nil, err
		}
		notifiers = append(notifiers, bot)
	}
	return notifiers, nil
}

func (a *app) Close() {
	if a.pool != nil {
		a.pool.Close()
	}
	if a.logFile != nil {
		_ = a.logFile.Close()
	}
}
