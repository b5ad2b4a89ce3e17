package domain

import (
	"context"
	"time"
)

// PriceRepository reads samples written by the ingestion process.
type PriceRepository interface {
	// Since returns samples with timestamp >= from, ascending.
	Since(ctx context.Context, from time.Time) ([]PriceSample, error)
	Latest(ctx context.Context) (*PriceSample, error)
}

// SettingsRepository reads the raw settings document.
// It returns ErrSettingsNotFound when no document exists.
type SettingsRepository interface {
	Get(ctx context.Context) (*SettingsDocument, error)
}

// SignalRepository is the append-only signal log.
type SignalRepository interface {
	// Create assigns ID and stores the signal.
	Create(ctx context.Context, signal *Signal) error
	// Previous returns the most recent signal written before the given one,
	// or nil when there is none.
	Previous(ctx context.Context, current *Signal) (*Signal, error)
	Latest(ctx context.Context) (*Signal, error)
	List(ctx context.Context, limit int) ([]*Signal, error)
}

// TradeRepository is the append-only audit log of trade attempts.
type TradeRepository interface {
	CreateTrade(ctx context.Context, record *TradeRecord) error
	CreateFailedTrade(ctx context.Context, record *FailedTradeRecord) error
	ListTrades(ctx context.Context, limit int) ([]*TradeRecord, error)
	ListFailedTrades(ctx context.Context, limit int) ([]*FailedTradeRecord, error)
}

// TransitionLockRepository guards against two invocations trading the same transition.
type TransitionLockRepository interface {
	// Acquire stores key if absent. It reports false when another caller already holds it.
	Acquire(ctx context.Context, key string, signalID string, at time.Time) (bool, error)
}

// NotificationRepository stores delivered notifications.
type NotificationRepository interface {
	Create(ctx context.Context, record *NotificationRecord) error
	List(ctx context.Context, limit int) ([]*NotificationRecord, error)
}
