package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"signal-backend/internal/domain"
)

// DefaultSettings is the full default set used for missing fields and as the
// substitute for invalid documents.
func DefaultSettings() domain.Settings {
	return domain.Settings{
		NotificationsEnabled: true,
		BuyThreshold:         decimal.RequireFromString("0.005"),
		SellThreshold:        decimal.RequireFromString("0.005"),
		ShortPeriod:          7,
		LongPeriod:           21,
		TradingEnabled:       false,
		TradingMode:          domain.ModeTestnet,
		TradeAmount:          decimal.NewFromInt(50),
		SellPercentage:       decimal.NewFromInt(100),
	}
}

// SettingsResolver merges the persisted settings document with defaults and validates the result.
type SettingsResolver struct {
	repo    domain.SettingsRepository
	timeout time.Duration
	log     log.FieldLogger
}

func NewSettingsResolver(repo domain.SettingsRepository, timeout time.Duration, logger log.FieldLogger) *SettingsResolver {
	return &SettingsResolver{repo: repo, timeout: timeout, log: logger}
}

// Resolve returns validated settings.
//
// A failed read returns the defaults together with a *domain.PersistenceError,
// which callers treat as a warning. Invalid merged settings return a
// *domain.ConfigurationError and zero Settings; callers substitute DefaultSettings.
func (r *SettingsResolver) Resolve(ctx context.Context) (domain.Settings, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	doc, err := r.repo.Get(ctx)
	switch {
	case errors.Is(err, domain.ErrSettingsNotFound):
		r.log.Debug("no settings document, using defaults")
		return DefaultSettings(), nil
	case err != nil:
		r.log.WithError(err).Warn("settings read failed, using defaults")
		return DefaultSettings(), &domain.PersistenceError{Op: "read settings", Err: err}
	}

	merged := MergeSettings(doc)
	if err := ValidateSettings(merged); err != nil {
		return domain.Settings{}, err
	}
	return merged, nil
}

// MergeSettings fills every unset field of doc from DefaultSettings.
func MergeSettings(doc *domain.SettingsDocument) domain.Settings {
	s := DefaultSettings()
	if doc == nil {
		return s
	}
	if doc.NotificationsEnabled != nil {
		s.NotificationsEnabled = *doc.NotificationsEnabled
	}
	if doc.BuyThreshold != nil {
		s.BuyThreshold = *doc.BuyThreshold
	}
	if doc.SellThreshold != nil {
		s.SellThreshold = *doc.SellThreshold
	}
	if doc.ShortPeriod != nil {
		s.ShortPeriod = *doc.ShortPeriod
	}
	if doc.LongPeriod != nil {
		s.LongPeriod = *doc.LongPeriod
	}
	if doc.TradingEnabled != nil {
		s.TradingEnabled = *doc.TradingEnabled
	}
	if doc.TradingMode != nil {
		s.TradingMode = *doc.TradingMode
	}
	if doc.TradeAmount != nil {
		s.TradeAmount = *doc.TradeAmount
	}
	if doc.SellPercentage != nil {
		s.SellPercentage = *doc.SellPercentage
	}
	return s
}

// ValidateSettings checks the invariants of a merged settings set.
func ValidateSettings(s domain.Settings) error {
	hundred := decimal.NewFromInt(100)
	switch {
	case s.ShortPeriod < 1:
		return &domain.ConfigurationError{Field: "shortPeriod", Reason: "must be >= 1"}
	case s.ShortPeriod >= s.LongPeriod:
		return &domain.ConfigurationError{Field: "shortPeriod", Reason: "must be less than longPeriod"}
	case !s.BuyThreshold.IsPositive():
		return &domain.ConfigurationError{Field: "buyThreshold", Reason: "must be > 0"}
	case !s.SellThreshold.IsPositive():
		return &domain.ConfigurationError{Field: "sellThreshold", Reason: "must be > 0"}
	case !s.TradeAmount.IsPositive():
		return &domain.ConfigurationError{Field: "tradeAmount", Reason: "must be > 0"}
	case !s.SellPercentage.IsPositive() || s.SellPercentage.GreaterThan(hundred):
		return &domain.ConfigurationError{Field: "sellPercentage", Reason: "must be in (0, 100]"}
	case !s.TradingMode.Valid():
		return &domain.ConfigurationError{Field: "tradingMode", Reason: "must be testnet or production"}
	}
	return nil
}
