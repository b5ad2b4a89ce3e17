package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signal-backend/internal/domain"
	"signal-backend/internal/repository"
)

type brokenSettingsRepo struct{}

func (brokenSettingsRepo) Get(context.Context) (*domain.SettingsDocument, error) {
	return nil, errors.New("connection refused")
}

func ptr[T any](v T) *T { return &v }

func TestSettingsResolver_MissingDocumentUsesDefaults(t *testing.T) {
	r := NewSettingsResolver(repository.NewInMemorySettingsRepository(nil), time.Second, quietLogger())

	s, err := r.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, DefaultSettings(), s)
}

func TestSettingsResolver_PartialDocumentMerged(t *testing.T) {
	doc := &domain.SettingsDocument{
		ShortPeriod:    ptr(5),
		TradingEnabled: ptr(true),
		TradingMode:    ptr(domain.ModeProduction),
		TradeAmount:    ptr(dec("25.5")),
	}
	r := NewSettingsResolver(repository.NewInMemorySettingsRepository(doc), time.Second, quietLogger())

	s, err := r.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, s.ShortPeriod)
	assert.Equal(t, 21, s.LongPeriod)
	assert.True(t, s.TradingEnabled)
	assert.True(t, s.NotificationsEnabled)
	assert.Equal(t, domain.ModeProduction, s.TradingMode)
	assert.Equal(t, "25.5", s.TradeAmount.String())
	assert.Equal(t, "0.005", s.BuyThreshold.String())
}

func TestSettingsResolver_ReadFailureWarnsWithDefaults(t *testing.T) {
	r := NewSettingsResolver(brokenSettingsRepo{}, time.Second, quietLogger())

	s, err := r.Resolve(context.Background())
	var perr *domain.PersistenceError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, DefaultSettings(), s)
}

func TestSettingsResolver_InvalidDocument(t *testing.T) {
	tests := []struct {
		name  string
		doc   domain.SettingsDocument
		field string
	}{
		{"short not below long", domain.SettingsDocument{ShortPeriod: ptr(21), LongPeriod: ptr(21)}, "shortPeriod"},
		{"short above long", domain.SettingsDocument{ShortPeriod: ptr(30)}, "shortPeriod"},
		{"zero short", domain.SettingsDocument{ShortPeriod: ptr(0)}, "shortPeriod"},
		{"zero buy threshold", domain.SettingsDocument{BuyThreshold: ptr(dec("0"))}, "buyThreshold"},
		{"negative sell threshold", domain.SettingsDocument{SellThreshold: ptr(dec("-0.1"))}, "sellThreshold"},
		{"zero trade amount", domain.SettingsDocument{TradeAmount: ptr(dec("0"))}, "tradeAmount"},
		{"sell percentage over 100", domain.SettingsDocument{SellPercentage: ptr(dec("100.01"))}, "sellPercentage"},
		{"unknown mode", domain.SettingsDocument{TradingMode: ptr(domain.TradingMode("mainnet"))}, "tradingMode"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := tt.doc
			r := NewSettingsResolver(repository.NewInMemorySettingsRepository(&doc), time.Second, quietLogger())

			_, err := r.Resolve(context.Background())
			var cfgErr *domain.ConfigurationError
			require.True(t, errors.As(err, &cfgErr), "got %v", err)
			assert.Equal(t, tt.field, cfgErr.Field)
		})
	}
}

func TestValidateSettings_Defaults(t *testing.T) {
	assert.NoError(t, ValidateSettings(DefaultSettings()))
}
