package repository

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signal-backend/internal/domain"
)

func TestInMemorySignalRepository_PreviousUsesWriteOrder(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemorySignalRepository()

	first := &domain.Signal{Type: domain.SignalHold}
	second := &domain.Signal{Type: domain.SignalBuy}
	require.NoError(t, repo.Create(ctx, first))
	require.NoError(t, repo.Create(ctx, second))
	assert.Equal(t, "1", first.ID)
	assert.Equal(t, "2", second.ID)

	prev, err := repo.Previous(ctx, second)
	require.NoError(t, err)
	require.NotNil(t, prev)
	assert.Equal(t, first.ID, prev.ID)
	assert.Equal(t, domain.SignalHold, prev.Type)

	none, err := repo.Previous(ctx, first)
	require.NoError(t, err)
	assert.Nil(t, none)

	// A later write does not change what came before second.
	require.NoError(t, repo.Create(ctx, &domain.Signal{Type: domain.SignalSell}))
	prev, err = repo.Previous(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, first.ID, prev.ID)

	_, err = repo.Previous(ctx, &domain.Signal{})
	assert.Error(t, err)
}

func TestInMemorySignalRepository_ListNewestFirst(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemorySignalRepository()
	for i := 0; i < 5; i++ {
		require.NoError(t, repo.Create(ctx, &domain.Signal{Type: domain.SignalHold}))
	}

	list, err := repo.List(ctx, 3)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "5", list[0].ID)
	assert.Equal(t, "3", list[2].ID)

	latest, err := repo.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, "5", latest.ID)
}

func TestInMemoryPriceRepository_Since(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemoryPriceRepository()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	// Out-of-order appends are kept sorted.
	repo.Append(
		domain.PriceSample{Timestamp: base.Add(2 * time.Minute), Price: decimal.NewFromInt(102)},
		domain.PriceSample{Timestamp: base, Price: decimal.NewFromInt(100)},
		domain.PriceSample{Timestamp: base.Add(time.Minute), Price: decimal.NewFromInt(101)},
	)

	samples, err := repo.Since(ctx, base.Add(time.Minute))
	require.NoError(t, err)
	require.Len(t, samples, 2)
	assert.True(t, samples[0].Price.Equal(decimal.NewFromInt(101)))
	assert.True(t, samples[1].Price.Equal(decimal.NewFromInt(102)))

	latest, err := repo.Latest(ctx)
	require.NoError(t, err)
	assert.True(t, latest.Price.Equal(decimal.NewFromInt(102)))
}

func TestInMemorySettingsRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemorySettingsRepository(nil)

	_, err := repo.Get(ctx)
	assert.ErrorIs(t, err, domain.ErrSettingsNotFound)

	enabled := true
	repo.Set(&domain.SettingsDocument{TradingEnabled: &enabled})
	doc, err := repo.Get(ctx)
	require.NoError(t, err)
	require.NotNil(t, doc.TradingEnabled)
	assert.True(t, *doc.TradingEnabled)
	assert.Nil(t, doc.ShortPeriod)
}

func TestInMemoryTransitionLockRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemoryTransitionLockRepository()
	now := time.Now()

	ok, err := repo.Acquire(ctx, "tx-1-BUY", "2", now)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.Acquire(ctx, "tx-1-BUY", "3", now)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = repo.Acquire(ctx, "tx-1-SELL", "3", now)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = repo.Acquire(ctx, "", "3", now)
	assert.Error(t, err)
}

func TestInMemoryTradeRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemoryTradeRepository()

	trade := &domain.TradeRecord{SignalID: "1", Side: domain.SideBuy}
	require.NoError(t, repo.CreateTrade(ctx, trade))
	assert.NotEmpty(t, trade.ID)
	require.NoError(t, repo.CreateFailedTrade(ctx, &domain.FailedTradeRecord{SignalID: "2", Error: "insufficient balance"}))

	trades, err := repo.ListTrades(ctx, 10)
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.Equal(t, trade.ID, trades[0].ID)

	failed, err := repo.ListFailedTrades(ctx, 10)
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, "insufficient balance", failed[0].Error)
}

func TestInMemoryNotificationRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemoryNotificationRepository()

	rec := &domain.NotificationRecord{SignalID: "4", Title: "BUY Signal Detected!", Channels: []string{"fcm"}}
	require.NoError(t, repo.Create(ctx, rec))
	rec.Channels[0] = "mutated"

	list, err := repo.List(ctx, 5)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, []string{"fcm"}, list[0].Channels)
}
