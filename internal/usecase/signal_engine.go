package usecase

import (
	"time"

	"github.com/shopspring/decimal"

	"signal-backend/internal/domain"
	"signal-backend/internal/infrastructure/indicators"
)

const (
	ReasonInsufficientData = "insufficient data"
	ReasonBelowTrend       = "short MA below long MA by more than buy threshold"
	ReasonAboveTrend       = "short MA above long MA by more than sell threshold"
	ReasonWithinBand       = "short MA within threshold band"
)

var hundred = decimal.NewFromInt(100)

// ComputeSignal classifies the price window with a dual moving-average
// crossover. Samples must be ascending by timestamp. The result has no ID
// until it is persisted.
func ComputeSignal(samples []domain.PriceSample, settings domain.Settings, now time.Time) domain.Signal {
	signal := domain.Signal{
		Timestamp:  now.UTC(),
		Type:       domain.SignalHold,
		Confidence: decimal.Zero,
	}
	if len(samples) > 0 {
		signal.Price = samples[len(samples)-1].Price
	}

	prices := domain.Prices(samples)
	shortSum, shortErr := indicators.Sum(prices, settings.ShortPeriod)
	longSum, longErr := indicators.Sum(prices, settings.LongPeriod)
	if shortErr != nil || longErr != nil || !longSum.IsPositive() {
		signal.Reason = ReasonInsufficientData
		return signal
	}

	shortN := decimal.NewFromInt(int64(settings.ShortPeriod))
	longN := decimal.NewFromInt(int64(settings.LongPeriod))
	shortMA := shortSum.Div(shortN)
	longMA := longSum.Div(longN)
	signal.ShortMA = shortMA.Round(2)
	signal.LongMA = longMA.Round(2)

	// shortMA vs longMA*(1±threshold), cross-multiplied by both periods so
	// the comparison never sees a rounded mean.
	one := decimal.NewFromInt(1)
	scaledShort := shortSum.Mul(longN)
	scaledLong := longSum.Mul(shortN)
	buyLevel := scaledLong.Mul(one.Sub(settings.BuyThreshold))
	sellLevel := scaledLong.Mul(one.Add(settings.SellThreshold))

	// Strict comparisons: a short MA exactly on a threshold level is HOLD.
	switch {
	case scaledShort.LessThan(buyLevel):
		signal.Type = domain.SignalBuy
		signal.Reason = ReasonBelowTrend
		deviation := scaledLong.Sub(scaledShort).Div(scaledLong)
		signal.Confidence = confidence(deviation, settings.BuyThreshold)
	case scaledShort.GreaterThan(sellLevel):
		signal.Type = domain.SignalSell
		signal.Reason = ReasonAboveTrend
		deviation := scaledShort.Sub(scaledLong).Div(scaledLong)
		signal.Confidence = confidence(deviation, settings.SellThreshold)
	default:
		signal.Reason = ReasonWithinBand
	}
	return signal
}

// confidence maps deviation/threshold onto [0, 100], rounded to cents.
func confidence(deviation, threshold decimal.Decimal) decimal.Decimal {
	c := deviation.Div(threshold).Mul(hundred)
	if c.GreaterThan(hundred) {
		c = hundred
	}
	if c.IsNegative() {
		c = decimal.Zero
	}
	return c.Round(2)
}
