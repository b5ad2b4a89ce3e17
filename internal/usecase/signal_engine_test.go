package usecase

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signal-backend/internal/domain"
)

var testNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func TestComputeSignal_FlatSeriesIsHold(t *testing.T) {
	s := ComputeSignal(series(testNow, repeat("64000", 30)...), DefaultSettings(), testNow)

	assert.Equal(t, domain.SignalHold, s.Type)
	assert.True(t, s.Confidence.IsZero())
	assert.Equal(t, ReasonWithinBand, s.Reason)
	assert.Equal(t, "64000", s.Price.String())
}

func TestComputeSignal_ShortMABelowTrendIsBuy(t *testing.T) {
	settings := DefaultSettings()
	settings.ShortPeriod = 3
	settings.LongPeriod = 7
	settings.BuyThreshold = dec("0.01")

	s := ComputeSignal(series(testNow, "100", "100", "100", "100", "100", "100", "90"), settings, testNow)

	require.Equal(t, domain.SignalBuy, s.Type)
	assert.Equal(t, "96.67", s.ShortMA.String())
	assert.Equal(t, "98.57", s.LongMA.String())
	assert.Equal(t, "100", s.Confidence.String())
	assert.Equal(t, "90", s.Price.String())
	assert.Equal(t, testNow, s.Timestamp)
}

func TestComputeSignal_ShortMAAboveTrendIsSell(t *testing.T) {
	settings := DefaultSettings()
	settings.ShortPeriod = 3
	settings.LongPeriod = 7

	s := ComputeSignal(series(testNow, "100", "100", "100", "100", "100", "100", "110"), settings, testNow)

	assert.Equal(t, domain.SignalSell, s.Type)
	assert.Equal(t, ReasonAboveTrend, s.Reason)
	assert.Equal(t, "100", s.Confidence.String())
}

func TestComputeSignal_ExactThresholdIsHold(t *testing.T) {
	// longMA = 2100/21 = 100, shortMA lands exactly on 100*(1-0.005).
	buyEdge := append(repeat("100.25", 14), repeat("99.5", 7)...)
	s := ComputeSignal(series(testNow, buyEdge...), DefaultSettings(), testNow)
	assert.Equal(t, domain.SignalHold, s.Type, "short MA equal to buy level")
	assert.True(t, s.Confidence.IsZero())

	// shortMA lands exactly on 100*(1+0.005).
	sellEdge := append(repeat("99.75", 14), repeat("100.5", 7)...)
	s = ComputeSignal(series(testNow, sellEdge...), DefaultSettings(), testNow)
	assert.Equal(t, domain.SignalHold, s.Type, "short MA equal to sell level")
}

func TestComputeSignal_ExactThresholdIsHoldWhenMeansDoNotTerminate(t *testing.T) {
	settings := DefaultSettings()
	settings.ShortPeriod = 3
	settings.LongPeriod = 6

	// longMA = 200000/6, shortMA = 33500 = longMA*1.005 exactly.
	s := ComputeSignal(series(testNow, "30000", "30000", "39500", "33500", "33500", "33500"), settings, testNow)
	assert.Equal(t, domain.SignalHold, s.Type, "short MA equal to sell level")
	assert.Equal(t, "33500", s.ShortMA.String())
	assert.Equal(t, "33333.33", s.LongMA.String())

	// longMA = 200000/6, shortMA = 99500/3 = longMA*0.995 exactly.
	s = ComputeSignal(series(testNow, "33500", "33500", "33500", "33000", "33000", "33500"), settings, testNow)
	assert.Equal(t, domain.SignalHold, s.Type, "short MA equal to buy level")
	assert.True(t, s.Confidence.IsZero())

	// One unit past either level crosses it.
	s = ComputeSignal(series(testNow, "30000", "30000", "39500", "33500", "33500", "33501"), settings, testNow)
	assert.Equal(t, domain.SignalSell, s.Type)
	s = ComputeSignal(series(testNow, "33500", "33500", "33500", "33000", "33000", "33499"), settings, testNow)
	assert.Equal(t, domain.SignalBuy, s.Type)
}

func TestComputeSignal_InsufficientData(t *testing.T) {
	s := ComputeSignal(series(testNow, repeat("64000", 20)...), DefaultSettings(), testNow)

	assert.Equal(t, domain.SignalHold, s.Type)
	assert.True(t, s.Confidence.IsZero())
	assert.Equal(t, ReasonInsufficientData, s.Reason)

	empty := ComputeSignal(nil, DefaultSettings(), testNow)
	assert.Equal(t, domain.SignalHold, empty.Type)
	assert.True(t, empty.Price.IsZero())
}

func TestComputeSignal_ConfidenceMonotonicAndClamped(t *testing.T) {
	settings := DefaultSettings()
	settings.ShortPeriod = 1
	settings.LongPeriod = 2
	settings.BuyThreshold = dec("0.001")

	last := dec("0")
	for _, p := range []string{"99.95", "99.9", "99.8", "99.5", "98", "90", "50"} {
		s := ComputeSignal(series(testNow, "100", p), settings, testNow)
		if s.Type != domain.SignalBuy {
			continue
		}
		assert.True(t, s.Confidence.GreaterThanOrEqual(last), "confidence dropped at %s", p)
		assert.True(t, s.Confidence.LessThanOrEqual(hundred), "confidence above 100 at %s", p)
		last = s.Confidence
	}
	assert.Equal(t, "100", last.String())
}

func TestConfidence(t *testing.T) {
	assert.Equal(t, "50", confidence(dec("0.0025"), dec("0.005")).String())
	assert.Equal(t, "33.33", confidence(dec("0.001"), dec("0.003")).String())
	assert.Equal(t, "100", confidence(dec("0.5"), dec("0.005")).String())
	assert.Equal(t, "0", confidence(dec("-0.1"), dec("0.005")).String())
}
