package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// SignalType is the classified market state.
type SignalType string

const (
	SignalBuy  SignalType = "BUY"
	SignalSell SignalType = "SELL"
	SignalHold SignalType = "HOLD"
)

// Tradable reports whether the signal type can ever produce an order.
func (t SignalType) Tradable() bool {
	return t == SignalBuy || t == SignalSell
}

// Signal is written once per invocation and never mutated.
type Signal struct {
	ID         string          `json:"id"`
	Timestamp  time.Time       `json:"timestamp"`
	Type       SignalType      `json:"type"`
	Price      decimal.Decimal `json:"price"`
	Confidence decimal.Decimal `json:"confidence"` // 0..100
	ShortMA    decimal.Decimal `json:"shortMa"`
	LongMA     decimal.Decimal `json:"longMa"`
	Reason     string          `json:"reason,omitempty"`
}
