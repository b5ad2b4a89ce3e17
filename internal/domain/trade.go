package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TradeRecord is written only after the exchange accepted an order.
type TradeRecord struct {
	ID               string          `json:"id"`
	Timestamp        time.Time       `json:"timestamp"`
	SignalID         string          `json:"signalId"`
	OrderID          int64           `json:"orderId"`
	ClientOrderID    string          `json:"clientOrderId"`
	Symbol           string          `json:"symbol"`
	Side             OrderSide       `json:"side"`
	Status           string          `json:"status"`
	ExecutedQty      decimal.Decimal `json:"executedQty"`
	AveragePrice     decimal.Decimal `json:"averagePrice"`
	QuoteQty         decimal.Decimal `json:"quoteQty"`
	Commission       decimal.Decimal `json:"commission"`
	SignalPrice      decimal.Decimal `json:"signalPrice"`
	SignalConfidence decimal.Decimal `json:"signalConfidence"`
	TradingMode      TradingMode     `json:"tradingMode"`
	Fills            []OrderFill     `json:"fills"`
}

// FailedTradeRecord is written when an order attempt was made and did not succeed.
type FailedTradeRecord struct {
	ID          string          `json:"id"`
	Timestamp   time.Time       `json:"timestamp"`
	SignalID    string          `json:"signalId"`
	SignalType  SignalType      `json:"signalType"`
	SignalPrice decimal.Decimal `json:"signalPrice"`
	TradingMode TradingMode     `json:"tradingMode"`
	Error       string          `json:"error"`
}
