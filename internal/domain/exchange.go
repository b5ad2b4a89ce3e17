package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// OrderSide is the exchange order direction.
type OrderSide string

const (
	SideBuy  OrderSide = "BUY"
	SideSell OrderSide = "SELL"
)

// Balance of a single asset on the exchange account.
type Balance struct {
	Asset  string          `json:"asset"`
	Free   decimal.Decimal `json:"free"`
	Locked decimal.Decimal `json:"locked"`
}

// LotSize is the exchange LOT_SIZE filter for a symbol.
type LotSize struct {
	MinQty   decimal.Decimal `json:"minQty"`
	MaxQty   decimal.Decimal `json:"maxQty"`
	StepSize decimal.Decimal `json:"stepSize"`
}

// Truncate rounds qty down to the step size. It never rounds up.
func (l LotSize) Truncate(qty decimal.Decimal) decimal.Decimal {
	if !l.StepSize.IsPositive() {
		return qty
	}
	return qty.Div(l.StepSize).Floor().Mul(l.StepSize)
}

// MarketOrderRequest is a request for a single MARKET order.
type MarketOrderRequest struct {
	Symbol        string          `json:"symbol"`
	Side          OrderSide       `json:"side"`
	Quantity      decimal.Decimal `json:"quantity"`
	ClientOrderID string          `json:"clientOrderId"`
}

// OrderFill is one partial execution of an order.
type OrderFill struct {
	Price           decimal.Decimal `json:"price"`
	Qty             decimal.Decimal `json:"qty"`
	Commission      decimal.Decimal `json:"commission"`
	CommissionAsset string          `json:"commissionAsset"`
}

// OrderResult is the exchange response after placing an order.
type OrderResult struct {
	OrderID       int64           `json:"orderId"`
	ClientOrderID string          `json:"clientOrderId"`
	Symbol        string          `json:"symbol"`
	Side          OrderSide       `json:"side"`
	Status        string          `json:"status"`
	ExecutedQty   decimal.Decimal `json:"executedQty"`
	QuoteQty      decimal.Decimal `json:"cummulativeQuoteQty"`
	TransactTime  time.Time       `json:"transactTime"`
	Fills         []OrderFill     `json:"fills"`
}

// AveragePrice is the quantity-weighted fill price. Without fills it falls
// back to quote quantity over executed quantity.
func (o *OrderResult) AveragePrice() decimal.Decimal {
	qty := decimal.Zero
	notional := decimal.Zero
	for _, f := range o.Fills {
		qty = qty.Add(f.Qty)
		notional = notional.Add(f.Price.Mul(f.Qty))
	}
	if qty.IsPositive() {
		return notional.Div(qty)
	}
	if o.ExecutedQty.IsPositive() {
		return o.QuoteQty.Div(o.ExecutedQty)
	}
	return decimal.Zero
}

// Commission sums fill commissions regardless of asset.
func (o *OrderResult) Commission() decimal.Decimal {
	total := decimal.Zero
	for _, f := range o.Fills {
		total = total.Add(f.Commission)
	}
	return total
}

// Exchange is an authenticated spot exchange session.
type Exchange interface {
	Balance(ctx context.Context, asset string) (Balance, error)
	Price(ctx context.Context, symbol string) (decimal.Decimal, error)
	LotSize(ctx context.Context, symbol string) (LotSize, error)
	SubmitMarketOrder(ctx context.Context, req MarketOrderRequest) (*OrderResult, error)
}

// ExchangeConnector builds an Exchange session for one environment.
// Connectors are created once at startup, one per TradingMode.
type ExchangeConnector interface {
	Connect(creds Credentials) Exchange
}
