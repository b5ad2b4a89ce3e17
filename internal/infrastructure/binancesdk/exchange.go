// Package binancesdk adapts github.com/adshao/go-binance/v2 to domain.Exchange.
package binancesdk

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/adshao/go-binance/v2/common"
	"github.com/shopspring/decimal"

	"signal-backend/internal/domain"
)

// APIError wraps the SDK error so the exchange message survives into
// failed-trade records.
type APIError struct {
	Code    int64
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("binance API error (code=%d): %s", e.Code, e.Message)
}

func (e *APIError) ExchangeMessage() string { return e.Message }

func wrapError(err error) error {
	var apiErr *common.APIError
	if errors.As(err, &apiErr) {
		return &APIError{Code: apiErr.Code, Message: apiErr.Message}
	}
	return err
}

// Exchange is one authenticated go-binance client.
type Exchange struct {
	client *binance.Client
}

func (e *Exchange) Balance(ctx context.Context, asset string) (domain.Balance, error) {
	account, err := e.client.NewGetAccountService().Do(ctx)
	if err != nil {
		return domain.Balance{}, wrapError(err)
	}
	for _, b := range account.Balances {
		if b.Asset != asset {
			continue
		}
		free, err := decimal.NewFromString(b.Free)
		if err != nil {
			return domain.Balance{}, fmt.Errorf("parse %s free balance: %w", asset, err)
		}
		locked, err := decimal.NewFromString(b.Locked)
		if err != nil {
			return domain.Balance{}, fmt.Errorf("parse %s locked balance: %w", asset, err)
		}
		return domain.Balance{Asset: asset, Free: free, Locked: locked}, nil
	}
	return domain.Balance{Asset: asset}, nil
}

func (e *Exchange) Price(ctx context.Context, symbol string) (decimal.Decimal, error) {
	prices, err := e.client.NewListPricesService().Symbol(symbol).Do(ctx)
	if err != nil {
		return decimal.Zero, wrapError(err)
	}
	for _, p := range prices {
		if p.Symbol == symbol {
			return decimal.NewFromString(p.Price)
		}
	}
	return decimal.Zero, fmt.Errorf("no price for %s", symbol)
}

func (e *Exchange) LotSize(ctx context.Context, symbol string) (domain.LotSize, error) {
	info, err := e.client.NewExchangeInfoService().Symbol(symbol).Do(ctx)
	if err != nil {
		return domain.LotSize{}, wrapError(err)
	}
	for _, s := range info.Symbols {
		if s.Symbol != symbol {
			continue
		}
		f := s.LotSizeFilter()
		if f == nil {
			break
		}
		var lot domain.LotSize
		if lot.MinQty, err = decimal.NewFromString(f.MinQuantity); err != nil {
			return domain.LotSize{}, err
		}
		if lot.MaxQty, err = decimal.NewFromString(f.MaxQuantity); err != nil {
			return domain.LotSize{}, err
		}
		if lot.StepSize, err = decimal.NewFromString(f.StepSize); err != nil {
			return domain.LotSize{}, err
		}
		return lot, nil
	}
	return domain.LotSize{}, fmt.Errorf("no LOT_SIZE filter for %s", symbol)
}

func (e *Exchange) SubmitMarketOrder(ctx context.Context, req domain.MarketOrderRequest) (*domain.OrderResult, error) {
	svc := e.client.NewCreateOrderService().
		Symbol(req.Symbol).
		Side(binance.SideType(req.Side)).
		Type(binance.OrderTypeMarket).
		Quantity(req.Quantity.String()).
		NewOrderRespType(binance.NewOrderRespTypeFULL)
	if req.ClientOrderID != "" {
		svc = svc.NewClientOrderID(req.ClientOrderID)
	}

	order, err := svc.Do(ctx)
	if err != nil {
		return nil, wrapError(err)
	}
	return toOrderResult(order)
}

func toOrderResult(o *binance.CreateOrderResponse) (*domain.OrderResult, error) {
	executed, err := decimal.NewFromString(o.ExecutedQuantity)
	if err != nil {
		return nil, fmt.Errorf("parse executed quantity: %w", err)
	}
	quote, err := decimal.NewFromString(o.CummulativeQuoteQuantity)
	if err != nil {
		return nil, fmt.Errorf("parse quote quantity: %w", err)
	}

	result := &domain.OrderResult{
		OrderID:       o.OrderID,
		ClientOrderID: o.ClientOrderID,
		Symbol:        o.Symbol,
		Side:          domain.OrderSide(o.Side),
		Status:        string(o.Status),
		ExecutedQty:   executed,
		QuoteQty:      quote,
		TransactTime:  time.UnixMilli(o.TransactTime).UTC(),
		Fills:         make([]domain.OrderFill, 0, len(o.Fills)),
	}
	for _, f := range o.Fills {
		price, err := decimal.NewFromString(f.Price)
		if err != nil {
			return nil, err
		}
		qty, err := decimal.NewFromString(f.Quantity)
		if err != nil {
			return nil, err
		}
		commission, err := decimal.NewFromString(f.Commission)
		if err != nil {
			return nil, err
		}
		result.Fills = append(result.Fills, domain.OrderFill{
			Price:           price,
			Qty:             qty,
			Commission:      commission,
			CommissionAsset: f.CommissionAsset,
		})
	}
	return result, nil
}

// Connector builds SDK clients pointed at one environment. The base URL is
// set per client so testnet and production never share global state.
type Connector struct {
	baseURL string
	timeout time.Duration
}

func NewConnector(baseURL string, timeout time.Duration) *Connector {
	return &Connector{baseURL: strings.TrimRight(baseURL, "/"), timeout: timeout}
}

func (c *Connector) Connect(creds domain.Credentials) domain.Exchange {
	client := binance.NewClient(creds.APIKey, creds.APISecret)
	client.BaseURL = c.baseURL
	client.HTTPClient = &http.Client{Timeout: c.timeout}
	return &Exchange{client: client}
}

var (
	_ domain.Exchange          = (*Exchange)(nil)
	_ domain.ExchangeConnector = (*Connector)(nil)
	_ domain.ExchangeMessenger = (*APIError)(nil)
)
