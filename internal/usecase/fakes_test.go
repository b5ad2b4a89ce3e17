package usecase

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"signal-backend/internal/domain"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func quietLogger() *log.Logger {
	l := log.New()
	l.SetOutput(io.Discard)
	return l
}

// series builds one sample per minute ending at end.
func series(end time.Time, prices ...string) []domain.PriceSample {
	out := make([]domain.PriceSample, len(prices))
	for i, p := range prices {
		out[i] = domain.PriceSample{
			Timestamp: end.Add(-time.Duration(len(prices)-1-i) * time.Minute),
			Price:     dec(p),
		}
	}
	return out
}

func repeat(p string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = p
	}
	return out
}

type fakeAPIError struct{ msg string }

func (e *fakeAPIError) Error() string           { return "binance api error: " + e.msg }
func (e *fakeAPIError) ExchangeMessage() string { return e.msg }

type fakeExchange struct {
	mu       sync.Mutex
	balances map[string]decimal.Decimal
	price    decimal.Decimal
	lot      domain.LotSize

	balanceErr error
	orderErr   error

	calls  int
	orders []domain.MarketOrderRequest
}

func newFakeExchange() *fakeExchange {
	return &fakeExchange{
		balances: map[string]decimal.Decimal{"USDT": dec("1000"), "BTC": dec("0.5")},
		price:    dec("64123.45"),
		lot:      domain.LotSize{MinQty: dec("0.00001"), MaxQty: dec("9000"), StepSize: dec("0.00001")},
	}
}

func (f *fakeExchange) Balance(_ context.Context, asset string) (domain.Balance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.balanceErr != nil {
		return domain.Balance{}, f.balanceErr
	}
	return domain.Balance{Asset: asset, Free: f.balances[asset]}, nil
}

func (f *fakeExchange) Price(_ context.Context, _ string) (decimal.Decimal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.price, nil
}

func (f *fakeExchange) LotSize(_ context.Context, _ string) (domain.LotSize, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.lot, nil
}

func (f *fakeExchange) SubmitMarketOrder(_ context.Context, req domain.MarketOrderRequest) (*domain.OrderResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.orderErr != nil {
		return nil, f.orderErr
	}
	f.orders = append(f.orders, req)
	return &domain.OrderResult{
		OrderID:       int64(len(f.orders)),
		ClientOrderID: req.ClientOrderID,
		Symbol:        req.Symbol,
		Side:          req.Side,
		Status:        "FILLED",
		ExecutedQty:   req.Quantity,
		QuoteQty:      req.Quantity.Mul(f.price),
		TransactTime:  time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		Fills: []domain.OrderFill{
			{Price: f.price, Qty: req.Quantity, Commission: dec("0.00000077"), CommissionAsset: "BTC"},
		},
	}, nil
}

func (f *fakeExchange) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeConnector struct {
	ex       *fakeExchange
	mu       sync.Mutex
	connects []domain.Credentials
}

func (c *fakeConnector) Connect(creds domain.Credentials) domain.Exchange {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connects = append(c.connects, creds)
	return c.ex
}

type failingCredentialStore struct{}

func (failingCredentialStore) Get(context.Context, domain.TradingMode) (*domain.Credentials, error) {
	return nil, errors.New("secret store unavailable")
}

type failingLocks struct{}

func (failingLocks) Acquire(context.Context, string, string, time.Time) (bool, error) {
	return false, errors.New("connection reset")
}
