package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"signal-backend/internal/domain"
)

const (
	SkipTradingDisabled = "trading disabled"
	SkipNoTransition    = "no transition"
	SkipNotTradable     = "signal not tradable"
	SkipAlreadyClaimed  = "transition already claimed"
)

// TradeExecutorConfig carries the market the executor trades.
type TradeExecutorConfig struct {
	Symbol      string
	BaseAsset   string
	QuoteAsset  string
	CallTimeout time.Duration
}

// TradeOutcome describes what the executor did for one transition. Exactly
// one of Trade, Failed or SkipReason is set.
type TradeOutcome struct {
	Trade      *domain.TradeRecord
	Failed     *domain.FailedTradeRecord
	SkipReason string
}

// Attempted reports whether an order attempt was made and must be audited.
func (o *TradeOutcome) Attempted() bool {
	return o != nil && (o.Trade != nil || o.Failed != nil)
}

// TradeExecutor places at most one market order per signal transition.
type TradeExecutor struct {
	cfg         TradeExecutorConfig
	connectors  map[domain.TradingMode]domain.ExchangeConnector
	credentials domain.CredentialStore
	locks       domain.TransitionLockRepository
	log         log.FieldLogger
	now         func() time.Time
}

func NewTradeExecutor(
	cfg TradeExecutorConfig,
	connectors map[domain.TradingMode]domain.ExchangeConnector,
	credentials domain.CredentialStore,
	locks domain.TransitionLockRepository,
	logger log.FieldLogger,
) *TradeExecutor {
	return &TradeExecutor{
		cfg:         cfg,
		connectors:  connectors,
		credentials: credentials,
		locks:       locks,
		log:         logger,
		now:         time.Now,
	}
}

// Execute trades the transition when trading is enabled and the new signal
// is BUY or SELL.
//
// A returned error means no order attempt was made and nothing is recorded:
// credentials could not be fetched, no connector serves the mode, or the
// transition lock could not be written. Exchange and sizing failures are not
// errors; they are reported as TradeOutcome.Failed.
func (e *TradeExecutor) Execute(ctx context.Context, settings domain.Settings, tr Transition) (*TradeOutcome, error) {
	switch {
	case !settings.TradingEnabled:
		return &TradeOutcome{SkipReason: SkipTradingDisabled}, nil
	case !tr.Transitioned:
		return &TradeOutcome{SkipReason: SkipNoTransition}, nil
	case !tr.Current.Type.Tradable():
		return &TradeOutcome{SkipReason: SkipNotTradable}, nil
	}

	signal := tr.Current
	mode := settings.TradingMode
	logger := e.log.WithFields(log.Fields{
		"signal_id": signal.ID,
		"side":      signal.Type,
		"mode":      mode,
	})

	creds, err := e.fetchCredentials(ctx, mode)
	if err != nil {
		return nil, err
	}

	connector, ok := e.connectors[mode]
	if !ok {
		return nil, &domain.ConfigurationError{Field: "tradingMode", Reason: fmt.Sprintf("no exchange connector for %s", mode)}
	}

	key := tr.Key()
	acquired, err := e.acquire(ctx, key, signal.ID)
	if err != nil {
		return nil, &domain.PersistenceError{Op: "acquire transition lock", Err: err}
	}
	if !acquired {
		logger.WithField("key", key).Info("transition already claimed, not trading")
		return &TradeOutcome{SkipReason: SkipAlreadyClaimed}, nil
	}

	exchange := connector.Connect(*creds)

	var req domain.MarketOrderRequest
	if signal.Type == domain.SignalBuy {
		req, err = e.sizeBuy(ctx, exchange, settings)
	} else {
		req, err = e.sizeSell(ctx, exchange, settings)
	}
	if err != nil {
		logger.WithError(err).Warn("trade not placed")
		return &TradeOutcome{Failed: e.failed(signal, mode, err)}, nil
	}
	req.ClientOrderID = key

	callCtx, cancel := context.WithTimeout(ctx, e.cfg.CallTimeout)
	result, err := exchange.SubmitMarketOrder(callCtx, req)
	cancel()
	if err != nil {
		logger.WithError(err).Error("market order rejected")
		return &TradeOutcome{Failed: e.failed(signal, mode, err)}, nil
	}

	record := e.record(signal, mode, req, result)
	logger.WithFields(log.Fields{
		"order_id":     record.OrderID,
		"executed_qty": record.ExecutedQty.String(),
		"avg_price":    record.AveragePrice.String(),
	}).Info("market order filled")
	return &TradeOutcome{Trade: record}, nil
}

func (e *TradeExecutor) fetchCredentials(ctx context.Context, mode domain.TradingMode) (*domain.Credentials, error) {
	ctx, cancel := context.WithTimeout(ctx, e.cfg.CallTimeout)
	defer cancel()

	creds, err := e.credentials.Get(ctx, mode)
	if err != nil {
		var credErr *domain.CredentialsError
		if errors.As(err, &credErr) {
			return nil, err
		}
		return nil, &domain.CredentialsError{Mode: mode, Err: err}
	}
	if creds == nil || creds.APIKey == "" || creds.APISecret == "" {
		return nil, &domain.CredentialsError{Mode: mode, Err: domain.ErrCredentialsNotFound}
	}
	return creds, nil
}

func (e *TradeExecutor) acquire(ctx context.Context, key, signalID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, e.cfg.CallTimeout)
	defer cancel()
	return e.locks.Acquire(ctx, key, signalID, e.now().UTC())
}

// sizeBuy spends the configured quote amount, truncated to the lot step.
func (e *TradeExecutor) sizeBuy(ctx context.Context, ex domain.Exchange, settings domain.Settings) (domain.MarketOrderRequest, error) {
	ctx, cancel := context.WithTimeout(ctx, e.cfg.CallTimeout)
	defer cancel()

	balance, err := ex.Balance(ctx, e.cfg.QuoteAsset)
	if err != nil {
		return domain.MarketOrderRequest{}, err
	}
	if balance.Free.LessThan(settings.TradeAmount) {
		return domain.MarketOrderRequest{}, domain.ErrInsufficientBalance
	}

	price, err := ex.Price(ctx, e.cfg.Symbol)
	if err != nil {
		return domain.MarketOrderRequest{}, err
	}
	if !price.IsPositive() {
		return domain.MarketOrderRequest{}, fmt.Errorf("invalid %s price %s", e.cfg.Symbol, price)
	}

	lot, err := ex.LotSize(ctx, e.cfg.Symbol)
	if err != nil {
		return domain.MarketOrderRequest{}, err
	}

	// QuoRem truncates; Div would round the last digit up and overspend.
	qty, _ := settings.TradeAmount.QuoRem(price, int32(decimal.DivisionPrecision))
	qty, err = fitLot(lot, lot.Truncate(qty))
	if err != nil {
		return domain.MarketOrderRequest{}, err
	}
	return domain.MarketOrderRequest{Symbol: e.cfg.Symbol, Side: domain.SideBuy, Quantity: qty}, nil
}

// sizeSell sells the configured percentage of the free base balance.
func (e *TradeExecutor) sizeSell(ctx context.Context, ex domain.Exchange, settings domain.Settings) (domain.MarketOrderRequest, error) {
	ctx, cancel := context.WithTimeout(ctx, e.cfg.CallTimeout)
	defer cancel()

	balance, err := ex.Balance(ctx, e.cfg.BaseAsset)
	if err != nil {
		return domain.MarketOrderRequest{}, err
	}

	lot, err := ex.LotSize(ctx, e.cfg.Symbol)
	if err != nil {
		return domain.MarketOrderRequest{}, err
	}

	raw := balance.Free.Mul(settings.SellPercentage).Div(hundred)
	qty, err := fitLot(lot, lot.Truncate(raw))
	if err != nil {
		return domain.MarketOrderRequest{}, err
	}
	return domain.MarketOrderRequest{Symbol: e.cfg.Symbol, Side: domain.SideSell, Quantity: qty}, nil
}

// fitLot rejects quantities under the minimum and clamps quantities over the
// maximum down to the largest valid step.
func fitLot(lot domain.LotSize, qty decimal.Decimal) (decimal.Decimal, error) {
	if !qty.IsPositive() || qty.LessThan(lot.MinQty) {
		return decimal.Zero, domain.ErrBelowMinimumOrderSize
	}
	if lot.MaxQty.IsPositive() && qty.GreaterThan(lot.MaxQty) {
		qty = lot.Truncate(lot.MaxQty)
	}
	return qty, nil
}

func (e *TradeExecutor) failed(signal *domain.Signal, mode domain.TradingMode, err error) *domain.FailedTradeRecord {
	return &domain.FailedTradeRecord{
		Timestamp:   e.now().UTC(),
		SignalID:    signal.ID,
		SignalType:  signal.Type,
		SignalPrice: signal.Price,
		TradingMode: mode,
		Error:       domain.ExchangeMessage(err),
	}
}

func (e *TradeExecutor) record(signal *domain.Signal, mode domain.TradingMode, req domain.MarketOrderRequest, res *domain.OrderResult) *domain.TradeRecord {
	ts := res.TransactTime
	if ts.IsZero() {
		ts = e.now()
	}
	symbol := res.Symbol
	if symbol == "" {
		symbol = req.Symbol
	}
	clientOrderID := res.ClientOrderID
	if clientOrderID == "" {
		clientOrderID = req.ClientOrderID
	}
	return &domain.TradeRecord{
		Timestamp:        ts.UTC(),
		SignalID:         signal.ID,
		OrderID:          res.OrderID,
		ClientOrderID:    clientOrderID,
		Symbol:           symbol,
		Side:             req.Side,
		Status:           res.Status,
		ExecutedQty:      res.ExecutedQty,
		AveragePrice:     res.AveragePrice(),
		QuoteQty:         res.QuoteQty,
		Commission:       res.Commission(),
		SignalPrice:      signal.Price,
		SignalConfidence: signal.Confidence,
		TradingMode:      mode,
		Fills:            res.Fills,
	}
}
