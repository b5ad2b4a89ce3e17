package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signal-backend/internal/domain"
	"signal-backend/internal/repository"
)

var testNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

type reportFixture struct {
	prices  *repository.InMemoryPriceRepository
	signals *repository.InMemorySignalRepository
	trades  *repository.InMemoryTradeRepository
	notes   *repository.InMemoryNotificationRepository
	handler *ReportHandler
}

func newReportFixture() *reportFixture {
	f := &reportFixture{
		prices:  repository.NewInMemoryPriceRepository(),
		signals: repository.NewInMemorySignalRepository(),
		trades:  repository.NewInMemoryTradeRepository(),
		notes:   repository.NewInMemoryNotificationRepository(),
	}
	logger := log.New()
	logger.SetOutput(io.Discard)
	f.handler = NewReportHandler(f.prices, f.signals, f.trades, f.notes, logger)
	f.handler.now = func() time.Time { return testNow }
	return f
}

func (f *reportFixture) router() http.Handler {
	logger := log.New()
	logger.SetOutput(io.Discard)
	return NewRouter(f.handler, nil, 1000, logger)
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestReportHandler_CurrentEmpty(t *testing.T) {
	f := newReportFixture()

	rec := get(t, f.router(), "/api/current")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"price":null,"signal":null}`, rec.Body.String())
}

func TestReportHandler_Current(t *testing.T) {
	f := newReportFixture()
	f.prices.Append(domain.PriceSample{Timestamp: testNow, Price: decimal.RequireFromString("64123.45")})
	require.NoError(t, f.signals.Create(context.Background(), &domain.Signal{
		Timestamp: testNow, Type: domain.SignalBuy, Price: decimal.RequireFromString("64123.45"),
	}))

	rec := get(t, f.router(), "/api/current")

	require.Equal(t, http.StatusOK, rec.Code)
	var body CurrentResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotNil(t, body.Price)
	require.NotNil(t, body.Signal)
	assert.Equal(t, "64123.45", body.Price.Price.String())
	assert.Equal(t, domain.SignalBuy, body.Signal.Type)
}

func TestReportHandler_PricesWindow(t *testing.T) {
	f := newReportFixture()
	f.prices.Append(
		domain.PriceSample{Timestamp: testNow.Add(-3 * time.Hour), Price: decimal.NewFromInt(1)},
		domain.PriceSample{Timestamp: testNow.Add(-30 * time.Minute), Price: decimal.NewFromInt(2)},
	)

	rec := get(t, f.router(), "/api/prices?hours=1")
	require.Equal(t, http.StatusOK, rec.Code)
	var samples []domain.PriceSample
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &samples))
	require.Len(t, samples, 1)
	assert.Equal(t, "2", samples[0].Price.String())

	rec = get(t, f.router(), "/api/prices")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &samples))
	assert.Len(t, samples, 2)
}

func TestReportHandler_InvalidParameters(t *testing.T) {
	f := newReportFixture()
	for _, target := range []string{"/api/prices?hours=x", "/api/prices?hours=0", "/api/signals?limit=-1"} {
		t.Run(target, func(t *testing.T) {
			assert.Equal(t, http.StatusBadRequest, get(t, f.router(), target).Code)
		})
	}
}

func TestReportHandler_SignalsNewestFirst(t *testing.T) {
	f := newReportFixture()
	ctx := context.Background()
	for _, typ := range []domain.SignalType{domain.SignalHold, domain.SignalBuy, domain.SignalSell} {
		require.NoError(t, f.signals.Create(ctx, &domain.Signal{Timestamp: testNow, Type: typ}))
	}

	rec := get(t, f.router(), "/api/signals?limit=2")

	require.Equal(t, http.StatusOK, rec.Code)
	var signals []domain.Signal
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &signals))
	require.Len(t, signals, 2)
	assert.Equal(t, domain.SignalSell, signals[0].Type)
	assert.Equal(t, domain.SignalBuy, signals[1].Type)
}

func TestReportHandler_EmptyListsAreArrays(t *testing.T) {
	f := newReportFixture()
	for _, target := range []string{"/api/signals", "/api/trades", "/api/trades/failed", "/api/notifications"} {
		t.Run(target, func(t *testing.T) {
			rec := get(t, f.router(), target)
			require.Equal(t, http.StatusOK, rec.Code)
			assert.JSONEq(t, `[]`, rec.Body.String())
		})
	}
}

func TestReportHandler_Trades(t *testing.T) {
	f := newReportFixture()
	ctx := context.Background()
	require.NoError(t, f.trades.CreateTrade(ctx, &domain.TradeRecord{
		Timestamp: testNow, SignalID: "2", Side: domain.SideBuy, ExecutedQty: decimal.RequireFromString("0.00077"),
	}))
	require.NoError(t, f.trades.CreateFailedTrade(ctx, &domain.FailedTradeRecord{
		Timestamp: testNow, SignalID: "3", SignalType: domain.SignalSell, Error: "insufficient balance",
	}))

	var trades []domain.TradeRecord
	require.NoError(t, json.Unmarshal(get(t, f.router(), "/api/trades").Body.Bytes(), &trades))
	require.Len(t, trades, 1)
	assert.Equal(t, "0.00077", trades[0].ExecutedQty.String())

	var failed []domain.FailedTradeRecord
	require.NoError(t, json.Unmarshal(get(t, f.router(), "/api/trades/failed").Body.Bytes(), &failed))
	require.Len(t, failed, 1)
	assert.Equal(t, "insufficient balance", failed[0].Error)
}

type brokenSignals struct {
	domain.SignalRepository
}

func (brokenSignals) List(context.Context, int) ([]*domain.Signal, error) {
	return nil, errors.New("connection reset")
}

func TestReportHandler_QueryFailure(t *testing.T) {
	f := newReportFixture()
	f.handler.signals = brokenSignals{}

	rec := get(t, f.router(), "/api/signals")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "connection reset")
}

func TestReportHandler_MethodNotAllowed(t *testing.T) {
	f := newReportFixture()
	rec := httptest.NewRecorder()
	f.router().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/trades", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRateLimit(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	h := RateLimit(0.001, 1, ok)

	assert.Equal(t, http.StatusOK, get(t, h, "/").Code)

	rec := get(t, h, "/")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.JSONEq(t, `{"status":"error","message":"Rate limit exceeded. Please try again later."}`, rec.Body.String())
}
