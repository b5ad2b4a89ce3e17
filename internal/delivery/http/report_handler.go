package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"

	"signal-backend/internal/domain"
)

const (
	defaultLimit = 50
	maxLimit     = 500
	defaultHours = 24
	maxHours     = 24 * 7
)

// ReportHandler serves the read-only reporting endpoints.
type ReportHandler struct {
	prices        domain.PriceRepository
	signals       domain.SignalRepository
	trades        domain.TradeRepository
	notifications domain.NotificationRepository
	log           log.FieldLogger
	now           func() time.Time
}

func NewReportHandler(
	prices domain.PriceRepository,
	signals domain.SignalRepository,
	trades domain.TradeRepository,
	notifications domain.NotificationRepository,
	logger log.FieldLogger,
) *ReportHandler {
	return &ReportHandler{
		prices:        prices,
		signals:       signals,
		trades:        trades,
		notifications: notifications,
		log:           logger,
		now:           time.Now,
	}
}

// CurrentResponse is the latest price together with the latest signal.
type CurrentResponse struct {
	Price  *domain.PriceSample `json:"price"`
	Signal *domain.Signal      `json:"signal"`
}

// Current handles GET /api/current
func (h *ReportHandler) Current(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	price, err := h.prices.Latest(r.Context())
	if err != nil {
		h.fail(w, "latest price", err)
		return
	}
	signal, err := h.signals.Latest(r.Context())
	if err != nil {
		h.fail(w, "latest signal", err)
		return
	}
	writeJSON(w, CurrentResponse{Price: price, Signal: signal})
}

// Prices handles GET /api/prices?hours=24
func (h *ReportHandler) Prices(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	hours, ok := queryInt(w, r, "hours", defaultHours, maxHours)
	if !ok {
		return
	}
	samples, err := h.prices.Since(r.Context(), h.now().Add(-time.Duration(hours)*time.Hour))
	if err != nil {
		h.fail(w, "prices", err)
		return
	}
	if samples == nil {
		samples = []domain.PriceSample{}
	}
	writeJSON(w, samples)
}

// Signals handles GET /api/signals?limit=50
func (h *ReportHandler) Signals(w http.ResponseWriter, r *http.Request) {
	list(h, w, r, "signals", h.signals.List)
}

// Notifications handles GET /api/notifications?limit=50
func (h *ReportHandler) Notifications(w http.ResponseWriter, r *http.Request) {
	list(h, w, r, "notifications", h.notifications.List)
}

// Trades handles GET /api/trades?limit=50
func (h *ReportHandler) Trades(w http.ResponseWriter, r *http.Request) {
	list(h, w, r, "trades", h.trades.ListTrades)
}

// FailedTrades handles GET /api/trades/failed?limit=50
func (h *ReportHandler) FailedTrades(w http.ResponseWriter, r *http.Request) {
	list(h, w, r, "failed trades", h.trades.ListFailedTrades)
}

// Health handles GET /healthz
func (h *ReportHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

func list[T any](h *ReportHandler, w http.ResponseWriter, r *http.Request, what string, fetch func(ctx context.Context, limit int) ([]T, error)) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	limit, ok := queryInt(w, r, "limit", defaultLimit, maxLimit)
	if !ok {
		return
	}
	items, err := fetch(r.Context(), limit)
	if err != nil {
		h.fail(w, what, err)
		return
	}
	if items == nil {
		items = []T{}
	}
	writeJSON(w, items)
}

// queryInt reads a positive integer parameter, capped at ceiling.
func queryInt(w http.ResponseWriter, r *http.Request, key string, fallback, ceiling int) (int, bool) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		http.Error(w, "Invalid "+key+" parameter", http.StatusBadRequest)
		return 0, false
	}
	if n > ceiling {
		n = ceiling
	}
	return n, true
}

func (h *ReportHandler) fail(w http.ResponseWriter, what string, err error) {
	h.log.WithError(err).WithField("resource", what).Error("report query failed")
	http.Error(w, "Internal server error", http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
