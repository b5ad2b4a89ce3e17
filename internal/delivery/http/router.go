package http

import (
	"net/http"

	log "github.com/sirupsen/logrus"
)

// NewRouter mounts the report endpoints plus any extra handlers (the signal
// stream, for one) behind rate limiting and request logging.
func NewRouter(h *ReportHandler, extra map[string]http.Handler, rps float64, logger log.FieldLogger) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", h.Health)
	mux.HandleFunc("/api/current", h.Current)
	mux.HandleFunc("/api/prices", h.Prices)
	mux.HandleFunc("/api/signals", h.Signals)
	mux.HandleFunc("/api/notifications", h.Notifications)
	mux.HandleFunc("/api/trades", h.Trades)
	mux.HandleFunc("/api/trades/failed", h.FailedTrades)
	for path, handler := range extra {
		mux.Handle(path, handler)
	}

	burst := int(rps * 2)
	if burst < 1 {
		burst = 1
	}
	return RequestLogger(logger, RateLimit(rps, burst, mux))
}
