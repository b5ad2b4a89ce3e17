package websocket

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"signal-backend/internal/domain"
)

const DefaultPollInterval = 5 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Handler streams the latest signal to websocket clients. A message is sent
// on connect and then whenever a new signal has been persisted.
type Handler struct {
	signals  domain.SignalRepository
	interval time.Duration
	log      log.FieldLogger
}

func NewHandler(signals domain.SignalRepository, interval time.Duration, logger log.FieldLogger) *Handler {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Handler{signals: signals, interval: interval, log: logger}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Warn("websocket upgrade failed")
		return
	}
	defer conn.Close()

	logger := h.log.WithField("remote", r.RemoteAddr)
	logger.Debug("signal stream client connected")

	// The client never sends anything; reading detects the close.
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	var lastID string
	push := func() bool {
		signal, err := h.signals.Latest(ctx)
		if err != nil {
			logger.WithError(err).Warn("read latest signal")
			return true
		}
		if signal == nil || signal.ID == lastID {
			return true
		}
		if err := conn.WriteJSON(signal); err != nil {
			logger.WithError(err).Debug("websocket write failed")
			return false
		}
		lastID = signal.ID
		return true
	}

	if !push() {
		return
	}

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Debug("signal stream client disconnected")
			return
		case <-ticker.C:
			if !push() {
				return
			}
		}
	}
}
