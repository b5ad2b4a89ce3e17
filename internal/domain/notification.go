package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Notification is the fire-and-forget payload sent to subscribers.
type Notification struct {
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data"`
}

// NotificationRecord is the stored copy of a delivered notification.
type NotificationRecord struct {
	ID         string          `json:"id"`
	Timestamp  time.Time       `json:"timestamp"`
	SignalID   string          `json:"signalId"`
	Title      string          `json:"title"`
	Message    string          `json:"message"`
	SignalType SignalType      `json:"signalType"`
	Price      decimal.Decimal `json:"price"`
	Channels   []string        `json:"channels"`
}

// Notifier delivers a notification over one channel.
type Notifier interface {
	Name() string
	Send(ctx context.Context, n Notification) error
}
