package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"signal-backend/internal/domain"
)

// NotificationDispatcher fans a signal out to every configured notifier and
// stores a record when at least one channel accepted it.
type NotificationDispatcher struct {
	asset     string
	notifiers []domain.Notifier
	repo      domain.NotificationRepository
	timeout   time.Duration
	log       log.FieldLogger
	now       func() time.Time
}

func NewNotificationDispatcher(
	asset string,
	notifiers []domain.Notifier,
	repo domain.NotificationRepository,
	timeout time.Duration,
	logger log.FieldLogger,
) *NotificationDispatcher {
	return &NotificationDispatcher{
		asset:     asset,
		notifiers: notifiers,
		repo:      repo,
		timeout:   timeout,
		log:       logger,
		now:       time.Now,
	}
}

// Enabled reports whether any channel is configured.
func (d *NotificationDispatcher) Enabled() bool {
	return d != nil && len(d.notifiers) > 0
}

// Dispatch sends the signal notification. It reports whether any channel
// delivered it; per-channel failures are joined into the returned error.
func (d *NotificationDispatcher) Dispatch(ctx context.Context, signal *domain.Signal) (bool, error) {
	if !d.Enabled() {
		return false, nil
	}
	n := BuildNotification(d.asset, signal)

	var errs []error
	var delivered []string
	for _, notifier := range d.notifiers {
		sendCtx, cancel := context.WithTimeout(ctx, d.timeout)
		err := notifier.Send(sendCtx, n)
		cancel()
		if err != nil {
			d.log.WithError(err).WithField("channel", notifier.Name()).Warn("notification not delivered")
			errs = append(errs, fmt.Errorf("%s: %w", notifier.Name(), err))
			continue
		}
		delivered = append(delivered, notifier.Name())
	}
	if len(delivered) == 0 {
		return false, errors.Join(errs...)
	}

	d.log.WithFields(log.Fields{
		"signal_id": signal.ID,
		"channels":  strings.Join(delivered, ","),
	}).Info("notification sent")

	record := &domain.NotificationRecord{
		Timestamp:  d.now().UTC(),
		SignalID:   signal.ID,
		Title:      n.Title,
		Message:    n.Body,
		SignalType: signal.Type,
		Price:      signal.Price,
		Channels:   delivered,
	}
	storeCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()
	if err := d.repo.Create(storeCtx, record); err != nil {
		errs = append(errs, &domain.PersistenceError{Op: "create notification", Err: err})
	}
	return true, errors.Join(errs...)
}

// BuildNotification renders the title, body and data payload for a signal.
func BuildNotification(asset string, signal *domain.Signal) domain.Notification {
	return domain.Notification{
		Title: fmt.Sprintf("%s Signal Detected!", signal.Type),
		Body: fmt.Sprintf("%s at $%s - Confidence %s%%",
			asset, formatThousands(signal.Price), signal.Confidence.StringFixed(0)),
		Data: map[string]string{
			"signal_id":   signal.ID,
			"signal_type": string(signal.Type),
			"price":       signal.Price.StringFixed(2),
			"confidence":  signal.Confidence.String(),
		},
	}
}

// formatThousands renders v with two decimals and comma-grouped integer digits.
func formatThousands(v decimal.Decimal) string {
	return message.NewPrinter(language.English).Sprintf("%.2f", v.Round(2).InexactFloat64())
}
