package repository

import (
	"context"
	"errors"
	"sync"

	"signal-backend/internal/domain"
)

// InMemoryNotificationRepository stores delivered notifications.
type InMemoryNotificationRepository struct {
	records []*domain.NotificationRecord
	mu      sync.RWMutex
}

func NewInMemoryNotificationRepository() *InMemoryNotificationRepository {
	return &InMemoryNotificationRepository{records: []*domain.NotificationRecord{}}
}

func (r *InMemoryNotificationRepository) Create(_ context.Context, record *domain.NotificationRecord) error {
	if record == nil {
		return errors.New("nil notification record")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if record.ID == "" {
		record.ID = newID()
	}
	stored := *record
	stored.Channels = append([]string(nil), record.Channels...)
	r.records = append(r.records, &stored)
	return nil
}

// List returns up to limit records, newest first.
func (r *InMemoryNotificationRepository) List(_ context.Context, limit int) ([]*domain.NotificationRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*domain.NotificationRecord, 0, min(limit, len(r.records)))
	for i := len(r.records) - 1; i >= 0 && len(result) < limit; i-- {
		rec := *r.records[i]
		result = append(result, &rec)
	}
	return result, nil
}
