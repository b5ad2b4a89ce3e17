package repository

import (
	"context"
	"errors"
	"sync"
	"time"

	"signal-backend/internal/domain"
)

// InMemoryTradeRepository stores trade and failed-trade records in memory.
type InMemoryTradeRepository struct {
	mu     sync.RWMutex
	trades []*domain.TradeRecord
	failed []*domain.FailedTradeRecord
}

func NewInMemoryTradeRepository() *InMemoryTradeRepository {
	return &InMemoryTradeRepository{
		trades: make([]*domain.TradeRecord, 0),
		failed: make([]*domain.FailedTradeRecord, 0),
	}
}

func (r *InMemoryTradeRepository) CreateTrade(_ context.Context, record *domain.TradeRecord) error {
	if record == nil {
		return errors.New("nil trade record")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if record.ID == "" {
		record.ID = newID()
	}
	stored := *record
	r.trades = append(r.trades, &stored)
	return nil
}

func (r *InMemoryTradeRepository) CreateFailedTrade(_ context.Context, record *domain.FailedTradeRecord) error {
	if record == nil {
		return errors.New("nil failed trade record")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if record.ID == "" {
		record.ID = newID()
	}
	stored := *record
	r.failed = append(r.failed, &stored)
	return nil
}

// ListTrades returns up to limit trades, newest first.
func (r *InMemoryTradeRepository) ListTrades(_ context.Context, limit int) ([]*domain.TradeRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*domain.TradeRecord, 0, min(limit, len(r.trades)))
	for i := len(r.trades) - 1; i >= 0 && len(result) < limit; i-- {
		t := *r.trades[i]
		result = append(result, &t)
	}
	return result, nil
}

// ListFailedTrades returns up to limit failed trades, newest first.
func (r *InMemoryTradeRepository) ListFailedTrades(_ context.Context, limit int) ([]*domain.FailedTradeRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*domain.FailedTradeRecord, 0, min(limit, len(r.failed)))
	for i := len(r.failed) - 1; i >= 0 && len(result) < limit; i-- {
		f := *r.failed[i]
		result = append(result, &f)
	}
	return result, nil
}

// InMemoryTransitionLockRepository is a process-local idempotency guard.
type InMemoryTransitionLockRepository struct {
	mu    sync.Mutex
	locks map[string]string // key -> signal id
}

func NewInMemoryTransitionLockRepository() *InMemoryTransitionLockRepository {
	return &InMemoryTransitionLockRepository{locks: make(map[string]string)}
}

func (r *InMemoryTransitionLockRepository) Acquire(_ context.Context, key string, signalID string, _ time.Time) (bool, error) {
	if key == "" {
		return false, errors.New("empty transition key")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, held := r.locks[key]; held {
		return false, nil
	}
	r.locks[key] = signalID
	return true, nil
}
