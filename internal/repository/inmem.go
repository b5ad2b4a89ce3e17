package repository

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"signal-backend/internal/domain"
)

// InMemoryPriceRepository holds price samples in timestamp order.
type InMemoryPriceRepository struct {
	samples []domain.PriceSample
	mu      sync.RWMutex
}

func NewInMemoryPriceRepository() *InMemoryPriceRepository {
	return &InMemoryPriceRepository{samples: []domain.PriceSample{}}
}

// Append adds samples, keeping the slice sorted by timestamp.
func (r *InMemoryPriceRepository) Append(samples ...domain.PriceSample) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.samples = append(r.samples, samples...)
	sort.SliceStable(r.samples, func(i, j int) bool {
		return r.samples[i].Timestamp.Before(r.samples[j].Timestamp)
	})
}

func (r *InMemoryPriceRepository) Since(_ context.Context, from time.Time) ([]domain.PriceSample, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	idx := sort.Search(len(r.samples), func(i int) bool {
		return !r.samples[i].Timestamp.Before(from)
	})
	result := make([]domain.PriceSample, len(r.samples)-idx)
	copy(result, r.samples[idx:])
	return result, nil
}

func (r *InMemoryPriceRepository) Latest(_ context.Context) (*domain.PriceSample, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.samples) == 0 {
		return nil, nil
	}
	latest := r.samples[len(r.samples)-1]
	return &latest, nil
}

// InMemorySettingsRepository holds a single settings document.
type InMemorySettingsRepository struct {
	doc *domain.SettingsDocument
	mu  sync.RWMutex
}

func NewInMemorySettingsRepository(doc *domain.SettingsDocument) *InMemorySettingsRepository {
	return &InMemorySettingsRepository{doc: doc}
}

func (r *InMemorySettingsRepository) Set(doc *domain.SettingsDocument) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.doc = doc
}

func (r *InMemorySettingsRepository) Get(_ context.Context) (*domain.SettingsDocument, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.doc == nil {
		return nil, domain.ErrSettingsNotFound
	}
	doc := *r.doc
	return &doc, nil
}

// InMemorySignalRepository assigns increasing numeric IDs, mirroring the
// bigserial key of the Postgres table.
type InMemorySignalRepository struct {
	signals []*domain.Signal
	nextID  int64
	mu      sync.RWMutex
}

func NewInMemorySignalRepository() *InMemorySignalRepository {
	return &InMemorySignalRepository{signals: []*domain.Signal{}}
}

func (r *InMemorySignalRepository) Create(_ context.Context, signal *domain.Signal) error {
	if signal == nil {
		return errors.New("nil signal")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	signal.ID = strconv.FormatInt(r.nextID, 10)
	stored := *signal
	r.signals = append(r.signals, &stored)
	return nil
}

func (r *InMemorySignalRepository) Previous(_ context.Context, current *domain.Signal) (*domain.Signal, error) {
	id, err := parseSignalID(current)
	if err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	for i := len(r.signals) - 1; i >= 0; i-- {
		storedID, _ := strconv.ParseInt(r.signals[i].ID, 10, 64)
		if storedID < id {
			prev := *r.signals[i]
			return &prev, nil
		}
	}
	return nil, nil
}

func (r *InMemorySignalRepository) Latest(_ context.Context) (*domain.Signal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.signals) == 0 {
		return nil, nil
	}
	latest := *r.signals[len(r.signals)-1]
	return &latest, nil
}

// List returns up to limit signals, newest first.
func (r *InMemorySignalRepository) List(_ context.Context, limit int) ([]*domain.Signal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*domain.Signal, 0, min(limit, len(r.signals)))
	for i := len(r.signals) - 1; i >= 0 && len(result) < limit; i-- {
		s := *r.signals[i]
		result = append(result, &s)
	}
	return result, nil
}

func parseSignalID(s *domain.Signal) (int64, error) {
	if s == nil || s.ID == "" {
		return 0, errors.New("signal has no id")
	}
	return strconv.ParseInt(s.ID, 10, 64)
}

func newID() string {
	return uuid.NewString()
}
