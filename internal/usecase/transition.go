package usecase

import (
	"fmt"

	"signal-backend/internal/domain"
)

// Transition is the result of comparing a new signal with the last persisted one.
type Transition struct {
	Previous     *domain.Signal
	Current      *domain.Signal
	Transitioned bool
}

// DetectTransition reports a transition only when a previous signal exists
// and its type differs. The first signal ever never transitions.
func DetectTransition(previous, current *domain.Signal) Transition {
	return Transition{
		Previous:     previous,
		Current:      current,
		Transitioned: previous != nil && current != nil && previous.Type != current.Type,
	}
}

// Key identifies the transition for the idempotency guard. Invocations that
// observed the same previous signal and classified the same new type derive
// the same key. It also satisfies Binance's newClientOrderId format.
func (t Transition) Key() string {
	if t.Previous == nil || t.Current == nil {
		return ""
	}
	return fmt.Sprintf("tx-%s-%s", t.Previous.ID, t.Current.Type)
}
