package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInsufficientBalance   = errors.New("insufficient balance")
	ErrBelowMinimumOrderSize = errors.New("below minimum order size")
	ErrSettingsNotFound      = errors.New("settings not found")
	ErrCredentialsNotFound   = errors.New("credentials not found")
)

// ConfigurationError reports merged settings that fail validation.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid settings: %s %s", e.Field, e.Reason)
}

// CredentialsError reports a failed credential fetch for a trading mode.
type CredentialsError struct {
	Mode TradingMode
	Err  error
}

func (e *CredentialsError) Error() string {
	return fmt.Sprintf("credentials for %s: %v", e.Mode, e.Err)
}

func (e *CredentialsError) Unwrap() error { return e.Err }

// PersistenceError reports a failed write or read against the store.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// ExchangeMessenger is implemented by exchange errors that carry the
// exchange's own message.
type ExchangeMessenger interface {
	ExchangeMessage() string
}

// ExchangeMessage extracts the exchange-provided message from err, falling
// back to err.Error().
func ExchangeMessage(err error) string {
	var m ExchangeMessenger
	if errors.As(err, &m) {
		if msg := m.ExchangeMessage(); msg != "" {
			return msg
		}
	}
	return err.Error()
}
