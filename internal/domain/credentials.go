package domain

import (
	"context"
	"time"
)

// Credentials is one exchange API key pair. Testnet and production pairs are
// stored and fetched independently.
type Credentials struct {
	Mode      TradingMode `json:"mode"`
	APIKey    string      `json:"apiKey"`
	APISecret string      `json:"-"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

// CredentialStore returns exchange credentials. Implementations must not cache.
type CredentialStore interface {
	Get(ctx context.Context, mode TradingMode) (*Credentials, error)
}

// CredentialWriter persists credentials. APISecret is encrypted at rest by the implementation.
type CredentialWriter interface {
	Save(ctx context.Context, creds *Credentials) error
}
