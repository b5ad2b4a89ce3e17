package repository

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"io"
	"sync"
	"time"

	"signal-backend/internal/domain"
)

// EnvCredentialStore serves credentials supplied through configuration.
// Pairs with an empty key or secret are treated as missing.
type EnvCredentialStore struct {
	creds map[domain.TradingMode]domain.Credentials
	mu    sync.RWMutex
}

func NewEnvCredentialStore(testnetKey, testnetSecret, productionKey, productionSecret string) *EnvCredentialStore {
	s := &EnvCredentialStore{creds: make(map[domain.TradingMode]domain.Credentials)}
	s.put(domain.ModeTestnet, testnetKey, testnetSecret)
	s.put(domain.ModeProduction, productionKey, productionSecret)
	return s
}

func (s *EnvCredentialStore) put(mode domain.TradingMode, key, secret string) {
	if key == "" || secret == "" {
		return
	}
	s.creds[mode] = domain.Credentials{Mode: mode, APIKey: key, APISecret: secret, UpdatedAt: time.Now().UTC()}
}

func (s *EnvCredentialStore) Get(_ context.Context, mode domain.TradingMode) (*domain.Credentials, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.creds[mode]
	if !ok {
		return nil, &domain.CredentialsError{Mode: mode, Err: domain.ErrCredentialsNotFound}
	}
	return &c, nil
}

// Save replaces the pair for the credential's mode. Nothing is persisted.
func (s *EnvCredentialStore) Save(_ context.Context, creds *domain.Credentials) error {
	if creds == nil {
		return errors.New("nil credentials")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.put(creds.Mode, creds.APIKey, creds.APISecret)
	return nil
}

// secretCipher encrypts API secrets with AES-256-GCM. The nonce is prefixed
// to the ciphertext and the result is base64 encoded.
type secretCipher struct {
	key []byte
}

// newSecretCipher zero-pads or truncates the key to 32 bytes.
func newSecretCipher(encryptionKey string) secretCipher {
	key := []byte(encryptionKey)
	if len(key) < 32 {
		padded := make([]byte, 32)
		copy(padded, key)
		key = padded
	} else if len(key) > 32 {
		key = key[:32]
	}
	return secretCipher{key: key}
}

func (c secretCipher) gcm() (cipher.AEAD, error) {
	block, err := aes.NewCipher(c.key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

func (c secretCipher) encrypt(plaintext string) (string, error) {
	gcm, err := c.gcm()
	if err != nil {
		return "", err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}
	ciphertext := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

func (c secretCipher) decrypt(encrypted string) (string, error) {
	ciphertext, err := base64.StdEncoding.DecodeString(encrypted)
	if err != nil {
		return "", err
	}
	gcm, err := c.gcm()
	if err != nil {
		return "", err
	}
	nonceSize := gcm.NonceSize()
	if len(ciphertext) < nonceSize {
		return "", errors.New("ciphertext too short")
	}
	nonce, ciphertext := ciphertext[:nonceSize], ciphertext[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}

var (
	_ domain.CredentialStore  = (*EnvCredentialStore)(nil)
	_ domain.CredentialWriter = (*EnvCredentialStore)(nil)
)
