package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signal-backend/internal/domain"
)

func TestSecretCipher_RoundTrip(t *testing.T) {
	c := newSecretCipher("a-sixteen-char-key")

	enc, err := c.encrypt("s3cr3t")
	require.NoError(t, err)
	assert.NotContains(t, enc, "s3cr3t")

	again, err := c.encrypt("s3cr3t")
	require.NoError(t, err)
	assert.NotEqual(t, enc, again, "nonce must differ per encryption")

	plain, err := c.decrypt(enc)
	require.NoError(t, err)
	assert.Equal(t, "s3cr3t", plain)
}

func TestSecretCipher_WrongKey(t *testing.T) {
	enc, err := newSecretCipher("first-key-0123456789").encrypt("s3cr3t")
	require.NoError(t, err)

	_, err = newSecretCipher("other-key-0123456789").decrypt(enc)
	assert.Error(t, err)

	_, err = newSecretCipher("first-key-0123456789").decrypt("c2hvcnQ=")
	assert.Error(t, err)
}

func TestEnvCredentialStore(t *testing.T) {
	ctx := context.Background()
	store := NewEnvCredentialStore("tk", "ts", "", "")

	creds, err := store.Get(ctx, domain.ModeTestnet)
	require.NoError(t, err)
	assert.Equal(t, "tk", creds.APIKey)
	assert.Equal(t, "ts", creds.APISecret)

	_, err = store.Get(ctx, domain.ModeProduction)
	var credErr *domain.CredentialsError
	require.True(t, errors.As(err, &credErr))
	assert.Equal(t, domain.ModeProduction, credErr.Mode)
	assert.ErrorIs(t, err, domain.ErrCredentialsNotFound)

	require.NoError(t, store.Save(ctx, &domain.Credentials{Mode: domain.ModeProduction, APIKey: "pk", APISecret: "ps"}))
	creds, err = store.Get(ctx, domain.ModeProduction)
	require.NoError(t, err)
	assert.Equal(t, "pk", creds.APIKey)
}
