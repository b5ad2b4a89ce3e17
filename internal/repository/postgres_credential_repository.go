package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"signal-backend/internal/domain"
)

// PostgresCredentialRepository stores one key pair per trading mode.
// APISecret is encrypted at rest using AES-GCM with a 32-byte key.
type PostgresCredentialRepository struct {
	pool   *pgxpool.Pool
	cipher secretCipher
}

func NewPostgresCredentialRepository(pool *pgxpool.Pool, encryptionKey string) *PostgresCredentialRepository {
	return &PostgresCredentialRepository{pool: pool, cipher: newSecretCipher(encryptionKey)}
}

func (r *PostgresCredentialRepository) Save(ctx context.Context, creds *domain.Credentials) error {
	if creds == nil {
		return errors.New("nil credentials")
	}
	if !creds.Mode.Valid() {
		return &domain.ConfigurationError{Field: "mode", Reason: "must be testnet or production"}
	}

	encryptedSecret, err := r.cipher.encrypt(creds.APISecret)
	if err != nil {
		return err
	}

	_, err = r.pool.Exec(ctx, `
		insert into exchange_credentials(mode, api_key, secret_enc, updated_at)
		values ($1,$2,$3,$4)
		on conflict (mode) do update set
			api_key = excluded.api_key,
			secret_enc = excluded.secret_enc,
			updated_at = excluded.updated_at
	`,
		string(creds.Mode),
		creds.APIKey,
		encryptedSecret,
		time.Now().UTC(),
	)
	return err
}

// Get reads and decrypts the pair on every call.
func (r *PostgresCredentialRepository) Get(ctx context.Context, mode domain.TradingMode) (*domain.Credentials, error) {
	var (
		creds     = domain.Credentials{Mode: mode}
		secretEnc string
	)
	err := r.pool.QueryRow(ctx, `
		select api_key, secret_enc, updated_at
		from exchange_credentials
		where mode = $1
	`, string(mode)).Scan(&creds.APIKey, &secretEnc, &creds.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &domain.CredentialsError{Mode: mode, Err: domain.ErrCredentialsNotFound}
	}
	if err != nil {
		return nil, &domain.CredentialsError{Mode: mode, Err: err}
	}

	secret, err := r.cipher.decrypt(secretEnc)
	if err != nil {
		return nil, &domain.CredentialsError{Mode: mode, Err: err}
	}
	creds.APISecret = secret
	return &creds, nil
}

var (
	_ domain.CredentialStore  = (*PostgresCredentialRepository)(nil)
	_ domain.CredentialWriter = (*PostgresCredentialRepository)(nil)
)
