package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"signal-backend/internal/domain"
)

// PostgresPriceRepository reads the btc_prices table filled by the ingestion process.
type PostgresPriceRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresPriceRepository(pool *pgxpool.Pool) *PostgresPriceRepository {
	return &PostgresPriceRepository{pool: pool}
}

func (r *PostgresPriceRepository) Since(ctx context.Context, from time.Time) ([]domain.PriceSample, error) {
	rows, err := r.pool.Query(ctx, `
		select recorded_at, price
		from btc_prices
		where recorded_at >= $1
		order by recorded_at asc, id asc
	`, from)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	samples := make([]domain.PriceSample, 0)
	for rows.Next() {
		var s domain.PriceSample
		if err := rows.Scan(&s.Timestamp, &s.Price); err != nil {
			return nil, err
		}
		s.Timestamp = s.Timestamp.UTC()
		samples = append(samples, s)
	}
	return samples, rows.Err()
}

func (r *PostgresPriceRepository) Latest(ctx context.Context) (*domain.PriceSample, error) {
	var s domain.PriceSample
	err := r.pool.QueryRow(ctx, `
		select recorded_at, price
		from btc_prices
		order by recorded_at desc, id desc
		limit 1
	`).Scan(&s.Timestamp, &s.Price)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	s.Timestamp = s.Timestamp.UTC()
	return &s, nil
}

// Append inserts samples. Used by tests and local seeding.
func (r *PostgresPriceRepository) Append(ctx context.Context, samples ...domain.PriceSample) error {
	batch := &pgx.Batch{}
	for _, s := range samples {
		batch.Queue(`insert into btc_prices(recorded_at, price) values ($1,$2)`, s.Timestamp, s.Price)
	}
	return r.pool.SendBatch(ctx, batch).Close()
}

// PostgresSettingsRepository reads one settings document by id. The document
// is stored as jsonb so partially populated documents round-trip unchanged.
type PostgresSettingsRepository struct {
	pool *pgxpool.Pool
	id   string
}

func NewPostgresSettingsRepository(pool *pgxpool.Pool, id string) *PostgresSettingsRepository {
	return &PostgresSettingsRepository{pool: pool, id: id}
}

func (r *PostgresSettingsRepository) Get(ctx context.Context) (*domain.SettingsDocument, error) {
	var raw []byte
	err := r.pool.QueryRow(ctx, `select document from settings where id = $1`, r.id).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrSettingsNotFound
	}
	if err != nil {
		return nil, err
	}

	var doc domain.SettingsDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode settings %s: %w", r.id, err)
	}
	return &doc, nil
}

// Save upserts the document. Settings administration has no API; this backs
// tests and seeding only.
func (r *PostgresSettingsRepository) Save(ctx context.Context, doc *domain.SettingsDocument) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `
		insert into settings(id, document, updated_at) values ($1,$2,now())
		on conflict (id) do update set document = excluded.document, updated_at = now()
	`, r.id, raw)
	return err
}

// PostgresNotificationRepository stores delivered notifications.
type PostgresNotificationRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresNotificationRepository(pool *pgxpool.Pool) *PostgresNotificationRepository {
	return &PostgresNotificationRepository{pool: pool}
}

func (r *PostgresNotificationRepository) Create(ctx context.Context, record *domain.NotificationRecord) error {
	if record == nil {
		return errors.New("nil notification record")
	}
	signalID, err := strconv.ParseInt(record.SignalID, 10, 64)
	if err != nil {
		return err
	}
	channels, err := json.Marshal(record.Channels)
	if err != nil {
		return err
	}
	if record.ID == "" {
		record.ID = newID()
	}

	_, err = r.pool.Exec(ctx, `
		insert into notifications(id, created_at, signal_id, title, message, signal_type, price, channels)
		values ($1,$2,$3,$4,$5,$6,$7,$8)
	`,
		record.ID,
		record.Timestamp,
		signalID,
		record.Title,
		record.Message,
		string(record.SignalType),
		record.Price,
		channels,
	)
	return err
}

func (r *PostgresNotificationRepository) List(ctx context.Context, limit int) ([]*domain.NotificationRecord, error) {
	rows, err := r.pool.Query(ctx, `
		select id, created_at, signal_id, title, message, signal_type, price, channels
		from notifications
		order by created_at desc
		limit $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]*domain.NotificationRecord, 0)
	for rows.Next() {
		var (
			n          domain.NotificationRecord
			signalID   int64
			signalType string
			channels   []byte
		)
		if err := rows.Scan(&n.ID, &n.Timestamp, &signalID, &n.Title, &n.Message, &signalType, &n.Price, &channels); err != nil {
			return nil, err
		}
		n.SignalID = strconv.FormatInt(signalID, 10)
		n.SignalType = domain.SignalType(signalType)
		n.Timestamp = n.Timestamp.UTC()
		_ = json.Unmarshal(channels, &n.Channels)
		records = append(records, &n)
	}
	return records, rows.Err()
}

var (
	_ domain.PriceRepository        = (*PostgresPriceRepository)(nil)
	_ domain.SettingsRepository     = (*PostgresSettingsRepository)(nil)
	_ domain.NotificationRepository = (*PostgresNotificationRepository)(nil)
)
