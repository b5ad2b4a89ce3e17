package repository

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"signal-backend/internal/domain"
)

// PostgresSignalRepository is the append-only signal log. IDs come from a
// bigserial column, so id order is write order.
type PostgresSignalRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresSignalRepository(pool *pgxpool.Pool) *PostgresSignalRepository {
	return &PostgresSignalRepository{pool: pool}
}

const signalColumns = `id, created_at, signal_type, price, confidence, short_ma, long_ma, reason`

func (r *PostgresSignalRepository) Create(ctx context.Context, signal *domain.Signal) error {
	if signal == nil {
		return errors.New("nil signal")
	}

	var id int64
	err := r.pool.QueryRow(ctx, `
		insert into signals(created_at, signal_type, price, confidence, short_ma, long_ma, reason)
		values ($1,$2,$3,$4,$5,$6,$7)
		returning id
	`,
		signal.Timestamp,
		string(signal.Type),
		signal.Price,
		signal.Confidence,
		signal.ShortMA,
		signal.LongMA,
		signal.Reason,
	).Scan(&id)
	if err != nil {
		return err
	}
	signal.ID = strconv.FormatInt(id, 10)
	return nil
}

func (r *PostgresSignalRepository) Previous(ctx context.Context, current *domain.Signal) (*domain.Signal, error) {
	id, err := parseSignalID(current)
	if err != nil {
		return nil, err
	}
	row := r.pool.QueryRow(ctx, `
		select `+signalColumns+`
		from signals
		where id < $1
		order by id desc
		limit 1
	`, id)
	return scanOptionalSignal(row)
}

func (r *PostgresSignalRepository) Latest(ctx context.Context) (*domain.Signal, error) {
	row := r.pool.QueryRow(ctx, `
		select `+signalColumns+`
		from signals
		order by id desc
		limit 1
	`)
	return scanOptionalSignal(row)
}

func (r *PostgresSignalRepository) List(ctx context.Context, limit int) ([]*domain.Signal, error) {
	rows, err := r.pool.Query(ctx, `
		select `+signalColumns+`
		from signals
		order by id desc
		limit $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	signals := make([]*domain.Signal, 0)
	for rows.Next() {
		s, err := scanSignal(rows)
		if err != nil {
			return nil, err
		}
		signals = append(signals, s)
	}
	return signals, rows.Err()
}

func scanOptionalSignal(row pgx.Row) (*domain.Signal, error) {
	s, err := scanSignal(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return s, err
}

func scanSignal(row pgx.Row) (*domain.Signal, error) {
	var (
		s          domain.Signal
		id         int64
		signalType string
	)
	if err := row.Scan(
		&id,
		&s.Timestamp,
		&signalType,
		&s.Price,
		&s.Confidence,
		&s.ShortMA,
		&s.LongMA,
		&s.Reason,
	); err != nil {
		return nil, err
	}
	s.ID = strconv.FormatInt(id, 10)
	s.Type = domain.SignalType(signalType)
	s.Timestamp = s.Timestamp.UTC()
	return &s, nil
}

var _ domain.SignalRepository = (*PostgresSignalRepository)(nil)
