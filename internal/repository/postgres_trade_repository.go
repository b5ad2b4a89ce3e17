package repository

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"signal-backend/internal/domain"
)

// PostgresTradeRepository stores successful and failed trade attempts.
type PostgresTradeRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresTradeRepository(pool *pgxpool.Pool) *PostgresTradeRepository {
	return &PostgresTradeRepository{pool: pool}
}

func (r *PostgresTradeRepository) CreateTrade(ctx context.Context, record *domain.TradeRecord) error {
	if record == nil {
		return errors.New("nil trade record")
	}
	signalID, err := strconv.ParseInt(record.SignalID, 10, 64)
	if err != nil {
		return err
	}
	fills, err := json.Marshal(record.Fills)
	if err != nil {
		return err
	}
	if record.ID == "" {
		record.ID = newID()
	}

	_, err = r.pool.Exec(ctx, `
		insert into trades(
			id, created_at, signal_id, order_id, client_order_id, symbol, side, status,
			executed_qty, average_price, quote_qty, commission,
			signal_price, signal_confidence, trading_mode, fills
		) values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
	`,
		record.ID,
		record.Timestamp,
		signalID,
		record.OrderID,
		record.ClientOrderID,
		record.Symbol,
		string(record.Side),
		record.Status,
		record.ExecutedQty,
		record.AveragePrice,
		record.QuoteQty,
		record.Commission,
		record.SignalPrice,
		record.SignalConfidence,
		string(record.TradingMode),
		fills,
	)
	return err
}

func (r *PostgresTradeRepository) CreateFailedTrade(ctx context.Context, record *domain.FailedTradeRecord) error {
	if record == nil {
		return errors.New("nil failed trade record")
	}
	signalID, err := strconv.ParseInt(record.SignalID, 10, 64)
	if err != nil {
		return err
	}
	if record.ID == "" {
		record.ID = newID()
	}

	_, err = r.pool.Exec(ctx, `
		insert into failed_trades(id, created_at, signal_id, signal_type, signal_price, trading_mode, error)
		values ($1,$2,$3,$4,$5,$6,$7)
	`,
		record.ID,
		record.Timestamp,
		signalID,
		string(record.SignalType),
		record.SignalPrice,
		string(record.TradingMode),
		record.Error,
	)
	return err
}

func (r *PostgresTradeRepository) ListTrades(ctx context.Context, limit int) ([]*domain.TradeRecord, error) {
	rows, err := r.pool.Query(ctx, `
		select id, created_at, signal_id, order_id, client_order_id, symbol, side, status,
			executed_qty, average_price, quote_qty, commission,
			signal_price, signal_confidence, trading_mode, fills
		from trades
		order by created_at desc
		limit $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	trades := make([]*domain.TradeRecord, 0)
	for rows.Next() {
		var (
			t        domain.TradeRecord
			signalID int64
			side     string
			mode     string
			fills    []byte
		)
		if err := rows.Scan(
			&t.ID,
			&t.Timestamp,
			&signalID,
			&t.OrderID,
			&t.ClientOrderID,
			&t.Symbol,
			&side,
			&t.Status,
			&t.ExecutedQty,
			&t.AveragePrice,
			&t.QuoteQty,
			&t.Commission,
			&t.SignalPrice,
			&t.SignalConfidence,
			&mode,
			&fills,
		); err != nil {
			return nil, err
		}
		t.SignalID = strconv.FormatInt(signalID, 10)
		t.Side = domain.OrderSide(side)
		t.TradingMode = domain.TradingMode(mode)
		t.Timestamp = t.Timestamp.UTC()
		if err := json.Unmarshal(fills, &t.Fills); err != nil {
			return nil, err
		}
		trades = append(trades, &t)
	}
	return trades, rows.Err()
}

func (r *PostgresTradeRepository) ListFailedTrades(ctx context.Context, limit int) ([]*domain.FailedTradeRecord, error) {
	rows, err := r.pool.Query(ctx, `
		select id, created_at, signal_id, signal_type, signal_price, trading_mode, error
		from failed_trades
		order by created_at desc
		limit $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	failed := make([]*domain.FailedTradeRecord, 0)
	for rows.Next() {
		var (
			f          domain.FailedTradeRecord
			signalID   int64
			signalType string
			mode       string
		)
		if err := rows.Scan(&f.ID, &f.Timestamp, &signalID, &signalType, &f.SignalPrice, &mode, &f.Error); err != nil {
			return nil, err
		}
		f.SignalID = strconv.FormatInt(signalID, 10)
		f.SignalType = domain.SignalType(signalType)
		f.TradingMode = domain.TradingMode(mode)
		f.Timestamp = f.Timestamp.UTC()
		failed = append(failed, &f)
	}
	return failed, rows.Err()
}

// PostgresTransitionLockRepository claims transition keys with a primary-key
// insert, so concurrent processes agree on a single winner.
type PostgresTransitionLockRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresTransitionLockRepository(pool *pgxpool.Pool) *PostgresTransitionLockRepository {
	return &PostgresTransitionLockRepository{pool: pool}
}

func (r *PostgresTransitionLockRepository) Acquire(ctx context.Context, key string, signalID string, at time.Time) (bool, error) {
	if key == "" {
		return false, errors.New("empty transition key")
	}
	id, err := strconv.ParseInt(signalID, 10, 64)
	if err != nil {
		return false, err
	}
	tag, err := r.pool.Exec(ctx, `
		insert into transition_locks(key, signal_id, acquired_at)
		values ($1,$2,$3)
		on conflict (key) do nothing
	`, key, id, at)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

var (
	_ domain.TradeRepository          = (*PostgresTradeRepository)(nil)
	_ domain.TransitionLockRepository = (*PostgresTransitionLockRepository)(nil)
)
