package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Migrate creates the tables used by the pipeline and the read API.
// btc_prices is written by the ingestion process; it is created here so a
// fresh database is usable.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`create table if not exists btc_prices (
			id bigserial primary key,
			recorded_at timestamptz not null,
			price numeric not null
		);`,
		`create index if not exists idx_btc_prices_recorded_at on btc_prices(recorded_at);`,
		`create table if not exists settings (
			id text primary key,
			document jsonb not null default '{}'::jsonb,
			updated_at timestamptz not null default now()
		);`,
		`create table if not exists signals (
			id bigserial primary key,
			created_at timestamptz not null,
			signal_type text not null,
			price numeric not null,
			confidence numeric not null,
			short_ma numeric not null,
			long_ma numeric not null,
			reason text not null default ''
		);`,
		`create table if not exists transition_locks (
			key text primary key,
			signal_id bigint not null,
			acquired_at timestamptz not null
		);`,
		`create table if not exists trades (
			id text primary key,
			created_at timestamptz not null,
			signal_id bigint not null,
			order_id bigint not null,
			client_order_id text not null,
			symbol text not null,
			side text not null,
			status text not null,
			executed_qty numeric not null,
			average_price numeric not null,
			quote_qty numeric not null,
			commission numeric not null,
			signal_price numeric not null,
			signal_confidence numeric not null,
			trading_mode text not null,
			fills jsonb not null default '[]'::jsonb
		);`,
		`create index if not exists idx_trades_created_at on trades(created_at desc);`,
		`create table if not exists failed_trades (
			id text primary key,
			created_at timestamptz not null,
			signal_id bigint not null,
			signal_type text not null,
			signal_price numeric not null,
			trading_mode text not null,
			error text not null
		);`,
		`create index if not exists idx_failed_trades_created_at on failed_trades(created_at desc);`,
		`create table if not exists notifications (
			id text primary key,
			created_at timestamptz not null,
			signal_id bigint not null,
			title text not null,
			message text not null,
			signal_type text not null,
			price numeric not null,
			channels jsonb not null default '[]'::jsonb
		);`,
		`create table if not exists exchange_credentials (
			mode text primary key,
			api_key text not null,
			secret_enc text not null,
			updated_at timestamptz not null default now()
		);`,
	}

	for _, s := range stmts {
		if _, err := pool.Exec(ctx, s); err != nil {
			return err
		}
	}
	return nil
}
