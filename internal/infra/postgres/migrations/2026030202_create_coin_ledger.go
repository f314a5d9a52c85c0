package migrations

import (
	"context"

	"github.com/uptrace/bun"
)

var createCoinLedger = []string{
	`CREATE TABLE IF NOT EXISTS coin_balances (
		student_id      text PRIMARY KEY,
		current_balance bigint NOT NULL DEFAULT 0,
		total_earned    bigint NOT NULL DEFAULT 0,
		total_spent     bigint NOT NULL DEFAULT 0,
		total_withdrawn bigint NOT NULL DEFAULT 0,
		updated_at      timestamptz NOT NULL,
		CONSTRAINT coin_balances_non_negative CHECK (current_balance >= 0),
		CONSTRAINT coin_balances_identity CHECK (total_earned - total_spent - total_withdrawn = current_balance)
	)`,
	`CREATE TABLE IF NOT EXISTS coin_transactions (
		seq           bigserial UNIQUE,
		id            text PRIMARY KEY,
		student_id    text NOT NULL,
		type          text NOT NULL,
		amount        bigint NOT NULL CHECK (amount <> 0),
		balance_after bigint NOT NULL CHECK (balance_after >= 0),
		description   text NOT NULL DEFAULT '',
		ref_id        text NOT NULL DEFAULT '',
		created_at    timestamptz NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS coin_transactions_student ON coin_transactions (student_id, seq)`,
	`CREATE TABLE IF NOT EXISTS withdrawals (
		id              text PRIMARY KEY,
		student_id      text NOT NULL,
		coin_amount     bigint NOT NULL CHECK (coin_amount > 0),
		currency_amount numeric(14, 4) NOT NULL,
		currency        text NOT NULL,
		payout_method   text NOT NULL,
		payout_account  text NOT NULL,
		status          text NOT NULL CHECK (status IN ('pending', 'completed', 'rejected')),
		reason          text NOT NULL DEFAULT '',
		created_at      timestamptz NOT NULL,
		processed_at    timestamptz
	)`,
	`CREATE INDEX IF NOT EXISTS withdrawals_student ON withdrawals (student_id, created_at)`,
	`CREATE TABLE IF NOT EXISTS prizes (
		id             text PRIMARY KEY,
		name           text NOT NULL,
		description    text NOT NULL DEFAULT '',
		cost_coins     bigint NOT NULL CHECK (cost_coins > 0),
		stock_quantity integer NOT NULL,
		active         boolean NOT NULL DEFAULT true,
		created_at     timestamptz NOT NULL,
		CONSTRAINT prizes_stock_non_negative CHECK (stock_quantity >= 0)
	)`,
	`CREATE TABLE IF NOT EXISTS redemptions (
		id         text PRIMARY KEY,
		student_id text NOT NULL,
		prize_id   text NOT NULL REFERENCES prizes (id),
		coin_cost  bigint NOT NULL CHECK (coin_cost > 0),
		created_at timestamptz NOT NULL
	)`,
}

func init() {
	Migrations.MustRegister(
		func(ctx context.Context, db *bun.DB) error {
			return execAll(ctx, db, createCoinLedger)
		},
		func(ctx context.Context, db *bun.DB) error {
			return execAll(ctx, db, []string{
				`DROP TABLE IF EXISTS redemptions`,
				`DROP TABLE IF EXISTS prizes`,
				`DROP TABLE IF EXISTS withdrawals`,
				`DROP TABLE IF EXISTS coin_transactions`,
				`DROP TABLE IF EXISTS coin_balances`,
			})
		},
	)
}
