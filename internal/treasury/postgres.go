// Package treasury implements the funds transfer adapter: moving fixed-point
// value between named accounts, all-or-nothing. Wagers are escrowed by
// transferring from the participant to the configured escrow account, and
// payouts by the reverse transfer.
package treasury

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/altmarkets/parimutuel/internal/domain"
)

// PostgresTreasury implements domain.Treasury over a treasury_accounts table.
// Each transfer runs in one transaction with the source row locked, so a
// failed transfer leaves both balances untouched.
type PostgresTreasury struct {
	pool *pgxpool.Pool
}

// NewPostgresTreasury creates a treasury backed by the given connection pool.
func NewPostgresTreasury(pool *pgxpool.Pool) *PostgresTreasury {
	return &PostgresTreasury{pool: pool}
}

// Transfer moves amount from one account to the other, failing with
// ErrInsufficientFunds when the source balance is too low. The destination
// account is created on first use; the source must already exist.
func (t *PostgresTreasury) Transfer(ctx context.Context, from, to string, amount int64) error {
	if amount <= 0 {
		return domain.ErrInvalidAmount
	}
	if from == to {
		return nil
	}

	tx, err := t.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("treasury: begin transfer: %w", err)
	}
	defer tx.Rollback(ctx)

	var balance int64
	err = tx.QueryRow(ctx,
		"SELECT balance FROM treasury_accounts WHERE account = $1 FOR UPDATE",
		from,
	).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrAccountNotFound
	}
	if err != nil {
		return fmt.Errorf("treasury: lock account %s: %w", from, err)
	}
	if balance < amount {
		return domain.ErrInsufficientFunds
	}

	if _, err := tx.Exec(ctx,
		"UPDATE treasury_accounts SET balance = balance - $2, updated_at = NOW() WHERE account = $1",
		from, amount,
	); err != nil {
		return fmt.Errorf("treasury: debit %s: %w", from, err)
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO treasury_accounts (account, balance) VALUES ($1, $2)
		ON CONFLICT (account) DO UPDATE SET
			balance = treasury_accounts.balance + EXCLUDED.balance,
			updated_at = NOW()`,
		to, amount,
	); err != nil {
		return fmt.Errorf("treasury: credit %s: %w", to, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("treasury: commit transfer: %w", err)
	}
	return nil
}

// Balance returns the current balance of an account, or ErrAccountNotFound.
func (t *PostgresTreasury) Balance(ctx context.Context, account string) (int64, error) {
	var balance int64
	err := t.pool.QueryRow(ctx,
		"SELECT balance FROM treasury_accounts WHERE account = $1", account,
	).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, domain.ErrAccountNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("treasury: balance of %s: %w", account, err)
	}
	return balance, nil
}

// Deposit credits an account directly, creating it if needed. Used by
// operational tooling to fund participant accounts; the settlement core
// itself only ever calls Transfer.
func (t *PostgresTreasury) Deposit(ctx context.Context, account string, amount int64) error {
	if amount <= 0 {
		return domain.ErrInvalidAmount
	}
	if _, err := t.pool.Exec(ctx, `
		INSERT INTO treasury_accounts (account, balance) VALUES ($1, $2)
		ON CONFLICT (account) DO UPDATE SET
			balance = treasury_accounts.balance + EXCLUDED.balance,
			updated_at = NOW()`,
		account, amount,
	); err != nil {
		return fmt.Errorf("treasury: deposit to %s: %w", account, err)
	}
	return nil
}

// Compile-time interface check.
var _ domain.Treasury = (*PostgresTreasury)(nil)
