package treasury

import (
	"context"
	"sync"

	"github.com/altmarkets/parimutuel/internal/domain"
)

// MemoryTreasury is an in-process treasury for standalone mode and tests.
type MemoryTreasury struct {
	mu       sync.Mutex
	balances map[string]int64
}

// NewMemoryTreasury creates an empty in-memory treasury.
func NewMemoryTreasury() *MemoryTreasury {
	return &MemoryTreasury{balances: make(map[string]int64)}
}

// SetBalance sets an account balance outright, creating the account if
// needed.
func (t *MemoryTreasury) SetBalance(account string, balance int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.balances[account] = balance
}

// Deposit credits an account, creating it if needed.
func (t *MemoryTreasury) Deposit(ctx context.Context, account string, amount int64) error {
	if amount <= 0 {
		return domain.ErrInvalidAmount
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	credited, err := domain.CheckedAdd(t.balances[account], amount)
	if err != nil {
		return err
	}
	t.balances[account] = credited
	return nil
}

// Transfer moves amount between accounts under a single lock, so partial
// transfers cannot be observed.
func (t *MemoryTreasury) Transfer(ctx context.Context, from, to string, amount int64) error {
	if amount <= 0 {
		return domain.ErrInvalidAmount
	}
	if from == to {
		return nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	balance, ok := t.balances[from]
	if !ok {
		return domain.ErrAccountNotFound
	}
	if balance < amount {
		return domain.ErrInsufficientFunds
	}
	credited, err := domain.CheckedAdd(t.balances[to], amount)
	if err != nil {
		return err
	}
	t.balances[from] = balance - amount
	t.balances[to] = credited
	return nil
}

// Balance returns the current balance of an account.
func (t *MemoryTreasury) Balance(ctx context.Context, account string) (int64, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	balance, ok := t.balances[account]
	if !ok {
		return 0, domain.ErrAccountNotFound
	}
	return balance, nil
}

var _ domain.Treasury = (*MemoryTreasury)(nil)
