package service

import (
	"sync"

	"github.com/shopspring/decimal"

	"github.com/mathieu-neron/adwatch/internal/apperr"
)

// Wallet is a viewer session's balance. Apply is the only way to change it, and calls to Apply are
// serialized, so concurrent claim and withdrawal results land as deltas and never overwrite each other.
type Wallet struct {
	mu      sync.Mutex
	balance decimal.Decimal
}

// NewWallet seeds a wallet from the profile balance. Negative seeds are clamped to zero.
func NewWallet(initial decimal.Decimal) *Wallet {
	if initial.IsNegative() {
		initial = decimal.Zero
	}
	return &Wallet{balance: initial}
}

// Balance returns the latest known balance.
func (w *Wallet) Balance() decimal.Decimal {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.balance
}

// Apply adds delta to the balance and returns the new balance.
// A delta that would make the balance negative is refused and the wallet is left unchanged.
func (w *Wallet) Apply(delta decimal.Decimal) (decimal.Decimal, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	next := w.balance.Add(delta)
	if next.IsNegative() {
		return w.balance, apperr.ErrNegativeBalance
	}
	w.balance = next
	return next, nil
}
