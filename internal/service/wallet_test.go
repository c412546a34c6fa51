package service

import (
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mathieu-neron/adwatch/internal/apperr"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestNewWalletClampsNegativeSeed(t *testing.T) {
	w := NewWallet(dec("-3"))
	assert.True(t, w.Balance().IsZero())
}

func TestWalletApply(t *testing.T) {
	w := NewWallet(dec("5"))

	got, err := w.Apply(dec("12.50"))
	require.NoError(t, err)
	assert.True(t, got.Equal(dec("17.5")), "got %s", got)

	got, err = w.Apply(dec("-17.5"))
	require.NoError(t, err)
	assert.True(t, got.IsZero())
}

func TestWalletApplyRefusesNegative(t *testing.T) {
	w := NewWallet(dec("10"))

	got, err := w.Apply(dec("-15"))
	require.ErrorIs(t, err, apperr.ErrNegativeBalance)
	assert.True(t, got.Equal(dec("10")))
	assert.True(t, w.Balance().Equal(dec("10")))
}

func TestWalletConcurrentDeltasAreNotLost(t *testing.T) {
	w := NewWallet(decimal.Zero)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = w.Apply(dec("0.25"))
		}()
	}
	wg.Wait()

	assert.True(t, w.Balance().Equal(dec("25")), "got %s", w.Balance())
}
