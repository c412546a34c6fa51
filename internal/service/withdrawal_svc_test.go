package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mathieu-neron/adwatch/internal/apperr"
	"github.com/mathieu-neron/adwatch/internal/model"
)

func TestWithdrawBelowMinimumMakesNoCall(t *testing.T) {
	tests := []string{"0", "12.50", "14.99"}
	for _, balance := range tests {
		t.Run(balance, func(t *testing.T) {
			ledger := &fakeLedger{}
			gate := NewWithdrawalService(ledger, DefaultMinWithdrawal, time.Second)
			sess := newTestSession(t, balance, time.Minute)

			res, err := gate.Withdraw(context.Background(), sess)
			assert.Nil(t, res)
			require.ErrorIs(t, err, apperr.ErrInsufficientBalance)

			var ve *apperr.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, "Minimum ₹15 required to withdraw.", ve.Reason)

			_, withdrawals := ledger.calls()
			assert.Zero(t, withdrawals)
			assert.True(t, sess.Wallet.Balance().Equal(dec(balance)))
		})
	}
}

func TestWithdrawDebitsMinimumThenBlocks(t *testing.T) {
	ledger := &fakeLedger{}
	gate := NewWithdrawalService(ledger, DefaultMinWithdrawal, time.Second)
	sess := newTestSession(t, "20", time.Minute)

	res, err := gate.Withdraw(context.Background(), sess)
	require.NoError(t, err)
	assert.True(t, res.Amount.Equal(dec("15")))
	assert.True(t, res.Balance.Equal(dec("5")))
	assert.True(t, sess.Wallet.Balance().Equal(dec("5")))

	_, err = gate.Withdraw(context.Background(), sess)
	require.ErrorIs(t, err, apperr.ErrInsufficientBalance)

	_, withdrawals := ledger.calls()
	assert.Equal(t, 1, withdrawals)
}

func TestWithdrawAtExactMinimum(t *testing.T) {
	ledger := &fakeLedger{}
	gate := NewWithdrawalService(ledger, DefaultMinWithdrawal, time.Second)
	sess := newTestSession(t, "15", time.Minute)

	_, err := gate.Withdraw(context.Background(), sess)
	require.NoError(t, err)
	assert.True(t, sess.Wallet.Balance().IsZero())
}

func TestWithdrawUsesLedgerAmount(t *testing.T) {
	amount := dec("18.40")
	ledger := &fakeLedger{withdrawReply: &model.LedgerWithdrawalReply{Amount: &amount}}
	gate := NewWithdrawalService(ledger, DefaultMinWithdrawal, time.Second)
	sess := newTestSession(t, "20", time.Minute)

	res, err := gate.Withdraw(context.Background(), sess)
	require.NoError(t, err)
	assert.True(t, res.Amount.Equal(dec("18.4")))
	assert.True(t, sess.Wallet.Balance().Equal(dec("1.6")))
}

func TestWithdrawConfigurableMinimum(t *testing.T) {
	ledger := &fakeLedger{}
	gate := NewWithdrawalService(ledger, dec("50"), time.Second)
	sess := newTestSession(t, "20", time.Minute)

	_, err := gate.Withdraw(context.Background(), sess)
	var ve *apperr.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "Minimum ₹50 required to withdraw.", ve.Reason)
	assert.True(t, gate.Minimum().Equal(dec("50")))
}

func TestWithdrawFailuresLeaveWalletUnchanged(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(t *testing.T, err error)
	}{
		{
			name: "rejected",
			err:  &apperr.RemoteRejection{Op: OpRequestWithdrawal, Reason: "payout details missing"},
			check: func(t *testing.T, err error) {
				var rr *apperr.RemoteRejection
				require.ErrorAs(t, err, &rr)
				assert.Equal(t, "payout details missing", rr.Reason)
			},
		},
		{
			name: "transport",
			err:  errors.New("dial tcp: i/o timeout"),
			check: func(t *testing.T, err error) {
				var te *apperr.TransportError
				require.ErrorAs(t, err, &te)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ledger := &fakeLedger{withdrawErr: tt.err}
			gate := NewWithdrawalService(ledger, DefaultMinWithdrawal, time.Second)
			sess := newTestSession(t, "30", time.Minute)

			_, err := gate.Withdraw(context.Background(), sess)
			tt.check(t, err)
			assert.True(t, sess.Wallet.Balance().Equal(dec("30")))

			// The slot is released after a failure.
			ledger.mu.Lock()
			ledger.withdrawErr = nil
			ledger.mu.Unlock()
			_, err = gate.Withdraw(context.Background(), sess)
			require.NoError(t, err)
		})
	}
}

func TestWithdrawLedgerAmountAboveBalance(t *testing.T) {
	amount := dec("40")
	ledger := &fakeLedger{withdrawReply: &model.LedgerWithdrawalReply{Amount: &amount}}
	gate := NewWithdrawalService(ledger, DefaultMinWithdrawal, time.Second)
	sess := newTestSession(t, "20", time.Minute)

	result, err := gate.Withdraw(context.Background(), sess)
	require.NoError(t, err)
	assert.True(t, result.Resync)
	assert.True(t, result.Amount.Equal(dec("40")))
	assert.True(t, result.Balance.Equal(dec("20")))
	assert.True(t, sess.Wallet.Balance().Equal(dec("20")))
	_, withdrawals := ledger.calls()
	assert.Equal(t, 1, withdrawals)
}

func TestWithdrawSingleFlight(t *testing.T) {
	ledger := &fakeLedger{gate: make(chan struct{}), entered: make(chan struct{}, 1)}
	gate := NewWithdrawalService(ledger, DefaultMinWithdrawal, time.Second)
	sess := newTestSession(t, "40", time.Minute)

	type outcome struct {
		res *model.WithdrawalResult
		err error
	}
	first := make(chan outcome, 1)
	go func() {
		res, err := gate.Withdraw(context.Background(), sess)
		first <- outcome{res, err}
	}()
	<-ledger.entered

	_, err := gate.Withdraw(context.Background(), sess)
	require.ErrorIs(t, err, apperr.ErrWithdrawalInProgress)
	var ve *apperr.ValidationError
	require.ErrorAs(t, err, &ve)

	close(ledger.gate)
	got := <-first
	require.NoError(t, got.err)
	assert.True(t, sess.Wallet.Balance().Equal(dec("25")))

	_, withdrawals := ledger.calls()
	assert.Equal(t, 1, withdrawals)

	// Once released, the next withdrawal is admitted.
	_, err = gate.Withdraw(context.Background(), sess)
	require.NoError(t, err)
	assert.True(t, sess.Wallet.Balance().Equal(dec("10")))
}

func TestClaimDuringPendingWithdrawalIsNotLost(t *testing.T) {
	ledger := &fakeLedger{
		claimReply: cashReply("3"),
		gate:       make(chan struct{}),
		entered:    make(chan struct{}, 1),
	}
	gate := NewWithdrawalService(ledger, DefaultMinWithdrawal, time.Second)
	claims := NewLedgerService(ledger, time.Second)
	sess := newTestSession(t, "20", time.Minute)

	done := make(chan error, 1)
	go func() {
		_, err := gate.Withdraw(context.Background(), sess)
		done <- err
	}()
	<-ledger.entered

	_, err := claims.Claim(context.Background(), sess, testCampaignID)
	require.NoError(t, err)
	assert.True(t, sess.Wallet.Balance().Equal(dec("23")))

	close(ledger.gate)
	require.NoError(t, <-done)
	assert.True(t, sess.Wallet.Balance().Equal(dec("8")), "balance %s", sess.Wallet.Balance())
}

func TestCanWithdraw(t *testing.T) {
	gate := NewWithdrawalService(&fakeLedger{}, dec("0"), 0)
	assert.True(t, gate.Minimum().Equal(DefaultMinWithdrawal), "non-positive minimum falls back to default")
	assert.False(t, gate.CanWithdraw(dec("14.99")))
	assert.True(t, gate.CanWithdraw(dec("15")))
}
