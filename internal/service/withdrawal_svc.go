package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mathieu-neron/adwatch/internal/apperr"
	"github.com/mathieu-neron/adwatch/internal/middleware"
	"github.com/mathieu-neron/adwatch/internal/model"
)

// DefaultMinWithdrawal is the smallest balance that may be withdrawn, and the amount requested.
var DefaultMinWithdrawal = decimal.NewFromInt(15)

// Messages shown to the viewer once the ledger accepts a withdrawal.
const (
	WithdrawalMessage       = "Withdrawal request submitted."
	WithdrawalResyncMessage = "Withdrawal request submitted. Your wallet balance will be reloaded."
)

// WithdrawalLedger is the remote withdrawal RPC. A nil reply or nil amount means the requested amount was taken.
type WithdrawalLedger interface {
	RequestWithdrawal(ctx context.Context, userID string) (*model.LedgerWithdrawalReply, error)
}

// WithdrawalService gates withdrawals: one in flight per user, and only above the minimum balance.
type WithdrawalService struct {
	ledger  WithdrawalLedger
	minimum decimal.Decimal
	timeout time.Duration

	mu       sync.Mutex
	inFlight map[string]struct{}
}

func NewWithdrawalService(ledger WithdrawalLedger, minimum decimal.Decimal, timeout time.Duration) *WithdrawalService {
	if !minimum.IsPositive() {
		minimum = DefaultMinWithdrawal
	}
	if timeout <= 0 {
		timeout = DefaultLedgerTimeout
	}
	return &WithdrawalService{
		ledger:   ledger,
		minimum:  minimum,
		timeout:  timeout,
		inFlight: make(map[string]struct{}),
	}
}

// Minimum returns the configured withdrawal threshold.
func (s *WithdrawalService) Minimum() decimal.Decimal {
	return s.minimum
}

// CanWithdraw reports whether balance meets the threshold.
func (s *WithdrawalService) CanWithdraw(balance decimal.Decimal) bool {
	return balance.GreaterThanOrEqual(s.minimum)
}

// Withdraw requests a withdrawal for the session's user.
//
// The balance check runs after the per-user slot is taken, against the wallet's latest balance, and fails
// without any remote call when the balance is below the minimum. On acceptance the wallet is debited by the
// amount the ledger reports, or by the minimum when it reports none. An accepted withdrawal is never
// reported as an error, even when the local debit is refused.
func (s *WithdrawalService) Withdraw(ctx context.Context, sess *Session) (*model.WithdrawalResult, error) {
	if !s.acquire(sess.UserID) {
		return nil, &apperr.ValidationError{
			Reason: "A withdrawal request is already being processed.",
			Err:    apperr.ErrWithdrawalInProgress,
		}
	}
	defer s.release(sess.UserID)

	if !s.CanWithdraw(sess.Wallet.Balance()) {
		return nil, &apperr.ValidationError{
			Reason: fmt.Sprintf("Minimum ₹%s required to withdraw.", s.minimum.String()),
			Err:    apperr.ErrInsufficientBalance,
		}
	}

	log := middleware.Logger.With().Str("user_hash", middleware.UserHash(sess.UserID)).Logger()

	callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	reply, err := s.ledger.RequestWithdrawal(callCtx, sess.UserID)
	cancel()
	if err != nil {
		err = apperr.Normalize(OpRequestWithdrawal, err)
		log.Warn().Err(err).Msg("withdrawal: request failed")
		return nil, err
	}

	amount := s.minimum
	if reply != nil && reply.Amount != nil && reply.Amount.IsPositive() {
		amount = *reply.Amount
	}

	balance, err := sess.Wallet.Apply(amount.Neg())
	if err != nil {
		// The withdrawal stands; only the local view is behind the ledger.
		log.Error().Err(err).Str("amount", amount.String()).Msg("withdrawal: accepted but local wallet out of sync")
		return &model.WithdrawalResult{Amount: amount, Balance: balance, Resync: true}, nil
	}

	log.Info().
		Str("amount", amount.String()).
		Str("balance", balance.StringFixed(2)).
		Msg("withdrawal: accepted")
	return &model.WithdrawalResult{Amount: amount, Balance: balance}, nil
}

func (s *WithdrawalService) acquire(userID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inFlight[userID]; busy {
		return false
	}
	s.inFlight[userID] = struct{}{}
	return true
}

func (s *WithdrawalService) release(userID string) {
	s.mu.Lock()
	delete(s.inFlight, userID)
	s.mu.Unlock()
}
