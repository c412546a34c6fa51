package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mathieu-neron/adwatch/internal/apperr"
	"github.com/mathieu-neron/adwatch/internal/middleware"
	"github.com/mathieu-neron/adwatch/internal/model"
)

const (
	OpClaimReward       = "claim_reward"
	OpRequestWithdrawal = "request_withdrawal"
)

// DefaultLedgerTimeout bounds a single ledger RPC.
const DefaultLedgerTimeout = 10 * time.Second

// RewardLedger is the remote ledger's claim RPC. The ledger decides eligibility and duplicates.
type RewardLedger interface {
	ClaimReward(ctx context.Context, userID, campaignID string) (*model.LedgerClaimReply, error)
}

// LedgerService claims rewards against the remote ledger and applies confirmed cash to the session wallet.
type LedgerService struct {
	ledger  RewardLedger
	timeout time.Duration
}

func NewLedgerService(ledger RewardLedger, timeout time.Duration) *LedgerService {
	if timeout <= 0 {
		timeout = DefaultLedgerTimeout
	}
	return &LedgerService{ledger: ledger, timeout: timeout}
}

// Claim redeems the campaign reward for the session's user. The call is made exactly once.
//
// Cash is added to the wallet before Claim returns, then handed to the presenter. Coupons only reach the
// presenter. Any error leaves the wallet untouched and is one of apperr's RemoteRejection or TransportError.
func (s *LedgerService) Claim(ctx context.Context, sess *Session, campaignID string) (*model.ClaimResult, error) {
	// Once issued, the call is not cancelled with the request: a confirmed reward must still be applied.
	callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	reply, err := s.ledger.ClaimReward(callCtx, sess.UserID, campaignID)
	cancel()

	log := middleware.Logger.With().
		Str("user_hash", middleware.UserHash(sess.UserID)).
		Str("campaign_id", campaignID).
		Logger()

	if err != nil {
		err = apperr.Normalize(OpClaimReward, err)
		log.Warn().Err(err).Msg("ledger: claim failed")
		return nil, err
	}

	result, err := parseClaimReply(reply)
	if err != nil {
		log.Error().Err(err).Msg("ledger: claim reply rejected")
		return nil, err
	}

	switch result.Type {
	case model.RewardCash:
		balance, err := sess.Wallet.Apply(result.Amount)
		if err != nil {
			return nil, fmt.Errorf("apply reward: %w", err)
		}
		log.Info().
			Str("amount", result.Amount.String()).
			Str("balance", balance.StringFixed(2)).
			Msg("ledger: cash reward applied")
	case model.RewardCoupon:
		log.Info().Msg("ledger: coupon reward issued")
	}

	sess.Presenter.Publish(*result)
	return result, nil
}

// parseClaimReply turns the RPC reply into a ClaimResult. A reply that does not describe a valid cash
// or coupon reward leaves the outcome unknown, so it is reported as a transport error.
func parseClaimReply(reply *model.LedgerClaimReply) (*model.ClaimResult, error) {
	malformed := func(detail string) error {
		return &apperr.TransportError{Op: OpClaimReward, Err: fmt.Errorf("%w: %s", apperr.ErrMalformedReply, detail)}
	}
	if reply == nil {
		return nil, malformed("empty reply")
	}

	switch model.RewardType(strings.ToLower(strings.TrimSpace(reply.RewardType))) {
	case model.RewardCash:
		if reply.RewardAmount == nil || !reply.RewardAmount.IsPositive() {
			return nil, malformed("cash reward without a positive amount")
		}
		return &model.ClaimResult{Type: model.RewardCash, Amount: *reply.RewardAmount}, nil
	case model.RewardCoupon:
		if reply.CouponCode == nil || strings.TrimSpace(*reply.CouponCode) == "" {
			return nil, malformed("coupon reward without a code")
		}
		return &model.ClaimResult{Type: model.RewardCoupon, CouponCode: strings.TrimSpace(*reply.CouponCode)}, nil
	default:
		return nil, malformed(fmt.Sprintf("unknown reward_type %q", reply.RewardType))
	}
}
