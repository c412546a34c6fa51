package model

import "github.com/shopspring/decimal"

// RewardType is the kind of reward a successful claim produced.
type RewardType string

const (
	RewardCash   RewardType = "cash"
	RewardCoupon RewardType = "coupon"
)

// ClaimResult is a confirmed reward. Exactly one of Amount (cash) or CouponCode (coupon) is meaningful.
// Rejections are reported as errors, never as a ClaimResult.
type ClaimResult struct {
	Type       RewardType
	Amount     decimal.Decimal
	CouponCode string
}

// LedgerClaimReply is the JSON returned by the claim_reward RPC.
type LedgerClaimReply struct {
	RewardType   string           `json:"reward_type"`
	RewardAmount *decimal.Decimal `json:"reward_amount,omitempty"`
	CouponCode   *string          `json:"coupon_code,omitempty"`
}

// LedgerWithdrawalReply is the JSON returned by the request_withdrawal RPC. Amount is optional.
type LedgerWithdrawalReply struct {
	Amount *decimal.Decimal `json:"amount,omitempty"`
}

// WithdrawalResult is an accepted withdrawal. Resync is set when the ledger took more than the
// local wallet holds; Balance is then the stale local balance and the wallet must be reloaded.
type WithdrawalResult struct {
	Amount  decimal.Decimal
	Balance decimal.Decimal
	Resync  bool
}

// ClaimRequest is the API request body for claiming a reward.
type ClaimRequest struct {
	CampaignID string `json:"campaignId"`
}

// ClaimResponse is the API response after a successful claim.
type ClaimResponse struct {
	RewardType RewardType       `json:"rewardType"`
	Amount     *decimal.Decimal `json:"amount,omitempty"`
	CouponCode string           `json:"couponCode,omitempty"`
	Balance    decimal.Decimal  `json:"balance"`
}

// WithdrawalResponse is the API response after an accepted withdrawal.
type WithdrawalResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Amount  decimal.Decimal `json:"amount"`
	Balance decimal.Decimal `json:"balance"`
	// ResyncRequired tells the dashboard to reopen its session to reload the wallet.
	ResyncRequired bool `json:"resyncRequired,omitempty"`
}
