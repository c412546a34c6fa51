package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// PresentationResponse is the API response describing what the viewer's reward overlay shows.
type PresentationResponse struct {
	State        string           `json:"state"`
	EventID      string           `json:"eventId,omitempty"`
	RewardType   RewardType       `json:"rewardType,omitempty"`
	Amount       *decimal.Decimal `json:"amount,omitempty"`
	CounterValue *decimal.Decimal `json:"counterValue,omitempty"`
	CouponCode   string           `json:"couponCode,omitempty"`
	ShownAt      *time.Time       `json:"shownAt,omitempty"`
	ExpiresAt    *time.Time       `json:"expiresAt,omitempty"`
}
