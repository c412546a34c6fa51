package model

import "github.com/shopspring/decimal"

// Profile is the viewer's stored profile. CashWallet seeds the session wallet.
type Profile struct {
	UserID     string
	Role       string
	CashWallet decimal.Decimal
}

// WalletResponse is the API response for wallet lookups.
type WalletResponse struct {
	Balance       decimal.Decimal `json:"balance"`
	MinWithdrawal decimal.Decimal `json:"minWithdrawal"`
	CanWithdraw   bool            `json:"canWithdraw"`
}
