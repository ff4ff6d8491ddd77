package settings

import "time"

// Settings is the singleton store configuration row (settings table, id='app').
// Ledger operations receive it as a value read once per operation.
type Settings struct {
	ID string `db:"id" json:"-"`

	// Referral commission program
	CommissionEnabled bool    `db:"commission_enabled" json:"commission_enabled"`
	CommissionRate    float64 `db:"commission_rate" json:"commission_rate"` // percent, 0-100
	// MaxCommissionPurchases caps how many of a referee's orders earn
	// commission for the same referrer. 0 = unlimited.
	MaxCommissionPurchases int `db:"max_commission_purchases" json:"max_commission_purchases"`

	// Withdrawals
	MinWithdrawal          int64 `db:"min_withdrawal" json:"min_withdrawal"`
	WithdrawalCooldownDays int   `db:"withdrawal_cooldown_days" json:"withdrawal_cooldown_days"`

	// Checkout
	MaxWalletUsagePercent int `db:"max_wallet_usage_percent" json:"max_wallet_usage_percent"` // 0-100

	// Tax & messaging
	GSTRate         float64 `db:"gst_rate" json:"gst_rate"`
	SellerStateCode string  `db:"seller_state_code" json:"seller_state_code"`
	WhatsAppNumber  string  `db:"whatsapp_number" json:"whatsapp_number"`

	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Defaults returns the settings used when the row has never been written.
func Defaults() *Settings {
	return &Settings{
		ID:                     "app",
		CommissionEnabled:      true,
		CommissionRate:         10,
		MaxCommissionPurchases: 1,
		MinWithdrawal:          100,
		WithdrawalCooldownDays: 7,
		MaxWalletUsagePercent:  20,
		GSTRate:                5,
		SellerStateCode:        "14",
	}
}
