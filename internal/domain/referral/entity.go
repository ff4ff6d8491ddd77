package referral

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// CodeLength is the referral code size: 6 uppercase alphanumerics,
// roughly 2x10^9 combinations.
const CodeLength = 6

// CommissionStatus tracks whether a commission has been settled to the
// referrer outside the system (marked by an admin).
type CommissionStatus string

const (
	CommissionStatusPending CommissionStatus = "pending"
	CommissionStatusPaid    CommissionStatus = "paid"
)

// Commission is the credit owed to a referrer for a referred completed order.
// At most one exists per order (unique index on order_id).
type Commission struct {
	ID         uuid.UUID        `db:"id" json:"id"`
	ReferrerID uuid.UUID        `db:"referrer_id" json:"referrer_id"`
	RefereeID  uuid.UUID        `db:"referee_id" json:"referee_id"`
	OrderID    uuid.UUID        `db:"order_id" json:"order_id"`
	OrderTotal int64            `db:"order_total" json:"order_total"`
	Rate       float64          `db:"rate" json:"rate"` // percent at completion time
	Amount     int64            `db:"amount" json:"amount"`
	Status     CommissionStatus `db:"status" json:"status"`
	CreatedAt  time.Time        `db:"created_at" json:"created_at"`
	PaidAt     sql.NullTime     `db:"paid_at" json:"paid_at,omitempty"`
}

// Stats summarize a referrer's program standing.
type Stats struct {
	ReferralCode    string `json:"referral_code"`
	ReferredUsers   int    `json:"referred_users"`
	CommissionCount int    `json:"commission_count"`
	TotalEarned     int64  `json:"total_earned"`
	PendingAmount   int64  `json:"pending_amount"`
}
