package order

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Status is the order lifecycle state. Status changes are admin-only;
// checkout always creates orders as pending.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// IsTerminal reports whether no further transition is allowed.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Order is a purchase snapshot. Line items copy name and price at
// checkout time so later catalog edits don't rewrite history.
type Order struct {
	ID             uuid.UUID      `db:"id" json:"id"`
	UserID         uuid.UUID      `db:"user_id" json:"user_id"`
	Status         Status         `db:"status" json:"status"`
	Subtotal       int64          `db:"subtotal" json:"subtotal"`
	WalletUsed     int64          `db:"wallet_used" json:"wallet_used"`
	Total          int64          `db:"total" json:"total"`
	ReferralCode   sql.NullString `db:"referral_code" json:"-"`
	BuyerStateCode sql.NullString `db:"buyer_state_code" json:"-"`
	CreatedAt      time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at" json:"updated_at"`

	Items []Item `db:"-" json:"items"`
}

// Item is one order line.
type Item struct {
	ID        uuid.UUID `db:"id" json:"id"`
	OrderID   uuid.UUID `db:"order_id" json:"-"`
	ProductID uuid.UUID `db:"product_id" json:"product_id"`
	Name      string    `db:"name" json:"name"`
	Price     int64     `db:"price" json:"price"`
	Quantity  int       `db:"quantity" json:"quantity"`
}
