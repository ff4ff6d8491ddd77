package withdrawal

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Status of a withdrawal request. paid and rejected are terminal.
type Status string

const (
	StatusPending  Status = "pending"
	StatusPaid     Status = "paid"
	StatusRejected Status = "rejected"
)

// Withdrawal is a request to pay out part of a user's available balance.
// Payment details are snapshotted at request time; a later profile edit does
// not change where an approved request is paid.
type Withdrawal struct {
	ID     uuid.UUID `db:"id" json:"id"`
	UserID uuid.UUID `db:"user_id" json:"user_id"`
	Amount int64     `db:"amount" json:"amount"`

	FullName string `db:"full_name" json:"full_name"`
	Phone    string `db:"phone" json:"phone"`
	UpiID    string `db:"upi_id" json:"upi_id"`

	Status      Status       `db:"status" json:"status"`
	RequestedAt time.Time    `db:"requested_at" json:"requested_at"`
	ProcessedAt sql.NullTime `db:"processed_at" json:"processed_at,omitempty"`
}

// IsTerminal reports whether no further transitions are permitted.
func (w *Withdrawal) IsTerminal() bool {
	return w.Status == StatusPaid || w.Status == StatusRejected
}
