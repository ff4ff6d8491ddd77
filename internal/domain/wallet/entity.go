package wallet

import (
	"time"

	"github.com/google/uuid"
)

// TransactionType classifies balance-affecting events in the audit log.
type TransactionType string

const (
	TransactionTypeCommissionCredit TransactionType = "commission_credit"
	TransactionTypeCheckoutDebit    TransactionType = "checkout_debit"
	TransactionTypeWithdrawalDebit  TransactionType = "withdrawal_debit"
)

// Wallet is a per-user running balance with an on-hold sub-balance reserved
// for pending withdrawals. Amounts are integer currency units (rupees).
type Wallet struct {
	UserID    uuid.UUID `db:"user_id" json:"user_id"`
	Balance   int64     `db:"balance" json:"balance"`
	OnHold    int64     `db:"on_hold" json:"on_hold"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Available is the only amount eligible for new withdrawal requests.
func (w *Wallet) Available() int64 {
	available := w.Balance - w.OnHold
	if available < 0 {
		return 0
	}
	return available
}

// Transaction is one append-only audit-log entry. Entries are never updated
// or deleted; the sum of Amount over a user's entries equals their balance.
type Transaction struct {
	ID           uuid.UUID       `db:"id" json:"id"`
	UserID       uuid.UUID       `db:"user_id" json:"user_id"`
	Type         TransactionType `db:"type" json:"type"`
	Amount       int64           `db:"amount" json:"amount"` // signed
	BalanceAfter int64           `db:"balance_after" json:"balance_after"`
	Description  string          `db:"description" json:"description"`
	ReferenceID  *string         `db:"reference_id" json:"reference_id,omitempty"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
}
