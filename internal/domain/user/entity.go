package user

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Role represents user role in the system (matches user_role enum)
type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
)

// User represents a store account (matches users table)
type User struct {
	ID           uuid.UUID `db:"id"`
	Email        string    `db:"email"`
	PasswordHash string    `db:"password_hash"`
	DisplayName  string    `db:"display_name"`
	Role         Role      `db:"role"`

	// Referral program fields
	ReferralCode sql.NullString `db:"referral_code"`
	ReferredBy   uuid.NullUUID  `db:"referred_by"`

	// Payout details required before a withdrawal can be requested
	FullName sql.NullString `db:"full_name"`
	Phone    sql.NullString `db:"phone"`
	UpiID    sql.NullString `db:"upi_id"`

	// Withdrawal cooldown anchor
	LastWithdrawalRequest sql.NullTime `db:"last_withdrawal_request"`

	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// IsAdmin returns true if user is an admin
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// HasPaymentDetails reports whether the payout snapshot fields are all present.
func (u *User) HasPaymentDetails() bool {
	return u.FullName.Valid && u.FullName.String != "" &&
		u.Phone.Valid && u.Phone.String != "" &&
		u.UpiID.Valid && u.UpiID.String != ""
}
