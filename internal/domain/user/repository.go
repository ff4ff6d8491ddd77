package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// Repository defines user data access interface
type Repository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByReferralCode(ctx context.Context, code string) (*User, error)

	UpdatePaymentDetails(ctx context.Context, id uuid.UUID, fullName, phone, upiID string) error

	// SetReferralCode persists a freshly generated code. Returns
	// ErrReferralCodeTaken when another user already holds the code.
	SetReferralCode(ctx context.Context, id uuid.UUID, code string) error

	// SetReferredBy sets referred_by only when it is still NULL
	// (first-referrer-wins). Returns true when the column was written.
	SetReferredBy(ctx context.Context, id uuid.UUID, referrerID uuid.UUID) (bool, error)
}

// ErrReferralCodeTaken signals a referral code uniqueness collision.
var ErrReferralCodeTaken = errors.New("referral code already taken")

const userColumns = `
	id, email, password_hash, display_name, role,
	referral_code, referred_by,
	full_name, phone, upi_id,
	last_withdrawal_request,
	created_at, updated_at
`

// repository implements Repository
type repository struct {
	db *sqlx.DB
}

// NewRepository creates new user repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

// Create creates a new user
func (r *repository) Create(ctx context.Context, user *User) error {
	query := `
		INSERT INTO users (id, email, password_hash, display_name, role)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.db.ExecContext(ctx, query,
		user.ID,
		user.Email,
		user.PasswordHash,
		user.DisplayName,
		user.Role,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrEmailAlreadyExists
		}
		return fmt.Errorf("user repository create: %w", err)
	}

	return nil
}

// GetByID returns user by ID
func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	var user User
	err := r.db.GetContext(ctx, &user, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return &user, nil
}

// GetByEmail returns user by email
func (r *repository) GetByEmail(ctx context.Context, email string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	var user User
	err := r.db.GetContext(ctx, &user, query, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return &user, nil
}

// GetByReferralCode returns the user owning a referral code.
// The match is exact and case-sensitive.
func (r *repository) GetByReferralCode(ctx context.Context, code string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE referral_code = $1`

	var user User
	err := r.db.GetContext(ctx, &user, query, code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return &user, nil
}

// UpdatePaymentDetails updates the payout snapshot fields
func (r *repository) UpdatePaymentDetails(ctx context.Context, id uuid.UUID, fullName, phone, upiID string) error {
	query := `
		UPDATE users
		SET full_name = $2, phone = $3, upi_id = $4, updated_at = now()
		WHERE id = $1
	`
	res, err := r.db.ExecContext(ctx, query, id, fullName, phone, upiID)
	if err != nil {
		return fmt.Errorf("user repository update payment details: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrUserNotFound
	}
	return nil
}

// SetReferralCode persists a generated referral code, relying on the unique
// index on users.referral_code for collision detection.
func (r *repository) SetReferralCode(ctx context.Context, id uuid.UUID, code string) error {
	query := `
		UPDATE users
		SET referral_code = $2, updated_at = now()
		WHERE id = $1 AND referral_code IS NULL
	`
	_, err := r.db.ExecContext(ctx, query, id, code)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrReferralCodeTaken
		}
		return fmt.Errorf("user repository set referral code: %w", err)
	}
	return nil
}

// SetReferredBy writes referred_by only if it is unset. RowsAffected tells
// the caller whether this attach won the first-referrer race.
func (r *repository) SetReferredBy(ctx context.Context, id uuid.UUID, referrerID uuid.UUID) (bool, error) {
	query := `
		UPDATE users
		SET referred_by = $2, updated_at = now()
		WHERE id = $1 AND referred_by IS NULL
	`
	res, err := r.db.ExecContext(ctx, query, id, referrerID)
	if err != nil {
		return false, fmt.Errorf("user repository set referred_by: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}
