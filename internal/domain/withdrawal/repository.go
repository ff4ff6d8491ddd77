package withdrawal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Repository defines withdrawal data access
type Repository interface {
	// CreateAndStamp inserts the request and updates the requester's
	// cooldown anchor in one transaction.
	CreateAndStamp(ctx context.Context, w *Withdrawal) error

	GetByID(ctx context.Context, id uuid.UUID) (*Withdrawal, error)
	HasPending(ctx context.Context, userID uuid.UUID) (bool, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Withdrawal, error)
	ListAll(ctx context.Context, status string, limit, offset int) ([]*Withdrawal, error)
	CountPending(ctx context.Context) (int, error)

	// ClaimPending moves a pending request into a terminal status. Returns
	// false when the request was not pending (already processed).
	ClaimPending(ctx context.Context, id uuid.UUID, next Status) (bool, error)

	// RevertClaim moves a just-claimed request back to pending. Used only
	// when the paired wallet mutation failed.
	RevertClaim(ctx context.Context, id uuid.UUID, from Status) error
}

type repository struct {
	db *sqlx.DB
}

// NewRepository creates withdrawal repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

const withdrawalColumns = `
	id, user_id, amount, full_name, phone, upi_id, status, requested_at, processed_at
`

func (r *repository) CreateAndStamp(ctx context.Context, w *Withdrawal) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO withdrawals (id, user_id, amount, full_name, phone, upi_id, status)
		VALUES ($1, $2, $3, $4, $5, $6, 'pending')
	`, w.ID, w.UserID, w.Amount, w.FullName, w.Phone, w.UpiID); err != nil {
		return fmt.Errorf("withdrawal repository create: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE users
		SET last_withdrawal_request = now(), updated_at = now()
		WHERE id = $1
	`, w.UserID); err != nil {
		return fmt.Errorf("withdrawal repository stamp: %w", err)
	}

	return tx.Commit()
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Withdrawal, error) {
	var w Withdrawal
	err := r.db.GetContext(ctx, &w, `SELECT `+withdrawalColumns+` FROM withdrawals WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &w, nil
}

func (r *repository) HasPending(ctx context.Context, userID uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `
		SELECT EXISTS (
			SELECT 1 FROM withdrawals WHERE user_id = $1 AND status = 'pending'
		)
	`, userID)
	return exists, err
}

func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Withdrawal, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	var items []*Withdrawal
	err := r.db.SelectContext(ctx, &items, `
		SELECT `+withdrawalColumns+`
		FROM withdrawals
		WHERE user_id = $1
		ORDER BY requested_at DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	return items, err
}

func (r *repository) ListAll(ctx context.Context, status string, limit, offset int) ([]*Withdrawal, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	query := `SELECT ` + withdrawalColumns + ` FROM withdrawals`
	args := []interface{}{}
	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, status)
	}
	query += fmt.Sprintf(` ORDER BY requested_at DESC LIMIT %d OFFSET %d`, limit, offset)

	var items []*Withdrawal
	err := r.db.SelectContext(ctx, &items, query, args...)
	return items, err
}

func (r *repository) CountPending(ctx context.Context) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM withdrawals WHERE status = 'pending'`)
	return count, err
}

// ClaimPending is the double-processing guard: the conditional update makes
// the pending -> terminal transition happen at most once.
func (r *repository) ClaimPending(ctx context.Context, id uuid.UUID, next Status) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE withdrawals
		SET status = $2, processed_at = now()
		WHERE id = $1 AND status = 'pending'
	`, id, next)
	if err != nil {
		return false, fmt.Errorf("withdrawal repository claim: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (r *repository) RevertClaim(ctx context.Context, id uuid.UUID, from Status) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE withdrawals
		SET status = 'pending', processed_at = NULL
		WHERE id = $1 AND status = $2
	`, id, from)
	if err != nil {
		return fmt.Errorf("withdrawal repository revert claim: %w", err)
	}
	return nil
}
