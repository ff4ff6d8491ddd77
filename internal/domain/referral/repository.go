package referral

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Repository defines commission record data access
type Repository interface {
	// CreateUnique inserts a commission unless one already exists for the
	// order. Returns false when the order was already processed.
	CreateUnique(ctx context.Context, c *Commission) (bool, error)

	GetByID(ctx context.Context, id uuid.UUID) (*Commission, error)
	GetByOrderID(ctx context.Context, orderID uuid.UUID) (*Commission, error)
	CountByPair(ctx context.Context, referrerID, refereeID uuid.UUID) (int, error)
	ListByReferrer(ctx context.Context, referrerID uuid.UUID, limit, offset int) ([]*Commission, error)
	ListAll(ctx context.Context, status string, limit, offset int) ([]*Commission, error)

	// MarkPaid flips a pending commission to paid. Returns false when the
	// commission was not pending.
	MarkPaid(ctx context.Context, id uuid.UUID) (bool, error)

	StatsByReferrer(ctx context.Context, referrerID uuid.UUID) (count int, total, pending int64, err error)
	CountReferredUsers(ctx context.Context, referrerID uuid.UUID) (int, error)
}

type repository struct {
	db *sqlx.DB
}

// NewRepository creates commission repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

const commissionColumns = `
	id, referrer_id, referee_id, order_id, order_total, rate, amount, status, created_at, paid_at
`

func (r *repository) CreateUnique(ctx context.Context, c *Commission) (bool, error) {
	query := `
		INSERT INTO referral_commissions (id, referrer_id, referee_id, order_id, order_total, rate, amount, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (order_id) DO NOTHING
	`
	res, err := r.db.ExecContext(ctx, query,
		c.ID, c.ReferrerID, c.RefereeID, c.OrderID, c.OrderTotal, c.Rate, c.Amount, c.Status,
	)
	if err != nil {
		return false, fmt.Errorf("commission repository create: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Commission, error) {
	var c Commission
	err := r.db.GetContext(ctx, &c, `SELECT `+commissionColumns+` FROM referral_commissions WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

func (r *repository) GetByOrderID(ctx context.Context, orderID uuid.UUID) (*Commission, error) {
	var c Commission
	err := r.db.GetContext(ctx, &c, `SELECT `+commissionColumns+` FROM referral_commissions WHERE order_id = $1`, orderID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

func (r *repository) CountByPair(ctx context.Context, referrerID, refereeID uuid.UUID) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM referral_commissions
		WHERE referrer_id = $1 AND referee_id = $2
	`, referrerID, refereeID)
	return count, err
}

func (r *repository) ListByReferrer(ctx context.Context, referrerID uuid.UUID, limit, offset int) ([]*Commission, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	var items []*Commission
	err := r.db.SelectContext(ctx, &items, `
		SELECT `+commissionColumns+`
		FROM referral_commissions
		WHERE referrer_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, referrerID, limit, offset)
	return items, err
}

func (r *repository) ListAll(ctx context.Context, status string, limit, offset int) ([]*Commission, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	query := `SELECT ` + commissionColumns + ` FROM referral_commissions`
	args := []interface{}{}
	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, status)
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT %d OFFSET %d`, limit, offset)

	var items []*Commission
	err := r.db.SelectContext(ctx, &items, query, args...)
	return items, err
}

func (r *repository) MarkPaid(ctx context.Context, id uuid.UUID) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE referral_commissions
		SET status = 'paid', paid_at = now()
		WHERE id = $1 AND status = 'pending'
	`, id)
	if err != nil {
		return false, fmt.Errorf("commission repository mark paid: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (r *repository) StatsByReferrer(ctx context.Context, referrerID uuid.UUID) (int, int64, int64, error) {
	var row struct {
		Count   int   `db:"count"`
		Total   int64 `db:"total"`
		Pending int64 `db:"pending"`
	}
	err := r.db.GetContext(ctx, &row, `
		SELECT
			COUNT(*) AS count,
			COALESCE(SUM(amount), 0) AS total,
			COALESCE(SUM(amount) FILTER (WHERE status = 'pending'), 0) AS pending
		FROM referral_commissions
		WHERE referrer_id = $1
	`, referrerID)
	if err != nil {
		return 0, 0, 0, err
	}
	return row.Count, row.Total, row.Pending, nil
}

func (r *repository) CountReferredUsers(ctx context.Context, referrerID uuid.UUID) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM users WHERE referred_by = $1`, referrerID)
	return count, err
}
