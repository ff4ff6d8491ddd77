package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Repository defines order data access
type Repository interface {
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*Order, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Order, error)
	ListAll(ctx context.Context, status string, limit, offset int) ([]*Order, error)
	CountByStatus(ctx context.Context) (map[Status]int, error)

	// Transition moves the order from one exact status to another.
	// Returns false when the order was not in the expected status.
	Transition(ctx context.Context, id uuid.UUID, from, to Status) (bool, error)
}

type repository struct {
	db *sqlx.DB
}

// NewRepository creates order repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

const orderColumns = `
	id, user_id, status, subtotal, wallet_used, total, referral_code, buyer_state_code, created_at, updated_at
`

func (r *repository) Create(ctx context.Context, o *Order) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("order repository begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (id, user_id, status, subtotal, wallet_used, total, referral_code, buyer_state_code)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, o.ID, o.UserID, o.Status, o.Subtotal, o.WalletUsed, o.Total, o.ReferralCode, o.BuyerStateCode)
	if err != nil {
		return fmt.Errorf("order repository insert order: %w", err)
	}

	for i := range o.Items {
		it := &o.Items[i]
		it.OrderID = o.ID
		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_items (id, order_id, product_id, name, price, quantity)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, it.ID, it.OrderID, it.ProductID, it.Name, it.Price, it.Quantity)
		if err != nil {
			return fmt.Errorf("order repository insert item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("order repository commit: %w", err)
	}
	return nil
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Order, error) {
	var o Order
	err := r.db.GetContext(ctx, &o, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if err := r.loadItems(ctx, []*Order{&o}); err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Order, error) {
	limit, offset = clampPage(limit, offset)
	var orders []*Order
	err := r.db.SelectContext(ctx, &orders, `
		SELECT `+orderColumns+` FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	if err := r.loadItems(ctx, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *repository) ListAll(ctx context.Context, status string, limit, offset int) ([]*Order, error) {
	limit, offset = clampPage(limit, offset)

	query := `SELECT ` + orderColumns + ` FROM orders`
	args := []interface{}{}
	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, status)
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT %d OFFSET %d`, limit, offset)

	var orders []*Order
	err := r.db.SelectContext(ctx, &orders, query, args...)
	if err != nil {
		return nil, err
	}
	if err := r.loadItems(ctx, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *repository) CountByStatus(ctx context.Context) (map[Status]int, error) {
	rows := []struct {
		Status Status `db:"status"`
		Count  int    `db:"count"`
	}{}
	err := r.db.SelectContext(ctx, &rows, `
		SELECT status, COUNT(*) AS count FROM orders GROUP BY status
	`)
	if err != nil {
		return nil, err
	}
	out := make(map[Status]int, len(rows))
	for _, row := range rows {
		out[row.Status] = row.Count
	}
	return out, nil
}

func (r *repository) Transition(ctx context.Context, id uuid.UUID, from, to Status) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE orders SET status = $3, updated_at = now()
		WHERE id = $1 AND status = $2
	`, id, from, to)
	if err != nil {
		return false, fmt.Errorf("order repository transition: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (r *repository) loadItems(ctx context.Context, orders []*Order) error {
	if len(orders) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, 0, len(orders))
	byID := make(map[uuid.UUID]*Order, len(orders))
	for _, o := range orders {
		ids = append(ids, o.ID)
		byID[o.ID] = o
		o.Items = []Item{}
	}

	var items []Item
	query, args, err := sqlx.In(`
		SELECT id, order_id, product_id, name, price, quantity
		FROM order_items WHERE order_id IN (?)
	`, ids)
	if err != nil {
		return err
	}
	query = r.db.Rebind(query)
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return err
	}

	for _, it := range items {
		if o, ok := byID[it.OrderID]; ok {
			o.Items = append(o.Items, it)
		}
	}
	return nil
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
