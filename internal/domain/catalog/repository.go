package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// Repository defines catalog data access
type Repository interface {
	// Products
	CreateProduct(ctx context.Context, p *Product) error
	GetProduct(ctx context.Context, id uuid.UUID) (*Product, error)
	GetProducts(ctx context.Context, ids []uuid.UUID) ([]*Product, error)
	ListProducts(ctx context.Context, f ProductFilter) ([]*Product, error)
	UpdateProduct(ctx context.Context, p *Product) error
	DeleteProduct(ctx context.Context, id uuid.UUID) error

	// DecrementStock reduces stock if enough is left. Returns false when
	// the product had less than qty in stock.
	DecrementStock(ctx context.Context, id uuid.UUID, qty int) (bool, error)

	// RestoreStock puts stock back after a failed checkout.
	RestoreStock(ctx context.Context, id uuid.UUID, qty int) error

	// Categories
	CreateCategory(ctx context.Context, c *Category) error
	ListCategories(ctx context.Context) ([]*Category, error)
	GetCategory(ctx context.Context, id uuid.UUID) (*Category, error)
	UpdateCategory(ctx context.Context, c *Category) error
	DeleteCategory(ctx context.Context, id uuid.UUID) error
}

// ProductFilter narrows product listings.
type ProductFilter struct {
	CategoryID *uuid.UUID
	ActiveOnly bool
	Search     string
	Limit      int
	Offset     int
}

type repository struct {
	db *sqlx.DB
}

// NewRepository creates catalog repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

const productColumns = `
	id, category_id, name, description, price, stock, active, image_urls, created_at, updated_at
`

func (r *repository) CreateProduct(ctx context.Context, p *Product) error {
	query := `
		INSERT INTO products (id, category_id, name, description, price, stock, active, image_urls)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.ExecContext(ctx, query,
		p.ID, p.CategoryID, p.Name, p.Description, p.Price, p.Stock, p.Active, p.ImageURLs,
	)
	if err != nil {
		return fmt.Errorf("catalog repository create product: %w", err)
	}
	return nil
}

func (r *repository) GetProduct(ctx context.Context, id uuid.UUID) (*Product, error) {
	var p Product
	err := r.db.GetContext(ctx, &p, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *repository) GetProducts(ctx context.Context, ids []uuid.UUID) ([]*Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var items []*Product
	err := r.db.SelectContext(ctx, &items,
		`SELECT `+productColumns+` FROM products WHERE id = ANY($1)`,
		pq.Array(ids),
	)
	return items, err
}

func (r *repository) ListProducts(ctx context.Context, f ProductFilter) ([]*Product, error) {
	if f.Limit <= 0 || f.Limit > 100 {
		f.Limit = 50
	}

	query := `SELECT ` + productColumns + ` FROM products WHERE 1=1`
	args := []interface{}{}
	idx := 1

	if f.ActiveOnly {
		query += ` AND active = true`
	}
	if f.CategoryID != nil {
		query += fmt.Sprintf(` AND category_id = $%d`, idx)
		args = append(args, *f.CategoryID)
		idx++
	}
	if f.Search != "" {
		query += fmt.Sprintf(` AND name ILIKE $%d`, idx)
		args = append(args, "%"+f.Search+"%")
		idx++
	}

	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT %d OFFSET %d`, f.Limit, f.Offset)

	var items []*Product
	err := r.db.SelectContext(ctx, &items, query, args...)
	return items, err
}

func (r *repository) UpdateProduct(ctx context.Context, p *Product) error {
	query := `
		UPDATE products
		SET category_id = $2, name = $3, description = $4, price = $5,
		    stock = $6, active = $7, image_urls = $8, updated_at = now()
		WHERE id = $1
	`
	res, err := r.db.ExecContext(ctx, query,
		p.ID, p.CategoryID, p.Name, p.Description, p.Price, p.Stock, p.Active, p.ImageURLs,
	)
	if err != nil {
		return fmt.Errorf("catalog repository update product: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (r *repository) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("catalog repository delete product: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (r *repository) DecrementStock(ctx context.Context, id uuid.UUID, qty int) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE products
		SET stock = stock - $2, updated_at = now()
		WHERE id = $1 AND stock >= $2
	`, id, qty)
	if err != nil {
		return false, fmt.Errorf("catalog repository decrement stock: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (r *repository) RestoreStock(ctx context.Context, id uuid.UUID, qty int) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE products
		SET stock = stock + $2, updated_at = now()
		WHERE id = $1
	`, id, qty)
	if err != nil {
		return fmt.Errorf("catalog repository restore stock: %w", err)
	}
	return nil
}

func (r *repository) CreateCategory(ctx context.Context, c *Category) error {
	query := `
		INSERT INTO categories (id, name, slug, sort_order)
		VALUES ($1, $2, $3, $4)
	`
	_, err := r.db.ExecContext(ctx, query, c.ID, c.Name, c.Slug, c.SortOrder)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrSlugTaken
		}
		return fmt.Errorf("catalog repository create category: %w", err)
	}
	return nil
}

func (r *repository) ListCategories(ctx context.Context) ([]*Category, error) {
	var items []*Category
	err := r.db.SelectContext(ctx, &items, `
		SELECT id, name, slug, sort_order, created_at
		FROM categories
		ORDER BY sort_order, name
	`)
	return items, err
}

func (r *repository) GetCategory(ctx context.Context, id uuid.UUID) (*Category, error) {
	var c Category
	err := r.db.GetContext(ctx, &c, `
		SELECT id, name, slug, sort_order, created_at
		FROM categories WHERE id = $1
	`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

func (r *repository) UpdateCategory(ctx context.Context, c *Category) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE categories SET name = $2, slug = $3, sort_order = $4 WHERE id = $1
	`, c.ID, c.Name, c.Slug, c.SortOrder)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrSlugTaken
		}
		return fmt.Errorf("catalog repository update category: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrCategoryNotFound
	}
	return nil
}

func (r *repository) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("catalog repository delete category: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrCategoryNotFound
	}
	return nil
}
