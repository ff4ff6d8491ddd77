package cart

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/innovative-archive/shop-api/internal/domain/catalog"
)

const maxQuantityPerItem = 99

// ProductCatalog is the slice of the catalog the cart needs.
type ProductCatalog interface {
	GetProducts(ctx context.Context, ids []uuid.UUID) ([]*catalog.Product, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*catalog.Product, error)
}

// Service handles cart business logic
type Service struct {
	repo    Repository
	catalog ProductCatalog
}

// NewService creates cart service
func NewService(repo Repository, cat ProductCatalog) *Service {
	return &Service{repo: repo, catalog: cat}
}

// SetItem puts quantity of a product into the cart, replacing any
// previous quantity. Quantity 0 removes the line.
func (s *Service) SetItem(ctx context.Context, userID, productID uuid.UUID, quantity int) error {
	if quantity < 0 || quantity > maxQuantityPerItem {
		return ErrInvalidQuantity
	}
	if quantity == 0 {
		return s.repo.RemoveItem(ctx, userID, productID)
	}

	p, err := s.catalog.GetProduct(ctx, productID)
	if err != nil {
		return err
	}
	if p == nil {
		return ErrProductNotFound
	}
	if !p.Active {
		return ErrProductInactive
	}

	return s.repo.SetItem(ctx, userID, productID, quantity)
}

// RemoveItem drops a product line from the cart.
func (s *Service) RemoveItem(ctx context.Context, userID, productID uuid.UUID) error {
	return s.repo.RemoveItem(ctx, userID, productID)
}

// Clear empties the cart.
func (s *Service) Clear(ctx context.Context, userID uuid.UUID) error {
	return s.repo.Clear(ctx, userID)
}

// Get returns the cart priced against current product data. Lines whose
// product no longer exists or went inactive are shown with InStock false
// and excluded from the total.
func (s *Service) Get(ctx context.Context, userID uuid.UUID) (*Cart, error) {
	items, err := s.repo.GetItems(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return &Cart{Lines: []Line{}}, nil
	}

	ids := make([]uuid.UUID, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ProductID)
	}
	products, err := s.catalog.GetProducts(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*catalog.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	c := &Cart{Lines: make([]Line, 0, len(items))}
	for _, it := range items {
		line := Line{ProductID: it.ProductID, Quantity: it.Quantity}
		if p, ok := byID[it.ProductID]; ok {
			line.Name = p.Name
			line.Price = p.Price
			line.InStock = p.Active && p.Stock >= it.Quantity
			if len(p.ImageURLs) > 0 {
				line.ImageURL = p.ImageURLs[0]
			}
			if line.InStock {
				line.Subtotal = p.Price * int64(it.Quantity)
				c.Total += line.Subtotal
			}
		}
		c.Lines = append(c.Lines, line)
	}

	sort.Slice(c.Lines, func(i, j int) bool {
		return c.Lines[i].Name < c.Lines[j].Name
	})
	return c, nil
}
