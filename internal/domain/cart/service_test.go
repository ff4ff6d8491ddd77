package cart

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/innovative-archive/shop-api/internal/domain/catalog"
)

type fakeRepo struct {
	items map[uuid.UUID]map[uuid.UUID]int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{items: map[uuid.UUID]map[uuid.UUID]int{}}
}

func (f *fakeRepo) SetItem(ctx context.Context, userID, productID uuid.UUID, quantity int) error {
	if f.items[userID] == nil {
		f.items[userID] = map[uuid.UUID]int{}
	}
	f.items[userID][productID] = quantity
	return nil
}

func (f *fakeRepo) RemoveItem(ctx context.Context, userID, productID uuid.UUID) error {
	delete(f.items[userID], productID)
	return nil
}

func (f *fakeRepo) GetItems(ctx context.Context, userID uuid.UUID) ([]Item, error) {
	var out []Item
	for pid, qty := range f.items[userID] {
		out = append(out, Item{ProductID: pid, Quantity: qty})
	}
	return out, nil
}

func (f *fakeRepo) Clear(ctx context.Context, userID uuid.UUID) error {
	delete(f.items, userID)
	return nil
}

type fakeCatalog struct {
	products map[uuid.UUID]*catalog.Product
}

func (f *fakeCatalog) GetProduct(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	return f.products[id], nil
}

func (f *fakeCatalog) GetProducts(ctx context.Context, ids []uuid.UUID) ([]*catalog.Product, error) {
	var out []*catalog.Product
	for _, id := range ids {
		if p, ok := f.products[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func product(name string, price int64, stock int, active bool) *catalog.Product {
	return &catalog.Product{ID: uuid.New(), Name: name, Price: price, Stock: stock, Active: active}
}

func TestSetItemValidation(t *testing.T) {
	p := product("Herbal Tea", 250, 10, true)
	inactive := product("Old Stock", 100, 5, false)
	svc := NewService(newFakeRepo(), &fakeCatalog{products: map[uuid.UUID]*catalog.Product{p.ID: p, inactive.ID: inactive}})
	userID := uuid.New()

	if err := svc.SetItem(context.Background(), userID, p.ID, -1); !errors.Is(err, ErrInvalidQuantity) {
		t.Fatalf("expected ErrInvalidQuantity for negative, got %v", err)
	}
	if err := svc.SetItem(context.Background(), userID, p.ID, 100); !errors.Is(err, ErrInvalidQuantity) {
		t.Fatalf("expected ErrInvalidQuantity above max, got %v", err)
	}
	if err := svc.SetItem(context.Background(), userID, uuid.New(), 1); !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}
	if err := svc.SetItem(context.Background(), userID, inactive.ID, 1); !errors.Is(err, ErrProductInactive) {
		t.Fatalf("expected ErrProductInactive, got %v", err)
	}
	if err := svc.SetItem(context.Background(), userID, p.ID, 2); err != nil {
		t.Fatalf("valid set failed: %v", err)
	}
}

func TestSetItemZeroRemoves(t *testing.T) {
	p := product("Herbal Tea", 250, 10, true)
	repo := newFakeRepo()
	svc := NewService(repo, &fakeCatalog{products: map[uuid.UUID]*catalog.Product{p.ID: p}})
	userID := uuid.New()

	if err := svc.SetItem(context.Background(), userID, p.ID, 3); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if err := svc.SetItem(context.Background(), userID, p.ID, 0); err != nil {
		t.Fatalf("zero set failed: %v", err)
	}
	if len(repo.items[userID]) != 0 {
		t.Fatalf("expected empty cart, got %v", repo.items[userID])
	}
}

func TestGetPricesAgainstCurrentProducts(t *testing.T) {
	tea := product("Herbal Tea", 250, 10, true)
	rice := product("Black Rice", 300, 1, true)
	gone := product("Delisted", 100, 5, false)
	cat := &fakeCatalog{products: map[uuid.UUID]*catalog.Product{tea.ID: tea, rice.ID: rice, gone.ID: gone}}
	repo := newFakeRepo()
	svc := NewService(repo, cat)
	userID := uuid.New()

	repo.SetItem(context.Background(), userID, tea.ID, 2)
	repo.SetItem(context.Background(), userID, rice.ID, 3) // more than stock
	repo.SetItem(context.Background(), userID, gone.ID, 1)

	c, err := svc.Get(context.Background(), userID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if len(c.Lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(c.Lines))
	}

	// Lines are sorted by name; only the tea line is available.
	byName := map[string]Line{}
	for _, l := range c.Lines {
		byName[l.Name] = l
	}
	if l := byName["Herbal Tea"]; !l.InStock || l.Subtotal != 500 {
		t.Fatalf("tea line = %+v", l)
	}
	if l := byName["Black Rice"]; l.InStock || l.Subtotal != 0 {
		t.Fatalf("over-stock line = %+v", l)
	}
	if l := byName["Delisted"]; l.InStock {
		t.Fatalf("inactive line = %+v", l)
	}
	if c.Total != 500 {
		t.Fatalf("total = %d, want 500 (unavailable lines excluded)", c.Total)
	}
}

func TestGetEmptyCart(t *testing.T) {
	svc := NewService(newFakeRepo(), &fakeCatalog{products: map[uuid.UUID]*catalog.Product{}})

	c, err := svc.Get(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if len(c.Lines) != 0 || c.Total != 0 {
		t.Fatalf("expected empty cart, got %+v", c)
	}
}
