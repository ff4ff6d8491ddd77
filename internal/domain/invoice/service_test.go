package invoice

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/innovative-archive/shop-api/internal/domain/order"
	"github.com/innovative-archive/shop-api/internal/domain/settings"
)

type fakeSettings struct{}

func (fakeSettings) Get(ctx context.Context) (*settings.Settings, error) {
	return &settings.Settings{GSTRate: 5, SellerStateCode: "14"}, nil
}

func sampleOrder() *order.Order {
	return &order.Order{
		ID:         uuid.New(),
		UserID:     uuid.New(),
		Status:     order.StatusCompleted,
		Subtotal:   250,
		WalletUsed: 50,
		Total:      250,
		CreatedAt:  time.Date(2026, time.March, 12, 10, 0, 0, 0, time.UTC),
		Items: []order.Item{
			{ID: uuid.New(), Name: "Herbal Tea", Price: 250, Quantity: 1},
		},
	}
}

func TestBuildIntrastate(t *testing.T) {
	svc := NewService(fakeSettings{})
	o := sampleOrder()
	o.BuyerStateCode = sql.NullString{String: "14", Valid: true}

	inv, err := svc.Build(context.Background(), o)
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}

	if inv.Interstate {
		t.Error("same state must be intrastate")
	}
	if inv.TaxableValue != 238.10 || inv.CGST != 5.95 || inv.SGST != 5.95 || inv.IGST != 0 {
		t.Errorf("tax split = %v / %v / %v / %v", inv.TaxableValue, inv.CGST, inv.SGST, inv.IGST)
	}
	if inv.AmountDue != 200 {
		t.Errorf("amount due = %d, want 200", inv.AmountDue)
	}
	if len(inv.Lines) != 1 || inv.Lines[0].Taxable != 238.10 {
		t.Errorf("lines = %+v", inv.Lines)
	}
}

func TestBuildInterstate(t *testing.T) {
	svc := NewService(fakeSettings{})
	o := sampleOrder()
	o.BuyerStateCode = sql.NullString{String: "07", Valid: true}

	inv, err := svc.Build(context.Background(), o)
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}

	if !inv.Interstate {
		t.Error("different state must be interstate")
	}
	if inv.IGST != 11.90 || inv.CGST != 0 || inv.SGST != 0 {
		t.Errorf("tax split = %v / %v / %v", inv.IGST, inv.CGST, inv.SGST)
	}
}

func TestBuildDefaultsToSellerState(t *testing.T) {
	svc := NewService(fakeSettings{})
	o := sampleOrder()

	inv, err := svc.Build(context.Background(), o)
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	if inv.Interstate || inv.BuyerState != "14" {
		t.Errorf("missing buyer state should default to intrastate, got %+v", inv)
	}
}

func TestInvoiceNumberIsStable(t *testing.T) {
	svc := NewService(fakeSettings{})
	o := sampleOrder()

	first, err := svc.Build(context.Background(), o)
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	second, err := svc.Build(context.Background(), o)
	if err != nil {
		t.Fatalf("rebuild failed: %v", err)
	}

	want := "INV-202603-" + o.ID.String()[:8]
	if first.Number != want {
		t.Errorf("invoice number = %s, want %s", first.Number, want)
	}
	if first.Number != second.Number {
		t.Errorf("rebuild changed number: %s vs %s", first.Number, second.Number)
	}
}
