package settings

import (
	"context"
	"testing"
)

type fakeRepo struct {
	stored  *Settings
	upserts int
}

func (f *fakeRepo) Get(ctx context.Context) (*Settings, error) {
	if f.stored == nil {
		return nil, nil
	}
	cp := *f.stored
	return &cp, nil
}

func (f *fakeRepo) Upsert(ctx context.Context, s *Settings) error {
	cp := *s
	f.stored = &cp
	f.upserts++
	return nil
}

func TestDefaults(t *testing.T) {
	d := Defaults()

	if !d.CommissionEnabled {
		t.Error("commission should be enabled by default")
	}
	if d.CommissionRate != 10 {
		t.Errorf("commission rate = %v, want 10", d.CommissionRate)
	}
	if d.MaxCommissionPurchases != 1 {
		t.Errorf("max commission purchases = %d, want 1", d.MaxCommissionPurchases)
	}
	if d.MinWithdrawal != 100 {
		t.Errorf("min withdrawal = %d, want 100", d.MinWithdrawal)
	}
	if d.WithdrawalCooldownDays != 7 {
		t.Errorf("cooldown days = %d, want 7", d.WithdrawalCooldownDays)
	}
	if d.MaxWalletUsagePercent != 20 {
		t.Errorf("max wallet usage = %d, want 20", d.MaxWalletUsagePercent)
	}
	if d.GSTRate != 5 || d.SellerStateCode != "14" {
		t.Errorf("tax defaults = %v / %s", d.GSTRate, d.SellerStateCode)
	}
}

func TestGetFallsBackToDefaults(t *testing.T) {
	svc := NewService(&fakeRepo{}, nil)

	got, err := svc.Get(context.Background())
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.CommissionRate != 10 || got.MinWithdrawal != 100 {
		t.Fatalf("expected defaults, got %+v", got)
	}
}

func TestGetReturnsStoredRow(t *testing.T) {
	repo := &fakeRepo{stored: &Settings{ID: "app", CommissionRate: 12.5, MinWithdrawal: 250}}
	svc := NewService(repo, nil)

	got, err := svc.Get(context.Background())
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.CommissionRate != 12.5 || got.MinWithdrawal != 250 {
		t.Fatalf("expected stored row, got %+v", got)
	}
}

func TestUpdatePersistsSingleton(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewService(repo, nil)

	next := Defaults()
	next.ID = "something-else"
	next.CommissionRate = 15

	got, err := svc.Update(context.Background(), next)
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if repo.upserts != 1 {
		t.Fatalf("upserts = %d, want 1", repo.upserts)
	}
	if repo.stored.ID != "app" {
		t.Fatalf("singleton id = %q, want app", repo.stored.ID)
	}
	if got.CommissionRate != 15 {
		t.Fatalf("commission rate = %v, want 15", got.CommissionRate)
	}
}
