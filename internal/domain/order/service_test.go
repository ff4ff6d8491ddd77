package order

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/innovative-archive/shop-api/internal/domain/cart"
	"github.com/innovative-archive/shop-api/internal/domain/referral"
	"github.com/innovative-archive/shop-api/internal/domain/settings"
	"github.com/innovative-archive/shop-api/internal/domain/user"
)

type fakeRepo struct {
	byID      map[uuid.UUID]*Order
	createErr error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{byID: map[uuid.UUID]*Order{}}
}

func (f *fakeRepo) Create(ctx context.Context, o *Order) error {
	if f.createErr != nil {
		return f.createErr
	}
	cp := *o
	f.byID[o.ID] = &cp
	return nil
}

func (f *fakeRepo) GetByID(ctx context.Context, id uuid.UUID) (*Order, error) {
	o, ok := f.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *o
	return &cp, nil
}

func (f *fakeRepo) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Order, error) {
	var out []*Order
	for _, o := range f.byID {
		if o.UserID == userID {
			cp := *o
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeRepo) ListAll(ctx context.Context, status string, limit, offset int) ([]*Order, error) {
	var out []*Order
	for _, o := range f.byID {
		if status == "" || string(o.Status) == status {
			cp := *o
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeRepo) CountByStatus(ctx context.Context) (map[Status]int, error) {
	counts := map[Status]int{}
	for _, o := range f.byID {
		counts[o.Status]++
	}
	return counts, nil
}

func (f *fakeRepo) Transition(ctx context.Context, id uuid.UUID, from, to Status) (bool, error) {
	o, ok := f.byID[id]
	if !ok || o.Status != from {
		return false, nil
	}
	o.Status = to
	return true, nil
}

type fakeCartSource struct {
	cart    *cart.Cart
	cleared bool
}

func (f *fakeCartSource) Get(ctx context.Context, userID uuid.UUID) (*cart.Cart, error) {
	return f.cart, nil
}

func (f *fakeCartSource) Clear(ctx context.Context, userID uuid.UUID) error {
	f.cleared = true
	return nil
}

type fakeInventory struct {
	stock map[uuid.UUID]int
}

func (f *fakeInventory) DecrementStock(ctx context.Context, id uuid.UUID, qty int) (bool, error) {
	if f.stock[id] < qty {
		return false, nil
	}
	f.stock[id] -= qty
	return true, nil
}

func (f *fakeInventory) RestoreStock(ctx context.Context, id uuid.UUID, qty int) error {
	f.stock[id] += qty
	return nil
}

type fakeLedger struct {
	debitErr error
	debits   map[string]int64
}

func (f *fakeLedger) Debit(ctx context.Context, userID uuid.UUID, amount int64, referenceID, description string) (int64, error) {
	if f.debitErr != nil {
		return 0, f.debitErr
	}
	if f.debits == nil {
		f.debits = map[string]int64{}
	}
	f.debits[referenceID] = amount
	return 0, nil
}

type fakeSettings struct {
	cfg settings.Settings
}

func (f *fakeSettings) Get(ctx context.Context) (*settings.Settings, error) {
	cfg := f.cfg
	return &cfg, nil
}

type fakeUserDir struct{}

func (f *fakeUserDir) GetByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	return &user.User{ID: id, DisplayName: "Test Buyer"}, nil
}

type fakeCommissions struct {
	calls []referral.CompletedOrder
	err   error
}

func (f *fakeCommissions) OnOrderCompleted(ctx context.Context, o referral.CompletedOrder) error {
	f.calls = append(f.calls, o)
	return f.err
}

type fakeNotifier struct {
	statuses []string
}

func (f *fakeNotifier) OrderStatusChanged(userID, orderID uuid.UUID, status string) {
	f.statuses = append(f.statuses, status)
}

type checkoutEnv struct {
	svc         *Service
	repo        *fakeRepo
	carts       *fakeCartSource
	inventory   *fakeInventory
	ledger      *fakeLedger
	commissions *fakeCommissions
	notifier    *fakeNotifier
	productID   uuid.UUID
	userID      uuid.UUID
}

func newCheckoutEnv() *checkoutEnv {
	productID := uuid.New()
	env := &checkoutEnv{
		repo: newFakeRepo(),
		carts: &fakeCartSource{cart: &cart.Cart{
			Lines: []cart.Line{{
				ProductID: productID,
				Name:      "Herbal Tea",
				Price:     500,
				Quantity:  2,
				Subtotal:  1000,
				InStock:   true,
			}},
			Total: 1000,
		}},
		inventory:   &fakeInventory{stock: map[uuid.UUID]int{productID: 10}},
		ledger:      &fakeLedger{},
		commissions: &fakeCommissions{},
		notifier:    &fakeNotifier{},
		productID:   productID,
		userID:      uuid.New(),
	}
	cfg := settings.Settings{MaxWalletUsagePercent: 20, WhatsAppNumber: "911234567890"}
	env.svc = NewService(env.repo, env.carts, env.inventory, env.ledger, &fakeSettings{cfg: cfg}, &fakeUserDir{}, env.commissions, env.notifier)
	return env
}

func TestCheckoutCreatesPendingOrder(t *testing.T) {
	env := newCheckoutEnv()

	res, err := env.svc.Checkout(context.Background(), env.userID, CheckoutInput{WalletAmount: 200})
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}

	o := res.Order
	if o.Status != StatusPending {
		t.Fatalf("expected pending, got %s", o.Status)
	}
	if o.Subtotal != 1000 || o.WalletUsed != 200 {
		t.Fatalf("unexpected totals: subtotal %d wallet %d", o.Subtotal, o.WalletUsed)
	}
	if len(o.Items) != 1 || o.Items[0].Name != "Herbal Tea" || o.Items[0].Price != 500 {
		t.Fatalf("cart line not snapshotted: %+v", o.Items)
	}
	if env.inventory.stock[env.productID] != 8 {
		t.Fatalf("expected stock 8, got %d", env.inventory.stock[env.productID])
	}
	if got := env.ledger.debits["order:"+o.ID.String()]; got != 200 {
		t.Fatalf("expected wallet debit 200, got %d", got)
	}
	if !env.carts.cleared {
		t.Fatal("cart not cleared")
	}
	if !strings.Contains(res.WhatsAppURL, "wa.me/911234567890") {
		t.Fatalf("unexpected whatsapp url: %s", res.WhatsAppURL)
	}
}

func TestCheckoutEmptyCart(t *testing.T) {
	env := newCheckoutEnv()
	env.carts.cart = &cart.Cart{}

	if _, err := env.svc.Checkout(context.Background(), env.userID, CheckoutInput{}); !errors.Is(err, ErrEmptyCart) {
		t.Fatalf("expected ErrEmptyCart, got %v", err)
	}
}

func TestCheckoutUnavailableLine(t *testing.T) {
	env := newCheckoutEnv()
	env.carts.cart.Lines[0].InStock = false

	if _, err := env.svc.Checkout(context.Background(), env.userID, CheckoutInput{}); !errors.Is(err, ErrOutOfStock) {
		t.Fatalf("expected ErrOutOfStock, got %v", err)
	}
}

func TestCheckoutStockRace(t *testing.T) {
	env := newCheckoutEnv()
	// The priced cart said in stock, but someone bought the last units.
	env.inventory.stock[env.productID] = 1

	if _, err := env.svc.Checkout(context.Background(), env.userID, CheckoutInput{}); !errors.Is(err, ErrOutOfStock) {
		t.Fatalf("expected ErrOutOfStock, got %v", err)
	}
	if env.inventory.stock[env.productID] != 1 {
		t.Fatalf("stock not restored, got %d", env.inventory.stock[env.productID])
	}
	if env.carts.cleared {
		t.Fatal("cart must survive a failed checkout")
	}
}

func TestCheckoutWalletCap(t *testing.T) {
	env := newCheckoutEnv()

	// 20% of 1000 is 200; 201 is over the cap.
	if _, err := env.svc.Checkout(context.Background(), env.userID, CheckoutInput{WalletAmount: 201}); !errors.Is(err, ErrWalletLimit) {
		t.Fatalf("expected ErrWalletLimit, got %v", err)
	}
	if env.inventory.stock[env.productID] != 10 {
		t.Fatalf("stock touched before validation, got %d", env.inventory.stock[env.productID])
	}
}

func TestCheckoutDebitFailureCancelsOrder(t *testing.T) {
	env := newCheckoutEnv()
	env.ledger.debitErr = errors.New("insufficient available balance")

	_, err := env.svc.Checkout(context.Background(), env.userID, CheckoutInput{WalletAmount: 100})
	if err == nil {
		t.Fatal("expected checkout to fail")
	}

	if env.inventory.stock[env.productID] != 10 {
		t.Fatalf("stock not restored, got %d", env.inventory.stock[env.productID])
	}
	var cancelled int
	for _, o := range env.repo.byID {
		if o.Status == StatusCancelled {
			cancelled++
		}
	}
	if cancelled != 1 {
		t.Fatalf("expected 1 cancelled order, got %d", cancelled)
	}
	if env.carts.cleared {
		t.Fatal("cart must survive a failed checkout")
	}
}

func TestGetEnforcesOwnership(t *testing.T) {
	env := newCheckoutEnv()
	res, err := env.svc.Checkout(context.Background(), env.userID, CheckoutInput{})
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}

	if _, err := env.svc.Get(context.Background(), res.Order.ID, uuid.New(), false); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound for stranger, got %v", err)
	}
	if _, err := env.svc.Get(context.Background(), res.Order.ID, uuid.New(), true); err != nil {
		t.Fatalf("admin read failed: %v", err)
	}
	if _, err := env.svc.Get(context.Background(), res.Order.ID, env.userID, false); err != nil {
		t.Fatalf("owner read failed: %v", err)
	}
}

func TestAllowedTransitions(t *testing.T) {
	cases := []struct {
		from, to Status
		want     bool
	}{
		{StatusPending, StatusProcessing, true},
		{StatusPending, StatusShipped, true},
		{StatusPending, StatusCompleted, true},
		{StatusProcessing, StatusShipped, true},
		{StatusShipped, StatusCompleted, true},
		{StatusPending, StatusCancelled, true},
		{StatusShipped, StatusCancelled, true},
		{StatusProcessing, StatusPending, false},
		{StatusShipped, StatusProcessing, false},
		{StatusCompleted, StatusCancelled, false},
		{StatusCancelled, StatusPending, false},
		{StatusCompleted, StatusShipped, false},
		{StatusPending, StatusPending, false},
	}
	for _, tc := range cases {
		if got := allowedTransition(tc.from, tc.to); got != tc.want {
			t.Errorf("allowedTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestUpdateStatusCompletedTriggersCommission(t *testing.T) {
	env := newCheckoutEnv()
	res, err := env.svc.Checkout(context.Background(), env.userID, CheckoutInput{ReferralCode: "ABC123"})
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}
	id := res.Order.ID

	if _, err := env.svc.UpdateStatus(context.Background(), id, StatusProcessing); err != nil {
		t.Fatalf("to processing failed: %v", err)
	}
	if _, err := env.svc.UpdateStatus(context.Background(), id, StatusCompleted); err != nil {
		t.Fatalf("to completed failed: %v", err)
	}

	if len(env.commissions.calls) != 1 {
		t.Fatalf("expected 1 commission call, got %d", len(env.commissions.calls))
	}
	call := env.commissions.calls[0]
	if call.ID != id || call.ReferralCode != "ABC123" || call.Total != 1000 {
		t.Fatalf("unexpected commission payload: %+v", call)
	}
	if len(env.notifier.statuses) != 2 || env.notifier.statuses[1] != "completed" {
		t.Fatalf("unexpected notifications: %v", env.notifier.statuses)
	}
}

func TestUpdateStatusCommissionFailureDoesNotRevert(t *testing.T) {
	env := newCheckoutEnv()
	env.commissions.err = errors.New("commission store down")

	res, err := env.svc.Checkout(context.Background(), env.userID, CheckoutInput{})
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}

	o, err := env.svc.UpdateStatus(context.Background(), res.Order.ID, StatusCompleted)
	if err != nil {
		t.Fatalf("expected status change to stand, got %v", err)
	}
	if o.Status != StatusCompleted {
		t.Fatalf("expected completed, got %s", o.Status)
	}
}

func TestUpdateStatusTerminalFrozen(t *testing.T) {
	env := newCheckoutEnv()
	res, err := env.svc.Checkout(context.Background(), env.userID, CheckoutInput{})
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}
	id := res.Order.ID

	if _, err := env.svc.UpdateStatus(context.Background(), id, StatusCancelled); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if _, err := env.svc.UpdateStatus(context.Background(), id, StatusProcessing); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition from cancelled, got %v", err)
	}
}

func TestRetryCommissionAfterFailure(t *testing.T) {
	env := newCheckoutEnv()
	env.commissions.err = errors.New("commission store down")

	res, err := env.svc.Checkout(context.Background(), env.userID, CheckoutInput{ReferralCode: "ABC123"})
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}
	if _, err := env.svc.UpdateStatus(context.Background(), res.Order.ID, StatusCompleted); err != nil {
		t.Fatalf("to completed failed: %v", err)
	}

	env.commissions.err = nil
	if err := env.svc.RetryCommission(context.Background(), res.Order.ID); err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if len(env.commissions.calls) != 2 {
		t.Fatalf("commission calls = %d, want 2", len(env.commissions.calls))
	}
	last := env.commissions.calls[1]
	if last.ID != res.Order.ID || last.ReferralCode != "ABC123" {
		t.Fatalf("unexpected re-drive payload: %+v", last)
	}
}

func TestRetryCommissionRequiresCompletedOrder(t *testing.T) {
	env := newCheckoutEnv()

	res, err := env.svc.Checkout(context.Background(), env.userID, CheckoutInput{})
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}

	if err := env.svc.RetryCommission(context.Background(), res.Order.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition for pending order, got %v", err)
	}
	if err := env.svc.RetryCommission(context.Background(), uuid.New()); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
	if len(env.commissions.calls) != 0 {
		t.Fatalf("commission calls = %d, want 0", len(env.commissions.calls))
	}
}
