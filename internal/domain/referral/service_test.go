package referral

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/innovative-archive/shop-api/internal/domain/settings"
	"github.com/innovative-archive/shop-api/internal/domain/user"
	"github.com/innovative-archive/shop-api/internal/domain/wallet"
)

type fakeCommissionRepo struct {
	byOrder map[uuid.UUID]*Commission
	pairs   map[string]int
}

func newFakeCommissionRepo() *fakeCommissionRepo {
	return &fakeCommissionRepo{
		byOrder: make(map[uuid.UUID]*Commission),
		pairs:   make(map[string]int),
	}
}

func pairKey(referrerID, refereeID uuid.UUID) string {
	return referrerID.String() + ":" + refereeID.String()
}

func (f *fakeCommissionRepo) CreateUnique(ctx context.Context, c *Commission) (bool, error) {
	if _, exists := f.byOrder[c.OrderID]; exists {
		return false, nil
	}
	f.byOrder[c.OrderID] = c
	f.pairs[pairKey(c.ReferrerID, c.RefereeID)]++
	return true, nil
}

func (f *fakeCommissionRepo) GetByID(ctx context.Context, id uuid.UUID) (*Commission, error) {
	for _, c := range f.byOrder {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, nil
}

func (f *fakeCommissionRepo) GetByOrderID(ctx context.Context, orderID uuid.UUID) (*Commission, error) {
	return f.byOrder[orderID], nil
}

func (f *fakeCommissionRepo) CountByPair(ctx context.Context, referrerID, refereeID uuid.UUID) (int, error) {
	return f.pairs[pairKey(referrerID, refereeID)], nil
}

func (f *fakeCommissionRepo) ListByReferrer(ctx context.Context, referrerID uuid.UUID, limit, offset int) ([]*Commission, error) {
	var out []*Commission
	for _, c := range f.byOrder {
		if c.ReferrerID == referrerID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeCommissionRepo) ListAll(ctx context.Context, status string, limit, offset int) ([]*Commission, error) {
	var out []*Commission
	for _, c := range f.byOrder {
		if status == "" || string(c.Status) == status {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeCommissionRepo) MarkPaid(ctx context.Context, id uuid.UUID) (bool, error) {
	for _, c := range f.byOrder {
		if c.ID == id && c.Status == CommissionStatusPending {
			c.Status = CommissionStatusPaid
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeCommissionRepo) StatsByReferrer(ctx context.Context, referrerID uuid.UUID) (int, int64, int64, error) {
	var count int
	var total, pending int64
	for _, c := range f.byOrder {
		if c.ReferrerID != referrerID {
			continue
		}
		count++
		total += c.Amount
		if c.Status == CommissionStatusPending {
			pending += c.Amount
		}
	}
	return count, total, pending, nil
}

func (f *fakeCommissionRepo) CountReferredUsers(ctx context.Context, referrerID uuid.UUID) (int, error) {
	return 0, nil
}

type fakeUserDir struct {
	users      map[uuid.UUID]*user.User
	byCode     map[string]*user.User
	takenCodes map[string]bool
	// allCodesTaken makes every SetReferralCode attempt collide.
	allCodesTaken bool
}

func newFakeUserDir() *fakeUserDir {
	return &fakeUserDir{
		users:      make(map[uuid.UUID]*user.User),
		byCode:     make(map[string]*user.User),
		takenCodes: make(map[string]bool),
	}
}

func (f *fakeUserDir) add(u *user.User) {
	f.users[u.ID] = u
	if u.ReferralCode.Valid {
		f.byCode[u.ReferralCode.String] = u
		f.takenCodes[u.ReferralCode.String] = true
	}
}

func (f *fakeUserDir) GetByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	return f.users[id], nil
}

func (f *fakeUserDir) GetByReferralCode(ctx context.Context, code string) (*user.User, error) {
	return f.byCode[code], nil
}

func (f *fakeUserDir) SetReferralCode(ctx context.Context, id uuid.UUID, code string) error {
	if f.allCodesTaken || f.takenCodes[code] {
		return user.ErrReferralCodeTaken
	}
	u := f.users[id]
	if u == nil {
		return user.ErrUserNotFound
	}
	if u.ReferralCode.Valid {
		return nil
	}
	u.ReferralCode = sql.NullString{String: code, Valid: true}
	f.byCode[code] = u
	f.takenCodes[code] = true
	return nil
}

func (f *fakeUserDir) SetReferredBy(ctx context.Context, id uuid.UUID, referrerID uuid.UUID) (bool, error) {
	u := f.users[id]
	if u == nil || u.ReferredBy.Valid {
		return false, nil
	}
	u.ReferredBy = uuid.NullUUID{UUID: referrerID, Valid: true}
	return true, nil
}

type fakeLedger struct {
	credits map[string]int64
	// failures makes the next N Credit calls fail before recording.
	failures int
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{credits: make(map[string]int64)}
}

func (f *fakeLedger) Credit(ctx context.Context, userID uuid.UUID, amount int64, txType wallet.TransactionType, referenceID, description string) (int64, error) {
	if f.failures > 0 {
		f.failures--
		return 0, errors.New("ledger unavailable")
	}
	// Idempotent by reference, like the real ledger.
	if prior, exists := f.credits[referenceID]; exists {
		return prior, nil
	}
	f.credits[referenceID] = amount
	return amount, nil
}

type fakeSettings struct {
	cfg settings.Settings
}

func (f *fakeSettings) Get(ctx context.Context) (*settings.Settings, error) {
	c := f.cfg
	return &c, nil
}

func defaultTestSettings() *fakeSettings {
	return &fakeSettings{cfg: settings.Settings{
		CommissionEnabled:      true,
		CommissionRate:         10,
		MaxCommissionPurchases: 0,
	}}
}

func newTestService(repo Repository, users *fakeUserDir, ledger *fakeLedger, cfg *fakeSettings) *Service {
	return NewService(repo, users, ledger, cfg)
}

func referrerWithCode(code string) *user.User {
	return &user.User{
		ID:           uuid.New(),
		ReferralCode: sql.NullString{String: code, Valid: true},
	}
}

func TestOnOrderCompletedCreditsReferrer(t *testing.T) {
	repo := newFakeCommissionRepo()
	users := newFakeUserDir()
	ledger := newFakeLedger()

	referrer := referrerWithCode("ABC123")
	users.add(referrer)
	buyer := &user.User{ID: uuid.New()}
	users.add(buyer)

	svc := newTestService(repo, users, ledger, defaultTestSettings())

	orderID := uuid.New()
	err := svc.OnOrderCompleted(context.Background(), CompletedOrder{
		ID:           orderID,
		UserID:       buyer.ID,
		Total:        1000,
		ReferralCode: "ABC123",
	})
	if err != nil {
		t.Fatalf("OnOrderCompleted: %v", err)
	}

	c := repo.byOrder[orderID]
	if c == nil {
		t.Fatal("expected commission record")
	}
	if c.Amount != 100 {
		t.Errorf("amount = %d, want 100", c.Amount)
	}
	if c.ReferrerID != referrer.ID {
		t.Errorf("referrer = %s, want %s", c.ReferrerID, referrer.ID)
	}
	if c.Status != CommissionStatusPending {
		t.Errorf("status = %s, want pending", c.Status)
	}

	ref := "commission:" + orderID.String()
	if ledger.credits[ref] != 100 {
		t.Errorf("wallet credit = %d, want 100", ledger.credits[ref])
	}
}

func TestOnOrderCompletedIdempotent(t *testing.T) {
	repo := newFakeCommissionRepo()
	users := newFakeUserDir()
	ledger := newFakeLedger()

	referrer := referrerWithCode("ABC123")
	users.add(referrer)
	buyer := &user.User{ID: uuid.New()}
	users.add(buyer)

	svc := newTestService(repo, users, ledger, defaultTestSettings())

	order := CompletedOrder{ID: uuid.New(), UserID: buyer.ID, Total: 1000, ReferralCode: "ABC123"}
	for i := 0; i < 3; i++ {
		if err := svc.OnOrderCompleted(context.Background(), order); err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
	}

	if len(repo.byOrder) != 1 {
		t.Errorf("commissions = %d, want 1", len(repo.byOrder))
	}
	if len(ledger.credits) != 1 {
		t.Errorf("credits = %d, want 1", len(ledger.credits))
	}
}

func TestOnOrderCompletedSkipsSelfReferral(t *testing.T) {
	repo := newFakeCommissionRepo()
	users := newFakeUserDir()
	ledger := newFakeLedger()

	buyer := referrerWithCode("SELF01")
	users.add(buyer)

	svc := newTestService(repo, users, ledger, defaultTestSettings())

	err := svc.OnOrderCompleted(context.Background(), CompletedOrder{
		ID: uuid.New(), UserID: buyer.ID, Total: 1000, ReferralCode: "SELF01",
	})
	if err != nil {
		t.Fatalf("OnOrderCompleted: %v", err)
	}
	if len(repo.byOrder) != 0 {
		t.Error("self-referral must not create a commission")
	}
}

func TestOnOrderCompletedSkipsUnknownCode(t *testing.T) {
	repo := newFakeCommissionRepo()
	users := newFakeUserDir()
	ledger := newFakeLedger()
	buyer := &user.User{ID: uuid.New()}
	users.add(buyer)

	svc := newTestService(repo, users, ledger, defaultTestSettings())

	err := svc.OnOrderCompleted(context.Background(), CompletedOrder{
		ID: uuid.New(), UserID: buyer.ID, Total: 1000, ReferralCode: "NOPE00",
	})
	if err != nil {
		t.Fatalf("unknown code must be a soft skip, got %v", err)
	}
	if len(repo.byOrder) != 0 || len(ledger.credits) != 0 {
		t.Error("unknown code must not create a commission or credit")
	}
}

func TestOnOrderCompletedDisabledProgram(t *testing.T) {
	repo := newFakeCommissionRepo()
	users := newFakeUserDir()
	referrer := referrerWithCode("ABC123")
	users.add(referrer)
	buyer := &user.User{ID: uuid.New()}
	users.add(buyer)

	cfg := defaultTestSettings()
	cfg.cfg.CommissionEnabled = false
	svc := newTestService(repo, users, newFakeLedger(), cfg)

	err := svc.OnOrderCompleted(context.Background(), CompletedOrder{
		ID: uuid.New(), UserID: buyer.ID, Total: 1000, ReferralCode: "ABC123",
	})
	if err != nil {
		t.Fatalf("OnOrderCompleted: %v", err)
	}
	if len(repo.byOrder) != 0 {
		t.Error("disabled program must not create commissions")
	}
}

func TestOnOrderCompletedHonorsPurchaseCap(t *testing.T) {
	repo := newFakeCommissionRepo()
	users := newFakeUserDir()
	ledger := newFakeLedger()
	referrer := referrerWithCode("ABC123")
	users.add(referrer)
	buyer := &user.User{ID: uuid.New()}
	users.add(buyer)

	cfg := defaultTestSettings()
	cfg.cfg.MaxCommissionPurchases = 1
	svc := newTestService(repo, users, ledger, cfg)

	first := CompletedOrder{ID: uuid.New(), UserID: buyer.ID, Total: 500, ReferralCode: "ABC123"}
	second := CompletedOrder{ID: uuid.New(), UserID: buyer.ID, Total: 800, ReferralCode: "ABC123"}

	if err := svc.OnOrderCompleted(context.Background(), first); err != nil {
		t.Fatal(err)
	}
	if err := svc.OnOrderCompleted(context.Background(), second); err != nil {
		t.Fatal(err)
	}

	if len(repo.byOrder) != 1 {
		t.Errorf("commissions = %d, want 1 (cap reached)", len(repo.byOrder))
	}
	if repo.byOrder[second.ID] != nil {
		t.Error("second purchase must not earn a commission")
	}
}

func TestOnOrderCompletedRoundsAmount(t *testing.T) {
	repo := newFakeCommissionRepo()
	users := newFakeUserDir()
	ledger := newFakeLedger()
	referrer := referrerWithCode("ABC123")
	users.add(referrer)
	buyer := &user.User{ID: uuid.New()}
	users.add(buyer)

	cfg := defaultTestSettings()
	cfg.cfg.CommissionRate = 7.5
	svc := newTestService(repo, users, ledger, cfg)

	orderID := uuid.New()
	// 333 * 7.5% = 24.975, rounds to 25
	err := svc.OnOrderCompleted(context.Background(), CompletedOrder{
		ID: orderID, UserID: buyer.ID, Total: 333, ReferralCode: "ABC123",
	})
	if err != nil {
		t.Fatal(err)
	}
	if got := repo.byOrder[orderID].Amount; got != 25 {
		t.Errorf("amount = %d, want 25", got)
	}
}

func TestEnsureCodeReturnsExisting(t *testing.T) {
	users := newFakeUserDir()
	u := referrerWithCode("KEEP01")
	users.add(u)

	svc := newTestService(newFakeCommissionRepo(), users, newFakeLedger(), defaultTestSettings())

	code, err := svc.EnsureCode(context.Background(), u.ID)
	if err != nil {
		t.Fatal(err)
	}
	if code != "KEEP01" {
		t.Errorf("code = %q, want KEEP01", code)
	}
}

func TestEnsureCodeGeneratesOnce(t *testing.T) {
	users := newFakeUserDir()
	u := &user.User{ID: uuid.New()}
	users.add(u)

	svc := newTestService(newFakeCommissionRepo(), users, newFakeLedger(), defaultTestSettings())

	first, err := svc.EnsureCode(context.Background(), u.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(first) != CodeLength {
		t.Errorf("code length = %d, want %d", len(first), CodeLength)
	}

	second, err := svc.EnsureCode(context.Background(), u.ID)
	if err != nil {
		t.Fatal(err)
	}
	if second != first {
		t.Errorf("second call returned %q, want stable %q", second, first)
	}
}

func TestAttachFirstReferrerWins(t *testing.T) {
	users := newFakeUserDir()
	first := referrerWithCode("FIRST1")
	second := referrerWithCode("SECND2")
	newcomer := &user.User{ID: uuid.New()}
	users.add(first)
	users.add(second)
	users.add(newcomer)

	svc := newTestService(newFakeCommissionRepo(), users, newFakeLedger(), defaultTestSettings())

	if err := svc.Attach(context.Background(), newcomer.ID, "FIRST1"); err != nil {
		t.Fatal(err)
	}
	if err := svc.Attach(context.Background(), newcomer.ID, "SECND2"); err != nil {
		t.Fatal(err)
	}

	if !newcomer.ReferredBy.Valid || newcomer.ReferredBy.UUID != first.ID {
		t.Errorf("referred_by = %v, want first referrer %s", newcomer.ReferredBy, first.ID)
	}
}

func TestAttachSelfReferralIsNoOp(t *testing.T) {
	users := newFakeUserDir()
	u := referrerWithCode("MYOWN1")
	users.add(u)

	svc := newTestService(newFakeCommissionRepo(), users, newFakeLedger(), defaultTestSettings())

	if err := svc.Attach(context.Background(), u.ID, "MYOWN1"); err != nil {
		t.Fatal(err)
	}
	if u.ReferredBy.Valid {
		t.Error("self-referral must not set referred_by")
	}
}

func TestMarkCommissionPaid(t *testing.T) {
	repo := newFakeCommissionRepo()
	users := newFakeUserDir()
	referrer := referrerWithCode("ABC123")
	users.add(referrer)
	buyer := &user.User{ID: uuid.New()}
	users.add(buyer)

	svc := newTestService(repo, users, newFakeLedger(), defaultTestSettings())

	orderID := uuid.New()
	if err := svc.OnOrderCompleted(context.Background(), CompletedOrder{
		ID: orderID, UserID: buyer.ID, Total: 1000, ReferralCode: "ABC123",
	}); err != nil {
		t.Fatal(err)
	}

	id := repo.byOrder[orderID].ID
	if err := svc.MarkCommissionPaid(context.Background(), id); err != nil {
		t.Fatalf("first mark: %v", err)
	}
	if err := svc.MarkCommissionPaid(context.Background(), id); err != ErrCommissionAlreadyPaid {
		t.Errorf("second mark = %v, want ErrCommissionAlreadyPaid", err)
	}
	if err := svc.MarkCommissionPaid(context.Background(), uuid.New()); err != ErrCommissionNotFound {
		t.Errorf("missing commission = %v, want ErrCommissionNotFound", err)
	}
}

func TestGenerateCodeAlphabet(t *testing.T) {
	for i := 0; i < 50; i++ {
		code := generateCode()
		if len(code) != CodeLength {
			t.Fatalf("code length = %d, want %d", len(code), CodeLength)
		}
		for _, c := range code {
			if !((c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')) {
				t.Fatalf("unexpected character %q in code %q", c, code)
			}
		}
	}
}

func TestOnOrderCompletedRecoversMissedCredit(t *testing.T) {
	repo := newFakeCommissionRepo()
	users := newFakeUserDir()
	ledger := newFakeLedger()

	referrer := referrerWithCode("ABC123")
	users.add(referrer)
	buyer := &user.User{ID: uuid.New()}
	users.add(buyer)

	// Cap of one: the recorded row itself must not block the repair.
	svc := newTestService(repo, users, ledger, &fakeSettings{cfg: settings.Settings{
		CommissionEnabled:      true,
		CommissionRate:         10,
		MaxCommissionPurchases: 1,
	}})

	orderID := uuid.New()
	completed := CompletedOrder{
		ID: orderID, UserID: buyer.ID, Total: 1000, ReferralCode: "ABC123",
	}

	// The commission row commits but the credit dies.
	ledger.failures = 1
	if err := svc.OnOrderCompleted(context.Background(), completed); err == nil {
		t.Fatal("expected first invocation to fail")
	}
	if repo.byOrder[orderID] == nil {
		t.Fatal("commission row missing after failed credit")
	}
	if len(ledger.credits) != 0 {
		t.Fatalf("credits after failure = %d, want 0", len(ledger.credits))
	}

	// The re-drive must pay the referrer despite the existing row.
	if err := svc.OnOrderCompleted(context.Background(), completed); err != nil {
		t.Fatalf("re-drive: %v", err)
	}
	if got := ledger.credits["commission:"+orderID.String()]; got != 100 {
		t.Fatalf("credit after re-drive = %d, want 100", got)
	}

	// A third run changes nothing.
	if err := svc.OnOrderCompleted(context.Background(), completed); err != nil {
		t.Fatalf("third run: %v", err)
	}
	if len(ledger.credits) != 1 {
		t.Fatalf("credits = %d, want 1", len(ledger.credits))
	}
}

func TestEnsureCodeExhaustsRetries(t *testing.T) {
	users := newFakeUserDir()
	users.allCodesTaken = true
	u := &user.User{ID: uuid.New()}
	users.add(u)

	svc := newTestService(newFakeCommissionRepo(), users, newFakeLedger(), defaultTestSettings())

	if _, err := svc.EnsureCode(context.Background(), u.ID); !errors.Is(err, ErrCodeGenerationExhausted) {
		t.Fatalf("expected ErrCodeGenerationExhausted, got %v", err)
	}
}
