package order

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/innovative-archive/shop-api/internal/domain/cart"
	"github.com/innovative-archive/shop-api/internal/domain/referral"
	"github.com/innovative-archive/shop-api/internal/domain/settings"
	"github.com/innovative-archive/shop-api/internal/domain/user"
	"github.com/innovative-archive/shop-api/internal/pkg/whatsapp"
)

// CartSource supplies and clears the buyer's cart.
type CartSource interface {
	Get(ctx context.Context, userID uuid.UUID) (*cart.Cart, error)
	Clear(ctx context.Context, userID uuid.UUID) error
}

// Inventory adjusts product stock during checkout.
type Inventory interface {
	DecrementStock(ctx context.Context, id uuid.UUID, qty int) (bool, error)
	RestoreStock(ctx context.Context, id uuid.UUID, qty int) error
}

// WalletLedger debits wallet funds used at checkout.
type WalletLedger interface {
	Debit(ctx context.Context, userID uuid.UUID, amount int64, referenceID, description string) (int64, error)
}

// SettingsProvider supplies the configuration snapshot per operation.
type SettingsProvider interface {
	Get(ctx context.Context) (*settings.Settings, error)
}

// UserDirectory resolves buyer details for the checkout message.
type UserDirectory interface {
	GetByID(ctx context.Context, id uuid.UUID) (*user.User, error)
}

// CommissionHook reacts to an order entering the completed state.
type CommissionHook interface {
	OnOrderCompleted(ctx context.Context, order referral.CompletedOrder) error
}

// Notifier broadcasts order status changes. Implementations must be
// safe to call with a background context.
type Notifier interface {
	OrderStatusChanged(userID, orderID uuid.UUID, status string)
}

// Service handles order business logic
type Service struct {
	repo        Repository
	carts       CartSource
	inventory   Inventory
	wallets     WalletLedger
	settings    SettingsProvider
	users       UserDirectory
	commissions CommissionHook
	notifier    Notifier
}

// NewService creates order service
func NewService(
	repo Repository,
	carts CartSource,
	inventory Inventory,
	wallets WalletLedger,
	settingsProvider SettingsProvider,
	users UserDirectory,
	commissions CommissionHook,
	notifier Notifier,
) *Service {
	return &Service{
		repo:        repo,
		carts:       carts,
		inventory:   inventory,
		wallets:     wallets,
		settings:    settingsProvider,
		users:       users,
		commissions: commissions,
		notifier:    notifier,
	}
}

// CheckoutInput carries the buyer's checkout choices.
type CheckoutInput struct {
	ReferralCode   string
	BuyerStateCode string
	WalletAmount   int64
}

// CheckoutResult is the created order plus the WhatsApp handoff link.
type CheckoutResult struct {
	Order       *Order `json:"order"`
	WhatsAppURL string `json:"whatsapp_url,omitempty"`
}

// Checkout snapshots the cart into a pending order. Stock is taken up
// front; wallet funds are debited last so a failed debit can cancel the
// order and put the stock back.
func (s *Service) Checkout(ctx context.Context, userID uuid.UUID, in CheckoutInput) (*CheckoutResult, error) {
	c, err := s.carts.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(c.Lines) == 0 {
		return nil, ErrEmptyCart
	}
	for _, line := range c.Lines {
		if !line.InStock {
			return nil, fmt.Errorf("%w: %s", ErrOutOfStock, line.Name)
		}
	}

	cfg, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}

	subtotal := c.Total
	walletUsed := in.WalletAmount
	if walletUsed < 0 {
		walletUsed = 0
	}
	if walletUsed > 0 {
		maxFromWallet := subtotal * int64(cfg.MaxWalletUsagePercent) / 100
		if walletUsed > maxFromWallet {
			return nil, fmt.Errorf("%w: at most %d can be paid from wallet", ErrWalletLimit, maxFromWallet)
		}
	}

	o := &Order{
		ID:         uuid.New(),
		UserID:     userID,
		Status:     StatusPending,
		Subtotal:   subtotal,
		WalletUsed: walletUsed,
		Total:      subtotal,
		Items:      make([]Item, 0, len(c.Lines)),
	}
	if in.ReferralCode != "" {
		o.ReferralCode.String = in.ReferralCode
		o.ReferralCode.Valid = true
	}
	if in.BuyerStateCode != "" {
		o.BuyerStateCode.String = in.BuyerStateCode
		o.BuyerStateCode.Valid = true
	}
	for _, line := range c.Lines {
		o.Items = append(o.Items, Item{
			ID:        uuid.New(),
			ProductID: line.ProductID,
			Name:      line.Name,
			Price:     line.Price,
			Quantity:  line.Quantity,
		})
	}

	taken, err := s.takeStock(ctx, o.Items)
	if err != nil {
		s.restoreStock(ctx, taken)
		return nil, err
	}

	if err := s.repo.Create(ctx, o); err != nil {
		s.restoreStock(ctx, o.Items)
		return nil, err
	}

	if walletUsed > 0 {
		reference := "order:" + o.ID.String()
		description := fmt.Sprintf("Wallet used for order %s", o.ID)
		if _, err := s.wallets.Debit(ctx, userID, walletUsed, reference, description); err != nil {
			if _, terr := s.repo.Transition(ctx, o.ID, StatusPending, StatusCancelled); terr != nil {
				log.Error().Err(terr).Str("order_id", o.ID.String()).Msg("failed to cancel order after wallet debit failure")
			}
			s.restoreStock(ctx, o.Items)
			return nil, err
		}
	}

	if err := s.carts.Clear(ctx, userID); err != nil {
		log.Warn().Err(err).Str("user_id", userID.String()).Msg("failed to clear cart after checkout")
	}

	log.Info().
		Str("order_id", o.ID.String()).
		Str("user_id", userID.String()).
		Int64("total", o.Total).
		Int64("wallet_used", walletUsed).
		Msg("order created")

	result := &CheckoutResult{Order: o}
	if cfg.WhatsAppNumber != "" {
		customerName := ""
		if u, err := s.users.GetByID(ctx, userID); err == nil && u != nil {
			customerName = u.DisplayName
		}
		lines := make([]whatsapp.OrderLine, 0, len(o.Items))
		for _, it := range o.Items {
			lines = append(lines, whatsapp.OrderLine{Name: it.Name, Quantity: it.Quantity, Price: it.Price})
		}
		result.WhatsAppURL = whatsapp.OrderLink(cfg.WhatsAppNumber, shortRef(o.ID), customerName, lines, o.Total, walletUsed)
	}
	return result, nil
}

// Get returns an order, restricted to its owner unless admin is set.
func (s *Service) Get(ctx context.Context, id, userID uuid.UUID, admin bool) (*Order, error) {
	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if o == nil || (!admin && o.UserID != userID) {
		return nil, ErrOrderNotFound
	}
	return o, nil
}

// MyOrders lists the user's order history, newest first.
func (s *Service) MyOrders(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Order, error) {
	return s.repo.ListByUser(ctx, userID, limit, offset)
}

// List lists orders for the back office, optionally filtered by status.
func (s *Service) List(ctx context.Context, status string, limit, offset int) ([]*Order, error) {
	return s.repo.ListAll(ctx, status, limit, offset)
}

// CountByStatus returns order counts per status for the dashboard.
func (s *Service) CountByStatus(ctx context.Context) (map[Status]int, error) {
	return s.repo.CountByStatus(ctx)
}

// UpdateStatus applies an admin status change. Transition into completed
// triggers commission processing exactly once; the compare-and-set
// update arbitrates concurrent admin clicks.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, to Status) (*Order, error) {
	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, ErrOrderNotFound
	}
	if !allowedTransition(o.Status, to) {
		return nil, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, o.Status, to)
	}

	moved, err := s.repo.Transition(ctx, id, o.Status, to)
	if err != nil {
		return nil, err
	}
	if !moved {
		// Lost the race to another admin action.
		return nil, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, o.Status, to)
	}

	log.Info().
		Str("order_id", id.String()).
		Str("from", string(o.Status)).
		Str("to", string(to)).
		Msg("order status changed")

	if to == StatusCompleted && s.commissions != nil {
		code := ""
		if o.ReferralCode.Valid {
			code = o.ReferralCode.String
		}
		err := s.commissions.OnOrderCompleted(ctx, referral.CompletedOrder{
			ID:           o.ID,
			UserID:       o.UserID,
			Total:        o.Total,
			ReferralCode: code,
		})
		if err != nil {
			// The status change stands; the commission path is
			// idempotent, so an admin re-drive repairs the miss.
			log.Error().Err(err).Str("order_id", id.String()).Msg("commission processing failed")
		}
	}

	if s.notifier != nil {
		s.notifier.OrderStatusChanged(o.UserID, o.ID, string(to))
	}

	o.Status = to
	return o, nil
}

// RetryCommission re-drives commission processing for a completed order.
// Recorded commissions and wallet credits both deduplicate, so running it
// against an already credited order changes nothing.
func (s *Service) RetryCommission(ctx context.Context, id uuid.UUID) error {
	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if o == nil {
		return ErrOrderNotFound
	}
	if o.Status != StatusCompleted {
		return fmt.Errorf("%w: commission requires a completed order, got %s", ErrInvalidTransition, o.Status)
	}
	if s.commissions == nil {
		return nil
	}

	code := ""
	if o.ReferralCode.Valid {
		code = o.ReferralCode.String
	}
	return s.commissions.OnOrderCompleted(ctx, referral.CompletedOrder{
		ID:           o.ID,
		UserID:       o.UserID,
		Total:        o.Total,
		ReferralCode: code,
	})
}

func (s *Service) takeStock(ctx context.Context, items []Item) ([]Item, error) {
	taken := make([]Item, 0, len(items))
	for _, it := range items {
		ok, err := s.inventory.DecrementStock(ctx, it.ProductID, it.Quantity)
		if err != nil {
			return taken, err
		}
		if !ok {
			return taken, fmt.Errorf("%w: %s", ErrOutOfStock, it.Name)
		}
		taken = append(taken, it)
	}
	return taken, nil
}

func (s *Service) restoreStock(ctx context.Context, items []Item) {
	for _, it := range items {
		if err := s.inventory.RestoreStock(ctx, it.ProductID, it.Quantity); err != nil {
			log.Error().Err(err).
				Str("product_id", it.ProductID.String()).
				Int("quantity", it.Quantity).
				Msg("failed to restore stock")
		}
	}
}

// allowedTransition permits forward movement through the lifecycle and
// cancellation from any non-terminal state.
func allowedTransition(from, to Status) bool {
	if from.IsTerminal() || from == to {
		return false
	}
	if to == StatusCancelled {
		return true
	}
	rank := map[Status]int{
		StatusPending:    0,
		StatusProcessing: 1,
		StatusShipped:    2,
		StatusCompleted:  3,
	}
	fr, ok1 := rank[from]
	tr, ok2 := rank[to]
	return ok1 && ok2 && tr > fr
}

func shortRef(id uuid.UUID) string {
	return "#" + id.String()[:8]
}
