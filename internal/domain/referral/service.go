package referral

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/innovative-archive/shop-api/internal/domain/settings"
	"github.com/innovative-archive/shop-api/internal/domain/user"
	"github.com/innovative-archive/shop-api/internal/domain/wallet"
)

// maxCodeAttempts bounds collision retries during code generation.
const maxCodeAttempts = 10

// UserDirectory is the slice of the user repository the referral service needs.
type UserDirectory interface {
	GetByID(ctx context.Context, id uuid.UUID) (*user.User, error)
	GetByReferralCode(ctx context.Context, code string) (*user.User, error)
	SetReferralCode(ctx context.Context, id uuid.UUID, code string) error
	SetReferredBy(ctx context.Context, id uuid.UUID, referrerID uuid.UUID) (bool, error)
}

// WalletLedger credits referrer wallets.
type WalletLedger interface {
	Credit(ctx context.Context, userID uuid.UUID, amount int64, txType wallet.TransactionType, referenceID, description string) (int64, error)
}

// SettingsProvider supplies the configuration snapshot per operation.
type SettingsProvider interface {
	Get(ctx context.Context) (*settings.Settings, error)
}

type Service struct {
	repo     Repository
	users    UserDirectory
	wallets  WalletLedger
	settings SettingsProvider
}

func NewService(repo Repository, users UserDirectory, wallets WalletLedger, settings SettingsProvider) *Service {
	return &Service{repo: repo, users: users, wallets: wallets, settings: settings}
}

// EnsureCode returns the user's referral code, generating one on first use.
// Codes are immutable once assigned.
func (s *Service) EnsureCode(ctx context.Context, userID uuid.UUID) (string, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return "", err
	}
	if u == nil {
		return "", user.ErrUserNotFound
	}
	if u.ReferralCode.Valid && u.ReferralCode.String != "" {
		return u.ReferralCode.String, nil
	}

	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code := generateCode()
		err := s.users.SetReferralCode(ctx, userID, code)
		if errors.Is(err, user.ErrReferralCodeTaken) {
			continue
		}
		if err != nil {
			return "", err
		}

		// Re-read: a concurrent call may have assigned a code first, in
		// which case our UPDATE matched no row.
		fresh, err := s.users.GetByID(ctx, userID)
		if err != nil {
			return "", err
		}
		if fresh != nil && fresh.ReferralCode.Valid {
			return fresh.ReferralCode.String, nil
		}
	}

	return "", ErrCodeGenerationExhausted
}

// ResolveUserByCode finds the owner of a referral code. Exact,
// case-sensitive match.
func (s *Service) ResolveUserByCode(ctx context.Context, code string) (*user.User, error) {
	if code == "" {
		return nil, ErrCodeNotFound
	}
	u, err := s.users.GetByReferralCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrCodeNotFound
	}
	return u, nil
}

// Attach records who referred a user. First referrer wins: a second attach is
// a silent no-op, as are self-referrals and unknown codes.
func (s *Service) Attach(ctx context.Context, userID uuid.UUID, code string) error {
	referrer, err := s.users.GetByReferralCode(ctx, code)
	if err != nil {
		return err
	}
	if referrer == nil {
		log.Debug().Str("code", code).Msg("referral attach skipped: unknown code")
		return nil
	}
	if referrer.ID == userID {
		log.Debug().Str("user_id", userID.String()).Msg("referral attach skipped: self-referral")
		return nil
	}

	attached, err := s.users.SetReferredBy(ctx, userID, referrer.ID)
	if err != nil {
		return err
	}
	if attached {
		log.Info().
			Str("user_id", userID.String()).
			Str("referrer_id", referrer.ID.String()).
			Msg("referral attached")
	}
	return nil
}

// CompletedOrder carries the order fields the commission ledger consumes.
type CompletedOrder struct {
	ID           uuid.UUID
	UserID       uuid.UUID
	Total        int64
	ReferralCode string
}

// OnOrderCompleted converts a completed referred order into a commission
// credit. Safe to call more than once per order: the unique order constraint
// and the wallet reference key both deduplicate.
func (s *Service) OnOrderCompleted(ctx context.Context, order CompletedOrder) error {
	if order.ReferralCode == "" {
		return nil
	}

	// An existing row means a prior invocation got at least as far as the
	// insert; finish its credit before consulting program state, so a
	// purchase cap or a disabled program cannot strand the payout.
	if prior, err := s.repo.GetByOrderID(ctx, order.ID); err != nil {
		return err
	} else if prior != nil {
		return s.creditCommission(ctx, prior.ReferrerID, prior.Amount, order.ID, prior.Rate)
	}

	cfg, err := s.settings.Get(ctx)
	if err != nil {
		return err
	}
	if !cfg.CommissionEnabled {
		log.Debug().Str("order_id", order.ID.String()).Msg("commission skipped: program disabled")
		return nil
	}

	referrer, err := s.users.GetByReferralCode(ctx, order.ReferralCode)
	if err != nil {
		return err
	}
	if referrer == nil {
		log.Info().
			Str("order_id", order.ID.String()).
			Str("code", order.ReferralCode).
			Msg("commission skipped: code does not resolve")
		return nil
	}
	if referrer.ID == order.UserID {
		log.Info().Str("order_id", order.ID.String()).Msg("commission skipped: self-referral")
		return nil
	}

	// "First purchase only" style cap per referrer/referee pair.
	if cfg.MaxCommissionPurchases > 0 {
		prior, err := s.repo.CountByPair(ctx, referrer.ID, order.UserID)
		if err != nil {
			return err
		}
		if prior >= cfg.MaxCommissionPurchases {
			log.Info().
				Str("order_id", order.ID.String()).
				Int("prior", prior).
				Msg("commission skipped: purchase cap reached")
			return nil
		}
	}

	amount := int64(math.Round(float64(order.Total) * cfg.CommissionRate / 100))
	if amount <= 0 {
		return nil
	}

	created, err := s.repo.CreateUnique(ctx, &Commission{
		ID:         uuid.New(),
		ReferrerID: referrer.ID,
		RefereeID:  order.UserID,
		OrderID:    order.ID,
		OrderTotal: order.Total,
		Rate:       cfg.CommissionRate,
		Amount:     amount,
		Status:     CommissionStatusPending,
	})
	if err != nil {
		return err
	}
	if !created {
		// Lost the insert race to a concurrent invocation; credit from
		// the row that won so both callers agree on the amount.
		prior, err := s.repo.GetByOrderID(ctx, order.ID)
		if err != nil {
			return err
		}
		if prior == nil {
			return nil
		}
		return s.creditCommission(ctx, prior.ReferrerID, prior.Amount, order.ID, prior.Rate)
	}

	return s.creditCommission(ctx, referrer.ID, amount, order.ID, cfg.CommissionRate)
}

// creditCommission pays a recorded commission into the referrer's wallet.
// The order-keyed reference makes repeat calls no-ops, so this is the
// repair path as well as the happy path.
func (s *Service) creditCommission(ctx context.Context, referrerID uuid.UUID, amount int64, orderID uuid.UUID, rate float64) error {
	reference := "commission:" + orderID.String()
	description := fmt.Sprintf("Referral commission for order %s", orderID)
	if _, err := s.wallets.Credit(ctx, referrerID, amount, wallet.TransactionTypeCommissionCredit, reference, description); err != nil {
		return fmt.Errorf("commission wallet credit: %w", err)
	}

	log.Info().
		Str("order_id", orderID.String()).
		Str("referrer_id", referrerID.String()).
		Int64("amount", amount).
		Float64("rate", rate).
		Msg("commission credited")
	return nil
}

// MyCommissions lists a referrer's commission records.
func (s *Service) MyCommissions(ctx context.Context, referrerID uuid.UUID, limit, offset int) ([]*Commission, error) {
	return s.repo.ListByReferrer(ctx, referrerID, limit, offset)
}

// MyStats summarizes a referrer's program standing.
func (s *Service) MyStats(ctx context.Context, referrerID uuid.UUID) (*Stats, error) {
	code, err := s.EnsureCode(ctx, referrerID)
	if err != nil {
		return nil, err
	}

	count, total, pending, err := s.repo.StatsByReferrer(ctx, referrerID)
	if err != nil {
		return nil, err
	}
	referred, err := s.repo.CountReferredUsers(ctx, referrerID)
	if err != nil {
		return nil, err
	}

	return &Stats{
		ReferralCode:    code,
		ReferredUsers:   referred,
		CommissionCount: count,
		TotalEarned:     total,
		PendingAmount:   pending,
	}, nil
}

// MarkCommissionPaid flips a pending commission to paid (admin action).
func (s *Service) MarkCommissionPaid(ctx context.Context, id uuid.UUID) error {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if c == nil {
		return ErrCommissionNotFound
	}

	flipped, err := s.repo.MarkPaid(ctx, id)
	if err != nil {
		return err
	}
	if !flipped {
		return ErrCommissionAlreadyPaid
	}
	return nil
}

// ListCommissions lists commissions for the back office.
func (s *Service) ListCommissions(ctx context.Context, status string, limit, offset int) ([]*Commission, error) {
	return s.repo.ListAll(ctx, status, limit, offset)
}
