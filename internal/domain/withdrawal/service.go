package withdrawal

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/innovative-archive/shop-api/internal/domain/settings"
	"github.com/innovative-archive/shop-api/internal/domain/user"
	"github.com/innovative-archive/shop-api/internal/domain/wallet"
)

// Decision is the admin's verdict on a pending request.
type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

// UserDirectory is the slice of the user repository this service needs.
type UserDirectory interface {
	GetByID(ctx context.Context, id uuid.UUID) (*user.User, error)
}

// WalletLedger manages the hold lifecycle backing a request.
type WalletLedger interface {
	Get(ctx context.Context, userID uuid.UUID) (*wallet.Wallet, error)
	Reserve(ctx context.Context, userID uuid.UUID, amount int64) error
	Release(ctx context.Context, userID uuid.UUID, amount int64) error
	Settle(ctx context.Context, userID uuid.UUID, amount int64, referenceID, description string) (int64, error)
}

// SettingsProvider supplies the configuration snapshot per operation.
type SettingsProvider interface {
	Get(ctx context.Context) (*settings.Settings, error)
}

// Notifier pushes processed-withdrawal events to connected clients.
// Delivery is best effort.
type Notifier interface {
	WithdrawalProcessed(userID uuid.UUID, w *Withdrawal)
}

type Service struct {
	repo     Repository
	users    UserDirectory
	wallets  WalletLedger
	settings SettingsProvider
	notifier Notifier
}

// NewService creates withdrawal service. notifier may be nil.
func NewService(repo Repository, users UserDirectory, wallets WalletLedger, settings SettingsProvider, notifier Notifier) *Service {
	return &Service{repo: repo, users: users, wallets: wallets, settings: settings, notifier: notifier}
}

// Request files a withdrawal for part of the user's available balance.
// Validation order matches the user-facing flow: payment details, minimum,
// single outstanding request, cooldown, amount bounds.
func (s *Service) Request(ctx context.Context, userID uuid.UUID, amount int64) (*Withdrawal, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, user.ErrUserNotFound
	}
	if !u.HasPaymentDetails() {
		return nil, ErrMissingPaymentDetails
	}

	cfg, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}

	w, err := s.wallets.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	available := w.Available()

	if available < cfg.MinWithdrawal {
		return nil, fmt.Errorf("%w: minimum is %d, available is %d", ErrBelowMinimum, cfg.MinWithdrawal, available)
	}

	pending, err := s.repo.HasPending(ctx, userID)
	if err != nil {
		return nil, err
	}
	if pending {
		return nil, ErrPendingRequestExists
	}

	if u.LastWithdrawalRequest.Valid && cfg.WithdrawalCooldownDays > 0 {
		eligible := u.LastWithdrawalRequest.Time.AddDate(0, 0, cfg.WithdrawalCooldownDays)
		if time.Now().Before(eligible) {
			return nil, fmt.Errorf("%w: next request possible on %s", ErrCooldownActive, eligible.Format("2006-01-02"))
		}
	}

	if amount < cfg.MinWithdrawal || amount > available {
		return nil, fmt.Errorf("%w: must be between %d and %d", ErrInvalidAmount, cfg.MinWithdrawal, available)
	}

	// The reserve guard re-checks availability under the wallet row lock,
	// so a racing checkout debit cannot overdraw the hold.
	if err := s.wallets.Reserve(ctx, userID, amount); err != nil {
		if err == wallet.ErrInsufficientAvailable {
			return nil, fmt.Errorf("%w: must be between %d and %d", ErrInvalidAmount, cfg.MinWithdrawal, available)
		}
		return nil, err
	}

	req := &Withdrawal{
		ID:     uuid.New(),
		UserID: userID,
		Amount: amount,
		// Snapshot payout details as they are right now.
		FullName: u.FullName.String,
		Phone:    u.Phone.String,
		UpiID:    u.UpiID.String,
		Status:   StatusPending,
	}

	if err := s.repo.CreateAndStamp(ctx, req); err != nil {
		// Roll the hold back so the money stays withdrawable.
		if relErr := s.wallets.Release(ctx, userID, amount); relErr != nil {
			log.Error().Err(relErr).Str("user_id", userID.String()).Msg("failed to release hold after create failure")
		}
		return nil, err
	}

	log.Info().
		Str("withdrawal_id", req.ID.String()).
		Str("user_id", userID.String()).
		Int64("amount", amount).
		Msg("withdrawal requested")

	return s.repo.GetByID(ctx, req.ID)
}

// Process applies an admin decision to a pending request. Both outcomes are
// terminal; re-processing returns ErrAlreadyProcessed and never touches the
// wallet twice.
func (s *Service) Process(ctx context.Context, id uuid.UUID, decision Decision) (*Withdrawal, error) {
	w, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if w == nil {
		return nil, ErrNotFound
	}
	if w.IsTerminal() {
		return nil, ErrAlreadyProcessed
	}

	switch decision {
	case DecisionApprove:
		err = s.approve(ctx, w)
	case DecisionReject:
		err = s.reject(ctx, w)
	default:
		return nil, ErrInvalidDecision
	}
	if err != nil {
		return nil, err
	}

	processed, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.notifier != nil && processed != nil {
		s.notifier.WithdrawalProcessed(processed.UserID, processed)
	}
	return processed, nil
}

func (s *Service) approve(ctx context.Context, w *Withdrawal) error {
	claimed, err := s.repo.ClaimPending(ctx, w.ID, StatusPaid)
	if err != nil {
		return err
	}
	if !claimed {
		return ErrAlreadyProcessed
	}

	reference := "withdrawal:" + w.ID.String()
	description := fmt.Sprintf("Withdrawal paid to %s", w.UpiID)
	if _, err := s.wallets.Settle(ctx, w.UserID, w.Amount, reference, description); err != nil {
		// Put the request back so the payout can be retried.
		if revErr := s.repo.RevertClaim(ctx, w.ID, StatusPaid); revErr != nil {
			log.Error().Err(revErr).Str("withdrawal_id", w.ID.String()).Msg("failed to revert claim after settle failure")
		}
		return err
	}

	log.Info().
		Str("withdrawal_id", w.ID.String()).
		Str("user_id", w.UserID.String()).
		Int64("amount", w.Amount).
		Msg("withdrawal approved")
	return nil
}

func (s *Service) reject(ctx context.Context, w *Withdrawal) error {
	claimed, err := s.repo.ClaimPending(ctx, w.ID, StatusRejected)
	if err != nil {
		return err
	}
	if !claimed {
		return ErrAlreadyProcessed
	}

	if err := s.wallets.Release(ctx, w.UserID, w.Amount); err != nil {
		if revErr := s.repo.RevertClaim(ctx, w.ID, StatusRejected); revErr != nil {
			log.Error().Err(revErr).Str("withdrawal_id", w.ID.String()).Msg("failed to revert claim after release failure")
		}
		return err
	}

	log.Info().
		Str("withdrawal_id", w.ID.String()).
		Str("user_id", w.UserID.String()).
		Int64("amount", w.Amount).
		Msg("withdrawal rejected")
	return nil
}

// MyWithdrawals lists the caller's requests, newest first.
func (s *Service) MyWithdrawals(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Withdrawal, error) {
	return s.repo.ListByUser(ctx, userID, limit, offset)
}

// List lists requests for the back office.
func (s *Service) List(ctx context.Context, status string, limit, offset int) ([]*Withdrawal, error) {
	return s.repo.ListAll(ctx, status, limit, offset)
}

// CountPending returns the processing backlog size.
func (s *Service) CountPending(ctx context.Context) (int, error) {
	return s.repo.CountPending(ctx)
}
