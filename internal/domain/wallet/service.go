package wallet

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/rs/zerolog/log"
)

// maxRetries bounds reruns of a mutation that lost a serialization conflict.
const maxRetries = 3

// Notifier pushes balance snapshots to connected clients after a
// mutation commits. Delivery is best effort.
type Notifier interface {
	WalletChanged(userID uuid.UUID, balance, onHold int64)
}

type Service struct {
	repo     *Repository
	notifier Notifier
}

// NewService creates wallet service. notifier may be nil.
func NewService(repo *Repository, notifier Notifier) *Service {
	return &Service{repo: repo, notifier: notifier}
}

// notifyChanged reads the committed state and pushes it out.
func (s *Service) notifyChanged(ctx context.Context, userID uuid.UUID) {
	if s.notifier == nil {
		return
	}
	w, err := s.repo.Get(ctx, userID)
	if err != nil || w == nil {
		return
	}
	s.notifier.WalletChanged(userID, w.Balance, w.OnHold)
}

// Get returns the wallet projection: balance, on-hold and available.
func (s *Service) Get(ctx context.Context, userID uuid.UUID) (*Wallet, error) {
	return s.repo.Get(ctx, userID)
}

// Credit increases a user's balance and appends the matching audit entry.
// referenceID makes retries idempotent.
func (s *Service) Credit(ctx context.Context, userID uuid.UUID, amount int64, txType TransactionType, referenceID, description string) (int64, error) {
	if amount <= 0 || referenceID == "" {
		return 0, ErrInvalidAmount
	}

	var balance int64
	err := s.withRetry(ctx, func() error {
		var err error
		balance, err = s.repo.Credit(ctx, userID, amount, txType, referenceID, description)
		return err
	})
	if err != nil {
		return 0, err
	}

	log.Info().
		Str("user_id", userID.String()).
		Int64("amount", amount).
		Str("type", string(txType)).
		Str("reference_id", referenceID).
		Msg("wallet credit applied")
	s.notifyChanged(ctx, userID)
	return balance, nil
}

// Debit decreases a user's balance (checkout wallet usage).
func (s *Service) Debit(ctx context.Context, userID uuid.UUID, amount int64, referenceID, description string) (int64, error) {
	if amount <= 0 || referenceID == "" {
		return 0, ErrInvalidAmount
	}

	var balance int64
	err := s.withRetry(ctx, func() error {
		var err error
		balance, err = s.repo.Debit(ctx, userID, amount, TransactionTypeCheckoutDebit, referenceID, description)
		return err
	})
	if err != nil {
		return 0, err
	}

	log.Info().
		Str("user_id", userID.String()).
		Int64("amount", amount).
		Str("reference_id", referenceID).
		Msg("wallet debit applied")
	s.notifyChanged(ctx, userID)
	return balance, nil
}

// Reserve places a withdrawal hold on part of the available balance.
func (s *Service) Reserve(ctx context.Context, userID uuid.UUID, amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	if err := s.withRetry(ctx, func() error {
		return s.repo.Reserve(ctx, userID, amount)
	}); err != nil {
		return err
	}
	s.notifyChanged(ctx, userID)
	return nil
}

// Release returns a hold to the available balance (withdrawal rejected).
func (s *Service) Release(ctx context.Context, userID uuid.UUID, amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	if err := s.withRetry(ctx, func() error {
		return s.repo.Release(ctx, userID, amount)
	}); err != nil {
		return err
	}
	s.notifyChanged(ctx, userID)
	return nil
}

// Settle pays out a hold (withdrawal approved): balance and hold drop
// together and a withdrawal_debit entry is logged.
func (s *Service) Settle(ctx context.Context, userID uuid.UUID, amount int64, referenceID, description string) (int64, error) {
	if amount <= 0 || referenceID == "" {
		return 0, ErrInvalidAmount
	}

	var balance int64
	err := s.withRetry(ctx, func() error {
		var err error
		balance, err = s.repo.Settle(ctx, userID, amount, referenceID, description)
		return err
	})
	if err != nil {
		return 0, err
	}

	log.Info().
		Str("user_id", userID.String()).
		Int64("amount", amount).
		Str("reference_id", referenceID).
		Msg("wallet settlement applied")
	s.notifyChanged(ctx, userID)
	return balance, nil
}

// History returns the append-only transaction log, newest first.
func (s *Service) History(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Transaction, error) {
	return s.repo.ListTransactions(ctx, userID, limit, offset)
}

// withRetry reruns fn on serialization conflicts up to maxRetries, then
// surfaces ErrConcurrentModification.
func (s *Service) withRetry(ctx context.Context, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		lastErr = fn()
		if lastErr == nil || !isSerializationFailure(lastErr) {
			return lastErr
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Warn().Err(lastErr).Int("attempt", attempt+1).Msg("wallet mutation conflict, retrying")
	}
	return errors.Join(ErrConcurrentModification, lastErr)
}

// isSerializationFailure matches Postgres serialization and deadlock aborts.
func isSerializationFailure(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	return pqErr.Code == "40001" || pqErr.Code == "40P01"
}
