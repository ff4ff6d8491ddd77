package wallet

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// Repository performs every wallet mutation inside a single transaction that
// holds the wallet row lock, so concurrent sessions can never lose an update.
type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) EnsureWallet(ctx context.Context, userID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO user_wallets (user_id, balance, on_hold)
		VALUES ($1, 0, 0)
		ON CONFLICT (user_id) DO NOTHING
	`, userID)
	return err
}

func (r *Repository) Get(ctx context.Context, userID uuid.UUID) (*Wallet, error) {
	if err := r.EnsureWallet(ctx, userID); err != nil {
		return nil, err
	}

	var w Wallet
	err := r.db.GetContext(ctx, &w, `
		SELECT user_id, balance, on_hold, updated_at
		FROM user_wallets
		WHERE user_id = $1
	`, userID)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *Repository) beginTx(ctx context.Context) (*sqlx.Tx, error) {
	return r.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
}

// lockWallet creates the wallet row if missing and takes its row lock for the
// duration of the transaction.
func (r *Repository) lockWallet(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID) (*Wallet, error) {
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO user_wallets (user_id, balance, on_hold)
		VALUES ($1, 0, 0)
		ON CONFLICT (user_id) DO NOTHING
	`, userID); err != nil {
		return nil, err
	}

	var w Wallet
	err := tx.GetContext(ctx, &w, `
		SELECT user_id, balance, on_hold, updated_at
		FROM user_wallets
		WHERE user_id = $1
		FOR UPDATE
	`, userID)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *Repository) getTransactionAmountByRef(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, txType TransactionType, referenceID string) (int64, bool, error) {
	if referenceID == "" {
		return 0, false, nil
	}

	var amount int64
	err := tx.GetContext(ctx, &amount, `
		SELECT amount
		FROM wallet_transactions
		WHERE user_id = $1 AND type = $2 AND reference_id = $3
		LIMIT 1
	`, userID, string(txType), referenceID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return amount, true, nil
}

func (r *Repository) updateWallet(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, balance, onHold int64) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE user_wallets
		SET balance = $1, on_hold = $2, updated_at = now()
		WHERE user_id = $3
	`, balance, onHold, userID)
	return err
}

func (r *Repository) insertTransaction(ctx context.Context, tx *sqlx.Tx, entry *Transaction) error {
	var ref interface{}
	if entry.ReferenceID != nil && *entry.ReferenceID != "" {
		ref = *entry.ReferenceID
	}

	_, err := tx.ExecContext(ctx, `
		INSERT INTO wallet_transactions (id, user_id, type, amount, balance_after, description, reference_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, entry.ID, entry.UserID, string(entry.Type), entry.Amount, entry.BalanceAfter, entry.Description, ref)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrDuplicateReference
		}
		return err
	}
	return nil
}

// applyBalance moves balance by a signed delta and appends the audit entry in
// one transaction. referenceID deduplicates retries of the same operation.
func (r *Repository) applyBalance(ctx context.Context, userID uuid.UUID, delta int64, txType TransactionType, referenceID, description string) (int64, error) {
	tx, err := r.beginTx(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	w, err := r.lockWallet(ctx, tx, userID)
	if err != nil {
		return 0, err
	}

	existingAmount, exists, err := r.getTransactionAmountByRef(ctx, tx, userID, txType, referenceID)
	if err != nil {
		return 0, err
	}
	if exists {
		if existingAmount != delta {
			return 0, ErrReferenceConflict
		}
		return w.Balance, nil
	}

	nextBalance := w.Balance + delta
	if nextBalance < 0 {
		return 0, ErrInsufficientAvailable
	}
	if delta < 0 && nextBalance < w.OnHold {
		// A debit may not dip into the reserved portion.
		return 0, ErrInsufficientAvailable
	}

	if err := r.updateWallet(ctx, tx, userID, nextBalance, w.OnHold); err != nil {
		return 0, err
	}

	ref := referenceID
	if err := r.insertTransaction(ctx, tx, &Transaction{
		ID:           uuid.New(),
		UserID:       userID,
		Type:         txType,
		Amount:       delta,
		BalanceAfter: nextBalance,
		Description:  description,
		ReferenceID:  &ref,
	}); err != nil {
		if errors.Is(err, ErrDuplicateReference) {
			return 0, ErrReferenceConflict
		}
		return 0, err
	}

	return nextBalance, tx.Commit()
}

// Credit increases balance and logs the signed +amount.
func (r *Repository) Credit(ctx context.Context, userID uuid.UUID, amount int64, txType TransactionType, referenceID, description string) (int64, error) {
	return r.applyBalance(ctx, userID, amount, txType, referenceID, description)
}

// Debit decreases balance without touching the hold; it fails rather than
// dip below on_hold.
func (r *Repository) Debit(ctx context.Context, userID uuid.UUID, amount int64, txType TransactionType, referenceID, description string) (int64, error) {
	return r.applyBalance(ctx, userID, -amount, txType, referenceID, description)
}

// Reserve moves amount from available into on_hold. No audit entry: the
// balance itself does not change.
func (r *Repository) Reserve(ctx context.Context, userID uuid.UUID, amount int64) error {
	tx, err := r.beginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	w, err := r.lockWallet(ctx, tx, userID)
	if err != nil {
		return err
	}

	if w.Balance-w.OnHold < amount {
		return ErrInsufficientAvailable
	}

	if err := r.updateWallet(ctx, tx, userID, w.Balance, w.OnHold+amount); err != nil {
		return err
	}

	return tx.Commit()
}

// Release returns a reserved amount to available, clamped at zero.
func (r *Repository) Release(ctx context.Context, userID uuid.UUID, amount int64) error {
	tx, err := r.beginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	w, err := r.lockWallet(ctx, tx, userID)
	if err != nil {
		return err
	}

	nextHold := w.OnHold - amount
	if nextHold < 0 {
		nextHold = 0
	}

	if err := r.updateWallet(ctx, tx, userID, w.Balance, nextHold); err != nil {
		return err
	}

	return tx.Commit()
}

// Settle pays out a reservation: balance and on_hold decrease together and a
// withdrawal_debit entry is appended, all in one transaction.
func (r *Repository) Settle(ctx context.Context, userID uuid.UUID, amount int64, referenceID, description string) (int64, error) {
	tx, err := r.beginTx(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	w, err := r.lockWallet(ctx, tx, userID)
	if err != nil {
		return 0, err
	}

	existingAmount, exists, err := r.getTransactionAmountByRef(ctx, tx, userID, TransactionTypeWithdrawalDebit, referenceID)
	if err != nil {
		return 0, err
	}
	if exists {
		if existingAmount != -amount {
			return 0, ErrReferenceConflict
		}
		return w.Balance, nil
	}

	if w.Balance < amount {
		return 0, ErrInsufficientAvailable
	}
	if w.OnHold < amount {
		return 0, ErrInsufficientHold
	}

	nextBalance := w.Balance - amount
	if err := r.updateWallet(ctx, tx, userID, nextBalance, w.OnHold-amount); err != nil {
		return 0, err
	}

	ref := referenceID
	if err := r.insertTransaction(ctx, tx, &Transaction{
		ID:           uuid.New(),
		UserID:       userID,
		Type:         TransactionTypeWithdrawalDebit,
		Amount:       -amount,
		BalanceAfter: nextBalance,
		Description:  description,
		ReferenceID:  &ref,
	}); err != nil {
		if errors.Is(err, ErrDuplicateReference) {
			return 0, ErrReferenceConflict
		}
		return 0, err
	}

	return nextBalance, tx.Commit()
}

// ListTransactions returns a user's audit log, newest first.
func (r *Repository) ListTransactions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Transaction, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	var entries []*Transaction
	err := r.db.SelectContext(ctx, &entries, `
		SELECT id, user_id, type, amount, balance_after, description, reference_id, created_at
		FROM wallet_transactions
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	return entries, nil
}
