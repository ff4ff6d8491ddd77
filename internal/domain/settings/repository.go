package settings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Repository defines settings data access
type Repository interface {
	Get(ctx context.Context) (*Settings, error)
	Upsert(ctx context.Context, s *Settings) error
}

type repository struct {
	db *sqlx.DB
}

// NewRepository creates settings repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Get(ctx context.Context) (*Settings, error) {
	query := `
		SELECT
			id, commission_enabled, commission_rate, max_commission_purchases,
			min_withdrawal, withdrawal_cooldown_days, max_wallet_usage_percent,
			gst_rate, seller_state_code, whatsapp_number, updated_at
		FROM settings
		WHERE id = 'app'
	`
	var s Settings
	err := r.db.GetContext(ctx, &s, query)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("settings repository get: %w", err)
	}
	return &s, nil
}

func (r *repository) Upsert(ctx context.Context, s *Settings) error {
	query := `
		INSERT INTO settings (
			id, commission_enabled, commission_rate, max_commission_purchases,
			min_withdrawal, withdrawal_cooldown_days, max_wallet_usage_percent,
			gst_rate, seller_state_code, whatsapp_number, updated_at
		)
		VALUES ('app', $1, $2, $3, $4, $5, $6, $7, $8, $9, now())
		ON CONFLICT (id) DO UPDATE SET
			commission_enabled = EXCLUDED.commission_enabled,
			commission_rate = EXCLUDED.commission_rate,
			max_commission_purchases = EXCLUDED.max_commission_purchases,
			min_withdrawal = EXCLUDED.min_withdrawal,
			withdrawal_cooldown_days = EXCLUDED.withdrawal_cooldown_days,
			max_wallet_usage_percent = EXCLUDED.max_wallet_usage_percent,
			gst_rate = EXCLUDED.gst_rate,
			seller_state_code = EXCLUDED.seller_state_code,
			whatsapp_number = EXCLUDED.whatsapp_number,
			updated_at = now()
	`
	_, err := r.db.ExecContext(ctx, query,
		s.CommissionEnabled,
		s.CommissionRate,
		s.MaxCommissionPurchases,
		s.MinWithdrawal,
		s.WithdrawalCooldownDays,
		s.MaxWalletUsagePercent,
		s.GSTRate,
		s.SellerStateCode,
		s.WhatsAppNumber,
	)
	if err != nil {
		return fmt.Errorf("settings repository upsert: %w", err)
	}
	return nil
}
