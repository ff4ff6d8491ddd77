package invoice

import (
	"context"
	"fmt"
	"time"

	"github.com/innovative-archive/shop-api/internal/domain/order"
	"github.com/innovative-archive/shop-api/internal/domain/settings"
	"github.com/innovative-archive/shop-api/internal/pkg/gst"
)

// SettingsProvider supplies the GST configuration.
type SettingsProvider interface {
	Get(ctx context.Context) (*settings.Settings, error)
}

// Service builds invoice documents from orders. Rendering to PDF is
// left to an external consumer of the document structure.
type Service struct {
	settings SettingsProvider
}

// NewService creates invoice service
func NewService(settingsProvider SettingsProvider) *Service {
	return &Service{settings: settingsProvider}
}

// Build derives the tax document for an order. The buyer state code
// captured at checkout decides intrastate vs interstate; orders without
// one are treated as intrastate.
func (s *Service) Build(ctx context.Context, o *order.Order) (*Invoice, error) {
	cfg, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}

	buyerState := cfg.SellerStateCode
	if o.BuyerStateCode.Valid && o.BuyerStateCode.String != "" {
		buyerState = o.BuyerStateCode.String
	}

	inv := &Invoice{
		Number:         invoiceNumber(o),
		OrderID:        o.ID,
		IssuedAt:       time.Now().UTC(),
		SellerState:    cfg.SellerStateCode,
		BuyerState:     buyerState,
		Interstate:     buyerState != cfg.SellerStateCode,
		Lines:          make([]Line, 0, len(o.Items)),
		TotalInclusive: o.Total,
		GSTRate:        cfg.GSTRate,
		WalletUsed:     o.WalletUsed,
		AmountDue:      o.Total - o.WalletUsed,
	}

	for _, it := range o.Items {
		amount := it.Price * int64(it.Quantity)
		split := gst.Split(float64(amount), cfg.GSTRate, buyerState)
		inv.Lines = append(inv.Lines, Line{
			Name:      it.Name,
			Quantity:  it.Quantity,
			UnitPrice: it.Price,
			Amount:    amount,
			Taxable:   split.BasePrice,
			GST:       split.GSTAmount,
		})
	}

	total := gst.Split(float64(o.Total), cfg.GSTRate, buyerState)
	inv.TaxableValue = total.BasePrice
	inv.CGST = total.CGST
	inv.SGST = total.SGST
	inv.IGST = total.IGST

	return inv, nil
}

// invoiceNumber keys the invoice to the order so rebuilding yields the
// same number.
func invoiceNumber(o *order.Order) string {
	return fmt.Sprintf("INV-%s-%s", o.CreatedAt.Format("200601"), o.ID.String()[:8])
}
