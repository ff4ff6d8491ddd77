package invoice

import (
	"time"

	"github.com/google/uuid"
)

// Invoice is the tax document derived from an order. Amounts are
// two-decimal rupee values; line prices are tax-inclusive.
type Invoice struct {
	Number         string    `json:"number"`
	OrderID        uuid.UUID `json:"order_id"`
	IssuedAt       time.Time `json:"issued_at"`
	SellerState    string    `json:"seller_state_code"`
	BuyerState     string    `json:"buyer_state_code"`
	Interstate     bool      `json:"interstate"`
	Lines          []Line    `json:"lines"`
	TotalInclusive int64     `json:"total_inclusive"`
	TaxableValue   float64   `json:"taxable_value"`
	GSTRate        float64   `json:"gst_rate"`
	CGST           float64   `json:"cgst"`
	SGST           float64   `json:"sgst"`
	IGST           float64   `json:"igst"`
	WalletUsed     int64     `json:"wallet_used"`
	AmountDue      int64     `json:"amount_due"`
}

// Line is one invoiced item.
type Line struct {
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	UnitPrice int64   `json:"unit_price"`
	Amount    int64   `json:"amount"`
	Taxable   float64 `json:"taxable_value"`
	GST       float64 `json:"gst_amount"`
}
