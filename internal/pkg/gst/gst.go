package gst

import "math"

// SellerStateCode is the GST state code the store ships from (Manipur).
const SellerStateCode = "14"

// Breakup is the GST split for a tax-inclusive amount.
// CGST+SGST apply for intrastate sales, IGST for interstate.
type Breakup struct {
	BasePrice float64 `json:"base_price"`
	GSTAmount float64 `json:"gst_amount"`
	CGST      float64 `json:"cgst"`
	SGST      float64 `json:"sgst"`
	IGST      float64 `json:"igst"`
}

// round2 rounds half-up to 2 decimals.
func round2(v float64) float64 {
	return math.Floor(v*100+0.5) / 100
}

// Split computes the GST breakup of a tax-inclusive total at the given
// percentage rate. buyerStateCode decides intrastate vs interstate.
func Split(totalInclusive float64, ratePercent float64, buyerStateCode string) Breakup {
	base := round2(totalInclusive / (1 + ratePercent/100))
	amount := round2(totalInclusive - base)

	b := Breakup{
		BasePrice: base,
		GSTAmount: amount,
	}

	if buyerStateCode == SellerStateCode {
		half := round2(amount / 2)
		b.CGST = half
		b.SGST = round2(amount - half)
	} else {
		b.IGST = amount
	}

	return b
}
