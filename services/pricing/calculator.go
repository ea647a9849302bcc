package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Breakdown is the GST breakup shown at checkout and on invoices.
// CGST+SGST (intra-state) and IGST (inter-state) are alternative
// presentations of GSTAmount; exactly one of them is populated.
type Breakdown struct {
	BaseAmount  Paise           `json:"base_amount"`
	GSTPercent  decimal.Decimal `json:"gst_percent"`
	GSTAmount   Paise           `json:"gst_amount"`
	CGSTAmount  Paise           `json:"cgst_amount"`
	SGSTAmount  Paise           `json:"sgst_amount"`
	IGSTAmount  Paise           `json:"igst_amount"`
	TotalAmount Paise           `json:"total_amount"`
	IntraState  bool            `json:"intra_state"`
	BuyerState  StateCode       `json:"buyer_state,omitempty"`
}

type Calculator struct {
	sellerState StateCode
}

// NewCalculator returns a calculator for a seller registered in sellerState.
func NewCalculator(sellerState StateCode) (*Calculator, error) {
	if !sellerState.Valid() {
		return nil, fmt.Errorf("seller state %q: %w", sellerState, ErrUnknownState)
	}
	return &Calculator{sellerState: sellerState}, nil
}

// IsIntraState reports whether CGST/SGST applies to a buyer in buyer.
func (c *Calculator) IsIntraState(buyer StateCode) bool {
	return buyer == c.sellerState
}

// Forward computes the breakdown for a tax-exclusive base price.
func (c *Calculator) Forward(base Paise, rate Rate, buyer StateCode) (Breakdown, error) {
	if base < 0 {
		return Breakdown{}, fmt.Errorf("%w: base %d paise", ErrInvalidAmount, int64(base))
	}
	if !rate.IsSet() {
		return Breakdown{}, ErrRateRequired
	}

	gst := roundPaise(decimal.NewFromInt(int64(base)).Mul(rate.percent).Div(hundred))

	b := Breakdown{
		BaseAmount:  base,
		GSTPercent:  rate.percent,
		GSTAmount:   gst,
		TotalAmount: base + gst,
		BuyerState:  buyer,
	}
	c.split(&b)
	return b, nil
}

// Inverse recovers the breakdown from a tax-inclusive total, as reported by
// the backend after payment.
func (c *Calculator) Inverse(total Paise, rate Rate, buyer StateCode) (Breakdown, error) {
	if total < 0 {
		return Breakdown{}, fmt.Errorf("%w: total %d paise", ErrInvalidAmount, int64(total))
	}
	if !rate.IsSet() {
		return Breakdown{}, ErrRateRequired
	}

	divisor := hundred.Add(rate.percent)
	base := roundPaise(decimal.NewFromInt(int64(total)).Mul(hundred).Div(divisor))

	b := Breakdown{
		BaseAmount:  base,
		GSTPercent:  rate.percent,
		GSTAmount:   total - base,
		TotalAmount: total,
		BuyerState:  buyer,
	}
	c.split(&b)
	return b, nil
}

func (c *Calculator) split(b *Breakdown) {
	if !c.IsIntraState(b.BuyerState) {
		b.IGSTAmount = b.GSTAmount
		return
	}
	// An odd paisa goes to CGST so that CGST+SGST always equals GST.
	b.IntraState = true
	b.CGSTAmount = roundPaise(decimal.NewFromInt(int64(b.GSTAmount)).Div(two))
	b.SGSTAmount = b.GSTAmount - b.CGSTAmount
}
