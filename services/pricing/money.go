package pricing

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidRate   = errors.New("invalid gst rate")
	ErrRateRequired  = errors.New("gst rate is required")
)

var (
	hundred = decimal.NewFromInt(100)
	two     = decimal.NewFromInt(2)
)

// Paise is an INR amount in minor units. All arithmetic stays in integers;
// decimal rupees only appear when parsing input or rendering output.
type Paise int64

// ParseRupees parses a decimal rupee string such as "1499" or "1499.50".
// Fractions of a paisa are rounded half away from zero.
func ParseRupees(s string) (Paise, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return FromDecimal(d)
}

// FromDecimal converts a rupee amount into paise.
func FromDecimal(d decimal.Decimal) (Paise, error) {
	if d.IsNegative() {
		return 0, fmt.Errorf("%w: %s is negative", ErrInvalidAmount, d.String())
	}
	return roundPaise(d.Mul(hundred)), nil
}

// Decimal returns the amount in rupees.
func (p Paise) Decimal() decimal.Decimal {
	return decimal.New(int64(p), -2)
}

// String renders the amount with exactly two decimals, e.g. "180.00".
func (p Paise) String() string {
	return p.Decimal().StringFixed(2)
}

func (p Paise) MarshalJSON() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalJSON accepts a rupee amount written either as a JSON number or a string.
func (p *Paise) UnmarshalJSON(data []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidAmount, string(data))
	}
	v, err := FromDecimal(d)
	if err != nil {
		return err
	}
	*p = v
	return nil
}

func roundPaise(d decimal.Decimal) Paise {
	// decimal.Round rounds half away from zero.
	return Paise(d.Round(0).IntPart())
}

// Rate is a GST percentage. The zero value means "not supplied" and is
// rejected by the calculator; there is no default rate.
type Rate struct {
	percent decimal.Decimal
	set     bool
}

func NewRate(percent decimal.Decimal) (Rate, error) {
	if percent.IsNegative() {
		return Rate{}, fmt.Errorf("%w: %s", ErrInvalidRate, percent.String())
	}
	return Rate{percent: percent, set: true}, nil
}

func ParseRate(s string) (Rate, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return Rate{}, fmt.Errorf("%w: %q", ErrInvalidRate, s)
	}
	return NewRate(d)
}

func (r Rate) IsSet() bool { return r.set }

func (r Rate) Percent() decimal.Decimal { return r.percent }

func (r Rate) String() string {
	if !r.set {
		return "unset"
	}
	return r.percent.String() + "%"
}
