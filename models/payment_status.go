package models

type PaymentStatus string

const (
	PaymentStatusCreated   PaymentStatus = "created"
	PaymentStatusAttempted PaymentStatus = "attempted"
	PaymentStatusPaid      PaymentStatus = "paid"
	PaymentStatusFailed    PaymentStatus = "failed"
)

func (ps PaymentStatus) String() string {
	if ps.IsValid() {
		return string(ps)
	}
	return "unknown"
}

func (ps PaymentStatus) IsValid() bool {
	switch ps {
	case PaymentStatusCreated, PaymentStatusAttempted, PaymentStatusPaid, PaymentStatusFailed:
		return true
	}
	return false
}

// CanMoveTo reports whether a record in this status may be moved to next.
// Paid never changes; failed can still become paid.
func (ps PaymentStatus) CanMoveTo(next PaymentStatus) bool {
	switch ps {
	case PaymentStatusPaid:
		return false
	case PaymentStatusFailed:
		return next == PaymentStatusPaid
	}
	return next != PaymentStatusCreated
}
