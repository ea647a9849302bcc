package models

import (
	"time"

	"github.com/shopspring/decimal"

	"serverpe-gateway/services/pricing"
)

type Purchase struct {
	OrderID      string        `json:"order_id"`
	ProjectID    int64         `json:"project_id"`
	ProjectTitle string        `json:"project_title"`
	Amount       pricing.Paise `json:"amount"`
	Status       PaymentStatus `json:"payment_status"`
	LicenseKey   string        `json:"license_key,omitempty"`
	PurchasedAt  time.Time     `json:"purchased_at"`
}

// OrderDetails is the server-confirmed view of an order. Totals shown after
// payment are always derived from this, never from what the client held.
type OrderDetails struct {
	OrderID      string           `json:"order_id"`
	PaymentID    string           `json:"payment_id,omitempty"`
	ProjectID    int64            `json:"project_id"`
	ProjectTitle string           `json:"project_title"`
	TotalAmount  pricing.Paise    `json:"total_amount"`
	GSTPercent   *decimal.Decimal `json:"gst_percent"`
	BuyerName    string           `json:"buyer_name"`
	BuyerEmail   string           `json:"buyer_email"`
	BuyerMobile  string           `json:"buyer_mobile"`
	BuyerState   string           `json:"buyer_state"`
	Status       PaymentStatus    `json:"payment_status"`
	PaidAt       *time.Time       `json:"paid_at,omitempty"`
}

// PaymentOrderRequest asks the backend to open a gateway order.
// Amounts exchanged with the gateway are integer paise.
type PaymentOrderRequest struct {
	ProjectID   int64             `json:"project_id"`
	AmountPaise int64             `json:"amount"`
	Currency    string            `json:"currency"`
	BuyerState  pricing.StateCode `json:"buyer_state_code"`
}

type PaymentOrder struct {
	OrderID     string `json:"order_id"`
	AmountPaise int64  `json:"amount"`
	Currency    string `json:"currency"`
}

// GatewayResult is what the hosted checkout widget hands back to the SPA.
// Either the three razorpay_* fields or Error is populated.
type GatewayResult struct {
	OrderID   string        `json:"razorpay_order_id"`
	PaymentID string        `json:"razorpay_payment_id"`
	Signature string        `json:"razorpay_signature"`
	Error     *GatewayError `json:"error,omitempty"`
}

type GatewayError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
	Reason      string `json:"reason,omitempty"`
}

type PaymentStatusResponse struct {
	OrderID   string        `json:"order_id"`
	PaymentID string        `json:"payment_id,omitempty"`
	Status    PaymentStatus `json:"payment_status"`
}

// PaymentRecord is the gateway's own ledger row for a payment order.
type PaymentRecord struct {
	ID            string            `json:"id"`
	OrderID       string            `json:"order_id"`
	PaymentID     string            `json:"payment_id,omitempty"`
	UserID        int64             `json:"user_id"`
	ProjectID     int64             `json:"project_id"`
	Amount        pricing.Paise     `json:"amount"`
	GSTPercent    decimal.Decimal   `json:"gst_percent"`
	BuyerState    pricing.StateCode `json:"buyer_state"`
	Status        PaymentStatus     `json:"status"`
	FailureReason string            `json:"failure_reason,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}
