package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"serverpe-gateway/logger"
	"serverpe-gateway/models"
	"serverpe-gateway/services/pricing"
)

var ErrPaymentNotFound = errors.New("payment record not found")

const maxFailureReason = 255

func (c *Connection) RecordPaymentOrder(ctx context.Context, rec *models.PaymentRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.Status == "" {
		rec.Status = models.PaymentStatusCreated
	}

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	_, err := c.db.ExecContext(ctx, `
		INSERT INTO payment_orders
			(id, order_id, user_id, project_id, amount_paise, gst_percent, buyer_state, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, NOW(), NOW())
	`, rec.ID, rec.OrderID, rec.UserID, rec.ProjectID, int64(rec.Amount), rec.GSTPercent.String(), string(rec.BuyerState), string(rec.Status))
	if err != nil {
		return fmt.Errorf("error saving payment order: %w", err)
	}

	logger.Log.Debug("payment order recorded", zap.String("order_id", rec.OrderID), zap.String("id", rec.ID))
	return nil
}

// MarkPaymentVerified moves an order to paid, including one that failed
// earlier. Paid orders are left alone.
func (c *Connection) MarkPaymentVerified(ctx context.Context, orderID, paymentID string) error {
	return c.updateStatus(ctx, orderID, models.PaymentStatusPaid, paymentID, "")
}

func (c *Connection) MarkPaymentFailed(ctx context.Context, orderID, reason string) error {
	return c.updateStatus(ctx, orderID, models.PaymentStatusFailed, "", truncateReason(reason))
}

// MarkPaymentAttempted notes a failure the widget reported. The order stays
// open for another attempt.
func (c *Connection) MarkPaymentAttempted(ctx context.Context, orderID, reason string) error {
	return c.updateStatus(ctx, orderID, models.PaymentStatusAttempted, "", truncateReason(reason))
}

var paymentStatuses = []models.PaymentStatus{
	models.PaymentStatusCreated,
	models.PaymentStatusAttempted,
	models.PaymentStatusPaid,
	models.PaymentStatusFailed,
}

// blockedFrom lists the statuses a record cannot leave for next.
func blockedFrom(next models.PaymentStatus) []models.PaymentStatus {
	var blocked []models.PaymentStatus
	for _, s := range paymentStatuses {
		if !s.CanMoveTo(next) {
			blocked = append(blocked, s)
		}
	}
	return blocked
}

func (c *Connection) updateStatus(ctx context.Context, orderID string, status models.PaymentStatus, paymentID, reason string) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	blocked := blockedFrom(status)
	args := []interface{}{string(status), paymentID, reason, orderID}
	for _, b := range blocked {
		args = append(args, string(b))
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(blocked)), ", ")

	result, err := c.db.ExecContext(ctx, `
		UPDATE payment_orders
		SET status = ?,
			payment_id = COALESCE(NULLIF(?, ''), payment_id),
			failure_reason = NULLIF(?, ''),
			updated_at = NOW()
		WHERE order_id = ? AND status NOT IN (`+placeholders+`)
	`, args...)
	if err != nil {
		return fmt.Errorf("error updating payment order %s: %w", orderID, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		var exists bool
		if err := c.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM payment_orders WHERE order_id = ?)`, orderID).Scan(&exists); err != nil {
			return fmt.Errorf("error checking payment order %s: %w", orderID, err)
		}
		if !exists {
			return ErrPaymentNotFound
		}
	}
	return nil
}

func (c *Connection) GetPaymentRecord(ctx context.Context, orderID string) (*models.PaymentRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var (
		rec        models.PaymentRecord
		paymentID  sql.NullString
		reason     sql.NullString
		amount     int64
		gstPercent string
		buyerState string
		status     string
	)
	err := c.db.QueryRowContext(ctx, `
		SELECT id, order_id, payment_id, user_id, project_id, amount_paise, gst_percent,
			buyer_state, status, failure_reason, created_at, updated_at
		FROM payment_orders
		WHERE order_id = ?
	`, orderID).Scan(
		&rec.ID,
		&rec.OrderID,
		&paymentID,
		&rec.UserID,
		&rec.ProjectID,
		&amount,
		&gstPercent,
		&buyerState,
		&status,
		&reason,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPaymentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error getting payment order %s: %w", orderID, err)
	}

	pct, err := decimal.NewFromString(gstPercent)
	if err != nil {
		return nil, fmt.Errorf("payment order %s has bad gst_percent %q: %w", orderID, gstPercent, err)
	}

	rec.PaymentID = paymentID.String
	rec.FailureReason = reason.String
	rec.Amount = pricing.Paise(amount)
	rec.GSTPercent = pct
	rec.BuyerState = pricing.StateCode(buyerState)
	rec.Status = models.PaymentStatus(status)
	return &rec, nil
}

func truncateReason(reason string) string {
	r := []rune(reason)
	if len(r) <= maxFailureReason {
		return reason
	}
	return string(r[:maxFailureReason])
}
