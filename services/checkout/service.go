package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"serverpe-gateway/config"
	"serverpe-gateway/database"
	"serverpe-gateway/logger"
	"serverpe-gateway/models"
	"serverpe-gateway/services/pricing"
	"serverpe-gateway/services/serverpe"
)

const currencyINR = "INR"

var (
	ErrAmountMismatch         = errors.New("payment order amount does not match the quote")
	ErrIncompletePayment      = errors.New("payment result is incomplete")
	ErrUnknownOrder           = errors.New("unknown payment order")
	ErrVerificationInProgress = errors.New("payment verification already in progress")
)

// Backend is the slice of the ServerPe API used by checkout.
type Backend interface {
	Project(ctx context.Context, id int64) (*models.Project, error)
	CreatePaymentOrder(ctx context.Context, in models.PaymentOrderRequest) (*models.PaymentOrder, error)
	VerifyPayment(ctx context.Context, result models.GatewayResult) error
	Order(ctx context.Context, orderID string) (*models.OrderDetails, error)
	PaymentStatus(ctx context.Context, orderID string) (*models.PaymentStatusResponse, error)
	Invoice(ctx context.Context, orderID string) (*serverpe.Document, error)
}

// Ledger records every payment order this gateway opened.
type Ledger interface {
	LockOrder(ctx context.Context, orderID string) (bool, error)
	ReleaseOrderLock(ctx context.Context, orderID string) error
	RecordPaymentOrder(ctx context.Context, rec *models.PaymentRecord) error
	MarkPaymentVerified(ctx context.Context, orderID, paymentID string) error
	MarkPaymentFailed(ctx context.Context, orderID, reason string) error
	MarkPaymentAttempted(ctx context.Context, orderID, reason string) error
	GetPaymentRecord(ctx context.Context, orderID string) (*models.PaymentRecord, error)
}

type Service struct {
	backend  Backend
	ledger   Ledger
	calc     *pricing.Calculator
	quotes   *quoteSigner
	keyID    string
	merchant string
}

func NewService(backend Backend, ledger Ledger, cfg config.CheckoutConfig) (*Service, error) {
	calc, err := pricing.NewCalculator(pricing.StateCode(cfg.SellerStateCode))
	if err != nil {
		return nil, err
	}
	if cfg.QuoteSecret == "" {
		return nil, errors.New("quote signing secret is required")
	}
	ttl := cfg.QuoteTTL
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}

	return &Service{
		backend:  backend,
		ledger:   ledger,
		calc:     calc,
		quotes:   &quoteSigner{secret: []byte(cfg.QuoteSecret), ttl: ttl, now: time.Now},
		keyID:    cfg.GatewayKeyID,
		merchant: cfg.MerchantName,
	}, nil
}

type Quote struct {
	Token        string            `json:"quote_token"`
	ExpiresAt    time.Time         `json:"expires_at"`
	ProjectID    int64             `json:"project_id"`
	ProjectTitle string            `json:"project_title"`
	Breakdown    pricing.Breakdown `json:"breakdown"`
}

// Quote prices projectID for user. buyerState may be a GST code, an
// abbreviation or a state name; empty falls back to the profile's state.
func (s *Service) Quote(ctx context.Context, user *models.UserProfile, projectID int64, buyerState string) (*Quote, error) {
	project, err := s.backend.Project(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project.GSTPercent == nil {
		return nil, fmt.Errorf("project %d: %w", projectID, pricing.ErrRateRequired)
	}
	rate, err := pricing.NewRate(*project.GSTPercent)
	if err != nil {
		return nil, fmt.Errorf("project %d: %w", projectID, err)
	}

	if strings.TrimSpace(buyerState) == "" {
		buyerState = user.State
	}
	buyer, err := pricing.ResolveStateCode(buyerState)
	if err != nil {
		return nil, fmt.Errorf("buyer state %q: %w", buyerState, err)
	}

	breakdown, err := s.calc.Forward(project.Price, rate, buyer)
	if err != nil {
		return nil, err
	}

	token, expires, err := s.quotes.sign(user.UserID, project.ID, breakdown)
	if err != nil {
		return nil, err
	}

	return &Quote{
		Token:        token,
		ExpiresAt:    expires,
		ProjectID:    project.ID,
		ProjectTitle: project.Title,
		Breakdown:    breakdown,
	}, nil
}

type Prefill struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Contact string `json:"contact"`
}

// PaymentIntent carries what the hosted checkout widget is opened with.
type PaymentIntent struct {
	KeyID       string  `json:"key"`
	OrderID     string  `json:"order_id"`
	AmountPaise int64   `json:"amount"`
	Currency    string  `json:"currency"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Prefill     Prefill `json:"prefill"`
}

// CreatePaymentOrder opens a gateway order for the amount pinned in
// quoteToken and records it in the ledger.
func (s *Service) CreatePaymentOrder(ctx context.Context, user *models.UserProfile, quoteToken string) (*PaymentIntent, error) {
	claims, err := s.quotes.parse(quoteToken)
	if err != nil {
		return nil, err
	}
	if claims.UserID != user.UserID {
		return nil, ErrInvalidQuote
	}
	rate, err := claims.rate()
	if err != nil {
		return nil, err
	}

	order, err := s.backend.CreatePaymentOrder(ctx, models.PaymentOrderRequest{
		ProjectID:   claims.ProjectID,
		AmountPaise: claims.Total,
		Currency:    currencyINR,
		BuyerState:  claims.BuyerState,
	})
	if err != nil {
		return nil, err
	}
	if order.AmountPaise != claims.Total {
		logger.Log.Error("payment order amount mismatch",
			zap.String("order_id", order.OrderID),
			zap.Int64("quoted", claims.Total),
			zap.Int64("ordered", order.AmountPaise),
		)
		return nil, ErrAmountMismatch
	}

	rec := &models.PaymentRecord{
		ID:         uuid.NewString(),
		OrderID:    order.OrderID,
		UserID:     user.UserID,
		ProjectID:  claims.ProjectID,
		Amount:     pricing.Paise(order.AmountPaise),
		GSTPercent: rate.Percent(),
		BuyerState: claims.BuyerState,
		Status:     models.PaymentStatusCreated,
	}
	if err := s.ledger.RecordPaymentOrder(ctx, rec); err != nil {
		return nil, fmt.Errorf("record payment order %s: %w", order.OrderID, err)
	}

	currency := order.Currency
	if currency == "" {
		currency = currencyINR
	}

	logger.Log.Info("payment order created",
		zap.String("order_id", order.OrderID),
		zap.Int64("user_id", user.UserID),
		zap.Int64("project_id", claims.ProjectID),
		zap.Int64("amount_paise", order.AmountPaise),
	)

	return &PaymentIntent{
		KeyID:       s.keyID,
		OrderID:     order.OrderID,
		AmountPaise: order.AmountPaise,
		Currency:    currency,
		Name:        s.merchant,
		Description: fmt.Sprintf("Project #%d", claims.ProjectID),
		Prefill: Prefill{
			Name:    user.Name,
			Email:   user.Email,
			Contact: user.Mobile,
		},
	}, nil
}

// Summary is the success and invoice page view of an order. The breakdown is
// recomputed from the backend's confirmed total, never from the quote.
type Summary struct {
	Order     *models.OrderDetails `json:"order"`
	Breakdown pricing.Breakdown    `json:"breakdown"`
}

// VerifyPayment completes a payment reported by the widget.
func (s *Service) VerifyPayment(ctx context.Context, user *models.UserProfile, result models.GatewayResult) (*Summary, error) {
	if result.Error != nil {
		if result.OrderID != "" {
			if err := s.ledger.MarkPaymentAttempted(ctx, result.OrderID, result.Error.Description); err != nil && !errors.Is(err, database.ErrPaymentNotFound) {
				logger.Log.Warn("could not record failed attempt", zap.String("order_id", result.OrderID), zap.Error(err))
			}
		}
		return nil, serverpe.PaymentError(result.Error.Code, result.Error.Description)
	}
	if result.OrderID == "" || result.PaymentID == "" || result.Signature == "" {
		return nil, ErrIncompletePayment
	}

	rec, err := s.ledger.GetPaymentRecord(ctx, result.OrderID)
	if errors.Is(err, database.ErrPaymentNotFound) {
		return nil, ErrUnknownOrder
	}
	if err != nil {
		return nil, err
	}
	if rec.UserID != user.UserID {
		return nil, ErrUnknownOrder
	}
	if rec.Status == models.PaymentStatusPaid {
		return s.OrderSummary(ctx, result.OrderID)
	}

	locked, err := s.ledger.LockOrder(ctx, result.OrderID)
	if err != nil {
		return nil, err
	}
	if !locked {
		return nil, ErrVerificationInProgress
	}
	defer func() {
		if err := s.ledger.ReleaseOrderLock(context.Background(), result.OrderID); err != nil {
			logger.Log.Warn("could not release order lock", zap.String("order_id", result.OrderID), zap.Error(err))
		}
	}()

	if err := s.backend.VerifyPayment(ctx, result); err != nil {
		if serverpe.KindOf(err) == serverpe.KindValidation {
			if merr := s.ledger.MarkPaymentFailed(ctx, result.OrderID, serverpe.MessageOf(err, "verification rejected")); merr != nil {
				logger.Log.Warn("could not mark payment failed", zap.String("order_id", result.OrderID), zap.Error(merr))
			}
		}
		return nil, err
	}

	if err := s.ledger.MarkPaymentVerified(ctx, result.OrderID, result.PaymentID); err != nil {
		// The backend already accepted the payment; the ledger catches up on
		// the next status lookup.
		logger.Log.Error("could not mark payment verified", zap.String("order_id", result.OrderID), zap.Error(err))
	}

	logger.Log.Info("payment verified",
		zap.String("order_id", result.OrderID),
		zap.String("payment_id", result.PaymentID),
		zap.Int64("user_id", user.UserID),
	)

	return s.OrderSummary(ctx, result.OrderID)
}

// OrderSummary fetches the server-confirmed order and derives its GST
// breakup from the tax-inclusive total.
func (s *Service) OrderSummary(ctx context.Context, orderID string) (*Summary, error) {
	order, err := s.backend.Order(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.GSTPercent == nil {
		return nil, fmt.Errorf("order %s: %w", orderID, pricing.ErrRateRequired)
	}
	rate, err := pricing.NewRate(*order.GSTPercent)
	if err != nil {
		return nil, fmt.Errorf("order %s: %w", orderID, err)
	}

	// An unrecognised buyer state is presented as inter-state.
	buyer, err := pricing.ResolveStateCode(order.BuyerState)
	if err != nil {
		logger.Log.Debug("unknown buyer state on order", zap.String("order_id", orderID), zap.String("state", order.BuyerState))
		buyer = ""
	}

	breakdown, err := s.calc.Inverse(order.TotalAmount, rate, buyer)
	if err != nil {
		return nil, err
	}
	return &Summary{Order: order, Breakdown: breakdown}, nil
}

// PaymentStatus asks the backend and brings the ledger up to date when the
// backend reports a final state the ledger has not seen yet. An order the
// ledger holds as failed is still moved to paid.
func (s *Service) PaymentStatus(ctx context.Context, orderID string) (*models.PaymentStatusResponse, error) {
	status, err := s.backend.PaymentStatus(ctx, orderID)
	if err != nil {
		return nil, err
	}

	rec, err := s.ledger.GetPaymentRecord(ctx, orderID)
	if err != nil {
		if !errors.Is(err, database.ErrPaymentNotFound) {
			logger.Log.Warn("ledger lookup failed", zap.String("order_id", orderID), zap.Error(err))
		}
		return status, nil
	}
	if rec.Status == status.Status || !rec.Status.CanMoveTo(status.Status) {
		return status, nil
	}

	switch status.Status {
	case models.PaymentStatusPaid:
		err = s.ledger.MarkPaymentVerified(ctx, orderID, status.PaymentID)
	case models.PaymentStatusFailed:
		err = s.ledger.MarkPaymentFailed(ctx, orderID, "reported failed by backend")
	}
	if err != nil {
		logger.Log.Warn("ledger reconcile failed", zap.String("order_id", orderID), zap.Error(err))
	}
	return status, nil
}

func (s *Service) Invoice(ctx context.Context, orderID string) (*serverpe.Document, error) {
	return s.backend.Invoice(ctx, orderID)
}
