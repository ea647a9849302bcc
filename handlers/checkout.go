package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"serverpe-gateway/middleware"
	"serverpe-gateway/models"
	"serverpe-gateway/services/auth"
	"serverpe-gateway/services/checkout"
	"serverpe-gateway/utils"
)

type CheckoutHandler struct {
	responder
	svc *checkout.Service
}

func NewCheckoutHandler(store *middleware.SessionStore, flow *auth.Flow, svc *checkout.Service) *CheckoutHandler {
	return &CheckoutHandler{responder: responder{store: store, flow: flow}, svc: svc}
}

type quoteRequest struct {
	ProjectID  int64  `json:"project_id"`
	BuyerState string `json:"buyer_state"`
}

type orderRequest struct {
	QuoteToken string `json:"quote_token"`
}

// Quote prices a project for the signed-in buyer.
func (h *CheckoutHandler) Quote(w http.ResponseWriter, r *http.Request) {
	var req quoteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if req.ProjectID <= 0 {
		h.fail(w, r, utils.FieldErrors{"project_id": "Select a project"})
		return
	}

	user := middleware.SessionFromContext(r.Context()).Profile
	quote, err := h.svc.Quote(r.Context(), user, req.ProjectID, req.BuyerState)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, r, "", quote)
}

// CreateOrder opens the payment gateway order for a quote.
func (h *CheckoutHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req orderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if strings.TrimSpace(req.QuoteToken) == "" {
		h.fail(w, r, checkout.ErrInvalidQuote)
		return
	}

	user := middleware.SessionFromContext(r.Context()).Profile
	intent, err := h.svc.CreatePaymentOrder(r.Context(), user, req.QuoteToken)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, r, "", intent)
}

// Verify receives whatever the hosted widget reported, success or failure.
func (h *CheckoutHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var result models.GatewayResult
	if err := decodeJSON(w, r, &result); err != nil {
		h.fail(w, r, err)
		return
	}

	user := middleware.SessionFromContext(r.Context()).Profile
	summary, err := h.svc.VerifyPayment(r.Context(), user, result)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, r, "Payment successful", summary)
}

func (h *CheckoutHandler) Status(w http.ResponseWriter, r *http.Request) {
	status, err := h.svc.PaymentStatus(r.Context(), mux.Vars(r)["orderID"])
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, r, "", status)
}

// Order is the success page and order detail view.
func (h *CheckoutHandler) Order(w http.ResponseWriter, r *http.Request) {
	summary, err := h.svc.OrderSummary(r.Context(), mux.Vars(r)["orderID"])
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, r, "", summary)
}

// Invoice streams the backend's PDF back to the browser as a download.
func (h *CheckoutHandler) Invoice(w http.ResponseWriter, r *http.Request) {
	doc, err := h.svc.Invoice(r.Context(), mux.Vars(r)["orderID"])
	if err != nil {
		h.fail(w, r, err)
		return
	}

	_ = h.save(w, r, false)
	w.Header().Set("Content-Type", doc.ContentType)
	w.Header().Set("Content-Disposition", "attachment; filename="+strconv.Quote(doc.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(doc.Body)))
	w.WriteHeader(http.StatusOK)
	w.Write(doc.Body)
}
