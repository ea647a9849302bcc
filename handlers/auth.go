package handlers

import (
	"net/http"

	"serverpe-gateway/middleware"
	"serverpe-gateway/models"
	"serverpe-gateway/services/auth"
)

type AuthHandler struct {
	responder
}

func NewAuthHandler(store *middleware.SessionStore, flow *auth.Flow) *AuthHandler {
	return &AuthHandler{responder{store: store, flow: flow}}
}

type redirectView struct {
	Session  auth.View `json:"session"`
	Redirect string    `json:"redirect"`
}

// Session reports where the visitor is in the login and subscribe flows.
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	h.ok(w, r, "", middleware.SessionFromContext(r.Context()).View())
}

func (h *AuthHandler) RequestLoginOTP(w http.ResponseWriter, r *http.Request) {
	var req models.LoginOTPRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	sess := middleware.SessionFromContext(r.Context())
	if err := h.flow.RequestLoginOTP(r.Context(), sess, req.Contact, req.ReturnTo); err != nil {
		h.fail(w, r, err)
		return
	}
	h.okSession(w, r, "OTP sent successfully", sess.View())
}

func (h *AuthHandler) VerifyLoginOTP(w http.ResponseWriter, r *http.Request) {
	var req models.LoginVerifyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	sess := middleware.SessionFromContext(r.Context())
	dest, err := h.flow.VerifyLoginOTP(r.Context(), sess, req.OTP)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.okSession(w, r, "Login successful", redirectView{Session: sess.View(), Redirect: dest})
}

func (h *AuthHandler) RequestSubscriptionOTP(w http.ResponseWriter, r *http.Request) {
	var draft models.SubscriptionDraft
	if err := decodeJSON(w, r, &draft); err != nil {
		h.fail(w, r, err)
		return
	}

	sess := middleware.SessionFromContext(r.Context())
	if err := h.flow.RequestSubscriptionOTP(r.Context(), sess, draft); err != nil {
		h.fail(w, r, err)
		return
	}
	h.okSession(w, r, "OTP sent to your mobile number and email", sess.View())
}

func (h *AuthHandler) VerifySubscriptionOTP(w http.ResponseWriter, r *http.Request) {
	var req models.SubscriptionVerifyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	sess := middleware.SessionFromContext(r.Context())
	dest, err := h.flow.VerifySubscriptionOTP(r.Context(), sess, req.MobileOTP, req.EmailOTP)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.okSession(w, r, "Subscription successful. Please log in to continue.", redirectView{Session: sess.View(), Redirect: dest})
}

// Back abandons a pending OTP and returns to the entry form.
func (h *AuthHandler) Back(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromContext(r.Context())
	if err := h.flow.Back(sess); err != nil {
		h.fail(w, r, err)
		return
	}
	h.okSession(w, r, "", sess.View())
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromContext(r.Context())
	h.flow.Logout(r.Context(), sess)
	h.okSession(w, r, "Logged out", sess.View())
}
