package handlers

import (
	"net/http"
	"strings"

	"serverpe-gateway/middleware"
	"serverpe-gateway/models"
	"serverpe-gateway/services/auth"
	"serverpe-gateway/services/serverpe"
	"serverpe-gateway/utils"
)

type AccountHandler struct {
	responder
	client *serverpe.Client
}

func NewAccountHandler(store *middleware.SessionStore, flow *auth.Flow, client *serverpe.Client) *AccountHandler {
	return &AccountHandler{responder: responder{store: store, flow: flow}, client: client}
}

// Profile refreshes the cached profile in the session as a side effect.
func (h *AccountHandler) Profile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.client.Profile(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}

	sess := middleware.SessionFromContext(r.Context())
	sess.Profile = profile
	h.okSession(w, r, "", profile)
}

func (h *AccountHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var update models.ProfileUpdate
	if err := decodeJSON(w, r, &update); err != nil {
		h.fail(w, r, err)
		return
	}

	fields := utils.FieldErrors{}
	if update.Name != nil {
		name := strings.TrimSpace(*update.Name)
		if !utils.IsValidName(name) {
			fields.Add("user_name", "Enter your full name")
		}
		update.Name = &name
	}
	if update.StateID != nil && *update.StateID <= 0 {
		fields.Add("state_id", "Select your state")
	}
	if update.CollegeID != nil && *update.CollegeID <= 0 {
		fields.Add("college_id", "Select your college")
	}
	if err := fields.Err(); err != nil {
		h.fail(w, r, err)
		return
	}

	profile, err := h.client.UpdateProfile(r.Context(), update)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	sess := middleware.SessionFromContext(r.Context())
	sess.Profile = profile
	h.okSession(w, r, "Profile updated", profile)
}

func (h *AccountHandler) Purchases(w http.ResponseWriter, r *http.Request) {
	purchases, err := h.client.Purchases(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if purchases == nil {
		purchases = []models.Purchase{}
	}
	h.ok(w, r, "", purchases)
}
