package handlers

import (
	"context"
	"net/http"
	"strconv"

	"serverpe-gateway/middleware"
	"serverpe-gateway/models"
	"serverpe-gateway/services/auth"
	"serverpe-gateway/services/serverpe"
	"serverpe-gateway/utils"
)

// AdminHandler fronts the backend's admin API. Access is gated by
// middleware.RequireAdmin; the backend enforces it again.
type AdminHandler struct {
	responder
	client *serverpe.Client
}

func NewAdminHandler(store *middleware.SessionStore, flow *auth.Flow, client *serverpe.Client) *AdminHandler {
	return &AdminHandler{responder: responder{store: store, flow: flow}, client: client}
}

func (h *AdminHandler) Analytics(w http.ResponseWriter, r *http.Request) {
	overview, err := h.client.AnalyticsOverview(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, r, "", overview)
}

func (h *AdminHandler) Licenses(w http.ResponseWriter, r *http.Request) {
	licenses, err := h.client.Licenses(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if licenses == nil {
		licenses = []models.License{}
	}
	h.ok(w, r, "", licenses)
}

func (h *AdminHandler) CreateLicense(w http.ResponseWriter, r *http.Request) {
	in, err := h.licenseInput(w, r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	license, err := h.client.CreateLicense(r.Context(), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, r, "License created", license)
}

func (h *AdminHandler) UpdateLicense(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	in, err := h.licenseInput(w, r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	license, err := h.client.UpdateLicense(r.Context(), id, in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, r, "License updated", license)
}

func (h *AdminHandler) DeleteLicense(w http.ResponseWriter, r *http.Request) {
	h.licenseAction(w, r, "License deleted", h.client.DeleteLicense)
}

func (h *AdminHandler) ResetFingerprint(w http.ResponseWriter, r *http.Request) {
	h.licenseAction(w, r, "Device binding reset", h.client.ResetFingerprint)
}

func (h *AdminHandler) ActivateLicense(w http.ResponseWriter, r *http.Request) {
	h.licenseAction(w, r, "License activated", func(ctx context.Context, id int64) error {
		return h.client.SetLicenseActive(ctx, id, true)
	})
}

func (h *AdminHandler) DeactivateLicense(w http.ResponseWriter, r *http.Request) {
	h.licenseAction(w, r, "License deactivated", func(ctx context.Context, id int64) error {
		return h.client.SetLicenseActive(ctx, id, false)
	})
}

func (h *AdminHandler) Users(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit > 100 {
		limit = 100
	}

	users, err := h.client.Users(r.Context(), page, limit)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, r, "", users)
}

func (h *AdminHandler) GrantAdmin(w http.ResponseWriter, r *http.Request) {
	h.setAdmin(w, r, true)
}

func (h *AdminHandler) RevokeAdmin(w http.ResponseWriter, r *http.Request) {
	h.setAdmin(w, r, false)
}

func (h *AdminHandler) SystemHealth(w http.ResponseWriter, r *http.Request) {
	health, err := h.client.SystemHealth(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, r, "", health)
}

func (h *AdminHandler) setAdmin(w http.ResponseWriter, r *http.Request, grant bool) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	// An admin cannot revoke their own role.
	self := middleware.SessionFromContext(r.Context()).Profile
	if !grant && self != nil && self.UserID == id {
		h.fail(w, r, utils.FieldErrors{"user_id": "You cannot revoke your own admin access"})
		return
	}

	if err := h.client.SetAdmin(r.Context(), id, grant); err != nil {
		h.fail(w, r, err)
		return
	}

	msg := "Admin access revoked"
	if grant {
		msg = "Admin access granted"
	}
	h.ok(w, r, msg, nil)
}

func (h *AdminHandler) licenseInput(w http.ResponseWriter, r *http.Request) (models.LicenseInput, error) {
	var in models.LicenseInput
	if err := decodeJSON(w, r, &in); err != nil {
		return in, err
	}

	fields := utils.FieldErrors{}
	if in.UserID <= 0 {
		fields.Add("user_id", "Select a user")
	}
	if in.ProjectID <= 0 {
		fields.Add("project_id", "Select a project")
	}
	return in, fields.Err()
}

func (h *AdminHandler) licenseAction(w http.ResponseWriter, r *http.Request, msg string, action func(context.Context, int64) error) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := action(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, r, msg, nil)
}
