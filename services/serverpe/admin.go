package serverpe

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"serverpe-gateway/models"
)

func (c *Client) AnalyticsOverview(ctx context.Context) (*models.AnalyticsOverview, error) {
	var overview models.AnalyticsOverview
	if err := c.do(ctx, request{method: http.MethodGet, path: "/admin/analytics/overview"}, &overview); err != nil {
		return nil, err
	}
	return &overview, nil
}

func (c *Client) Licenses(ctx context.Context) ([]models.License, error) {
	var licenses []models.License
	if err := c.do(ctx, request{method: http.MethodGet, path: "/admin/licenses"}, &licenses); err != nil {
		return nil, err
	}
	return licenses, nil
}

func (c *Client) CreateLicense(ctx context.Context, in models.LicenseInput) (*models.License, error) {
	var license models.License
	err := c.do(ctx, request{method: http.MethodPost, path: "/admin/licenses", body: in}, &license)
	if err != nil {
		return nil, err
	}
	return &license, nil
}

func (c *Client) UpdateLicense(ctx context.Context, id int64, in models.LicenseInput) (*models.License, error) {
	var license models.License
	err := c.do(ctx, request{method: http.MethodPut, path: licensePath(id, ""), body: in}, &license)
	if err != nil {
		return nil, err
	}
	return &license, nil
}

func (c *Client) DeleteLicense(ctx context.Context, id int64) error {
	return c.do(ctx, request{method: http.MethodDelete, path: licensePath(id, "")}, nil)
}

// ResetFingerprint unbinds a license from the device it was activated on.
func (c *Client) ResetFingerprint(ctx context.Context, id int64) error {
	return c.do(ctx, request{method: http.MethodPost, path: licensePath(id, "reset-fingerprint")}, nil)
}

func (c *Client) SetLicenseActive(ctx context.Context, id int64, active bool) error {
	action := "deactivate"
	if active {
		action = "activate"
	}
	return c.do(ctx, request{method: http.MethodPost, path: licensePath(id, action)}, nil)
}

func (c *Client) Users(ctx context.Context, page, limit int) (*models.UserPage, error) {
	q := url.Values{}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}

	var users models.UserPage
	if err := c.do(ctx, request{method: http.MethodGet, path: "/admin/users", query: q}, &users); err != nil {
		return nil, err
	}
	return &users, nil
}

func (c *Client) SetAdmin(ctx context.Context, userID int64, grant bool) error {
	action := "revoke-admin"
	if grant {
		action = "grant-admin"
	}
	path := fmt.Sprintf("/admin/users/%d/%s", userID, action)
	return c.do(ctx, request{method: http.MethodPost, path: path}, nil)
}

func (c *Client) SystemHealth(ctx context.Context) (*models.SystemHealth, error) {
	var health models.SystemHealth
	if err := c.do(ctx, request{method: http.MethodGet, path: "/admin/system/health"}, &health); err != nil {
		return nil, err
	}
	return &health, nil
}

func licensePath(id int64, action string) string {
	if action == "" {
		return fmt.Sprintf("/admin/licenses/%d", id)
	}
	return fmt.Sprintf("/admin/licenses/%d/%s", id, action)
}
