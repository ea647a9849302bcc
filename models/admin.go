package models

import (
	"time"

	"serverpe-gateway/services/pricing"
)

type AnalyticsOverview struct {
	TotalUsers     int64         `json:"total_users"`
	TotalOrders    int64         `json:"total_orders"`
	PaidOrders     int64         `json:"paid_orders"`
	TotalRevenue   pricing.Paise `json:"total_revenue"`
	ActiveLicenses int64         `json:"active_licenses"`
	RecentOrders   []Purchase    `json:"recent_orders"`
}

type License struct {
	ID           int64      `json:"license_id"`
	LicenseKey   string     `json:"license_key"`
	UserID       int64      `json:"user_id"`
	UserEmail    string     `json:"user_email"`
	ProjectID    int64      `json:"project_id"`
	ProjectTitle string     `json:"project_title"`
	IsActive     bool       `json:"is_active"`
	Fingerprint  string     `json:"device_fingerprint,omitempty"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

type LicenseInput struct {
	UserID    int64      `json:"user_id"`
	ProjectID int64      `json:"project_id"`
	IsActive  *bool      `json:"is_active,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

type AdminUser struct {
	UserProfile
	CreatedAt time.Time `json:"created_at"`
}

type UserPage struct {
	Users []AdminUser `json:"users"`
	Page  int         `json:"page"`
	Limit int         `json:"limit"`
	Total int64       `json:"total"`
}

type SystemHealth struct {
	Status   string            `json:"status"`
	Uptime   string            `json:"uptime"`
	Services map[string]string `json:"services"`
}
