package models

import (
	"github.com/shopspring/decimal"

	"serverpe-gateway/services/pricing"
)

type State struct {
	ID      int64             `json:"state_id"`
	Name    string            `json:"state_name"`
	GSTCode pricing.StateCode `json:"gst_code,omitempty"`
}

type Project struct {
	ID           int64         `json:"project_id"`
	Code         string        `json:"project_code"`
	Title        string        `json:"title"`
	Description  string        `json:"description"`
	Category     string        `json:"category"`
	Technology   string        `json:"technology,omitempty"`
	ThumbnailURL string        `json:"thumbnail_url,omitempty"`
	Price        pricing.Paise `json:"price"`
	// GSTPercent is nil when the backend does not supply a rate for the
	// project's category; checkout refuses to price such a project.
	GSTPercent *decimal.Decimal `json:"gst_percent"`
}

type ContactCategory struct {
	ID   int64  `json:"category_id"`
	Name string `json:"category_name"`
}
