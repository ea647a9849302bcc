package models

type APIResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ErrorDetails is carried in APIResponse.Data for failed requests so the SPA
// can pick a presentation (retry button, redirect, inline field errors).
type ErrorDetails struct {
	Kind      string            `json:"kind"`
	Retryable bool              `json:"retryable"`
	Redirect  string            `json:"redirect,omitempty"`
	Fields    map[string]string `json:"fields,omitempty"`
}
