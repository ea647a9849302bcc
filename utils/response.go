package utils

import (
	"encoding/json"
	"net/http"

	"serverpe-gateway/models"
)

func SendErrorResponse(w http.ResponseWriter, status int, message string) {
	SendErrorDetails(w, status, message, nil)
}

// SendErrorDetails writes an error envelope carrying the classification the
// SPA needs to pick between an inline message, a retry button or a redirect.
func SendErrorDetails(w http.ResponseWriter, status int, message string, details *models.ErrorDetails) {
	resp := models.APIResponse{
		Status:  "error",
		Message: message,
	}
	if details != nil {
		resp.Data = details
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}

func SendSuccessResponse(w http.ResponseWriter, response models.APIResponse) {
	if response.Status == "" {
		response.Status = "success"
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(response)
}
