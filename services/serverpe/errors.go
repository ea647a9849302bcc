package serverpe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
)

// Kind classifies a failed backend interaction for presentation.
type Kind string

const (
	KindNetwork      Kind = "NETWORK_ERROR"
	KindTimeout      Kind = "TIMEOUT"
	KindUnauthorized Kind = "UNAUTHORIZED"
	KindForbidden    Kind = "FORBIDDEN"
	KindNotFound     Kind = "NOT_FOUND"
	KindValidation   Kind = "VALIDATION_ERROR"
	KindServer       Kind = "SERVER_ERROR"
	KindPayment      Kind = "RAZORPAY_ERROR"
	KindUnknown      Kind = "UNKNOWN_ERROR"
)

var defaultMessages = map[Kind]string{
	KindNetwork:      "Unable to reach the server. Check your connection and try again.",
	KindTimeout:      "The request timed out. Please try again.",
	KindUnauthorized: "Your session has expired. Please log in again.",
	KindForbidden:    "You do not have permission to perform this action.",
	KindNotFound:     "The requested resource was not found.",
	KindValidation:   "The request could not be processed. Please check your input.",
	KindServer:       "Something went wrong on our side. Please try again.",
	KindPayment:      "Payment could not be completed. Please try again.",
	KindUnknown:      "An unexpected error occurred.",
}

// DefaultMessage returns the plain-language message used when the backend
// does not supply one.
func DefaultMessage(k Kind) string {
	if msg, ok := defaultMessages[k]; ok {
		return msg
	}
	return defaultMessages[KindUnknown]
}

type Error struct {
	Kind    Kind
	Status  int
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s (%d): %s", e.Kind, e.Status, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Retryable reports whether offering the user a retry makes sense. Nothing
// in this package retries on its own.
func (e *Error) Retryable() bool {
	switch e.Kind {
	case KindNetwork, KindTimeout, KindServer:
		return true
	default:
		return false
	}
}

// Classify turns a transport error or an HTTP status plus body into an
// *Error. A non-nil transportErr always wins over status.
func Classify(status int, body []byte, transportErr error) *Error {
	if transportErr != nil {
		kind := KindNetwork
		if isTimeout(transportErr) {
			kind = KindTimeout
		}
		return &Error{Kind: kind, Message: DefaultMessage(kind), Err: transportErr}
	}

	var kind Kind
	switch {
	case status == http.StatusUnauthorized:
		kind = KindUnauthorized
	case status == http.StatusForbidden:
		kind = KindForbidden
	case status == http.StatusNotFound:
		kind = KindNotFound
	case status == http.StatusBadRequest,
		status == http.StatusConflict,
		status == http.StatusUnprocessableEntity:
		kind = KindValidation
	case status >= http.StatusInternalServerError:
		kind = KindServer
	default:
		kind = KindUnknown
	}

	msg, code := bodyMessage(body)
	if msg == "" {
		msg = DefaultMessage(kind)
	}
	return &Error{Kind: kind, Status: status, Code: code, Message: msg}
}

// PaymentError describes a failure reported by the hosted checkout widget.
func PaymentError(code, description string) *Error {
	msg := strings.TrimSpace(description)
	if msg == "" {
		msg = DefaultMessage(KindPayment)
	}
	return &Error{Kind: KindPayment, Code: code, Message: msg}
}

// KindOf returns the classification of err, or KindUnknown when err did not
// come from this package.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

func IsUnauthorized(err error) bool {
	return KindOf(err) == KindUnauthorized
}

// MessageOf returns the message the backend supplied with err. Without one,
// transport failures keep their own wording and everything else gets
// fallback.
func MessageOf(err error, fallback string) string {
	var e *Error
	if !errors.As(err, &e) {
		if fallback != "" {
			return fallback
		}
		return DefaultMessage(KindUnknown)
	}
	if e.Message != "" && e.Message != DefaultMessage(e.Kind) {
		return e.Message
	}
	if fallback != "" && e.Kind != KindNetwork && e.Kind != KindTimeout {
		return fallback
	}
	return DefaultMessage(e.Kind)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func bodyMessage(body []byte) (message, code string) {
	if len(body) == 0 {
		return "", ""
	}
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
		Code    string `json:"code"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", ""
	}
	if payload.Message != "" {
		return payload.Message, payload.Code
	}
	return payload.Error, payload.Code
}
