package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"serverpe-gateway/logger"
	"serverpe-gateway/middleware"
	"serverpe-gateway/models"
	"serverpe-gateway/services/auth"
	"serverpe-gateway/services/checkout"
	"serverpe-gateway/services/pricing"
	"serverpe-gateway/services/serverpe"
	"serverpe-gateway/utils"
)

// responder writes envelopes and keeps the browser session in step with
// what happened during the request.
type responder struct {
	store *middleware.SessionStore
	flow  *auth.Flow
}

// save persists the session when force is set or when the backend changed
// its cookies during the request. Must run before the body is written.
func (rs *responder) save(w http.ResponseWriter, r *http.Request, force bool) error {
	sess := middleware.SessionFromContext(r.Context())
	if jar := serverpe.JarFrom(r.Context()); jar.Changed() {
		sess.Upstream = jar.Values()
		force = true
	}
	if !force {
		return nil
	}
	if err := rs.store.Save(w, r, sess); err != nil {
		logger.Log.Error("failed to save session", zap.String("path", r.URL.Path), zap.Error(err))
		return err
	}
	return nil
}

func (rs *responder) ok(w http.ResponseWriter, r *http.Request, message string, data interface{}) {
	rs.respond(w, r, false, message, data)
}

// okSession is ok for handlers that changed the session itself.
func (rs *responder) okSession(w http.ResponseWriter, r *http.Request, message string, data interface{}) {
	rs.respond(w, r, true, message, data)
}

// respond reports success only once the session is stored.
func (rs *responder) respond(w http.ResponseWriter, r *http.Request, force bool, message string, data interface{}) {
	if err := rs.save(w, r, force); err != nil {
		utils.SendErrorDetails(w, http.StatusInternalServerError, serverpe.DefaultMessage(serverpe.KindServer), &models.ErrorDetails{
			Kind:      string(serverpe.KindServer),
			Retryable: true,
		})
		return
	}
	utils.SendSuccessResponse(w, models.APIResponse{
		Status:  "success",
		Message: message,
		Data:    data,
	})
}

func (rs *responder) fail(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, context.Canceled) && r.Context().Err() != nil {
		logger.Log.Debug("client went away", zap.String("path", r.URL.Path))
		return
	}

	status, message, details := classify(err)

	if details.Kind == string(serverpe.KindUnauthorized) {
		sess := middleware.SessionFromContext(r.Context())
		redirect, cleared := rs.flow.HandleUnauthorized(sess, r.Header.Get(middleware.CurrentRouteHeader))
		details.Redirect = redirect
		if cleared {
			serverpe.JarFrom(r.Context()).Clear()
			_ = rs.save(w, r, true)
		}
	} else {
		_ = rs.save(w, r, false)
	}

	if status >= http.StatusInternalServerError {
		logger.Log.Error("request failed",
			zap.String("path", r.URL.Path),
			zap.String("kind", details.Kind),
			zap.Error(err),
		)
	}

	utils.SendErrorDetails(w, status, message, &details)
}

// classify maps an error to an HTTP status, a user-facing message and the
// details the SPA uses to present it.
func classify(err error) (int, string, models.ErrorDetails) {
	var fields utils.FieldErrors
	if errors.As(err, &fields) {
		return http.StatusBadRequest, "Please correct the highlighted fields", models.ErrorDetails{
			Kind:   string(serverpe.KindValidation),
			Fields: fields,
		}
	}

	var upstream *serverpe.Error
	if errors.As(err, &upstream) {
		return upstreamStatus(upstream), upstream.Message, models.ErrorDetails{
			Kind:      string(upstream.Kind),
			Retryable: upstream.Retryable(),
		}
	}

	validation := func(status int) (int, string, models.ErrorDetails) {
		return status, userMessage(err), models.ErrorDetails{Kind: string(serverpe.KindValidation)}
	}

	switch {
	case errors.Is(err, auth.ErrTooManyOTPs):
		return validation(http.StatusTooManyRequests)
	case errors.Is(err, auth.ErrInvalidTransition),
		errors.Is(err, checkout.ErrVerificationInProgress),
		errors.Is(err, checkout.ErrAmountMismatch):
		return validation(http.StatusConflict)
	case errors.Is(err, checkout.ErrInvalidQuote),
		errors.Is(err, checkout.ErrQuoteExpired),
		errors.Is(err, checkout.ErrIncompletePayment),
		errors.Is(err, errBadRequest):
		return validation(http.StatusBadRequest)
	case errors.Is(err, pricing.ErrInvalidAmount),
		errors.Is(err, pricing.ErrInvalidRate),
		errors.Is(err, pricing.ErrRateRequired),
		errors.Is(err, pricing.ErrUnknownState):
		return validation(http.StatusUnprocessableEntity)
	case errors.Is(err, checkout.ErrUnknownOrder):
		return http.StatusNotFound, serverpe.DefaultMessage(serverpe.KindNotFound), models.ErrorDetails{
			Kind: string(serverpe.KindNotFound),
		}
	}

	return http.StatusInternalServerError, serverpe.DefaultMessage(serverpe.KindServer), models.ErrorDetails{
		Kind:      string(serverpe.KindServer),
		Retryable: true,
	}
}

func upstreamStatus(e *serverpe.Error) int {
	switch e.Kind {
	case serverpe.KindUnauthorized:
		return http.StatusUnauthorized
	case serverpe.KindForbidden:
		return http.StatusForbidden
	case serverpe.KindNotFound:
		return http.StatusNotFound
	case serverpe.KindValidation:
		if e.Status >= 400 && e.Status < 500 {
			return e.Status
		}
		return http.StatusBadRequest
	case serverpe.KindPayment:
		return http.StatusPaymentRequired
	case serverpe.KindTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

var userMessages = map[error]string{
	auth.ErrTooManyOTPs:                "Too many OTP requests. Please wait a few minutes and try again.",
	auth.ErrInvalidTransition:          "This step is no longer valid. Please start again.",
	checkout.ErrVerificationInProgress: "Your payment is already being verified.",
	checkout.ErrAmountMismatch:         "The payment amount changed. Please review your order again.",
	checkout.ErrInvalidQuote:           "Your checkout session is invalid. Please start checkout again.",
	checkout.ErrQuoteExpired:           "Your checkout session expired. Please start checkout again.",
	checkout.ErrIncompletePayment:      "The payment response was incomplete.",
	pricing.ErrRateRequired:            "GST rate is not available for this project.",
	pricing.ErrUnknownState:            "Please select a valid state.",
	errBadRequest:                      "Invalid request body",
}

func userMessage(err error) string {
	for target, msg := range userMessages {
		if errors.Is(err, target) {
			return msg
		}
	}
	return err.Error()
}

var errBadRequest = errors.New("invalid request body")

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	if err := dec.Decode(dst); err != nil {
		return errBadRequest
	}
	return nil
}
