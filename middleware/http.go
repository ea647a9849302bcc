package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"serverpe-gateway/logger"
	"serverpe-gateway/services/serverpe"
	"serverpe-gateway/utils"
)

const RequestIDHeader = "X-Request-ID"

// CORS allows the SPA origin to call the gateway with credentials.
func CORS(allowedOrigin string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if origin := r.Header.Get("Origin"); origin != "" && origin == allowedOrigin {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Credentials", "true")
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, "+CurrentRouteHeader+", "+RequestIDHeader)
				w.Header().Add("Vary", "Origin")
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequestID reuses the caller's X-Request-ID or mints one, and passes it on
// to backend calls.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(RequestIDHeader))
		if id == "" || len(id) > 64 {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(serverpe.WithRequestID(r.Context(), id)))
	})
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

// Logging writes one access log line per request. Slow requests and errors
// are logged at info, the rest at debug.
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapper := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(wrapper, r)

		elapsed := time.Since(start)
		fields := []zap.Field{
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", wrapper.status),
			zap.Duration("elapsed", elapsed),
			zap.String("request_id", serverpe.RequestIDFrom(r.Context())),
			zap.String("remote", getClientIP(r)),
		}
		if elapsed > 500*time.Millisecond || wrapper.status >= 400 {
			logger.Log.Info("request", fields...)
			return
		}
		logger.Log.Debug("request", fields...)
	})
}

// Recover turns a handler panic into a 500 instead of a dropped connection.
func Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if v := recover(); v != nil {
				logger.Log.Error("handler panic",
					zap.Any("panic", v),
					zap.String("path", r.URL.Path),
					zap.String("request_id", serverpe.RequestIDFrom(r.Context())),
				)
				utils.SendErrorResponse(w, http.StatusInternalServerError, serverpe.DefaultMessage(serverpe.KindServer))
			}
		}()
		next.ServeHTTP(w, r)
	})
}
