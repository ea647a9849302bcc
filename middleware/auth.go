package middleware

import (
	"net/http"

	"go.uber.org/zap"

	"serverpe-gateway/logger"
	"serverpe-gateway/models"
	"serverpe-gateway/services/auth"
	"serverpe-gateway/services/serverpe"
	"serverpe-gateway/utils"
)

// CurrentRouteHeader carries the SPA route the request was made from.
const CurrentRouteHeader = "X-Current-Route"

// RequireVerified rejects requests from sessions that have not completed
// login. The 401 goes through the same public-route policy as a backend 401.
func RequireVerified(store *SessionStore, flow *auth.Flow) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := SessionFromContext(r.Context())
			if sess.IsVerified() {
				next.ServeHTTP(w, r)
				return
			}

			redirect, cleared := flow.HandleUnauthorized(sess, r.Header.Get(CurrentRouteHeader))
			if cleared {
				if err := store.Save(w, r, sess); err != nil {
					logger.Log.Error("failed to save session", zap.Error(err))
				}
			}
			utils.SendErrorDetails(w, http.StatusUnauthorized, serverpe.DefaultMessage(serverpe.KindUnauthorized), &models.ErrorDetails{
				Kind:     string(serverpe.KindUnauthorized),
				Redirect: redirect,
			})
		})
	}
}

// RequireAdmin must run after RequireVerified.
func RequireAdmin() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := SessionFromContext(r.Context())
			if !sess.IsAdmin() {
				var userID int64
				if sess.Profile != nil {
					userID = sess.Profile.UserID
				}
				logger.Log.Warn("non-admin user attempted admin endpoint",
					zap.Int64("user_id", userID),
					zap.String("path", r.URL.Path),
				)
				utils.SendErrorDetails(w, http.StatusForbidden, serverpe.DefaultMessage(serverpe.KindForbidden), &models.ErrorDetails{
					Kind: string(serverpe.KindForbidden),
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
