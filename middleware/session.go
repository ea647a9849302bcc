package middleware

import (
	"context"
	"encoding/gob"
	"net/http"

	"github.com/gorilla/sessions"
	"go.uber.org/zap"

	"serverpe-gateway/config"
	"serverpe-gateway/logger"
	"serverpe-gateway/services/auth"
	"serverpe-gateway/services/serverpe"
)

const authSessionKey = "auth"

func init() {
	gob.Register(&auth.Session{})
}

// SessionStore keeps each browser's auth.Session in a signed cookie.
type SessionStore struct {
	store *sessions.CookieStore
	name  string
}

func NewSessionStore(cfg config.SessionConfig) *SessionStore {
	store := sessions.NewCookieStore([]byte(cfg.Secret))
	store.Options = &sessions.Options{
		Path:     "/",
		Domain:   cfg.Domain,
		MaxAge:   cfg.MaxAge,
		Secure:   cfg.Secure,
		HttpOnly: cfg.HttpOnly,
		SameSite: http.SameSiteLaxMode,
	}
	return &SessionStore{store: store, name: cfg.Name}
}

// Load returns the browser's session, or a fresh anonymous one when the
// cookie is missing or cannot be decoded.
func (s *SessionStore) Load(r *http.Request) *auth.Session {
	session, err := s.store.Get(r, s.name)
	if err != nil {
		logger.Log.Info("discarding unreadable session cookie", zap.Error(err))
		return auth.NewSession()
	}
	sess, ok := session.Values[authSessionKey].(*auth.Session)
	if !ok || sess == nil {
		return auth.NewSession()
	}
	return sess
}

// Save writes sess back. It must run before the response status is written.
func (s *SessionStore) Save(w http.ResponseWriter, r *http.Request, sess *auth.Session) error {
	session, _ := s.store.Get(r, s.name)
	session.Values[authSessionKey] = sess
	return session.Save(r, w)
}

type sessionKey struct{}

// WithSession loads the session once per request, attaches it to the
// context together with a cookie jar seeded from its backend cookies.
func (s *SessionStore) WithSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := s.Load(r)
		ctx := context.WithValue(r.Context(), sessionKey{}, sess)
		ctx = serverpe.WithJar(ctx, serverpe.NewJar(sess.Upstream))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// SessionFromContext returns the request's session. Without WithSession in
// the chain it returns a fresh anonymous session.
func SessionFromContext(ctx context.Context) *auth.Session {
	if sess, ok := ctx.Value(sessionKey{}).(*auth.Session); ok {
		return sess
	}
	return auth.NewSession()
}
