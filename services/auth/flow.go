package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"serverpe-gateway/config"
	"serverpe-gateway/logger"
	"serverpe-gateway/models"
	"serverpe-gateway/services/serverpe"
	"serverpe-gateway/utils"
)

var (
	ErrInvalidTransition = errors.New("operation not allowed in the current auth state")
	ErrTooManyOTPs       = errors.New("too many OTP requests, please wait before trying again")
)

const (
	msgSendFailed   = "Failed to send OTP"
	msgVerifyFailed = "OTP verification failed"
)

// Backend is the part of the ServerPe API the auth flow drives.
type Backend interface {
	SendLoginOTP(ctx context.Context, contact string) error
	VerifyLoginOTP(ctx context.Context, contact, otp string) (*models.UserProfile, error)
	SendSubscriptionOTP(ctx context.Context, draft models.SubscriptionDraft) error
	VerifySubscriptionOTP(ctx context.Context, draft models.SubscriptionDraft, mobileOTP, emailOTP string) error
	Logout(ctx context.Context) error
}

// Limiter caps OTP sends per contact.
type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// Flow drives a Session through login and subscription. It holds no
// per-user state; the Session passed to each call is the only thing mutated,
// and only once the backend has answered and ctx is still live.
type Flow struct {
	backend    Backend
	limiter    Limiter
	routes     *RoutePolicy
	otpTimeout time.Duration
	sendLimit  int
	sendWindow time.Duration
	now        func() time.Time
}

// NewFlow builds a Flow. limiter may be nil, which disables the send quota.
func NewFlow(backend Backend, cfg config.AuthConfig, limiter Limiter) *Flow {
	return &Flow{
		backend:    backend,
		limiter:    limiter,
		routes:     NewRoutePolicy(cfg.PublicRoutes, cfg.AuthScreenRoute),
		otpTimeout: cfg.OTPTimeout,
		sendLimit:  cfg.OTPSendLimit,
		sendWindow: cfg.OTPSendWindow,
		now:        time.Now,
	}
}

func (f *Flow) Routes() *RoutePolicy { return f.routes }

// RequestLoginOTP validates contact locally and asks the backend to send a
// login code. Allowed while anonymous or to resend a pending code.
func (f *Flow) RequestLoginOTP(ctx context.Context, s *Session, contact, returnTo string) error {
	if s.State == StateVerified {
		return ErrInvalidTransition
	}

	contact = strings.TrimSpace(contact)
	kind, err := utils.ClassifyContact(contact)
	if err != nil {
		return utils.FieldErrors{}.Add("contact", err.Error())
	}
	if kind == utils.ContactEmail {
		contact = strings.ToLower(contact)
	}

	if err := f.checkQuota(ctx, "login:"+contact); err != nil {
		return err
	}

	jar := serverpe.NewJar(s.Upstream)
	err = f.withOTPTimeout(ctx, jar, func(ctx context.Context) error {
		return f.backend.SendLoginOTP(ctx, contact)
	})
	if cerr := ctx.Err(); cerr != nil {
		return cerr
	}
	if err != nil {
		logger.Log.Info("login OTP send failed", zap.String("contact_kind", string(kind)), zap.Error(err))
		return surface(err, msgSendFailed)
	}

	s.resetPending()
	s.State = StateOTPRequested
	s.Purpose = PurposeLogin
	s.Contact = contact
	s.OTPSentAt = f.now()
	if returnTo != "" {
		s.ReturnTo = SafeReturnTo(returnTo)
	}
	s.Upstream = jar.Values()
	return nil
}

// VerifyLoginOTP submits code for the pending login. On success the session
// becomes verified and the route the user originally wanted is returned. On
// failure the session stays in otp_requested.
func (f *Flow) VerifyLoginOTP(ctx context.Context, s *Session, code string) (string, error) {
	if s.State != StateOTPRequested || s.Purpose != PurposeLogin {
		return "", ErrInvalidTransition
	}

	code = strings.TrimSpace(code)
	if !utils.IsValidOTP(code) {
		return "", utils.FieldErrors{}.Add("otp", "Enter the 4-6 digit code")
	}

	var profile *models.UserProfile
	jar := serverpe.NewJar(s.Upstream)
	err := f.withOTPTimeout(ctx, jar, func(ctx context.Context) error {
		var err error
		profile, err = f.backend.VerifyLoginOTP(ctx, s.Contact, code)
		return err
	})
	if cerr := ctx.Err(); cerr != nil {
		return "", cerr
	}
	if err != nil {
		return "", surface(err, msgVerifyFailed)
	}
	if profile == nil {
		return "", surface(&serverpe.Error{Kind: serverpe.KindUnknown}, msgVerifyFailed)
	}

	dest := s.ReturnTo
	if dest == "" {
		dest = "/"
	}

	s.resetPending()
	s.State = StateVerified
	s.Profile = profile
	s.ReturnTo = ""
	s.Upstream = jar.Values()
	return dest, nil
}

// RequestSubscriptionOTP validates every field of draft, reporting all
// problems together, then has the backend send one code to the mobile
// number and one to the email address.
func (f *Flow) RequestSubscriptionOTP(ctx context.Context, s *Session, draft models.SubscriptionDraft) error {
	if s.State == StateVerified {
		return ErrInvalidTransition
	}

	draft.Name = strings.TrimSpace(draft.Name)
	draft.Mobile = strings.TrimSpace(draft.Mobile)
	draft.Email = strings.ToLower(strings.TrimSpace(draft.Email))

	if err := utils.ValidateSubscription(utils.SubscriptionFields{
		Name:      draft.Name,
		Mobile:    draft.Mobile,
		Email:     draft.Email,
		CollegeID: draft.CollegeID,
		StateID:   draft.StateID,
	}).Err(); err != nil {
		return err
	}

	if err := f.checkQuota(ctx, "subscribe:"+draft.Mobile); err != nil {
		return err
	}

	jar := serverpe.NewJar(s.Upstream)
	err := f.withOTPTimeout(ctx, jar, func(ctx context.Context) error {
		return f.backend.SendSubscriptionOTP(ctx, draft)
	})
	if cerr := ctx.Err(); cerr != nil {
		return cerr
	}
	if err != nil {
		return surface(err, msgSendFailed)
	}

	s.resetPending()
	s.State = StateOTPRequested
	s.Purpose = PurposeSubscription
	s.Contact = draft.Mobile
	s.Draft = &draft
	s.OTPSentAt = f.now()
	s.Upstream = jar.Values()
	return nil
}

// VerifySubscriptionOTP checks both codes and completes registration. The
// user is not logged in afterwards; the returned route is the auth screen.
func (f *Flow) VerifySubscriptionOTP(ctx context.Context, s *Session, mobileCode, emailCode string) (string, error) {
	if s.State != StateOTPRequested || s.Purpose != PurposeSubscription || s.Draft == nil {
		return "", ErrInvalidTransition
	}

	mobileCode = strings.TrimSpace(mobileCode)
	emailCode = strings.TrimSpace(emailCode)
	if err := utils.ValidateOTPs(map[string]string{
		"mobile_otp": mobileCode,
		"email_otp":  emailCode,
	}).Err(); err != nil {
		return "", err
	}

	draft := *s.Draft
	jar := serverpe.NewJar(s.Upstream)
	err := f.withOTPTimeout(ctx, jar, func(ctx context.Context) error {
		return f.backend.VerifySubscriptionOTP(ctx, draft, mobileCode, emailCode)
	})
	if cerr := ctx.Err(); cerr != nil {
		return "", cerr
	}
	if err != nil {
		return "", surface(err, msgVerifyFailed)
	}

	logger.Log.Info("subscription completed", zap.Int64("state_id", draft.StateID))

	s.resetPending()
	s.Upstream = jar.Values()
	return f.routes.AuthPath(), nil
}

// Back abandons a pending OTP.
func (f *Flow) Back(s *Session) error {
	if s.State != StateOTPRequested {
		return ErrInvalidTransition
	}
	s.resetPending()
	return nil
}

// Logout tells the backend (best effort) and clears the session whatever
// the backend says.
func (f *Flow) Logout(ctx context.Context, s *Session) {
	if len(s.Upstream) > 0 {
		jar := serverpe.NewJar(s.Upstream)
		if err := f.backend.Logout(serverpe.WithJar(ctx, jar)); err != nil {
			logger.Log.Warn("backend logout failed", zap.Error(err))
		}
	}
	s.Clear()
}

// HandleUnauthorized applies a 401 seen while the SPA was on route. Outside
// the public routes the session is cleared and the auth screen redirect is
// returned. On a public route nothing changes and redirect is empty.
func (f *Flow) HandleUnauthorized(s *Session, route string) (redirect string, cleared bool) {
	if f.routes.IsPublic(route) {
		return "", false
	}
	s.Clear()
	return f.routes.LoginRedirect(route), true
}

func (f *Flow) withOTPTimeout(ctx context.Context, jar *serverpe.Jar, call func(context.Context) error) error {
	ctx = serverpe.WithJar(ctx, jar)
	if f.otpTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.otpTimeout)
		defer cancel()
	}
	return call(ctx)
}

func (f *Flow) checkQuota(ctx context.Context, key string) error {
	if f.limiter == nil || f.sendLimit <= 0 {
		return nil
	}
	allowed, err := f.limiter.Allow(ctx, "otp:"+key, f.sendLimit, f.sendWindow)
	if err != nil {
		logger.Log.Warn("otp quota check failed", zap.Error(err))
		return nil
	}
	if !allowed {
		return ErrTooManyOTPs
	}
	return nil
}

// surface keeps the classification of err and sets the message shown to
// the user: the backend's own wording if it sent one, else fallback.
func surface(err error, fallback string) error {
	var e *serverpe.Error
	if !errors.As(err, &e) {
		return err
	}
	out := *e
	out.Message = serverpe.MessageOf(err, fallback)
	return &out
}
