package auth

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"serverpe-gateway/config"
	"serverpe-gateway/models"
	"serverpe-gateway/services/serverpe"
	"serverpe-gateway/utils"
)

type stubBackend struct {
	sendLogin   func(ctx context.Context, contact string) error
	verifyLogin func(ctx context.Context, contact, otp string) (*models.UserProfile, error)
	sendSub     func(ctx context.Context, draft models.SubscriptionDraft) error
	verifySub   func(ctx context.Context, draft models.SubscriptionDraft, mobileOTP, emailOTP string) error
	logout      func(ctx context.Context) error

	calls int
}

func (b *stubBackend) SendLoginOTP(ctx context.Context, contact string) error {
	b.calls++
	if b.sendLogin == nil {
		return nil
	}
	return b.sendLogin(ctx, contact)
}

func (b *stubBackend) VerifyLoginOTP(ctx context.Context, contact, otp string) (*models.UserProfile, error) {
	b.calls++
	return b.verifyLogin(ctx, contact, otp)
}

func (b *stubBackend) SendSubscriptionOTP(ctx context.Context, draft models.SubscriptionDraft) error {
	b.calls++
	if b.sendSub == nil {
		return nil
	}
	return b.sendSub(ctx, draft)
}

func (b *stubBackend) VerifySubscriptionOTP(ctx context.Context, draft models.SubscriptionDraft, mobileOTP, emailOTP string) error {
	b.calls++
	return b.verifySub(ctx, draft, mobileOTP, emailOTP)
}

func (b *stubBackend) Logout(ctx context.Context) error {
	b.calls++
	if b.logout == nil {
		return nil
	}
	return b.logout(ctx)
}

type stubLimiter struct {
	allow bool
	err   error
	keys  []string
}

func (l *stubLimiter) Allow(_ context.Context, key string, _ int, _ time.Duration) (bool, error) {
	l.keys = append(l.keys, key)
	return l.allow, l.err
}

func testAuthConfig() config.AuthConfig {
	return config.AuthConfig{
		OTPTimeout:      time.Second,
		OTPSendLimit:    5,
		OTPSendWindow:   15 * time.Minute,
		PublicRoutes:    []string{"/", "/auth", "/legal/*", "/projects", "/projects/*"},
		AuthScreenRoute: "/auth",
	}
}

func newTestFlow(b Backend, l Limiter) *Flow {
	return NewFlow(b, testAuthConfig(), l)
}

func TestLoginScenario_WrongThenCorrectOTP(t *testing.T) {
	backend := &stubBackend{
		verifyLogin: func(ctx context.Context, contact, otp string) (*models.UserProfile, error) {
			if serverpe.JarFrom(ctx) == nil {
				t.Fatal("expected backend calls to carry a cookie jar")
			}
			if otp != "482913" {
				return nil, serverpe.Classify(http.StatusBadRequest, []byte(`{"success":false,"message":"Invalid OTP"}`), nil)
			}
			return &models.UserProfile{UserID: 11, Name: "Asha", Mobile: contact}, nil
		},
	}
	flow := newTestFlow(backend, nil)
	s := NewSession()

	if err := flow.RequestLoginOTP(context.Background(), s, "9876543210", "/checkout/42"); err != nil {
		t.Fatalf("RequestLoginOTP() error = %v", err)
	}
	if s.State != StateOTPRequested || s.Purpose != PurposeLogin {
		t.Fatalf("expected otp_requested for login, got %s/%s", s.State, s.Purpose)
	}
	if v := s.View(); v.OTPSentAt == nil || v.OTPSentAt.IsZero() {
		t.Fatalf("expected the view to carry the OTP send time, got %+v", v)
	}

	_, err := flow.VerifyLoginOTP(context.Background(), s, "111111")
	if serverpe.KindOf(err) != serverpe.KindValidation || serverpe.MessageOf(err, "") != "Invalid OTP" {
		t.Fatalf("expected the backend's rejection to surface, got %v", err)
	}
	if s.State != StateOTPRequested || s.Profile != nil || s.IsVerified() {
		t.Fatalf("failed verification must not create a session, got %+v", s)
	}

	dest, err := flow.VerifyLoginOTP(context.Background(), s, "482913")
	if err != nil {
		t.Fatalf("VerifyLoginOTP() error = %v", err)
	}
	if !s.IsVerified() || s.Profile.UserID != 11 {
		t.Fatalf("expected verified session with profile, got %+v", s)
	}
	if dest != "/checkout/42" {
		t.Fatalf("expected navigation to the intended route, got %q", dest)
	}
	if s.ReturnTo != "" || s.Contact != "" {
		t.Fatalf("expected pending login data cleared, got %+v", s)
	}
	if v := s.View(); v.OTPSentAt != nil {
		t.Fatalf("verified view must not carry an OTP send time, got %v", v.OTPSentAt)
	}
}

func TestRequestLoginOTP_InvalidContactNeverCallsBackend(t *testing.T) {
	backend := &stubBackend{}
	limiter := &stubLimiter{allow: true}
	flow := newTestFlow(backend, limiter)
	s := NewSession()

	for _, contact := range []string{"1234567890", "98765432", "a@b", "a b@c.com", ""} {
		err := flow.RequestLoginOTP(context.Background(), s, contact, "")
		var fe utils.FieldErrors
		if !errors.As(err, &fe) || fe["contact"] == "" {
			t.Fatalf("expected contact field error for %q, got %v", contact, err)
		}
	}
	if backend.calls != 0 || len(limiter.keys) != 0 {
		t.Fatalf("validation failures must not reach the backend or the quota, calls=%d keys=%v", backend.calls, limiter.keys)
	}
	if s.State != StateAnonymous {
		t.Fatalf("expected anonymous, got %s", s.State)
	}
}

func TestRequestLoginOTP_ServerFailureMessage(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantMsg string
	}{
		{
			name:    "server message",
			err:     serverpe.Classify(http.StatusNotFound, []byte(`{"message":"User not registered"}`), nil),
			wantMsg: "User not registered",
		},
		{
			name:    "generic",
			err:     serverpe.Classify(http.StatusInternalServerError, nil, nil),
			wantMsg: "Failed to send OTP",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := &stubBackend{sendLogin: func(context.Context, string) error { return tt.err }}
			s := NewSession()

			err := newTestFlow(backend, nil).RequestLoginOTP(context.Background(), s, "a@b.co", "")
			if got := serverpe.MessageOf(err, ""); got != tt.wantMsg {
				t.Fatalf("expected %q, got %q", tt.wantMsg, got)
			}
			if s.State != StateAnonymous {
				t.Fatalf("failed send must not advance the state, got %s", s.State)
			}
		})
	}
}

func TestRequestLoginOTP_BoundedByTimeout(t *testing.T) {
	backend := &stubBackend{sendLogin: func(ctx context.Context, _ string) error {
		<-ctx.Done()
		return serverpe.Classify(0, nil, ctx.Err())
	}}
	cfg := testAuthConfig()
	cfg.OTPTimeout = 20 * time.Millisecond
	flow := NewFlow(backend, cfg, nil)
	s := NewSession()

	err := flow.RequestLoginOTP(context.Background(), s, "9876543210", "")
	if serverpe.KindOf(err) != serverpe.KindTimeout {
		t.Fatalf("expected TIMEOUT, got %v", err)
	}
	if s.State != StateAnonymous {
		t.Fatalf("expected anonymous after timeout, got %s", s.State)
	}
}

func TestVerifyLoginOTP_StaleResponseIgnored(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	backend := &stubBackend{verifyLogin: func(context.Context, string, string) (*models.UserProfile, error) {
		// The user navigated away while the request was in flight.
		cancel()
		return &models.UserProfile{UserID: 3}, nil
	}}
	flow := newTestFlow(backend, nil)
	s := &Session{State: StateOTPRequested, Purpose: PurposeLogin, Contact: "a@b.co"}

	if _, err := flow.VerifyLoginOTP(ctx, s, "1234"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if s.State != StateOTPRequested || s.Profile != nil {
		t.Fatalf("stale response must not mutate the session, got %+v", s)
	}
}

func TestVerifyLoginOTP_RequiresPendingLogin(t *testing.T) {
	flow := newTestFlow(&stubBackend{}, nil)

	if _, err := flow.VerifyLoginOTP(context.Background(), NewSession(), "1234"); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}

	s := &Session{State: StateOTPRequested, Purpose: PurposeLogin, Contact: "a@b.co"}
	_, err := flow.VerifyLoginOTP(context.Background(), s, "12a456")
	var fe utils.FieldErrors
	if !errors.As(err, &fe) || fe["otp"] == "" {
		t.Fatalf("expected otp field error, got %v", err)
	}
}

func TestRequestLoginOTP_Quota(t *testing.T) {
	limiter := &stubLimiter{allow: false}
	backend := &stubBackend{}
	flow := newTestFlow(backend, limiter)

	err := flow.RequestLoginOTP(context.Background(), NewSession(), "A@B.co", "")
	if !errors.Is(err, ErrTooManyOTPs) {
		t.Fatalf("expected ErrTooManyOTPs, got %v", err)
	}
	if backend.calls != 0 {
		t.Fatal("over-quota sends must not reach the backend")
	}
	if len(limiter.keys) != 1 || limiter.keys[0] != "otp:login:a@b.co" {
		t.Fatalf("unexpected quota keys %v", limiter.keys)
	}

	limiter.allow, limiter.err = false, errors.New("redis down")
	if err := flow.RequestLoginOTP(context.Background(), NewSession(), "a@b.co", ""); err != nil {
		t.Fatalf("quota errors should not block sends, got %v", err)
	}
}

func TestSubscriptionScenario(t *testing.T) {
	var sent models.SubscriptionDraft
	backend := &stubBackend{
		sendSub: func(_ context.Context, d models.SubscriptionDraft) error {
			sent = d
			return nil
		},
		verifySub: func(_ context.Context, d models.SubscriptionDraft, m, e string) error {
			if d.Email != "asha@college.in" || m != "1234" || e != "654321" {
				t.Fatalf("unexpected verification %+v %s %s", d, m, e)
			}
			return nil
		},
	}
	flow := newTestFlow(backend, nil)
	s := NewSession()

	draft := models.SubscriptionDraft{
		Name:      " Asha K ",
		Mobile:    "9876543210",
		Email:     "Asha@College.in",
		CollegeID: 4,
		StateID:   29,
	}
	if err := flow.RequestSubscriptionOTP(context.Background(), s, draft); err != nil {
		t.Fatalf("RequestSubscriptionOTP() error = %v", err)
	}
	if s.State != StateOTPRequested || s.Purpose != PurposeSubscription || s.Draft == nil {
		t.Fatalf("unexpected session %+v", s)
	}
	if sent.Name != "Asha K" || sent.Email != "asha@college.in" {
		t.Fatalf("expected normalized draft, got %+v", sent)
	}

	_, err := flow.VerifySubscriptionOTP(context.Background(), s, "12", "abc")
	var fe utils.FieldErrors
	if !errors.As(err, &fe) || len(fe) != 2 {
		t.Fatalf("expected both code errors together, got %v", err)
	}

	dest, err := flow.VerifySubscriptionOTP(context.Background(), s, "1234", "654321")
	if err != nil {
		t.Fatalf("VerifySubscriptionOTP() error = %v", err)
	}
	if dest != "/auth" {
		t.Fatalf("expected redirect to the login screen, got %q", dest)
	}
	if s.State != StateAnonymous || s.Draft != nil || s.IsVerified() {
		t.Fatalf("subscription must not log the user in, got %+v", s)
	}
}

func TestRequestSubscriptionOTP_CollectsAllErrors(t *testing.T) {
	backend := &stubBackend{}
	err := newTestFlow(backend, nil).RequestSubscriptionOTP(context.Background(), NewSession(), models.SubscriptionDraft{})

	var fe utils.FieldErrors
	if !errors.As(err, &fe) || len(fe) != 5 {
		t.Fatalf("expected five field errors, got %v", err)
	}
	if backend.calls != 0 {
		t.Fatal("invalid drafts must not reach the backend")
	}
}

func TestBack(t *testing.T) {
	flow := newTestFlow(&stubBackend{}, nil)
	s := &Session{State: StateOTPRequested, Purpose: PurposeLogin, Contact: "a@b.co", ReturnTo: "/orders"}

	if err := flow.Back(s); err != nil {
		t.Fatalf("Back() error = %v", err)
	}
	if s.State != StateAnonymous || s.Contact != "" || s.ReturnTo != "/orders" {
		t.Fatalf("unexpected session after back %+v", s)
	}
	if err := flow.Back(s); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestLogoutClearsEvenWhenBackendFails(t *testing.T) {
	backend := &stubBackend{logout: func(context.Context) error { return errors.New("boom") }}
	s := &Session{State: StateVerified, Profile: &models.UserProfile{UserID: 1}, Upstream: map[string]string{"token": "x"}}

	newTestFlow(backend, nil).Logout(context.Background(), s)
	if s.State != StateAnonymous || s.Profile != nil || len(s.Upstream) != 0 {
		t.Fatalf("expected cleared session, got %+v", s)
	}
	if backend.calls != 1 {
		t.Fatalf("expected one backend logout, got %d", backend.calls)
	}
}

func TestHandleUnauthorized(t *testing.T) {
	tests := []struct {
		route        string
		wantCleared  bool
		wantRedirect string
	}{
		{route: "/checkout/42", wantCleared: true, wantRedirect: "/auth?redirect=%2Fcheckout%2F42"},
		{route: "/user/profile", wantCleared: true, wantRedirect: "/auth?redirect=%2Fuser%2Fprofile"},
		{route: "/", wantCleared: false},
		{route: "/auth", wantCleared: false},
		{route: "/projects", wantCleared: false},
		{route: "/projects/17?ref=home", wantCleared: false},
		{route: "/legal/terms", wantCleared: false},
	}

	flow := newTestFlow(&stubBackend{}, nil)
	for _, tt := range tests {
		t.Run(tt.route, func(t *testing.T) {
			s := &Session{State: StateVerified, Profile: &models.UserProfile{UserID: 9}}
			redirect, cleared := flow.HandleUnauthorized(s, tt.route)
			if cleared != tt.wantCleared || redirect != tt.wantRedirect {
				t.Fatalf("got (%q, %v), want (%q, %v)", redirect, cleared, tt.wantRedirect, tt.wantCleared)
			}
			if cleared == s.IsVerified() {
				t.Fatalf("session verified=%v after cleared=%v", s.IsVerified(), cleared)
			}
		})
	}
}
