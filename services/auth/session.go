package auth

import (
	"time"

	"serverpe-gateway/models"
)

type State string

const (
	StateAnonymous    State = "anonymous"
	StateOTPRequested State = "otp_requested"
	StateVerified     State = "verified"
)

// Purpose tells which flow an outstanding OTP belongs to.
type Purpose string

const (
	PurposeLogin        Purpose = "login"
	PurposeSubscription Purpose = "subscription"
)

// Session is the per-browser auth state. It is stored in the gateway's
// signed session cookie, so every field must be gob encodable.
type Session struct {
	State     State
	Purpose   Purpose
	Contact   string
	Draft     *models.SubscriptionDraft
	Profile   *models.UserProfile
	ReturnTo  string
	OTPSentAt time.Time

	// Upstream holds the backend's own session cookies for this browser.
	Upstream map[string]string
}

func NewSession() *Session {
	return &Session{State: StateAnonymous}
}

func (s *Session) IsVerified() bool {
	return s != nil && s.State == StateVerified && s.Profile != nil
}

func (s *Session) IsAdmin() bool {
	return s.IsVerified() && s.Profile.IsAdmin
}

// Clear returns the session to anonymous and forgets everything, including
// the backend cookies.
func (s *Session) Clear() {
	*s = Session{State: StateAnonymous}
}

// resetPending drops an outstanding OTP request but keeps the route the
// user was trying to reach.
func (s *Session) resetPending() {
	s.State = StateAnonymous
	s.Purpose = ""
	s.Contact = ""
	s.Draft = nil
	s.OTPSentAt = time.Time{}
}

// View is the part of the session the SPA may see. OTPSentAt lets the OTP
// screen count down to the next resend.
type View struct {
	State     State               `json:"state"`
	Purpose   Purpose             `json:"purpose,omitempty"`
	Contact   string              `json:"contact,omitempty"`
	Profile   *models.UserProfile `json:"user,omitempty"`
	ReturnTo  string              `json:"return_to,omitempty"`
	OTPSentAt *time.Time          `json:"otp_sent_at,omitempty"`
}

func (s *Session) View() View {
	v := View{State: s.State, Purpose: s.Purpose, Contact: s.Contact, ReturnTo: s.ReturnTo}
	if s.State == "" {
		v.State = StateAnonymous
	}
	if s.State == StateOTPRequested && !s.OTPSentAt.IsZero() {
		sent := s.OTPSentAt
		v.OTPSentAt = &sent
	}
	if s.State == StateVerified {
		v.Profile = s.Profile
	}
	return v
}
