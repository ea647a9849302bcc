package models

// UserProfile is the logged-in user as returned by the backend after OTP
// verification.
type UserProfile struct {
	UserID         int64  `json:"user_id"`
	Name           string `json:"user_name"`
	Email          string `json:"email"`
	Mobile         string `json:"mobile_number"`
	CollegeID      int64  `json:"college_id,omitempty"`
	College        string `json:"college_name,omitempty"`
	StateID        int64  `json:"state_id,omitempty"`
	State          string `json:"state_name,omitempty"`
	MobileVerified bool   `json:"is_mobile_verified"`
	EmailVerified  bool   `json:"is_email_verified"`
	IsAdmin        bool   `json:"is_admin"`
}

// SubscriptionDraft is collected on the subscribe form before any OTP is sent.
// It is never persisted; leaving the flow discards it.
type SubscriptionDraft struct {
	Name      string `json:"user_name"`
	Email     string `json:"email"`
	Mobile    string `json:"mobile_number"`
	CollegeID int64  `json:"college_id"`
	StateID   int64  `json:"state_id"`
}

type ProfileUpdate struct {
	Name      *string `json:"user_name,omitempty"`
	CollegeID *int64  `json:"college_id,omitempty"`
	StateID   *int64  `json:"state_id,omitempty"`
}

type LoginOTPRequest struct {
	Contact  string `json:"contact"`
	ReturnTo string `json:"return_to,omitempty"`
}

type LoginVerifyRequest struct {
	OTP string `json:"otp"`
}

type SubscriptionVerifyRequest struct {
	MobileOTP string `json:"mobile_otp"`
	EmailOTP  string `json:"email_otp"`
}
