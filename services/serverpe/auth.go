package serverpe

import (
	"context"
	"net/http"

	"serverpe-gateway/models"
)

type loginOTPPayload struct {
	LoginID string `json:"login_id"`
	OTP     string `json:"otp,omitempty"`
}

type subscriptionVerifyPayload struct {
	models.SubscriptionDraft
	MobileOTP string `json:"mobile_otp"`
	EmailOTP  string `json:"email_otp"`
}

// SendLoginOTP asks the backend to deliver a login code to contact, which is
// either a mobile number or an email address.
func (c *Client) SendLoginOTP(ctx context.Context, contact string) error {
	return c.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/send-otp",
		body:   loginOTPPayload{LoginID: contact},
	}, nil)
}

// VerifyLoginOTP exchanges a login code for the user's profile. On success
// the backend sets its session cookie, which lands in the context's Jar.
func (c *Client) VerifyLoginOTP(ctx context.Context, contact, otp string) (*models.UserProfile, error) {
	var profile models.UserProfile
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/verify-otp",
		body:   loginOTPPayload{LoginID: contact, OTP: otp},
	}, &profile)
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// SendSubscriptionOTP dispatches one code to the draft's mobile number and
// one to its email address.
func (c *Client) SendSubscriptionOTP(ctx context.Context, draft models.SubscriptionDraft) error {
	return c.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/subscribe/send-otp",
		body:   draft,
	}, nil)
}

func (c *Client) VerifySubscriptionOTP(ctx context.Context, draft models.SubscriptionDraft, mobileOTP, emailOTP string) error {
	return c.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/subscribe/verify-otp",
		body: subscriptionVerifyPayload{
			SubscriptionDraft: draft,
			MobileOTP:         mobileOTP,
			EmailOTP:          emailOTP,
		},
	}, nil)
}

func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, request{method: http.MethodPost, path: "/auth/logout"}, nil)
}
