package utils

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

var (
	mobilePattern = regexp.MustCompile(`^[6-9]\d{9}$`)
	emailPattern  = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	otpPattern    = regexp.MustCompile(`^\d{4,6}$`)
	namePattern   = regexp.MustCompile(`^[A-Za-z ]{2,50}$`)
)

var ErrInvalidContact = errors.New("enter a valid 10 digit mobile number or email address")

type ContactKind string

const (
	ContactMobile ContactKind = "mobile"
	ContactEmail  ContactKind = "email"
)

// IsValidMobile matches a 10 digit Indian mobile number starting with 6-9.
func IsValidMobile(v string) bool { return mobilePattern.MatchString(v) }

func IsValidEmail(v string) bool { return emailPattern.MatchString(v) }

// IsValidOTP matches a 4 to 6 digit one-time code.
func IsValidOTP(v string) bool { return otpPattern.MatchString(v) }

func IsValidName(v string) bool {
	return strings.TrimSpace(v) != "" && namePattern.MatchString(v)
}

// ClassifyContact decides whether a login identifier is a mobile number or
// an email address.
func ClassifyContact(v string) (ContactKind, error) {
	v = strings.TrimSpace(v)
	switch {
	case IsValidMobile(v):
		return ContactMobile, nil
	case IsValidEmail(v):
		return ContactEmail, nil
	default:
		return "", ErrInvalidContact
	}
}

// FieldErrors maps a form field to the problem found with it.
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	keys := make([]string, 0, len(fe))
	for k := range fe {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, fe[k]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Add records msg for field and returns fe for chaining.
func (fe FieldErrors) Add(field, msg string) FieldErrors {
	fe[field] = msg
	return fe
}

// Err returns nil when no field failed.
func (fe FieldErrors) Err() error {
	if len(fe) == 0 {
		return nil
	}
	return fe
}

// SubscriptionFields is the part of a subscription draft checked before any
// OTP is dispatched.
type SubscriptionFields struct {
	Name      string
	Mobile    string
	Email     string
	CollegeID int64
	StateID   int64
}

// ValidateSubscription checks every field and reports all violations together.
func ValidateSubscription(f SubscriptionFields) FieldErrors {
	errs := FieldErrors{}

	switch {
	case strings.TrimSpace(f.Name) == "":
		errs.Add("name", "Name is required")
	case !IsValidName(f.Name):
		errs.Add("name", "Name must be 2-50 letters and spaces only")
	}

	switch {
	case f.Mobile == "":
		errs.Add("mobile", "Mobile number is required")
	case !IsValidMobile(f.Mobile):
		errs.Add("mobile", "Enter a valid 10 digit mobile number")
	}

	switch {
	case f.Email == "":
		errs.Add("email", "Email is required")
	case !IsValidEmail(f.Email):
		errs.Add("email", "Enter a valid email address")
	}

	if f.CollegeID <= 0 {
		errs.Add("college", "Select your college")
	}
	if f.StateID <= 0 {
		errs.Add("state", "Select your state")
	}

	return errs
}

// ValidateOTPs checks each named code independently.
func ValidateOTPs(codes map[string]string) FieldErrors {
	errs := FieldErrors{}
	for field, code := range codes {
		if !IsValidOTP(code) {
			errs.Add(field, "Enter the 4-6 digit code")
		}
	}
	return errs
}
