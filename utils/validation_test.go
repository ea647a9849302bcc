package utils

import (
	"errors"
	"strings"
	"testing"
)

func TestIsValidMobile(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{input: "9876543210", want: true},
		{input: "6000000000", want: true},
		{input: "1234567890", want: false},
		{input: "98765432", want: false},
		{input: "98765432101", want: false},
		{input: "+919876543210", want: false},
		{input: "98765 43210", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := IsValidMobile(tt.input); got != tt.want {
				t.Fatalf("IsValidMobile(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestIsValidEmail(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{input: "a@b.co", want: true},
		{input: "student.name@college.edu.in", want: true},
		{input: "a@b", want: false},
		{input: "a b@c.com", want: false},
		{input: "@c.com", want: false},
		{input: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := IsValidEmail(tt.input); got != tt.want {
				t.Fatalf("IsValidEmail(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestIsValidOTP(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{input: "1234", want: true},
		{input: "123456", want: true},
		{input: "123", want: false},
		{input: "1234567", want: false},
		{input: "12a456", want: false},
		{input: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := IsValidOTP(tt.input); got != tt.want {
				t.Fatalf("IsValidOTP(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestClassifyContact(t *testing.T) {
	if kind, err := ClassifyContact("9876543210"); err != nil || kind != ContactMobile {
		t.Fatalf("expected mobile, got %q, %v", kind, err)
	}
	if kind, err := ClassifyContact(" a@b.co "); err != nil || kind != ContactEmail {
		t.Fatalf("expected email, got %q, %v", kind, err)
	}
	if _, err := ClassifyContact("12345"); !errors.Is(err, ErrInvalidContact) {
		t.Fatalf("expected ErrInvalidContact, got %v", err)
	}
}

func TestValidateSubscription_CollectsEveryFieldError(t *testing.T) {
	errs := ValidateSubscription(SubscriptionFields{})

	if len(errs) != 5 {
		t.Fatalf("expected 5 field errors, got %d: %v", len(errs), errs)
	}
	for _, key := range []string{"name", "mobile", "email", "college", "state"} {
		if _, ok := errs[key]; !ok {
			t.Fatalf("expected an error for %q, got %v", key, errs)
		}
	}
}

func TestValidateSubscription_ReportsOnlyBadFields(t *testing.T) {
	errs := ValidateSubscription(SubscriptionFields{
		Name:      "Asha K",
		Mobile:    "1234567890",
		Email:     "asha@college.in",
		CollegeID: 4,
		StateID:   0,
	})

	if len(errs) != 2 {
		t.Fatalf("expected mobile and state errors, got %v", errs)
	}
	if _, ok := errs["mobile"]; !ok {
		t.Fatalf("expected mobile error, got %v", errs)
	}
	if _, ok := errs["state"]; !ok {
		t.Fatalf("expected state error, got %v", errs)
	}
	if errs.Err() == nil || !strings.Contains(errs.Error(), "mobile:") {
		t.Fatalf("unexpected error text %q", errs.Error())
	}
}

func TestValidateSubscription_RejectsDigitsInName(t *testing.T) {
	errs := ValidateSubscription(SubscriptionFields{
		Name:      "R2D2",
		Mobile:    "9876543210",
		Email:     "r@d.io",
		CollegeID: 1,
		StateID:   1,
	})
	if _, ok := errs["name"]; !ok || len(errs) != 1 {
		t.Fatalf("expected only a name error, got %v", errs)
	}
}

func TestValidateOTPs(t *testing.T) {
	errs := ValidateOTPs(map[string]string{"mobile_otp": "12", "email_otp": "12a4"})
	if len(errs) != 2 {
		t.Fatalf("expected both codes to fail, got %v", errs)
	}
	if ValidateOTPs(map[string]string{"mobile_otp": "1234", "email_otp": "654321"}).Err() != nil {
		t.Fatal("expected valid codes to pass")
	}
}
