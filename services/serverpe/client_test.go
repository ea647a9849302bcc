package serverpe

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"serverpe-gateway/config"
	"serverpe-gateway/models"
	"serverpe-gateway/services/pricing"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewClient(config.BackendConfig{
		BaseURL:        srv.URL + "/api/",
		RequestTimeout: 2 * time.Second,
		PaymentTimeout: 100 * time.Millisecond,
	})
}

func writeEnvelope(w http.ResponseWriter, status int, success bool, message string, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": success,
		"message": message,
		"data":    data,
	})
}

func TestVerifyLoginOTPStoresBackendCookie(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/auth/verify-otp" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if body["login_id"] != "9876543210" || body["otp"] != "123456" {
			t.Errorf("unexpected body %v", body)
		}
		http.SetCookie(w, &http.Cookie{Name: "serverpe_token", Value: "abc", Path: "/"})
		writeEnvelope(w, http.StatusOK, true, "ok", map[string]interface{}{
			"user_id":       7,
			"user_name":     "Asha",
			"mobile_number": "9876543210",
		})
	})

	jar := NewJar(nil)
	ctx := WithJar(context.Background(), jar)

	profile, err := client.VerifyLoginOTP(ctx, "9876543210", "123456")
	if err != nil {
		t.Fatalf("VerifyLoginOTP() error = %v", err)
	}
	if profile.UserID != 7 || profile.Name != "Asha" {
		t.Fatalf("unexpected profile %+v", profile)
	}
	if !jar.Changed() || jar.Values()["serverpe_token"] != "abc" {
		t.Fatalf("expected backend cookie in jar, got %v", jar.Values())
	}
}

func TestJarIsReplayedAndCleared(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie("serverpe_token")
		if err != nil || c.Value != "abc" {
			t.Errorf("expected replayed cookie, got %v %v", c, err)
		}
		http.SetCookie(w, &http.Cookie{Name: "serverpe_token", Value: "", MaxAge: -1})
		writeEnvelope(w, http.StatusOK, true, "logged out", nil)
	})

	jar := NewJar(map[string]string{"serverpe_token": "abc"})
	if err := client.Logout(WithJar(context.Background(), jar)); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}
	if _, ok := jar.Values()["serverpe_token"]; ok {
		t.Fatal("expected cookie removed after backend cleared it")
	}
}

func TestClientWithoutJar(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusOK, true, "", []map[string]interface{}{
			{"state_id": 1, "state_name": "Karnataka", "gst_code": "29"},
		})
	})

	states, err := client.States(context.Background())
	if err != nil {
		t.Fatalf("States() error = %v", err)
	}
	if len(states) != 1 || states[0].GSTCode != pricing.StateCode("29") {
		t.Fatalf("unexpected states %+v", states)
	}
}

func TestClientClassifiesStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusUnauthorized, false, "Session expired", nil)
	})

	_, err := client.Profile(context.Background())
	if !IsUnauthorized(err) {
		t.Fatalf("expected UNAUTHORIZED, got %v", err)
	}
	var e *Error
	if !errors.As(err, &e) || e.Message != "Session expired" || e.Status != http.StatusUnauthorized {
		t.Fatalf("unexpected error %+v", e)
	}
}

func TestClientUnsuccessfulEnvelope(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusOK, false, "Invalid OTP", nil)
	})

	err := client.SendLoginOTP(context.Background(), "a@b.co")
	if KindOf(err) != KindValidation || MessageOf(err, "") != "Invalid OTP" {
		t.Fatalf("expected validation error with server message, got %v", err)
	}
}

func TestPaymentCallsUsePaymentTimeout(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	})

	_, err := client.CreatePaymentOrder(context.Background(), models.PaymentOrderRequest{ProjectID: 1, AmountPaise: 118000, Currency: "INR"})
	if KindOf(err) != KindTimeout {
		t.Fatalf("expected TIMEOUT, got %v", err)
	}
	var e *Error
	if !errors.As(err, &e) || !e.Retryable() {
		t.Fatal("expected a retryable timeout")
	}
}

func TestInvoicePassesPDFThrough(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/orders/order_1/invoice" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", `attachment; filename="ServerPe-INV-1.pdf"`)
		w.Write([]byte("%PDF-1.4"))
	})

	doc, err := client.Invoice(context.Background(), "order_1")
	if err != nil {
		t.Fatalf("Invoice() error = %v", err)
	}
	if doc.Filename != "ServerPe-INV-1.pdf" || !strings.HasPrefix(string(doc.Body), "%PDF") {
		t.Fatalf("unexpected document %+v", doc)
	}
}

func TestUsersQuery(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") != "2" || r.URL.Query().Get("limit") != "25" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		writeEnvelope(w, http.StatusOK, true, "", map[string]interface{}{"users": []interface{}{}, "page": 2, "limit": 25, "total": 30})
	})

	page, err := client.Users(context.Background(), 2, 25)
	if err != nil {
		t.Fatalf("Users() error = %v", err)
	}
	if page.Total != 30 {
		t.Fatalf("unexpected page %+v", page)
	}
}
