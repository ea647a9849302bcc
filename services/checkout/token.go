package checkout

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"serverpe-gateway/services/pricing"
)

const quoteIssuer = "serverpe-gateway"

var (
	ErrInvalidQuote = errors.New("invalid checkout quote")
	ErrQuoteExpired = errors.New("checkout quote expired")
)

// QuoteClaims pins the price the buyer was shown. The amount later sent to
// the payment gateway is read from here, never from the browser.
type QuoteClaims struct {
	ProjectID  int64             `json:"pid"`
	UserID     int64             `json:"uid"`
	BaseAmount int64             `json:"base"`
	GSTPercent string            `json:"gst"`
	Total      int64             `json:"total"`
	BuyerState pricing.StateCode `json:"bst"`
	jwt.RegisteredClaims
}

type quoteSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func (q *quoteSigner) sign(userID int64, projectID int64, b pricing.Breakdown) (string, time.Time, error) {
	now := q.now()
	expires := now.Add(q.ttl)
	claims := QuoteClaims{
		ProjectID:  projectID,
		UserID:     userID,
		BaseAmount: int64(b.BaseAmount),
		GSTPercent: b.GSTPercent.String(),
		Total:      int64(b.TotalAmount),
		BuyerState: b.BuyerState,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.FormatInt(userID, 10),
			Issuer:    quoteIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(q.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign quote: %w", err)
	}
	return token, expires, nil
}

func (q *quoteSigner) parse(token string) (*QuoteClaims, error) {
	claims := &QuoteClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return q.secret, nil
	},
		jwt.WithIssuer(quoteIssuer),
		jwt.WithTimeFunc(q.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrQuoteExpired
		}
		return nil, ErrInvalidQuote
	}
	if !parsed.Valid {
		return nil, ErrInvalidQuote
	}
	return claims, nil
}

// rate recovers the GST rate the quote was computed with.
func (c *QuoteClaims) rate() (pricing.Rate, error) {
	d, err := decimal.NewFromString(c.GSTPercent)
	if err != nil {
		return pricing.Rate{}, ErrInvalidQuote
	}
	return pricing.NewRate(d)
}
