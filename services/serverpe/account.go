package serverpe

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"net/url"

	"serverpe-gateway/models"
)

func (c *Client) Profile(ctx context.Context) (*models.UserProfile, error) {
	var profile models.UserProfile
	if err := c.do(ctx, request{method: http.MethodGet, path: "/user/profile"}, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

func (c *Client) UpdateProfile(ctx context.Context, update models.ProfileUpdate) (*models.UserProfile, error) {
	var profile models.UserProfile
	err := c.do(ctx, request{method: http.MethodPatch, path: "/user/profile", body: update}, &profile)
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (c *Client) Purchases(ctx context.Context) ([]models.Purchase, error) {
	var purchases []models.Purchase
	if err := c.do(ctx, request{method: http.MethodGet, path: "/user/purchases"}, &purchases); err != nil {
		return nil, err
	}
	return purchases, nil
}

// Order returns the server-confirmed details of one order.
func (c *Client) Order(ctx context.Context, orderID string) (*models.OrderDetails, error) {
	var order models.OrderDetails
	path := "/orders/" + url.PathEscape(orderID)
	if err := c.do(ctx, request{method: http.MethodGet, path: path}, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// CreatePaymentOrder opens a gateway order. Bounded by the payment timeout.
func (c *Client) CreatePaymentOrder(ctx context.Context, in models.PaymentOrderRequest) (*models.PaymentOrder, error) {
	var order models.PaymentOrder
	err := c.do(ctx, request{
		method:  http.MethodPost,
		path:    "/payment/create-order",
		body:    in,
		timeout: c.paymentTimeout,
	}, &order)
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// VerifyPayment hands the widget's signed result to the backend, which owns
// signature verification. Bounded by the payment timeout.
func (c *Client) VerifyPayment(ctx context.Context, result models.GatewayResult) error {
	result.Error = nil
	return c.do(ctx, request{
		method:  http.MethodPost,
		path:    "/payment/verify",
		body:    result,
		timeout: c.paymentTimeout,
	}, nil)
}

func (c *Client) PaymentStatus(ctx context.Context, orderID string) (*models.PaymentStatusResponse, error) {
	var status models.PaymentStatusResponse
	path := "/payment/status/" + url.PathEscape(orderID)
	if err := c.do(ctx, request{method: http.MethodGet, path: path}, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// Document is a binary file passed through from the backend.
type Document struct {
	ContentType string
	Filename    string
	Body        []byte
}

// Invoice downloads the PDF invoice for orderID.
func (c *Client) Invoice(ctx context.Context, orderID string) (*Document, error) {
	path := "/orders/" + url.PathEscape(orderID) + "/invoice"
	resp, body, err := c.send(ctx, request{method: http.MethodGet, path: path}, "application/pdf")
	if err != nil {
		return nil, err
	}

	doc := &Document{
		ContentType: resp.Header.Get("Content-Type"),
		Filename:    fmt.Sprintf("invoice-%s.pdf", orderID),
		Body:        body,
	}
	if doc.ContentType == "" {
		doc.ContentType = "application/pdf"
	}
	if _, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); err == nil && params["filename"] != "" {
		doc.Filename = params["filename"]
	}
	return doc, nil
}
