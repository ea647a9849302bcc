package serverpe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"serverpe-gateway/config"
	"serverpe-gateway/logger"
)

const maxErrorBody = 64 << 10

// envelope is the response shape every ServerPe endpoint uses.
type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type Client struct {
	httpClient     *http.Client
	baseURL        string
	requestTimeout time.Duration
	paymentTimeout time.Duration
}

func NewClient(cfg config.BackendConfig) *Client {
	return &Client{
		httpClient:     &http.Client{},
		baseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		requestTimeout: cfg.RequestTimeout,
		paymentTimeout: cfg.PaymentTimeout,
	}
}

// WithHTTPClient swaps the underlying transport, mostly for tests.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

type request struct {
	method  string
	path    string
	query   url.Values
	body    interface{}
	timeout time.Duration
}

// do performs req and decodes the envelope's data into out. Every failure
// comes back as *Error.
func (c *Client) do(ctx context.Context, req request, out interface{}) error {
	resp, body, err := c.send(ctx, req, "application/json")
	if err != nil {
		return err
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return &Error{
			Kind:    KindUnknown,
			Status:  resp.StatusCode,
			Message: DefaultMessage(KindUnknown),
			Err:     fmt.Errorf("decode envelope from %s: %w", req.path, err),
		}
	}
	if !env.Success {
		msg := env.Message
		if msg == "" {
			msg = DefaultMessage(KindValidation)
		}
		return &Error{Kind: KindValidation, Status: resp.StatusCode, Message: msg}
	}

	if out == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return &Error{
			Kind:    KindUnknown,
			Status:  resp.StatusCode,
			Message: DefaultMessage(KindUnknown),
			Err:     fmt.Errorf("decode %s data: %w", req.path, err),
		}
	}
	return nil
}

// send executes req and returns the raw body of a 2xx response.
func (c *Client) send(ctx context.Context, req request, accept string) (*http.Response, []byte, error) {
	timeout := req.timeout
	if timeout <= 0 {
		timeout = c.requestTimeout
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	var reader io.Reader
	if req.body != nil {
		payload, err := json.Marshal(req.body)
		if err != nil {
			return nil, nil, fmt.Errorf("encode %s body: %w", req.path, err)
		}
		reader = bytes.NewReader(payload)
	}

	target := c.baseURL + req.path
	if len(req.query) > 0 {
		target += "?" + req.query.Encode()
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, target, reader)
	if err != nil {
		return nil, nil, fmt.Errorf("build %s %s: %w", req.method, req.path, err)
	}
	httpReq.Header.Set("Accept", accept)
	if reader != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if id := RequestIDFrom(ctx); id != "" {
		httpReq.Header.Set("X-Request-ID", id)
	}

	jar := JarFrom(ctx)
	jar.apply(httpReq)

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		logger.Log.Warn("backend request failed",
			zap.String("method", req.method),
			zap.String("path", req.path),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
		return nil, nil, Classify(0, nil, err)
	}
	defer resp.Body.Close()

	jar.merge(resp.Cookies())

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, Classify(0, nil, err)
	}

	logger.Log.Debug("backend request",
		zap.String("method", req.method),
		zap.String("path", req.path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if len(body) > maxErrorBody {
			body = body[:maxErrorBody]
		}
		return nil, nil, Classify(resp.StatusCode, body, nil)
	}
	return resp, body, nil
}

type requestIDKey struct{}

// WithRequestID tags backend calls made with ctx so both sides log the same id.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
