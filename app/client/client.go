package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/ms-go-letters/app/factory"
	"github.com/vibast-solutions/ms-go-letters/app/types"
)

var (
	ErrUnavailable = errors.New("server unavailable")
	ErrNotFound    = errors.New("not found")
)

// APIError is a non-2xx answer from the letters API. Message is the server's
// "error" field when one was sent.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("unexpected status %d", e.StatusCode)
}

func (e *APIError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}

// ServerMessage returns the message the server attached to err, if any.
func ServerMessage(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return ""
}

type Client struct {
	baseURL string
	http    *http.Client
	logger  logrus.FieldLogger
}

func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return NewWithHTTPClient(baseURL, &http.Client{Timeout: timeout})
}

func NewWithHTTPClient(baseURL string, httpClient *http.Client) *Client {
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		http:    httpClient,
		logger:  factory.NewModuleLogger("letters-client"),
	}
}

func (c *Client) CreateOrder(ctx context.Context, req *types.CreateOrderRequest) (*types.CreateOrderResponse, error) {
	var out types.CreateOrderResponse
	if err := c.do(ctx, http.MethodPost, "/api/orders/create", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreatePaymentIntent(ctx context.Context, orderID string) (*types.CreatePaymentIntentResponse, error) {
	body := &types.CreatePaymentIntentRequest{OrderId: orderID}
	var out types.CreatePaymentIntentResponse
	if err := c.do(ctx, http.MethodPost, "/api/payments/create-intent", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetPaymentStatus(ctx context.Context, orderID string) (*types.PaymentStatusResponse, error) {
	path := "/api/payments/status?" + url.Values{"order_id": {orderID}}.Encode()
	var out types.PaymentStatusResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) TrackOrder(ctx context.Context, trackingCode string) (*types.TrackOrderResponse, error) {
	path := "/api/orders/track/" + url.PathEscape(trackingCode)
	var out types.TrackOrderResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	requestID := uuid.NewString()
	req.Header.Set("X-Request-Id", requestID)

	logger := c.logger.WithFields(logrus.Fields{"method": method, "path": path, "request_id": requestID})

	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		logger.WithError(err).Warn("api request failed")
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read response: %v", ErrUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errBody types.ErrorResponse
		_ = json.Unmarshal(raw, &errBody)
		logger.WithField("status", resp.StatusCode).Debug("api request rejected")
		return &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(errBody.Error)}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
