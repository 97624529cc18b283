// Package sellerapi is a client for the seller business API. Every call
// carries the seller's bearer credential and every response is wrapped in a
// {success, data, message} envelope.
package sellerapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	apperrors "github.com/jrsteele09/go-seller-dashboard/internal/errors"
	"github.com/rs/zerolog/log"
)

const (
	PathAccountDetails = "/v1/seller/account/details"
	PathActiveProducts = "/v1/seller/products/active"
)

// Envelope is the wrapper around every business API response body.
type Envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Message string          `json:"message,omitempty"`
}

// RequestObserver is told about every completed attempt.
type RequestObserver interface {
	ObserveAPIRequest(endpoint string, status int, duration time.Duration)
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	maxRetries int
	retryDelay time.Duration
	observer   RequestObserver
}

type ClientOption func(*Client)

// WithMaxRetries sets how many times a failed GET is retried.
func WithMaxRetries(n int) ClientOption {
	return func(c *Client) {
		c.maxRetries = n
	}
}

// WithRetryDelay sets the pause before the first retry. Later retries wait
// proportionally longer.
func WithRetryDelay(d time.Duration) ClientOption {
	return func(c *Client) {
		c.retryDelay = d
	}
}

func WithObserver(o RequestObserver) ClientOption {
	return func(c *Client) {
		c.observer = o
	}
}

// NewClient creates a business API client. The http.Client's timeout bounds each attempt.
func NewClient(baseURL string, httpClient *http.Client, options ...ClientOption) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("[NewClient] base url is required")
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		maxRetries: 2,
		retryDelay: 500 * time.Millisecond,
	}
	for _, opt := range options {
		opt(c)
	}
	return c, nil
}

// Get fetches path and decodes the envelope's data into out. Transport
// failures and 5xx responses are retried; 4xx responses are not.
func (c *Client) Get(ctx context.Context, accessToken, path string, out any) error {
	var err error
	for attempt := 0; ; attempt++ {
		err = c.do(ctx, http.MethodGet, accessToken, path, nil, out)
		if err == nil || attempt >= c.maxRetries || !retryable(ctx, err) {
			return err
		}
		log.Debug().Err(err).Str("path", path).Int("attempt", attempt+1).Msg("retrying business api request")

		select {
		case <-ctx.Done():
			return err
		case <-time.After(c.retryDelay * time.Duration(attempt+1)):
		}
	}
}

// Put sends body to path and decodes the envelope's data into out (when out is non-nil).
// Writes are never retried.
func (c *Client) Put(ctx context.Context, accessToken, path string, body, out any) error {
	return c.do(ctx, http.MethodPut, accessToken, path, body, out)
}

func (c *Client) do(ctx context.Context, method, accessToken, path string, body, out any) error {
	if accessToken == "" {
		return apperrors.ErrAuthRequired
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("[sellerapi %s %s] encoding body: %w", method, path, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("[sellerapi %s %s] building request: %w", method, path, err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.observe(path, 0, time.Since(start))
		return &transportError{err: fmt.Errorf("[sellerapi %s %s] %w", method, path, err)}
	}
	defer resp.Body.Close()
	c.observe(path, resp.StatusCode, time.Since(start))

	data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return &transportError{err: fmt.Errorf("[sellerapi %s %s] reading body: %w", method, path, err)}
	}

	var env Envelope
	decodeErr := json.Unmarshal(data, &env)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &apperrors.APIError{Status: resp.StatusCode, Message: env.Message}
	}
	if decodeErr != nil {
		return fmt.Errorf("[sellerapi %s %s] decoding envelope: %w", method, path, decodeErr)
	}
	if !env.Success {
		msg := env.Message
		if msg == "" {
			msg = "request was not successful"
		}
		return apperrors.Wrapf(apperrors.ErrEnvelopeFailure, "[sellerapi %s %s] %s", method, path, msg)
	}
	if out == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("[sellerapi %s %s] decoding data: %w", method, path, err)
	}
	return nil
}

func (c *Client) observe(path string, status int, d time.Duration) {
	if c.observer != nil {
		c.observer.ObserveAPIRequest(path, status, d)
	}
}

type transportError struct {
	err error
}

func (e *transportError) Error() string { return e.err.Error() }
func (e *transportError) Unwrap() error { return e.err }

// retryable reports whether a failed attempt may succeed when repeated:
// transport failures while the caller is still waiting, and 5xx responses.
func retryable(ctx context.Context, err error) bool {
	var te *transportError
	if errors.As(err, &te) {
		return ctx.Err() == nil
	}
	var apiErr *apperrors.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status >= 500
	}
	return false
}

// AuthRequired turns a 401 from the business API into ErrAuthRequired: the
// session and the API disagree, so the browser has to sign in again.
func AuthRequired(err error) error {
	if errors.Is(err, apperrors.ErrUnauthorized) {
		return apperrors.Wrapf(apperrors.ErrAuthRequired, "business api rejected credential")
	}
	return err
}
