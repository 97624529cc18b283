package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	apperrors "github.com/jrsteele09/go-seller-dashboard/internal/errors"
)

// client holds what the auth and data APIs share: the configuration source
// and the HTTP client used for every provider call.
type client struct {
	configs    ConfigSource
	httpClient *http.Client
}

func newClient(configs ConfigSource, httpClient *http.Client) client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return client{configs: configs, httpClient: httpClient}
}

type request struct {
	method      string
	path        string
	accessToken string
	body        any
	headers     map[string]string
}

// do sends req to the provider and decodes a 2xx JSON body into out (when out is non-nil).
// Non-2xx responses are returned as *apperrors.APIError.
func (c client) do(ctx context.Context, req request, out any) error {
	cfg, err := c.configs.Load(ctx)
	if err != nil {
		return err
	}

	var body io.Reader
	if req.body != nil {
		payload, err := json.Marshal(req.body)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, cfg.URL+req.path, body)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	httpReq.Header.Set("apikey", cfg.AnonKey)
	httpReq.Header.Set("Accept", "application/json")
	if req.body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	bearer := req.accessToken
	if bearer == "" {
		bearer = cfg.AnonKey
	}
	httpReq.Header.Set("Authorization", "Bearer "+bearer)
	for k, v := range req.headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.method, req.path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &apperrors.APIError{Status: resp.StatusCode, Message: errorMessage(resp.Body)}
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s %s response: %w", req.method, req.path, err)
	}
	return nil
}

// errorMessage extracts the human readable part of a provider error body.
// The auth endpoints use error_description or msg, the data endpoints use message.
func errorMessage(r io.Reader) string {
	var body struct {
		Error            string `json:"error"`
		ErrorDescription string `json:"error_description"`
		Msg              string `json:"msg"`
		Message          string `json:"message"`
	}
	data, err := io.ReadAll(io.LimitReader(r, 64*1024))
	if err != nil || json.Unmarshal(data, &body) != nil {
		return ""
	}
	for _, m := range []string{body.ErrorDescription, body.Msg, body.Message, body.Error} {
		if m != "" {
			return m
		}
	}
	return ""
}
