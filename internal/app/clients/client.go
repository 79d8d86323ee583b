package clients

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

	"github.com/yigit/classroom/internal/config"
	"github.com/yigit/classroom/internal/pkg/apperrors"
	"github.com/yigit/classroom/internal/pkg/helpers"
	"github.com/yigit/classroom/internal/pkg/logger"
)

const maxErrorBody = 512

// Options controls timeouts and retries of a Client.
type Options struct {
	// Timeout bounds each attempt.
	Timeout time.Duration
	// MaxRetries is the number of extra attempts for idempotent methods.
	MaxRetries int
	// RetryBackoff is multiplied by the attempt number between attempts.
	RetryBackoff time.Duration
	// HTTPClient defaults to a client without its own timeout.
	HTTPClient *http.Client
}

// OptionsFromConfig reads the clients section of cfg.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Timeout:      helpers.ParseDuration(cfg.Clients.Timeout, 3*time.Second),
		MaxRetries:   cfg.Clients.MaxRetries,
		RetryBackoff: helpers.ParseDuration(cfg.Clients.RetryBackoff, 200*time.Millisecond),
	}
}

// Client is a JSON client for one downstream service.
type Client struct {
	service    string
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	maxRetries int
	backoff    time.Duration
}

// New creates a Client for service rooted at baseURL.
func New(service, baseURL string, opts Options) *Client {
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{}
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 3 * time.Second
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	return &Client{
		service:    service,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: opts.HTTPClient,
		timeout:    opts.Timeout,
		maxRetries: opts.MaxRetries,
		backoff:    opts.RetryBackoff,
	}
}

func idempotent(method string) bool {
	switch method {
	case http.MethodGet, http.MethodPut, http.MethodDelete, http.MethodHead:
		return true
	}
	return false
}

// Do sends a JSON request and decodes a 2xx body into out when out is not nil.
// Failures are returned as *apperrors.DownstreamError.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode %s request: %w", c.service, err)
		}
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	attempts := 1
	if idempotent(method) {
		attempts += c.maxRetries
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			logger.Warn().Err(lastErr).
				Str("service", c.service).
				Str("method", method).
				Str("url", target).
				Int("attempt", attempt).
				Msg("Retrying downstream call")
			if err := c.wait(ctx, attempt-1); err != nil {
				return &apperrors.DownstreamError{Service: c.service, Err: err}
			}
		}

		retry, err := c.attempt(ctx, method, target, payload, out)
		if err == nil {
			return nil
		}
		lastErr = err
		if !retry || ctx.Err() != nil {
			break
		}
	}
	return lastErr
}

func (c *Client) wait(ctx context.Context, n int) error {
	if c.backoff <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(c.backoff * time.Duration(n))
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// attempt performs one call and reports whether a failure may be retried.
func (c *Client) attempt(ctx context.Context, method, target string, payload []byte, out interface{}) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return false, fmt.Errorf("failed to build %s request: %w", c.service, err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if id := helpers.RequestIDFrom(ctx); id != "" {
		req.Header.Set(helpers.RequestIDHeader, id)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return true, &apperrors.DownstreamError{Service: c.service, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil || resp.StatusCode == http.StatusNoContent {
			_, _ = io.Copy(io.Discard, resp.Body)
			return false, nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return false, &apperrors.DownstreamError{
				Service:    c.service,
				StatusCode: resp.StatusCode,
				Err:        fmt.Errorf("invalid response body: %w", err),
			}
		}
		return false, nil
	}

	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	cause := errors.New(strings.TrimSpace(string(snippet)))
	if resp.StatusCode == http.StatusNotFound {
		cause = fmt.Errorf("%w: %s", apperrors.ErrResourceNotFound, strings.TrimSpace(string(snippet)))
	}
	return resp.StatusCode >= 500, &apperrors.DownstreamError{
		Service:    c.service,
		StatusCode: resp.StatusCode,
		Err:        cause,
	}
}
