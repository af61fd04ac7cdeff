// Package crmclient is the REST client for the upstream CRM backend. It
// covers the call endpoints and the customer database endpoints and adapts
// them to the interfaces the domain packages consume.
//
// Reads are retried with exponential backoff; writes go out exactly once.
package crmclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
)

var (
	ErrNotFound    = errors.New("crmclient: not found")
	ErrUnavailable = errors.New("crmclient: backend unavailable")
)

const (
	defaultTimeout         = 10 * time.Second
	defaultRetryMaxElapsed = 15 * time.Second
)

type Client struct {
	base            string
	http            *http.Client
	log             *slog.Logger
	retryMaxElapsed time.Duration
	retryInitial    time.Duration
}

type Option func(*Client)

// WithTimeout bounds every individual request.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithRetryMaxElapsed caps the total retry time for idempotent reads.
func WithRetryMaxElapsed(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.retryMaxElapsed = d
		}
	}
}

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

func New(baseURL string, log *slog.Logger, opts ...Option) *Client {
	if log == nil {
		log = slog.Default()
	}
	c := &Client{
		base:            strings.TrimRight(baseURL, "/"),
		http:            &http.Client{Timeout: defaultTimeout},
		log:             log,
		retryMaxElapsed: defaultRetryMaxElapsed,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// getJSON issues a GET with retries. 4xx responses are permanent; network
// failures and 5xx responses are retried until retryMaxElapsed runs out.
func (c *Client) getJSON(ctx context.Context, path string, target any) error {
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = c.retryMaxElapsed
	if c.retryInitial > 0 {
		bo.InitialInterval = c.retryInitial
	}

	var lastErr error
	op := func() error {
		err := c.do(ctx, http.MethodGet, path, nil, target)
		if err == nil {
			return nil
		}
		lastErr = err
		if errors.Is(err, ErrNotFound) || isPermanent(err) {
			return backoff.Permanent(err)
		}
		return err
	}
	if err := backoff.Retry(op, backoff.WithContext(bo, ctx)); err != nil {
		return lastErr
	}
	return nil
}

// writeJSON issues a non-idempotent request exactly once.
func (c *Client) writeJSON(ctx context.Context, method, path string, body, target any) error {
	return c.do(ctx, method, path, body, target)
}

func (c *Client) do(ctx context.Context, method, path string, body, target any) error {
	var rd io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		rd = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rd)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s %s", ErrNotFound, method, path)
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: %s %s: %s", ErrUnavailable, method, path, snippet(raw))
	case resp.StatusCode >= 400:
		return &statusError{code: resp.StatusCode, body: snippet(raw)}
	}

	if target == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("decode response for %s %s: %w", method, path, err)
	}
	return nil
}

type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("crmclient: backend returned %d: %s", e.code, e.body)
}

func isPermanent(err error) bool {
	var se *statusError
	return errors.As(err, &se)
}

func snippet(b []byte) string {
	const max = 200
	s := strings.TrimSpace(string(b))
	if len(s) > max {
		return s[:max]
	}
	return s
}
