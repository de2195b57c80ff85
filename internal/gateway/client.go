// Package gateway wraps every CampusBazaar backend endpoint in a typed call.
//
// Calls are single-shot: no retries, no caching, no batching. A non-2xx
// answer becomes an *APIError carrying the status and the server's detail
// message; a payload missing a required field fails with
// models.ErrMalformedResponse before it reaches callers.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/TushxrTxndon/CampusBazaar/internal/metrics"
	"github.com/TushxrTxndon/CampusBazaar/internal/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const userAgent = "CampusBazaar-Storefront/1.0"

// APIError is a non-2xx answer from the backend
type APIError struct {
	StatusCode int
	Method     string
	Route      string
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Route, e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("%s %s: status %d", e.Method, e.Route, e.StatusCode)
}

// Detail returns the server-provided message carried by err, if any
func Detail(err error) (string, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Detail != "" {
		return apiErr.Detail, true
	}
	return "", false
}

// StatusCode returns the backend status carried by err, or 0
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

type validator interface {
	Validate() error
}

// Client calls the marketplace backend
type Client struct {
	httpClient *http.Client
	baseURL    string
	metrics    *metrics.AppMetrics
	logger     *slog.Logger
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the traced default client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithMetrics(m *metrics.AppMetrics) Option {
	return func(c *Client) { c.metrics = m }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New creates a client for the backend at baseURL
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid backend URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid backend URL %q: scheme must be http or https", baseURL)
	}

	c := &Client{
		httpClient: &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		metrics:    metrics.NewNoopMetrics(),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "gateway")
	return c, nil
}

// BaseURL returns the backend origin
func (c *Client) BaseURL() string { return c.baseURL }

// call describes one backend request. route is the path template used for metrics.
type call struct {
	method      string
	route       string
	path        string
	query       url.Values
	body        any
	rawBody     io.Reader
	contentType string
}

func (c *Client) do(ctx context.Context, cl call, out any) error {
	var bodyReader io.Reader
	contentType := cl.contentType
	switch {
	case cl.rawBody != nil:
		bodyReader = cl.rawBody
	case cl.body != nil:
		jsonBody, err := json.Marshal(cl.body)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
		contentType = "application/json"
	}

	target := c.baseURL + cl.path
	if len(cl.query) > 0 {
		target += "?" + cl.query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, target, bodyReader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if requestID := middleware.RequestIDFromContext(ctx); requestID != "" {
		req.Header.Set("X-Request-ID", requestID)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.RecordGatewayCall(ctx, cl.method, cl.route, 0, start, true)
		c.logger.Warn("backend unreachable", "method", cl.method, "route", cl.route, "error", err)
		return fmt.Errorf("%s %s: %w", cl.method, cl.route, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	failed := err != nil || resp.StatusCode < 200 || resp.StatusCode > 299
	c.metrics.RecordGatewayCall(ctx, cl.method, cl.route, resp.StatusCode, start, failed)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{
			StatusCode: resp.StatusCode,
			Method:     cl.method,
			Route:      cl.route,
			Detail:     parseDetail(respBody),
		}
		c.logger.Info("backend rejected request", "method", cl.method, "route", cl.route,
			"status", resp.StatusCode, "detail", apiErr.Detail)
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("parsing %s response: %w", cl.route, err)
	}
	if v, ok := out.(validator); ok {
		if err := v.Validate(); err != nil {
			return fmt.Errorf("%s: %w", cl.route, err)
		}
	}
	return nil
}

// parseDetail extracts FastAPI's "detail", which is a string or a list of validation errors
func parseDetail(body []byte) string {
	var envelope struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || len(envelope.Detail) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(envelope.Detail, &s); err == nil {
		return s
	}

	var items []struct {
		Loc []any  `json:"loc"`
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(envelope.Detail, &items); err == nil {
		msgs := make([]string, 0, len(items))
		for _, item := range items {
			if item.Msg != "" {
				msgs = append(msgs, item.Msg)
			}
		}
		return strings.Join(msgs, "; ")
	}

	return strings.TrimSpace(string(envelope.Detail))
}

func validateEach[T any, P interface {
	*T
	validator
}](items []T) error {
	for i := range items {
		if err := P(&items[i]).Validate(); err != nil {
			return err
		}
	}
	return nil
}
