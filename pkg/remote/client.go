// Package remote provides the outbound HTTP client shared by the product
// API integrations. It injects the userApiKey header, rate-limits requests
// and traces each call.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
)

const (
	// RequestTimeout matches the upstream API's expected response window.
	RequestTimeout = 15 * time.Second

	// APIKeyHeader is the header name the product API authenticates with.
	APIKeyHeader = "userApiKey"
)

var tracer = otel.Tracer("github.com/facturio/stocksync/pkg/remote")

// Config controls the client's transport behavior.
type Config struct {
	APIKey            string        // Sent as userApiKey on every request when set
	Timeout           time.Duration // Per-request timeout (default: RequestTimeout)
	RequestsPerSecond float64       // 0 disables rate limiting
	Burst             int           // Rate limiter burst (default: 1)
}

// DefaultConfig returns the transport defaults.
func DefaultConfig() Config {
	return Config{Timeout: RequestTimeout}
}

// Response is an HTTP exchange outcome. Non-2xx statuses are not errors at
// this layer; callers decide what a 403 or 404 means for them.
type Response struct {
	Status int
	Body   []byte
}

// OK reports whether the status is in the 2xx range.
func (r *Response) OK() bool {
	return r.Status >= 200 && r.Status < 300
}

// DecodeJSON unmarshals the body into v.
func (r *Response) DecodeJSON(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("failed to decode response body: %w", err)
	}
	return nil
}

// Client performs JSON requests against the product API.
type Client struct {
	client  *http.Client
	apiKey  string
	limiter *rate.Limiter
	logger  *slog.Logger
}

// New creates a client from the given configuration.
func New(cfg Config, logger *slog.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = RequestTimeout
	}
	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}
	return &Client{
		client:  &http.Client{Timeout: cfg.Timeout},
		apiKey:  cfg.APIKey,
		limiter: limiter,
		logger:  logger,
	}
}

// Get performs a GET request. Extra headers are applied after the defaults,
// so callers can add per-request headers such as the catalog's page header.
func (c *Client) Get(ctx context.Context, url string, headers map[string]string) (*Response, error) {
	return c.do(ctx, http.MethodGet, url, nil, headers)
}

// Patch performs a PATCH request with a JSON body.
func (c *Client) Patch(ctx context.Context, url string, payload any) (*Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}
	return c.do(ctx, http.MethodPatch, url, body, nil)
}

func (c *Client) do(ctx context.Context, method, url string, body []byte, headers map[string]string) (*Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter wait: %w", err)
		}
	}

	ctx, span := tracer.Start(ctx, "remote."+method,
		trace.WithAttributes(attribute.String("http.url", url)))
	defer span.End()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "request build failed")
		return nil, fmt.Errorf("failed to create %s request: %w", method, err)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set(APIKeyHeader, c.apiKey)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "request failed")
		return nil, fmt.Errorf("%s %s: %w", method, url, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "read failed")
		return nil, fmt.Errorf("failed to read response from %s: %w", url, err)
	}

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	if resp.StatusCode >= 500 {
		c.logger.Warn("remote call returned server error",
			slog.String("method", method),
			slog.String("url", url),
			slog.Int("status", resp.StatusCode))
	}
	return &Response{Status: resp.StatusCode, Body: data}, nil
}
