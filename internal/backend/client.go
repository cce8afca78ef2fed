// Package backend is the typed HTTP client for the tenant backend.
//
// Responses are decoded strictly: a response missing a required field is a
// validation error, never filled with placeholders. Failures are classified
// into revocation, transient, and rejected requests.
package backend

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

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"rosterlink/internal/platform/logger"
	dErrors "rosterlink/pkg/domain-errors"
	"rosterlink/pkg/requestcontext"
)

const (
	defaultTimeout = 10 * time.Second
	maxBodyBytes   = 1 << 20
)

// Client provides typed access to the tenant backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	logger     *slog.Logger
	tracer     trace.Tracer
}

// Option customises client instantiation.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.httpClient = h
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// New constructs a Client for the backend at base.
func New(base string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(base), "/")
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("invalid backend base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("backend base url must be http or https, got %q", base)
	}
	cli := &Client{
		baseURL:    trimmed,
		httpClient: &http.Client{},
		timeout:    defaultTimeout,
		logger:     logger.Discard(),
		tracer:     otel.Tracer("rosterlink/internal/backend"),
	}
	for _, opt := range opts {
		opt(cli)
	}
	return cli, nil
}

// Register exchanges a one-time enrollment token for a grant.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*Registration, error) {
	if strings.TrimSpace(req.EnrollmentToken) == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "enrollment token is required")
	}
	var resp Registration
	if err := c.do(ctx, http.MethodPost, "/api/v1/device/enrollments", req, "", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Reconcile uploads the device's enrollment snapshot.
func (c *Client) Reconcile(ctx context.Context, credential string, req ReconcileRequest) (*CleanupSummary, error) {
	if req.Enrollments == nil {
		req.Enrollments = []EnrollmentEntry{}
	}
	var resp ReconcileResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/device/reconcile", req, credential, &resp); err != nil {
		return nil, err
	}
	return resp.CleanupSummary, nil
}

// TenantMetadata fetches a tenant's club metadata.
func (c *Client) TenantMetadata(ctx context.Context, token, slug string) (*TenantMetadata, error) {
	var resp TenantMetadata
	path := "/api/v1/tenants/" + url.PathEscape(slug)
	if err := c.do(ctx, http.MethodGet, path, nil, token, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DeleteEnrollment asks the backend to drop one enrollment.
func (c *Client) DeleteEnrollment(ctx context.Context, token, slug, enrollmentID string) error {
	path := "/api/v1/tenants/" + url.PathEscape(slug) + "/enrollments/" + url.PathEscape(enrollmentID)
	return c.do(ctx, http.MethodDelete, path, nil, token, nil)
}

// RegisterPushToken registers the device push token with a tenant.
func (c *Client) RegisterPushToken(ctx context.Context, token string, req PushTokenRequest) error {
	if strings.TrimSpace(req.PushToken) == "" {
		return dErrors.New(dErrors.CodeBadRequest, "push token is required")
	}
	return c.do(ctx, http.MethodPost, "/api/v1/device/push-token", req, token, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body any, token string, v validator) (err error) {
	ctx, span := c.tracer.Start(ctx, "backend "+method+" "+routeOf(path),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", method),
			attribute.String("url.path", path),
		))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token = strings.TrimSpace(token); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if id := requestcontext.RequestID(ctx); id != "" {
		req.Header.Set("X-Request-ID", id)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.WarnContext(ctx, "backend request failed", "method", method, "path", path, "error", err)
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "backend unreachable")
	}
	defer resp.Body.Close()
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "read backend response")
	}
	c.logger.DebugContext(ctx, "backend request",
		"method", method, "path", path, "status", resp.StatusCode, "duration", time.Since(start))

	if resp.StatusCode >= http.StatusBadRequest {
		var eb errorBody
		_ = json.Unmarshal(data, &eb)
		return classify(resp.StatusCode, eb, strings.TrimSpace(string(data)))
	}

	if v == nil {
		return nil
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return dErrors.New(dErrors.CodeValidation, "backend returned an empty body")
	}
	// Unknown fields are tolerated; validate enforces the required ones.
	if err := json.Unmarshal(data, v); err != nil {
		return dErrors.Wrap(err, dErrors.CodeValidation, "decode backend response")
	}
	if err := v.validate(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeValidation, "backend response is missing required fields")
	}
	return nil
}

// routeOf collapses path parameters so span names stay low-cardinality.
func routeOf(path string) string {
	parts := strings.Split(path, "/")
	if len(parts) > 4 && parts[3] == "tenants" {
		parts[4] = "{slug}"
		if len(parts) > 6 {
			parts[6] = "{id}"
		}
	}
	return strings.Join(parts, "/")
}

// IsNotFound reports whether err is a backend 404.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}
