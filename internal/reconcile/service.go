// Package reconcile uploads the device's enrollment snapshot so the backend
// can garbage-collect server-side state the device no longer holds.
//
// Runs are throttled, serialized per service instance, and best-effort: a
// failed run is logged and reported through Result, never returned as an
// error. The cleanup summary is recorded for observability only; it never
// mutates the local model.
package reconcile

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"rosterlink/internal/backend"
	"rosterlink/internal/enrollment/models"
	"rosterlink/internal/platform/logger"
	"rosterlink/internal/reconcile/metrics"
)

// DefaultMinInterval is the throttle window between successful runs.
const DefaultMinInterval = time.Hour

// Client uploads a snapshot.
type Client interface {
	Reconcile(ctx context.Context, credential string, req backend.ReconcileRequest) (*backend.CleanupSummary, error)
}

// ThrottleStore persists the time of the last successful run.
type ThrottleStore interface {
	LastSuccess(ctx context.Context) (time.Time, error)
	RecordSuccess(ctx context.Context, at time.Time) error
}

// AuthFailureHandler receives errors from the upload so an explicit
// revocation of the credential can reach the lifecycle.
type AuthFailureHandler func(ctx context.Context, slug string, err error) bool

// Identity is who the device presents itself as.
type Identity struct {
	HardwareID string
	Credential string
	// CredentialTenant is the slug whose token is used as Credential.
	CredentialTenant string
}

// Status is the outcome of a run.
type Status string

const (
	StatusSucceeded    Status = "succeeded"
	StatusThrottled    Status = "throttled"
	StatusNoCredential Status = "no_credential"
	StatusFailed       Status = "failed"
)

// Result describes one run.
type Result struct {
	Status  Status                  `json:"status"`
	Forced  bool                    `json:"forced"`
	At      time.Time               `json:"at"`
	Entries int                     `json:"entries"`
	Skipped int                     `json:"skipped"`
	Summary *backend.CleanupSummary `json:"cleanup_summary,omitempty"`
	Error   string                  `json:"error,omitempty"`
	// Shared is set when the caller joined a run already in flight.
	Shared bool `json:"shared,omitempty"`
}

// Service runs reconciliations.
type Service struct {
	client      Client
	throttle    ThrottleStore
	minInterval time.Duration
	onAuthFail  AuthFailureHandler

	mu    sync.Mutex
	group singleflight.Group

	history *History
	metrics *metrics.Metrics
	logger  *slog.Logger
	tracer  trace.Tracer
	now     func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithMinInterval overrides DefaultMinInterval.
func WithMinInterval(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.minInterval = d
		}
	}
}

// WithHistory sets the run history buffer.
func WithHistory(h *History) Option {
	return func(s *Service) {
		if h != nil {
			s.history = h
		}
	}
}

// WithAuthFailureHandler routes upload errors to the lifecycle.
func WithAuthFailureHandler(h AuthFailureHandler) Option {
	return func(s *Service) {
		s.onAuthFail = h
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New constructs a Service.
func New(client Client, throttle ThrottleStore, opts ...Option) *Service {
	s := &Service{
		client:      client,
		throttle:    throttle,
		minInterval: DefaultMinInterval,
		history:     NewHistory(0),
		logger:      logger.Discard(),
		tracer:      otel.Tracer("rosterlink/internal/reconcile"),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ReconcileIfNeeded runs unless a successful run happened within the minimum
// interval. Concurrent calls for the same device join one in-flight run.
func (s *Service) ReconcileIfNeeded(ctx context.Context, m models.Model, id Identity) Result {
	v, _, shared := s.group.Do(id.HardwareID, func() (any, error) {
		return s.run(ctx, m, id, false), nil
	})
	res := v.(Result)
	res.Shared = shared
	return res
}

// Reconcile runs regardless of the throttle. It still waits for any run in
// progress so two uploads never overlap.
func (s *Service) Reconcile(ctx context.Context, m models.Model, id Identity) Result {
	return s.run(ctx, m, id, true)
}

// History returns recent runs, newest first.
func (s *Service) History() []Result {
	return s.history.Recent()
}

func (s *Service) run(ctx context.Context, m models.Model, id Identity, force bool) Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, span := s.tracer.Start(ctx, "reconcile.run", trace.WithAttributes(attribute.Bool("reconcile.forced", force)))
	defer span.End()

	now := s.now()
	res := Result{Forced: force, At: now}

	if !force {
		last, err := s.throttle.LastSuccess(ctx)
		if err != nil {
			s.logger.WarnContext(ctx, "reading reconcile throttle failed", "error", err)
		}
		if !last.IsZero() && now.Sub(last) < s.minInterval {
			res.Status = StatusThrottled
			span.SetAttributes(attribute.String("reconcile.status", string(res.Status)))
			s.logger.DebugContext(ctx, "reconcile throttled", "last_success", last)
			s.record(res)
			return res
		}
	}

	if id.Credential == "" {
		res.Status = StatusNoCredential
		span.SetAttributes(attribute.String("reconcile.status", string(res.Status)))
		s.logger.InfoContext(ctx, "reconcile skipped: no credential yet")
		s.record(res)
		return res
	}

	req, skipped := BuildSnapshot(m, id.HardwareID)
	for _, sk := range skipped {
		s.logger.InfoContext(ctx, "enrollment has no resolvable team codes; left out of reconcile",
			"tenant", sk.TenantSlug, "enrollment_id", sk.EnrollmentID)
	}
	res.Entries = len(req.Enrollments)
	res.Skipped = len(skipped)
	span.SetAttributes(attribute.Int("reconcile.entries", res.Entries))

	start := time.Now()
	summary, err := s.client.Reconcile(ctx, id.Credential, req)
	if s.metrics != nil {
		s.metrics.ObserveRun(start)
		s.metrics.SkippedEnrollments.Add(float64(len(skipped)))
	}
	if err != nil {
		res.Status = StatusFailed
		res.Error = err.Error()
		span.RecordError(err)
		span.SetStatus(codes.Error, "reconcile upload failed")
		s.logger.WarnContext(ctx, "reconcile failed", "error", err, "entries", res.Entries)
		if s.onAuthFail != nil && id.CredentialTenant != "" {
			s.onAuthFail(ctx, id.CredentialTenant, err)
		}
		s.record(res)
		return res
	}

	if err := s.throttle.RecordSuccess(ctx, now); err != nil {
		s.logger.WarnContext(ctx, "recording reconcile success failed", "error", err)
	}
	res.Status = StatusSucceeded
	res.Summary = summary
	span.SetAttributes(attribute.String("reconcile.status", string(res.Status)))
	if summary != nil {
		s.logger.InfoContext(ctx, "reconcile complete",
			"entries", res.Entries,
			"teams_removed", summary.TeamsRemoved,
			"enrollments_revoked", summary.EnrollmentsRevoked,
			"tenants_affected", summary.TenantsAffected,
		)
		if s.metrics != nil {
			s.metrics.RecordSummary(summary.TeamsRemoved, summary.EnrollmentsRevoked, now)
		}
	}
	s.record(res)
	return res
}

func (s *Service) record(res Result) {
	s.history.Add(res)
	if s.metrics != nil {
		s.metrics.IncrementRun(string(res.Status))
	}
}
