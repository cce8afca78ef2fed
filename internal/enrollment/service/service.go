// Package service owns the live enrollment model.
//
// Every mutation goes through Dispatch: a pure command produces the next
// model, invariants are checked, the whole snapshot is persisted, and only
// then does the live model change. A failed write leaves the device exactly
// as it was.
package service

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"rosterlink/internal/backend"
	"rosterlink/internal/cache"
	"rosterlink/internal/enrollment/lifecycle"
	"rosterlink/internal/enrollment/merge"
	"rosterlink/internal/enrollment/metrics"
	"rosterlink/internal/enrollment/models"
	"rosterlink/internal/enrollment/token"
	"rosterlink/internal/platform/logger"
	"rosterlink/internal/reconcile"
	dErrors "rosterlink/pkg/domain-errors"
	"rosterlink/pkg/platform/schedule"
	"rosterlink/pkg/requestcontext"
)

// DefaultPushRetryDelay is how long a failed push-token registration waits
// before its single retry.
const DefaultPushRetryDelay = 30 * time.Second

// ErrEnrollmentInProgress is returned when the same enrollment token is
// submitted while an earlier submission is still running.
var ErrEnrollmentInProgress = dErrors.New(dErrors.CodeConflict, "enrollment already in progress")

// Store persists model snapshots.
type Store interface {
	Load(ctx context.Context) (models.Model, error)
	Save(ctx context.Context, m models.Model) error
}

// Backend is the subset of the backend client the container calls.
type Backend interface {
	Register(ctx context.Context, req backend.RegisterRequest) (*backend.Registration, error)
	DeleteEnrollment(ctx context.Context, token, slug, enrollmentID string) error
	RegisterPushToken(ctx context.Context, token string, req backend.PushTokenRequest) error
}

// HardwareIDSource yields the stable device identifier.
type HardwareIDSource interface {
	HardwareID(ctx context.Context) (string, error)
}

// CacheInvalidator drops cached entries for removed tenants.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, key string) error
}

// Reconciler runs a forced reconciliation after removals.
type Reconciler interface {
	Reconcile(ctx context.Context, m models.Model, id reconcile.Identity) reconcile.Result
}

// EnrollResult is what a successful Enroll produced.
type EnrollResult struct {
	Outcome merge.Outcome `json:"outcome"`
	Tenant  models.Tenant `json:"tenant"`
}

// Container holds the live model and serializes every change to it.
type Container struct {
	mu    sync.RWMutex
	model models.Model

	store    Store
	backend  Backend
	hardware HardwareIDSource

	cache      CacheInvalidator
	reconciler Reconciler
	scheduler  *schedule.Scheduler
	pushDelay  time.Duration

	pendingMu sync.Mutex
	pending   map[string]struct{}

	logger  *slog.Logger
	metrics *metrics.Metrics
}

// Option configures a Container.
type Option func(*Container)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Container) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMetrics enables enrollment metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Container) {
		c.metrics = m
	}
}

// WithCache sets the cache cleared on tenant removal.
func WithCache(ci CacheInvalidator) Option {
	return func(c *Container) {
		c.cache = ci
	}
}

// WithReconciler sets the reconciler forced after removals.
func WithReconciler(r Reconciler) Option {
	return func(c *Container) {
		c.reconciler = r
	}
}

// WithScheduler replaces the scheduler used for deferred work. The container
// closes it on Close.
func WithScheduler(s *schedule.Scheduler) Option {
	return func(c *Container) {
		if s != nil {
			c.scheduler = s
		}
	}
}

// WithPushRetryDelay sets the delay before retrying push registration.
func WithPushRetryDelay(d time.Duration) Option {
	return func(c *Container) {
		if d > 0 {
			c.pushDelay = d
		}
	}
}

// New constructs a Container holding an empty model. Call Load to restore
// the persisted one.
func New(store Store, be Backend, hardware HardwareIDSource, opts ...Option) *Container {
	c := &Container{
		model:     models.New(),
		store:     store,
		backend:   be,
		hardware:  hardware,
		pushDelay: DefaultPushRetryDelay,
		pending:   make(map[string]struct{}),
		logger:    logger.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.scheduler == nil {
		c.scheduler = schedule.New(schedule.WithLogger(c.logger))
	}
	return c
}

// Load replaces the live model with the persisted snapshot.
func (c *Container) Load(ctx context.Context) error {
	m, err := c.store.Load(ctx)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "loading enrollment model")
	}
	c.mu.Lock()
	c.model = m
	c.mu.Unlock()
	c.observe(m)
	c.logger.InfoContext(ctx, "enrollment model loaded", "tenants", len(m.Tenants), "teams", m.TeamCount())
	return nil
}

// Snapshot returns a deep copy of the live model.
func (c *Container) Snapshot() models.Model {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.model.Clone()
}

// Tenant returns a copy of one tenant.
func (c *Container) Tenant(slug string) (models.Tenant, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.model.Tenant(slug)
	if !ok {
		return models.Tenant{}, false
	}
	t.Teams = slices.Clone(t.Teams)
	t.EnrollmentIDs = slices.Clone(t.EnrollmentIDs)
	return t, true
}

// Dispatch applies cmd, validates the result, persists it and swaps it in.
func (c *Container) Dispatch(ctx context.Context, cmd Command) (Effect, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	next, eff := cmd.apply(c.model, requestcontext.Now(ctx))
	if !eff.Changed {
		return eff, nil
	}
	if err := next.Validate(); err != nil {
		c.logger.ErrorContext(ctx, "command produced an invalid model; discarded", "error", err)
		return eff, err
	}
	if err := c.store.Save(ctx, next); err != nil {
		if c.metrics != nil {
			c.metrics.PersistFailures.Inc()
		}
		c.logger.ErrorContext(ctx, "persisting enrollment model failed", "error", err)
		return eff, dErrors.Wrap(err, dErrors.CodeInternal, "persisting enrollment model")
	}
	c.model = next
	c.observe(next)
	return eff, nil
}

// Enroll exchanges an enrollment token for a grant and merges it. A second
// submission of the same token while the first is running fails with
// ErrEnrollmentInProgress before any network call.
func (c *Container) Enroll(ctx context.Context, enrollmentToken, pushToken string) (EnrollResult, error) {
	if enrollmentToken == "" {
		return EnrollResult{}, dErrors.New(dErrors.CodeBadRequest, "enrollment token is required")
	}
	if !c.claim(enrollmentToken) {
		c.countEnrollment("in_progress")
		return EnrollResult{}, ErrEnrollmentInProgress
	}
	defer c.unclaim(enrollmentToken)

	hardwareID, err := c.hardware.HardwareID(ctx)
	if err != nil {
		c.logger.WarnContext(ctx, "hardware identifier unavailable; registering without it", "error", err)
	}
	clientID := uuid.NewString()

	start := time.Now()
	reg, err := c.backend.Register(ctx, backend.RegisterRequest{
		EnrollmentToken:    enrollmentToken,
		ClientEnrollmentID: clientID,
		HardwareIdentifier: hardwareID,
	})
	if c.metrics != nil {
		c.metrics.ObserveRegister(start)
	}
	if err != nil {
		c.countEnrollment("rejected")
		c.logger.WarnContext(ctx, "registration failed", "error", err)
		return EnrollResult{}, err
	}

	delta := deltaFrom(reg, clientID, requestcontext.Now(ctx))
	eff, err := c.Dispatch(ctx, ApplyDelta{Delta: delta})
	if err != nil {
		c.countEnrollment("persist_failed")
		return EnrollResult{}, err
	}
	out := *eff.Outcome
	if out.WasTruncated() {
		c.countEnrollment("truncated")
		if c.metrics != nil {
			c.metrics.AddTruncated(len(out.Truncated))
		}
		c.logger.WarnContext(ctx, "device team limit reached; teams dropped",
			"tenant", out.TenantSlug, "truncated", out.Truncated, "lost", out.Lost, "limit", models.MaxTeams)
	} else {
		c.countEnrollment("succeeded")
	}
	c.logger.InfoContext(ctx, "enrolled",
		"tenant", out.TenantSlug,
		"enrollment_id", out.EnrollmentID,
		"admitted", len(out.Admitted),
		"already_present", len(out.AlreadyPresent),
	)

	if pushToken != "" {
		c.registerPush(ctx, out.TenantSlug, pushToken, hardwareID)
	}

	tenant, _ := c.Tenant(out.TenantSlug)
	return EnrollResult{Outcome: out, Tenant: tenant}, nil
}

// HandleAuthFailure revokes slug when err is an explicit token rejection. It
// reports whether err was one; every other failure leaves state untouched.
func (c *Container) HandleAuthFailure(ctx context.Context, slug string, err error) bool {
	rev, ok := backend.AsRevocation(err)
	if !ok {
		return false
	}
	eff, derr := c.Dispatch(ctx, Revoke{Slug: slug, Reason: rev.Reason})
	if derr != nil {
		c.logger.ErrorContext(ctx, "recording revocation failed", "tenant", slug, "error", derr)
		return true
	}
	if eff.Changed {
		c.revoked(ctx, slug, rev.Reason)
	}
	return true
}

// EndSeason revokes slug because its season is over.
func (c *Container) EndSeason(ctx context.Context, slug string) error {
	eff, err := c.Dispatch(ctx, EndSeason{Slug: slug})
	if err != nil {
		return err
	}
	if eff.Changed {
		c.revoked(ctx, slug, models.ReasonSeasonEnded)
	}
	return nil
}

// UpdateClub stores refreshed club name and logo.
func (c *Container) UpdateClub(ctx context.Context, slug, name, logoURL string) error {
	_, err := c.Dispatch(ctx, UpdateClub{Slug: slug, Name: name, LogoURL: logoURL})
	return err
}

// RemoveTenant deletes a tenant locally, then in the background tells the
// backend and forces a reconciliation. Backend failures do not undo the
// local removal.
func (c *Container) RemoveTenant(ctx context.Context, slug string) (lifecycle.Removal, error) {
	tenant, ok := c.Tenant(slug)
	if !ok {
		return lifecycle.Removal{}, dErrors.New(dErrors.CodeNotFound, "tenant not found")
	}
	eff, err := c.Dispatch(ctx, RemoveTenant{Slug: slug})
	if err != nil {
		return lifecycle.Removal{}, err
	}
	if c.metrics != nil {
		c.metrics.TenantsRemoved.Inc()
	}
	c.logger.InfoContext(ctx, "tenant removed", "tenant", slug, "enrollments", len(eff.Removal.EnrollmentIDs))
	c.afterRemoval(ctx, *eff.Removal, tenant.SignedDeviceToken)
	return *eff.Removal, nil
}

// RemoveTeam deletes one team. Removing the last team removes the tenant.
func (c *Container) RemoveTeam(ctx context.Context, slug, teamID string) (lifecycle.Removal, error) {
	tenant, ok := c.Tenant(slug)
	if !ok || !tenant.HasTeam(teamID) {
		return lifecycle.Removal{}, dErrors.New(dErrors.CodeNotFound, "team not found")
	}
	eff, err := c.Dispatch(ctx, RemoveTeam{Slug: slug, TeamID: teamID})
	if err != nil {
		return lifecycle.Removal{}, err
	}
	if eff.Removal.TenantRemoved && c.metrics != nil {
		c.metrics.TenantsRemoved.Inc()
	}
	c.logger.InfoContext(ctx, "team removed", "tenant", slug, "team_id", teamID, "tenant_removed", eff.Removal.TenantRemoved)
	c.afterRemoval(ctx, *eff.Removal, tenant.SignedDeviceToken)
	return *eff.Removal, nil
}

// Identity is the device identity used for reconciliation. The credential is
// the token of the first active tenant in slug order; there is none before
// the first enrollment or once every tenant is revoked.
func (c *Container) Identity(ctx context.Context) (reconcile.Identity, error) {
	hardwareID, err := c.hardware.HardwareID(ctx)
	if err != nil {
		return reconcile.Identity{}, dErrors.Wrap(err, dErrors.CodeInternal, "reading hardware identifier")
	}
	id := reconcile.Identity{HardwareID: hardwareID}

	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, slug := range c.model.Slugs() {
		t := c.model.Tenants[slug]
		if t.IsActive() {
			id.Credential = t.SignedDeviceToken
			id.CredentialTenant = slug
			break
		}
	}
	return id, nil
}

// Close cancels pending retries and background removals.
func (c *Container) Close() {
	c.scheduler.Close()
}

func (c *Container) registerPush(ctx context.Context, slug, pushToken, hardwareID string) {
	err := c.pushOnce(ctx, slug, pushToken, hardwareID)
	if err == nil {
		return
	}
	if c.HandleAuthFailure(ctx, slug, err) {
		return
	}
	c.logger.WarnContext(ctx, "push token registration failed; retrying later",
		"tenant", slug, "error", err, "delay", c.pushDelay)
	c.scheduler.After(pushTaskName(slug), c.pushDelay, func(ctx context.Context) {
		if err := c.pushOnce(ctx, slug, pushToken, hardwareID); err != nil {
			if !c.HandleAuthFailure(ctx, slug, err) {
				c.logger.WarnContext(ctx, "push token registration retry failed", "tenant", slug, "error", err)
			}
			return
		}
		c.logger.InfoContext(ctx, "push token registered on retry", "tenant", slug)
	})
}

func (c *Container) pushOnce(ctx context.Context, slug, pushToken, hardwareID string) error {
	tenant, ok := c.Tenant(slug)
	if !ok || !tenant.IsActive() {
		return nil
	}
	return c.backend.RegisterPushToken(ctx, tenant.SignedDeviceToken, backend.PushTokenRequest{
		PushToken:          pushToken,
		HardwareIdentifier: hardwareID,
	})
}

func (c *Container) revoked(ctx context.Context, slug string, reason models.RevocationReason) {
	c.scheduler.Cancel(pushTaskName(slug))
	if c.metrics != nil {
		c.metrics.IncrementRevocation(string(reason))
	}
	c.logger.WarnContext(ctx, "tenant authorization revoked; data kept read-only", "tenant", slug, "reason", reason)
}

func (c *Container) afterRemoval(ctx context.Context, removal lifecycle.Removal, tenantToken string) {
	slug := removal.Slug
	if removal.TenantRemoved {
		c.scheduler.Cancel(pushTaskName(slug))
		if c.cache != nil {
			for _, key := range cache.TenantKeys(slug) {
				if err := c.cache.Invalidate(ctx, key); err != nil {
					c.logger.WarnContext(ctx, "invalidating cache for removed tenant failed", "tenant", slug, "key", key, "error", err)
				}
			}
		}
	}

	// Each removal owns its task: a later removal of the same tenant must not
	// cancel deletes still in flight for an earlier one.
	c.scheduler.After("removal:"+slug+":"+uuid.NewString(), 0, func(ctx context.Context) {
		for _, id := range removal.EnrollmentIDs {
			tok := removal.Tokens[id]
			if tok == "" {
				tok = tenantToken
			}
			if tok == "" {
				continue
			}
			if err := c.backend.DeleteEnrollment(ctx, tok, slug, id); err != nil && !backend.IsNotFound(err) {
				c.logger.WarnContext(ctx, "backend enrollment delete failed; reconciliation will catch up",
					"tenant", slug, "enrollment_id", id, "error", err)
			}
		}
		if c.reconciler == nil {
			return
		}
		id, err := c.Identity(ctx)
		if err != nil {
			c.logger.WarnContext(ctx, "forced reconcile skipped", "error", err)
			return
		}
		res := c.reconciler.Reconcile(ctx, c.Snapshot(), id)
		c.logger.InfoContext(ctx, "forced reconcile after removal", "tenant", slug, "status", res.Status)
	})
}

func (c *Container) claim(tok string) bool {
	c.pendingMu.Lock()
	defer c.pendingMu.Unlock()
	if _, busy := c.pending[tok]; busy {
		return false
	}
	c.pending[tok] = struct{}{}
	return true
}

func (c *Container) unclaim(tok string) {
	c.pendingMu.Lock()
	delete(c.pending, tok)
	c.pendingMu.Unlock()
}

func (c *Container) countEnrollment(outcome string) {
	if c.metrics != nil {
		c.metrics.IncrementEnrollment(outcome)
	}
}

func (c *Container) observe(m models.Model) {
	if c.metrics != nil {
		c.metrics.SetHeld(len(m.Tenants), m.TeamCount())
	}
}

func pushTaskName(slug string) string {
	return "push:" + slug
}

func deltaFrom(reg *backend.Registration, clientID string, at time.Time) merge.Delta {
	enrollmentID := reg.EnrollmentID
	if enrollmentID == "" {
		enrollmentID = clientID
	}
	expires := reg.TokenExpiresAt
	if expires.IsZero() {
		if info, err := token.Inspect(reg.SignedDeviceToken); err == nil {
			expires = info.ExpiresAt
		}
	}
	teams := make([]merge.GrantedTeam, 0, len(reg.Teams))
	for _, t := range reg.Teams {
		teams = append(teams, merge.GrantedTeam{ID: t.ID, Code: t.Code, Name: t.Name})
	}
	return merge.Delta{
		EnrollmentID:      enrollmentID,
		TenantSlug:        reg.Tenant.Slug,
		TenantName:        reg.Tenant.Name,
		LogoURL:           reg.Tenant.LogoURL,
		Role:              reg.Role,
		ManagerEmail:      reg.ManagerEmail,
		Teams:             teams,
		SignedDeviceToken: reg.SignedDeviceToken,
		TokenExpiresAt:    expires,
		GrantedAt:         at,
	}
}
