// Package club serves tenant club metadata (name, logo, season state) from
// the tiered cache and keeps it fresh in the background.
//
// Refreshed metadata flows back into the enrollment model: name and logo
// changes through UpdateClub, a season-ended flag through EndSeason, and an
// explicit token rejection through HandleAuthFailure. Transient failures only
// trip the circuit breaker; they never touch authorization state.
package club

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"rosterlink/internal/backend"
	"rosterlink/internal/cache"
	"rosterlink/internal/enrollment/models"
	"rosterlink/internal/platform/logger"
	"rosterlink/pkg/platform/circuit"
	dErrors "rosterlink/pkg/domain-errors"
)

const (
	DefaultTTL         = 24 * time.Hour
	DefaultWaitCeiling = 3 * time.Second
	refreshTimeout     = 15 * time.Second
)

// Metadata is a tenant's club presentation data.
type Metadata struct {
	Slug        string    `json:"slug"`
	Name        string    `json:"name"`
	LogoURL     string    `json:"logo_url,omitempty"`
	SeasonEnded bool      `json:"season_ended"`
	FetchedAt   time.Time `json:"fetched_at,omitzero"`
}

// Fetcher loads metadata from the backend.
type Fetcher interface {
	TenantMetadata(ctx context.Context, token, slug string) (*backend.TenantMetadata, error)
}

// Cache is the subset of the tiered cache the service uses.
type Cache interface {
	Get(ctx context.Context, key string, dst any) cache.State
	Put(ctx context.Context, key string, value any, ttl time.Duration)
}

// Tenants is the enrollment state the service reads and updates.
type Tenants interface {
	Tenant(slug string) (models.Tenant, bool)
	UpdateClub(ctx context.Context, slug, name, logoURL string) error
	EndSeason(ctx context.Context, slug string) error
	HandleAuthFailure(ctx context.Context, slug string, err error) bool
}

// Service serves and refreshes club metadata.
type Service struct {
	fetcher Fetcher
	cache   Cache
	tenants Tenants

	ttl         time.Duration
	waitCeiling time.Duration
	breaker     *circuit.Breaker
	group       singleflight.Group

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	logger *slog.Logger
	now    func() time.Time
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

// WithTTL sets the metadata TTL.
func WithTTL(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.ttl = d
		}
	}
}

// WithWaitCeiling bounds WaitFresh.
func WithWaitCeiling(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.waitCeiling = d
		}
	}
}

// WithBreaker replaces the default circuit breaker.
func WithBreaker(b *circuit.Breaker) Option {
	return func(s *Service) {
		if b != nil {
			s.breaker = b
		}
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

// New constructs a Service. Close stops background refreshes.
func New(fetcher Fetcher, c Cache, tenants Tenants, opts ...Option) *Service {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Service{
		fetcher:     fetcher,
		cache:       c,
		tenants:     tenants,
		ttl:         DefaultTTL,
		waitCeiling: DefaultWaitCeiling,
		breaker:     circuit.New("club-metadata", circuit.WithFailureThreshold(3), circuit.WithCooldown(time.Minute)),
		ctx:         ctx,
		cancel:      cancel,
		logger:      logger.Discard(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns cached metadata immediately and schedules a background refresh
// when the entry is stale or missing. On a miss the tenant's stored name and
// logo are returned.
func (s *Service) Get(ctx context.Context, slug string) (Metadata, cache.State, error) {
	tenant, ok := s.tenants.Tenant(slug)
	if !ok {
		return Metadata{}, cache.Miss, dErrors.New(dErrors.CodeNotFound, "tenant not found")
	}

	var md Metadata
	state := s.cache.Get(ctx, cache.TenantMetadataKey(slug), &md)
	if !state.Usable() {
		md = fromTenant(tenant)
	}
	if state.ShouldRefresh() && tenant.IsActive() {
		s.refreshAsync(slug)
	}
	return md, state, nil
}

// WaitFresh refreshes synchronously, bounded by the wait ceiling. When the
// refresh fails or times out it falls back to whatever is cached and only
// returns an error if there is nothing to show.
func (s *Service) WaitFresh(ctx context.Context, slug string) (Metadata, cache.State, error) {
	tenant, ok := s.tenants.Tenant(slug)
	if !ok {
		return Metadata{}, cache.Miss, dErrors.New(dErrors.CodeNotFound, "tenant not found")
	}

	waitCtx, cancel := context.WithTimeout(ctx, s.waitCeiling)
	defer cancel()

	md, err := s.Refresh(waitCtx, slug)
	if err == nil {
		return md, cache.Fresh, nil
	}
	s.logger.InfoContext(ctx, "club metadata refresh fell back to cache", "tenant", slug, "error", err)

	var cached Metadata
	if state := s.cache.Get(ctx, cache.TenantMetadataKey(slug), &cached); state.Usable() {
		return cached, state, nil
	}
	if tenant.Name != "" {
		return fromTenant(tenant), cache.Miss, nil
	}
	return Metadata{}, cache.Miss, err
}

// Refresh fetches metadata now. Concurrent refreshes of one tenant share a
// single request.
func (s *Service) Refresh(ctx context.Context, slug string) (Metadata, error) {
	ch := s.group.DoChan(slug, func() (any, error) {
		// Detached so one caller's deadline does not fail the others.
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), refreshTimeout)
		defer cancel()
		return s.refresh(rctx, slug)
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return Metadata{}, res.Err
		}
		return res.Val.(Metadata), nil
	case <-ctx.Done():
		return Metadata{}, dErrors.Wrap(ctx.Err(), dErrors.CodeUnavailable, "club metadata refresh timed out")
	}
}

// Close stops scheduling refreshes and waits for running ones.
func (s *Service) Close() {
	s.cancel()
	s.wg.Wait()
}

func (s *Service) refreshAsync(slug string) {
	if s.ctx.Err() != nil || !s.breaker.Allow() {
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if _, err := s.Refresh(s.ctx, slug); err != nil {
			s.logger.DebugContext(s.ctx, "background club metadata refresh failed", "tenant", slug, "error", err)
		}
	}()
}

func (s *Service) refresh(ctx context.Context, slug string) (Metadata, error) {
	tenant, ok := s.tenants.Tenant(slug)
	if !ok {
		return Metadata{}, dErrors.New(dErrors.CodeNotFound, "tenant not found")
	}
	if !tenant.IsActive() {
		return Metadata{}, dErrors.New(dErrors.CodeUnauthorized, "tenant authorization was revoked")
	}
	if !s.breaker.Allow() {
		return Metadata{}, dErrors.New(dErrors.CodeUnavailable, "backend marked unreachable; refresh suppressed")
	}

	remote, err := s.fetcher.TenantMetadata(ctx, tenant.SignedDeviceToken, slug)
	if err != nil {
		if s.tenants.HandleAuthFailure(ctx, slug, err) {
			return Metadata{}, err
		}
		if backend.IsTransient(err) {
			if _, change := s.breaker.RecordFailure(); change.Opened {
				s.logger.WarnContext(ctx, "club metadata breaker opened; background refreshes paused", "tenant", slug)
			}
		}
		return Metadata{}, err
	}
	if _, change := s.breaker.RecordSuccess(); change.Closed {
		s.logger.InfoContext(ctx, "club metadata breaker closed", "tenant", slug)
	}

	md := Metadata{
		Slug:        slug,
		Name:        remote.Name,
		LogoURL:     remote.LogoURL,
		SeasonEnded: remote.SeasonEnded,
		FetchedAt:   s.now(),
	}
	s.cache.Put(ctx, cache.TenantMetadataKey(slug), md, s.ttl)

	if md.Name != tenant.Name || md.LogoURL != tenant.LogoURL {
		if err := s.tenants.UpdateClub(ctx, slug, md.Name, md.LogoURL); err != nil {
			s.logger.WarnContext(ctx, "storing refreshed club metadata failed", "tenant", slug, "error", err)
		}
	}
	if md.SeasonEnded {
		if err := s.tenants.EndSeason(ctx, slug); err != nil {
			s.logger.WarnContext(ctx, "ending season failed", "tenant", slug, "error", err)
		}
	}
	return md, nil
}

func fromTenant(t models.Tenant) Metadata {
	return Metadata{
		Slug:        t.Slug,
		Name:        t.Name,
		LogoURL:     t.LogoURL,
		SeasonEnded: t.SeasonEnded,
	}
}
