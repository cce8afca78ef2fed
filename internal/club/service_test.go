package club

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Fetcher,Tenants

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"rosterlink/internal/backend"
	"rosterlink/internal/cache"
	"rosterlink/internal/cache/store"
	"rosterlink/internal/club/mocks"
	"rosterlink/internal/enrollment/models"
	"rosterlink/pkg/platform/circuit"
	dErrors "rosterlink/pkg/domain-errors"
)

type ServiceSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	fetcher *mocks.MockFetcher
	tenants *mocks.MockTenants
	cache   *cache.Tiered
	service *Service
	now     time.Time
	ctx     context.Context
	acme    models.Tenant
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.fetcher = mocks.NewMockFetcher(s.ctrl)
	s.tenants = mocks.NewMockTenants(s.ctrl)
	s.now = time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	s.ctx = context.Background()

	var err error
	s.cache, err = cache.New(store.NewInMemoryTier(), cache.WithClock(func() time.Time { return s.now }))
	s.Require().NoError(err)

	s.service = New(s.fetcher, s.cache, s.tenants,
		WithTTL(time.Hour),
		WithWaitCeiling(100*time.Millisecond),
		WithClock(func() time.Time { return s.now }),
		WithBreaker(circuit.New("test", circuit.WithFailureThreshold(2), circuit.WithCooldown(time.Hour))),
	)
	s.acme = models.Tenant{Slug: "acme", Name: "Acme FC", SignedDeviceToken: "tok-acme"}
}

func (s *ServiceSuite) TearDownTest() {
	s.service.Close()
	s.Require().NoError(s.cache.Close())
}

func (s *ServiceSuite) TestRefreshStoresAndPropagates() {
	s.tenants.EXPECT().Tenant("acme").Return(s.acme, true).AnyTimes()
	s.fetcher.EXPECT().TenantMetadata(gomock.Any(), "tok-acme", "acme").
		Return(&backend.TenantMetadata{Slug: "acme", Name: "Acme Football Club", LogoURL: "https://cdn.example/a.png"}, nil)
	s.tenants.EXPECT().UpdateClub(gomock.Any(), "acme", "Acme Football Club", "https://cdn.example/a.png").Return(nil)

	md, err := s.service.Refresh(s.ctx, "acme")
	s.Require().NoError(err)
	s.Equal("Acme Football Club", md.Name)

	got, state, err := s.service.Get(s.ctx, "acme")
	s.Require().NoError(err)
	s.Equal(cache.Fresh, state)
	s.Equal(md, got)
}

func (s *ServiceSuite) TestSeasonEndedSignalEndsSeason() {
	s.tenants.EXPECT().Tenant("acme").Return(s.acme, true).AnyTimes()
	s.fetcher.EXPECT().TenantMetadata(gomock.Any(), gomock.Any(), "acme").
		Return(&backend.TenantMetadata{Slug: "acme", Name: "Acme FC", SeasonEnded: true}, nil)
	s.tenants.EXPECT().EndSeason(gomock.Any(), "acme").Return(nil)

	md, err := s.service.Refresh(s.ctx, "acme")
	s.Require().NoError(err)
	s.True(md.SeasonEnded)
}

func (s *ServiceSuite) TestRevocationIsRoutedAndTransientIsNot() {
	s.tenants.EXPECT().Tenant("acme").Return(s.acme, true).AnyTimes()

	s.Run("revocation goes to the lifecycle", func() {
		revoked := dErrors.Wrap(&backend.RevocationError{Reason: models.ReasonTokenRevoked}, dErrors.CodeUnauthorized, "revoked")
		s.fetcher.EXPECT().TenantMetadata(gomock.Any(), gomock.Any(), "acme").Return(nil, revoked)
		s.tenants.EXPECT().HandleAuthFailure(gomock.Any(), "acme", revoked).Return(true)

		_, err := s.service.Refresh(s.ctx, "acme")
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("network failure never ends the season", func() {
		offline := dErrors.New(dErrors.CodeUnavailable, "offline")
		s.fetcher.EXPECT().TenantMetadata(gomock.Any(), gomock.Any(), "acme").Return(nil, offline)
		s.tenants.EXPECT().HandleAuthFailure(gomock.Any(), "acme", offline).Return(false)

		_, err := s.service.Refresh(s.ctx, "acme")
		s.True(backend.IsTransient(err))
	})
}

func (s *ServiceSuite) TestBreakerSuppressesRefreshWhileOffline() {
	s.tenants.EXPECT().Tenant("acme").Return(s.acme, true).AnyTimes()
	offline := dErrors.New(dErrors.CodeUnavailable, "offline")
	s.fetcher.EXPECT().TenantMetadata(gomock.Any(), gomock.Any(), "acme").Return(nil, offline).Times(2)
	s.tenants.EXPECT().HandleAuthFailure(gomock.Any(), "acme", gomock.Any()).Return(false).Times(2)

	_, _ = s.service.Refresh(s.ctx, "acme")
	_, _ = s.service.Refresh(s.ctx, "acme")

	_, err := s.service.Refresh(s.ctx, "acme")
	s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))
	s.Contains(err.Error(), "suppressed")
}

func (s *ServiceSuite) TestGetMissFallsBackToModelAndRefreshesInBackground() {
	s.tenants.EXPECT().Tenant("acme").Return(s.acme, true).AnyTimes()
	fetched := make(chan struct{})
	s.fetcher.EXPECT().TenantMetadata(gomock.Any(), gomock.Any(), "acme").
		DoAndReturn(func(ctx context.Context, token, slug string) (*backend.TenantMetadata, error) {
			defer close(fetched)
			return &backend.TenantMetadata{Slug: "acme", Name: "Acme FC"}, nil
		})

	md, state, err := s.service.Get(s.ctx, "acme")
	s.Require().NoError(err)
	s.Equal(cache.Miss, state)
	s.Equal("Acme FC", md.Name)

	select {
	case <-fetched:
	case <-time.After(time.Second):
		s.Fail("background refresh did not run")
	}
	s.Eventually(func() bool {
		var cached Metadata
		return s.cache.Get(s.ctx, "tenant/acme/metadata", &cached) == cache.Fresh
	}, time.Second, 5*time.Millisecond)
}

func (s *ServiceSuite) TestRevokedTenantIsNotRefreshed() {
	revoked := models.Tenant{Slug: "acme", Name: "Acme FC", SeasonEnded: true}
	s.tenants.EXPECT().Tenant("acme").Return(revoked, true).AnyTimes()

	md, state, err := s.service.Get(s.ctx, "acme")
	s.Require().NoError(err)
	s.Equal(cache.Miss, state)
	s.True(md.SeasonEnded)

	_, err = s.service.Refresh(s.ctx, "acme")
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func (s *ServiceSuite) TestWaitFreshHonoursCeiling() {
	s.tenants.EXPECT().Tenant("acme").Return(s.acme, true).AnyTimes()
	s.cache.Put(s.ctx, "tenant/acme/metadata", Metadata{Slug: "acme", Name: "Cached Acme"}, time.Hour)
	release := make(chan struct{})
	s.fetcher.EXPECT().TenantMetadata(gomock.Any(), gomock.Any(), "acme").
		DoAndReturn(func(ctx context.Context, token, slug string) (*backend.TenantMetadata, error) {
			<-release
			return nil, dErrors.New(dErrors.CodeUnavailable, "late")
		})
	s.tenants.EXPECT().HandleAuthFailure(gomock.Any(), "acme", gomock.Any()).Return(false).AnyTimes()
	defer close(release)

	start := time.Now()
	md, state, err := s.service.WaitFresh(s.ctx, "acme")
	s.Require().NoError(err)
	s.Less(time.Since(start), time.Second)
	s.Equal(cache.Fresh, state)
	s.Equal("Cached Acme", md.Name)
}

func (s *ServiceSuite) TestUnknownTenant() {
	s.tenants.EXPECT().Tenant("nope").Return(models.Tenant{}, false).AnyTimes()
	_, _, err := s.service.Get(s.ctx, "nope")
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	_, _, err = s.service.WaitFresh(s.ctx, "nope")
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}
