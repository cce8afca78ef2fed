package lifecycle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"rosterlink/internal/enrollment/merge"
	"rosterlink/internal/enrollment/models"
)

type LifecycleSuite struct {
	suite.Suite
	now   time.Time
	model models.Model
}

func TestLifecycleSuite(t *testing.T) {
	suite.Run(t, new(LifecycleSuite))
}

func (s *LifecycleSuite) SetupTest() {
	s.now = time.Date(2026, 5, 30, 21, 0, 0, 0, time.UTC)
	m, _ := merge.Apply(models.New(), merge.Delta{
		EnrollmentID:      "e1",
		TenantSlug:        "acme",
		TenantName:        "Acme FC",
		Role:              models.RoleManager,
		ManagerEmail:      "coach@acme.example",
		Teams:             []merge.GrantedTeam{{ID: "T1", Code: "U12"}, {ID: "T2", Code: "U14"}},
		SignedDeviceToken: "tok-acme",
		GrantedAt:         s.now.Add(-24 * time.Hour),
	})
	m, _ = merge.Apply(m, merge.Delta{
		EnrollmentID:      "e2",
		TenantSlug:        "acme",
		Role:              models.RoleMember,
		Teams:             []merge.GrantedTeam{{ID: "T3", Code: "U16"}},
		SignedDeviceToken: "tok-acme-2",
		GrantedAt:         s.now.Add(-time.Hour),
	})
	m, _ = merge.Apply(m, merge.Delta{
		EnrollmentID:      "e3",
		TenantSlug:        "globex",
		TenantName:        "Globex United",
		Role:              models.RoleMember,
		Teams:             []merge.GrantedTeam{{ID: "G1"}},
		SignedDeviceToken: "tok-globex",
		GrantedAt:         s.now.Add(-time.Hour),
	})
	s.Require().NoError(m.Validate())
	s.model = m
}

// assertRevocationInvariant checks season-ended implies no token, for every tenant.
func (s *LifecycleSuite) assertRevocationInvariant(m models.Model) {
	for slug, t := range m.Tenants {
		if t.SeasonEnded {
			s.Empty(t.SignedDeviceToken, "tenant %s is season-ended with a token", slug)
		}
	}
	s.Require().NoError(m.Validate())
}

func (s *LifecycleSuite) TestRevoke() {
	s.Run("revocation clears the token and retains data", func() {
		next, tr := Revoke(s.model, "acme", models.ReasonTokenRevoked, s.now)

		s.assertRevocationInvariant(next)
		s.True(tr.Changed)
		s.Equal(StateActive, tr.From)
		s.Equal(StateRevoked, tr.To)

		acme, _ := next.Tenant("acme")
		s.True(acme.SeasonEnded)
		s.Empty(acme.SignedDeviceToken)
		s.Equal(models.ReasonTokenRevoked, acme.RevokedReason)
		s.Equal(s.now, acme.RevokedAt)
		s.Len(acme.Teams, 3)
		s.Len(acme.EnrollmentIDs, 2)
		s.Len(next.Enrollments, 3)
		s.Equal(StateRevoked, StateOf(acme))
	})

	s.Run("other tenants are untouched", func() {
		next, _ := Revoke(s.model, "acme", models.ReasonInvalidToken, s.now)
		globex, _ := next.Tenant("globex")
		s.True(globex.IsActive())
		s.Equal("tok-globex", globex.SignedDeviceToken)
	})

	s.Run("input model is not mutated", func() {
		_, _ = Revoke(s.model, "acme", models.ReasonTokenRevoked, s.now)
		acme, _ := s.model.Tenant("acme")
		s.False(acme.SeasonEnded)
		s.Equal("tok-acme-2", acme.SignedDeviceToken)
	})

	s.Run("second revocation is a no-op", func() {
		once, _ := Revoke(s.model, "acme", models.ReasonTokenRevoked, s.now)
		twice, tr := Revoke(once, "acme", models.ReasonInvalidToken, s.now.Add(time.Minute))
		s.False(tr.Changed)
		acme, _ := twice.Tenant("acme")
		s.Equal(models.ReasonTokenRevoked, acme.RevokedReason)
		s.Equal(s.now, acme.RevokedAt)
	})

	s.Run("unknown tenant is a no-op", func() {
		next, tr := Revoke(s.model, "initech", models.ReasonTokenRevoked, s.now)
		s.False(tr.Changed)
		s.Equal(len(s.model.Tenants), len(next.Tenants))
	})

	s.Run("season end uses the season reason", func() {
		next, tr := EndSeason(s.model, "globex", s.now)
		s.assertRevocationInvariant(next)
		s.True(tr.Changed)
		globex, _ := next.Tenant("globex")
		s.Equal(models.ReasonSeasonEnded, globex.RevokedReason)
	})
}

func (s *LifecycleSuite) TestRemoveTenant() {
	next, removal := RemoveTenant(s.model, "acme")

	s.Require().NoError(next.Validate())
	s.True(removal.TenantRemoved)
	s.ElementsMatch([]string{"e1", "e2"}, removal.EnrollmentIDs)
	s.ElementsMatch([]string{"T1", "T2", "T3"}, removal.TeamIDs)
	s.Equal("tok-acme", removal.Tokens["e1"])
	_, ok := next.Tenant("acme")
	s.False(ok)
	s.Len(next.Enrollments, 1)
	s.True(next.IsEnrolled())

	last, _ := RemoveTenant(next, "globex")
	s.False(last.IsEnrolled())
	s.Empty(last.Enrollments)
}

func (s *LifecycleSuite) TestRemoveTeam() {
	s.Run("removing one of several teams keeps the enrollment", func() {
		next, removal := RemoveTeam(s.model, "acme", "T1")
		s.Require().NoError(next.Validate())
		s.False(removal.TenantRemoved)
		s.Empty(removal.EnrollmentIDs)
		s.Equal([]string{"T2"}, next.Enrollments["e1"].TeamIDs)
	})

	s.Run("removing the only team of an enrollment drops it", func() {
		next, removal := RemoveTeam(s.model, "acme", "T3")
		s.Require().NoError(next.Validate())
		s.Equal([]string{"e2"}, removal.EnrollmentIDs)
		s.Equal("tok-acme-2", removal.Tokens["e2"])
		_, ok := next.Enrollments["e2"]
		s.False(ok)
	})

	s.Run("removing the last team drops the tenant", func() {
		next, removal := RemoveTeam(s.model, "globex", "G1")
		s.Require().NoError(next.Validate())
		s.True(removal.TenantRemoved)
		_, ok := next.Tenant("globex")
		s.False(ok)
	})

	s.Run("unknown team is a no-op", func() {
		next, removal := RemoveTeam(s.model, "acme", "nope")
		s.Empty(removal.TeamIDs)
		s.Equal(s.model.TeamCount(), next.TeamCount())
	})
}
