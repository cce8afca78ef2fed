package merge

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"rosterlink/internal/enrollment/models"
)

type MergeSuite struct {
	suite.Suite
	now time.Time
}

func TestMergeSuite(t *testing.T) {
	suite.Run(t, new(MergeSuite))
}

func (s *MergeSuite) SetupTest() {
	s.now = time.Date(2026, 9, 1, 18, 30, 0, 0, time.UTC)
}

func (s *MergeSuite) delta(enrollmentID, slug string, role models.Role, teamIDs ...string) Delta {
	teams := make([]GrantedTeam, 0, len(teamIDs))
	for _, id := range teamIDs {
		teams = append(teams, GrantedTeam{ID: id, Code: "code-" + id, Name: "Team " + id})
	}
	d := Delta{
		EnrollmentID:      enrollmentID,
		TenantSlug:        slug,
		TenantName:        "Club " + slug,
		Role:              role,
		Teams:             teams,
		SignedDeviceToken: "tok-" + enrollmentID,
		GrantedAt:         s.now,
	}
	if role == models.RoleManager {
		d.ManagerEmail = "coach@" + slug + ".example"
	}
	return d
}

func teamIDs(t models.Tenant) []string {
	ids := make([]string, 0, len(t.Teams))
	for _, team := range t.Teams {
		ids = append(ids, team.ID)
	}
	return ids
}

func (s *MergeSuite) TestApplyToEmptyModel() {
	s.Run("grant of two teams yields exactly those teams", func() {
		next, out := Apply(models.New(), s.delta("e1", "acme", models.RoleMember, "A", "B"))

		s.Require().NoError(next.Validate())
		tenant, ok := next.Tenant("acme")
		s.Require().True(ok)
		s.ElementsMatch([]string{"A", "B"}, teamIDs(tenant))
		s.Equal([]string{"A", "B"}, out.Admitted)
		s.True(out.TenantCreated)
		s.Equal("e1", out.EnrollmentID)
		s.True(next.IsEnrolled())
	})

	s.Run("input model is not mutated", func() {
		current := models.New()
		_, _ = Apply(current, s.delta("e1", "acme", models.RoleMember, "A"))
		s.Empty(current.Tenants)
		s.Empty(current.Enrollments)
	})

	s.Run("empty slug is a no-op", func() {
		next, out := Apply(models.New(), Delta{Teams: []GrantedTeam{{ID: "A"}}})
		s.False(next.IsEnrolled())
		s.Empty(out.Admitted)
	})

	s.Run("duplicate ids inside one delta are admitted once", func() {
		next, out := Apply(models.New(), s.delta("e1", "acme", models.RoleMember, "A", "A", "B"))
		tenant, _ := next.Tenant("acme")
		s.Equal([]string{"A", "B"}, teamIDs(tenant))
		s.Equal([]string{"A", "B"}, out.Admitted)
	})
}

// Re-application is guarded by callers, which is why the pending-token guard
// exists.
func (s *MergeSuite) TestReapplicationIsNotEngineGuarded() {
	s.Run("new enrollment id for the same teams records a second grant", func() {
		first, _ := Apply(models.New(), s.delta("e1", "acme", models.RoleMember, "A", "B"))
		second, out := Apply(first, s.delta("e2", "acme", models.RoleMember, "A", "B"))

		s.Require().NoError(second.Validate())
		s.Equal(2, second.TeamCount(), "team entries are deduplicated by id")
		s.Len(second.Enrollments, 2)
		tenant, _ := second.Tenant("acme")
		s.Equal([]string{"e1", "e2"}, tenant.EnrollmentIDs)
		s.Equal([]string{"A", "B"}, out.AlreadyPresent)
		s.Empty(out.Admitted)
	})

	s.Run("identical delta overwrites the same enrollment", func() {
		d := s.delta("e1", "acme", models.RoleMember, "A", "B")
		first, _ := Apply(models.New(), d)
		second, out := Apply(first, d)

		s.Require().NoError(second.Validate())
		s.Equal(2, second.TeamCount())
		s.Len(second.Enrollments, 1)
		s.Equal(first.Enrollments["e1"], second.Enrollments["e1"])
		tenant, _ := second.Tenant("acme")
		s.Equal([]string{"e1"}, tenant.EnrollmentIDs)
		s.Equal("e1", out.EnrollmentID)
		s.Equal([]string{"A", "B"}, out.AlreadyPresent)
		s.False(out.TenantCreated)
	})
}

func (s *MergeSuite) TestRolePrecedence() {
	s.Run("manager grant supersedes member entry", func() {
		member, _ := Apply(models.New(), s.delta("e1", "acme", models.RoleMember, "T"))
		next, out := Apply(member, s.delta("e2", "acme", models.RoleManager, "T"))

		s.Require().NoError(next.Validate())
		tenant, _ := next.Tenant("acme")
		s.Require().Len(tenant.Teams, 1)
		s.Equal(models.RoleManager, tenant.Teams[0].Role)
		s.Equal("coach@acme.example", tenant.Teams[0].ManagerEmail)
		s.Equal([]string{"T"}, out.Superseded)
		s.Equal([]string{"T"}, out.Admitted)
	})

	s.Run("member grant leaves manager entry unchanged", func() {
		manager, _ := Apply(models.New(), s.delta("e1", "acme", models.RoleManager, "T"))
		next, out := Apply(manager, s.delta("e2", "acme", models.RoleMember, "T"))

		tenant, _ := next.Tenant("acme")
		s.Require().Len(tenant.Teams, 1)
		s.Equal(models.RoleManager, tenant.Teams[0].Role)
		s.Empty(out.Superseded)
		s.Equal([]string{"T"}, out.AlreadyPresent)
	})

	s.Run("upgrade at the ceiling keeps the upgraded team", func() {
		m, _ := Apply(models.New(), s.delta("e1", "acme", models.RoleMember, "A", "B", "C", "D", "E"))
		s.Require().Equal(models.MaxTeams, m.TeamCount())

		next, out := Apply(m, s.delta("e2", "acme", models.RoleManager, "C"))
		s.Require().NoError(next.Validate())
		s.Equal(models.MaxTeams, next.TeamCount())
		s.Empty(out.Truncated)
		s.Empty(out.Lost)
		tenant, _ := next.Tenant("acme")
		s.Equal(models.RoleManager, tenant.Teams[tenant.TeamIndex("C")].Role)
	})

	s.Run("upgrade truncated after superseding is reported lost", func() {
		m, _ := Apply(models.New(), s.delta("e1", "acme", models.RoleMember, "T1"))
		m, _ = Apply(m, s.delta("e2", "globex", models.RoleMember, "G1", "G2", "G3", "G4"))
		s.Require().Equal(models.MaxTeams, m.TeamCount())

		next, out := Apply(m, s.delta("e3", "acme", models.RoleManager, "X", "T1"))
		s.Require().NoError(next.Validate())
		s.Equal(models.MaxTeams, next.TeamCount())
		s.Equal([]string{"T1"}, out.Superseded)
		s.Equal([]string{"X"}, out.Admitted)
		s.Equal([]string{"T1"}, out.Truncated)
		s.Equal([]string{"T1"}, out.Lost)

		acme, _ := next.Tenant("acme")
		s.False(acme.HasTeam("T1"))
		_, stillHeld := next.Enrollments["e1"]
		s.False(stillHeld, "enrollment left without teams is pruned")
	})

	s.Run("manager grant on another tenant does not touch same id elsewhere", func() {
		m, _ := Apply(models.New(), s.delta("e1", "acme", models.RoleMember, "T"))
		next, _ := Apply(m, s.delta("e2", "globex", models.RoleManager, "T"))

		acme, _ := next.Tenant("acme")
		s.Equal(models.RoleMember, acme.Teams[0].Role)
		s.Equal(2, next.TeamCount())
	})
}

func (s *MergeSuite) TestCapacityCeiling() {
	s.Run("overflowing delta admits exactly the free slots from the front", func() {
		m, _ := Apply(models.New(), s.delta("e1", "acme", models.RoleMember, "A1", "A2"))
		m, _ = Apply(m, s.delta("e2", "globex", models.RoleMember, "G1", "G2"))
		s.Require().Equal(4, m.TeamCount())

		next, out := Apply(m, s.delta("e3", "initech", models.RoleMember, "I1", "I2", "I3"))
		s.Require().NoError(next.Validate())
		s.Equal(models.MaxTeams, next.TeamCount())
		s.Equal([]string{"I1"}, out.Admitted)
		s.Equal([]string{"I2", "I3"}, out.Truncated)
		s.True(out.WasTruncated())

		e := next.Enrollments["e3"]
		s.Equal([]string{"I1"}, e.TeamIDs)
	})

	s.Run("full device records no enrollment but keeps the tenant shell", func() {
		m, _ := Apply(models.New(), s.delta("e1", "acme", models.RoleMember, "A", "B", "C", "D", "E"))
		next, out := Apply(m, s.delta("e2", "globex", models.RoleMember, "G1"))

		s.Require().NoError(next.Validate())
		s.Equal(models.MaxTeams, next.TeamCount())
		s.Empty(out.EnrollmentID)
		globex, ok := next.Tenant("globex")
		s.True(ok)
		s.Empty(globex.Teams)
		s.Equal("tok-e2", globex.SignedDeviceToken)
	})

	s.Run("no sequence of merges exceeds the ceiling", func() {
		rng := rand.New(rand.NewSource(42))
		slugs := []string{"acme", "globex", "initech"}
		roles := []models.Role{models.RoleMember, models.RoleManager}

		for run := 0; run < 50; run++ {
			m := models.New()
			for step := 0; step < 8; step++ {
				n := rng.Intn(4)
				ids := make([]string, n)
				fresh := 0
				slug := slugs[rng.Intn(len(slugs))]
				tenant, _ := m.Tenant(slug)
				for i := range ids {
					ids[i] = fmt.Sprintf("T%d", rng.Intn(9))
				}
				seen := map[string]bool{}
				for _, id := range ids {
					if !seen[id] && !tenant.HasTeam(id) {
						fresh++
					}
					seen[id] = true
				}
				role := roles[rng.Intn(len(roles))]
				before := m.TeamCount()
				next, out := Apply(m, s.delta(fmt.Sprintf("e%d-%d", run, step), slug, role, ids...))

				s.Require().NoError(next.Validate())
				s.LessOrEqual(next.TeamCount(), models.MaxTeams)
				if role == models.RoleMember {
					s.Equal(min(fresh, models.MaxTeams-before), len(out.Admitted))
				}
				m = next
			}
		}
	})
}

func (s *MergeSuite) TestTenantShellAndToken() {
	s.Run("zero-team delta creates the tenant shell", func() {
		next, out := Apply(models.New(), s.delta("e1", "acme", models.RoleMember))

		s.Require().NoError(next.Validate())
		tenant, ok := next.Tenant("acme")
		s.Require().True(ok)
		s.Equal("Club acme", tenant.Name)
		s.Empty(tenant.Teams)
		s.Empty(out.EnrollmentID)
		s.Empty(next.Enrollments)
	})

	s.Run("empty fields keep existing values", func() {
		m, _ := Apply(models.New(), s.delta("e1", "acme", models.RoleMember, "A"))
		next, _ := Apply(m, Delta{TenantSlug: "acme", GrantedAt: s.now})

		tenant, _ := next.Tenant("acme")
		s.Equal("Club acme", tenant.Name)
		s.Equal("tok-e1", tenant.SignedDeviceToken)
	})

	s.Run("fresh token reactivates a season-ended tenant", func() {
		m, _ := Apply(models.New(), s.delta("e1", "acme", models.RoleMember, "A"))
		tenant := m.Tenants["acme"]
		tenant.SeasonEnded = true
		tenant.SignedDeviceToken = ""
		tenant.RevokedReason = models.ReasonSeasonEnded
		m.Tenants["acme"] = tenant

		next, out := Apply(m, s.delta("e2", "acme", models.RoleMember, "B"))
		s.Require().NoError(next.Validate())
		s.True(out.Reactivated)
		reactivated, _ := next.Tenant("acme")
		s.False(reactivated.SeasonEnded)
		s.Equal("tok-e2", reactivated.SignedDeviceToken)
		s.Empty(reactivated.RevokedReason)
	})

	s.Run("member grant drops manager email", func() {
		d := s.delta("e1", "acme", models.RoleMember, "A")
		d.ManagerEmail = "someone@acme.example"
		next, _ := Apply(models.New(), d)
		s.Empty(next.Enrollments["e1"].ManagerEmail)
		s.Empty(next.Tenants["acme"].Teams[0].ManagerEmail)
	})
}

func (s *MergeSuite) TestEndToEndScenarios() {
	s.Run("manager then member grant for the same team", func() {
		m, _ := Apply(models.New(), s.delta("e1", "acme", models.RoleManager, "T1", "T2"))
		tenant, _ := m.Tenant("acme")
		s.Len(tenant.Teams, 2)
		s.Len(tenant.EnrollmentIDs, 1)

		next, _ := Apply(m, s.delta("e2", "acme", models.RoleMember, "T1"))
		s.Require().NoError(next.Validate())
		tenant, _ = next.Tenant("acme")
		s.Equal(2, next.TeamCount())
		s.Equal([]string{"T1", "T2"}, teamIDs(tenant))
		s.Equal(models.RoleManager, tenant.Teams[tenant.TeamIndex("T1")].Role)
	})

	s.Run("four teams across two tenants plus three new admits one", func() {
		m, _ := Apply(models.New(), s.delta("e1", "acme", models.RoleMember, "A1", "A2", "A3"))
		m, _ = Apply(m, s.delta("e2", "globex", models.RoleManager, "G1"))
		s.Require().Equal(4, m.TeamCount())

		next, out := Apply(m, s.delta("e3", "globex", models.RoleMember, "N1", "N2", "N3"))
		s.Equal(5, next.TeamCount())
		s.Equal([]string{"N1"}, out.Admitted)
	})
}

func (s *MergeSuite) TestPruneEnrollments() {
	m, _ := Apply(models.New(), s.delta("e1", "acme", models.RoleMember, "A", "B"))
	tenant := m.Tenants["acme"]
	tenant.Teams = tenant.Teams[:1]
	m.Tenants["acme"] = tenant

	PruneEnrollments(&m, "acme")
	s.Require().NoError(m.Validate())
	s.Equal([]string{"A"}, m.Enrollments["e1"].TeamIDs)

	tenant = m.Tenants["acme"]
	tenant.Teams = nil
	m.Tenants["acme"] = tenant
	PruneEnrollments(&m, "acme")
	s.Empty(m.Enrollments)
	s.Empty(m.Tenants["acme"].EnrollmentIDs)
}
