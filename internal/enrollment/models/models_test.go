package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "rosterlink/pkg/domain-errors"
)

func validModel() Model {
	m := New()
	m.Tenants["acme"] = Tenant{
		Slug:              "acme",
		Name:              "Acme FC",
		SignedDeviceToken: "tok",
		Teams: []Team{
			{ID: "T1", Code: "U12", Role: RoleManager, ManagerEmail: "coach@acme.example"},
			{ID: "T2", Code: "U14", Role: RoleMember},
		},
		EnrollmentIDs: []string{"e1"},
	}
	m.Enrollments["e1"] = Enrollment{ID: "e1", TenantSlug: "acme", Role: RoleManager, TeamIDs: []string{"T1", "T2"}}
	return m
}

func TestModelInvariants(t *testing.T) {
	t.Run("valid model passes", func(t *testing.T) {
		m := validModel()
		require.NoError(t, m.Validate())
		assert.True(t, m.IsEnrolled())
		assert.Equal(t, 2, m.TeamCount())
	})

	t.Run("season ended with token is rejected", func(t *testing.T) {
		m := validModel()
		acme := m.Tenants["acme"]
		acme.SeasonEnded = true
		m.Tenants["acme"] = acme

		err := m.Validate()
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	t.Run("orphaned enrollment team reference is rejected", func(t *testing.T) {
		m := validModel()
		e := m.Enrollments["e1"]
		e.TeamIDs = append(e.TeamIDs, "T9")
		m.Enrollments["e1"] = e
		assert.Error(t, m.Validate())
	})

	t.Run("duplicate team id is rejected", func(t *testing.T) {
		m := validModel()
		acme := m.Tenants["acme"]
		acme.Teams = append(acme.Teams, Team{ID: "T1", Role: RoleMember})
		m.Tenants["acme"] = acme
		assert.Error(t, m.Validate())
	})

	t.Run("unlisted enrollment is rejected", func(t *testing.T) {
		m := validModel()
		m.Enrollments["e2"] = Enrollment{ID: "e2", TenantSlug: "acme", TeamIDs: []string{"T1"}}
		assert.Error(t, m.Validate())
	})

	t.Run("enrollment for missing tenant is rejected", func(t *testing.T) {
		m := validModel()
		m.Enrollments["e3"] = Enrollment{ID: "e3", TenantSlug: "globex"}
		assert.Error(t, m.Validate())
	})
}

func TestModelClone(t *testing.T) {
	m := validModel()
	c := m.Clone()

	acme := c.Tenants["acme"]
	acme.Teams[0].Role = RoleMember
	acme.EnrollmentIDs[0] = "changed"
	c.Enrollments["e1"].TeamIDs[0] = "changed"

	assert.Equal(t, RoleManager, m.Tenants["acme"].Teams[0].Role)
	assert.Equal(t, "e1", m.Tenants["acme"].EnrollmentIDs[0])
	assert.Equal(t, "T1", m.Enrollments["e1"].TeamIDs[0])
}

func TestModelEmpty(t *testing.T) {
	var zero Model
	assert.False(t, zero.IsEnrolled())
	assert.Equal(t, 0, zero.TeamCount())
	assert.NoError(t, zero.Validate())
	assert.NotNil(t, zero.Clone().Tenants)
	assert.Equal(t, []string{"acme"}, validModel().Slugs())
}
