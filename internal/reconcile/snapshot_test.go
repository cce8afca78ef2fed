package reconcile

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rosterlink/internal/enrollment/lifecycle"
	"rosterlink/internal/enrollment/merge"
	"rosterlink/internal/enrollment/models"
)

func TestBuildSnapshot(t *testing.T) {
	at := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	uuidTeam := uuid.NewString()

	m, _ := merge.Apply(models.New(), merge.Delta{
		EnrollmentID:      "e1",
		TenantSlug:        "zeta",
		TenantName:        "Zeta",
		Role:              models.RoleManager,
		ManagerEmail:      "coach@zeta.example",
		Teams:             []merge.GrantedTeam{{ID: "U12"}, {ID: uuidTeam, Code: "U14"}},
		SignedDeviceToken: "tok-zeta",
		GrantedAt:         at,
	})
	m, _ = merge.Apply(m, merge.Delta{
		EnrollmentID:      "e2",
		TenantSlug:        "acme",
		TenantName:        "Acme",
		Role:              models.RoleMember,
		ManagerEmail:      "ignored@acme.example",
		Teams:             []merge.GrantedTeam{{ID: uuid.NewString()}},
		SignedDeviceToken: "tok-acme",
		GrantedAt:         at,
	})
	m, _ = merge.Apply(m, merge.Delta{
		EnrollmentID:      "e3",
		TenantSlug:        "globex",
		TenantName:        "Globex",
		Role:              models.RoleMember,
		Teams:             []merge.GrantedTeam{{ID: "G1"}},
		SignedDeviceToken: "tok-globex",
		GrantedAt:         at,
	})
	m, _ = lifecycle.EndSeason(m, "globex", at)
	require.NoError(t, m.Validate())

	req, skipped := BuildSnapshot(m, "hw-1")

	require.Len(t, req.Enrollments, 1)
	entry := req.Enrollments[0]
	assert.Equal(t, "zeta", entry.TenantSlug)
	assert.Equal(t, []string{"U12", "U14"}, entry.TeamCodes)
	assert.Equal(t, "coach@zeta.example", entry.TeamManagerEmail)
	assert.Equal(t, "hw-1", entry.HardwareIdentifier)

	require.Len(t, skipped, 1)
	assert.Equal(t, SkippedEnrollment{TenantSlug: "acme", EnrollmentID: "e2"}, skipped[0])
}

func TestBuildSnapshotDedupesCodes(t *testing.T) {
	tenant := models.Tenant{Teams: []models.Team{
		{ID: "a", Code: "U12"},
		{ID: "b", Code: "U12"},
		{ID: "U16"},
	}}
	assert.Equal(t, []string{"U12", "U16"}, teamCodes(tenant, []string{"a", "b", "U16", "U16"}))
}

func TestBuildSnapshotEmptyModel(t *testing.T) {
	req, skipped := BuildSnapshot(models.New(), "hw-1")
	assert.NotNil(t, req.Enrollments)
	assert.Empty(t, req.Enrollments)
	assert.Empty(t, skipped)
}

func TestBuildSnapshotMemberHasNoManagerEmail(t *testing.T) {
	m, _ := merge.Apply(models.New(), merge.Delta{
		EnrollmentID:      "e1",
		TenantSlug:        "acme",
		Role:              models.RoleMember,
		ManagerEmail:      "x@acme.example",
		Teams:             []merge.GrantedTeam{{ID: "U10"}},
		SignedDeviceToken: "tok",
	})
	req, _ := BuildSnapshot(m, "")
	require.Len(t, req.Enrollments, 1)
	assert.Empty(t, req.Enrollments[0].TeamManagerEmail)
	assert.Empty(t, req.Enrollments[0].HardwareIdentifier)
}
