package reconcile

import (
	"github.com/google/uuid"

	"rosterlink/internal/backend"
	"rosterlink/internal/enrollment/models"
	strutil "rosterlink/pkg/platform/strings"
)

// SkippedEnrollment is an enrollment left out of a snapshot because none of
// its teams resolved to a code.
type SkippedEnrollment struct {
	TenantSlug   string
	EnrollmentID string
}

// BuildSnapshot flattens the model into the reconciliation upload.
//
// Season-ended tenants are left out. Tenants are visited in slug order and
// enrollments in tenant order so the same model always yields the same body.
func BuildSnapshot(m models.Model, hardwareID string) (backend.ReconcileRequest, []SkippedEnrollment) {
	req := backend.ReconcileRequest{Enrollments: []backend.EnrollmentEntry{}}
	var skipped []SkippedEnrollment

	for _, slug := range m.Slugs() {
		tenant := m.Tenants[slug]
		if tenant.SeasonEnded {
			continue
		}
		for _, id := range tenant.EnrollmentIDs {
			e, ok := m.Enrollments[id]
			if !ok {
				continue
			}
			codes := teamCodes(tenant, e.TeamIDs)
			if len(codes) == 0 {
				skipped = append(skipped, SkippedEnrollment{TenantSlug: slug, EnrollmentID: id})
				continue
			}
			entry := backend.EnrollmentEntry{
				TenantSlug:         slug,
				Role:               e.Role,
				TeamCodes:          codes,
				HardwareIdentifier: hardwareID,
			}
			if e.Role == models.RoleManager {
				entry.TeamManagerEmail = e.ManagerEmail
			}
			req.Enrollments = append(req.Enrollments, entry)
		}
	}
	return req, skipped
}

// teamCodes resolves team IDs to the backend's canonical codes, deduplicated
// in first-seen order.
func teamCodes(tenant models.Tenant, teamIDs []string) []string {
	codes := make([]string, 0, len(teamIDs))
	for _, id := range teamIDs {
		codes = append(codes, resolveCode(tenant, id))
	}
	return strutil.DedupeAndTrim(codes)
}

// resolveCode returns the team's code. A team ID that is not a UUID is the
// code itself.
func resolveCode(tenant models.Tenant, teamID string) string {
	if idx := tenant.TeamIndex(teamID); idx >= 0 && tenant.Teams[idx].Code != "" {
		return tenant.Teams[idx].Code
	}
	if _, err := uuid.Parse(teamID); err == nil {
		return ""
	}
	return teamID
}
