// Package merge folds an incoming enrollment grant into the device model.
//
// Apply is pure and total: it never fails and never mutates its input.
// Capacity overflow is reported through Outcome, not as an error.
//
// Re-applying a delta is not prevented here. A delta with a new enrollment ID
// records another enrollment; applying the same delta twice overwrites the
// enrollment with an identical record. Callers guard against duplicate
// submission.
package merge

import (
	"slices"
	"time"

	"rosterlink/internal/enrollment/models"
)

// GrantedTeam is one team carried by a delta.
type GrantedTeam struct {
	ID   string
	Code string
	Name string
}

// Delta is one grant produced by a successful registration.
type Delta struct {
	EnrollmentID      string
	TenantSlug        string
	TenantName        string
	LogoURL           string
	Role              models.Role
	ManagerEmail      string
	Teams             []GrantedTeam
	SignedDeviceToken string
	TokenExpiresAt    time.Time
	GrantedAt         time.Time
}

// Outcome describes what Apply did with a delta.
type Outcome struct {
	TenantSlug     string
	TenantCreated  bool
	EnrollmentID   string // empty when no enrollment was recorded
	Admitted       []string
	AlreadyPresent []string
	Superseded     []string
	Truncated      []string
	// Lost lists superseded teams that were then truncated: the device held
	// them before the grant and no longer does.
	Lost        []string
	Reactivated bool
}

// WasTruncated reports whether the capacity ceiling dropped any team.
func (o Outcome) WasTruncated() bool {
	return len(o.Truncated) > 0
}

// Apply returns a new model with delta merged in.
//
// A manager grant replaces existing entries for the same team IDs. New teams
// are admitted in delta order until the device holds models.MaxTeams; the
// rest are reported as truncated. Team IDs already on the tenant are kept
// as-is and do not consume capacity.
func Apply(current models.Model, delta Delta) (models.Model, Outcome) {
	next := current.Clone()
	out := Outcome{TenantSlug: delta.TenantSlug}
	if delta.TenantSlug == "" {
		return next, out
	}

	incoming := dedupeTeams(delta.Teams)
	tenant, exists := next.Tenants[delta.TenantSlug]
	if !exists {
		tenant = models.Tenant{
			Slug:      delta.TenantSlug,
			CreatedAt: delta.GrantedAt,
		}
		out.TenantCreated = true
	}

	if exists && delta.Role == models.RoleManager && len(incoming) > 0 {
		tenant.Teams, out.Superseded = supersede(tenant.Teams, incoming)
	}
	// Capacity is measured after superseded entries leave, so their slots are
	// free again. An upgraded team is only kept if it falls within the
	// admitted prefix; one truncated after superseding is reported as Lost.
	next.Tenants[delta.TenantSlug] = tenant
	available := max(0, models.MaxTeams-next.TeamCount())

	granted := make([]string, 0, len(incoming))
	for _, team := range incoming {
		if tenant.HasTeam(team.ID) {
			out.AlreadyPresent = append(out.AlreadyPresent, team.ID)
			granted = append(granted, team.ID)
			continue
		}
		if available == 0 {
			out.Truncated = append(out.Truncated, team.ID)
			continue
		}
		available--
		tenant.Teams = append(tenant.Teams, newTeam(team, delta))
		out.Admitted = append(out.Admitted, team.ID)
		granted = append(granted, team.ID)
	}

	for _, id := range out.Truncated {
		if slices.Contains(out.Superseded, id) {
			out.Lost = append(out.Lost, id)
		}
	}

	upsertTenant(&tenant, delta, &out)

	if delta.EnrollmentID != "" && len(granted) > 0 {
		next.Enrollments[delta.EnrollmentID] = models.Enrollment{
			ID:                delta.EnrollmentID,
			TenantSlug:        delta.TenantSlug,
			Role:              delta.Role,
			ManagerEmail:      managerEmail(delta),
			TeamIDs:           granted,
			SignedDeviceToken: delta.SignedDeviceToken,
			CreatedAt:         delta.GrantedAt,
		}
		if !slices.Contains(tenant.EnrollmentIDs, delta.EnrollmentID) {
			tenant.EnrollmentIDs = append(tenant.EnrollmentIDs, delta.EnrollmentID)
		}
		out.EnrollmentID = delta.EnrollmentID
	}

	next.Tenants[delta.TenantSlug] = tenant
	if len(out.Superseded) > 0 {
		PruneEnrollments(&next, delta.TenantSlug)
	}
	return next, out
}

// PruneEnrollments drops enrollment references to teams the tenant no longer
// holds, and drops enrollments left without teams.
func PruneEnrollments(m *models.Model, slug string) {
	tenant, ok := m.Tenants[slug]
	if !ok {
		return
	}
	kept := make([]string, 0, len(tenant.EnrollmentIDs))
	for _, id := range tenant.EnrollmentIDs {
		e, ok := m.Enrollments[id]
		if !ok {
			continue
		}
		teamIDs := make([]string, 0, len(e.TeamIDs))
		for _, teamID := range e.TeamIDs {
			if tenant.HasTeam(teamID) {
				teamIDs = append(teamIDs, teamID)
			}
		}
		if len(teamIDs) == 0 {
			delete(m.Enrollments, id)
			continue
		}
		e.TeamIDs = teamIDs
		m.Enrollments[id] = e
		kept = append(kept, id)
	}
	tenant.EnrollmentIDs = kept
	m.Tenants[slug] = tenant
}

func upsertTenant(tenant *models.Tenant, delta Delta, out *Outcome) {
	if delta.TenantName != "" {
		tenant.Name = delta.TenantName
	}
	if delta.LogoURL != "" {
		tenant.LogoURL = delta.LogoURL
	}
	if delta.SignedDeviceToken != "" {
		if tenant.SeasonEnded {
			out.Reactivated = true
		}
		tenant.SignedDeviceToken = delta.SignedDeviceToken
		tenant.TokenExpiresAt = delta.TokenExpiresAt
		tenant.SeasonEnded = false
		tenant.RevokedReason = ""
		tenant.RevokedAt = time.Time{}
	}
	tenant.UpdatedAt = delta.GrantedAt
}

func supersede(existing []models.Team, incoming []GrantedTeam) ([]models.Team, []string) {
	ids := make(map[string]struct{}, len(incoming))
	for _, team := range incoming {
		ids[team.ID] = struct{}{}
	}
	kept := make([]models.Team, 0, len(existing))
	var removed []string
	for _, team := range existing {
		if _, ok := ids[team.ID]; ok {
			removed = append(removed, team.ID)
			continue
		}
		kept = append(kept, team)
	}
	return kept, removed
}

// dedupeTeams keeps the first occurrence of each non-empty ID, in order.
func dedupeTeams(teams []GrantedTeam) []GrantedTeam {
	seen := make(map[string]struct{}, len(teams))
	out := make([]GrantedTeam, 0, len(teams))
	for _, team := range teams {
		if team.ID == "" {
			continue
		}
		if _, dup := seen[team.ID]; dup {
			continue
		}
		seen[team.ID] = struct{}{}
		out = append(out, team)
	}
	return out
}

func newTeam(team GrantedTeam, delta Delta) models.Team {
	return models.Team{
		ID:           team.ID,
		Code:         team.Code,
		Name:         team.Name,
		Role:         delta.Role,
		ManagerEmail: managerEmail(delta),
		EnrolledAt:   delta.GrantedAt,
	}
}

func managerEmail(delta Delta) string {
	if delta.Role != models.RoleManager {
		return ""
	}
	return delta.ManagerEmail
}
