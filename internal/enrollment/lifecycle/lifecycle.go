// Package lifecycle moves tenants through their authorization states.
//
// A tenant is active until the backend explicitly revokes its device token or
// reports its season as ended. Revocation is terminal for authorization but
// keeps teams and enrollments for read-only display. Only explicit removal
// deletes data.
//
// Every function here is pure and total: it returns a new model and never
// fails. Unknown slugs and repeated transitions are no-ops.
package lifecycle

import (
	"time"

	"rosterlink/internal/enrollment/merge"
	"rosterlink/internal/enrollment/models"
)

// State is a tenant's authorization state.
type State string

const (
	StateActive  State = "active"
	StateRevoked State = "revoked"
)

// StateOf derives the lifecycle state of a tenant.
func StateOf(t models.Tenant) State {
	if t.SeasonEnded {
		return StateRevoked
	}
	return StateActive
}

// Transition reports what a lifecycle call changed.
type Transition struct {
	Slug    string
	From    State
	To      State
	Changed bool
}

// Revoke moves a tenant to the revoked state in one update: the season-ended
// flag is set and the device token cleared together, so the invariant
// "season ended implies no token" holds immediately.
func Revoke(current models.Model, slug string, reason models.RevocationReason, at time.Time) (models.Model, Transition) {
	next := current.Clone()
	tenant, ok := next.Tenants[slug]
	if !ok {
		return next, Transition{Slug: slug}
	}
	tr := Transition{Slug: slug, From: StateOf(tenant), To: StateRevoked}
	if tenant.SeasonEnded && tenant.SignedDeviceToken == "" {
		return next, tr
	}

	tenant.SeasonEnded = true
	tenant.SignedDeviceToken = ""
	tenant.TokenExpiresAt = time.Time{}
	tenant.RevokedReason = reason
	tenant.RevokedAt = at
	tenant.UpdatedAt = at
	next.Tenants[slug] = tenant
	tr.Changed = true
	return next, tr
}

// EndSeason is Revoke with the season-ended reason.
func EndSeason(current models.Model, slug string, at time.Time) (models.Model, Transition) {
	return Revoke(current, slug, models.ReasonSeasonEnded, at)
}

// Removal lists what RemoveTenant or RemoveTeam deleted.
type Removal struct {
	Slug          string
	TenantRemoved bool
	EnrollmentIDs []string
	TeamIDs       []string
	// Tokens are the signed tokens of removed enrollments, kept so callers
	// can authenticate best-effort backend notifications after the fact.
	Tokens map[string]string
}

// RemoveTenant deletes a tenant together with its teams and enrollments.
func RemoveTenant(current models.Model, slug string) (models.Model, Removal) {
	next := current.Clone()
	tenant, ok := next.Tenants[slug]
	if !ok {
		return next, Removal{Slug: slug}
	}

	removal := Removal{
		Slug:          slug,
		TenantRemoved: true,
		EnrollmentIDs: append([]string(nil), tenant.EnrollmentIDs...),
		Tokens:        make(map[string]string, len(tenant.EnrollmentIDs)),
	}
	for _, team := range tenant.Teams {
		removal.TeamIDs = append(removal.TeamIDs, team.ID)
	}
	for _, id := range tenant.EnrollmentIDs {
		if e, ok := next.Enrollments[id]; ok {
			removal.Tokens[id] = e.SignedDeviceToken
		}
		delete(next.Enrollments, id)
	}
	// Sweep stray enrollments that point at the tenant without being listed.
	for id, e := range next.Enrollments {
		if e.TenantSlug == slug {
			delete(next.Enrollments, id)
		}
	}
	delete(next.Tenants, slug)
	return next, removal
}

// RemoveTeam deletes one team from a tenant. Enrollments that granted only
// that team are removed; the tenant itself is removed once it holds neither
// teams nor enrollments.
func RemoveTeam(current models.Model, slug, teamID string) (models.Model, Removal) {
	next := current.Clone()
	tenant, ok := next.Tenants[slug]
	if !ok {
		return next, Removal{Slug: slug}
	}
	idx := tenant.TeamIndex(teamID)
	if idx < 0 {
		return next, Removal{Slug: slug}
	}

	removal := Removal{Slug: slug, TeamIDs: []string{teamID}, Tokens: map[string]string{}}
	tenant.Teams = append(tenant.Teams[:idx:idx], tenant.Teams[idx+1:]...)
	next.Tenants[slug] = tenant

	before := append([]string(nil), tenant.EnrollmentIDs...)
	for _, id := range before {
		if e, ok := next.Enrollments[id]; ok {
			removal.Tokens[id] = e.SignedDeviceToken
		}
	}
	merge.PruneEnrollments(&next, slug)

	tenant = next.Tenants[slug]
	for _, id := range before {
		if _, still := next.Enrollments[id]; !still {
			removal.EnrollmentIDs = append(removal.EnrollmentIDs, id)
		} else {
			delete(removal.Tokens, id)
		}
	}
	if len(tenant.Teams) == 0 && len(tenant.EnrollmentIDs) == 0 {
		delete(next.Tenants, slug)
		removal.TenantRemoved = true
	}
	return next, removal
}
