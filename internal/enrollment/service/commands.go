package service

import (
	"time"

	"rosterlink/internal/enrollment/lifecycle"
	"rosterlink/internal/enrollment/merge"
	"rosterlink/internal/enrollment/models"
)

// Command is a pure model transformation applied through Dispatch.
type Command interface {
	apply(current models.Model, at time.Time) (models.Model, Effect)
}

// Effect reports what a dispatched command did. Only the field matching the
// command kind is set.
type Effect struct {
	Changed    bool
	Outcome    *merge.Outcome
	Transition *lifecycle.Transition
	Removal    *lifecycle.Removal
}

// ApplyDelta merges a registration grant.
type ApplyDelta struct {
	Delta merge.Delta
}

func (c ApplyDelta) apply(current models.Model, at time.Time) (models.Model, Effect) {
	d := c.Delta
	if d.GrantedAt.IsZero() {
		d.GrantedAt = at
	}
	next, out := merge.Apply(current, d)
	return next, Effect{Changed: d.TenantSlug != "", Outcome: &out}
}

// Revoke moves a tenant to the revoked state.
type Revoke struct {
	Slug   string
	Reason models.RevocationReason
}

func (c Revoke) apply(current models.Model, at time.Time) (models.Model, Effect) {
	next, tr := lifecycle.Revoke(current, c.Slug, c.Reason, at)
	return next, Effect{Changed: tr.Changed, Transition: &tr}
}

// EndSeason is Revoke with the season-ended reason.
type EndSeason struct {
	Slug string
}

func (c EndSeason) apply(current models.Model, at time.Time) (models.Model, Effect) {
	next, tr := lifecycle.EndSeason(current, c.Slug, at)
	return next, Effect{Changed: tr.Changed, Transition: &tr}
}

// RemoveTenant deletes a tenant with its teams and enrollments.
type RemoveTenant struct {
	Slug string
}

func (c RemoveTenant) apply(current models.Model, _ time.Time) (models.Model, Effect) {
	next, removal := lifecycle.RemoveTenant(current, c.Slug)
	return next, Effect{Changed: removal.TenantRemoved, Removal: &removal}
}

// RemoveTeam deletes one team from a tenant.
type RemoveTeam struct {
	Slug   string
	TeamID string
}

func (c RemoveTeam) apply(current models.Model, _ time.Time) (models.Model, Effect) {
	next, removal := lifecycle.RemoveTeam(current, c.Slug, c.TeamID)
	return next, Effect{Changed: len(removal.TeamIDs) > 0, Removal: &removal}
}

// UpdateClub stores refreshed club presentation data. Empty fields are kept.
type UpdateClub struct {
	Slug    string
	Name    string
	LogoURL string
}

func (c UpdateClub) apply(current models.Model, at time.Time) (models.Model, Effect) {
	next := current.Clone()
	tenant, ok := next.Tenants[c.Slug]
	if !ok {
		return next, Effect{}
	}
	changed := false
	if c.Name != "" && c.Name != tenant.Name {
		tenant.Name = c.Name
		changed = true
	}
	if c.LogoURL != "" && c.LogoURL != tenant.LogoURL {
		tenant.LogoURL = c.LogoURL
		changed = true
	}
	if changed {
		tenant.UpdatedAt = at
		next.Tenants[c.Slug] = tenant
	}
	return next, Effect{Changed: changed}
}
