package models

import (
	"fmt"
	"slices"
	"sort"
	"time"

	dErrors "rosterlink/pkg/domain-errors"
)

// MaxTeams is the global ceiling on teams across all tenants on one device.
// It is enforced when grants are merged, never retroactively.
const MaxTeams = 5

// Role is the access level a grant confers on a team.
type Role string

const (
	RoleManager Role = "manager"
	RoleMember  Role = "member"
)

func (r Role) IsValid() bool {
	return r == RoleManager || r == RoleMember
}

// RevocationReason records why a tenant lost its authorization.
type RevocationReason string

const (
	ReasonTokenRevoked RevocationReason = "token_revoked"
	ReasonInvalidToken RevocationReason = "invalid_token"
	ReasonSeasonEnded  RevocationReason = "season_ended"
)

// Team is one team the device has access to within a tenant.
type Team struct {
	ID           string    `json:"id"`
	Code         string    `json:"code,omitempty"`
	Name         string    `json:"name"`
	Role         Role      `json:"role"`
	ManagerEmail string    `json:"manager_email,omitempty"`
	EnrolledAt   time.Time `json:"enrolled_at"`
}

// Tenant is a club the device is enrolled with, keyed by slug.
//
// Invariants:
//   - SeasonEnded implies SignedDeviceToken == ""
//   - a team ID appears at most once in Teams
//   - every enrollment in EnrollmentIDs belongs to this tenant
type Tenant struct {
	Slug              string           `json:"slug"`
	Name              string           `json:"name"`
	LogoURL           string           `json:"logo_url,omitempty"`
	SeasonEnded       bool             `json:"season_ended"`
	SignedDeviceToken string           `json:"signed_device_token,omitempty"`
	TokenExpiresAt    time.Time        `json:"token_expires_at,omitzero"`
	RevokedReason     RevocationReason `json:"revoked_reason,omitempty"`
	RevokedAt         time.Time        `json:"revoked_at,omitzero"`
	Teams             []Team           `json:"teams"`
	EnrollmentIDs     []string         `json:"enrollment_ids"`
	CreatedAt         time.Time        `json:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at"`
}

// IsActive reports whether the tenant still holds authorization.
func (t *Tenant) IsActive() bool {
	return !t.SeasonEnded && t.SignedDeviceToken != ""
}

// HasTeam reports whether a team with the given ID is present.
func (t *Tenant) HasTeam(id string) bool {
	return t.TeamIndex(id) >= 0
}

// TeamIndex returns the position of the team with id, or -1.
func (t *Tenant) TeamIndex(id string) int {
	for i := range t.Teams {
		if t.Teams[i].ID == id {
			return i
		}
	}
	return -1
}

// Enrollment is the immutable record of one successful registration.
type Enrollment struct {
	ID                string    `json:"id"`
	TenantSlug        string    `json:"tenant_slug"`
	Role              Role      `json:"role"`
	ManagerEmail      string    `json:"manager_email,omitempty"`
	TeamIDs           []string  `json:"team_ids"`
	SignedDeviceToken string    `json:"signed_device_token,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}

// Model is the aggregate root: every tenant and enrollment on the device.
// Transformations never mutate a Model in place; they Clone and return.
type Model struct {
	Tenants     map[string]Tenant     `json:"tenants"`
	Enrollments map[string]Enrollment `json:"enrollments"`
}

// New returns an empty model.
func New() Model {
	return Model{
		Tenants:     map[string]Tenant{},
		Enrollments: map[string]Enrollment{},
	}
}

// IsEnrolled is true iff at least one tenant exists.
func (m Model) IsEnrolled() bool {
	return len(m.Tenants) > 0
}

// TeamCount is the number of teams across all tenants.
func (m Model) TeamCount() int {
	n := 0
	for _, t := range m.Tenants {
		n += len(t.Teams)
	}
	return n
}

// Tenant looks up a tenant by slug.
func (m Model) Tenant(slug string) (Tenant, bool) {
	t, ok := m.Tenants[slug]
	return t, ok
}

// Slugs returns tenant slugs in sorted order.
func (m Model) Slugs() []string {
	slugs := make([]string, 0, len(m.Tenants))
	for slug := range m.Tenants {
		slugs = append(slugs, slug)
	}
	sort.Strings(slugs)
	return slugs
}

// Clone returns a deep copy.
func (m Model) Clone() Model {
	out := Model{
		Tenants:     make(map[string]Tenant, len(m.Tenants)),
		Enrollments: make(map[string]Enrollment, len(m.Enrollments)),
	}
	for slug, t := range m.Tenants {
		t.Teams = append([]Team(nil), t.Teams...)
		t.EnrollmentIDs = append([]string(nil), t.EnrollmentIDs...)
		out.Tenants[slug] = t
	}
	for id, e := range m.Enrollments {
		e.TeamIDs = append([]string(nil), e.TeamIDs...)
		out.Enrollments[id] = e
	}
	return out
}

// Validate checks the structural invariants of the model. A non-nil error is
// a bug in whatever produced the model, never a state to persist.
func (m Model) Validate() error {
	for slug, t := range m.Tenants {
		if slug == "" || t.Slug != slug {
			return invariant("tenant keyed %q has slug %q", slug, t.Slug)
		}
		if t.SeasonEnded && t.SignedDeviceToken != "" {
			return invariant("tenant %q is season-ended but still holds a token", slug)
		}
		seen := make(map[string]struct{}, len(t.Teams))
		for _, team := range t.Teams {
			if _, dup := seen[team.ID]; dup {
				return invariant("tenant %q lists team %q twice", slug, team.ID)
			}
			seen[team.ID] = struct{}{}
		}
		for _, id := range t.EnrollmentIDs {
			e, ok := m.Enrollments[id]
			if !ok {
				return invariant("tenant %q references missing enrollment %q", slug, id)
			}
			if e.TenantSlug != slug {
				return invariant("enrollment %q belongs to %q, not %q", id, e.TenantSlug, slug)
			}
		}
	}
	for id, e := range m.Enrollments {
		t, ok := m.Tenants[e.TenantSlug]
		if !ok {
			return invariant("enrollment %q references missing tenant %q", id, e.TenantSlug)
		}
		if !slices.Contains(t.EnrollmentIDs, id) {
			return invariant("tenant %q does not list enrollment %q", e.TenantSlug, id)
		}
		for _, teamID := range e.TeamIDs {
			if !t.HasTeam(teamID) {
				return invariant("enrollment %q references team %q absent from tenant %q", id, teamID, e.TenantSlug)
			}
		}
	}
	return nil
}

func invariant(format string, args ...any) error {
	return dErrors.New(dErrors.CodeInvariantViolation, fmt.Sprintf(format, args...))
}
