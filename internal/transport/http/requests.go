package httptransport

import (
	"strings"
	"time"

	"rosterlink/internal/club"
	"rosterlink/internal/enrollment/lifecycle"
	"rosterlink/internal/enrollment/models"
	"rosterlink/internal/enrollment/service"
	dErrors "rosterlink/pkg/domain-errors"
)

type enrollRequest struct {
	EnrollmentToken string `json:"enrollment_token"`
	PushToken       string `json:"push_token,omitempty"`
}

func (r *enrollRequest) Validate() error {
	r.EnrollmentToken = strings.TrimSpace(r.EnrollmentToken)
	r.PushToken = strings.TrimSpace(r.PushToken)
	if r.EnrollmentToken == "" {
		return dErrors.New(dErrors.CodeBadRequest, "enrollment_token is required")
	}
	return nil
}

type teamView struct {
	ID           string      `json:"id"`
	Code         string      `json:"code,omitempty"`
	Name         string      `json:"name"`
	Role         models.Role `json:"role"`
	ManagerEmail string      `json:"manager_email,omitempty"`
	EnrolledAt   time.Time   `json:"enrolled_at"`
}

// tenantView never carries the signed device token.
type tenantView struct {
	Slug           string                  `json:"slug"`
	Name           string                  `json:"name"`
	LogoURL        string                  `json:"logo_url,omitempty"`
	State          lifecycle.State         `json:"state"`
	SeasonEnded    bool                    `json:"season_ended"`
	RevokedReason  models.RevocationReason `json:"revoked_reason,omitempty"`
	RevokedAt      time.Time               `json:"revoked_at,omitzero"`
	TokenExpiresAt time.Time               `json:"token_expires_at,omitzero"`
	Teams          []teamView              `json:"teams"`
	EnrollmentIDs  []string                `json:"enrollment_ids"`
}

type enrollmentsResponse struct {
	Enrolled  bool         `json:"enrolled"`
	TeamCount int          `json:"team_count"`
	MaxTeams  int          `json:"max_teams"`
	Tenants   []tenantView `json:"tenants"`
}

type enrollResponse struct {
	TenantSlug     string     `json:"tenant_slug"`
	EnrollmentID   string     `json:"enrollment_id,omitempty"`
	TenantCreated  bool       `json:"tenant_created"`
	Reactivated    bool       `json:"reactivated"`
	Admitted       []string   `json:"admitted"`
	AlreadyPresent []string   `json:"already_present"`
	Superseded     []string   `json:"superseded"`
	Truncated      []string   `json:"truncated"`
	Lost           []string   `json:"lost"`
	Tenant         tenantView `json:"tenant"`
}

type removalResponse struct {
	TenantSlug    string   `json:"tenant_slug"`
	TenantRemoved bool     `json:"tenant_removed"`
	TeamIDs       []string `json:"team_ids"`
	EnrollmentIDs []string `json:"enrollment_ids"`
}

type clubResponse struct {
	club.Metadata
	Freshness string `json:"freshness"`
}

func toTenantView(t models.Tenant) tenantView {
	v := tenantView{
		Slug:           t.Slug,
		Name:           t.Name,
		LogoURL:        t.LogoURL,
		State:          lifecycle.StateOf(t),
		SeasonEnded:    t.SeasonEnded,
		RevokedReason:  t.RevokedReason,
		RevokedAt:      t.RevokedAt,
		TokenExpiresAt: t.TokenExpiresAt,
		Teams:          make([]teamView, 0, len(t.Teams)),
		EnrollmentIDs:  orEmpty(t.EnrollmentIDs),
	}
	for _, team := range t.Teams {
		v.Teams = append(v.Teams, teamView(team))
	}
	return v
}

func toEnrollmentsResponse(m models.Model) enrollmentsResponse {
	resp := enrollmentsResponse{
		Enrolled:  m.IsEnrolled(),
		TeamCount: m.TeamCount(),
		MaxTeams:  models.MaxTeams,
		Tenants:   make([]tenantView, 0, len(m.Tenants)),
	}
	for _, slug := range m.Slugs() {
		resp.Tenants = append(resp.Tenants, toTenantView(m.Tenants[slug]))
	}
	return resp
}

func toEnrollResponse(res service.EnrollResult) enrollResponse {
	out := res.Outcome
	return enrollResponse{
		TenantSlug:     out.TenantSlug,
		EnrollmentID:   out.EnrollmentID,
		TenantCreated:  out.TenantCreated,
		Reactivated:    out.Reactivated,
		Admitted:       orEmpty(out.Admitted),
		AlreadyPresent: orEmpty(out.AlreadyPresent),
		Superseded:     orEmpty(out.Superseded),
		Truncated:      orEmpty(out.Truncated),
		Lost:           orEmpty(out.Lost),
		Tenant:         toTenantView(res.Tenant),
	}
}

func toRemovalResponse(r lifecycle.Removal) removalResponse {
	return removalResponse{
		TenantSlug:    r.Slug,
		TenantRemoved: r.TenantRemoved,
		TeamIDs:       orEmpty(r.TeamIDs),
		EnrollmentIDs: orEmpty(r.EnrollmentIDs),
	}
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
