package backend

import (
	"errors"
	"fmt"
	"time"

	"rosterlink/internal/enrollment/models"
)

// RegisterRequest exchanges a one-time enrollment token for a grant.
type RegisterRequest struct {
	EnrollmentToken    string `json:"enrollment_token"`
	ClientEnrollmentID string `json:"client_enrollment_id"`
	HardwareIdentifier string `json:"hardware_identifier,omitempty"`
}

// Registration is a successful registration response.
type Registration struct {
	EnrollmentID      string             `json:"enrollment_id,omitempty"`
	Tenant            RegistrationTenant `json:"tenant"`
	Role              models.Role        `json:"role"`
	ManagerEmail      string             `json:"manager_email,omitempty"`
	Teams             []RegistrationTeam `json:"teams"`
	SignedDeviceToken string             `json:"signed_device_token"`
	TokenExpiresAt    time.Time          `json:"token_expires_at,omitzero"`
}

// RegistrationTenant is the tenant block of a registration.
type RegistrationTenant struct {
	Slug    string `json:"slug"`
	Name    string `json:"name"`
	LogoURL string `json:"logo_url,omitempty"`
}

// RegistrationTeam is one granted team.
type RegistrationTeam struct {
	ID   string `json:"id"`
	Code string `json:"code,omitempty"`
	Name string `json:"name,omitempty"`
}

func (r *Registration) validate() error {
	var errs []error
	if r.Tenant.Slug == "" {
		errs = append(errs, errors.New("tenant.slug is required"))
	}
	if r.Tenant.Name == "" {
		errs = append(errs, errors.New("tenant.name is required"))
	}
	if !r.Role.IsValid() {
		errs = append(errs, fmt.Errorf("role %q is not manager or member", r.Role))
	}
	if r.SignedDeviceToken == "" {
		errs = append(errs, errors.New("signed_device_token is required"))
	}
	for i, team := range r.Teams {
		if team.ID == "" {
			errs = append(errs, fmt.Errorf("teams[%d].id is required", i))
		}
	}
	return errors.Join(errs...)
}

// ReconcileRequest is everything the device believes it is enrolled in.
type ReconcileRequest struct {
	Enrollments []EnrollmentEntry `json:"enrollments"`
}

// EnrollmentEntry is one enrollment in a reconciliation upload.
type EnrollmentEntry struct {
	TenantSlug         string      `json:"tenant_slug"`
	Role               models.Role `json:"role"`
	TeamCodes          []string    `json:"team_codes"`
	TeamManagerEmail   string      `json:"team_manager_email,omitempty"`
	HardwareIdentifier string      `json:"hardware_identifier,omitempty"`
}

// ReconcileResponse carries the server-side cleanup summary.
type ReconcileResponse struct {
	CleanupSummary *CleanupSummary `json:"cleanup_summary"`
}

// CleanupSummary counts what the backend deleted for this device.
type CleanupSummary struct {
	TeamsRemoved       int      `json:"teams_removed"`
	EnrollmentsRevoked int      `json:"enrollments_revoked"`
	TenantsAffected    []string `json:"tenants_affected"`
}

func (r *ReconcileResponse) validate() error {
	if r.CleanupSummary == nil {
		return errors.New("cleanup_summary is required")
	}
	if r.CleanupSummary.TeamsRemoved < 0 || r.CleanupSummary.EnrollmentsRevoked < 0 {
		return errors.New("cleanup_summary counts must not be negative")
	}
	return nil
}

// TenantMetadata is the club metadata served for a tenant.
type TenantMetadata struct {
	Slug        string `json:"slug"`
	Name        string `json:"name"`
	LogoURL     string `json:"logo_url,omitempty"`
	SeasonEnded bool   `json:"season_ended"`
}

func (t *TenantMetadata) validate() error {
	var errs []error
	if t.Slug == "" {
		errs = append(errs, errors.New("slug is required"))
	}
	if t.Name == "" {
		errs = append(errs, errors.New("name is required"))
	}
	return errors.Join(errs...)
}

// PushTokenRequest registers a push token with a tenant.
type PushTokenRequest struct {
	PushToken          string `json:"push_token"`
	HardwareIdentifier string `json:"hardware_identifier,omitempty"`
}

// validator is implemented by responses with required fields.
type validator interface {
	validate() error
}
