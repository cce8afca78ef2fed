package backend

import (
	"errors"
	"fmt"
	"net/http"

	"rosterlink/internal/enrollment/models"
	dErrors "rosterlink/pkg/domain-errors"
)

// APIError is a non-success response that is neither a revocation nor
// transient.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend request failed with status %d", e.Status)
	}
	return fmt.Sprintf("backend request failed (%d): %s", e.Status, e.Message)
}

// RevocationError is the backend explicitly rejecting a device token. It is
// the only failure that may move a tenant to the revoked state.
type RevocationError struct {
	Reason models.RevocationReason
	// Detail is the optional free-text reason sent alongside token_revoked.
	Detail string
}

func (e *RevocationError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("device token rejected: %s", e.Reason)
	}
	return fmt.Sprintf("device token rejected: %s (%s)", e.Reason, e.Detail)
}

// AsRevocation extracts a RevocationError from err's chain.
func AsRevocation(err error) (*RevocationError, bool) {
	var rev *RevocationError
	if errors.As(err, &rev) {
		return rev, true
	}
	return nil, false
}

// IsTransient reports whether err is safe to retry later.
func IsTransient(err error) bool {
	return dErrors.HasCode(err, dErrors.CodeUnavailable)
}

// errorBody is the backend's error envelope.
type errorBody struct {
	Error       string `json:"error"`
	Reason      string `json:"reason,omitempty"`
	Description string `json:"error_description,omitempty"`
}

// classify turns a non-2xx response into a coded error.
func classify(status int, body errorBody, raw string) error {
	msg := body.Description
	if msg == "" {
		msg = body.Error
	}
	if msg == "" {
		msg = raw
	}

	switch {
	case status == http.StatusUnauthorized && body.Error == string(models.ReasonTokenRevoked):
		return dErrors.Wrap(&RevocationError{Reason: models.ReasonTokenRevoked, Detail: body.Reason},
			dErrors.CodeUnauthorized, "device token revoked")
	case status == http.StatusUnauthorized && body.Error == string(models.ReasonInvalidToken):
		return dErrors.Wrap(&RevocationError{Reason: models.ReasonInvalidToken, Detail: body.Reason},
			dErrors.CodeUnauthorized, "device token invalid")
	case status == http.StatusUnauthorized,
		status == http.StatusRequestTimeout,
		status == http.StatusTooManyRequests,
		status >= http.StatusInternalServerError:
		// Any other 401 is not a trusted revocation signal.
		return dErrors.Wrap(&APIError{Status: status, Message: msg}, dErrors.CodeUnavailable, "backend temporarily unavailable")
	case status == http.StatusNotFound:
		return dErrors.Wrap(&APIError{Status: status, Message: msg}, dErrors.CodeNotFound, "backend resource not found")
	case status == http.StatusConflict:
		return dErrors.Wrap(&APIError{Status: status, Message: msg}, dErrors.CodeConflict, "backend rejected the request as a conflict")
	default:
		return dErrors.Wrap(&APIError{Status: status, Message: msg}, dErrors.CodeBadRequest, "backend rejected the request")
	}
}
