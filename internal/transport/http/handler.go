// Package httptransport is the local status API: a thin chi layer over the
// enrollment container, the club metadata service and reconciliation.
package httptransport

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"rosterlink/internal/cache"
	"rosterlink/internal/club"
	"rosterlink/internal/enrollment/lifecycle"
	"rosterlink/internal/enrollment/models"
	"rosterlink/internal/enrollment/service"
	"rosterlink/internal/reconcile"
	dErrors "rosterlink/pkg/domain-errors"
	"rosterlink/pkg/platform/httputil"
	"rosterlink/pkg/requestcontext"
)

const maxBodyBytes = 64 << 10

// Enrollments is the enrollment state the API reads and changes.
type Enrollments interface {
	Snapshot() models.Model
	Enroll(ctx context.Context, enrollmentToken, pushToken string) (service.EnrollResult, error)
	RemoveTenant(ctx context.Context, slug string) (lifecycle.Removal, error)
	RemoveTeam(ctx context.Context, slug, teamID string) (lifecycle.Removal, error)
	Identity(ctx context.Context) (reconcile.Identity, error)
}

// Clubs serves club metadata.
type Clubs interface {
	Get(ctx context.Context, slug string) (club.Metadata, cache.State, error)
	WaitFresh(ctx context.Context, slug string) (club.Metadata, cache.State, error)
}

// Reconciler runs and reports reconciliations.
type Reconciler interface {
	Reconcile(ctx context.Context, m models.Model, id reconcile.Identity) reconcile.Result
	History() []reconcile.Result
}

// Handler holds the status API endpoints.
type Handler struct {
	enrollments Enrollments
	clubs       Clubs
	reconciler  Reconciler
	logger      *slog.Logger
}

// New constructs a Handler.
func New(enrollments Enrollments, clubs Clubs, reconciler Reconciler, logger *slog.Logger) *Handler {
	return &Handler{
		enrollments: enrollments,
		clubs:       clubs,
		reconciler:  reconciler,
		logger:      logger,
	}
}

// Register mounts the /v1 endpoints on r.
func (h *Handler) Register(r chi.Router) {
	r.Get("/v1/enrollments", h.HandleListEnrollments)
	r.Post("/v1/enrollments", h.HandleEnroll)
	r.Delete("/v1/tenants/{slug}", h.HandleRemoveTenant)
	r.Delete("/v1/tenants/{slug}/teams/{teamID}", h.HandleRemoveTeam)
	r.Get("/v1/tenants/{slug}/club", h.HandleClub)
	r.Post("/v1/reconcile", h.HandleReconcile)
	r.Get("/v1/reconcile/history", h.HandleReconcileHistory)
}

// HandleListEnrollments handles GET /v1/enrollments.
func (h *Handler) HandleListEnrollments(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, toEnrollmentsResponse(h.enrollments.Snapshot()))
}

// HandleEnroll handles POST /v1/enrollments.
func (h *Handler) HandleEnroll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	var req enrollRequest
	if err := decodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.WriteError(w, err)
		return
	}

	res, err := h.enrollments.Enroll(ctx, req.EnrollmentToken, req.PushToken)
	if err != nil {
		h.logger.WarnContext(ctx, "enrollment failed",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "enrollment completed",
		"request_id", requestID,
		"tenant", res.Outcome.TenantSlug,
		"admitted", len(res.Outcome.Admitted),
		"truncated", len(res.Outcome.Truncated),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusCreated, toEnrollResponse(res))
}

// HandleRemoveTenant handles DELETE /v1/tenants/{slug}.
func (h *Handler) HandleRemoveTenant(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	slug := chi.URLParam(r, "slug")

	removal, err := h.enrollments.RemoveTenant(ctx, slug)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.logger.InfoContext(ctx, "tenant removed via status api",
		"request_id", requestcontext.RequestID(ctx),
		"tenant", slug,
	)
	httputil.WriteJSON(w, http.StatusOK, toRemovalResponse(removal))
}

// HandleRemoveTeam handles DELETE /v1/tenants/{slug}/teams/{teamID}.
func (h *Handler) HandleRemoveTeam(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	removal, err := h.enrollments.RemoveTeam(ctx, chi.URLParam(r, "slug"), chi.URLParam(r, "teamID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toRemovalResponse(removal))
}

// HandleClub handles GET /v1/tenants/{slug}/club. With ?wait=true it blocks
// for a fresh copy, bounded by the club service's wait ceiling.
func (h *Handler) HandleClub(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	slug := chi.URLParam(r, "slug")

	wait := false
	if raw := r.URL.Query().Get("wait"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "wait must be a boolean"))
			return
		}
		wait = v
	}

	var (
		md    club.Metadata
		state cache.State
		err   error
	)
	if wait {
		md, state, err = h.clubs.WaitFresh(ctx, slug)
	} else {
		md, state, err = h.clubs.Get(ctx, slug)
	}
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, clubResponse{Metadata: md, Freshness: state.String()})
}

// HandleReconcile handles POST /v1/reconcile: a forced run.
func (h *Handler) HandleReconcile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := h.enrollments.Identity(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	res := h.reconciler.Reconcile(ctx, h.enrollments.Snapshot(), id)
	h.logger.InfoContext(ctx, "forced reconcile via status api",
		"request_id", requestcontext.RequestID(ctx),
		"status", res.Status,
	)
	httputil.WriteJSON(w, http.StatusOK, res)
}

// HandleReconcileHistory handles GET /v1/reconcile/history.
func (h *Handler) HandleReconcileHistory(w http.ResponseWriter, r *http.Request) {
	runs := h.reconciler.History()
	if runs == nil {
		runs = []reconcile.Result{}
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid json body")
	}
	return nil
}
