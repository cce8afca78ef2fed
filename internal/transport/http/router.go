package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"rosterlink/pkg/platform/httputil"
	"rosterlink/pkg/platform/middleware/admin"
	"rosterlink/pkg/platform/middleware/request"
)

// NewRouter mounts the status API. Health and metrics stay open for local
// probes; everything under /v1 requires the admin token when one is set.
func NewRouter(h *Handler, adminToken string, metricsHandler http.Handler, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(request.Middleware)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if metricsHandler != nil {
		r.Handle("/metrics", metricsHandler)
	}

	r.Group(func(r chi.Router) {
		r.Use(admin.RequireAdminToken(adminToken, logger))
		h.Register(r)
	})
	return r
}
