// Package request provides middleware that stamps request-scoped values.
// All operations within a single request share one "now" and one request ID,
// keeping log lines and model timestamps consistent.
package request

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"rosterlink/pkg/requestcontext"
)

// HeaderRequestID is echoed back on every response.
const HeaderRequestID = "X-Request-ID"

// Middleware captures the request time and a request ID (taken from the
// incoming header when present) and stores both in the context.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := strings.TrimSpace(r.Header.Get(HeaderRequestID))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(HeaderRequestID, requestID)

		ctx := requestcontext.WithTime(r.Context(), time.Now())
		ctx = requestcontext.WithRequestID(ctx, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
