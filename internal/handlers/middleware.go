package handlers

import (
	"net/http"

	"github.com/google/uuid"

	"ride-analytics/pkg/logging"
)

// RequestIDHeader carries the request ID in responses and inbound requests.
const RequestIDHeader = "X-Request-ID"

// RequestIDMiddleware assigns every request an ID for log correlation.
// An inbound X-Request-ID is honored so callers can trace across services.
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}

		w.Header().Set(RequestIDHeader, requestID)
		ctx := logging.WithRequestID(r.Context(), requestID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
