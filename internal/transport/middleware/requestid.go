package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/frahmantamala/leave-management/pkg/logger"
)

const RequestIDHeader = "X-Request-ID"

// RequestID tags the request logger with the caller's X-Request-ID, or a
// fresh uuid, and echoes it on the response.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" || len(requestID) > 128 {
			requestID = uuid.NewString()
		}

		ctx := logger.With(r.Context(), "request_id", requestID)
		w.Header().Set(RequestIDHeader, requestID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
