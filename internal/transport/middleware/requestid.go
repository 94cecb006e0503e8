package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/frahmantamala/user-management/pkg/logger"
)

const (
	TraceIDHeader    = "X-Trace-ID"
	maxTraceIDLength = 128
)

// RequestID accepts a caller supplied X-Trace-ID or mints one, then attaches it to the
// request-scoped logger and echoes it on the response.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID := r.Header.Get(TraceIDHeader)
		if traceID == "" || len(traceID) > maxTraceIDLength {
			traceID = uuid.NewString()
		}

		ctx := logger.With(r.Context(), "trace_id", traceID)
		w.Header().Set(TraceIDHeader, traceID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
