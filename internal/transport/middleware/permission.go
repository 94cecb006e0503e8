package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/user-management/internal"
)

// RequireRoles admits callers holding at least one of roles. The principal must already be in
// the context, so mount it after the bearer middleware.
func RequireRoles(logger *slog.Logger, roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := internal.PrincipalFromContext(r.Context())
			if !ok {
				writeAppError(w, internal.ErrMissingToken)
				return
			}

			if !principal.HasAnyRole(roles) {
				logger.WarnContext(r.Context(), "access denied: insufficient role",
					"user_id", principal.ID,
					"required_roles", roles,
					"user_roles", principal.Roles)
				writeAppError(w, internal.ErrInsufficientRole)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func writeAppError(w http.ResponseWriter, appErr *internal.AppError) {
	status, body := appErr.ToHTTPResponse()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
