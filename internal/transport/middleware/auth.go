package middleware

import (
	"net/http"

	"github.com/frahmantamala/pos-helpdesk/internal/auth"
	"github.com/frahmantamala/pos-helpdesk/pkg/logger"
)

// UserContext adds the caller's role to the request logger. It must run
// after auth.Handler.AuthMiddleware; anonymous requests pass through.
func UserContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, ok := auth.PrincipalFromContext(r.Context())
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		ctx := logger.With(r.Context(), "rules_id", principal.RoleID, "is_admin", principal.IsAdmin())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
