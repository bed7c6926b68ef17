package auth

import (
	"log/slog"
	"net/http"

	errors "github.com/frahmantamala/pos-helpdesk/internal"
	"github.com/frahmantamala/pos-helpdesk/internal/permission"
	"github.com/frahmantamala/pos-helpdesk/internal/transport"
)

// RBACAuthorization turns resolved permissions into route guards. It must
// run after AuthMiddleware.
type RBACAuthorization struct {
	*transport.BaseHandler
}

func NewRBACAuthorization(logger *slog.Logger) *RBACAuthorization {
	return &RBACAuthorization{BaseHandler: transport.NewBaseHandler(logger)}
}

// Require allows the request only when the principal may perform action on
// resource. Denials carry the user facing placeholder text.
func (ra *RBACAuthorization) Require(resource permission.Resource, action permission.Action) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := PrincipalFromContext(r.Context())
			if !ok {
				ra.HandleServiceError(w, errors.ErrMissingToken)
				return
			}

			if !principal.Can(resource, action) {
				ra.Logger.WarnContext(r.Context(), "access denied: insufficient permissions",
					"user_id", principal.ID,
					"rules_id", principal.RoleID,
					"resource", resource,
					"action", action)
				ra.HandleServiceError(w, errors.NewPermissionDeniedError(
					permission.DeniedMessage(resource, action), errors.ErrCodePermissionDenied,
				).WithDetails(map[string]string{"resource": string(resource), "action": string(action)}))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func (ra *RBACAuthorization) RequireAdmin() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := PrincipalFromContext(r.Context())
			if !ok {
				ra.HandleServiceError(w, errors.ErrMissingToken)
				return
			}

			if !principal.IsAdmin() {
				ra.Logger.WarnContext(r.Context(), "access denied: admin required", "user_id", principal.ID, "rules_id", principal.RoleID)
				ra.HandleServiceError(w, errors.ErrAdminRequired)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
