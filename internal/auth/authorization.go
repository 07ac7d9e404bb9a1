package auth

import (
	"log/slog"
	"net/http"

	apperrors "github.com/frahmantamala/leave-management/internal"
	"github.com/frahmantamala/leave-management/internal/transport"
)

// RBACAuthorization guards routes by the permissions of the user placed in
// the context by AuthMiddleware.
type RBACAuthorization struct {
	*transport.BaseHandler
	checker PermissionChecker
}

func NewRBACAuthorization(checker PermissionChecker, logger *slog.Logger) *RBACAuthorization {
	return &RBACAuthorization{
		BaseHandler: transport.NewBaseHandler(logger),
		checker:     checker,
	}
}

func (ra *RBACAuthorization) RequirePermission(permission string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFromContext(r.Context())
			if !ok {
				ra.WriteAppError(w, r, apperrors.NewUnauthorizedError("authentication required", apperrors.ErrCodeInvalidToken))
				return
			}

			if !ra.checker.HasPermission(user.Permissions, permission) {
				ra.Logger.WarnContext(r.Context(), "access denied: insufficient permissions",
					"user_id", user.ID,
					"required_permission", permission,
					"user_permissions", user.Permissions)
				ra.WriteAppError(w, r, apperrors.NewForbiddenError("insufficient permissions", apperrors.ErrCodeUnauthorizedAccess))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func (ra *RBACAuthorization) RequireAdmin() func(http.Handler) http.Handler {
	return ra.RequirePermission(PermissionAdmin)
}
