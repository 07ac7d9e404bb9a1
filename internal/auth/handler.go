package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	apperrors "github.com/frahmantamala/leave-management/internal"
	"github.com/frahmantamala/leave-management/internal/transport"
	"github.com/frahmantamala/leave-management/pkg/logger"
)

type ServiceAPI interface {
	Authenticate(ctx context.Context, dto LoginDTO) (AuthTokens, error)
	RefreshTokens(ctx context.Context, refreshToken string) (AuthTokens, error)
	ValidateAccessToken(tokenString string) (*Claims, error)
	GetUserWithPermissions(ctx context.Context, userID int64) (*User, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(svc ServiceAPI) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     svc,
	}
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var dto LoginDTO
	if appErr := h.DecodeJSON(r, &dto); appErr != nil {
		h.WriteAppError(w, r, appErr)
		return
	}

	tokens, err := h.Service.Authenticate(r.Context(), dto)
	if err != nil {
		h.WriteAppError(w, r, toAppError(err))
		return
	}

	h.WriteJSON(w, http.StatusOK, tokens)
}

func (h *Handler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var dto RefreshTokenDTO
	if appErr := h.DecodeJSON(r, &dto); appErr != nil {
		h.WriteAppError(w, r, appErr)
		return
	}

	if appErr := dto.Validate(); appErr != nil {
		h.WriteAppError(w, r, appErr)
		return
	}

	tokens, err := h.Service.RefreshTokens(r.Context(), dto.RefreshToken)
	if err != nil {
		h.WriteAppError(w, r, toAppError(err))
		return
	}

	h.WriteJSON(w, http.StatusOK, tokens)
}

// Logout only checks the access token; tokens are stateless and expire on their own.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	token := h.ExtractTokenFromHeader(r)
	if token == "" {
		h.WriteAppError(w, r, apperrors.NewUnauthorizedError("missing authorization token", apperrors.ErrCodeInvalidToken))
		return
	}

	if _, err := h.Service.ValidateAccessToken(token); err != nil {
		h.WriteAppError(w, r, toAppError(err))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// AuthMiddleware resolves the bearer token into a *User with permissions and
// stores it in the request context.
func (h *Handler) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := h.ExtractTokenFromHeader(r)
		if token == "" {
			h.WriteAppError(w, r, apperrors.NewUnauthorizedError("missing authorization token", apperrors.ErrCodeInvalidToken))
			return
		}

		claims, err := h.Service.ValidateAccessToken(token)
		if err != nil {
			h.WriteAppError(w, r, toAppError(err))
			return
		}

		uid, err := strconv.ParseInt(claims.UserID, 10, 64)
		if err != nil || uid <= 0 {
			h.Logger.Warn("auth middleware: malformed subject in token", "value", claims.UserID)
			h.WriteAppError(w, r, apperrors.NewUnauthorizedError("invalid token", apperrors.ErrCodeInvalidToken))
			return
		}

		user, err := h.Service.GetUserWithPermissions(r.Context(), uid)
		if err != nil {
			h.WriteAppError(w, r, toAppError(err))
			return
		}

		ctx := WithUser(r.Context(), user)
		ctx = logger.With(ctx, "account_id", user.ID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func toAppError(err error) *apperrors.AppError {
	if appErr, ok := apperrors.IsAppError(err); ok {
		return appErr
	}

	switch {
	case errors.Is(err, ErrInvalidCredentials):
		return apperrors.NewUnauthorizedError("invalid credentials", apperrors.ErrCodeInvalidCredentials)
	case errors.Is(err, ErrUserInactive), errors.Is(err, ErrUserNotFound):
		return apperrors.NewUnauthorizedError("user is inactive", apperrors.ErrCodeUserInactive)
	case errors.Is(err, ErrTokenExpired):
		return apperrors.NewUnauthorizedError("token expired", apperrors.ErrCodeTokenExpired)
	case errors.Is(err, ErrInvalidToken):
		return apperrors.NewUnauthorizedError("invalid token", apperrors.ErrCodeInvalidToken)
	default:
		return apperrors.NewInternalError("internal server error", err)
	}
}
