package account

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	apperrors "github.com/frahmantamala/leave-management/internal"
	"github.com/frahmantamala/leave-management/internal/auth"
	"github.com/frahmantamala/leave-management/internal/transport"
	"github.com/frahmantamala/leave-management/pkg/logger"
)

type ServiceAPI interface {
	GetByID(ctx context.Context, id int64) (*Account, error)
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

// GetCurrentAccount handles GET /accounts/me
func (h *Handler) GetCurrentAccount(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.WriteAppError(w, r, apperrors.NewUnauthorizedError("authentication required", apperrors.ErrCodeInvalidToken))
		return
	}

	a, err := h.Service.GetByID(r.Context(), user.ID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			h.WriteAppError(w, r, apperrors.NewNotFoundError("account not found", apperrors.ErrCodeAccountNotFound))
			return
		}
		h.WriteAppError(w, r, apperrors.NewInternalError("internal server error", err))
		return
	}

	h.WriteJSON(w, http.StatusOK, a)
}
