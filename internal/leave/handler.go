package leave

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"

	apperrors "github.com/frahmantamala/leave-management/internal"
	"github.com/frahmantamala/leave-management/internal/auth"
	"github.com/frahmantamala/leave-management/internal/transport"
	"github.com/frahmantamala/leave-management/pkg/logger"
)

type ServiceAPI interface {
	GetLeaveBalance(ctx context.Context, actor auth.AuthContext, accountID int64) (*Balance, error)
	GetLeaveHistory(ctx context.Context, actor auth.AuthContext, accountID int64) ([]*Request, error)
	ApplyLeave(ctx context.Context, actor auth.AuthContext, dto ApplyLeaveDTO) (*Request, error)
	ApproveLeave(ctx context.Context, actor auth.AuthContext, requestID int64) (*Request, error)
	RejectLeave(ctx context.Context, actor auth.AuthContext, requestID int64) (*Request, error)
	GetPendingLeaveRequests(ctx context.Context, actor auth.AuthContext) ([]*Request, error)
	RecalculateAccountCasualBalance(ctx context.Context, actor auth.AuthContext, accountID int64) (*Balance, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(service ServiceAPI) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     service,
	}
}

// GetMyBalance handles GET /leaves/balance
func (h *Handler) GetMyBalance(w http.ResponseWriter, r *http.Request) {
	h.writeBalance(w, r, 0)
}

// GetAccountBalance handles GET /accounts/{id}/leave-balance
func (h *Handler) GetAccountBalance(w http.ResponseWriter, r *http.Request) {
	accountID, ok := h.pathID(w, r)
	if !ok {
		return
	}
	h.writeBalance(w, r, accountID)
}

func (h *Handler) writeBalance(w http.ResponseWriter, r *http.Request, accountID int64) {
	balance, err := h.Service.GetLeaveBalance(r.Context(), auth.AuthContextFrom(r.Context()), accountID)
	if err != nil {
		h.WriteAppError(w, r, ToAppError(err))
		return
	}
	h.WriteJSON(w, http.StatusOK, NewBalanceResponse(balance))
}

// GetHistory handles GET /leaves
func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	var accountID int64
	if raw := r.URL.Query().Get("account_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			h.WriteAppError(w, r, apperrors.NewValidationFieldError("account_id", "account_id must be a positive integer", apperrors.ErrCodeInvalidID))
			return
		}
		accountID = id
	}

	requests, err := h.Service.GetLeaveHistory(r.Context(), auth.AuthContextFrom(r.Context()), accountID)
	if err != nil {
		h.WriteAppError(w, r, ToAppError(err))
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"leave_requests": NewRequestListResponse(requests),
		"total":          len(requests),
	})
}

// Apply handles POST /leaves
func (h *Handler) Apply(w http.ResponseWriter, r *http.Request) {
	var dto ApplyLeaveDTO
	if appErr := h.DecodeJSON(r, &dto); appErr != nil {
		h.WriteAppError(w, r, appErr)
		return
	}

	request, err := h.Service.ApplyLeave(r.Context(), auth.AuthContextFrom(r.Context()), dto)
	if err != nil {
		h.WriteAppError(w, r, ToAppError(err))
		return
	}

	h.WriteJSON(w, http.StatusCreated, NewRequestResponse(request))
}

// Approve handles PATCH /leaves/{id}/approve
func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.Service.ApproveLeave)
}

// Reject handles PATCH /leaves/{id}/reject
func (h *Handler) Reject(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.Service.RejectLeave)
}

func (h *Handler) decide(w http.ResponseWriter, r *http.Request, op func(context.Context, auth.AuthContext, int64) (*Request, error)) {
	requestID, ok := h.pathID(w, r)
	if !ok {
		return
	}

	request, err := op(r.Context(), auth.AuthContextFrom(r.Context()), requestID)
	if err != nil {
		h.WriteAppError(w, r, ToAppError(err))
		return
	}

	h.WriteJSON(w, http.StatusOK, NewRequestResponse(request))
}

// GetPending handles GET /leaves/pending
func (h *Handler) GetPending(w http.ResponseWriter, r *http.Request) {
	requests, err := h.Service.GetPendingLeaveRequests(r.Context(), auth.AuthContextFrom(r.Context()))
	if err != nil {
		h.WriteAppError(w, r, ToAppError(err))
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"leave_requests": NewRequestListResponse(requests),
		"total":          len(requests),
	})
}

// Recalculate handles POST /accounts/{id}/leave-balance/recalculate
func (h *Handler) Recalculate(w http.ResponseWriter, r *http.Request) {
	accountID, ok := h.pathID(w, r)
	if !ok {
		return
	}

	balance, err := h.Service.RecalculateAccountCasualBalance(r.Context(), auth.AuthContextFrom(r.Context()), accountID)
	if err != nil {
		h.WriteAppError(w, r, ToAppError(err))
		return
	}

	h.WriteJSON(w, http.StatusOK, NewBalanceResponse(balance))
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		h.WriteAppError(w, r, apperrors.NewValidationFieldError("id", "id must be a positive integer", apperrors.ErrCodeInvalidID))
		return 0, false
	}
	return id, true
}
