package leave

import (
	"strings"
	"time"

	"github.com/frahmantamala/leave-management/internal/core/common/validation"
)

// ApplyLeaveDTO is the submission payload. Dates are YYYY-MM-DD in UTC.
type ApplyLeaveDTO struct {
	LeaveType string `json:"leave_type" validate:"required,oneof=casual medical"`
	FromDate  string `json:"from_date" validate:"required,calendar_date"`
	ToDate    string `json:"to_date" validate:"required,calendar_date"`
	Reason    string `json:"reason" validate:"required,min=10,max=500"`
}

func (dto *ApplyLeaveDTO) Normalize() {
	dto.LeaveType = strings.ToLower(strings.TrimSpace(dto.LeaveType))
	dto.FromDate = strings.TrimSpace(dto.FromDate)
	dto.ToDate = strings.TrimSpace(dto.ToDate)
	dto.Reason = strings.TrimSpace(dto.Reason)
}

type RequestResponse struct {
	ID         int64     `json:"id"`
	AccountID  int64     `json:"account_id"`
	LeaveType  Type      `json:"leave_type"`
	FromDate   string    `json:"from_date"`
	ToDate     string    `json:"to_date"`
	TotalDays  int       `json:"total_days"`
	Reason     string    `json:"reason"`
	Status     Status    `json:"status"`
	ApprovedBy *int64    `json:"approved_by,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func NewRequestResponse(r *Request) RequestResponse {
	return RequestResponse{
		ID:         r.ID,
		AccountID:  r.AccountID,
		LeaveType:  r.LeaveType,
		FromDate:   r.FromDate.Format(validation.DateLayout),
		ToDate:     r.ToDate.Format(validation.DateLayout),
		TotalDays:  r.TotalDays,
		Reason:     r.Reason,
		Status:     r.Status,
		ApprovedBy: r.ApprovedBy,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}

func NewRequestListResponse(requests []*Request) []RequestResponse {
	out := make([]RequestResponse, 0, len(requests))
	for _, r := range requests {
		out = append(out, NewRequestResponse(r))
	}
	return out
}

type BalanceResponse struct {
	AccountID            int64     `json:"account_id"`
	CasualLeaveBalance   string    `json:"casual_leave_balance"`
	MedicalLeaveBalance  int       `json:"medical_leave_balance"`
	LastMedicalAccrualAt time.Time `json:"last_medical_accrual_at"`
	LastCasualAccrualAt  time.Time `json:"last_casual_accrual_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

func NewBalanceResponse(b *Balance) BalanceResponse {
	return BalanceResponse{
		AccountID:            b.AccountID,
		CasualLeaveBalance:   b.CasualLeaveBalance.StringFixed(2),
		MedicalLeaveBalance:  b.MedicalLeaveBalance,
		LastMedicalAccrualAt: b.LastMedicalAccrualAt,
		LastCasualAccrualAt:  b.LastCasualAccrualAt,
		UpdatedAt:            b.UpdatedAt,
	}
}

type SyncReport struct {
	Synced int `json:"synced"`
	Failed int `json:"failed"`
}
