package leave

import (
	"time"

	"github.com/shopspring/decimal"

	leaveDatamodel "github.com/frahmantamala/leave-management/internal/core/datamodel/leave"
)

type Type string

const (
	TypeCasual  Type = "casual"
	TypeMedical Type = "medical"
)

func (t Type) Valid() bool {
	return t == TypeCasual || t == TypeMedical
}

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Request is a single leave submission. It leaves StatusPending exactly once.
type Request struct {
	ID         int64     `json:"id"`
	AccountID  int64     `json:"account_id"`
	LeaveType  Type      `json:"leave_type"`
	FromDate   time.Time `json:"from_date"`
	ToDate     time.Time `json:"to_date"`
	TotalDays  int       `json:"total_days"`
	Reason     string    `json:"reason"`
	Status     Status    `json:"status"`
	ApprovedBy *int64    `json:"approved_by,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (r *Request) IsPending() bool {
	return r.Status == StatusPending
}

// Balance is the last synchronized snapshot of an account's entitlement.
// CasualLeaveBalance is recomputed from the accrual rule on every sync.
type Balance struct {
	ID                   int64           `json:"-"`
	AccountID            int64           `json:"account_id"`
	CasualLeaveBalance   decimal.Decimal `json:"casual_leave_balance"`
	MedicalLeaveBalance  int             `json:"medical_leave_balance"`
	LastMedicalAccrualAt time.Time       `json:"last_medical_accrual_at"`
	LastCasualAccrualAt  time.Time       `json:"last_casual_accrual_at"`
	Version              int64           `json:"version"`
	UpdatedAt            time.Time       `json:"updated_at"`
}

// NewBalance returns the initial balance of an account seen for the first time.
// The zero casual balance is overwritten by recomputation before the row is stored.
func NewBalance(accountID int64, now time.Time) *Balance {
	return &Balance{
		AccountID:            accountID,
		CasualLeaveBalance:   decimal.Zero,
		MedicalLeaveBalance:  InitialMedicalBalance,
		LastMedicalAccrualAt: now,
		LastCasualAccrualAt:  now,
		UpdatedAt:            now,
	}
}

func (b *Balance) Available(t Type) decimal.Decimal {
	if t == TypeMedical {
		return decimal.NewFromInt(int64(b.MedicalLeaveBalance))
	}
	return b.CasualLeaveBalance
}

func (b *Balance) Covers(t Type, days int) bool {
	return b.Available(t).GreaterThanOrEqual(decimal.NewFromInt(int64(days)))
}

// Deduct subtracts days from the balance of the given type. The medical
// balance is plain integer arithmetic and is not clamped.
func (b *Balance) Deduct(t Type, days int) {
	if t == TypeMedical {
		b.MedicalLeaveBalance -= days
		return
	}
	b.CasualLeaveBalance = b.CasualLeaveBalance.Sub(decimal.NewFromInt(int64(days))).Round(2)
}

func RequestToDataModel(r *Request) *leaveDatamodel.LeaveRequest {
	return &leaveDatamodel.LeaveRequest{
		ID:         r.ID,
		AccountID:  r.AccountID,
		LeaveType:  string(r.LeaveType),
		FromDate:   r.FromDate,
		ToDate:     r.ToDate,
		TotalDays:  r.TotalDays,
		Reason:     r.Reason,
		Status:     string(r.Status),
		ApprovedBy: r.ApprovedBy,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}

func RequestFromDataModel(m *leaveDatamodel.LeaveRequest) *Request {
	return &Request{
		ID:         m.ID,
		AccountID:  m.AccountID,
		LeaveType:  Type(m.LeaveType),
		FromDate:   calendarDate(m.FromDate),
		ToDate:     calendarDate(m.ToDate),
		TotalDays:  m.TotalDays,
		Reason:     m.Reason,
		Status:     Status(m.Status),
		ApprovedBy: m.ApprovedBy,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}

func BalanceToDataModel(b *Balance) *leaveDatamodel.LeaveBalance {
	return &leaveDatamodel.LeaveBalance{
		ID:                   b.ID,
		AccountID:            b.AccountID,
		CasualLeaveBalance:   b.CasualLeaveBalance,
		MedicalLeaveBalance:  b.MedicalLeaveBalance,
		LastMedicalAccrualAt: b.LastMedicalAccrualAt,
		LastCasualAccrualAt:  b.LastCasualAccrualAt,
		Version:              b.Version,
		UpdatedAt:            b.UpdatedAt,
	}
}

func BalanceFromDataModel(m *leaveDatamodel.LeaveBalance) *Balance {
	return &Balance{
		ID:                   m.ID,
		AccountID:            m.AccountID,
		CasualLeaveBalance:   m.CasualLeaveBalance,
		MedicalLeaveBalance:  m.MedicalLeaveBalance,
		LastMedicalAccrualAt: m.LastMedicalAccrualAt,
		LastCasualAccrualAt:  m.LastCasualAccrualAt,
		Version:              m.Version,
		UpdatedAt:            m.UpdatedAt,
	}
}
