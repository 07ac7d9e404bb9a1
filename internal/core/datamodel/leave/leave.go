package leave

import (
	"time"

	"github.com/shopspring/decimal"
)

type LeaveRequest struct {
	ID         int64     `gorm:"primaryKey"`
	AccountID  int64     `gorm:"column:account_id;not null;index:idx_leave_requests_account_created,priority:1"`
	LeaveType  string    `gorm:"column:leave_type;not null"`
	FromDate   time.Time `gorm:"column:from_date;type:date;not null"`
	ToDate     time.Time `gorm:"column:to_date;type:date;not null"`
	TotalDays  int       `gorm:"column:total_days;not null"`
	Reason     string    `gorm:"column:reason;not null"`
	Status     string    `gorm:"column:status;not null;index:idx_leave_requests_status_created,priority:1"`
	ApprovedBy *int64    `gorm:"column:approved_by"`
	CreatedAt  time.Time `gorm:"column:created_at;index:idx_leave_requests_account_created,priority:2;index:idx_leave_requests_status_created,priority:2"`
	UpdatedAt  time.Time `gorm:"column:updated_at"`
}

func (LeaveRequest) TableName() string {
	return "leave_requests"
}

type LeaveBalance struct {
	ID                   int64           `gorm:"primaryKey"`
	AccountID            int64           `gorm:"column:account_id;uniqueIndex;not null"`
	CasualLeaveBalance   decimal.Decimal `gorm:"column:casual_leave_balance;type:numeric(10,2);not null"`
	MedicalLeaveBalance  int             `gorm:"column:medical_leave_balance;not null"`
	LastMedicalAccrualAt time.Time       `gorm:"column:last_medical_accrual_at;not null"`
	LastCasualAccrualAt  time.Time       `gorm:"column:last_casual_accrual_at;not null"`
	Version              int64           `gorm:"column:version;not null"`
	CreatedAt            time.Time       `gorm:"column:created_at"`
	UpdatedAt            time.Time       `gorm:"column:updated_at"`
}

func (LeaveBalance) TableName() string {
	return "leave_balances"
}
