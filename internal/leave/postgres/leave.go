package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	leaveDatamodel "github.com/frahmantamala/leave-management/internal/core/datamodel/leave"
	"github.com/frahmantamala/leave-management/internal/leave"
)

// LeaveRepository implements leave.Repository using GORM
type LeaveRepository struct {
	db *gorm.DB
}

func NewLeaveRepository(db *gorm.DB) *LeaveRepository {
	return &LeaveRepository{db: db}
}

func (r *LeaveRepository) WithTx(ctx context.Context, fn func(tx leave.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&LeaveRepository{db: tx})
	})
}

func (r *LeaveRepository) GetBalanceForUpdate(ctx context.Context, accountID int64) (*leave.Balance, error) {
	var m leaveDatamodel.LeaveBalance
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("account_id = ?", accountID).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, leave.ErrBalanceNotFound
		}
		return nil, err
	}
	return leave.BalanceFromDataModel(&m), nil
}

func (r *LeaveRepository) UpsertBalance(ctx context.Context, b *leave.Balance) error {
	m := leave.BalanceToDataModel(b)
	m.ID = 0
	m.Version = b.Version + 1

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "account_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"casual_leave_balance":    m.CasualLeaveBalance,
			"medical_leave_balance":   m.MedicalLeaveBalance,
			"last_medical_accrual_at": m.LastMedicalAccrualAt,
			"last_casual_accrual_at":  m.LastCasualAccrualAt,
			"updated_at":              m.UpdatedAt,
			"version":                 gorm.Expr("leave_balances.version + 1"),
		}),
	}).Create(m).Error
	if err != nil {
		return err
	}

	if m.ID != 0 {
		b.ID = m.ID
	}
	b.Version = m.Version
	return nil
}

func (r *LeaveRepository) SumApprovedDays(ctx context.Context, accountID int64, leaveType leave.Type) (int, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&leaveDatamodel.LeaveRequest{}).
		Where("account_id = ? AND leave_type = ? AND status = ?", accountID, string(leaveType), string(leave.StatusApproved)).
		Select("COALESCE(SUM(total_days), 0)").
		Scan(&total).Error
	return int(total), err
}

func (r *LeaveRepository) CreateRequest(ctx context.Context, req *leave.Request) error {
	m := leave.RequestToDataModel(req)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	req.ID = m.ID
	return nil
}

func (r *LeaveRepository) GetRequestForUpdate(ctx context.Context, id int64) (*leave.Request, error) {
	var m leaveDatamodel.LeaveRequest
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, leave.ErrRequestNotFound
		}
		return nil, err
	}
	return leave.RequestFromDataModel(&m), nil
}

// TransitionRequest only updates rows that are still pending.
func (r *LeaveRepository) TransitionRequest(ctx context.Context, id int64, status leave.Status, approverID int64, at time.Time) error {
	db := r.db.WithContext(ctx)
	res := db.Model(&leaveDatamodel.LeaveRequest{}).
		Where("id = ? AND status = ?", id, string(leave.StatusPending)).
		Updates(map[string]interface{}{
			"status":      string(status),
			"approved_by": approverID,
			"updated_at":  at,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}

	var count int64
	if err := db.Model(&leaveDatamodel.LeaveRequest{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return leave.ErrRequestNotFound
	}
	return leave.ErrAlreadyProcessed
}

func (r *LeaveRepository) ListByAccount(ctx context.Context, accountID int64) ([]*leave.Request, error) {
	var rows []leaveDatamodel.LeaveRequest
	err := r.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return toRequests(rows), nil
}

func (r *LeaveRepository) ListByStatus(ctx context.Context, status leave.Status) ([]*leave.Request, error) {
	var rows []leaveDatamodel.LeaveRequest
	err := r.db.WithContext(ctx).
		Where("status = ?", string(status)).
		Order("created_at DESC").
		Order("id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return toRequests(rows), nil
}

func toRequests(rows []leaveDatamodel.LeaveRequest) []*leave.Request {
	out := make([]*leave.Request, 0, len(rows))
	for i := range rows {
		out = append(out, leave.RequestFromDataModel(&rows[i]))
	}
	return out
}
