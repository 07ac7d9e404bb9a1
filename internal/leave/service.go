package leave

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	apperrors "github.com/frahmantamala/leave-management/internal"
	"github.com/frahmantamala/leave-management/internal/auth"
	"github.com/frahmantamala/leave-management/internal/core/common/validation"
	"github.com/frahmantamala/leave-management/internal/core/events"
)

// Repository is the relational store of balances and requests. Methods on
// the Repository handed to WithTx run inside that transaction.
type Repository interface {
	WithTx(ctx context.Context, fn func(tx Repository) error) error

	// GetBalanceForUpdate locks and returns the balance row of accountID,
	// or ErrBalanceNotFound.
	GetBalanceForUpdate(ctx context.Context, accountID int64) (*Balance, error)
	// UpsertBalance inserts or replaces the balance keyed by account id and
	// increments its version.
	UpsertBalance(ctx context.Context, balance *Balance) error
	SumApprovedDays(ctx context.Context, accountID int64, leaveType Type) (int, error)

	CreateRequest(ctx context.Context, request *Request) error
	// GetRequestForUpdate locks and returns a request, or ErrRequestNotFound.
	GetRequestForUpdate(ctx context.Context, id int64) (*Request, error)
	// TransitionRequest moves a pending request to status. It returns
	// ErrAlreadyProcessed when the request is no longer pending.
	TransitionRequest(ctx context.Context, id int64, status Status, approverID int64, at time.Time) error
	ListByAccount(ctx context.Context, accountID int64) ([]*Request, error)
	ListByStatus(ctx context.Context, status Status) ([]*Request, error)
}

// AccountDirectory resolves the creation time of an account. Unknown
// accounts yield an error wrapping internal.ErrRecordNotFound.
type AccountDirectory interface {
	GetCreatedAt(ctx context.Context, accountID int64) (time.Time, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

// ViewCache holds rendered history and pending lists between mutations.
type ViewCache interface {
	GetHistory(ctx context.Context, accountID int64) ([]*Request, bool, error)
	SetHistory(ctx context.Context, accountID int64, requests []*Request) error
	GetPending(ctx context.Context) ([]*Request, bool, error)
	SetPending(ctx context.Context, requests []*Request) error
	Invalidate(ctx context.Context, accountID int64) error
}

type Clock func() time.Time

type Option func(*Service)

func WithClock(clock Clock) Option {
	return func(s *Service) {
		if clock != nil {
			s.now = clock
		}
	}
}

func WithViewCache(cache ViewCache) Option {
	return func(s *Service) {
		s.cache = cache
	}
}

type Service struct {
	repo      Repository
	accounts  AccountDirectory
	publisher EventPublisher
	cache     ViewCache
	now       Clock
	logger    *slog.Logger
	loads     singleflight.Group

	// mutations counts committed changes announced through publish.
	mutations atomic.Uint64
}

func NewService(repo Repository, accounts AccountDirectory, publisher EventPublisher, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		repo:      repo,
		accounts:  accounts,
		publisher: publisher,
		now:       func() time.Time { return time.Now().UTC() },
		logger:    logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetLeaveBalance synchronizes and returns the balance of accountID.
// A zero accountID means the caller's own account.
func (s *Service) GetLeaveBalance(ctx context.Context, actor auth.AuthContext, accountID int64) (*Balance, error) {
	accountID, err := s.resolveAccount(actor, accountID)
	if err != nil {
		return nil, err
	}

	var balance *Balance
	err = s.repo.WithTx(ctx, func(tx Repository) error {
		b, err := s.synchronize(ctx, tx, accountID, s.now())
		if err != nil {
			return err
		}
		if err := tx.UpsertBalance(ctx, b); err != nil {
			return storeFailure("upsert balance", err)
		}
		balance = b
		return nil
	})
	if err != nil {
		return nil, s.fail("get leave balance", err, "account_id", accountID)
	}
	return balance, nil
}

// GetLeaveHistory returns the requests of accountID, newest first.
func (s *Service) GetLeaveHistory(ctx context.Context, actor auth.AuthContext, accountID int64) ([]*Request, error) {
	accountID, err := s.resolveAccount(actor, accountID)
	if err != nil {
		return nil, err
	}
	if accountID != actor.AccountID {
		if _, err := s.createdAt(ctx, accountID); err != nil {
			return nil, s.fail("get leave history", err, "account_id", accountID)
		}
	}

	key := fmt.Sprintf("history:%d", accountID)
	requests, err := s.cachedList(ctx, key, accountID,
		func(ctx context.Context) ([]*Request, bool, error) { return s.cache.GetHistory(ctx, accountID) },
		func(ctx context.Context) ([]*Request, error) {
			list, err := s.repo.ListByAccount(ctx, accountID)
			return list, storeFailure("list leave history", err)
		},
		func(ctx context.Context, list []*Request) error { return s.cache.SetHistory(ctx, accountID, list) },
	)
	if err != nil {
		return nil, s.fail("get leave history", err, "account_id", accountID)
	}
	return requests, nil
}

// ApplyLeave records a pending request after checking the requester's
// current balance. Nothing is deducted until approval.
func (s *Service) ApplyLeave(ctx context.Context, actor auth.AuthContext, dto ApplyLeaveDTO) (*Request, error) {
	if actor.AccountID <= 0 {
		return nil, ErrUnauthorized
	}

	dto.Normalize()
	if appErr := validation.Struct(&dto); appErr != nil {
		return nil, appErr
	}

	from, err := validation.ParseDate(dto.FromDate)
	if err != nil {
		return nil, apperrors.NewValidationFieldError("from_date", "from_date must be a date in YYYY-MM-DD format", apperrors.ErrCodeInvalidDate)
	}
	to, err := validation.ParseDate(dto.ToDate)
	if err != nil {
		return nil, apperrors.NewValidationFieldError("to_date", "to_date must be a date in YYYY-MM-DD format", apperrors.ErrCodeInvalidDate)
	}
	if from.After(to) {
		return nil, ErrInvalidDateRange
	}

	days := CountWorkingDays(from, to)
	if days == 0 {
		return nil, ErrEmptyRange
	}

	leaveType := Type(dto.LeaveType)
	now := s.now()
	request := &Request{
		AccountID: actor.AccountID,
		LeaveType: leaveType,
		FromDate:  from,
		ToDate:    to,
		TotalDays: days,
		Reason:    dto.Reason,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = s.repo.WithTx(ctx, func(tx Repository) error {
		balance, err := s.synchronize(ctx, tx, actor.AccountID, now)
		if err != nil {
			return err
		}
		if !balance.Covers(leaveType, days) {
			return &InsufficientBalanceError{LeaveType: leaveType, Available: balance.Available(leaveType), Requested: days}
		}
		if err := tx.UpsertBalance(ctx, balance); err != nil {
			return storeFailure("upsert balance", err)
		}
		return storeFailure("create leave request", tx.CreateRequest(ctx, request))
	})
	if err != nil {
		return nil, s.fail("apply leave", err, "account_id", actor.AccountID, "leave_type", leaveType, "days", days)
	}

	s.logger.Info("leave request submitted",
		"request_id", request.ID,
		"account_id", request.AccountID,
		"leave_type", request.LeaveType,
		"days", request.TotalDays)
	s.publish(ctx, events.NewLeaveEvent(events.EventTypeLeaveSubmitted, request.ID, request.AccountID, actor.AccountID, string(leaveType), days))

	return request, nil
}

// ApproveLeave approves a pending request and deducts its days in the same
// transaction. On insufficient balance the request stays pending.
func (s *Service) ApproveLeave(ctx context.Context, actor auth.AuthContext, requestID int64) (*Request, error) {
	if err := requireApprover(actor); err != nil {
		return nil, err
	}

	var request *Request
	err := s.repo.WithTx(ctx, func(tx Repository) error {
		r, err := tx.GetRequestForUpdate(ctx, requestID)
		if err != nil {
			return storeFailure("get leave request", err)
		}
		if !r.IsPending() {
			return ErrAlreadyProcessed
		}

		now := s.now()
		balance, err := s.synchronize(ctx, tx, r.AccountID, now)
		if err != nil {
			return err
		}
		if !balance.Covers(r.LeaveType, r.TotalDays) {
			return &InsufficientBalanceError{LeaveType: r.LeaveType, Available: balance.Available(r.LeaveType), Requested: r.TotalDays}
		}

		if err := tx.TransitionRequest(ctx, r.ID, StatusApproved, actor.AccountID, now); err != nil {
			return storeFailure("approve leave request", err)
		}
		balance.Deduct(r.LeaveType, r.TotalDays)
		balance.UpdatedAt = now
		if err := tx.UpsertBalance(ctx, balance); err != nil {
			return storeFailure("upsert balance", err)
		}

		r.Status = StatusApproved
		r.ApprovedBy = &actor.AccountID
		r.UpdatedAt = now
		request = r
		return nil
	})
	if err != nil {
		return nil, s.fail("approve leave", err, "request_id", requestID, "approver_id", actor.AccountID)
	}

	s.logger.Info("leave request approved",
		"request_id", request.ID,
		"account_id", request.AccountID,
		"approver_id", actor.AccountID,
		"days", request.TotalDays)
	s.publish(ctx, events.NewLeaveEvent(events.EventTypeLeaveApproved, request.ID, request.AccountID, actor.AccountID, string(request.LeaveType), request.TotalDays))

	return request, nil
}

// RejectLeave rejects a pending request. Balances are not touched.
func (s *Service) RejectLeave(ctx context.Context, actor auth.AuthContext, requestID int64) (*Request, error) {
	if err := requireApprover(actor); err != nil {
		return nil, err
	}

	var request *Request
	err := s.repo.WithTx(ctx, func(tx Repository) error {
		r, err := tx.GetRequestForUpdate(ctx, requestID)
		if err != nil {
			return storeFailure("get leave request", err)
		}
		if !r.IsPending() {
			return ErrAlreadyProcessed
		}

		now := s.now()
		if err := tx.TransitionRequest(ctx, r.ID, StatusRejected, actor.AccountID, now); err != nil {
			return storeFailure("reject leave request", err)
		}

		r.Status = StatusRejected
		r.ApprovedBy = &actor.AccountID
		r.UpdatedAt = now
		request = r
		return nil
	})
	if err != nil {
		return nil, s.fail("reject leave", err, "request_id", requestID, "approver_id", actor.AccountID)
	}

	s.logger.Info("leave request rejected",
		"request_id", request.ID,
		"account_id", request.AccountID,
		"approver_id", actor.AccountID)
	s.publish(ctx, events.NewLeaveEvent(events.EventTypeLeaveRejected, request.ID, request.AccountID, actor.AccountID, string(request.LeaveType), request.TotalDays))

	return request, nil
}

// GetPendingLeaveRequests lists every pending request, newest first.
func (s *Service) GetPendingLeaveRequests(ctx context.Context, actor auth.AuthContext) ([]*Request, error) {
	if !actor.IsAdmin() {
		return nil, ErrUnauthorized
	}

	requests, err := s.cachedList(ctx, "pending", 0,
		func(ctx context.Context) ([]*Request, bool, error) { return s.cache.GetPending(ctx) },
		func(ctx context.Context) ([]*Request, error) {
			list, err := s.repo.ListByStatus(ctx, StatusPending)
			return list, storeFailure("list pending requests", err)
		},
		func(ctx context.Context, list []*Request) error { return s.cache.SetPending(ctx, list) },
	)
	if err != nil {
		return nil, s.fail("get pending leave requests", err)
	}
	return requests, nil
}

// RecalculateAccountCasualBalance recomputes and persists the casual balance
// of accountID. Medical accrual is left to the regular synchronization.
func (s *Service) RecalculateAccountCasualBalance(ctx context.Context, actor auth.AuthContext, accountID int64) (*Balance, error) {
	if !actor.IsAdmin() {
		return nil, ErrUnauthorized
	}

	var balance *Balance
	err := s.repo.WithTx(ctx, func(tx Repository) error {
		b, err := s.recomputeCasual(ctx, tx, accountID, s.now())
		if err != nil {
			return err
		}
		if err := tx.UpsertBalance(ctx, b); err != nil {
			return storeFailure("upsert balance", err)
		}
		balance = b
		return nil
	})
	if err != nil {
		return nil, s.fail("recalculate casual balance", err, "account_id", accountID)
	}

	s.logger.Info("casual balance recalculated",
		"account_id", accountID,
		"casual_leave_balance", balance.CasualLeaveBalance.StringFixed(2),
		"actor_id", actor.AccountID)
	s.publish(ctx, events.NewBalanceRecalculatedEvent(accountID, actor.AccountID))

	return balance, nil
}

// SyncBalances synchronizes the balances of accountIDs with at most
// concurrency transactions in flight. Per-account failures are counted and
// logged; only cancellation of ctx aborts the batch.
func (s *Service) SyncBalances(ctx context.Context, actor auth.AuthContext, accountIDs []int64, concurrency int) (SyncReport, error) {
	if !actor.IsAdmin() {
		return SyncReport{}, ErrUnauthorized
	}
	if concurrency < 1 {
		concurrency = 1
	}

	var synced, failed int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for _, id := range accountIDs {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			err := s.repo.WithTx(gctx, func(tx Repository) error {
				b, err := s.synchronize(gctx, tx, id, s.now())
				if err != nil {
					return err
				}
				return storeFailure("upsert balance", tx.UpsertBalance(gctx, b))
			})
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				atomic.AddInt64(&failed, 1)
				s.logger.Error("balance sync failed", "account_id", id, "error", err)
				return nil
			}
			atomic.AddInt64(&synced, 1)
			return nil
		})
	}

	err := g.Wait()
	report := SyncReport{Synced: int(synced), Failed: int(failed)}
	s.logger.Info("balance sync finished", "synced", report.Synced, "failed", report.Failed)
	if err != nil {
		return report, err
	}
	return report, ctx.Err()
}

// synchronize brings the balance of accountID up to date at now: the casual
// balance is recomputed from tenure and approved usage, and due medical
// accrual is applied. A missing row starts from NewBalance. The caller
// persists the result.
func (s *Service) synchronize(ctx context.Context, tx Repository, accountID int64, now time.Time) (*Balance, error) {
	balance, err := s.recomputeCasual(ctx, tx, accountID, now)
	if err != nil {
		return nil, err
	}

	if added := ApplyMedicalAccrual(balance, now); added > 0 {
		s.logger.Info("medical leave accrued",
			"account_id", accountID,
			"days_added", added,
			"medical_leave_balance", balance.MedicalLeaveBalance)
	}
	return balance, nil
}

func (s *Service) recomputeCasual(ctx context.Context, tx Repository, accountID int64, now time.Time) (*Balance, error) {
	createdAt, err := s.createdAt(ctx, accountID)
	if err != nil {
		return nil, err
	}

	balance, err := tx.GetBalanceForUpdate(ctx, accountID)
	switch {
	case errors.Is(err, ErrBalanceNotFound):
		balance = NewBalance(accountID, now)
	case err != nil:
		return nil, storeFailure("get balance", err)
	}

	used, err := tx.SumApprovedDays(ctx, accountID, TypeCasual)
	if err != nil {
		return nil, storeFailure("sum approved days", err)
	}

	balance.CasualLeaveBalance = ComputeCasualLeaveBalance(createdAt, now, used)
	balance.LastCasualAccrualAt = now
	balance.UpdatedAt = now
	return balance, nil
}

func (s *Service) createdAt(ctx context.Context, accountID int64) (time.Time, error) {
	createdAt, err := s.accounts.GetCreatedAt(ctx, accountID)
	if err != nil {
		if errors.Is(err, apperrors.ErrRecordNotFound) || errors.Is(err, ErrNotFound) {
			return time.Time{}, ErrAccountNotFound
		}
		return time.Time{}, storeFailure("get account", err)
	}
	return createdAt, nil
}

// cachedList serves a view through the cache. A fill that raced a committed
// mutation is dropped again, since its list may predate the mutation.
func (s *Service) cachedList(
	ctx context.Context,
	key string,
	accountID int64,
	get func(context.Context) ([]*Request, bool, error),
	load func(context.Context) ([]*Request, error),
	set func(context.Context, []*Request) error,
) ([]*Request, error) {
	if s.cache == nil {
		return load(ctx)
	}

	if list, ok, err := get(ctx); err != nil {
		s.logger.Warn("view cache read failed", "key", key, "error", err)
	} else if ok {
		return list, nil
	}

	v, err, _ := s.loads.Do(key, func() (interface{}, error) {
		generation := s.mutations.Load()
		list, err := load(ctx)
		if err != nil {
			return nil, err
		}
		if err := set(ctx, list); err != nil {
			s.logger.Warn("view cache write failed", "key", key, "error", err)
		}
		if s.mutations.Load() != generation {
			if err := s.cache.Invalidate(ctx, accountID); err != nil {
				s.logger.Warn("view cache invalidation failed", "key", key, "error", err)
			}
		}
		return list, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]*Request), nil
}

func (s *Service) resolveAccount(actor auth.AuthContext, accountID int64) (int64, error) {
	if !actor.Authenticated() {
		return 0, ErrUnauthorized
	}
	if accountID == 0 {
		accountID = actor.AccountID
	}
	if accountID <= 0 {
		return 0, ErrAccountNotFound
	}
	if accountID != actor.AccountID && !actor.IsAdmin() {
		return 0, ErrUnauthorized
	}
	return accountID, nil
}

func requireApprover(actor auth.AuthContext) error {
	if actor.AccountID <= 0 || !actor.IsAdmin() {
		return ErrUnauthorized
	}
	return nil
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	s.mutations.Add(1)
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish leave event",
			"event_type", event.EventType(),
			"event_id", event.EventID(),
			"error", err)
	}
}

func (s *Service) fail(op string, err error, attrs ...any) error {
	attrs = append(attrs, "error", err)
	var appErr *apperrors.AppError
	switch {
	case errors.Is(err, ErrStoreFailure):
		s.logger.Error(op+" failed", attrs...)
	case errors.As(err, &appErr) && appErr.StatusCode >= 500:
		s.logger.Error(op+" failed", attrs...)
	default:
		s.logger.Warn(op+" refused", attrs...)
	}
	return err
}
