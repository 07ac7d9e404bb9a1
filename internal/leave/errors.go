package leave

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	apperrors "github.com/frahmantamala/leave-management/internal"
)

var (
	ErrUnauthorized        = errors.New("unauthorized")
	ErrNotFound            = errors.New("not found")
	ErrInvalidDateRange    = errors.New("from_date must not be after to_date")
	ErrEmptyRange          = errors.New("date range contains no working days")
	ErrInsufficientBalance = errors.New("insufficient leave balance")
	ErrAlreadyProcessed    = errors.New("leave request already processed")
	ErrStoreFailure        = errors.New("store failure")
)

var (
	ErrRequestNotFound = fmt.Errorf("leave request %w", ErrNotFound)
	ErrAccountNotFound = fmt.Errorf("account %w", ErrNotFound)
	ErrBalanceNotFound = fmt.Errorf("leave balance %w", ErrNotFound)
)

// InsufficientBalanceError reports the available and requested amounts.
// It matches ErrInsufficientBalance.
type InsufficientBalanceError struct {
	LeaveType Type
	Available decimal.Decimal
	Requested int
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient %s leave balance: available %s, requested %d",
		e.LeaveType, e.Available.StringFixed(2), e.Requested)
}

func (e *InsufficientBalanceError) Is(target error) bool {
	return target == ErrInsufficientBalance
}

// StoreError wraps a persistence failure. It matches ErrStoreFailure and
// unwraps to the underlying cause.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrStoreFailure, e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func (e *StoreError) Is(target error) bool {
	return target == ErrStoreFailure
}

// storeFailure wraps err as a StoreError unless it already carries a domain kind.
func storeFailure(op string, err error) error {
	if err == nil {
		return nil
	}
	for _, kind := range []error{ErrNotFound, ErrAlreadyProcessed, ErrInsufficientBalance, ErrStoreFailure} {
		if errors.Is(err, kind) {
			return err
		}
	}
	return &StoreError{Op: op, Err: err}
}

// ToAppError maps a domain error onto the shared HTTP error taxonomy.
func ToAppError(err error) *apperrors.AppError {
	if appErr, ok := apperrors.IsAppError(err); ok {
		return appErr
	}

	var insufficient *InsufficientBalanceError
	switch {
	case errors.Is(err, ErrUnauthorized):
		return apperrors.NewForbiddenError("you are not allowed to perform this action", apperrors.ErrCodeUnauthorizedAccess)
	case errors.Is(err, ErrAccountNotFound):
		return apperrors.NewNotFoundError("account not found", apperrors.ErrCodeAccountNotFound)
	case errors.Is(err, ErrNotFound):
		return apperrors.NewNotFoundError("leave request not found", apperrors.ErrCodeLeaveRequestNotFound)
	case errors.Is(err, ErrInvalidDateRange):
		return apperrors.NewValidationError(ErrInvalidDateRange.Error(), apperrors.ErrCodeInvalidDateRange)
	case errors.Is(err, ErrEmptyRange):
		return apperrors.NewValidationError(ErrEmptyRange.Error(), apperrors.ErrCodeEmptyDateRange)
	case errors.As(err, &insufficient):
		return apperrors.NewUnprocessableError(insufficient.Error(), apperrors.ErrCodeInsufficientBalance).
			WithDetails(map[string]interface{}{
				"leave_type": insufficient.LeaveType,
				"available":  insufficient.Available.StringFixed(2),
				"requested":  insufficient.Requested,
			})
	case errors.Is(err, ErrInsufficientBalance):
		return apperrors.NewUnprocessableError(ErrInsufficientBalance.Error(), apperrors.ErrCodeInsufficientBalance)
	case errors.Is(err, ErrAlreadyProcessed):
		return apperrors.NewConflictError(ErrAlreadyProcessed.Error(), apperrors.ErrCodeAlreadyProcessed)
	case errors.Is(err, ErrStoreFailure):
		return apperrors.NewUnavailableError("temporary storage problem, please try again", apperrors.ErrCodeStoreFailure, err)
	default:
		return apperrors.NewInternalError("internal server error", err)
	}
}
