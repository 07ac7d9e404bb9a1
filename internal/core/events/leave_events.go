package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeLeaveSubmitted           = "leave.submitted"
	EventTypeLeaveApproved            = "leave.approved"
	EventTypeLeaveRejected            = "leave.rejected"
	EventTypeLeaveBalanceRecalculated = "leave.balance_recalculated"
)

// LeaveEventTypes lists every event that changes what leave views show.
var LeaveEventTypes = []string{
	EventTypeLeaveSubmitted,
	EventTypeLeaveApproved,
	EventTypeLeaveRejected,
	EventTypeLeaveBalanceRecalculated,
}

// LeaveEvent signals that the leave views of AccountID are stale.
// RequestID is zero for balance-only changes.
type LeaveEvent struct {
	BaseEvent
	RequestID int64  `json:"request_id,omitempty"`
	AccountID int64  `json:"account_id"`
	ActorID   int64  `json:"actor_id"`
	LeaveType string `json:"leave_type,omitempty"`
	Days      int    `json:"days,omitempty"`
}

func NewLeaveEvent(eventType string, requestID, accountID, actorID int64, leaveType string, days int) *LeaveEvent {
	return &LeaveEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      eventType,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"request_id": requestID,
				"account_id": accountID,
				"actor_id":   actorID,
				"leave_type": leaveType,
				"days":       days,
			},
		},
		RequestID: requestID,
		AccountID: accountID,
		ActorID:   actorID,
		LeaveType: leaveType,
		Days:      days,
	}
}

func NewBalanceRecalculatedEvent(accountID, actorID int64) *LeaveEvent {
	return NewLeaveEvent(EventTypeLeaveBalanceRecalculated, 0, accountID, actorID, "", 0)
}
