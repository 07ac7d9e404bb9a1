package leave

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/frahmantamala/leave-management/internal/core/events"
)

type Subscriber interface {
	Subscribe(eventType string, handler events.Handler)
}

// ViewInvalidator drops cached leave views when a leave event arrives.
type ViewInvalidator struct {
	cache  ViewCache
	logger *slog.Logger
}

func NewViewInvalidator(cache ViewCache, logger *slog.Logger) *ViewInvalidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &ViewInvalidator{cache: cache, logger: logger}
}

func (v *ViewInvalidator) Register(bus Subscriber) {
	for _, eventType := range events.LeaveEventTypes {
		bus.Subscribe(eventType, v.Handle)
	}
}

func (v *ViewInvalidator) Handle(ctx context.Context, event events.Event) error {
	leaveEvent, ok := event.(*events.LeaveEvent)
	if !ok {
		return fmt.Errorf("unexpected event payload %T for %s", event, event.EventType())
	}

	if err := v.cache.Invalidate(ctx, leaveEvent.AccountID); err != nil {
		return fmt.Errorf("invalidate leave views of account %d: %w", leaveEvent.AccountID, err)
	}

	v.logger.Debug("leave views invalidated",
		"event_type", event.EventType(),
		"event_id", event.EventID(),
		"account_id", leaveEvent.AccountID)
	return nil
}
