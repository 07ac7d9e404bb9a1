package leave_test

import (
	"context"
	"io"
	"log/slog"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/leave-management/internal/auth"
	"github.com/frahmantamala/leave-management/internal/core/events"
	"github.com/frahmantamala/leave-management/internal/leave"
)

var _ = Describe("ViewInvalidator", func() {
	var (
		ctx    context.Context
		cache  *memoryCache
		bus    *events.EventBus
		logger *slog.Logger
	)

	BeforeEach(func() {
		ctx = context.Background()
		cache = newMemoryCache()
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
		bus = events.NewEventBus(logger)
		leave.NewViewInvalidator(cache, logger).Register(bus)
	})

	It("drops the account history and pending list on every leave event", func() {
		for _, eventType := range events.LeaveEventTypes {
			Expect(cache.SetHistory(ctx, 7, []*leave.Request{{ID: 1}})).To(Succeed())
			Expect(cache.SetPending(ctx, []*leave.Request{{ID: 1}})).To(Succeed())

			Expect(bus.PublishSync(ctx, events.NewLeaveEvent(eventType, 1, 7, 1, "casual", 2))).To(Succeed())

			_, ok, _ := cache.GetHistory(ctx, 7)
			Expect(ok).To(BeFalse(), eventType)
			_, ok, _ = cache.GetPending(ctx)
			Expect(ok).To(BeFalse(), eventType)
		}
		Expect(cache.invalidated).To(HaveLen(len(events.LeaveEventTypes)))
	})

	It("rejects foreign payloads", func() {
		foreign := events.BaseEvent{ID: "x", Type: events.EventTypeLeaveApproved, Timestamp: time.Now()}

		err := leave.NewViewInvalidator(cache, logger).Handle(ctx, foreign)

		Expect(err).To(HaveOccurred())
		Expect(cache.invalidated).To(BeEmpty())
	})

	It("keeps cached history consistent with submissions", func() {
		now := time.Date(2025, time.June, 4, 9, 0, 0, 0, time.UTC)
		repo := newMemoryRepository()
		directory := &memoryDirectory{createdAt: map[int64]time.Time{7: now.AddDate(-1, 0, 0)}}
		service := leave.NewService(repo, directory, bus, logger,
			leave.WithClock(func() time.Time { return now }),
			leave.WithViewCache(cache))
		member := auth.AuthContext{AccountID: 7, Role: auth.RoleMember}

		history, err := service.GetLeaveHistory(ctx, member, 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(history).To(BeEmpty())

		_, err = service.ApplyLeave(ctx, member, leave.ApplyLeaveDTO{
			LeaveType: "casual",
			FromDate:  "2025-06-09",
			ToDate:    "2025-06-10",
			Reason:    "visiting my grandparents",
		})
		Expect(err).NotTo(HaveOccurred())

		waitCtx, cancel := context.WithTimeout(ctx, time.Second)
		defer cancel()
		Expect(bus.Wait(waitCtx)).To(Succeed())

		history, err = service.GetLeaveHistory(ctx, member, 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(history).To(HaveLen(1))
		Expect(cache.invalidated).To(ConsistOf(int64(7)))
	})
})
