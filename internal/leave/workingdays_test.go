package leave_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/leave-management/internal/leave"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

var _ = Describe("CountWorkingDays", func() {
	DescribeTable("skips Saturdays and Sundays",
		func(from, to time.Time, expected int) {
			Expect(leave.CountWorkingDays(from, to)).To(Equal(expected))
		},
		Entry("monday to friday", date(2025, time.June, 2), date(2025, time.June, 6), 5),
		Entry("a single wednesday", date(2025, time.June, 4), date(2025, time.June, 4), 1),
		Entry("a weekend only", date(2025, time.June, 7), date(2025, time.June, 8), 0),
		Entry("friday to monday", date(2025, time.June, 6), date(2025, time.June, 9), 2),
		Entry("two full weeks", date(2025, time.June, 2), date(2025, time.June, 15), 10),
		Entry("across a month boundary", date(2025, time.May, 29), date(2025, time.June, 3), 4),
	)

	It("uses only the calendar date of each bound", func() {
		from := time.Date(2025, time.June, 2, 23, 30, 0, 0, time.UTC)
		to := time.Date(2025, time.June, 3, 0, 15, 0, 0, time.UTC)

		Expect(leave.CountWorkingDays(from, to)).To(Equal(2))
	})
})
