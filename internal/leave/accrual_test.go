package leave_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/leave-management/internal/leave"
)

var _ = Describe("Accrual", func() {
	now := time.Date(2025, time.June, 4, 9, 0, 0, 0, time.UTC)

	Describe("ComputeCasualLeaveBalance", func() {
		DescribeTable("accrues 11 days per 365 days of tenure",
			func(createdAt time.Time, used int, expected string) {
				Expect(leave.ComputeCasualLeaveBalance(createdAt, now, used).StringFixed(2)).To(Equal(expected))
			},
			Entry("a full year unused", now.AddDate(0, 0, -365), 0, "11.00"),
			Entry("a full year with one day used", now.AddDate(0, 0, -365), 1, "10.00"),
			Entry("a full year with nine days used", now.AddDate(0, 0, -365), 9, "2.00"),
			Entry("100 days rounds to cents", now.AddDate(0, 0, -100), 0, "3.01"),
			Entry("partial days are floored", now.Add(-(364*24+23)*time.Hour), 0, "10.97"),
			Entry("usage above accrual clamps to zero", now.AddDate(0, 0, -30), 5, "0.00"),
			Entry("account created later today", now.Add(time.Hour), 0, "0.00"),
			Entry("account created today", now, 0, "0.00"),
		)

		DescribeTable("never decreases as time passes with fixed usage",
			func(used int) {
				createdAt := now.AddDate(0, 0, -30)
				previous := leave.ComputeCasualLeaveBalance(createdAt, createdAt, used)
				for at := createdAt; at.Before(createdAt.AddDate(0, 0, 800)); at = at.Add(7 * time.Hour) {
					current := leave.ComputeCasualLeaveBalance(createdAt, at, used)
					Expect(current.GreaterThanOrEqual(previous)).To(BeTrue(), "balance dropped at %s", at)
					previous = current
				}
			},
			Entry("no usage", 0),
			Entry("one day used", 1),
			Entry("more used than a year accrues", 15),
		)
	})

	Describe("ApplyMedicalAccrual", func() {
		It("credits twelve days per full year and moves the timestamp", func() {
			b := leave.NewBalance(7, now.AddDate(-2, 0, 0))

			added := leave.ApplyMedicalAccrual(b, now)

			Expect(added).To(Equal(24))
			Expect(b.MedicalLeaveBalance).To(Equal(36))
			Expect(b.LastMedicalAccrualAt).To(Equal(now))
		})

		It("leaves the balance untouched before a full year", func() {
			last := now.AddDate(0, 0, -364)
			b := leave.NewBalance(7, last)

			Expect(leave.ApplyMedicalAccrual(b, now)).To(BeZero())
			Expect(b.MedicalLeaveBalance).To(Equal(leave.InitialMedicalBalance))
			Expect(b.LastMedicalAccrualAt).To(Equal(last))
		})

		It("credits on the anniversary itself", func() {
			b := leave.NewBalance(7, now.AddDate(-1, 0, 0))

			Expect(leave.ApplyMedicalAccrual(b, now)).To(Equal(12))
		})

		It("counts a leap day anniversary from the first of March", func() {
			leapDay := time.Date(2024, time.February, 29, 0, 0, 0, 0, time.UTC)
			b := leave.NewBalance(7, leapDay)

			Expect(leave.ApplyMedicalAccrual(b, time.Date(2025, time.February, 28, 0, 0, 0, 0, time.UTC))).To(BeZero())
			Expect(leave.ApplyMedicalAccrual(b, time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC))).To(Equal(12))
		})

		It("ignores an unset timestamp", func() {
			b := &leave.Balance{MedicalLeaveBalance: 3}

			Expect(leave.ApplyMedicalAccrual(b, now)).To(BeZero())
			Expect(b.MedicalLeaveBalance).To(Equal(3))
		})
	})

	Describe("Balance", func() {
		It("deducts casual days to two decimals", func() {
			b := leave.NewBalance(7, now)
			b.CasualLeaveBalance = leave.ComputeCasualLeaveBalance(now.AddDate(0, 0, -100), now, 0)

			Expect(b.Covers(leave.TypeCasual, 3)).To(BeTrue())
			Expect(b.Covers(leave.TypeCasual, 4)).To(BeFalse())
			b.Deduct(leave.TypeCasual, 3)
			Expect(b.CasualLeaveBalance.StringFixed(2)).To(Equal("0.01"))
		})

		It("does not clamp the medical balance", func() {
			b := leave.NewBalance(7, now)
			b.Deduct(leave.TypeMedical, 15)

			Expect(b.MedicalLeaveBalance).To(Equal(-3))
			Expect(b.Covers(leave.TypeMedical, 1)).To(BeFalse())
		})

		It("starts new accounts with the initial medical allotment", func() {
			b := leave.NewBalance(7, now)

			Expect(b.CasualLeaveBalance.IsZero()).To(BeTrue())
			Expect(b.MedicalLeaveBalance).To(Equal(12))
			Expect(b.Available(leave.TypeMedical).IntPart()).To(Equal(int64(12)))
		})
	})
})
