package leave

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	// CasualDaysPerYear is the casual entitlement earned over 365 days of tenure.
	CasualDaysPerYear = 11
	// MedicalDaysPerYear is credited once per full year since the last medical accrual.
	MedicalDaysPerYear = 12
	// InitialMedicalBalance is the medical allotment of a newly created balance.
	InitialMedicalBalance = 12

	daysPerYear = 365
	oneDay      = 24 * time.Hour
)

// ComputeCasualLeaveBalance returns max(0, daysSince(createdAt) * 11/365 - used)
// rounded half-up to two decimals.
func ComputeCasualLeaveBalance(createdAt, now time.Time, used int) decimal.Decimal {
	days := floorDays(now.Sub(createdAt))
	if days <= 0 {
		return decimal.Zero
	}

	accrued := decimal.NewFromInt(days * CasualDaysPerYear).Div(decimal.NewFromInt(daysPerYear))
	balance := accrued.Sub(decimal.NewFromInt(int64(used)))
	if balance.IsNegative() {
		return decimal.Zero
	}
	return balance.Round(2)
}

// ApplyMedicalAccrual credits MedicalDaysPerYear for every full calendar year
// elapsed since b.LastMedicalAccrualAt and moves the timestamp to now.
// It returns the number of days credited; zero leaves b untouched.
func ApplyMedicalAccrual(b *Balance, now time.Time) int {
	years := fullYearsBetween(b.LastMedicalAccrualAt, now)
	if years < 1 {
		return 0
	}

	added := years * MedicalDaysPerYear
	b.MedicalLeaveBalance += added
	b.LastMedicalAccrualAt = now
	return added
}

func floorDays(d time.Duration) int64 {
	days := int64(d / oneDay)
	if d < 0 && d%oneDay != 0 {
		days--
	}
	return days
}

func fullYearsBetween(from, to time.Time) int {
	if from.IsZero() || to.Before(from) {
		return 0
	}
	years := to.Year() - from.Year()
	if from.AddDate(years, 0, 0).After(to) {
		years--
	}
	if years < 0 {
		return 0
	}
	return years
}
