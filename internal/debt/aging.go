package debt

import (
	"time"
)

// day is the aging granularity. Partial days never count as overdue.
const day = 24 * time.Hour

// DaysPastDue computes full days elapsed between dueDate and now, floored at
// zero. A nil due date yields zero so contracts without a schedule surface in
// listings instead of erroring.
func DaysPastDue(dueDate *time.Time, now time.Time) int {
	if dueDate == nil {
		return 0
	}
	elapsed := now.Sub(*dueDate)
	if elapsed <= 0 {
		return 0
	}
	return int(elapsed / day)
}

// Aging is the per-contract aging computation.
type Aging struct {
	DaysOverdue   int
	OverdueAmount float64
	// AnomalyNote is set when the ledger disagrees with the contract shape,
	// for example payments recorded against a zero total.
	AnomalyNote string
}

// ComputeAging derives the overdue position of one contract. A contract is
// only carrying an overdue amount once it is past due; the amount is the
// unpaid balance floored at zero.
func ComputeAging(total, paid float64, dueDate *time.Time, now time.Time) Aging {
	a := Aging{DaysOverdue: DaysPastDue(dueDate, now)}
	if total == 0 && paid > 0 {
		// Legacy imports sometimes carry payments against a zero total.
		// Treat the contract as settled for what was actually paid and
		// surface the oddity to the caller instead of erroring.
		a.AnomalyNote = "payments recorded against zero contract total"
		return a
	}
	if a.DaysOverdue > 0 {
		a.OverdueAmount = total - paid
		if a.OverdueAmount < 0 {
			a.OverdueAmount = 0
		}
	}
	return a
}
