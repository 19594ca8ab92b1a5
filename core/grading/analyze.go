package grading

import (
	"math"
	"time"

	"github.com/volatiletech/null/v8"
)

const hoursPerDay = 24

// Analysis is the ephemeral result of evaluating a submission time against an
// assignment due date and its late-submission policy.
type Analysis struct {
	IsLate            bool    `json:"is_late"`
	DaysLate          int     `json:"days_late"`
	HoursLate         float64 `json:"hours_late"`
	PenaltyPercentage float64 `json:"penalty_percentage"`
	CanStillSubmit    bool    `json:"can_still_submit"`
	GracePeriodActive bool    `json:"grace_period_active"`
}

// Analyze classifies the lateness of a submission and computes the penalty it
// incurs. It is pure and deterministic: the reference time is always passed in
// explicitly, identical inputs yield identical results.
//
// Late days accrue from the end of the grace period, not from the raw due
// date: with a 2h grace, a submission 2h01m past due is 1 day late.
func Analyze(dueDate null.Time, pol Policy, referenceTime time.Time) (Analysis, error) {
	if err := pol.Validate(); err != nil {
		return Analysis{}, err
	}

	// no due date, no deadline
	if !dueDate.Valid {
		return Analysis{CanStillSubmit: true}, nil
	}

	hoursLate := referenceTime.Sub(dueDate.Time).Hours()
	if hoursLate < 0 {
		hoursLate = 0
	}

	res := Analysis{
		HoursLate:         hoursLate,
		GracePeriodActive: hoursLate > 0 && hoursLate <= pol.GracePeriodHours,
		IsLate:            hoursLate > pol.GracePeriodHours,
	}

	if res.IsLate {
		res.DaysLate = int(math.Ceil((hoursLate - pol.GracePeriodHours) / hoursPerDay))
		res.PenaltyPercentage = math.Min(float64(res.DaysLate)*pol.LatePenaltyPerDay, pol.MaxLatePenalty)
	}

	res.CanStillSubmit = !res.IsLate ||
		res.GracePeriodActive ||
		(pol.AllowLateSubmissions && res.DaysLate <= pol.MaxLateDays)

	return res, nil
}
