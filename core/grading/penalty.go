package grading

import (
	"math"

	"github.com/trezcool/elimu/core"
)

// ApplyPenalty applies the analyzed late penalty to a raw grade and returns
// the authoritative awarded grade.
//
// Contract: rawGrade must always be the ORIGINAL ungraded-penalty value, never
// a previously penalized grade; re-applying a penalty to an already-penalized
// grade double-penalizes. The result is never negative and never exceeds
// rawGrade.
func ApplyPenalty(rawGrade, maxPoints float64, a Analysis) (float64, error) {
	if maxPoints <= 0 {
		return 0, core.NewValidationError(ErrInvalidGrade,
			core.FieldError{Field: "max_points", Error: "must be positive"})
	}
	if rawGrade < 0 || rawGrade > maxPoints {
		return 0, core.NewValidationError(ErrInvalidGrade,
			core.FieldError{Field: "raw_grade", Error: "must be within [0, max_points]"})
	}

	if !a.IsLate {
		return rawGrade, nil
	}

	maxAllowed := maxPoints * (1 - a.PenaltyPercentage/100)
	final := math.Min(rawGrade, maxAllowed)
	return math.Max(final, 0), nil
}
