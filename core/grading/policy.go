package grading

import (
	"errors"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/elimu/core"
)

var (
	// errors
	ErrInvalidPolicy = errors.New("invalid late-submission policy")
	ErrInvalidGrade  = errors.New("grade out of range")
)

// Policy is the late-submission policy applied to a graded assignment.
// It owns no state and is never persisted by this package; assignments carry
// per-field overrides that are merged over the deployment defaults.
type Policy struct {
	AllowLateSubmissions bool    `json:"allow_late_submissions"`
	LatePenaltyPerDay    float64 `json:"late_penalty_per_day"` // percentage points per late day
	MaxLatePenalty       float64 `json:"max_late_penalty"`     // percentage points, cap
	MaxLateDays          int     `json:"max_late_days"`
	GracePeriodHours     float64 `json:"grace_period_hours"`
}

// Overrides are optional assignment-level policy fields. Absent fields fall
// back to the deployment defaults in Merge.
type Overrides struct {
	AllowLateSubmissions null.Bool    `json:"allow_late_submissions"`
	LatePenaltyPerDay    null.Float64 `json:"late_penalty_per_day"`
	MaxLatePenalty       null.Float64 `json:"max_late_penalty"`
	MaxLateDays          null.Int     `json:"max_late_days"`
	GracePeriodHours     null.Float64 `json:"grace_period_hours"`
}

func (p Policy) Validate() error {
	var flds []core.FieldError
	if p.LatePenaltyPerDay < 0 {
		flds = append(flds, core.FieldError{Field: "late_penalty_per_day", Error: "must not be negative"})
	}
	if p.MaxLatePenalty < 0 {
		flds = append(flds, core.FieldError{Field: "max_late_penalty", Error: "must not be negative"})
	}
	if p.MaxLateDays < 0 {
		flds = append(flds, core.FieldError{Field: "max_late_days", Error: "must not be negative"})
	}
	if p.GracePeriodHours < 0 {
		flds = append(flds, core.FieldError{Field: "grace_period_hours", Error: "must not be negative"})
	}
	if flds != nil {
		return core.NewValidationError(ErrInvalidPolicy, flds...)
	}
	return nil
}

// DefaultPolicy maps the deployment configuration to a Policy.
func DefaultPolicy(conf core.GradingConfig) Policy {
	return Policy{
		AllowLateSubmissions: conf.AllowLateSubmissions,
		LatePenaltyPerDay:    conf.LatePenaltyPerDay,
		MaxLatePenalty:       conf.MaxLatePenalty,
		MaxLateDays:          conf.MaxLateDays,
		GracePeriodHours:     conf.GracePeriodHours,
	}
}

// Merge overlays assignment-level overrides onto the default policy.
// This is the single place where fallback happens; callers must not
// null-coalesce policy fields themselves.
func Merge(defaults Policy, o Overrides) Policy {
	pol := defaults
	if o.AllowLateSubmissions.Valid {
		pol.AllowLateSubmissions = o.AllowLateSubmissions.Bool
	}
	if o.LatePenaltyPerDay.Valid {
		pol.LatePenaltyPerDay = o.LatePenaltyPerDay.Float64
	}
	if o.MaxLatePenalty.Valid {
		pol.MaxLatePenalty = o.MaxLatePenalty.Float64
	}
	if o.MaxLateDays.Valid {
		pol.MaxLateDays = o.MaxLateDays.Int
	}
	if o.GracePeriodHours.Valid {
		pol.GracePeriodHours = o.GracePeriodHours.Float64
	}
	return pol
}
