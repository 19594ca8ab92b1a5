package grading

import (
	"testing"
	"time"

	"github.com/volatiletech/null/v8"
)

var due = time.Date(2021, time.March, 15, 23, 59, 0, 0, time.UTC)

func defaultTestPolicy() Policy {
	return Policy{
		AllowLateSubmissions: true,
		LatePenaltyPerDay:    10,
		MaxLatePenalty:       50,
		MaxLateDays:          7,
		GracePeriodHours:     0,
	}
}

func TestAnalyze(t *testing.T) {
	graced := defaultTestPolicy()
	graced.GracePeriodHours = 2

	noLate := defaultTestPolicy()
	noLate.AllowLateSubmissions = false

	tests := []struct {
		name string
		due  null.Time
		pol  Policy
		ref  time.Time
		want Analysis
	}{
		{
			name: "no due date",
			pol:  defaultTestPolicy(),
			ref:  due.Add(100 * 24 * time.Hour),
			want: Analysis{CanStillSubmit: true},
		},
		{
			name: "on time",
			due:  null.TimeFrom(due),
			pol:  defaultTestPolicy(),
			ref:  due.Add(-time.Hour),
			want: Analysis{CanStillSubmit: true},
		},
		{
			name: "exactly at due date",
			due:  null.TimeFrom(due),
			pol:  defaultTestPolicy(),
			ref:  due,
			want: Analysis{CanStillSubmit: true},
		},
		{
			name: "within grace period",
			due:  null.TimeFrom(due),
			pol:  graced,
			ref:  due.Add(90 * time.Minute),
			want: Analysis{HoursLate: 1.5, GracePeriodActive: true, CanStillSubmit: true},
		},
		{
			name: "just past grace period",
			due:  null.TimeFrom(due),
			pol:  graced,
			ref:  due.Add(2*time.Hour + time.Minute),
			want: Analysis{
				IsLate:            true,
				HoursLate:         2 + 1.0/60,
				DaysLate:          1,
				PenaltyPercentage: 10,
				CanStillSubmit:    true,
			},
		},
		{
			name: "per-day accrual, partial day rounds up",
			due:  null.TimeFrom(due),
			pol:  defaultTestPolicy(),
			ref:  due.Add(time.Duration(3.5 * 24 * float64(time.Hour))),
			want: Analysis{
				IsLate:            true,
				HoursLate:         84,
				DaysLate:          4,
				PenaltyPercentage: 40,
				CanStillSubmit:    true,
			},
		},
		{
			name: "penalty capped, window closed",
			due:  null.TimeFrom(due),
			pol:  defaultTestPolicy(),
			ref:  due.Add(10 * 24 * time.Hour),
			want: Analysis{
				IsLate:            true,
				HoursLate:         240,
				DaysLate:          10,
				PenaltyPercentage: 50,
				CanStillSubmit:    false,
			},
		},
		{
			name: "late submissions disallowed",
			due:  null.TimeFrom(due),
			pol:  noLate,
			ref:  due.Add(25 * time.Hour),
			want: Analysis{
				IsLate:            true,
				HoursLate:         25,
				DaysLate:          2,
				PenaltyPercentage: 20,
				CanStillSubmit:    false,
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Analyze(tt.due, tt.pol, tt.ref)
			if err != nil {
				t.Fatalf("Analyze() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Analyze() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestAnalyzeDeterminism(t *testing.T) {
	pol := defaultTestPolicy()
	pol.GracePeriodHours = 1.5
	ref := due.Add(53*time.Hour + 17*time.Minute)

	first, err := Analyze(null.TimeFrom(due), pol, ref)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	for i := 0; i < 10; i++ {
		again, err := Analyze(null.TimeFrom(due), pol, ref)
		if err != nil {
			t.Fatalf("Analyze() error = %v", err)
		}
		if again != first {
			t.Fatalf("Analyze() not deterministic: %+v != %+v", again, first)
		}
	}
}

func TestAnalyzePenaltyBounds(t *testing.T) {
	pol := defaultTestPolicy()
	for hrs := 0; hrs <= 24*30; hrs += 7 {
		res, err := Analyze(null.TimeFrom(due), pol, due.Add(time.Duration(hrs)*time.Hour))
		if err != nil {
			t.Fatalf("Analyze() error = %v", err)
		}
		if res.PenaltyPercentage < 0 || res.PenaltyPercentage > pol.MaxLatePenalty {
			t.Errorf("penalty %v out of [0, %v] at %dh late", res.PenaltyPercentage, pol.MaxLatePenalty, hrs)
		}
		if res.DaysLate < 0 || res.HoursLate < 0 {
			t.Errorf("negative lateness at %dh: %+v", hrs, res)
		}
	}
}

func TestAnalyzeInvalidPolicy(t *testing.T) {
	tests := []struct {
		name string
		mut  func(*Policy)
	}{
		{"negative per-day penalty", func(p *Policy) { p.LatePenaltyPerDay = -1 }},
		{"negative cap", func(p *Policy) { p.MaxLatePenalty = -0.5 }},
		{"negative max late days", func(p *Policy) { p.MaxLateDays = -3 }},
		{"negative grace period", func(p *Policy) { p.GracePeriodHours = -2 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pol := defaultTestPolicy()
			tt.mut(&pol)
			if _, err := Analyze(null.TimeFrom(due), pol, due); err == nil {
				t.Error("Analyze() expected ErrInvalidPolicy, got nil")
			}
		})
	}
}

func TestMerge(t *testing.T) {
	defaults := defaultTestPolicy()

	t.Run("no overrides", func(t *testing.T) {
		if got := Merge(defaults, Overrides{}); got != defaults {
			t.Errorf("Merge() = %+v, want defaults %+v", got, defaults)
		}
	})

	t.Run("partial overrides", func(t *testing.T) {
		got := Merge(defaults, Overrides{
			AllowLateSubmissions: null.BoolFrom(false),
			GracePeriodHours:     null.Float64From(4),
		})
		want := defaults
		want.AllowLateSubmissions = false
		want.GracePeriodHours = 4
		if got != want {
			t.Errorf("Merge() = %+v, want %+v", got, want)
		}
	})

	t.Run("zero-valued override wins over default", func(t *testing.T) {
		got := Merge(defaults, Overrides{LatePenaltyPerDay: null.Float64From(0)})
		if got.LatePenaltyPerDay != 0 {
			t.Errorf("Merge() LatePenaltyPerDay = %v, want 0", got.LatePenaltyPerDay)
		}
	})
}
