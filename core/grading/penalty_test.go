package grading

import (
	"testing"
)

func TestApplyPenalty(t *testing.T) {
	tests := []struct {
		name      string
		rawGrade  float64
		maxPoints float64
		analysis  Analysis
		want      float64
		wantErr   error
	}{
		{
			name:     "not late, grade untouched",
			rawGrade: 87, maxPoints: 100,
			analysis: Analysis{CanStillSubmit: true},
			want:     87,
		},
		{
			name:     "late, grade above ceiling is capped",
			rawGrade: 95, maxPoints: 100,
			analysis: Analysis{IsLate: true, DaysLate: 2, PenaltyPercentage: 20},
			want:     80,
		},
		{
			name:     "late, grade below ceiling kept as-is",
			rawGrade: 60, maxPoints: 100,
			analysis: Analysis{IsLate: true, DaysLate: 2, PenaltyPercentage: 20},
			want:     60,
		},
		{
			name:     "full penalty floors at zero",
			rawGrade: 10, maxPoints: 100,
			analysis: Analysis{IsLate: true, DaysLate: 30, PenaltyPercentage: 100},
			want:     0,
		},
		{
			name:     "fractional points",
			rawGrade: 18.5, maxPoints: 20,
			analysis: Analysis{IsLate: true, DaysLate: 1, PenaltyPercentage: 10},
			want:     18,
		},
		{
			name:     "negative raw grade rejected",
			rawGrade: -1, maxPoints: 100,
			analysis: Analysis{},
			wantErr:  ErrInvalidGrade,
		},
		{
			name:     "raw grade above max rejected",
			rawGrade: 101, maxPoints: 100,
			analysis: Analysis{},
			wantErr:  ErrInvalidGrade,
		},
		{
			name:     "non-positive max points rejected",
			rawGrade: 0, maxPoints: 0,
			analysis: Analysis{},
			wantErr:  ErrInvalidGrade,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ApplyPenalty(tt.rawGrade, tt.maxPoints, tt.analysis)
			if tt.wantErr != nil {
				if err == nil || err.Error() != tt.wantErr.Error() {
					t.Fatalf("ApplyPenalty() error = %v, wantErr %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ApplyPenalty() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("ApplyPenalty() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestApplyPenaltyBoundedness(t *testing.T) {
	for pct := 0.0; pct <= 100; pct += 12.5 {
		for raw := 0.0; raw <= 100; raw += 20 {
			a := Analysis{IsLate: true, DaysLate: 1, PenaltyPercentage: pct}
			got, err := ApplyPenalty(raw, 100, a)
			if err != nil {
				t.Fatalf("ApplyPenalty(%v, 100, pct=%v) error = %v", raw, pct, err)
			}
			if got < 0 || got > raw {
				t.Errorf("ApplyPenalty(%v, 100, pct=%v) = %v, want within [0, %v]", raw, pct, got, raw)
			}
		}
	}
}
