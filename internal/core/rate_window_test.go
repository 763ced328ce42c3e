package core

import (
	"testing"
	"time"
)

func day(s string) *time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return &t
}

func TestWindowsOverlap(t *testing.T) {
	tests := []struct {
		name                   string
		aFrom, aTo, bFrom, bTo *time.Time
		want                   bool
	}{
		{
			name:  "disjoint windows",
			aFrom: day("2025-01-01"), aTo: day("2025-03-31"),
			bFrom: day("2025-04-01"), bTo: day("2025-06-30"),
			want: false,
		},
		{
			name:  "overlapping windows",
			aFrom: day("2025-01-01"), aTo: day("2025-04-15"),
			bFrom: day("2025-04-01"), bTo: day("2025-06-30"),
			want: true,
		},
		{
			name:  "shared boundary day overlaps",
			aFrom: day("2025-01-01"), aTo: day("2025-04-01"),
			bFrom: day("2025-04-01"), bTo: day("2025-06-30"),
			want: true,
		},
		{
			name:  "contained window",
			aFrom: day("2025-01-01"), aTo: day("2025-12-31"),
			bFrom: day("2025-04-01"), bTo: day("2025-04-30"),
			want: true,
		},
		{
			name:  "open start meets bounded window",
			aFrom: nil, aTo: day("2025-03-31"),
			bFrom: day("2025-03-01"), bTo: day("2025-06-30"),
			want: true,
		},
		{
			name:  "open start ends before other begins",
			aFrom: nil, aTo: day("2025-02-28"),
			bFrom: day("2025-03-01"), bTo: day("2025-06-30"),
			want: false,
		},
		{
			name:  "open end starts after other ends",
			aFrom: day("2025-07-01"), aTo: nil,
			bFrom: day("2025-01-01"), bTo: day("2025-06-30"),
			want: false,
		},
		{
			name:  "two open ends always overlap",
			aFrom: day("2025-01-01"), aTo: nil,
			bFrom: day("2030-01-01"), bTo: nil,
			want: true,
		},
		{
			name:  "fully open window overlaps everything",
			aFrom: nil, aTo: nil,
			bFrom: day("2025-04-01"), bTo: day("2025-04-30"),
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := windowsOverlap(tt.aFrom, tt.aTo, tt.bFrom, tt.bTo); got != tt.want {
				t.Errorf("windowsOverlap() = %v, want %v", got, tt.want)
			}
			// Overlap is symmetric.
			if got := windowsOverlap(tt.bFrom, tt.bTo, tt.aFrom, tt.aTo); got != tt.want {
				t.Errorf("windowsOverlap() reversed = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWindowContains(t *testing.T) {
	at := *day("2025-04-15")

	tests := []struct {
		name     string
		from, to *time.Time
		want     bool
	}{
		{"inside bounded window", day("2025-01-01"), day("2025-12-31"), true},
		{"on start boundary", day("2025-04-15"), day("2025-12-31"), true},
		{"on end boundary", day("2025-01-01"), day("2025-04-15"), true},
		{"before window", day("2025-05-01"), day("2025-12-31"), false},
		{"after window", day("2025-01-01"), day("2025-03-31"), false},
		{"open-ended both sides", nil, nil, true},
		{"open start", nil, day("2025-04-30"), true},
		{"open end", day("2025-04-01"), nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := windowContains(tt.from, tt.to, at); got != tt.want {
				t.Errorf("windowContains() = %v, want %v", got, tt.want)
			}
		})
	}
}
