package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(t *testing.T, s string) time.Time {
	t.Helper()
	parsed, err := time.Parse("2006-01-02", s)
	require.NoError(t, err)
	return parsed
}

func TestNormalizeToDate(t *testing.T) {
	tests := []struct {
		name   string
		amount float64
		period Period
		start  string
		end    string
		want   float64
	}{
		{"monthly two whole months", 100, PeriodMonthly, "2024-07-04", "2024-09-04", 200},
		{"monthly ignores day of month", 100, PeriodMonthly, "2024-07-31", "2024-09-01", 200},
		{"yearly five months", 100, PeriodYearly, "2024-07-04", "2024-12-04", 100 * 5.0 / 12.0},
		{"quarterly six months", 300, PeriodQuarterly, "2024-07-04", "2025-01-04", 600},
		{"weekly truncates partial weeks", 70, PeriodWeekly, "2024-07-04", "2024-07-19", 140},
		{"inverted window is a no-op", 100, PeriodMonthly, "2024-09-04", "2024-07-04", 0},
		{"zero amount", 0, PeriodMonthly, "2024-07-04", "2024-09-04", 0},
		{"unknown period", 100, Period("Fortnightly"), "2024-07-04", "2024-09-04", 0},
		{"blank period", 100, Period(""), "2024-07-04", "2024-09-04", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeToDate(tt.amount, tt.period, date(t, tt.start), date(t, tt.end))
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestClampWindow(t *testing.T) {
	const (
		cutoff  = "2024-07-04"
		refresh = "2025-06-01"
	)

	tests := []struct {
		name      string
		start     string
		end       string
		wantStart string
		wantEnd   string
	}{
		{"inside bounds unchanged", "2024-08-01", "2025-01-01", "2024-08-01", "2025-01-01"},
		{"early start clamps to cutoff", "2023-01-01", "2025-01-01", cutoff, "2025-01-01"},
		{"blank start clamps to cutoff", "", "2025-01-01", cutoff, "2025-01-01"},
		{"late end clamps to refresh", "2024-08-01", "2026-01-01", "2024-08-01", refresh},
		{"blank end clamps to refresh", "2024-08-01", "", "2024-08-01", refresh},
		{"both blank", "", "", cutoff, refresh},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := clampWindow(tt.start, tt.end, cutoff, refresh)
			assert.Equal(t, tt.wantStart, start)
			assert.Equal(t, tt.wantEnd, end)
		})
	}
}

func TestParseDate(t *testing.T) {
	got, ok := parseDate("2024-07-04")
	require.True(t, ok)
	assert.Equal(t, date(t, "2024-07-04"), got)

	got, ok = parseDate("2024-07-04T15:30:00")
	require.True(t, ok)
	assert.Equal(t, date(t, "2024-07-04"), got)

	_, ok = parseDate("not a date")
	assert.False(t, ok)

	_, ok = parseDate("")
	assert.False(t, ok)
}
