package services

import "time"

// Period is the declared regularity of a recurring payment or hours
// commitment, as published in the register.
type Period string

const (
	PeriodWeekly    Period = "Weekly"
	PeriodMonthly   Period = "Monthly"
	PeriodQuarterly Period = "Quarterly"
	PeriodYearly    Period = "Yearly"
)

// NormalizeToDate converts a recurring amount into a to-date total over the
// calculation window. Weekly amounts scale by the count of whole 7-day
// periods (truncated). Monthly, quarterly and yearly amounts scale by the
// whole-month count between start and end, ignoring day-of-month.
//
// A zero amount, unknown period or inverted window yields 0; an inverted
// window is a no-op, not an error. The same date logic serves both money
// earned to date and hours worked to date.
func NormalizeToDate(amount float64, period Period, start, end time.Time) float64 {
	if amount == 0 || period == "" {
		return 0
	}
	if start.After(end) {
		return 0
	}

	switch period {
	case PeriodWeekly:
		days := int(end.Sub(start).Hours() / 24)
		return amount * float64(days/7)
	case PeriodMonthly, PeriodQuarterly, PeriodYearly:
		months := (end.Year()-start.Year())*12 + int(end.Month()) - int(start.Month())
		switch period {
		case PeriodMonthly:
			return amount * float64(months)
		case PeriodQuarterly:
			return amount * float64(months) / 3
		default:
			return amount * float64(months) / 12
		}
	default:
		return 0
	}
}

// clampWindow bounds a recurring payment's calculation window: the start is
// never before the election cutoff, the end never after the last successful
// data refresh. Blank dates fall back to the respective bound.
func clampWindow(start, end, cutoff, refresh string) (string, string) {
	if start == "" || start < cutoff {
		start = cutoff
	}
	if end == "" || end > refresh {
		end = refresh
	}
	return start, end
}

// parseDate reads a date from the first ten characters of an ISO-8601
// value, tolerating both plain dates and timestamped forms.
func parseDate(s string) (time.Time, bool) {
	if len(s) > 10 {
		s = s[:10]
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
