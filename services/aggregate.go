package services

import (
	"strings"

	"mp-watch/models"
)

// ExpensiveThreshold is the declared value at or above which a single gift,
// benefit or trip counts as expensive.
const ExpensiveThreshold = 500

// Aggregate groups row-level interest records per MP and returns one summary
// for every roster member: a left join against the full MP list, so MPs with
// no matching rows get a zero-filled summary.
//
// The max entry is the highest-value row; on equal values the first
// occurrence in input order wins, which keeps output deterministic for a
// given file ordering. Category labels are collected distinct, in first-seen
// order.
func Aggregate(ds *models.Dataset, rows []models.InterestRow) map[int]models.InterestSummary {
	summaries := make(map[int]models.InterestSummary, ds.Len())
	for _, mp := range ds.All() {
		summaries[mp.ID] = models.InterestSummary{}
	}

	seenCategory := make(map[int]map[string]struct{})
	hasMax := make(map[int]bool)

	for _, row := range rows {
		s, ok := summaries[row.MemberID]
		if !ok {
			// Rows for members outside the roster are ignored here; the
			// caller decides whether that deserves a warning.
			continue
		}

		s.Total += row.Value
		if row.Value >= ExpensiveThreshold {
			s.ExpensiveCount++
		}
		if !hasMax[row.MemberID] || row.Value > s.Max.Value {
			hasMax[row.MemberID] = true
			s.Max = models.MaxEntry{
				Value:       row.Value,
				Description: ClipDescription(row.Description),
				Donor:       row.Donor,
			}
		}

		if row.Category != "" {
			if seenCategory[row.MemberID] == nil {
				seenCategory[row.MemberID] = make(map[string]struct{})
			}
			if _, dup := seenCategory[row.MemberID][row.Category]; !dup {
				seenCategory[row.MemberID][row.Category] = struct{}{}
				s.Categories = append(s.Categories, row.Category)
			}
		}

		summaries[row.MemberID] = s
	}

	return summaries
}

// ClipDescription reduces a free-text payment description to displayable
// length: first newline-delimited line, then first period-delimited sentence.
func ClipDescription(s string) string {
	if i := strings.Index(s, "\n"); i >= 0 {
		s = s[:i]
	}
	if i := strings.Index(s, "."); i >= 0 {
		s = s[:i]
	}
	return s
}
