package services

import (
	"sort"
	"strings"

	"mp-watch/models"
)

// FieldGetter extracts the numeric value to rank from an MP record.
type FieldGetter func(*models.MP) float64

// RankAndPercentile adds "<field>_rank" and "<field>_percentile" companions
// to every record in the dataset.
//
// Rank uses min-method competition ranking: a value's rank is 1 plus the
// count of strictly better values, so ties share the best rank of their
// group and leave a gap after it.
//
// Percentile is deliberately a two-step computation: the rank column itself
// is re-ranked with max-method, pct semantics in the same direction. Under
// the default descending sort that makes pct(row) = count(rank_j >= rank_i)/n,
// mapping rank 1 to 1.0. Ties propagate differently than a closed-form
// 1 - rank/n would, so the two-step form is load-bearing.
func RankAndPercentile(ds *models.Dataset, field string, get FieldGetter, ascending bool) {
	mps := ds.All()
	n := len(mps)
	if n == 0 {
		return
	}

	values := make([]float64, n)
	for i, mp := range mps {
		values[i] = get(mp)
	}

	ranks := make([]float64, n)
	for i := range values {
		better := 0
		for j := range values {
			if ascending {
				if values[j] < values[i] {
					better++
				}
			} else {
				if values[j] > values[i] {
					better++
				}
			}
		}
		ranks[i] = float64(1 + better)
	}

	for i := range ranks {
		count := 0
		for j := range ranks {
			if ascending {
				if ranks[j] <= ranks[i] {
					count++
				}
			} else {
				if ranks[j] >= ranks[i] {
					count++
				}
			}
		}
		pct := float64(count) / float64(n)

		mps[i].Ranks[field+"_rank"] = ranks[i]
		mps[i].Ranks[field+"_percentile"] = pct
	}
}

// RankExpenseFields ranks the whole expenses_ family: the overall total plus
// every claimed category and tracked subcategory present anywhere in the
// dataset, descending.
func RankExpenseFields(ds *models.Dataset) {
	RankAndPercentile(ds, "expenses_total", func(mp *models.MP) float64 {
		return mp.ExpensesTotal
	}, false)

	for _, name := range expenseFieldNames(ds) {
		cat := name
		RankAndPercentile(ds, "expenses_"+cat, func(mp *models.MP) float64 {
			return mp.ExpenseCategory(cat)
		}, false)
	}

	RankAndPercentile(ds, "expenses_Accommodation_Utilities", func(mp *models.MP) float64 {
		return mp.UtilitiesClaimed
	}, false)
	RankAndPercentile(ds, "expenses_Accommodation_Cleaning services", func(mp *models.MP) float64 {
		return mp.CleaningClaimed
	}, false)
}

// expenseFieldNames returns the sorted union of expense category names
// across all MPs, so prefix ranking covers the open category set.
func expenseFieldNames(ds *models.Dataset) []string {
	seen := make(map[string]struct{})
	for _, mp := range ds.All() {
		for cat := range mp.ExpenseCategories {
			seen[cat] = struct{}{}
		}
	}

	names := make([]string, 0, len(seen))
	for cat := range seen {
		names = append(names, cat)
	}
	sort.Slice(names, func(i, j int) bool {
		return strings.Compare(names[i], names[j]) < 0
	})
	return names
}
