package services

import (
	"fmt"
	"sort"
	"strings"

	"mp-watch/models"
	"mp-watch/utils"
)

// RunReport holds the headline numbers printed after an analysis run.
type RunReport struct {
	TotalMPs        int
	Landlords       int
	UtilityClaims   int
	TotalExpenses   float64
	TotalOutside    float64
	AverageScore    float64
	MostInteresting []*models.MP
	MPsByParty      map[string]int
}

// ReportService summarises a finished run on the console.
type ReportService struct {
	logger *utils.Logger
}

// NewReportService creates a ReportService with the given logger.
func NewReportService(logger *utils.Logger) *ReportService {
	return &ReportService{logger: logger}
}

// Generate computes the run report from the analysed dataset.
func (s *ReportService) Generate(ds *models.Dataset) *RunReport {
	report := &RunReport{MPsByParty: make(map[string]int)}

	mps := ds.All()
	if len(mps) == 0 {
		return report
	}
	report.TotalMPs = len(mps)

	var scoreTotal float64
	for _, mp := range mps {
		if mp.IsLandlord {
			report.Landlords++
		}
		if mp.ClaimedForUtilities {
			report.UtilityClaims++
		}
		report.TotalExpenses += mp.ExpensesTotal
		report.TotalOutside += mp.OutsideEarnings
		scoreTotal += mp.InterestingScore
		if mp.Party != "" {
			report.MPsByParty[mp.Party]++
		}
	}
	report.AverageScore = scoreTotal / float64(len(mps))

	ranked := make([]*models.MP, len(mps))
	copy(ranked, mps)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].InterestingScore > ranked[j].InterestingScore
	})
	if len(ranked) > 10 {
		ranked = ranked[:10]
	}
	report.MostInteresting = ranked

	return report
}

// Print writes the run report to stdout.
func (s *ReportService) Print(r *RunReport) {
	sep := strings.Repeat("═", 54)
	thin := strings.Repeat("─", 54)

	fmt.Printf("\n\033[1;35m%s\033[0m\n", sep)
	fmt.Printf("\033[1;35m  🏛  MP DATA RUN SUMMARY\033[0m\n")
	fmt.Printf("\033[1;35m%s\033[0m\n\n", sep)

	fmt.Printf("\033[1;33m  Overview\033[0m\n")
	fmt.Printf("  %s\n", thin)
	fmt.Printf("  MPs analysed            : \033[1m%d\033[0m\n", r.TotalMPs)
	fmt.Printf("  Landlords               : \033[1m%d\033[0m\n", r.Landlords)
	fmt.Printf("  Claimed utility bills   : \033[1m%d\033[0m\n", r.UtilityClaims)
	fmt.Printf("  Total expenses claimed  : \033[1m£%s\033[0m\n", formatMoney(r.TotalExpenses))
	fmt.Printf("  Total outside earnings  : \033[1m£%s\033[0m\n", formatMoney(r.TotalOutside))
	fmt.Printf("  Average interest score  : \033[1m%.1f\033[0m\n", r.AverageScore)
	fmt.Println()

	fmt.Printf("\033[1;33m  Most Interesting MPs\033[0m\n")
	fmt.Printf("  %s\n", thin)
	if len(r.MostInteresting) == 0 {
		fmt.Printf("  No analysed MPs\n")
	} else {
		for i, mp := range r.MostInteresting {
			name := truncate(fmt.Sprintf("%s (%s)", mp.Name, mp.Party), 40)
			fmt.Printf("  \033[1m%2d.\033[0m %-42s \033[1;32m%.1f\033[0m\n",
				i+1, name, mp.InterestingScore)
		}
	}
	fmt.Println()

	fmt.Printf("\033[1;33m  MPs by Party\033[0m\n")
	fmt.Printf("  %s\n", thin)
	if len(r.MPsByParty) == 0 {
		fmt.Printf("  No party data\n")
	} else {
		type partyCount struct {
			party string
			count int
		}
		var parties []partyCount
		for party, cnt := range r.MPsByParty {
			parties = append(parties, partyCount{party, cnt})
		}
		sort.Slice(parties, func(i, j int) bool {
			if parties[i].count != parties[j].count {
				return parties[i].count > parties[j].count
			}
			return parties[i].party < parties[j].party
		})
		for _, pc := range parties {
			fmt.Printf("  %-30s %d\n", truncate(pc.party, 28), pc.count)
		}
	}

	fmt.Printf("\n\033[1;35m%s\033[0m\n\n", sep)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
