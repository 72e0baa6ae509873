package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"mp-watch/models"
	"mp-watch/services"
)

// CSVWriter writes the per-MP summary table to a CSV file. The column set
// is partly open (expense categories and tracked votes vary by run), so the
// header is derived from the dataset. Rank and percentile companions are
// dropped from the output to avoid clutter, as the presentation layer never
// reads them. Safe for concurrent use.
type CSVWriter struct {
	mu   sync.Mutex
	path string
}

// NewCSVWriter prepares a summary writer for the given path. Intermediate
// directories are created automatically.
func NewCSVWriter(path string) (*CSVWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("csv: create output dir: %w", err)
	}
	return &CSVWriter{path: path}, nil
}

// Fixed identity and aggregate columns, in output order.
var summaryFixedColumns = []string{
	"mp_id", "name", "party", "party_id", "constituency", "thumbnail",
	"gender", "current_membership_since",
	"salary_since_apr25", "salary_since_apr24",
}

var summaryAggregateColumns = []string{
	"claimed_for_utilities", "TotalProperties", "RentalProperties", "is_landlord",
	"TotalHospitalityValue", "max_hospitality_value", "max_hospitality_description",
	"max_hospitality_donor", "expensive_gifts_count", "DonorCategories", "DonorCategoriesCount",
	"TotalTripsValue", "max_trip_value", "max_trip_description", "max_trip_donor",
	"expensive_trips_count",
	"TotalOutsideEarnings", "TotalOutsideEarningsCount", "TotalHoursWorked",
	"TopOutsideEarningsValue", "TopOutsideEarningsSource", "TopOutsideEarningsDescription",
	"Basic Info",
	"Property Analysis", "Property Score",
	"Hospitality Analysis", "Hospitality Score",
	"Other Analysis", "Other Score",
	"Outside Earnings Analysis", "Outside Earnings Score",
	"Interesting Score", "mp_infobox_html",
}

// WriteSummary truncates the output file and writes one row per MP.
func (c *CSVWriter) WriteSummary(ds *models.Dataset) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	f, err := os.Create(c.path)
	if err != nil {
		return fmt.Errorf("csv: create file %q: %w", c.path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)

	categories := expenseCategories(ds)
	votes := voteIDs(ds)

	header := append([]string{}, summaryFixedColumns...)
	header = append(header, "expenses_total")
	for _, cat := range categories {
		header = append(header, "expenses_"+cat)
	}
	header = append(header,
		"expenses_Accommodation_Utilities",
		"expenses_Accommodation_Cleaning services")
	for _, id := range votes {
		header = append(header, "vote_"+id+"_response", "vote_"+id+"_response_filter")
	}
	header = append(header, summaryAggregateColumns...)

	if err := w.Write(header); err != nil {
		return fmt.Errorf("csv: write header: %w", err)
	}

	for _, mp := range ds.All() {
		row := summaryRow(mp, categories, votes)
		if err := w.Write(row); err != nil {
			return fmt.Errorf("csv: write row for MP %d: %w", mp.ID, err)
		}
	}

	w.Flush()
	return w.Error()
}

// Close is a no-op: the file is opened and closed per write so re-runs
// always produce a complete table.
func (c *CSVWriter) Close() error { return nil }

func summaryRow(mp *models.MP, categories, votes []string) []string {
	row := []string{
		strconv.Itoa(mp.ID),
		mp.Name,
		mp.Party,
		strconv.Itoa(mp.PartyID),
		mp.Constituency,
		mp.Thumbnail,
		mp.Gender,
		mp.MemberSince,
		strconv.Itoa(models.SalarySinceApr25),
		strconv.Itoa(models.SalarySinceApr24),
	}

	row = append(row, num(mp.ExpensesTotal))
	for _, cat := range categories {
		row = append(row, num(mp.ExpenseCategory(cat)))
	}
	row = append(row, num(mp.UtilitiesClaimed), num(mp.CleaningClaimed))

	for _, id := range votes {
		row = append(row,
			mp.VoteResponses[id],
			strconv.FormatBool(mp.VoteFlags[id]))
	}

	domains := make(map[string]models.DomainResult, len(mp.Analyses))
	for _, d := range mp.Analyses {
		domains[d.Name] = d
	}

	row = append(row,
		strconv.FormatBool(mp.ClaimedForUtilities),
		strconv.Itoa(mp.TotalProperties),
		strconv.Itoa(mp.RentalProperties),
		strconv.FormatBool(mp.IsLandlord),
		num(mp.Hospitality.Total),
		num(mp.Hospitality.Max.Value),
		mp.Hospitality.Max.Description,
		mp.Hospitality.Max.Donor,
		strconv.Itoa(mp.Hospitality.ExpensiveCount),
		joinCategories(mp.Hospitality.Categories),
		strconv.Itoa(mp.Hospitality.CategoryCount()),
		num(mp.Trips.Total),
		num(mp.Trips.Max.Value),
		mp.Trips.Max.Description,
		mp.Trips.Max.Donor,
		strconv.Itoa(mp.Trips.ExpensiveCount),
		num(mp.OutsideEarnings),
		strconv.Itoa(mp.EarningsSources),
		num(mp.OutsideHours),
		num(mp.TopEarnings.Value),
		mp.TopEarnings.Payer,
		mp.TopEarnings.Role,
		services.BasicInfo(mp),
		domains["Property"].Narrative, num(domains["Property"].Score),
		domains["Hospitality"].Narrative, num(domains["Hospitality"].Score),
		domains["Other"].Narrative, num(domains["Other"].Score),
		domains["Outside Earnings"].Narrative, num(domains["Outside Earnings"].Score),
		num(mp.InterestingScore),
		mp.InfoboxHTML,
	)

	return row
}

func joinCategories(categories []string) string {
	return strings.Join(categories, ", ")
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func expenseCategories(ds *models.Dataset) []string {
	seen := make(map[string]struct{})
	for _, mp := range ds.All() {
		for cat := range mp.ExpenseCategories {
			seen[cat] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for cat := range seen {
		out = append(out, cat)
	}
	sort.Strings(out)
	return out
}

func voteIDs(ds *models.Dataset) []string {
	seen := make(map[string]struct{})
	for _, mp := range ds.All() {
		for id := range mp.VoteResponses {
			seen[id] = struct{}{}
		}
		for id := range mp.VoteFlags {
			seen[id] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
