package models

import "time"

// ElectionCutoff is the date of the most recent general election. All
// current-term aggregates exclude records dated before it.
const ElectionCutoff = "2024-07-04"

// CutoffTime returns ElectionCutoff as a time.Time at midnight UTC.
func CutoffTime() time.Time {
	t, _ := time.Parse("2006-01-02", ElectionCutoff)
	return t
}

// MP salary constants, used for context in downstream presentation.
const (
	SalarySinceApr25 = 93904
	SalarySinceApr24 = 91346
)

// MaxEntry holds the single highest-value record from an interest category.
type MaxEntry struct {
	Value       float64
	Description string
	Donor       string
}

// InterestSummary holds per-MP aggregates over one interest category.
type InterestSummary struct {
	Total          float64
	Max            MaxEntry
	ExpensiveCount int      // entries valued at or above the gift threshold
	Categories     []string // distinct donor category labels, first-seen order
}

// CategoryCount returns the number of distinct donor categories.
func (s InterestSummary) CategoryCount() int { return len(s.Categories) }

// TopEarnings describes an MP's single most lucrative outside income source.
type TopEarnings struct {
	Value float64
	Payer string
	Role  string
}

// DomainResult is the output of one analysis domain for one MP: a narrative
// block (newline-separated sentences) and its score contribution.
type DomainResult struct {
	Name      string
	Narrative string
	Score     float64
}

// MP is the summary record built fresh each run, one per member ID.
type MP struct {
	ID           int
	Name         string
	Party        string
	PartyID      int
	Constituency string
	Thumbnail    string
	Gender       string
	MemberSince  string

	// Expense totals since ElectionCutoff. Keys follow the published
	// category names; Accommodation subcategories are tracked separately.
	ExpensesTotal       float64
	ExpenseCategories   map[string]float64
	UtilitiesClaimed    float64
	CleaningClaimed     float64
	ClaimedForUtilities bool

	TotalProperties  int
	RentalProperties int
	IsLandlord       bool

	// Per tracked vote: categorical response and the noteworthy flag.
	VoteResponses map[string]string
	VoteFlags     map[string]bool

	Hospitality     InterestSummary
	Trips           InterestSummary
	OutsideEarnings float64
	OutsideHours    float64
	EarningsSources int
	TopEarnings     TopEarnings

	// Rank and percentile companions, keyed "<field>_rank" and
	// "<field>_percentile". Kept in memory; dropped from CSV output.
	Ranks map[string]float64

	Analyses         []DomainResult
	InterestingScore float64
	InfoboxHTML      string
}

// NewMP returns an MP with all maps initialised.
func NewMP(id int) *MP {
	return &MP{
		ID:                id,
		ExpenseCategories: make(map[string]float64),
		VoteResponses:     make(map[string]string),
		VoteFlags:         make(map[string]bool),
		Ranks:             make(map[string]float64),
	}
}

// Rank returns the stored companion value for a ranked field, or 0 when the
// field was never ranked. Missing fields degrade to zero, never panic.
func (m *MP) Rank(field string) float64 {
	return m.Ranks[field+"_rank"]
}

// Percentile returns the stored percentile companion for a ranked field.
func (m *MP) Percentile(field string) float64 {
	return m.Ranks[field+"_percentile"]
}

// ExpenseCategory returns the claimed total for a category, 0 when absent.
func (m *MP) ExpenseCategory(name string) float64 {
	return m.ExpenseCategories[name]
}

// Dataset is the full MP roster in stable insertion order with ID lookup.
// Exactly one record per member ID.
type Dataset struct {
	order []int
	byID  map[int]*MP
}

// NewDataset returns an empty Dataset.
func NewDataset() *Dataset {
	return &Dataset{byID: make(map[int]*MP)}
}

// Add inserts an MP. Re-adding an existing ID replaces the record without
// changing its position.
func (d *Dataset) Add(mp *MP) {
	if _, exists := d.byID[mp.ID]; !exists {
		d.order = append(d.order, mp.ID)
	}
	d.byID[mp.ID] = mp
}

// Get looks up an MP by member ID.
func (d *Dataset) Get(id int) (*MP, bool) {
	mp, ok := d.byID[id]
	return mp, ok
}

// All returns the records in insertion order.
func (d *Dataset) All() []*MP {
	out := make([]*MP, 0, len(d.order))
	for _, id := range d.order {
		out = append(out, d.byID[id])
	}
	return out
}

// Len returns the roster size.
func (d *Dataset) Len() int { return len(d.order) }
