package services

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"mp-watch/config"
	"mp-watch/models"
	"mp-watch/utils"
)

// Collator builds the per-MP dataset from the raw source files.
type Collator struct {
	logger *utils.Logger
}

// NewCollator creates a Collator with the given logger.
func NewCollator(logger *utils.Logger) *Collator {
	return &Collator{logger: logger}
}

// ipsaMember mirrors the slice of the IPSA page payload the roster needs.
type ipsaMember struct {
	Name         string `json:"name"`
	ThumbnailURL string `json:"thumbnailUrl"`
	Gender       string `json:"gender"`
	LatestParty  struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
	} `json:"latestParty"`
	LatestHouseMembership struct {
		MembershipFrom      string `json:"membershipFrom"`
		MembershipStartDate string `json:"membershipStartDate"`
	} `json:"latestHouseMembership"`
	Expenses []struct {
		Category      string  `json:"category"`
		ExpenseType   string  `json:"expenseType"`
		AmountClaimed float64 `json:"amountClaimed"`
		Date          string  `json:"date"`
	} `json:"expenses"`
}

// Accommodation subcategories tracked individually. The full subcategory set
// is too noisy for the final output.
var accommodationSubcategories = map[string]struct{}{
	"Cleaning services": {},
	"Utilities":         {},
}

// BuildRoster parses the filtered IPSA JSON into one record per member ID:
// identity fields plus expense totals since the election cutoff, overall,
// per category and for the tracked Accommodation subcategories.
func (c *Collator) BuildRoster(ipsaFile string) (*models.Dataset, error) {
	c.logger.Info("[collate] Building MP roster from %s", ipsaFile)

	raw, err := os.ReadFile(ipsaFile)
	if err != nil {
		return nil, fmt.Errorf("collate: read %q: %w", ipsaFile, err)
	}

	var members map[string]ipsaMember
	if err := json.Unmarshal(raw, &members); err != nil {
		return nil, fmt.Errorf("collate: parse %q: %w", ipsaFile, err)
	}

	// Stable insertion order regardless of map iteration.
	ids := make([]int, 0, len(members))
	byID := make(map[int]ipsaMember, len(members))
	for key, m := range members {
		id, err := strconv.Atoi(key)
		if err != nil {
			c.logger.Warn("[collate] Skipping non-numeric member ID %q", key)
			continue
		}
		ids = append(ids, id)
		byID[id] = m
	}
	sort.Ints(ids)

	cutoff := models.ElectionCutoff + "T00:00:00"
	ds := models.NewDataset()

	for _, id := range ids {
		m := byID[id]
		mp := models.NewMP(id)
		mp.Name = m.Name
		// "Labour (Co-op)" folds into "Labour" for consistency.
		mp.Party = strings.ReplaceAll(m.LatestParty.Name, " (Co-op)", "")
		mp.PartyID = m.LatestParty.ID
		mp.Constituency = m.LatestHouseMembership.MembershipFrom
		mp.MemberSince = m.LatestHouseMembership.MembershipStartDate
		mp.Thumbnail = m.ThumbnailURL
		mp.Gender = m.Gender

		for _, e := range m.Expenses {
			if e.Date < cutoff {
				continue
			}
			mp.ExpensesTotal += e.AmountClaimed
			mp.ExpenseCategories[e.Category] += e.AmountClaimed

			if e.Category == "Accommodation" {
				if _, tracked := accommodationSubcategories[e.ExpenseType]; tracked {
					if e.ExpenseType == "Utilities" {
						mp.UtilitiesClaimed += e.AmountClaimed
					} else {
						mp.CleaningClaimed += e.AmountClaimed
					}
				}
			}
		}
		mp.ClaimedForUtilities = mp.UtilitiesClaimed > 0

		ds.Add(mp)
	}

	c.logger.Info("[collate] Roster built: %d MPs", ds.Len())
	return ds, nil
}

// voteResponses are the three final membership lists per division. Tellers
// are already merged into their side upstream.
var voteResponses = []string{"ayes", "noes", "novoterecorded"}

// JoinVote attaches the response category for one tracked vote to every
// listed MP, and raises the noteworthy flag where configured. A member ID
// missing from the roster is logged and skipped, never fatal.
func (c *Collator) JoinVote(ds *models.Dataset, votesDir string, vote config.TrackedVote) error {
	voteDir := filepath.Join(votesDir, vote.ID)

	for _, response := range voteResponses {
		listFile := filepath.Join(voteDir, fmt.Sprintf("%s - %s.txt", vote.ID, response))
		raw, err := os.ReadFile(listFile)
		if err != nil {
			return fmt.Errorf("collate: read vote list %q: %w", listFile, err)
		}

		for _, line := range strings.Split(string(raw), "\n") {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			id, err := strconv.Atoi(line)
			if err != nil {
				c.logger.Warn("[collate] Vote %s: bad member ID %q in %s list", vote.ID, line, response)
				continue
			}

			mp, ok := ds.Get(id)
			if !ok {
				c.logger.Warn("[collate] Member %d not found in dataset for vote %s", id, vote.ID)
				continue
			}

			mp.VoteResponses[vote.ID] = response
			if vote.IsNoteworthy(response) {
				mp.VoteFlags[vote.ID] = true
			}
		}
	}

	return nil
}

// CollateProperties folds the category-6 land-and-property register into the
// dataset: total declared properties, rental-only counts and the landlord
// flag. Rows whose rental income or interest has already ended are dropped.
// A blank property count means a single property.
func (c *Collator) CollateProperties(ds *models.Dataset, propertyCSV string, now time.Time) error {
	c.logger.Info("[collate] Collating landlord information from %s", propertyCSV)

	table, err := readCSVTable(propertyCSV)
	if err != nil {
		return fmt.Errorf("collate: properties: %w", err)
	}

	for _, row := range table.rows {
		if ended(table.str(row, "RentalIncomeEndDate"), now) ||
			ended(table.str(row, "EndDate"), now) {
			continue
		}

		id := table.int(row, "MNIS ID")
		mp, ok := ds.Get(id)
		if !ok {
			c.logger.Warn("[collate] Member %d not found in dataset for property record %s",
				id, table.str(row, "ID"))
			continue
		}

		count := table.int(row, "NumberOfProperties")
		if count == 0 {
			count = 1
		}

		mp.TotalProperties += count
		if table.bool(row, "RegistrableRentalIncome") {
			mp.RentalProperties += count
		}
	}

	for _, mp := range ds.All() {
		mp.IsLandlord = mp.RentalProperties > 0
	}

	return nil
}

// ended reports whether a date field is present and in the past.
func ended(date string, now time.Time) bool {
	if date == "" {
		return false
	}
	t, ok := parseDate(date)
	if !ok {
		return false
	}
	return t.Before(now)
}
