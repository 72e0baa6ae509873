package services

import (
	"fmt"
	"strings"

	"mp-watch/models"
	"mp-watch/utils"
)

// Payment descriptions containing these terms are excluded from hospitality
// analysis: legal and medical support feels materially different from
// hospitality, and the National Liberal Club is a working base for a bloc of
// MPs rather than a benefit.
var hospitalityFilterTerms = []string{
	"legal advice", "legal services", "medical advice", "medical services",
	"medical imagery", "legal costs", " my solicitor", "the solicitor",
	"legal fees", "appear", "national liberal club",
}

// DonorCategories is the reference mapping from donor name or company
// identifier to a category label and its disclosure sentence. A nil receiver
// is valid everywhere: categorisation degrades to a no-op when the reference
// file is missing.
type DonorCategories struct {
	entries []donorCategory
}

type donorCategory struct {
	Name      string
	CompanyID string
	Category  string
	Sentence  string
}

// LoadDonorCategories reads the donor reference CSV. A missing file logs a
// warning and returns nil; hospitality analysis proceeds without categories.
func LoadDonorCategories(path string, logger *utils.Logger) *DonorCategories {
	table, err := readCSVTable(path)
	if err != nil {
		logger.Warn("[hospitality] Donor categories file %q not available, skipping donor categorisation: %v", path, err)
		return nil
	}

	dc := &DonorCategories{}
	for _, row := range table.rows {
		dc.entries = append(dc.entries, donorCategory{
			Name:      table.str(row, "DonorName"),
			CompanyID: table.str(row, "DonorCompanyIdentifier"),
			Category:  table.str(row, "Category"),
			Sentence:  table.str(row, "CategorySentence"),
		})
	}
	return dc
}

// Categorise returns the category label for a donor, matching on exact name
// or company identifier, or "" when unmatched.
func (d *DonorCategories) Categorise(name, companyID string) string {
	if d == nil {
		return ""
	}
	for _, e := range d.entries {
		if (e.Name != "" && e.Name == name) || (e.CompanyID != "" && e.CompanyID == companyID) {
			return e.Category
		}
	}
	return ""
}

// Sentence returns the disclosure sentence for a category label, or "".
func (d *DonorCategories) Sentence(category string) string {
	if d == nil {
		return ""
	}
	for _, e := range d.entries {
		if e.Category == category {
			return e.Sentence
		}
	}
	return ""
}

// LoadHospitality reads the category-3 register, keeping rows registered
// with an accepted date on or after the election cutoff and dropping
// filtered payment descriptions. Donor categories are assigned per row.
func LoadHospitality(path string, donors *DonorCategories) ([]models.InterestRow, error) {
	table, err := readCSVTable(path)
	if err != nil {
		return nil, fmt.Errorf("hospitality: %w", err)
	}

	var rows []models.InterestRow
	for _, row := range table.rows {
		if table.str(row, "Registered") == "" {
			continue
		}
		if table.str(row, "AcceptedDate") < models.ElectionCutoff {
			continue
		}

		description := table.str(row, "PaymentDescription")
		if containsFilteredTerm(description) {
			continue
		}

		donor := table.str(row, "DonorName")
		donorID := table.str(row, "DonorCompanyIdentifier")

		rows = append(rows, models.InterestRow{
			RecordID:    table.str(row, "ID"),
			MemberID:    table.int(row, "MNIS ID"),
			Value:       table.float(row, "Value"),
			Description: description,
			Donor:       donor,
			DonorID:     donorID,
			Category:    donors.Categorise(donor, donorID),
		})
	}

	return rows, nil
}

func containsFilteredTerm(description string) bool {
	lower := strings.ToLower(description)
	for _, term := range hospitalityFilterTerms {
		if strings.Contains(lower, term) {
			return true
		}
	}
	return false
}

// CollateHospitality aggregates hospitality per MP onto the dataset and
// ranks the totals and expensive-gift counts.
func CollateHospitality(ds *models.Dataset, path string, donors *DonorCategories, logger *utils.Logger) error {
	rows, err := LoadHospitality(path, donors)
	if err != nil {
		return err
	}
	logger.Info("[hospitality] %d qualifying hospitality records", len(rows))

	summaries := Aggregate(ds, rows)
	for _, mp := range ds.All() {
		mp.Hospitality = summaries[mp.ID]
	}

	RankAndPercentile(ds, "hospitality_total", func(mp *models.MP) float64 {
		return mp.Hospitality.Total
	}, false)
	RankAndPercentile(ds, "expensive_gifts", func(mp *models.MP) float64 {
		return float64(mp.Hospitality.ExpensiveCount)
	}, false)

	return nil
}
