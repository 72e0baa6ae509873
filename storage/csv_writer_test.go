package storage

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mp-watch/models"
)

func summaryDataset() *models.Dataset {
	ds := models.NewDataset()

	a := models.NewMP(100)
	a.Name = "Jo Bloggs"
	a.Party = "Labour"
	a.Constituency = "Nowhere"
	a.Gender = "F"
	a.ExpensesTotal = 1550
	a.ExpenseCategories["Accommodation"] = 1500
	a.ExpenseCategories["Office Costs"] = 50
	a.VoteResponses["1905"] = "noes"
	a.VoteFlags["1905"] = true
	a.Hospitality = models.InterestSummary{
		Total:          2600,
		Max:            models.MaxEntry{Value: 2000, Description: "Box hire", Donor: "Lucky Ltd"},
		ExpensiveCount: 2,
		Categories:     []string{"Gambling", "Oil"},
	}
	a.InterestingScore = 7.5
	a.Analyses = []models.DomainResult{
		{Name: "Property", Narrative: "Property narrative.", Score: 3},
		{Name: "Hospitality", Narrative: "Hospitality narrative.", Score: 4.5},
	}
	a.InfoboxHTML = "<table></table>"
	ds.Add(a)

	b := models.NewMP(200)
	b.Name = "Sam Smith"
	b.Party = "Conservative"
	b.ExpenseCategories["Travel"] = 320
	ds.Add(b)

	return ds
}

func readSummary(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return records
}

func column(t *testing.T, records [][]string, name string) int {
	t.Helper()
	for i, col := range records[0] {
		if col == name {
			return i
		}
	}
	t.Fatalf("column %q not in header: %v", name, records[0])
	return -1
}

func TestWriteSummary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "mp_data_summary.csv")
	w, err := NewCSVWriter(path)
	require.NoError(t, err)
	defer w.Close()

	ds := summaryDataset()
	require.NoError(t, w.WriteSummary(ds))

	records := readSummary(t, path)
	require.Len(t, records, 3, "header plus one row per MP")

	header := records[0]
	assert.Equal(t, "mp_id", header[0])

	// Dynamic columns cover the category and vote union across all MPs.
	for _, col := range []string{
		"expenses_total", "expenses_Accommodation", "expenses_Office Costs", "expenses_Travel",
		"expenses_Accommodation_Utilities", "expenses_Accommodation_Cleaning services",
		"vote_1905_response", "vote_1905_response_filter",
		"TotalHospitalityValue", "DonorCategories", "Interesting Score", "mp_infobox_html",
	} {
		column(t, records, col)
	}

	// No rank or percentile companions leak into the output.
	for _, col := range header {
		assert.NotContains(t, col, "_rank")
		assert.NotContains(t, col, "_percentile")
	}

	jo := records[1]
	assert.Equal(t, "100", jo[column(t, records, "mp_id")])
	assert.Equal(t, "Jo Bloggs", jo[column(t, records, "name")])
	assert.Equal(t, "1550", jo[column(t, records, "expenses_total")])
	assert.Equal(t, "0", jo[column(t, records, "expenses_Travel")])
	assert.Equal(t, "noes", jo[column(t, records, "vote_1905_response")])
	assert.Equal(t, "true", jo[column(t, records, "vote_1905_response_filter")])
	assert.Equal(t, "2600", jo[column(t, records, "TotalHospitalityValue")])
	assert.Equal(t, "Gambling, Oil", jo[column(t, records, "DonorCategories")])
	assert.Equal(t, "2", jo[column(t, records, "DonorCategoriesCount")])
	assert.Equal(t, "Jo Bloggs, Labour MP for Nowhere\n", jo[column(t, records, "Basic Info")])
	assert.Equal(t, "Property narrative.", jo[column(t, records, "Property Analysis")])
	assert.Equal(t, "3", jo[column(t, records, "Property Score")])
	assert.Equal(t, "7.5", jo[column(t, records, "Interesting Score")])

	sam := records[2]
	assert.Equal(t, "200", sam[column(t, records, "mp_id")])
	assert.Equal(t, "320", sam[column(t, records, "expenses_Travel")])
	assert.Equal(t, "", sam[column(t, records, "vote_1905_response")])
	assert.Equal(t, "false", sam[column(t, records, "vote_1905_response_filter")])
	assert.Equal(t, "0", sam[column(t, records, "TotalHospitalityValue")])
}

func TestWriteSummaryRerunTruncates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mp_data_summary.csv")
	w, err := NewCSVWriter(path)
	require.NoError(t, err)

	require.NoError(t, w.WriteSummary(summaryDataset()))
	require.NoError(t, w.WriteSummary(summaryDataset()))

	records := readSummary(t, path)
	assert.Len(t, records, 3, "a re-run replaces the table instead of appending")
}
