package services

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mp-watch/models"
	"mp-watch/utils"
)

func writeEarningsFixtures(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	writeFile(t, filepath.Join(dir, earningsRefFile), `ID,MNIS ID,PayerName,JobTitle
10,100,Acme Ltd,Director
11,100,Beeb,Presenter
12,200,Quiet Corp,Adviser
`)

	// One-off payments: the 2024-01-02 row predates the election cutoff.
	writeFile(t, filepath.Join(dir, earningsAdhocFile), `ID,Parent Interest ID,Value,ReceivedDate
101,10,500,2024-08-01
102,10,100,2024-01-02
103,11,250,2025-01-10
`)

	// Recurring: £100/month over 2024-07-04..2024-09-04 normalises to £200,
	// with 10 hours/month giving 20 hours to date.
	writeFile(t, filepath.Join(dir, earningsOngoingFile), `ID,Parent Interest ID,Value,RegularityOfPayment,StartDate,EndDate,HoursWorked,PeriodForHoursWorked
201,11,100,Monthly,2024-07-04,2024-09-04,10,Monthly
202,12,50,Monthly,2026-01-01,2026-03-01,,
`)

	return dir
}

func TestCollateOutsideEarnings(t *testing.T) {
	dir := writeEarningsFixtures(t)
	combinedOut := filepath.Join(dir, "earnings_combined.csv")

	ds := models.NewDataset()
	ds.Add(models.NewMP(100))
	ds.Add(models.NewMP(200))

	err := CollateOutsideEarnings(ds, dir, "2025-06-01", combinedOut, utils.NewLogger(""))
	require.NoError(t, err)

	earner, _ := ds.Get(100)
	// Acme: 500 adhoc. Beeb: 250 adhoc + 200 recurring.
	assert.InDelta(t, 950.0, earner.OutsideEarnings, 1e-9)
	assert.Equal(t, 2, earner.EarningsSources)
	assert.InDelta(t, 20.0, earner.OutsideHours, 1e-9)
	assert.Equal(t, "Acme Ltd", earner.TopEarnings.Payer)
	assert.Equal(t, "Director", earner.TopEarnings.Role)
	assert.InDelta(t, 500.0, earner.TopEarnings.Value, 1e-9)
	assert.Equal(t, 1.0, earner.Rank("outside_earnings"))

	// The 2026 window starts after the refresh date and contributes nothing.
	quiet, _ := ds.Get(200)
	assert.Zero(t, quiet.OutsideEarnings)
	assert.Zero(t, quiet.EarningsSources)
}

func TestCollateOutsideEarningsExportsCombined(t *testing.T) {
	dir := writeEarningsFixtures(t)
	combinedOut := filepath.Join(dir, "out", "earnings_combined.csv")

	ds := models.NewDataset()
	ds.Add(models.NewMP(100))

	require.NoError(t, CollateOutsideEarnings(ds, dir, "2025-06-01", combinedOut, utils.NewLogger("")))

	f, err := os.Open(combinedOut)
	require.NoError(t, err)
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4, "header plus one row per reference entry")

	assert.Equal(t, []string{"ID", "MNIS ID", "PayerName", "JobTitle", "Value"}, records[0])
	// Sorted by record ID.
	assert.Equal(t, "10", records[1][0])
	assert.Equal(t, "500.00", records[1][4])
	assert.Equal(t, "11", records[2][0])
	assert.Equal(t, "450.00", records[2][4])
}

func TestCollateOutsideEarningsMissingFiles(t *testing.T) {
	ds := models.NewDataset()
	err := CollateOutsideEarnings(ds, t.TempDir(), "2025-06-01", "", utils.NewLogger(""))
	assert.Error(t, err)
}
