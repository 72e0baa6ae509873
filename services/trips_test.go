package services

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mp-watch/models"
	"mp-watch/utils"
)

func TestCollateTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "PublishedInterest-Category_4.csv")
	writeFile(t, path, `ID,MNIS ID,PaymentDescription,DonorName,EndDate,Donor_Value_1,Donor_Value_2,Donor_Value_3,Donor_Value_4,Donor_Value_5
t1,100,Conference in Doha,Host State,2024-11-05,1500,250,,,
t2,100,Old trip,Host State,2024-05-01,900,,,,
t3,200,No end date,Host State,,400,,,,
`)

	ds := models.NewDataset()
	ds.Add(models.NewMP(100))
	ds.Add(models.NewMP(200))

	require.NoError(t, CollateTrips(ds, path, utils.NewLogger("")))

	traveller, _ := ds.Get(100)
	assert.Equal(t, 1750.0, traveller.Trips.Total)
	assert.Equal(t, 1, traveller.Trips.ExpensiveCount)
	assert.Equal(t, "Conference in Doha", traveller.Trips.Max.Description)
	assert.Equal(t, 1.0, traveller.Rank("trips_total"))

	home, _ := ds.Get(200)
	assert.Zero(t, home.Trips.Total)
}

func TestCollateTripsMissingFile(t *testing.T) {
	ds := models.NewDataset()
	err := CollateTrips(ds, filepath.Join(t.TempDir(), "nope.csv"), utils.NewLogger(""))
	assert.Error(t, err)
}
