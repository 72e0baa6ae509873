package services

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mp-watch/config"
	"mp-watch/models"
	"mp-watch/utils"
)

func testCollator() *Collator {
	return NewCollator(utils.NewLogger(""))
}

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(contents), 0644))
}

const rosterJSON = `{
  "200": {
    "name": "Jo Bloggs",
    "thumbnailUrl": "https://example.org/jo.jpg",
    "gender": "F",
    "latestParty": {"id": 15, "name": "Labour (Co-op)"},
    "latestHouseMembership": {
      "membershipFrom": "Nowhere",
      "membershipStartDate": "2024-07-04T00:00:00"
    },
    "expenses": [
      {"category": "Accommodation", "expenseType": "Utilities", "amountClaimed": 300, "date": "2024-08-01T00:00:00"},
      {"category": "Accommodation", "expenseType": "Rent", "amountClaimed": 1200, "date": "2024-09-01T00:00:00"},
      {"category": "Office Costs", "expenseType": "Stationery", "amountClaimed": 50, "date": "2025-01-15T00:00:00"},
      {"category": "Accommodation", "expenseType": "Utilities", "amountClaimed": 999, "date": "2024-01-01T00:00:00"}
    ]
  },
  "100": {
    "name": "Sam Smith",
    "gender": "M",
    "latestParty": {"id": 4, "name": "Conservative"},
    "latestHouseMembership": {"membershipFrom": "Elsewhere", "membershipStartDate": "2019-12-12T00:00:00"}
  }
}`

func TestBuildRoster(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mp_data_ipsa_filtered.json")
	writeFile(t, path, rosterJSON)

	ds, err := testCollator().BuildRoster(path)
	require.NoError(t, err)
	require.Equal(t, 2, ds.Len())

	// Sorted by member ID regardless of JSON key order.
	all := ds.All()
	assert.Equal(t, 100, all[0].ID)
	assert.Equal(t, 200, all[1].ID)

	jo, ok := ds.Get(200)
	require.True(t, ok)
	assert.Equal(t, "Jo Bloggs", jo.Name)
	assert.Equal(t, "Labour", jo.Party, "(Co-op) suffix folds into the main party")
	assert.Equal(t, 15, jo.PartyID)
	assert.Equal(t, "Nowhere", jo.Constituency)
	assert.Equal(t, "F", jo.Gender)

	// The 2024-01-01 claim predates the election and is excluded.
	assert.Equal(t, 1550.0, jo.ExpensesTotal)
	assert.Equal(t, 1500.0, jo.ExpenseCategory("Accommodation"))
	assert.Equal(t, 50.0, jo.ExpenseCategory("Office Costs"))
	assert.Equal(t, 300.0, jo.UtilitiesClaimed)
	assert.True(t, jo.ClaimedForUtilities)
	assert.Zero(t, jo.CleaningClaimed)

	sam, ok := ds.Get(100)
	require.True(t, ok)
	assert.Zero(t, sam.ExpensesTotal)
	assert.False(t, sam.ClaimedForUtilities)
}

func TestBuildRosterMissingFile(t *testing.T) {
	_, err := testCollator().BuildRoster(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestJoinVote(t *testing.T) {
	votesDir := t.TempDir()
	voteDir := filepath.Join(votesDir, "1905")
	writeFile(t, filepath.Join(voteDir, "1905 - ayes.txt"), "100\n")
	writeFile(t, filepath.Join(voteDir, "1905 - noes.txt"), "200\n999\n")
	writeFile(t, filepath.Join(voteDir, "1905 - novoterecorded.txt"), "")

	ds := models.NewDataset()
	ds.Add(models.NewMP(100))
	ds.Add(models.NewMP(200))

	vote := config.TrackedVote{ID: "1905", Title: "Renters' Rights Bill", Noteworthy: []string{"noes"}}
	require.NoError(t, testCollator().JoinVote(ds, votesDir, vote))

	aye, _ := ds.Get(100)
	assert.Equal(t, "ayes", aye.VoteResponses["1905"])
	assert.False(t, aye.VoteFlags["1905"])

	no, _ := ds.Get(200)
	assert.Equal(t, "noes", no.VoteResponses["1905"])
	assert.True(t, no.VoteFlags["1905"], "a noteworthy response raises the flag")
}

func TestJoinVoteMissingListFile(t *testing.T) {
	ds := models.NewDataset()
	vote := config.TrackedVote{ID: "1905"}
	assert.Error(t, testCollator().JoinVote(ds, t.TempDir(), vote))
}

func TestCollateProperties(t *testing.T) {
	csvPath := filepath.Join(t.TempDir(), "PublishedInterest-Category_6.csv")
	writeFile(t, csvPath, `ID,MNIS ID,NumberOfProperties,RegistrableRentalIncome,RentalIncomeEndDate,EndDate
p1,100,2,True,,
p2,100,,False,,
p3,100,3,True,2024-01-01,
p4,200,1,True,,2023-06-30
p5,999,1,True,,
`)

	ds := models.NewDataset()
	ds.Add(models.NewMP(100))
	ds.Add(models.NewMP(200))

	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, testCollator().CollateProperties(ds, csvPath, now))

	landlord, _ := ds.Get(100)
	// p3 ended; p2's blank count means one property without rental income.
	assert.Equal(t, 3, landlord.TotalProperties)
	assert.Equal(t, 2, landlord.RentalProperties)
	assert.True(t, landlord.IsLandlord)

	former, _ := ds.Get(200)
	assert.Zero(t, former.TotalProperties)
	assert.False(t, former.IsLandlord)
}
