package services

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mp-watch/models"
	"mp-watch/utils"
)

func writeDonorCategories(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "donor_categories.csv")
	writeFile(t, path, `DonorName,DonorCompanyIdentifier,Category,CategorySentence
Lucky Ltd,,Gambling,Gambling firms have lobbied against affordability checks.
,09876543,Oil,
`)
	return path
}

func TestLoadDonorCategories(t *testing.T) {
	donors := LoadDonorCategories(writeDonorCategories(t), utils.NewLogger(""))
	require.NotNil(t, donors)

	assert.Equal(t, "Gambling", donors.Categorise("Lucky Ltd", ""))
	assert.Equal(t, "Oil", donors.Categorise("Anything", "09876543"))
	assert.Equal(t, "", donors.Categorise("Unknown Plc", "11111111"))

	assert.Equal(t, "Gambling firms have lobbied against affordability checks.", donors.Sentence("Gambling"))
	assert.Equal(t, "", donors.Sentence("Oil"))
	assert.Equal(t, "", donors.Sentence("Unknown"))
}

func TestLoadDonorCategoriesMissingFileReturnsNil(t *testing.T) {
	donors := LoadDonorCategories(filepath.Join(t.TempDir(), "nope.csv"), utils.NewLogger(""))
	assert.Nil(t, donors)
}

func TestDonorCategoriesNilReceiver(t *testing.T) {
	var donors *DonorCategories
	assert.Equal(t, "", donors.Categorise("Lucky Ltd", ""))
	assert.Equal(t, "", donors.Sentence("Gambling"))
}

func TestLoadHospitalityFilters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "PublishedInterest-Category_3.csv")
	writeFile(t, path, `ID,MNIS ID,Value,PaymentDescription,DonorName,DonorCompanyIdentifier,Registered,AcceptedDate
h1,100,600,Tickets to the cup final,Lucky Ltd,,2024-09-01,2024-08-20
h2,100,450,Provision of legal advice on a media matter,Lawyers LLP,,2024-09-01,2024-08-20
h3,100,900,Dinner,Old Donor,,2024-03-01,2024-02-14
h4,100,120,Unregistered row,Ghost,,,2024-08-20
h5,200,300,Membership of the National Liberal Club,Club,,2024-09-01,2024-08-20
`)

	donors := LoadDonorCategories(writeDonorCategories(t), utils.NewLogger(""))
	rows, err := LoadHospitality(path, donors)
	require.NoError(t, err)

	// Legal advice, pre-cutoff, unregistered and club rows all drop.
	require.Len(t, rows, 1)
	assert.Equal(t, "h1", rows[0].RecordID)
	assert.Equal(t, 100, rows[0].MemberID)
	assert.Equal(t, 600.0, rows[0].Value)
	assert.Equal(t, "Gambling", rows[0].Category)
}

func TestCollateHospitality(t *testing.T) {
	path := filepath.Join(t.TempDir(), "PublishedInterest-Category_3.csv")
	writeFile(t, path, `ID,MNIS ID,Value,PaymentDescription,DonorName,DonorCompanyIdentifier,Registered,AcceptedDate
h1,100,600,Tickets,Lucky Ltd,,2024-09-01,2024-08-20
h2,100,2000,Box hire,Lucky Ltd,,2024-10-01,2024-09-20
h3,200,100,Book,Author,,2024-10-01,2024-09-20
`)

	ds := models.NewDataset()
	ds.Add(models.NewMP(100))
	ds.Add(models.NewMP(200))
	ds.Add(models.NewMP(300))

	donors := LoadDonorCategories(writeDonorCategories(t), utils.NewLogger(""))
	require.NoError(t, CollateHospitality(ds, path, donors, utils.NewLogger("")))

	heavy, _ := ds.Get(100)
	assert.Equal(t, 2600.0, heavy.Hospitality.Total)
	assert.Equal(t, 2, heavy.Hospitality.ExpensiveCount)
	assert.Equal(t, 2000.0, heavy.Hospitality.Max.Value)
	assert.Equal(t, []string{"Gambling"}, heavy.Hospitality.Categories)
	assert.Equal(t, 1.0, heavy.Rank("hospitality_total"))
	assert.Equal(t, 1.0, heavy.Rank("expensive_gifts"))

	none, _ := ds.Get(300)
	assert.Zero(t, none.Hospitality.Total)
	assert.Equal(t, 3.0, none.Rank("hospitality_total"))
}

func TestContainsFilteredTerm(t *testing.T) {
	assert.True(t, containsFilteredTerm("Provision of Legal Advice"))
	assert.True(t, containsFilteredTerm("membership of the national liberal club"))
	assert.False(t, containsFilteredTerm("Tickets to the cup final"))
}
