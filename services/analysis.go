package services

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"mp-watch/models"
	"mp-watch/utils"
)

// Division IDs referenced by analysis rules.
const (
	voteWinterFuel    = "1841" // Winter Fuel Payment
	voteRentersRights = "1905" // Renters' Rights Bill
	voteUCPIP         = "2074" // UC and PIP Bill second reading
)

// Rental income only has to be registered above £10k per property per year,
// so counts convert to a conservative annual floor.
const rentalIncomeFloor = 10000

// Analysis domain names, in canonical order.
const (
	DomainProperty    = "Property"
	DomainHospitality = "Hospitality"
	DomainOther       = "Other"
	DomainEarnings    = "Outside Earnings"
)

// Analyzer derives narratives and interest scores from collated MP records.
// Each domain is a pure function of one record plus the read-only donor
// reference; a malformed record degrades to an empty narrative and zero
// score, never an error.
type Analyzer struct {
	logger *utils.Logger
	donors *DonorCategories
}

// NewAnalyzer creates an Analyzer. donors may be nil.
func NewAnalyzer(logger *utils.Logger, donors *DonorCategories) *Analyzer {
	return &Analyzer{logger: logger, donors: donors}
}

// Analyse runs every domain for every MP, sums the composite score and
// renders the infobox HTML.
func (a *Analyzer) Analyse(ds *models.Dataset) {
	for _, mp := range ds.All() {
		mp.Analyses = []models.DomainResult{
			a.PropertyDomain(mp),
			a.HospitalityDomain(mp),
			a.OtherDomain(mp),
			a.EarningsDomain(mp),
		}

		mp.InterestingScore = 0
		for _, d := range mp.Analyses {
			mp.InterestingScore += d.Score
		}

		mp.InfoboxHTML = RenderInfobox(mp)
	}
	a.logger.Info("[analyse] Scored %d MPs across %d domains", ds.Len(), 4)
}

// BasicInfo is the identity line at the top of every infobox.
func BasicInfo(mp *models.MP) string {
	return fmt.Sprintf("%s, %s MP for %s\n", mp.Name, mp.Party, mp.Constituency)
}

// PropertyDomain covers landlordism, the Renters' Rights vote,
// accommodation expenses and utility claims.
func (a *Analyzer) PropertyDomain(mp *models.MP) models.DomainResult {
	var lines []string
	var score float64

	if mp.IsLandlord {
		rentalValue := mp.RentalProperties * rentalIncomeFloor

		if mp.VoteFlags[voteRentersRights] {
			lines = append(lines, fmt.Sprintf("%s is a landlord who used his!her power as an MP to vote against the Renters' Rights Bill, which was designed to strengthen the rights of his!her tenants, protecting them from unfair eviction.", mp.Name))
			if mp.RentalProperties == 1 {
				lines = append(lines, fmt.Sprintf("He!She is taking in at least £%s per year from his!her tenants.", formatInt(rentalValue)))
			} else {
				lines = append(lines, fmt.Sprintf("He!She has %d listed rental properties, which bring in at least £%s per year.", mp.RentalProperties, formatInt(rentalValue)))
			}
			score += 5
		} else {
			if mp.RentalProperties == 1 {
				lines = append(lines, fmt.Sprintf("%s is a landlord — he!she is taking in at least £%s per year from his!her tenants.", mp.Name, formatInt(rentalValue)))
			} else {
				lines = append(lines, fmt.Sprintf("%s is a landlord — he!she has %d listed rental properties, which bring in at least £%s per year.", mp.Name, mp.RentalProperties, formatInt(rentalValue)))
			}
			score += 2
		}

		if mp.RentalProperties > 2 {
			score += 1
		} else if mp.RentalProperties == 2 {
			score += 0.5
		}
	} else if mp.VoteFlags[voteRentersRights] {
		lines = append(lines, fmt.Sprintf("%s voted against the Renters' Rights Bill, which would have improved tenant rights.", mp.Name))
		score += 1
	}

	accommodation := mp.ExpenseCategory("Accommodation")
	if accommodation > 10000 {
		lines = append(lines, fmt.Sprintf("He!She has claimed £%s in accommodation expenses since the last election.", formatMoney(accommodation)))
		score += 0.5
		if rank := mp.Rank("expenses_Accommodation"); rank >= 1 && rank <= 25 {
			lines = append(lines, fmt.Sprintf("This means he!she ranks at #%.0f for most expensive accommodation charges to the taxpayer.", rank))
			score += 1
		} else if mp.Percentile("expenses_Accommodation") > 0.9 {
			lines = append(lines, "This places him!her in the top 10% of MPs for accommodation expenses.")
			score += 0.5
		}
	}

	if mp.ClaimedForUtilities {
		if mp.VoteFlags[voteWinterFuel] {
			lines = append(lines, "He!She has claimed for his!her utility bills to be paid by the taxpayer. Even so, in 2024 he!she voted to abolish universal winter fuel payments for 10 million pensioners. 2.5 million of these pensioners had 'incomes below levels needed for a dignified life', according to the Centre for Ageing Better.")
			score += 2
		}

		if mp.CleaningClaimed > 0 {
			lines = append(lines, fmt.Sprintf("He!She has claimed £%s for utility bills and £%s for cleaning services for his!her personal accommodation.", formatMoney(mp.UtilitiesClaimed), formatMoney(mp.CleaningClaimed)))
			score += 1
		} else {
			lines = append(lines, fmt.Sprintf("He!She has claimed £%s for utility bills for his!her personal accommodation.", formatMoney(mp.UtilitiesClaimed)))
			score += 0.5
		}
	} else if mp.CleaningClaimed > 0 {
		lines = append(lines, fmt.Sprintf("He!She has claimed £%s for cleaning services for his!her personal accommodation.", formatMoney(mp.CleaningClaimed)))
		score += 0.5
	}

	return models.DomainResult{
		Name:      DomainProperty,
		Narrative: strings.Join(lines, "\n"),
		Score:     score,
	}
}

// HospitalityDomain summarises gifts and hospitality received, weighting
// expensive gifts, total value and the spread of donor categories.
func (a *Analyzer) HospitalityDomain(mp *models.MP) models.DomainResult {
	h := mp.Hospitality

	score := float64(h.ExpensiveCount)*0.5 +
		math.Floor(h.Total/1000)*0.5 +
		float64(h.CategoryCount())*0.5

	var lines []string
	if h.Total > 0 {
		lines = append(lines, fmt.Sprintf("%s has received a total of £%s in hospitality and gifts since the last election.", mp.Name, formatMoney(h.Total)))

		if rank := mp.Rank("hospitality_total"); rank >= 1 && rank <= 25 {
			lines = append(lines, fmt.Sprintf("This means he!she ranks at #%.0f for most hospitality received.", rank))
		} else if mp.Percentile("hospitality_total") > 0.9 {
			lines = append(lines, "This places him!her in the top 10% of MPs for hospitality received.")
		}

		if h.Max.Value > 0 {
			lines = append(lines, fmt.Sprintf("The most expensive declaration was worth £%s, described as '%s' from %s.", formatMoney(h.Max.Value), h.Max.Description, h.Max.Donor))
		}

		if h.ExpensiveCount > 1 {
			lines = append(lines, fmt.Sprintf("He!She has received %d gifts valued at over £%d.", h.ExpensiveCount, ExpensiveThreshold))
		}

		if h.CategoryCount() > 0 {
			lines = append(lines, fmt.Sprintf("He!She has declared gifts or hospitality from %s", listSentence(h.Categories)))
			for _, cat := range h.Categories {
				if sentence := a.donors.Sentence(cat); sentence != "" {
					lines = append(lines, sentence)
				}
			}
		}
	}

	return models.DomainResult{
		Name:      DomainHospitality,
		Narrative: strings.Join(lines, "\n"),
		Score:     score,
	}
}

// Expense categories itemised in the overall-expenses breakdown.
var breakdownCategories = []string{"Accommodation", "Office Costs", "Staffing", "Miscellaneous"}

// OtherDomain covers the overall expenses picture plus vote-based rules not
// tied to another domain.
func (a *Analyzer) OtherDomain(mp *models.MP) models.DomainResult {
	var lines []string
	var score float64

	if mp.ExpensesTotal > 0 {
		lines = append(lines, fmt.Sprintf("%s has claimed a total of £%s in expenses since the last election.", mp.Name, formatMoney(mp.ExpensesTotal)))

		if rank := mp.Rank("expenses_total"); rank >= 1 && rank <= 25 {
			lines = append(lines, fmt.Sprintf("This means he!she ranks at #%.0f for most expenses claimed.", rank))
		} else if mp.Percentile("expenses_total") > 0.9 {
			lines = append(lines, "This places him!her in the top 10% of MPs for expenses claimed.")
		}

		var nonzero []string
		for _, cat := range breakdownCategories {
			if mp.ExpenseCategory(cat) > 0 {
				nonzero = append(nonzero, cat)
			}
		}

		if len(nonzero) == 1 {
			lines = append(lines, fmt.Sprintf("His!Her expense total all comes from %s.", categoryCosts(nonzero[0])))
		} else if len(nonzero) > 1 {
			parts := make([]string, len(nonzero))
			for i, cat := range nonzero {
				parts[i] = fmt.Sprintf("£%s in %s", formatMoney(mp.ExpenseCategory(cat)), categoryCosts(cat))
			}
			lines = append(lines, fmt.Sprintf("His!Her expense total comes from %s and %s.",
				strings.Join(parts[:len(parts)-1], ", "), parts[len(parts)-1]))
		}
	}

	if !mp.ClaimedForUtilities && mp.VoteFlags[voteWinterFuel] {
		lines = append(lines, "In 2024, he!she voted to abolish universal winter fuel payments for 10 million pensioners. 2.5 million of these pensioners had 'incomes below levels needed for a dignified life', according to the Centre for Ageing Better.")
		score += 0.5
	}

	if mp.VoteFlags[voteUCPIP] {
		lines = append(lines, "He!She voted in support of the UC and PIP bill, which will cut the universal credit allowance for many disabled people by £2,080 per year.")
		score += 2
	}

	return models.DomainResult{
		Name:      DomainOther,
		Narrative: strings.Join(lines, "\n"),
		Score:     score,
	}
}

// EarningsDomain summarises income earned outside Parliament.
func (a *Analyzer) EarningsDomain(mp *models.MP) models.DomainResult {
	var lines []string
	var score float64

	if mp.OutsideEarnings > 0 {
		lines = append(lines, fmt.Sprintf("In addition to his!her parliamentary income, %s has earned £%s since the last election.", mp.Name, formatMoney(mp.OutsideEarnings)))

		if rank := mp.Rank("outside_earnings"); rank >= 1 && rank <= 25 {
			lines = append(lines, fmt.Sprintf("This means he!she ranks at #%.0f for most outside earnings.", rank))
			score += 2.5
		} else if mp.Percentile("outside_earnings") > 0.9 {
			lines = append(lines, "This places him!her in the top 10% of MPs for outside earnings.")
			score += 1
		}

		if mp.EarningsSources == 1 {
			lines = append(lines, fmt.Sprintf("He!She earned all of this money from %s, and his!her role was described as %s.", mp.TopEarnings.Payer, mp.TopEarnings.Role))
		} else {
			lines = append(lines, fmt.Sprintf("His!Her largest income source outside Parliament was %s, where he!she earned £%s, with his!her role described as '%s'.", mp.TopEarnings.Payer, formatMoney(mp.TopEarnings.Value), mp.TopEarnings.Role))
		}
	}

	return models.DomainResult{
		Name:      DomainEarnings,
		Narrative: strings.Join(lines, "\n"),
		Score:     score,
	}
}

// categoryCosts turns a category name into its breakdown phrasing, folding
// doubled "costs" ("office costs costs" reads badly).
func categoryCosts(category string) string {
	s := strings.ToLower(category) + " costs"
	return strings.ReplaceAll(s, "costs costs", "costs")
}

// listSentence joins labels as prose: "a.", "a and b.", "a, b and c.".
func listSentence(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0] + "."
	default:
		return strings.Join(items[:len(items)-1], ", ") + " and " + items[len(items)-1] + "."
	}
}

// formatMoney renders a monetary amount with thousands separators and no
// decimal places.
func formatMoney(v float64) string {
	return formatInt(int(math.Round(v)))
}

func formatInt(n int) string {
	neg := n < 0
	if neg {
		n = -n
	}
	s := strconv.Itoa(n)

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
		if len(s) > lead {
			b.WriteByte(',')
		}
	}
	for i := lead; i < len(s); i += 3 {
		b.WriteString(s[i : i+3])
		if i+3 < len(s) {
			b.WriteByte(',')
		}
	}
	return b.String()
}
