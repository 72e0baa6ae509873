package services

import (
	"fmt"
	"sort"
	"strings"

	"mp-watch/models"
)

// Bolded headings per analysis domain in the rendered infobox.
var domainHeadings = map[string]string{
	DomainProperty:    "Housing and Accommodation",
	DomainHospitality: "Hospitality and Gifts",
	DomainOther:       "Other Information",
	DomainEarnings:    "Outside Earnings",
}

// The lobbying sub-heading is inserted immediately before the sentence that
// discloses donor categories, splitting lobbying content out of the general
// hospitality narrative. Matching on the sentence opening (rather than
// position) keeps the rule robust if surrounding narrative changes.
const donorDisclosurePattern = "He!She has declared gifts or hospitality from"

const lobbyingMarker = "</p><p align='left'><strong>Lobbying:</strong></p>\n<p align='left'>"

// RenderInfobox builds the per-MP HTML fragment: thumbnail and identity,
// then each non-empty domain narrative in descending score order under its
// heading, the lobbying marker, register links, and finally pronoun
// rendering. The fragment is embedded directly by the presentation layer.
func RenderInfobox(mp *models.MP) string {
	var b strings.Builder

	thumbnail := ""
	if mp.Thumbnail != "" {
		thumbnail = fmt.Sprintf(`<img src="%s" alt="%s thumbnail" style="width: 100px; height: auto;">`,
			mp.Thumbnail, mp.Name)
	}

	b.WriteString(fmt.Sprintf(`
        <table style="width: 100%%; border-collapse: collapse;">
            <tr>
                <td style="width: 120px; vertical-align: top;">%s</td>
                <td style="vertical-align: top;">%s</td>
            </tr>
        </table>
    `, thumbnail, BasicInfo(mp)))

	// Descending score; stable, so equal scores keep domain order.
	ordered := make([]models.DomainResult, len(mp.Analyses))
	copy(ordered, mp.Analyses)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Score > ordered[j].Score
	})

	for _, d := range ordered {
		if len(d.Narrative) == 0 {
			continue
		}
		text := strings.ReplaceAll(d.Narrative, "\n", "<br>\n")
		content := fmt.Sprintf("<p align='left'>%s</p>", text)
		if heading, ok := domainHeadings[d.Name]; ok {
			content = fmt.Sprintf("<p align='left'><strong>%s:</strong> %s</p>", heading, content)
		}
		b.WriteString("\n")
		b.WriteString(content)
	}

	html := b.String()
	if mp.Hospitality.CategoryCount() > 0 {
		html = insertMarkerBefore(html, donorDisclosurePattern, lobbyingMarker)
	}

	html += fmt.Sprintf(`
    <p align="right">You can get more detail from IPSA or Parliament about his!her
    <a href="https://www.theipsa.org.uk/mp-staffing-business-costs/your-mp/x/%d" target="_blank">expenses</a> and
    <a href="https://members.parliament.uk/member/%d/registeredinterests" target="_blank">financial interests</a>.</p>
    `, mp.ID, mp.ID)

	return RenderPronouns(html, mp.Gender)
}

// insertMarkerBefore inserts marker immediately before the first sentence
// matching the given opening pattern. Text without a match is returned
// unchanged.
func insertMarkerBefore(text, pattern, marker string) string {
	idx := strings.Index(text, pattern)
	if idx < 0 {
		return text
	}
	return text[:idx] + marker + text[idx:]
}
