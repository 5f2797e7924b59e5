package fabricate

import (
	"fmt"

	"github.com/sells-group/lead-finder/internal/extract"
	"github.com/sells-group/lead-finder/internal/model"
	"github.com/sells-group/lead-finder/internal/synth"
)

// Enrichment returns a copy of lead with every enrichment attribute
// fabricated from the lead's industry, employee count, phone and name.
// Existing values are ignored here; merging is the caller's concern.
// The result is deterministic per email.
func (t *Tables) Enrichment(lead model.Lead) model.Lead {
	r := seeded("enrich", lead.Email)
	_, table := t.Industry(lead.Industry)

	band, ok := t.BandFor(lead.Employees)
	if !ok {
		band, ok = t.BandFor(lead.CompanySize)
	}
	if !ok {
		band = t.EmployeeBands[r.IntN(len(t.EmployeeBands))]
	}

	out := lead
	out.Technologies = pickN(r, table.Technologies, 3+r.IntN(2))
	out.PreviousCompanies = pickN(r, table.PreviousCompanies, 1+r.IntN(2))
	out.Interests = pickN(r, table.Interests, 2+r.IntN(2))
	out.Revenue = band.Revenue
	out.CompanySize = band.CompanySize
	if band.FoundedMax >= band.FoundedMin && band.FoundedMin > 0 {
		out.Founded = fmt.Sprint(band.FoundedMin + r.IntN(band.FoundedMax-band.FoundedMin+1))
	}
	out.Education = pick(r, t.Degrees) + ", " + pick(r, t.Universities)

	if area := extract.AreaCode(lead.Phone); area != "" {
		out.DirectPhone = fmt.Sprintf("+1 (%s) 555-%04d", area, r.IntN(10000))
		out.Mobile = fmt.Sprintf("+1 (%s) 555-%04d", area, r.IntN(10000))
	}

	first, last := model.SplitName(lead.Name)
	if first != "" && lead.Name != synth.CompanyContactName {
		local := slug(first)
		if last != "" {
			local += "." + slug(last)
		}
		out.PersonalEmail = fmt.Sprintf("%s%d@%s", local, 10+r.IntN(90), pick(r, t.PersonalDomains))
	}

	out.EnrichedBy = model.SourceSynthetic
	return out
}
