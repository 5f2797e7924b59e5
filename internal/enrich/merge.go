package enrich

import (
	"github.com/sells-group/lead-finder/internal/model"
)

// merge folds update into base. A blank base field is filled. A field
// previously fabricated locally may be replaced by a fresher value. A
// blank update never clears anything, and id, email and provenance are
// always kept from base. A lead once enriched by the model stays labelled
// so when a later local pass only fills gaps.
func merge(base, update model.Lead) model.Lead {
	out := base
	replace := base.EnrichedBy == model.SourceSynthetic

	fill := func(dst *string, v string) {
		if v != "" && *dst == "" {
			*dst = v
		}
	}
	refresh := func(dst *string, v string) {
		if v != "" && (*dst == "" || replace) {
			*dst = v
		}
	}
	refreshList := func(dst *[]string, v []string) {
		if len(v) > 0 && (len(*dst) == 0 || replace) {
			*dst = v
		}
	}

	fill(&out.Name, update.Name)
	fill(&out.Title, update.Title)
	fill(&out.Company, update.Company)
	fill(&out.Phone, update.Phone)
	fill(&out.LinkedIn, update.LinkedIn)
	fill(&out.Website, update.Website)
	fill(&out.Industry, update.Industry)
	fill(&out.Location, update.Location)
	fill(&out.Employees, update.Employees)

	refresh(&out.PersonalEmail, update.PersonalEmail)
	refresh(&out.DirectPhone, update.DirectPhone)
	refresh(&out.Mobile, update.Mobile)
	refresh(&out.Education, update.Education)
	refresh(&out.Founded, update.Founded)
	refresh(&out.Revenue, update.Revenue)
	refresh(&out.CompanySize, update.CompanySize)
	refreshList(&out.PreviousCompanies, update.PreviousCompanies)
	refreshList(&out.Technologies, update.Technologies)
	refreshList(&out.Interests, update.Interests)

	if base.EnrichedBy != model.SourceAI {
		out.EnrichedBy = update.EnrichedBy
	}
	return out
}
