package generate

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/lead-finder/internal/model"
)

const leadFields = `"name", "email", "title", "company", "phone", "linkedin", "website", "industry", "location", "employees"`

// LeadPrompt builds the instruction asking for leads that match q. Filters
// are folded into the sentence.
func LeadPrompt(q model.Query) string {
	limit := q.Limit
	if limit <= 0 {
		limit = 10
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Find %d business contacts", limit)
	if q.Domain != "" {
		fmt.Fprintf(&b, " who work at the company whose website is %s", q.Domain)
	}
	if q.Text != "" {
		fmt.Fprintf(&b, " matching %q", q.Text)
	}
	b.WriteString(".")

	f := q.Filters
	if f.Industry != "" {
		fmt.Fprintf(&b, " Industry: %s.", f.Industry)
	}
	if f.JobTitle != "" {
		fmt.Fprintf(&b, " Job title: %s.", f.JobTitle)
	}
	if f.Location != "" {
		fmt.Fprintf(&b, " Location: %s.", f.Location)
	}
	if f.CompanySize != "" {
		fmt.Fprintf(&b, " Company size: %s employees.", f.CompanySize)
	}

	fmt.Fprintf(&b, "\n\nReturn a JSON array of objects with the keys %s.", leadFields)
	b.WriteString(" Use real, publicly listed business contacts only. Leave a key empty if it is unknown.")
	return b.String()
}

// EnrichPrompt builds the instruction asking the model to return leads
// with their secondary attributes filled in. Scores are requested within
// [minScore, maxScore].
func EnrichPrompt(leads []model.Lead, minScore, maxScore int) (string, error) {
	payload, err := json.Marshal(leads)
	if err != nil {
		return "", eris.Wrap(err, "generate: marshal leads")
	}

	var b strings.Builder
	b.WriteString("Enrich each of the following leads. Return the same JSON array with the same \"id\" values, ")
	b.WriteString("adding \"personalEmail\", \"directPhone\", \"mobile\", \"education\", \"previousCompanies\" (array), ")
	b.WriteString("\"technologies\" (array), \"founded\", \"revenue\", \"companySize\", \"interests\" (array) ")
	fmt.Fprintf(&b, "and \"confidenceScore\" (an integer between %d and %d). ", minScore, maxScore)
	b.WriteString("Do not remove or change existing values.\n\n")
	b.Write(payload)
	return b.String(), nil
}
