package fabricate

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"unicode"

	"github.com/google/uuid"

	"github.com/sells-group/lead-finder/internal/model"
	"github.com/sells-group/lead-finder/internal/synth"
)

// Synthetic leads score in this range.
const (
	minSyntheticConfidence = 50
	maxSyntheticConfidence = 65
	defaultLeadCount       = 10
	maxLeadCount           = 500
)

// Generator fabricates plausible leads for a query.
type Generator struct {
	tables *Tables
}

// NewGenerator creates a Generator over the given tables.
func NewGenerator(t *Tables) *Generator {
	return &Generator{tables: t}
}

// Leads returns up to q.Limit synthetic leads honouring q's filters, never
// more than maxLeadCount. The same query always yields the same leads.
func (g *Generator) Leads(q model.Query) []model.Lead {
	n := q.Limit
	if n <= 0 {
		n = defaultLeadCount
	}
	n = min(n, maxLeadCount)
	f := q.Filters
	r := seeded(q.Text, q.Domain, f.Industry, f.JobTitle, f.Location, f.CompanySize)
	t := g.tables

	industry, table := t.Industry(f.Industry)
	if f.Industry == "" && q.Domain == "" {
		industry = t.industryNames[r.IntN(len(t.industryNames))]
		table = t.Industries[industry]
	}

	seen := make(map[string]bool, n)
	leads := make([]model.Lead, 0, n)
	for i := 0; len(leads) < n && i < n*4; i++ {
		first := pick(r, t.FirstNames)
		last := pick(r, t.LastNames)

		company, domain := g.company(r, q.Domain)

		email := model.NormalizeEmail(first + "." + last + "@" + domain)
		if seen[email] {
			continue
		}
		seen[email] = true

		title := f.JobTitle
		if title == "" {
			title = pick(r, table.Roles)
		}
		location := f.Location
		if location == "" {
			location = pick(r, t.Locations)
		}
		employees := f.CompanySize
		if employees == "" {
			employees = t.EmployeeBands[r.IntN(len(t.EmployeeBands))].Employees
		}
		leadIndustry := industry
		if f.Industry != "" && industry == fallbackIndustry {
			leadIndustry = f.Industry
		}

		leads = append(leads, model.Lead{
			ID:              uuid.NewSHA1(uuid.NameSpaceURL, []byte("synthetic:"+email)).String(),
			Email:           email,
			Name:            first + " " + last,
			Title:           title,
			Company:         company,
			Phone:           fmt.Sprintf("(%s) 555-%04d", pick(r, t.AreaCodes), r.IntN(10000)),
			LinkedIn:        fmt.Sprintf("https://linkedin.com/in/%s-%s-%04d", slug(first), slug(last), r.IntN(10000)),
			Website:         "https://" + domain,
			Industry:        leadIndustry,
			Location:        location,
			Employees:       employees,
			ConfidenceScore: minSyntheticConfidence + r.IntN(maxSyntheticConfidence-minSyntheticConfidence+1),
			Source:          model.SourceSynthetic,
		})
	}
	return leads
}

// company returns a company name and its domain. A fixed domain keeps the
// leads at that company.
func (g *Generator) company(r *rand.Rand, fixedDomain string) (string, string) {
	if d := synth.DomainFromURL(fixedDomain); d != "" {
		return synth.CompanyFromURL(d), d
	}
	prefix := pick(r, g.tables.CompanyPrefixes)
	suffix := pick(r, g.tables.CompanySuffixes)
	return prefix + " " + suffix, slug(prefix+suffix) + ".example.com"
}

// slug lower-cases s and drops anything but letters and digits.
func slug(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
