package store

import (
	"encoding/json"
	"slices"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/sells-group/lead-finder/internal/model"
)

// leadColumns is the column order used for every lead insert and select.
var leadColumns = []string{
	"id", "email", "name", "title", "company", "phone", "linkedin", "website",
	"industry", "location", "employees", "details", "source", "enriched_by",
	"confidence_score", "created_at", "updated_at",
}

// leadSearchColumns are matched by SearchOptions.Text.
var leadSearchColumns = []string{"name", "company", "title", "industry", "location"}

// leadConflict keeps id and created_at of an existing row and replaces
// everything else with the incoming values.
var leadConflict = func() string {
	var sets []string
	for _, c := range leadColumns {
		if c == "id" || c == "email" || c == "created_at" {
			continue
		}
		sets = append(sets, c+" = EXCLUDED."+c)
	}
	return "ON CONFLICT (email) DO UPDATE SET " + strings.Join(sets, ", ") + " RETURNING id"
}()

// leadDetails holds the enrichment-only attributes, stored as one JSON
// document per row.
type leadDetails struct {
	PersonalEmail     string   `json:"personalEmail,omitempty"`
	DirectPhone       string   `json:"directPhone,omitempty"`
	Mobile            string   `json:"mobile,omitempty"`
	Education         string   `json:"education,omitempty"`
	PreviousCompanies []string `json:"previousCompanies,omitempty"`
	Technologies      []string `json:"technologies,omitempty"`
	Founded           string   `json:"founded,omitempty"`
	Revenue           string   `json:"revenue,omitempty"`
	CompanySize       string   `json:"companySize,omitempty"`
	Interests         []string `json:"interests,omitempty"`
}

func detailsJSON(l model.Lead) (string, error) {
	b, err := json.Marshal(leadDetails{
		PersonalEmail:     l.PersonalEmail,
		DirectPhone:       l.DirectPhone,
		Mobile:            l.Mobile,
		Education:         l.Education,
		PreviousCompanies: l.PreviousCompanies,
		Technologies:      l.Technologies,
		Founded:           l.Founded,
		Revenue:           l.Revenue,
		CompanySize:       l.CompanySize,
		Interests:         l.Interests,
	})
	if err != nil {
		return "", eris.Wrap(err, "store: marshal lead details")
	}
	return string(b), nil
}

func applyDetails(l *model.Lead, raw []byte) error {
	if len(raw) == 0 {
		return nil
	}
	var d leadDetails
	if err := json.Unmarshal(raw, &d); err != nil {
		return eris.Wrapf(err, "store: unmarshal details for lead %s", l.ID)
	}
	l.PersonalEmail = d.PersonalEmail
	l.DirectPhone = d.DirectPhone
	l.Mobile = d.Mobile
	l.Education = d.Education
	l.PreviousCompanies = d.PreviousCompanies
	l.Technologies = d.Technologies
	l.Founded = d.Founded
	l.Revenue = d.Revenue
	l.CompanySize = d.CompanySize
	l.Interests = d.Interests
	return nil
}

// upsertLead builds the insert-or-update for one lead. Timestamps are
// passed in already encoded for the target driver.
// upsertLead builds the insert for l under a fresh id. The caller's id is
// never written: a conflicting email keeps the stored id, which RETURNING
// reports.
func upsertLead(ph sq.PlaceholderFormat, l model.Lead, details string, created, updated any) (string, []any, error) {
	q, args, err := sq.Insert("leads").
		Columns(leadColumns...).
		Values(
			uuid.NewString(), l.Email, l.Name, l.Title, l.Company, l.Phone, l.LinkedIn, l.Website,
			l.Industry, l.Location, l.Employees, details, string(l.Source), string(l.EnrichedBy),
			l.ConfidenceScore, created, updated,
		).
		Suffix(leadConflict).
		PlaceholderFormat(ph).
		ToSql()
	if err != nil {
		return "", nil, eris.Wrap(err, "store: build lead upsert")
	}
	return q, args, nil
}

// searchLeads builds the lead search. match turns a column and pattern into
// the driver's case-insensitive substring predicate.
func searchLeads(ph sq.PlaceholderFormat, opts SearchOptions, match func(col, pattern string) sq.Sqlizer) (string, []any, error) {
	b := sq.Select(leadColumns...).From("leads")

	if text := strings.TrimSpace(opts.Text); text != "" {
		pattern := "%" + escapeLike(text) + "%"
		var or sq.Or
		for _, c := range leadSearchColumns {
			or = append(or, match(c, pattern))
		}
		b = b.Where(or)
	}
	if opts.ExcludeSynthetic {
		b = b.Where(sq.NotEq{"source": string(model.SourceSynthetic)})
	}

	q, args, err := b.OrderBy("created_at DESC").
		Limit(limitOrDefault(opts.Limit)).
		PlaceholderFormat(ph).
		ToSql()
	if err != nil {
		return "", nil, eris.Wrap(err, "store: build lead search")
	}
	return q, args, nil
}

func getLeads(ph sq.PlaceholderFormat, ids []string) (string, []any, error) {
	q, args, err := sq.Select(leadColumns...).
		From("leads").
		Where(sq.Eq{"id": ids}).
		PlaceholderFormat(ph).
		ToSql()
	if err != nil {
		return "", nil, eris.Wrap(err, "store: build lead get")
	}
	return q, args, nil
}

// orderByIDs sorts leads into the order their ids appear in ids.
func orderByIDs(leads []model.Lead, ids []string) []model.Lead {
	slices.SortStableFunc(leads, func(a, b model.Lead) int {
		return slices.Index(ids, a.ID) - slices.Index(ids, b.ID)
	})
	return leads
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`).Replace(s)
}
