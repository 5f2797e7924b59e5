package synth

import (
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/sells-group/lead-finder/internal/extract"
	"github.com/sells-group/lead-finder/internal/model"
)

// Confidence tiers by how a lead was assembled.
const (
	ConfidenceContactPage      = 80
	ConfidenceHomePaired       = 75
	ConfidenceHomeUnpaired     = 60
	ConfidencePhoneOnlyContact = 65
	ConfidencePhoneOnly        = 50
)

// CompanyContactName labels the placeholder lead built from a phone number
// alone.
const CompanyContactName = "Company Contact"

var contactPathHints = []string{"contact", "kontakt", "get-in-touch", "reach-us"}

// ClassifyPage infers the page kind from the URL path.
func ClassifyPage(pageURL string) model.PageKind {
	raw := pageURL
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return model.PageKindOther
	}
	p := strings.ToLower(strings.Trim(u.Path, "/"))
	if p == "" || p == "index.html" || p == "home" {
		return model.PageKindHome
	}
	for _, hint := range contactPathHints {
		if strings.Contains(p, hint) {
			return model.PageKindContact
		}
	}
	return model.PageKindOther
}

func confidence(kind model.PageKind, paired bool) int {
	switch {
	case kind == model.PageKindContact:
		return ConfidenceContactPage
	case paired:
		return ConfidenceHomePaired
	default:
		return ConfidenceHomeUnpaired
	}
}

// Leads builds lead records from the contacts found on one page.
//
// Emails are zipped with phones by index; surplus emails reuse the first
// phone. When only phones were found a single placeholder lead with a
// contact@<domain> address is returned. Every lead is tagged as web-sourced.
func Leads(pageURL string, c extract.Contacts) []model.Lead {
	kind := ClassifyPage(pageURL)
	domain := DomainFromURL(pageURL)
	base := model.Lead{
		Company:  CompanyFromURL(pageURL),
		Website:  WebsiteFromURL(pageURL),
		Industry: IndustryFromURL(pageURL),
		Source:   model.SourceWeb,
	}

	profiles, companyPage := splitLinkedIn(c.LinkedIn)

	if len(c.Emails) == 0 {
		if len(c.Phones) == 0 || domain == "" {
			return nil
		}
		lead := base
		lead.ID = uuid.NewString()
		lead.Email = "contact@" + domain
		lead.Name = CompanyContactName
		lead.Phone = c.Phones[0]
		lead.LinkedIn = companyPage
		lead.ConfidenceScore = ConfidencePhoneOnly
		if kind == model.PageKindContact {
			lead.ConfidenceScore = ConfidencePhoneOnlyContact
		}
		return []model.Lead{lead}
	}

	leads := make([]model.Lead, 0, len(c.Emails))
	for i, email := range c.Emails {
		lead := base
		lead.ID = uuid.NewString()
		lead.Email = model.NormalizeEmail(email)
		lead.Name = NameFromEmail(email)

		switch {
		case i < len(c.Phones):
			lead.Phone = c.Phones[i]
		case len(c.Phones) > 0:
			lead.Phone = c.Phones[0]
		}

		if i < len(profiles) {
			lead.LinkedIn = profiles[i]
		} else {
			lead.LinkedIn = companyPage
		}

		lead.ConfidenceScore = confidence(kind, lead.Phone != "")
		leads = append(leads, lead)
	}
	return leads
}

// splitLinkedIn separates personal profiles from the first company page.
func splitLinkedIn(urls []string) (profiles []string, company string) {
	for _, u := range urls {
		if strings.Contains(strings.ToLower(u), "/company/") {
			if company == "" {
				company = u
			}
			continue
		}
		profiles = append(profiles, u)
	}
	return profiles, company
}
