package model

import "time"

// Subscriber is a mailing-list contact keyed by email.
type Subscriber struct {
	ID        string         `json:"id"`
	Email     string         `json:"email"`
	FirstName string         `json:"firstName,omitempty"`
	LastName  string         `json:"lastName,omitempty"`
	Status    string         `json:"status,omitempty"`
	Tags      []string       `json:"tags,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"createdAt,omitzero"`
	UpdatedAt time.Time      `json:"updatedAt,omitzero"`
}

// StatusActive is the default subscriber status.
const StatusActive = "active"

// SubscriberFromLead promotes a lead into a subscriber, keeping provenance
// and any enrichment attributes in metadata.
func SubscriberFromLead(lead Lead, tags []string) Subscriber {
	first, last := SplitName(lead.Name)

	meta := map[string]any{
		"source":     "lead-finder",
		"provenance": string(lead.Source),
	}
	set := func(k, v string) {
		if v != "" {
			meta[k] = v
		}
	}
	set("title", lead.Title)
	set("company", lead.Company)
	set("phone", lead.Phone)
	set("industry", lead.Industry)
	set("linkedin", lead.LinkedIn)
	set("website", lead.Website)
	set("location", lead.Location)
	set("education", lead.Education)
	set("revenue", lead.Revenue)
	set("companySize", lead.CompanySize)
	if len(lead.Technologies) > 0 {
		meta["technologies"] = lead.Technologies
	}
	if lead.ConfidenceScore > 0 {
		meta["confidenceScore"] = lead.ConfidenceScore
	}

	return Subscriber{
		Email:     NormalizeEmail(lead.Email),
		FirstName: first,
		LastName:  last,
		Status:    StatusActive,
		Tags:      tags,
		Metadata:  meta,
	}
}

// SplitName splits a display name into first name and the remainder.
func SplitName(name string) (first, last string) {
	if name == "" || name == "Unknown" {
		return "", ""
	}
	for i, r := range name {
		if r == ' ' {
			return name[:i], name[i+1:]
		}
	}
	return name, ""
}
