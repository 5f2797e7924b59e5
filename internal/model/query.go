package model

import "strings"

// Filters narrows a lead search. Empty fields do not filter.
type Filters struct {
	Industry    string `json:"industry,omitempty"`
	JobTitle    string `json:"jobTitle,omitempty"`
	Location    string `json:"location,omitempty"`
	CompanySize string `json:"companySize,omitempty"`
}

// IsZero reports whether no filter is set.
func (f Filters) IsZero() bool {
	return f == Filters{}
}

// Match reports whether lead satisfies every set filter. Matching is a
// case-insensitive substring test; a lead with no value for a filtered
// attribute is kept, since absence is not a mismatch.
func (f Filters) Match(lead Lead) bool {
	if !containsFold(lead.Industry, f.Industry) {
		return false
	}
	if !containsFold(lead.Title, f.JobTitle) {
		return false
	}
	if !containsFold(lead.Location, f.Location) {
		return false
	}
	if f.CompanySize != "" {
		size := lead.Employees
		if size == "" {
			size = lead.CompanySize
		}
		if !containsFold(size, f.CompanySize) {
			return false
		}
	}
	return true
}

// Apply returns the leads matching f, in order.
func (f Filters) Apply(leads []Lead) []Lead {
	if f.IsZero() {
		return leads
	}
	out := make([]Lead, 0, len(leads))
	for _, l := range leads {
		if f.Match(l) {
			out = append(out, l)
		}
	}
	return out
}

func containsFold(have, want string) bool {
	if want == "" || have == "" {
		return true
	}
	return strings.Contains(strings.ToLower(have), strings.ToLower(strings.TrimSpace(want)))
}

// Query is a lead search request. Domain, when set, targets one company
// website instead of a free-text search.
type Query struct {
	Text    string  `json:"query"`
	Domain  string  `json:"domain,omitempty"`
	Filters Filters `json:"filters"`
	Limit   int     `json:"limit,omitempty"`
}

// Describe returns a short human-readable form of the query for prompts
// and logs.
func (q Query) Describe() string {
	if q.Text != "" {
		return q.Text
	}
	return q.Domain
}

// Truncate caps leads at the query limit. A zero limit keeps everything.
func (q Query) Truncate(leads []Lead) []Lead {
	if q.Limit > 0 && len(leads) > q.Limit {
		return leads[:q.Limit]
	}
	return leads
}
