package model

import (
	"regexp"
	"strings"
	"time"
)

// Source records where a lead came from.
type Source string

const (
	SourceStore     Source = "store"
	SourceWeb       Source = "web"
	SourceAI        Source = "ai"
	SourceSynthetic Source = "synthetic"
	SourceImport    Source = "import"
)

// Stage is a state of the lead search fallback chain.
type Stage string

const (
	StageSearchingStore Stage = "searching_store"
	StageSearchingWeb   Stage = "searching_web"
	StageGeneratingAI   Stage = "generating_ai"
	StageLocalFallback  Stage = "local_fallback"
	StageDone           Stage = "done"
)

// Lead is a candidate contact record.
type Lead struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name,omitempty"`
	Title     string `json:"title,omitempty"`
	Company   string `json:"company,omitempty"`
	Phone     string `json:"phone,omitempty"`
	LinkedIn  string `json:"linkedin,omitempty"`
	Website   string `json:"website,omitempty"`
	Industry  string `json:"industry,omitempty"`
	Location  string `json:"location,omitempty"`
	Employees string `json:"employees,omitempty"`

	// Enrichment-only fields.
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
	ConfidenceScore   int      `json:"confidenceScore,omitempty"`

	Source     Source    `json:"source,omitempty"`
	EnrichedBy Source    `json:"enrichedBy,omitempty"`
	CreatedAt  time.Time `json:"createdAt,omitzero"`
	UpdatedAt  time.Time `json:"updatedAt,omitzero"`
}

// IsSynthetic reports whether the lead was fabricated locally.
func (l Lead) IsSynthetic() bool {
	return l.Source == SourceSynthetic
}

var emailRe = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// ValidEmail reports whether s has a local@domain.tld shape.
func ValidEmail(s string) bool {
	return emailRe.MatchString(strings.TrimSpace(s))
}

// NormalizeEmail trims and lower-cases an email address.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// ClampConfidence bounds a score to 0-100.
func ClampConfidence(score int) int {
	switch {
	case score < 0:
		return 0
	case score > 100:
		return 100
	}
	return score
}
