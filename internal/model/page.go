package model

// PageKind classifies a scraped page by where contacts on it usually come from.
type PageKind string

const (
	PageKindHome    PageKind = "home"
	PageKindContact PageKind = "contact"
	PageKindOther   PageKind = "other"
)

// Page represents a fetched web page.
type Page struct {
	URL        string   `json:"url"`
	Title      string   `json:"title"`
	Markdown   string   `json:"markdown"`
	HTML       string   `json:"html,omitempty"`
	Links      []string `json:"links,omitempty"`
	StatusCode int      `json:"status_code"`
}

// Content returns the richest body available for contact extraction.
// Raw HTML is preferred because mailto: and tel: anchors survive in it.
func (p Page) Content() string {
	if p.HTML != "" {
		return p.HTML
	}
	return p.Markdown
}
