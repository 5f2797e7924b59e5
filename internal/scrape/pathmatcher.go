package scrape

import (
	"net/url"
	"path"
	"strings"
)

// defaultExcludePatterns skip pages that rarely carry contact details.
var defaultExcludePatterns = []string{
	"/blog/*",
	"/news/*",
	"/press/*",
	"/careers/*",
	"/jobs/*",
	"/cart/*",
	"/checkout/*",
	"/wp-content/*",
	"/*.pdf",
	"/*.jpg",
	"/*.png",
	"/*.zip",
}

// contactPaths are the pages tried when a whole domain is scraped.
var contactPaths = []string{"/", "/contact", "/contact-us", "/about", "/about-us", "/team"}

// PathMatcher filters URLs based on glob-style path patterns. "/blog/*"
// matches nested paths like "/blog/2024/post" too.
type PathMatcher struct {
	patterns []string
}

// NewPathMatcher creates a PathMatcher from glob patterns. Falls back to
// default patterns if none are provided.
func NewPathMatcher(patterns []string) *PathMatcher {
	if len(patterns) == 0 {
		patterns = defaultExcludePatterns
	}
	return &PathMatcher{patterns: patterns}
}

// Patterns returns the configured patterns.
func (m *PathMatcher) Patterns() []string {
	return m.patterns
}

// IsExcluded checks whether a URL matches any exclude pattern. Unparseable
// URLs are excluded.
func (m *PathMatcher) IsExcluded(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return true
	}
	p := strings.ToLower(u.Path)
	for _, pattern := range m.patterns {
		if matchSegmented(strings.ToLower(pattern), p) {
			return true
		}
	}
	return false
}

func matchSegmented(pattern, urlPath string) bool {
	if ok, _ := path.Match(pattern, urlPath); ok {
		return true
	}
	if strings.HasSuffix(pattern, "/*") {
		prefix := strings.TrimSuffix(pattern, "/*")
		if urlPath == prefix || strings.HasPrefix(urlPath, prefix+"/") {
			return true
		}
	}
	// "/*.pdf" should catch PDFs at any depth.
	if strings.HasPrefix(pattern, "/*.") {
		return strings.HasSuffix(urlPath, strings.TrimPrefix(pattern, "/*"))
	}
	return false
}

// ContactPages returns the candidate contact pages for a domain, which may
// be given bare ("acme.com") or as a URL. Excluded paths are dropped.
func (m *PathMatcher) ContactPages(domain string) []string {
	domain = strings.TrimSpace(domain)
	if domain == "" {
		return nil
	}
	if !strings.Contains(domain, "://") {
		domain = "https://" + domain
	}
	u, err := url.Parse(domain)
	if err != nil || u.Host == "" {
		return nil
	}
	base := u.Scheme + "://" + u.Host

	out := make([]string, 0, len(contactPaths))
	for _, p := range contactPaths {
		target := base + p
		if !m.IsExcluded(target) {
			out = append(out, target)
		}
	}
	return out
}
