// Package synth turns extracted contact fragments into lead records using
// naming and URL heuristics.
package synth

import (
	"net/url"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const unknownName = "Unknown"

// NameFromEmail guesses a display name from an email local part.
// "john.doe@x.com" and "john_doe@x.com" become "John Doe", "johnDoe@x.com"
// becomes "John Doe" and "jsmith@x.com" becomes "Jsmith". Input without an
// @ yields "Unknown".
func NameFromEmail(email string) string {
	at := strings.IndexByte(email, '@')
	if at <= 0 {
		return unknownName
	}
	local := email[:at]
	if i := strings.IndexByte(local, '+'); i > 0 {
		local = local[:i]
	}

	var parts []string
	if strings.ContainsAny(local, "._") {
		parts = strings.FieldsFunc(local, func(r rune) bool { return r == '.' || r == '_' })
	} else {
		parts = splitCamel(local)
	}
	if len(parts) == 0 {
		return unknownName
	}

	caser := cases.Title(language.English)
	for i, p := range parts {
		parts[i] = caser.String(p)
	}
	return strings.Join(parts, " ")
}

// splitCamel splits on lower-to-upper transitions: "johnDoe" -> [john Doe].
func splitCamel(s string) []string {
	var parts []string
	start := 0
	runes := []rune(s)
	for i := 1; i < len(runes); i++ {
		if unicode.IsUpper(runes[i]) && unicode.IsLower(runes[i-1]) {
			parts = append(parts, string(runes[start:i]))
			start = i
		}
	}
	if start < len(runes) {
		parts = append(parts, string(runes[start:]))
	}
	return parts
}

// Second-level labels that sit under a country code, as in acme.co.uk.
var secondLevel = map[string]bool{
	"co": true, "com": true, "org": true, "net": true, "gov": true, "ac": true, "edu": true,
}

// hostOf returns the lower-cased host of rawURL without a leading www.
// Scheme-less input such as "acme.com/about" is accepted.
func hostOf(rawURL string) string {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return ""
	}
	if !strings.Contains(rawURL, "://") {
		rawURL = "https://" + rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	return strings.TrimPrefix(host, "www.")
}

// DomainFromURL returns the registrable domain of rawURL, e.g.
// "https://blog.acme.co.uk/x" -> "acme.co.uk". It returns "" when no host
// can be parsed.
func DomainFromURL(rawURL string) string {
	host := hostOf(rawURL)
	if host == "" {
		return ""
	}
	labels := strings.Split(host, ".")
	n := len(labels)
	if n <= 2 {
		return host
	}
	if len(labels[n-1]) == 2 && secondLevel[labels[n-2]] {
		return strings.Join(labels[n-3:], ".")
	}
	return strings.Join(labels[n-2:], ".")
}

// WebsiteFromURL returns the site root of rawURL as https://host.
func WebsiteFromURL(rawURL string) string {
	host := hostOf(rawURL)
	if host == "" {
		return ""
	}
	return "https://" + host
}

// CompanyFromURL names a company after the first label of its domain:
// "https://www.acme.com/about" -> "Acme".
func CompanyFromURL(rawURL string) string {
	domain := DomainFromURL(rawURL)
	if domain == "" {
		return unknownName
	}
	label, _, _ := strings.Cut(domain, ".")
	return cases.Title(language.English).String(label)
}

// Industry buckets in match order.
var industryKeywords = []struct {
	industry string
	keywords []string
}{
	{"Technology", []string{"tech", "soft", "digital", "cloud", "data", "cyber", "app", "dev", "code", "labs"}},
	{"Healthcare", []string{"health", "medical", "clinic", "pharma", "dental", "hospital", "wellness"}},
	{"Finance", []string{"finance", "financial", "bank", "capital", "invest", "wealth", "insur", "credit", "fund"}},
	{"Retail", []string{"shop", "store", "retail", "ecommerce", "boutique", "outlet", "goods"}},
}

// IndustryFromURL guesses an industry from keywords anywhere in the URL.
// Unmatched URLs are "Other".
func IndustryFromURL(rawURL string) string {
	s := strings.ToLower(rawURL)
	s = strings.TrimPrefix(s, "https://")
	s = strings.TrimPrefix(s, "http://")
	for _, b := range industryKeywords {
		for _, kw := range b.keywords {
			if strings.Contains(s, kw) {
				return b.industry
			}
		}
	}
	return "Other"
}
