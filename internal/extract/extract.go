// Package extract pulls contact fragments out of scraped page content.
package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	emailRe    = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	phoneRe    = regexp.MustCompile(`(?:\+\d{1,3}[\s.\-]?)?(?:\(\d{3}\)|\d{3})[\s.\-]?\d{3}[\s.\-]?\d{4}\b`)
	linkedinRe = regexp.MustCompile(`(?i)(?:https?://)?(?:[a-z]{2,3}\.)?linkedin\.com/(?:in|company)/[a-zA-Z0-9_%\-]+`)
)

// Image and asset suffixes that look like a TLD in retina filenames
// such as logo@2x.png.
var assetTLDs = map[string]bool{
	"png": true, "jpg": true, "jpeg": true, "gif": true,
	"svg": true, "webp": true, "ico": true, "css": true, "js": true,
}

// Contacts holds deduplicated fragments in first-seen order.
type Contacts struct {
	Emails   []string `json:"emails"`
	Phones   []string `json:"phones"`
	LinkedIn []string `json:"linkedin"`
}

// Empty reports whether nothing was found.
func (c Contacts) Empty() bool {
	return len(c.Emails) == 0 && len(c.Phones) == 0 && len(c.LinkedIn) == 0
}

// Merge appends fragments from other that are not already present.
func (c Contacts) Merge(other Contacts) Contacts {
	return Contacts{
		Emails:   dedupe(append(append([]string{}, c.Emails...), other.Emails...), strings.ToLower),
		Phones:   dedupe(append(append([]string{}, c.Phones...), other.Phones...), identity),
		LinkedIn: dedupe(append(append([]string{}, c.LinkedIn...), other.LinkedIn...), strings.ToLower),
	}
}

// Extract scans text or HTML for emails, phone numbers and LinkedIn
// profile URLs. Emails are lower-cased; phones are returned as matched.
// An input with no matches yields empty slices.
func Extract(content string) Contacts {
	text := content
	if looksLikeHTML(content) {
		text = content + "\n" + htmlText(content)
	}

	var c Contacts

	for _, m := range emailRe.FindAllString(text, -1) {
		m = strings.ToLower(m)
		if isAsset(m) {
			continue
		}
		c.Emails = append(c.Emails, m)
	}
	c.Emails = dedupe(c.Emails, identity)

	c.Phones = dedupe(phoneRe.FindAllString(text, -1), identity)

	for _, m := range linkedinRe.FindAllString(text, -1) {
		c.LinkedIn = append(c.LinkedIn, normalizeLinkedIn(m))
	}
	c.LinkedIn = dedupe(c.LinkedIn, strings.ToLower)

	return c
}

func looksLikeHTML(s string) bool {
	i := strings.IndexByte(s, '<')
	return i >= 0 && strings.IndexByte(s[i:], '>') > 0
}

// htmlText returns entity-decoded visible text plus the targets of
// mailto:, tel: and LinkedIn anchors.
func htmlText(content string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return ""
	}
	doc.Find("script, style, noscript").Remove()

	var b strings.Builder
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		href = strings.TrimSpace(href)
		lower := strings.ToLower(href)
		switch {
		case strings.HasPrefix(lower, "mailto:"):
			addr := href[len("mailto:"):]
			if i := strings.IndexByte(addr, '?'); i >= 0 {
				addr = addr[:i]
			}
			b.WriteString(addr)
		case strings.HasPrefix(lower, "tel:"):
			b.WriteString(href[len("tel:"):])
		case strings.Contains(lower, "linkedin.com/"):
			b.WriteString(href)
		default:
			return
		}
		b.WriteByte('\n')
	})
	b.WriteString(doc.Text())
	return b.String()
}

func isAsset(email string) bool {
	i := strings.LastIndexByte(email, '.')
	return i >= 0 && assetTLDs[email[i+1:]]
}

func normalizeLinkedIn(m string) string {
	lower := strings.ToLower(m)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		return "https://" + m
	}
	return m
}

func identity(s string) string { return s }

// dedupe keeps the first occurrence of each key(s).
func dedupe(in []string, key func(string) string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		k := key(s)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, s)
	}
	return out
}
