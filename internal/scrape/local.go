package scrape

import (
	"bytes"
	"context"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/lead-finder/internal/model"
)

const maxBodyBytes = 1 << 20

// LocalScraper fetches HTML directly over HTTP. It costs nothing, so the
// chain tries it first and falls through to Jina/Firecrawl when blocked.
type LocalScraper struct {
	client *http.Client
}

// NewLocalScraper creates a LocalScraper with sensible defaults.
func NewLocalScraper() *LocalScraper {
	return &LocalScraper{
		client: &http.Client{
			Timeout: 15 * time.Second,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: 10 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout: 10 * time.Second,
				MaxIdleConnsPerHost: 4,
			},
		},
	}
}

func (l *LocalScraper) Name() string           { return "local_http" }
func (l *LocalScraper) Supports(_ string) bool { return true }

// Scrape fetches a URL, rejects anti-bot pages and converts the HTML to
// markdown. The raw HTML is kept so mailto: and tel: links survive.
func (l *LocalScraper) Scrape(ctx context.Context, targetURL string) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "local_http: create request")
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; LeadFinder/1.0)")
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "local_http: fetch")
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, eris.Wrap(err, "local_http: read body")
	}

	if blocked, kind := DetectBlock(resp, body); blocked {
		return nil, eris.Errorf("local_http: blocked (%s)", kind)
	}
	if resp.StatusCode >= 400 {
		return nil, eris.Errorf("local_http: status %d", resp.StatusCode)
	}
	if len(bytes.TrimSpace(body)) < 100 {
		return nil, eris.New("local_http: empty page")
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrap(err, "local_http: parse html")
	}

	base := resp.Request.URL
	page := model.Page{
		URL:        base.String(),
		Title:      strings.TrimSpace(doc.Find("title").First().Text()),
		HTML:       string(body),
		Links:      collectLinks(doc, base),
		StatusCode: resp.StatusCode,
	}

	md, err := htmltomarkdown.ConvertString(string(body))
	if err != nil {
		zap.L().Debug("local_http: markdown conversion failed, using text", zap.String("url", targetURL), zap.Error(err))
		doc.Find("script, style, noscript").Remove()
		md = strings.Join(strings.Fields(doc.Text()), " ")
	}
	page.Markdown = strings.TrimSpace(md)

	return &Result{Page: page, Source: "local_http"}, nil
}

// collectLinks returns the distinct absolute http(s), mailto: and tel:
// links of a document, in document order.
func collectLinks(doc *goquery.Document, base *url.URL) []string {
	seen := make(map[string]bool)
	var links []string
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href := strings.TrimSpace(s.AttrOr("href", ""))
		if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(strings.ToLower(href), "javascript:") {
			return
		}
		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		abs := base.ResolveReference(ref)
		switch abs.Scheme {
		case "http", "https":
			abs.Fragment = ""
		case "mailto", "tel":
		default:
			return
		}
		link := abs.String()
		if !seen[link] {
			seen[link] = true
			links = append(links, link)
		}
	})
	return links
}
