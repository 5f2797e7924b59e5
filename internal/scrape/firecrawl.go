package scrape

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/lead-finder/internal/model"
	"github.com/sells-group/lead-finder/pkg/firecrawl"
)

// FirecrawlScraper wraps a Firecrawl client as a Scraper. It renders
// JavaScript, so it sits last in the chain for pages the others cannot read.
type FirecrawlScraper struct {
	client firecrawl.Client
}

// NewFirecrawlScraper creates a FirecrawlScraper from a Firecrawl client.
func NewFirecrawlScraper(client firecrawl.Client) *FirecrawlScraper {
	return &FirecrawlScraper{client: client}
}

// Name implements Scraper.
func (f *FirecrawlScraper) Name() string { return "firecrawl" }

// Supports implements Scraper.
func (f *FirecrawlScraper) Supports(_ string) bool { return true }

// Scrape fetches a single URL via Firecrawl, asking for markdown, the raw
// HTML and the page's links in one call.
func (f *FirecrawlScraper) Scrape(ctx context.Context, targetURL string) (*Result, error) {
	resp, err := f.client.Scrape(ctx, firecrawl.ScrapeRequest{
		URL:     targetURL,
		Formats: []string{"markdown", "rawHtml", "links"},
	})
	if err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, eris.New("firecrawl: scrape not successful")
	}

	d := resp.Data
	html := d.RawHTML
	if html == "" {
		html = d.HTML
	}
	page := model.Page{
		URL:        d.Metadata.SourceURL,
		Title:      d.Metadata.Title,
		Markdown:   d.Markdown,
		HTML:       html,
		Links:      d.Links,
		StatusCode: d.Metadata.StatusCode,
	}
	if page.URL == "" {
		page.URL = targetURL
	}
	return &Result{Page: page, Source: "firecrawl"}, nil
}
