package scrape

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/lead-finder/pkg/firecrawl"
	"github.com/sells-group/lead-finder/pkg/google"
	"github.com/sells-group/lead-finder/pkg/jina"
)

// SearchResult is one web search hit. Phone, Address and Category are
// only filled by directory-style providers.
type SearchResult struct {
	URL      string
	Title    string
	Snippet  string
	Phone    string
	Address  string
	Category string
}

// Text returns the hit's own text, which may already carry contacts.
func (r SearchResult) Text() string {
	parts := make([]string, 0, 4)
	for _, s := range []string{r.Title, r.Snippet, r.Phone, r.Address} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "\n")
}

// Searcher runs a web search for candidate company pages.
type Searcher interface {
	Name() string
	Search(ctx context.Context, query string, limit int) ([]SearchResult, error)
}

// JinaSearcher searches through s.jina.ai.
type JinaSearcher struct {
	client jina.Client
}

// NewJinaSearcher creates a JinaSearcher.
func NewJinaSearcher(client jina.Client) *JinaSearcher {
	return &JinaSearcher{client: client}
}

// Name implements Searcher.
func (s *JinaSearcher) Name() string { return "jina" }

// Search implements Searcher.
func (s *JinaSearcher) Search(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	resp, err := s.client.Search(ctx, query, jina.WithCount(limit))
	if err != nil {
		return nil, eris.Wrap(err, "scrape: jina search")
	}
	out := make([]SearchResult, 0, len(resp.Data))
	for _, d := range resp.Data {
		if d.URL == "" {
			continue
		}
		out = append(out, SearchResult{URL: d.URL, Title: d.Title, Snippet: d.Description})
	}
	return capResults(out, limit), nil
}

// FirecrawlSearcher searches through Firecrawl's /search endpoint.
type FirecrawlSearcher struct {
	client firecrawl.Client
}

// NewFirecrawlSearcher creates a FirecrawlSearcher.
func NewFirecrawlSearcher(client firecrawl.Client) *FirecrawlSearcher {
	return &FirecrawlSearcher{client: client}
}

// Name implements Searcher.
func (s *FirecrawlSearcher) Name() string { return "firecrawl" }

// Search implements Searcher.
func (s *FirecrawlSearcher) Search(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	resp, err := s.client.Search(ctx, firecrawl.SearchRequest{Query: query, Limit: limit})
	if err != nil {
		return nil, eris.Wrap(err, "scrape: firecrawl search")
	}
	out := make([]SearchResult, 0, len(resp.Data.Web))
	for _, d := range resp.Data.Web {
		if d.URL == "" {
			continue
		}
		out = append(out, SearchResult{URL: d.URL, Title: d.Title, Snippet: d.Description})
	}
	return capResults(out, limit), nil
}

// PlacesSearcher finds businesses through Google Places text search. Hits
// carry the listed phone number, which becomes a contact even when the
// website yields nothing.
type PlacesSearcher struct {
	client google.Client
}

// NewPlacesSearcher creates a PlacesSearcher.
func NewPlacesSearcher(client google.Client) *PlacesSearcher {
	return &PlacesSearcher{client: client}
}

// Name implements Searcher.
func (s *PlacesSearcher) Name() string { return "google" }

// Search implements Searcher. Places without a website are dropped since
// there is nothing to scrape.
func (s *PlacesSearcher) Search(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	resp, err := s.client.TextSearch(ctx, query, limit)
	if err != nil {
		return nil, eris.Wrap(err, "scrape: places search")
	}
	out := make([]SearchResult, 0, len(resp.Places))
	for _, p := range resp.Places {
		if p.WebsiteURI == "" {
			continue
		}
		phone := p.InternationalPhoneNumber
		if phone == "" {
			phone = p.NationalPhoneNumber
		}
		out = append(out, SearchResult{
			URL:      p.WebsiteURI,
			Title:    p.DisplayName.Text,
			Phone:    phone,
			Address:  p.FormattedAddress,
			Category: p.PrimaryType.Text,
		})
	}
	return capResults(out, limit), nil
}

func capResults(rs []SearchResult, limit int) []SearchResult {
	if limit > 0 && len(rs) > limit {
		return rs[:limit]
	}
	return rs
}
