package scrape

import (
	"net/http"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/lead-finder/internal/config"
	"github.com/sells-group/lead-finder/pkg/firecrawl"
	"github.com/sells-group/lead-finder/pkg/google"
	"github.com/sells-group/lead-finder/pkg/jina"
)

// Build wires the scrape chain and the configured searcher. The chain is
// local HTTP, then Jina, then Firecrawl when a key is set.
func Build(cfg *config.Config) (*Chain, Searcher, error) {
	timeout := time.Duration(cfg.Search.TimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	hc := &http.Client{Timeout: timeout}

	jc := jina.NewClient(cfg.Jina.Key,
		jina.WithBaseURL(cfg.Jina.BaseURL),
		jina.WithSearchBaseURL(cfg.Jina.SearchBaseURL),
		jina.WithHTTPClient(hc),
	)
	scrapers := []Scraper{NewLocalScraper(), NewJinaScraper(jc)}

	var fc firecrawl.Client
	if cfg.Firecrawl.Key != "" {
		fc = firecrawl.NewClient(cfg.Firecrawl.Key,
			firecrawl.WithBaseURL(cfg.Firecrawl.BaseURL),
			firecrawl.WithHTTPClient(hc),
		)
		scrapers = append(scrapers, NewFirecrawlScraper(fc))
	}
	chain := NewChain(NewPathMatcher(nil), scrapers...)

	var searcher Searcher
	switch cfg.Search.Provider {
	case "jina":
		searcher = NewJinaSearcher(jc)
	case "firecrawl":
		if fc == nil {
			return nil, nil, eris.New("scrape: firecrawl search needs firecrawl.key")
		}
		searcher = NewFirecrawlSearcher(fc)
	case "google":
		if cfg.Google.Key == "" {
			return nil, nil, eris.New("scrape: google search needs google.key")
		}
		searcher = NewPlacesSearcher(google.NewClient(cfg.Google.Key, google.WithHTTPClient(hc)))
	default:
		return nil, nil, eris.Errorf("scrape: unknown search provider %q", cfg.Search.Provider)
	}
	return chain, searcher, nil
}
