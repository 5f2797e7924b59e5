package source

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/lead-finder/internal/config"
	"github.com/sells-group/lead-finder/internal/fabricate"
	"github.com/sells-group/lead-finder/internal/generate"
	"github.com/sells-group/lead-finder/internal/scrape"
)

// Chain builds the standard fallback order: store, scrape, generative,
// synthetic.
func Chain(ctx context.Context, cfg *config.Config, leads LeadSearcher) ([]Source, error) {
	pages, searcher, err := scrape.Build(cfg)
	if err != nil {
		return nil, eris.Wrap(err, "source: build scrape")
	}
	gen, err := generate.FromConfig(ctx, cfg)
	if err != nil {
		return nil, eris.Wrap(err, "source: build generator")
	}
	tables, err := fabricate.DefaultTables()
	if err != nil {
		return nil, eris.Wrap(err, "source: load tables")
	}

	return []Source{
		NewStoreSource(leads),
		NewScrapeSource(searcher, pages, ScrapeOptions{
			MaxResults: cfg.Search.MaxResults,
			BatchSize:  cfg.Search.BatchSize,
			BatchPause: cfg.Search.BatchPause,
			Matcher:    pages.PathMatcher,
		}),
		NewGenerativeSource(gen),
		NewSyntheticSource(tables),
	}, nil
}
