package source

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/lead-finder/internal/extract"
	"github.com/sells-group/lead-finder/internal/model"
	"github.com/sells-group/lead-finder/internal/resilience"
	"github.com/sells-group/lead-finder/internal/scrape"
	"github.com/sells-group/lead-finder/internal/synth"
)

// PageFetcher fetches many pages with bounded concurrency. *scrape.Chain
// implements it.
type PageFetcher interface {
	ScrapeAll(ctx context.Context, urls []string, maxConcurrent int) []model.Page
}

// ScrapeOptions tunes the scrape source.
type ScrapeOptions struct {
	MaxResults int           // search hits to request
	BatchSize  int           // pages fetched concurrently per batch
	BatchPause time.Duration // wait between batches
	Matcher    *scrape.PathMatcher
}

// ScrapeSource finds leads by searching the web, fetching the result pages
// and extracting contacts from them.
type ScrapeSource struct {
	searcher scrape.Searcher
	pages    PageFetcher
	opts     ScrapeOptions
}

// NewScrapeSource creates a ScrapeSource. searcher may be nil, in which
// case only domain queries are served.
func NewScrapeSource(searcher scrape.Searcher, pages PageFetcher, opts ScrapeOptions) *ScrapeSource {
	if opts.MaxResults <= 0 {
		opts.MaxResults = 10
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 3
	}
	if opts.Matcher == nil {
		opts.Matcher = scrape.NewPathMatcher(nil)
	}
	return &ScrapeSource{searcher: searcher, pages: pages, opts: opts}
}

func (s *ScrapeSource) Name() string       { return "scrape" }
func (s *ScrapeSource) Stage() model.Stage { return model.StageSearchingWeb }

// Search scrapes the contact pages of q.Domain, or searches the web for
// q.Text and scrapes the hits. Pages are fetched in batches with a pause
// between them; fetching stops once enough leads are found.
func (s *ScrapeSource) Search(ctx context.Context, q model.Query) ([]model.Lead, error) {
	var (
		urls  []string
		leads []model.Lead
	)

	switch {
	case q.Domain != "":
		urls = s.opts.Matcher.ContactPages(q.Domain)
	case q.Text != "":
		if s.searcher == nil {
			return nil, eris.New("source: no web searcher configured")
		}
		hits, err := s.searcher.Search(ctx, searchText(q), s.opts.MaxResults)
		if err != nil {
			return nil, eris.Wrap(err, "source: web search")
		}
		seen := make(map[string]bool, len(hits))
		for _, h := range hits {
			if c := extract.Extract(h.Text()); !c.Empty() && h.URL != "" {
				leads = append(leads, fromHit(h, c)...)
			}
			if h.URL == "" || seen[h.URL] || s.opts.Matcher.IsExcluded(h.URL) {
				continue
			}
			seen[h.URL] = true
			urls = append(urls, h.URL)
		}
	default:
		return nil, nil
	}

	for start := 0; start < len(urls); start += s.opts.BatchSize {
		if start > 0 {
			if err := resilience.Sleep(ctx, s.opts.BatchPause); err != nil {
				return nil, eris.Wrap(err, "source: scrape cancelled")
			}
		}
		end := min(start+s.opts.BatchSize, len(urls))
		for _, p := range s.pages.ScrapeAll(ctx, urls[start:end], s.opts.BatchSize) {
			leads = append(leads, synth.Leads(p.URL, extract.Extract(p.Content()))...)
		}
		if q.Limit > 0 && len(q.Filters.Apply(dedupe(leads))) >= q.Limit {
			break
		}
	}

	out := finish(q, dedupe(leads))
	zap.L().Debug("source: scrape finished",
		zap.String("query", q.Describe()),
		zap.Int("pages", len(urls)),
		zap.Int("leads", len(out)),
	)
	return out, nil
}

// searchText folds the filters into the web search query.
func searchText(q model.Query) string {
	parts := []string{q.Text}
	for _, f := range []string{q.Filters.JobTitle, q.Filters.Industry, q.Filters.Location} {
		if f != "" && !strings.Contains(strings.ToLower(q.Text), strings.ToLower(f)) {
			parts = append(parts, f)
		}
	}
	return strings.Join(append(parts, "contact email"), " ")
}

// fromHit builds leads from the text of a search hit itself. Directory
// providers carry a business name and category the URL cannot tell us.
func fromHit(h scrape.SearchResult, c extract.Contacts) []model.Lead {
	leads := synth.Leads(h.URL, c)
	for i := range leads {
		if h.Phone != "" && leads[i].Name == synth.CompanyContactName && h.Title != "" {
			leads[i].Company = h.Title
		}
		if h.Category != "" {
			leads[i].Industry = h.Category
		}
		if h.Address != "" {
			leads[i].Location = h.Address
		}
	}
	return leads
}

// dedupe keeps one lead per email, preferring the higher confidence and
// filling the kept lead's blank phone and LinkedIn from the other.
func dedupe(leads []model.Lead) []model.Lead {
	index := make(map[string]int, len(leads))
	out := make([]model.Lead, 0, len(leads))
	for _, l := range leads {
		i, ok := index[l.Email]
		if !ok {
			index[l.Email] = len(out)
			out = append(out, l)
			continue
		}
		kept := out[i]
		if l.ConfidenceScore > kept.ConfidenceScore {
			kept, l = l, kept
		}
		if kept.Phone == "" {
			kept.Phone = l.Phone
		}
		if kept.LinkedIn == "" {
			kept.LinkedIn = l.LinkedIn
		}
		out[i] = kept
	}
	return out
}
