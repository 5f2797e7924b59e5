package finder

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/lead-finder/internal/model"
	"github.com/sells-group/lead-finder/internal/resilience"
)

// BulkOptions configures SearchDomains.
type BulkOptions struct {
	BatchSize int
	Pause     time.Duration
	Filters   model.Filters
	Limit     int // per domain
	// Progress is called after every domain with the number done, the
	// total and the percentage complete (0-100).
	Progress func(done, total int, percent float64)
}

// DomainResult is the search outcome for one domain.
type DomainResult struct {
	Domain string  `json:"domain"`
	Result *Result `json:"result,omitempty"`
	Error  string  `json:"error,omitempty"`
}

// BulkResult collects the per-domain results in input order.
type BulkResult struct {
	Domains []DomainResult `json:"domains"`
	Leads   int            `json:"leads"`
}

// SearchDomains runs a domain search for each domain. Domains are processed
// in batches of BatchSize run concurrently, with Pause between batches.
// Cancelling ctx stops the run before the next batch; the results gathered
// so far are returned along with the error.
func (f *Finder) SearchDomains(ctx context.Context, domains []string, opts BulkOptions) (*BulkResult, error) {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 5
	}
	domains = cleanDomains(domains)
	total := len(domains)
	out := &BulkResult{Domains: make([]DomainResult, total)}

	var (
		mu   sync.Mutex
		done int
	)
	report := func() {
		mu.Lock()
		defer mu.Unlock()
		done++
		if opts.Progress != nil {
			opts.Progress(done, total, float64(done)*100/float64(total))
		}
	}

	for start := 0; start < total; start += opts.BatchSize {
		if start > 0 {
			if err := resilience.Sleep(ctx, opts.Pause); err != nil {
				return out.trim(start), eris.Wrap(err, "finder: bulk cancelled")
			}
		}
		end := min(start+opts.BatchSize, total)

		g, gCtx := errgroup.WithContext(ctx)
		for i := start; i < end; i++ {
			d := domains[i]
			g.Go(func() error {
				res, err := f.Search(gCtx, model.Query{Domain: d, Filters: opts.Filters, Limit: opts.Limit})
				dr := DomainResult{Domain: d, Result: res}
				if err != nil {
					dr.Error = err.Error()
				}
				out.Domains[i] = dr
				report()
				return nil
			})
		}
		_ = g.Wait()

		zap.L().Info("finder: bulk batch complete",
			zap.Int("done", end),
			zap.Int("total", total),
		)
	}

	for _, d := range out.Domains {
		if d.Result != nil {
			out.Leads += len(d.Result.Leads)
		}
	}
	return out, nil
}

// trim drops the slots of batches that never ran.
func (r *BulkResult) trim(n int) *BulkResult {
	r.Domains = r.Domains[:n]
	for _, d := range r.Domains {
		if d.Result != nil {
			r.Leads += len(d.Result.Leads)
		}
	}
	return r
}

// cleanDomains trims blanks and drops empty and repeated entries.
func cleanDomains(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, d := range in {
		d = strings.ToLower(strings.TrimSpace(d))
		if d == "" || seen[d] {
			continue
		}
		seen[d] = true
		out = append(out, d)
	}
	return out
}
