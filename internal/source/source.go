// Package source implements the lead search strategies the finder walks
// through: the lead store, web scraping, a generative model and the
// local synthetic generator.
package source

import (
	"context"

	"github.com/sells-group/lead-finder/internal/model"
)

// Source is one lead search strategy.
type Source interface {
	Name() string
	Stage() model.Stage
	Search(ctx context.Context, q model.Query) ([]model.Lead, error)
}

// finish narrows leads to the query's filters and limit.
func finish(q model.Query, leads []model.Lead) []model.Lead {
	return q.Truncate(q.Filters.Apply(leads))
}
