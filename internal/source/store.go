package source

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/lead-finder/internal/model"
	"github.com/sells-group/lead-finder/internal/store"
	"github.com/sells-group/lead-finder/internal/synth"
)

// LeadSearcher is the read side of the persistence gateway.
type LeadSearcher interface {
	Search(ctx context.Context, opts store.SearchOptions) ([]model.Lead, error)
}

// StoreSource searches previously persisted leads.
type StoreSource struct {
	leads            LeadSearcher
	includeSynthetic bool
}

// StoreOption configures a StoreSource.
type StoreOption func(*StoreSource)

// WithSynthetic makes the store source return synthetic leads too. By
// default they are skipped so fabricated rows never stand in for a live
// search.
func WithSynthetic() StoreOption {
	return func(s *StoreSource) { s.includeSynthetic = true }
}

// NewStoreSource creates a StoreSource.
func NewStoreSource(leads LeadSearcher, opts ...StoreOption) *StoreSource {
	s := &StoreSource{leads: leads}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *StoreSource) Name() string       { return "store" }
func (s *StoreSource) Stage() model.Stage { return model.StageSearchingStore }

// Search matches the query text against stored leads. Domain queries
// search for the company name derived from the domain.
func (s *StoreSource) Search(ctx context.Context, q model.Query) ([]model.Lead, error) {
	text := q.Text
	if text == "" && q.Domain != "" {
		text = synth.CompanyFromURL(q.Domain)
	}
	if text == "" {
		return nil, nil
	}

	// Filters are applied after the query, so fetch wider than the limit.
	limit := store.DefaultSearchLimit
	if q.Filters.IsZero() && q.Limit > 0 {
		limit = q.Limit
	}

	leads, err := s.leads.Search(ctx, store.SearchOptions{
		Text:             text,
		Limit:            limit,
		ExcludeSynthetic: !s.includeSynthetic,
	})
	if err != nil {
		return nil, eris.Wrap(err, "source: store search")
	}
	return finish(q, leads), nil
}
