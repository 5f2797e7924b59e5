package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/lead-finder/internal/model"
	"github.com/sells-group/lead-finder/internal/store"
)

// leadSelector picks stored leads by id or by a text search.
type leadSelector struct {
	IDs       []string
	Query     string
	Limit     int
	Synthetic bool
}

func (s leadSelector) empty() bool {
	return len(s.IDs) == 0 && s.Query == ""
}

func (s leadSelector) load(ctx context.Context, gw *store.Gateway) ([]model.Lead, error) {
	if len(s.IDs) > 0 {
		leads, err := gw.Get(ctx, s.IDs)
		if err != nil {
			return nil, eris.Wrap(err, "load leads")
		}
		return leads, nil
	}
	leads, err := gw.Search(ctx, store.SearchOptions{
		Text:             s.Query,
		Limit:            s.Limit,
		ExcludeSynthetic: !s.Synthetic,
	})
	if err != nil {
		return nil, eris.Wrap(err, "search leads")
	}
	return leads, nil
}
