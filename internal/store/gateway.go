package store

import (
	"context"
	"slices"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/lead-finder/internal/model"
)

// Rejection records a record refused before it reached the store.
type Rejection struct {
	Email  string `json:"email"`
	Reason string `json:"reason"`
}

// SaveResult reports the outcome of a Gateway save.
type SaveResult struct {
	Saved    []model.Lead `json:"saved"`
	Rejected []Rejection  `json:"rejected,omitempty"`
}

// IDs returns the stored ids of the saved leads.
func (r *SaveResult) IDs() []string {
	ids := make([]string, len(r.Saved))
	for i, l := range r.Saved {
		ids[i] = l.ID
	}
	return ids
}

// Gateway validates records and writes them through a Store, creating the
// schema on demand when it is missing.
type Gateway struct {
	store Store
}

// NewGateway wraps st.
func NewGateway(st Store) *Gateway {
	return &Gateway{store: st}
}

// Store returns the underlying store.
func (g *Gateway) Store() Store {
	return g.store
}

// Save lower-cases and validates emails, drops invalid leads into
// Rejected, collapses duplicates within the batch (the last one wins) and
// upserts the rest by email. Saved carries the stored ids.
func (g *Gateway) Save(ctx context.Context, leads []model.Lead) (*SaveResult, error) {
	result := &SaveResult{}

	var valid []model.Lead
	index := make(map[string]int)
	for _, l := range leads {
		l.Email = model.NormalizeEmail(l.Email)
		if !model.ValidEmail(l.Email) {
			result.Rejected = append(result.Rejected, Rejection{Email: l.Email, Reason: "invalid email"})
			continue
		}
		if i, ok := index[l.Email]; ok {
			valid[i] = l
			continue
		}
		index[l.Email] = len(valid)
		valid = append(valid, l)
	}
	if len(valid) == 0 {
		return result, nil
	}

	ids, err := withMigrate(ctx, g.store, func() ([]string, error) {
		return g.store.UpsertLeads(ctx, valid)
	})
	if err != nil {
		return result, eris.Wrap(err, "gateway: save leads")
	}
	for i := range valid {
		if i < len(ids) {
			valid[i].ID = ids[i]
		}
	}
	result.Saved = valid

	zap.L().Debug("gateway: saved leads",
		zap.Int("saved", len(valid)),
		zap.Int("rejected", len(result.Rejected)),
	)
	return result, nil
}

// Search runs a substring search over stored leads, newest first.
func (g *Gateway) Search(ctx context.Context, opts SearchOptions) ([]model.Lead, error) {
	leads, err := withMigrate(ctx, g.store, func() ([]model.Lead, error) {
		return g.store.SearchLeads(ctx, opts)
	})
	return leads, eris.Wrap(err, "gateway: search leads")
}

// Get loads leads by id in the order given. Unknown ids are skipped.
func (g *Gateway) Get(ctx context.Context, ids []string) ([]model.Lead, error) {
	leads, err := withMigrate(ctx, g.store, func() ([]model.Lead, error) {
		return g.store.GetLeads(ctx, ids)
	})
	return leads, eris.Wrap(err, "gateway: get leads")
}

// SaveSubscribers applies the same email rules as Save and upserts the
// remaining subscribers. Tags within each subscriber are deduplicated.
func (g *Gateway) SaveSubscribers(ctx context.Context, subs []model.Subscriber) (int, []Rejection, error) {
	var (
		rejected []Rejection
		valid    []model.Subscriber
	)
	index := make(map[string]int)
	for _, s := range subs {
		s.Email = model.NormalizeEmail(s.Email)
		if !model.ValidEmail(s.Email) {
			rejected = append(rejected, Rejection{Email: s.Email, Reason: "invalid email"})
			continue
		}
		s.Tags = compactTags(s.Tags)
		if i, ok := index[s.Email]; ok {
			valid[i] = s
			continue
		}
		index[s.Email] = len(valid)
		valid = append(valid, s)
	}
	if len(valid) == 0 {
		return 0, rejected, nil
	}

	n, err := withMigrate(ctx, g.store, func() (int, error) {
		return g.store.UpsertSubscribers(ctx, valid)
	})
	if err != nil {
		return 0, rejected, eris.Wrap(err, "gateway: save subscribers")
	}
	return n, rejected, nil
}

// Subscribers lists stored subscribers.
func (g *Gateway) Subscribers(ctx context.Context, filter SubscriberFilter) ([]model.Subscriber, error) {
	subs, err := withMigrate(ctx, g.store, func() ([]model.Subscriber, error) {
		return g.store.ListSubscribers(ctx, filter)
	})
	return subs, eris.Wrap(err, "gateway: list subscribers")
}

// withMigrate runs op and, if it failed because the schema is missing,
// migrates and runs it once more.
func withMigrate[T any](ctx context.Context, st Store, op func() (T, error)) (T, error) {
	v, err := op()
	if err == nil || !IsMissingTable(err) {
		return v, err
	}

	zap.L().Warn("gateway: table missing, running migration", zap.Error(err))
	if merr := st.Migrate(ctx); merr != nil {
		var zero T
		return zero, eris.Wrap(merr, "gateway: migrate after missing table")
	}
	return op()
}

func compactTags(tags []string) []string {
	if len(tags) == 0 {
		return tags
	}
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t != "" && !slices.Contains(out, t) {
			out = append(out, t)
		}
	}
	return out
}
