// Package finder runs lead searches through an ordered chain of sources,
// falling through to the next source whenever one fails or finds nothing.
package finder

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/lead-finder/internal/model"
	"github.com/sells-group/lead-finder/internal/source"
	"github.com/sells-group/lead-finder/internal/store"
)

// Saver persists leads. *store.Gateway implements it.
type Saver interface {
	Save(ctx context.Context, leads []model.Lead) (*store.SaveResult, error)
}

// Attempt records one source tried during a search.
type Attempt struct {
	Stage    model.Stage   `json:"stage"`
	Source   string        `json:"source"`
	Leads    int           `json:"leads"`
	Dropped  int           `json:"dropped,omitempty"` // leads without a usable email
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration"`
}

// Result is the outcome of a search.
type Result struct {
	Query    model.Query  `json:"query"`
	Leads    []model.Lead `json:"leads"`
	Stage    model.Stage  `json:"stage"`
	Source   string       `json:"source,omitempty"`
	Attempts []Attempt    `json:"attempts"`
	Saved    int          `json:"saved"`
	SaveErr  string       `json:"saveError,omitempty"`
}

// Finder walks its sources in order until one returns leads.
type Finder struct {
	sources      []source.Source
	saver        Saver
	defaultLimit int
	maxLimit     int
}

// Option configures a Finder.
type Option func(*Finder)

// WithDefaultLimit sets the limit used for queries that do not set one.
func WithDefaultLimit(n int) Option {
	return func(f *Finder) {
		if n > 0 {
			f.defaultLimit = n
		}
	}
}

// WithMaxLimit caps the number of leads any single query may ask for.
func WithMaxLimit(n int) Option {
	return func(f *Finder) {
		if n > 0 {
			f.maxLimit = n
		}
	}
}

// New creates a Finder over sources, tried in the order given. saver may be
// nil, in which case results are not persisted.
func New(sources []source.Source, saver Saver, opts ...Option) *Finder {
	f := &Finder{sources: sources, saver: saver, defaultLimit: 10, maxLimit: 100}
	for _, o := range opts {
		o(f)
	}
	return f
}

// Search runs q through the sources. A source error is recorded and treated
// as an empty result. Leads from live sources without a valid email are
// dropped before anything else sees them. The first non-empty result ends
// the search; leads that did not come from the store are saved, and a save failure is logged
// and reported on the result but not returned. The only error returned is
// ctx's. Limits above the finder maximum are lowered to it.
func (f *Finder) Search(ctx context.Context, q model.Query) (*Result, error) {
	if q.Limit <= 0 {
		q.Limit = f.defaultLimit
	}
	if q.Limit > f.maxLimit {
		q.Limit = f.maxLimit
	}
	res := &Result{Query: q, Leads: []model.Lead{}}
	log := zap.L().With(zap.String("query", q.Describe()))

	for _, src := range f.sources {
		if err := ctx.Err(); err != nil {
			return res, eris.Wrap(err, "finder: search cancelled")
		}

		res.Stage = src.Stage()
		start := time.Now()
		leads, err := src.Search(ctx, q)
		at := Attempt{
			Stage:    src.Stage(),
			Source:   src.Name(),
			Leads:    len(leads),
			Duration: time.Since(start),
		}
		if err == nil && src.Stage() != model.StageSearchingStore {
			leads = usable(leads)
			at.Dropped = at.Leads - len(leads)
			at.Leads = len(leads)
		}
		if err != nil {
			at.Error = err.Error()
			at.Leads = 0
			log.Warn("finder: source failed",
				zap.String("stage", string(src.Stage())),
				zap.String("source", src.Name()),
				zap.Error(err),
			)
		}
		res.Attempts = append(res.Attempts, at)
		if err != nil || len(leads) == 0 {
			continue
		}

		res.Leads = leads
		res.Source = src.Name()
		if src.Stage() != model.StageSearchingStore {
			f.save(ctx, res)
		}
		break
	}

	res.Stage = model.StageDone
	log.Info("finder: search complete",
		zap.String("source", res.Source),
		zap.Int("leads", len(res.Leads)),
		zap.Int("attempts", len(res.Attempts)),
	)
	return res, nil
}

// usable keeps the leads whose email the store would accept.
func usable(leads []model.Lead) []model.Lead {
	out := make([]model.Lead, 0, len(leads))
	for _, l := range leads {
		if model.ValidEmail(model.NormalizeEmail(l.Email)) {
			out = append(out, l)
		}
	}
	return out
}

func (f *Finder) save(ctx context.Context, res *Result) {
	if f.saver == nil {
		return
	}
	saved, err := f.saver.Save(ctx, res.Leads)
	if err != nil {
		res.SaveErr = err.Error()
		zap.L().Error("finder: save leads failed",
			zap.String("source", res.Source),
			zap.Int("leads", len(res.Leads)),
			zap.Error(err),
		)
		return
	}
	res.Saved = len(saved.Saved)

	// Adopt stored ids so callers can refer to the saved rows.
	ids := make(map[string]string, len(saved.Saved))
	for _, l := range saved.Saved {
		ids[l.Email] = l.ID
	}
	for i := range res.Leads {
		if id, ok := ids[model.NormalizeEmail(res.Leads[i].Email)]; ok {
			res.Leads[i].ID = id
		}
	}
}
