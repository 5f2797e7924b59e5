package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/lead-finder/internal/enrich"
	"github.com/sells-group/lead-finder/internal/fabricate"
	"github.com/sells-group/lead-finder/internal/finder"
	"github.com/sells-group/lead-finder/internal/generate"
	"github.com/sells-group/lead-finder/internal/source"
	"github.com/sells-group/lead-finder/internal/store"
)

// appEnv holds the services a command needs. Fields not required by the
// command's mode are nil.
type appEnv struct {
	Store    store.Store
	Gateway  *store.Gateway
	Finder   *finder.Finder
	Enricher *enrich.Enricher
}

// Close releases the store.
func (e *appEnv) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// initStore opens and migrates the configured store.
func initStore(ctx context.Context) (store.Store, error) {
	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}
	return st, nil
}

// initEnv validates the config for mode and builds the store plus the
// finder (search, serve) and enricher (enrich, serve). Callers should
// defer env.Close().
func initEnv(ctx context.Context, mode string) (*appEnv, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	env := &appEnv{Store: st, Gateway: store.NewGateway(st)}

	if mode == "search" || mode == "serve" {
		sources, err := source.Chain(ctx, cfg, env.Gateway)
		if err != nil {
			env.Close()
			return nil, err
		}
		env.Finder = finder.New(sources, env.Gateway,
			finder.WithDefaultLimit(cfg.Finder.DefaultLimit),
			finder.WithMaxLimit(cfg.Finder.MaxLimit),
		)
	}

	if mode == "enrich" || mode == "serve" {
		gen, err := generate.FromConfig(ctx, cfg)
		if err != nil {
			env.Close()
			return nil, eris.Wrap(err, "build generator")
		}
		tables, err := fabricate.DefaultTables()
		if err != nil {
			env.Close()
			return nil, eris.Wrap(err, "load fabrication tables")
		}
		env.Enricher = enrich.New(gen, tables)
	}

	zap.L().Debug("environment ready",
		zap.String("mode", mode),
		zap.String("store", cfg.Store.Driver),
		zap.String("generator", cfg.Generative.Provider),
	)
	return env, nil
}
