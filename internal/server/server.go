// Package server exposes lead search, enrichment and subscriber import over
// an authenticated JSON API.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/lead-finder/internal/enrich"
	"github.com/sells-group/lead-finder/internal/finder"
	"github.com/sells-group/lead-finder/internal/model"
	"github.com/sells-group/lead-finder/internal/store"
)

// Finder runs lead searches. *finder.Finder implements it.
type Finder interface {
	Search(ctx context.Context, q model.Query) (*finder.Result, error)
	SearchDomains(ctx context.Context, domains []string, opts finder.BulkOptions) (*finder.BulkResult, error)
}

// Enricher enriches leads. *enrich.Enricher implements it.
type Enricher interface {
	Enrich(ctx context.Context, leads []model.Lead, th enrich.Threshold) (*enrich.Result, error)
}

// Gateway persists leads and subscribers. *store.Gateway implements it.
type Gateway interface {
	Save(ctx context.Context, leads []model.Lead) (*store.SaveResult, error)
	Search(ctx context.Context, opts store.SearchOptions) ([]model.Lead, error)
	Get(ctx context.Context, ids []string) ([]model.Lead, error)
	SaveSubscribers(ctx context.Context, subs []model.Subscriber) (int, []store.Rejection, error)
}

// Pinger reports store health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the services behind the handlers.
type Deps struct {
	Finder   Finder
	Enricher Enricher
	Gateway  Gateway
	Health   Pinger // optional
}

// Options configure the HTTP surface.
type Options struct {
	Token            string
	AllowedOrigins   []string
	RatePerSecond    float64
	RateBurst        int
	DefaultThreshold enrich.Threshold
	Bulk             finder.BulkOptions // batch size and pause for bulk runs
	MaxBulkDomains   int
	MaxLimit         int // largest lead count a search or bulk run may request
	MaxUploadBytes   int64
}

// Server is the HTTP API.
type Server struct {
	deps    Deps
	opts    Options
	limiter *rate.Limiter
	router  chi.Router
}

// New builds the router.
func New(deps Deps, opts Options) *Server {
	if opts.DefaultThreshold == "" {
		opts.DefaultThreshold = enrich.ThresholdMedium
	}
	if opts.MaxBulkDomains <= 0 {
		opts.MaxBulkDomains = 500
	}
	if opts.MaxLimit <= 0 {
		opts.MaxLimit = 100
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 20 << 20
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}

	s := &Server{deps: deps, opts: opts}
	if opts.RatePerSecond > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(opts.RatePerSecond), max(opts.RateBurst, 1))
	}
	s.router = s.routes()
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.opts.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)

	r.Route("/v1", func(r chi.Router) {
		r.Use(s.authenticate)
		r.Use(s.rateLimit)

		r.Get("/leads", s.handleListLeads)
		r.Post("/leads/search", s.handleSearch)
		r.Post("/leads/bulk", s.handleBulk)
		r.Post("/leads/enrich", s.handleEnrich)
		r.Post("/subscribers/import", s.handleImport)
		r.Post("/subscribers/from-leads", s.handleFromLeads)
	})
	return r
}

// ListenAndServe serves on port until ctx is cancelled, then drains
// in-flight requests.
func (s *Server) ListenAndServe(ctx context.Context, port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		zap.L().Info("server: listening", zap.Int("port", port))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return eris.Wrap(err, "server: listen")
	case <-ctx.Done():
	}

	zap.L().Info("server: shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return eris.Wrap(err, "server: shutdown")
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.deps.Health != nil {
		if err := s.deps.Health.Ping(r.Context()); err != nil {
			zap.L().Warn("server: health check failed", zap.Error(err))
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
