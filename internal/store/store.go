package store

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rotisserie/eris"

	"github.com/sells-group/lead-finder/internal/config"
	"github.com/sells-group/lead-finder/internal/model"
)

// DefaultSearchLimit caps store searches that do not set a limit.
const DefaultSearchLimit = 50

// SearchOptions narrows a lead search. Text is matched as a substring
// against name, company, title, industry and location.
type SearchOptions struct {
	Text             string `json:"text,omitempty"`
	Limit            int    `json:"limit,omitempty"`
	ExcludeSynthetic bool   `json:"excludeSynthetic,omitempty"`
}

// SubscriberFilter specifies criteria for listing subscribers.
type SubscriberFilter struct {
	Tag    string `json:"tag,omitempty"`
	Status string `json:"status,omitempty"`
	Limit  int    `json:"limit,omitempty"`
}

// Store defines the persistence interface for leads and subscribers.
type Store interface {
	// Leads
	UpsertLeads(ctx context.Context, leads []model.Lead) ([]string, error)
	SearchLeads(ctx context.Context, opts SearchOptions) ([]model.Lead, error)
	GetLeads(ctx context.Context, ids []string) ([]model.Lead, error)

	// Subscribers
	UpsertSubscribers(ctx context.Context, subs []model.Subscriber) (int, error)
	ListSubscribers(ctx context.Context, filter SubscriberFilter) ([]model.Subscriber, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}

// Open connects to the backend selected by cfg.Driver.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case "postgres":
		return NewPostgres(ctx, cfg.DatabaseURL, &PoolConfig{MaxConns: cfg.MaxConns, MinConns: cfg.MinConns})
	case "sqlite", "":
		return NewSQLite(cfg.SQLitePath)
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
	}
}

// pgUndefinedTable is the SQLSTATE for "relation does not exist".
const pgUndefinedTable = "42P01"

// IsMissingTable reports whether err means the target table has not been
// created yet.
func IsMissingTable(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUndefinedTable
	}
	msg := err.Error()
	return strings.Contains(msg, "no such table") ||
		(strings.Contains(msg, "relation") && strings.Contains(msg, "does not exist"))
}

func limitOrDefault(n int) uint64 {
	if n <= 0 {
		return DefaultSearchLimit
	}
	return uint64(n)
}
