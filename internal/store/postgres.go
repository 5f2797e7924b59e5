package store

import (
	"context"
	"encoding/json"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/lead-finder/internal/db"
	"github.com/sells-group/lead-finder/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(1)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS leads (
	id               TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	email            TEXT NOT NULL UNIQUE,
	name             TEXT NOT NULL DEFAULT '',
	title            TEXT NOT NULL DEFAULT '',
	company          TEXT NOT NULL DEFAULT '',
	phone            TEXT NOT NULL DEFAULT '',
	linkedin         TEXT NOT NULL DEFAULT '',
	website          TEXT NOT NULL DEFAULT '',
	industry         TEXT NOT NULL DEFAULT '',
	location         TEXT NOT NULL DEFAULT '',
	employees        TEXT NOT NULL DEFAULT '',
	details          JSONB NOT NULL DEFAULT '{}',
	source           TEXT NOT NULL DEFAULT '',
	enriched_by      TEXT NOT NULL DEFAULT '',
	confidence_score INTEGER NOT NULL DEFAULT 0,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at       TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_leads_created_at ON leads(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_leads_source ON leads(source);

CREATE TABLE IF NOT EXISTS subscribers (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	email      TEXT NOT NULL UNIQUE,
	first_name TEXT NOT NULL DEFAULT '',
	last_name  TEXT NOT NULL DEFAULT '',
	status     TEXT NOT NULL DEFAULT 'active',
	tags       TEXT[] NOT NULL DEFAULT '{}',
	metadata   JSONB NOT NULL DEFAULT '{}',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_subscribers_status ON subscribers(status);
CREATE INDEX IF NOT EXISTS idx_subscribers_tags ON subscribers USING GIN (tags);
`

// subscriberUpsert merges tags and metadata of an existing subscriber and
// keeps names that the incoming row leaves blank.
var subscriberUpsert = db.UpsertConfig{
	Table:        "subscribers",
	Columns:      []string{"id", "email", "first_name", "last_name", "status", "tags", "metadata", "created_at", "updated_at"},
	ConflictKeys: []string{"email"},
	UpdateCols:   []string{"first_name", "last_name", "status", "tags", "metadata", "updated_at"},
	UpdateExpr: map[string]string{
		"first_name": `COALESCE(NULLIF(EXCLUDED."first_name", ''), "subscribers"."first_name")`,
		"last_name":  `COALESCE(NULLIF(EXCLUDED."last_name", ''), "subscribers"."last_name")`,
		"tags":       `ARRAY(SELECT DISTINCT unnest("subscribers"."tags" || EXCLUDED."tags"))`,
		"metadata":   `"subscribers"."metadata" || EXCLUDED."metadata"`,
	},
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.pool.Ping(ctx), "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

// UpsertLeads writes leads in one transaction and returns the stored id of
// each, in input order. An existing row keeps its id.
func (s *PostgresStore) UpsertLeads(ctx context.Context, leads []model.Lead) ([]string, error) {
	if len(leads) == 0 {
		return nil, nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: begin upsert leads")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	now := time.Now().UTC()
	ids := make([]string, 0, len(leads))
	for _, l := range leads {
		created := l.CreatedAt
		if created.IsZero() {
			created = now
		}
		details, err := detailsJSON(l)
		if err != nil {
			return nil, err
		}
		q, args, err := upsertLead(sq.Dollar, l, details, created, now)
		if err != nil {
			return nil, err
		}

		var id string
		if err := tx.QueryRow(ctx, q, args...).Scan(&id); err != nil {
			return nil, eris.Wrapf(err, "postgres: upsert lead %s", l.Email)
		}
		ids = append(ids, id)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, eris.Wrap(err, "postgres: commit upsert leads")
	}
	return ids, nil
}

func (s *PostgresStore) SearchLeads(ctx context.Context, opts SearchOptions) ([]model.Lead, error) {
	q, args, err := searchLeads(sq.Dollar, opts, func(col, pattern string) sq.Sqlizer {
		return sq.ILike{col: pattern}
	})
	if err != nil {
		return nil, err
	}
	return s.queryLeads(ctx, q, args)
}

func (s *PostgresStore) GetLeads(ctx context.Context, ids []string) ([]model.Lead, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	q, args, err := getLeads(sq.Dollar, ids)
	if err != nil {
		return nil, err
	}
	leads, err := s.queryLeads(ctx, q, args)
	if err != nil {
		return nil, err
	}
	return orderByIDs(leads, ids), nil
}

func (s *PostgresStore) queryLeads(ctx context.Context, q string, args []any) ([]model.Lead, error) {
	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: query leads")
	}
	defer rows.Close()

	var leads []model.Lead
	for rows.Next() {
		l, err := scanPostgresLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, l)
	}
	return leads, eris.Wrap(rows.Err(), "postgres: iterate leads")
}

func scanPostgresLead(row pgx.Row) (model.Lead, error) {
	var (
		l                  model.Lead
		details            []byte
		source, enrichedBy string
	)
	err := row.Scan(
		&l.ID, &l.Email, &l.Name, &l.Title, &l.Company, &l.Phone, &l.LinkedIn, &l.Website,
		&l.Industry, &l.Location, &l.Employees, &details, &source, &enrichedBy,
		&l.ConfidenceScore, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return l, eris.Wrap(err, "postgres: scan lead")
	}
	l.Source = model.Source(source)
	l.EnrichedBy = model.Source(enrichedBy)
	return l, applyDetails(&l, details)
}

// UpsertSubscribers stages subscribers with COPY and merges them by email.
// Callers must pass at most one row per email.
func (s *PostgresStore) UpsertSubscribers(ctx context.Context, subs []model.Subscriber) (int, error) {
	now := time.Now().UTC()
	rows := make([][]any, 0, len(subs))
	for _, sub := range subs {
		if sub.ID == "" {
			sub.ID = uuid.New().String()
		}
		if sub.Status == "" {
			sub.Status = model.StatusActive
		}
		tags := sub.Tags
		if tags == nil {
			tags = []string{}
		}
		meta, err := marshalMetadata(sub.Metadata)
		if err != nil {
			return 0, err
		}
		rows = append(rows, []any{sub.ID, sub.Email, sub.FirstName, sub.LastName, sub.Status, tags, meta, now, now})
	}

	n, err := db.BulkUpsert(ctx, s.pool, subscriberUpsert, rows)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: upsert subscribers")
	}
	return int(n), nil
}

func (s *PostgresStore) ListSubscribers(ctx context.Context, filter SubscriberFilter) ([]model.Subscriber, error) {
	b := sq.Select("id", "email", "first_name", "last_name", "status", "tags", "metadata", "created_at", "updated_at").
		From("subscribers").
		PlaceholderFormat(sq.Dollar)
	if filter.Tag != "" {
		b = b.Where(sq.Expr("? = ANY(tags)", filter.Tag))
	}
	if filter.Status != "" {
		b = b.Where(sq.Eq{"status": filter.Status})
	}
	q, args, err := b.OrderBy("created_at DESC").Limit(limitOrDefault(filter.Limit)).ToSql()
	if err != nil {
		return nil, eris.Wrap(err, "postgres: build subscriber list")
	}

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list subscribers")
	}
	defer rows.Close()

	var subs []model.Subscriber
	for rows.Next() {
		var (
			sub  model.Subscriber
			meta []byte
		)
		if err := rows.Scan(&sub.ID, &sub.Email, &sub.FirstName, &sub.LastName, &sub.Status, &sub.Tags, &meta, &sub.CreatedAt, &sub.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan subscriber")
		}
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &sub.Metadata); err != nil {
				return nil, eris.Wrapf(err, "postgres: unmarshal metadata for %s", sub.Email)
			}
		}
		subs = append(subs, sub)
	}
	return subs, eris.Wrap(rows.Err(), "postgres: iterate subscribers")
}

func marshalMetadata(m map[string]any) ([]byte, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, eris.Wrap(err, "store: marshal subscriber metadata")
	}
	return b, nil
}
