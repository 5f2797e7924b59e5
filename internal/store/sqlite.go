package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"maps"
	"slices"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/lead-finder/internal/model"
)

// sqliteTime is the fixed-width UTC layout used for timestamp columns so
// that text ordering matches time ordering.
const sqliteTime = "2006-01-02T15:04:05.000000000Z"

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS leads (
	id               TEXT PRIMARY KEY,
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
	details          TEXT NOT NULL DEFAULT '{}',
	source           TEXT NOT NULL DEFAULT '',
	enriched_by      TEXT NOT NULL DEFAULT '',
	confidence_score INTEGER NOT NULL DEFAULT 0,
	created_at       TEXT NOT NULL,
	updated_at       TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_leads_created_at ON leads(created_at);
CREATE INDEX IF NOT EXISTS idx_leads_source ON leads(source);

CREATE TABLE IF NOT EXISTS subscribers (
	id         TEXT PRIMARY KEY,
	email      TEXT NOT NULL UNIQUE,
	first_name TEXT NOT NULL DEFAULT '',
	last_name  TEXT NOT NULL DEFAULT '',
	status     TEXT NOT NULL DEFAULT 'active',
	tags       TEXT NOT NULL DEFAULT '[]',
	metadata   TEXT NOT NULL DEFAULT '{}',
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_subscribers_status ON subscribers(status);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.db.PingContext(ctx), "sqlite: ping")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) UpsertLeads(ctx context.Context, leads []model.Lead) ([]string, error) {
	if len(leads) == 0 {
		return nil, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: begin upsert leads")
	}
	defer tx.Rollback() //nolint:errcheck

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
		q, args, err := upsertLead(sq.Question, l, details, formatTime(created), formatTime(now))
		if err != nil {
			return nil, err
		}

		var id string
		if err := tx.QueryRowContext(ctx, q, args...).Scan(&id); err != nil {
			return nil, eris.Wrapf(err, "sqlite: upsert lead %s", l.Email)
		}
		ids = append(ids, id)
	}

	if err := tx.Commit(); err != nil {
		return nil, eris.Wrap(err, "sqlite: commit upsert leads")
	}
	return ids, nil
}

func (s *SQLiteStore) SearchLeads(ctx context.Context, opts SearchOptions) ([]model.Lead, error) {
	q, args, err := searchLeads(sq.Question, opts, func(col, pattern string) sq.Sqlizer {
		return sq.Expr(col+` LIKE ? ESCAPE '\'`, pattern)
	})
	if err != nil {
		return nil, err
	}
	return s.queryLeads(ctx, q, args)
}

func (s *SQLiteStore) GetLeads(ctx context.Context, ids []string) ([]model.Lead, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	q, args, err := getLeads(sq.Question, ids)
	if err != nil {
		return nil, err
	}
	leads, err := s.queryLeads(ctx, q, args)
	if err != nil {
		return nil, err
	}
	return orderByIDs(leads, ids), nil
}

func (s *SQLiteStore) queryLeads(ctx context.Context, q string, args []any) ([]model.Lead, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: query leads")
	}
	defer rows.Close() //nolint:errcheck

	var leads []model.Lead
	for rows.Next() {
		var (
			l                  model.Lead
			details            string
			source, enrichedBy string
			created, updated   string
		)
		err := rows.Scan(
			&l.ID, &l.Email, &l.Name, &l.Title, &l.Company, &l.Phone, &l.LinkedIn, &l.Website,
			&l.Industry, &l.Location, &l.Employees, &details, &source, &enrichedBy,
			&l.ConfidenceScore, &created, &updated,
		)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan lead")
		}
		l.Source = model.Source(source)
		l.EnrichedBy = model.Source(enrichedBy)
		l.CreatedAt = parseTime(created)
		l.UpdatedAt = parseTime(updated)
		if err := applyDetails(&l, []byte(details)); err != nil {
			return nil, err
		}
		leads = append(leads, l)
	}
	return leads, eris.Wrap(rows.Err(), "sqlite: iterate leads")
}

// UpsertSubscribers merges each subscriber into any existing row with the
// same email: tags are unioned, metadata keys overlaid, blank names kept.
func (s *SQLiteStore) UpsertSubscribers(ctx context.Context, subs []model.Subscriber) (int, error) {
	if len(subs) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin upsert subscribers")
	}
	defer tx.Rollback() //nolint:errcheck

	now := formatTime(time.Now().UTC())
	for _, sub := range subs {
		var existingTags, existingMeta string
		err := tx.QueryRowContext(ctx, `SELECT tags, metadata FROM subscribers WHERE email = ?`, sub.Email).
			Scan(&existingTags, &existingMeta)
		switch {
		case errors.Is(err, sql.ErrNoRows):
		case err != nil:
			return 0, eris.Wrapf(err, "sqlite: load subscriber %s", sub.Email)
		default:
			if err := mergeStored(&sub, existingTags, existingMeta); err != nil {
				return 0, err
			}
		}

		if sub.ID == "" {
			sub.ID = uuid.New().String()
		}
		if sub.Status == "" {
			sub.Status = model.StatusActive
		}
		tags, err := json.Marshal(nonNil(sub.Tags))
		if err != nil {
			return 0, eris.Wrap(err, "sqlite: marshal tags")
		}
		meta, err := marshalMetadata(sub.Metadata)
		if err != nil {
			return 0, err
		}

		q, args, err := sq.Insert("subscribers").
			Columns("id", "email", "first_name", "last_name", "status", "tags", "metadata", "created_at", "updated_at").
			Values(sub.ID, sub.Email, sub.FirstName, sub.LastName, sub.Status, string(tags), string(meta), now, now).
			Suffix(`ON CONFLICT (email) DO UPDATE SET ` +
				`first_name = COALESCE(NULLIF(EXCLUDED.first_name, ''), subscribers.first_name), ` +
				`last_name = COALESCE(NULLIF(EXCLUDED.last_name, ''), subscribers.last_name), ` +
				`status = EXCLUDED.status, tags = EXCLUDED.tags, metadata = EXCLUDED.metadata, updated_at = EXCLUDED.updated_at`).
			ToSql()
		if err != nil {
			return 0, eris.Wrap(err, "sqlite: build subscriber upsert")
		}
		if _, err := tx.ExecContext(ctx, q, args...); err != nil {
			return 0, eris.Wrapf(err, "sqlite: upsert subscriber %s", sub.Email)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit upsert subscribers")
	}
	return len(subs), nil
}

func mergeStored(sub *model.Subscriber, tagsJSON, metaJSON string) error {
	var tags []string
	if err := json.Unmarshal([]byte(tagsJSON), &tags); err != nil {
		return eris.Wrapf(err, "sqlite: unmarshal tags for %s", sub.Email)
	}
	var meta map[string]any
	if err := json.Unmarshal([]byte(metaJSON), &meta); err != nil {
		return eris.Wrapf(err, "sqlite: unmarshal metadata for %s", sub.Email)
	}

	for _, t := range sub.Tags {
		if !slices.Contains(tags, t) {
			tags = append(tags, t)
		}
	}
	sub.Tags = tags

	if meta == nil {
		meta = map[string]any{}
	}
	maps.Copy(meta, sub.Metadata)
	sub.Metadata = meta
	return nil
}

func (s *SQLiteStore) ListSubscribers(ctx context.Context, filter SubscriberFilter) ([]model.Subscriber, error) {
	b := sq.Select("id", "email", "first_name", "last_name", "status", "tags", "metadata", "created_at", "updated_at").
		From("subscribers")
	if filter.Tag != "" {
		b = b.Where(sq.Expr("EXISTS (SELECT 1 FROM json_each(subscribers.tags) WHERE json_each.value = ?)", filter.Tag))
	}
	if filter.Status != "" {
		b = b.Where(sq.Eq{"status": filter.Status})
	}
	q, args, err := b.OrderBy("created_at DESC").Limit(limitOrDefault(filter.Limit)).ToSql()
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: build subscriber list")
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list subscribers")
	}
	defer rows.Close() //nolint:errcheck

	var subs []model.Subscriber
	for rows.Next() {
		var (
			sub                         model.Subscriber
			tags, meta, created, update string
		)
		if err := rows.Scan(&sub.ID, &sub.Email, &sub.FirstName, &sub.LastName, &sub.Status, &tags, &meta, &created, &update); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan subscriber")
		}
		if err := json.Unmarshal([]byte(tags), &sub.Tags); err != nil {
			return nil, eris.Wrapf(err, "sqlite: unmarshal tags for %s", sub.Email)
		}
		if err := json.Unmarshal([]byte(meta), &sub.Metadata); err != nil {
			return nil, eris.Wrapf(err, "sqlite: unmarshal metadata for %s", sub.Email)
		}
		sub.CreatedAt = parseTime(created)
		sub.UpdatedAt = parseTime(update)
		subs = append(subs, sub)
	}
	return subs, eris.Wrap(rows.Err(), "sqlite: iterate subscribers")
}

func formatTime(t time.Time) string {
	return t.UTC().Format(sqliteTime)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(sqliteTime, s)
	return t
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
