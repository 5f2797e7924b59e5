package store

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/lead-finder/internal/model"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	s := &PostgresStore{pool: mock}
	return s, mock
}

func TestPostgresStore_UpsertLeads(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO leads .* ON CONFLICT \(email\) DO UPDATE SET .* RETURNING id`).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow("existing-id"))
	mock.ExpectQuery(`INSERT INTO leads`).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow("new-id"))
	mock.ExpectCommit()

	ids, err := s.UpsertLeads(context.Background(), []model.Lead{
		{Email: "a@acme.com", Name: "Ann"},
		{ID: "new-id", Email: "b@acme.com"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"existing-id", "new-id"}, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpsertLeads_MissingTable(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO leads`).
		WillReturnError(&pgconn.PgError{Code: "42P01", Message: `relation "leads" does not exist`})
	mock.ExpectRollback()

	_, err := s.UpsertLeads(context.Background(), []model.Lead{{Email: "a@acme.com"}})
	require.Error(t, err)
	assert.True(t, IsMissingTable(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpsertLeads_Empty(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	ids, err := s.UpsertLeads(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func leadRow(id, email string, created time.Time) *pgxmock.Rows {
	return pgxmock.NewRows(leadColumns).AddRow(
		id, email, "Ann Lee", "CTO", "Acme", "555-0100", "", "https://acme.com",
		"Technology", "Austin", "11-50", []byte(`{"technologies":["Go"]}`), "web", "",
		80, created, created,
	)
}

func TestPostgresStore_SearchLeads(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	now := time.Now().UTC()

	mock.ExpectQuery(`SELECT .* FROM leads WHERE \(name ILIKE \$1 OR company ILIKE \$2 .*\) ORDER BY created_at DESC LIMIT 10`).
		WithArgs("%acme%", "%acme%", "%acme%", "%acme%", "%acme%").
		WillReturnRows(leadRow("l1", "ann@acme.com", now))

	leads, err := s.SearchLeads(context.Background(), SearchOptions{Text: "acme", Limit: 10})
	require.NoError(t, err)
	require.Len(t, leads, 1)
	assert.Equal(t, "ann@acme.com", leads[0].Email)
	assert.Equal(t, model.SourceWeb, leads[0].Source)
	assert.Equal(t, []string{"Go"}, leads[0].Technologies)
	assert.Equal(t, 80, leads[0].ConfidenceScore)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetLeads(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	now := time.Now().UTC()

	rows := leadRow("l2", "b@acme.com", now)
	rows.AddRow("l1", "a@acme.com", "", "", "", "", "", "", "", "", "", []byte(`{}`), "ai", "", 70, now, now)
	mock.ExpectQuery(`SELECT .* FROM leads WHERE id IN \(\$1,\$2\)`).
		WithArgs("l1", "l2").
		WillReturnRows(rows)

	leads, err := s.GetLeads(context.Background(), []string{"l1", "l2"})
	require.NoError(t, err)
	require.Len(t, leads, 2)
	assert.Equal(t, "l1", leads[0].ID)
	assert.Equal(t, "l2", leads[1].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetLeads_NoIDs(t *testing.T) {
	s, _ := newMockPostgresStore(t)
	leads, err := s.GetLeads(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, leads)
}

func TestPostgresStore_UpsertSubscribers(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`CREATE TEMP TABLE "_tmp_upsert_subscribers"`).
		WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"_tmp_upsert_subscribers"}, subscriberUpsert.Columns).
		WillReturnResult(2)
	mock.ExpectExec(`INSERT INTO "subscribers" .* ON CONFLICT \("email"\) DO UPDATE SET .*unnest`).
		WillReturnResult(pgxmock.NewResult("INSERT", 2))
	mock.ExpectCommit()

	n, err := s.UpsertSubscribers(context.Background(), []model.Subscriber{
		{Email: "a@acme.com", Tags: []string{"leads"}},
		{Email: "b@acme.com"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListSubscribers(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	now := time.Now().UTC()

	mock.ExpectQuery(`SELECT .* FROM subscribers WHERE \$1 = ANY\(tags\) AND status = \$2 ORDER BY created_at DESC LIMIT 50`).
		WithArgs("vip", "active").
		WillReturnRows(pgxmock.NewRows([]string{"id", "email", "first_name", "last_name", "status", "tags", "metadata", "created_at", "updated_at"}).
			AddRow("s1", "a@acme.com", "Ann", "Lee", "active", []string{"vip"}, []byte(`{"source":"lead-finder"}`), now, now))

	subs, err := s.ListSubscribers(context.Background(), SubscriberFilter{Tag: "vip", Status: "active"})
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, []string{"vip"}, subs[0].Tags)
	assert.Equal(t, "lead-finder", subs[0].Metadata["source"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_MigrateAndPing(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS leads`).WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))
	mock.ExpectPing()

	require.NoError(t, s.Migrate(context.Background()))
	require.NoError(t, s.Ping(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
