package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/lead-finder/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func TestSQLite_UpsertLeads_SameEmailKeepsOneRecord(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	first, err := st.UpsertLeads(ctx, []model.Lead{{Email: "ann@acme.com", Name: "Ann", Title: "CTO"}})
	require.NoError(t, err)
	second, err := st.UpsertLeads(ctx, []model.Lead{{Email: "ann@acme.com", Name: "Ann Lee", Title: "CEO", Source: model.SourceAI}})
	require.NoError(t, err)
	assert.Equal(t, first, second, "existing row keeps its id")

	leads, err := st.SearchLeads(ctx, SearchOptions{})
	require.NoError(t, err)
	require.Len(t, leads, 1)
	assert.Equal(t, "Ann Lee", leads[0].Name)
	assert.Equal(t, "CEO", leads[0].Title)
	assert.Equal(t, model.SourceAI, leads[0].Source)
}

func TestSQLite_UpsertLeads_PersistsDetails(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	ids, err := st.UpsertLeads(ctx, []model.Lead{{
		Email:           "bo@acme.com",
		Technologies:    []string{"Go", "Postgres"},
		Revenue:         "$5M-$10M",
		EnrichedBy:      model.SourceSynthetic,
		ConfidenceScore: 72,
	}})
	require.NoError(t, err)
	require.Len(t, ids, 1)

	leads, err := st.GetLeads(ctx, ids)
	require.NoError(t, err)
	require.Len(t, leads, 1)
	assert.Equal(t, []string{"Go", "Postgres"}, leads[0].Technologies)
	assert.Equal(t, "$5M-$10M", leads[0].Revenue)
	assert.Equal(t, model.SourceSynthetic, leads[0].EnrichedBy)
	assert.Equal(t, 72, leads[0].ConfidenceScore)
	assert.False(t, leads[0].CreatedAt.IsZero())
}

func TestSQLite_SearchLeads(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	old := time.Now().Add(-time.Hour)
	_, err := st.UpsertLeads(ctx, []model.Lead{
		{Email: "a@acme.com", Company: "Acme", Industry: "Technology", CreatedAt: old},
		{Email: "b@globex.com", Company: "Globex", Location: "Acme City"},
		{Email: "c@initech.com", Company: "Initech", Title: "Engineer"},
		{Email: "d@acme.com", Company: "ACME Synthetic", Source: model.SourceSynthetic},
	})
	require.NoError(t, err)

	leads, err := st.SearchLeads(ctx, SearchOptions{Text: "acme"})
	require.NoError(t, err)
	require.Len(t, leads, 3)
	assert.Equal(t, "a@acme.com", leads[len(leads)-1].Email, "oldest last")

	leads, err = st.SearchLeads(ctx, SearchOptions{Text: "acme", ExcludeSynthetic: true})
	require.NoError(t, err)
	assert.Len(t, leads, 2)

	leads, err = st.SearchLeads(ctx, SearchOptions{Text: "acme", Limit: 1})
	require.NoError(t, err)
	assert.Len(t, leads, 1)

	leads, err = st.SearchLeads(ctx, SearchOptions{Text: "100%"})
	require.NoError(t, err)
	assert.Empty(t, leads)
}

func TestSQLite_GetLeads_OrderAndUnknown(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	ids, err := st.UpsertLeads(ctx, []model.Lead{{Email: "a@acme.com"}, {Email: "b@acme.com"}})
	require.NoError(t, err)

	leads, err := st.GetLeads(ctx, []string{ids[1], "missing", ids[0]})
	require.NoError(t, err)
	require.Len(t, leads, 2)
	assert.Equal(t, "b@acme.com", leads[0].Email)
	assert.Equal(t, "a@acme.com", leads[1].Email)
}

func TestSQLite_MissingTable(t *testing.T) {
	st, err := NewSQLite(filepath.Join(t.TempDir(), "empty.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck

	_, err = st.UpsertLeads(context.Background(), []model.Lead{{Email: "a@acme.com"}})
	require.Error(t, err)
	assert.True(t, IsMissingTable(err))
}

func TestSQLite_UpsertSubscribers_Merges(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	n, err := st.UpsertSubscribers(ctx, []model.Subscriber{{
		Email:     "ann@acme.com",
		FirstName: "Ann",
		Tags:      []string{"leads"},
		Metadata:  map[string]any{"source": "lead-finder", "company": "Acme"},
	}})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = st.UpsertSubscribers(ctx, []model.Subscriber{{
		Email:    "ann@acme.com",
		Tags:     []string{"vip", "leads"},
		Metadata: map[string]any{"company": "Acme Corp"},
	}})
	require.NoError(t, err)

	subs, err := st.ListSubscribers(ctx, SubscriberFilter{})
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, "Ann", subs[0].FirstName, "blank name does not clear stored one")
	assert.Equal(t, []string{"leads", "vip"}, subs[0].Tags)
	assert.Equal(t, "Acme Corp", subs[0].Metadata["company"])
	assert.Equal(t, "lead-finder", subs[0].Metadata["source"])
	assert.Equal(t, model.StatusActive, subs[0].Status)
}

func TestSQLite_ListSubscribers_Filters(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	_, err := st.UpsertSubscribers(ctx, []model.Subscriber{
		{Email: "a@acme.com", Tags: []string{"vip"}},
		{Email: "b@acme.com", Tags: []string{"newsletter"}, Status: "unsubscribed"},
		{Email: "c@acme.com"},
	})
	require.NoError(t, err)

	subs, err := st.ListSubscribers(ctx, SubscriberFilter{Tag: "vip"})
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, "a@acme.com", subs[0].Email)

	subs, err = st.ListSubscribers(ctx, SubscriberFilter{Status: "unsubscribed"})
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, "b@acme.com", subs[0].Email)

	subs, err = st.ListSubscribers(ctx, SubscriberFilter{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, subs, 2)
}

func TestSQLite_TimeLayoutSortsLexically(t *testing.T) {
	a := formatTime(time.Date(2026, 1, 2, 3, 4, 5, 6, time.UTC))
	b := formatTime(time.Date(2026, 1, 2, 3, 4, 5, 700, time.UTC))
	assert.Less(t, a, b)
	assert.Equal(t, time.Date(2026, 1, 2, 3, 4, 5, 6, time.UTC), parseTime(a))
}
