package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/lead-finder/internal/model"
)

func TestGateway_Save_ValidatesAndNormalizes(t *testing.T) {
	st := &mockStore{}
	st.On("UpsertLeads", mock.Anything, mock.MatchedBy(func(leads []model.Lead) bool {
		return len(leads) == 1 && leads[0].Email == "ann@acme.com"
	})).Return([]string{"id-1"}, nil)

	res, err := NewGateway(st).Save(context.Background(), []model.Lead{
		{Email: "  Ann@ACME.com "},
		{Email: "not-an-email"},
		{Email: ""},
	})
	require.NoError(t, err)
	require.Len(t, res.Saved, 1)
	assert.Equal(t, "id-1", res.Saved[0].ID)
	assert.Equal(t, "ann@acme.com", res.Saved[0].Email)
	assert.Equal(t, []string{"id-1"}, res.IDs())
	require.Len(t, res.Rejected, 2)
	assert.Equal(t, "not-an-email", res.Rejected[0].Email)
	assert.Equal(t, "invalid email", res.Rejected[0].Reason)
	st.AssertExpectations(t)
}

func TestGateway_Save_DedupesLastWins(t *testing.T) {
	st := &mockStore{}
	st.On("UpsertLeads", mock.Anything, mock.MatchedBy(func(leads []model.Lead) bool {
		return len(leads) == 2 && leads[0].Name == "Second" && leads[1].Email == "bo@acme.com"
	})).Return([]string{"a", "b"}, nil)

	res, err := NewGateway(st).Save(context.Background(), []model.Lead{
		{Email: "ann@acme.com", Name: "First"},
		{Email: "bo@acme.com"},
		{Email: "ANN@acme.com", Name: "Second"},
	})
	require.NoError(t, err)
	assert.Len(t, res.Saved, 2)
	st.AssertExpectations(t)
}

func TestGateway_Save_AllInvalidSkipsStore(t *testing.T) {
	st := &mockStore{}
	res, err := NewGateway(st).Save(context.Background(), []model.Lead{{Email: "nope"}})
	require.NoError(t, err)
	assert.Empty(t, res.Saved)
	assert.Len(t, res.Rejected, 1)
	st.AssertNotCalled(t, "UpsertLeads", mock.Anything, mock.Anything)
}

func TestGateway_Save_MigratesOnMissingTable(t *testing.T) {
	st := &mockStore{}
	missing := &pgconn.PgError{Code: "42P01"}
	st.On("UpsertLeads", mock.Anything, mock.Anything).Return(nil, missing).Once()
	st.On("Migrate", mock.Anything).Return(nil).Once()
	st.On("UpsertLeads", mock.Anything, mock.Anything).Return([]string{"id-1"}, nil).Once()

	res, err := NewGateway(st).Save(context.Background(), []model.Lead{{Email: "ann@acme.com"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"id-1"}, res.IDs())
	st.AssertExpectations(t)
}

func TestGateway_Save_MigrateFails(t *testing.T) {
	st := &mockStore{}
	st.On("UpsertLeads", mock.Anything, mock.Anything).Return(nil, errors.New("no such table: leads")).Once()
	st.On("Migrate", mock.Anything).Return(errors.New("permission denied")).Once()

	_, err := NewGateway(st).Save(context.Background(), []model.Lead{{Email: "ann@acme.com"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "migrate after missing table")
	st.AssertExpectations(t)
}

func TestGateway_Save_OtherErrorsNotRetried(t *testing.T) {
	st := &mockStore{}
	st.On("UpsertLeads", mock.Anything, mock.Anything).Return(nil, errors.New("unique violation")).Once()

	_, err := NewGateway(st).Save(context.Background(), []model.Lead{{Email: "ann@acme.com"}})
	require.Error(t, err)
	st.AssertNotCalled(t, "Migrate", mock.Anything)
	st.AssertExpectations(t)
}

func TestGateway_SaveSubscribers(t *testing.T) {
	st := &mockStore{}
	st.On("UpsertSubscribers", mock.Anything, mock.MatchedBy(func(subs []model.Subscriber) bool {
		return len(subs) == 1 && subs[0].Email == "ann@acme.com" && len(subs[0].Tags) == 2
	})).Return(1, nil)

	n, rejected, err := NewGateway(st).SaveSubscribers(context.Background(), []model.Subscriber{
		{Email: "Ann@acme.com", Tags: []string{"a", "b", "a", ""}},
		{Email: "bad"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	require.Len(t, rejected, 1)
	assert.Equal(t, "bad", rejected[0].Email)
	st.AssertExpectations(t)
}

// Saving the same lead twice against a real database leaves exactly one
// record carrying the second payload.
func TestGateway_SaveTwice_SQLite(t *testing.T) {
	st, err := NewSQLite(filepath.Join(t.TempDir(), "gw.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck

	gw := NewGateway(st)
	ctx := context.Background()

	first, err := gw.Save(ctx, []model.Lead{{Email: "Ann@Acme.com", Title: "CTO"}})
	require.NoError(t, err, "schema is created on first save")
	second, err := gw.Save(ctx, []model.Lead{{Email: "ann@acme.com", Title: "CEO"}})
	require.NoError(t, err)
	assert.Equal(t, first.IDs(), second.IDs())

	leads, err := gw.Search(ctx, SearchOptions{})
	require.NoError(t, err)
	require.Len(t, leads, 1)
	assert.Equal(t, "ann@acme.com", leads[0].Email)
	assert.Equal(t, "CEO", leads[0].Title)
}

func TestGateway_Save_IgnoresCallerIDs_SQLite(t *testing.T) {
	st, err := NewSQLite(filepath.Join(t.TempDir(), "gw.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck

	gw := NewGateway(st)
	ctx := context.Background()

	first, err := gw.Save(ctx, []model.Lead{{ID: "1", Email: "ann@acme.com", Name: "Ann"}})
	require.NoError(t, err)
	require.Len(t, first.Saved, 1)
	annID := first.Saved[0].ID
	assert.NotEqual(t, "1", annID)

	// A later batch reusing id "1" for another email must not collide.
	second, err := gw.Save(ctx, []model.Lead{
		{ID: "1", Email: "bob@beta.com", Name: "Bob"},
		{ID: "2", Email: "cy@gamma.io", Name: "Cy"},
		{ID: "1", Email: "ann@acme.com", Name: "Ann Lee"},
	})
	require.NoError(t, err)
	require.Len(t, second.Saved, 3)
	assert.Equal(t, annID, second.Saved[2].ID, "existing email keeps its stored id")
	assert.NotEqual(t, second.Saved[0].ID, second.Saved[1].ID)

	leads, err := gw.Search(ctx, SearchOptions{})
	require.NoError(t, err)
	assert.Len(t, leads, 3)

	got, err := gw.Get(ctx, []string{annID})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Ann Lee", got[0].Name)
}
