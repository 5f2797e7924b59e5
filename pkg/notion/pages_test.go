package notion

import (
	"context"
	"testing"

	"github.com/jomei/notionapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func emailQuery(email string) any {
	return mock.MatchedBy(func(req *notionapi.DatabaseQueryRequest) bool {
		pf, ok := req.Filter.(notionapi.PropertyFilter)
		return ok && pf.Property == "Email" && pf.RichText != nil && pf.RichText.Equals == email
	})
}

func TestUpsertByEmail_Creates(t *testing.T) {
	mc := new(mockClient)
	ctx := context.Background()

	mc.On("QueryDatabase", ctx, "db-1", emailQuery("ada@example.com")).
		Return(&notionapi.DatabaseQueryResponse{}, nil).Once()
	mc.On("CreatePage", ctx, mock.MatchedBy(func(req *notionapi.PageCreateRequest) bool {
		return req.Parent.DatabaseID == "db-1" && req.Properties["Name"] != nil
	})).Return(&notionapi.Page{ID: "new"}, nil).Once()

	created, err := UpsertByEmail(ctx, mc, "db-1", "Email", "ada@example.com", notionapi.Properties{"Name": Title("Ada")})
	require.NoError(t, err)
	assert.True(t, created)
	mc.AssertExpectations(t)
}

func TestUpsertByEmail_Updates(t *testing.T) {
	mc := new(mockClient)
	ctx := context.Background()

	mc.On("QueryDatabase", ctx, "db-1", emailQuery("ada@example.com")).
		Return(&notionapi.DatabaseQueryResponse{Results: []notionapi.Page{{ID: "page-9"}}}, nil).Once()
	mc.On("UpdatePage", ctx, "page-9", mock.AnythingOfType("*notionapi.PageUpdateRequest")).
		Return(&notionapi.Page{ID: "page-9"}, nil).Once()

	created, err := UpsertByEmail(ctx, mc, "db-1", "Email", "ada@example.com", notionapi.Properties{})
	require.NoError(t, err)
	assert.False(t, created)
	mc.AssertNotCalled(t, "CreatePage", mock.Anything, mock.Anything)
}

func TestUpsertByEmail_QueryError(t *testing.T) {
	mc := new(mockClient)
	ctx := context.Background()

	mc.On("QueryDatabase", ctx, "db-1", mock.Anything).Return(nil, assert.AnError)

	_, err := UpsertByEmail(ctx, mc, "db-1", "Email", "x@y.com", notionapi.Properties{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "notion: find x@y.com")
}

func TestPropertyBuilders(t *testing.T) {
	assert.Equal(t, "Ada", Title("Ada").Title[0].Text.Content)
	assert.Equal(t, notionapi.PropertyTypeRichText, Text("x").Type)
	assert.Equal(t, "https://acme.com", URL("https://acme.com").URL)
	assert.Equal(t, float64(88), Number(88).Number)
	assert.Equal(t, "web", Select("web").Select.Name)

	ms := MultiSelect([]string{"go", "sql"})
	require.Len(t, ms.MultiSelect, 2)
	assert.Equal(t, "sql", ms.MultiSelect[1].Name)
}

func TestNewClient(t *testing.T) {
	c := NewClient("token", WithRateLimit(0))
	require.NotNil(t, c)
	assert.Nil(t, c.(*apiClient).limiter)

	c = NewClient("token", WithRateLimit(10))
	assert.NotNil(t, c.(*apiClient).limiter)
}
