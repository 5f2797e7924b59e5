package export

import (
	"context"

	"github.com/jomei/notionapi"
	"github.com/stretchr/testify/mock"

	"github.com/sells-group/lead-finder/pkg/salesforce"
)

type mockNotion struct {
	mock.Mock
}

func (m *mockNotion) QueryDatabase(ctx context.Context, dbID string, req *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error) {
	args := m.Called(ctx, dbID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*notionapi.DatabaseQueryResponse), args.Error(1)
}

func (m *mockNotion) CreatePage(ctx context.Context, req *notionapi.PageCreateRequest) (*notionapi.Page, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*notionapi.Page), args.Error(1)
}

func (m *mockNotion) UpdatePage(ctx context.Context, pageID string, req *notionapi.PageUpdateRequest) (*notionapi.Page, error) {
	args := m.Called(ctx, pageID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*notionapi.Page), args.Error(1)
}

type mockSalesforce struct {
	mock.Mock
}

func (m *mockSalesforce) Query(ctx context.Context, soql string, out any) error {
	return m.Called(ctx, soql, out).Error(0)
}

func (m *mockSalesforce) InsertCollection(ctx context.Context, sObject string, records []map[string]any) ([]salesforce.CollectionResult, error) {
	args := m.Called(ctx, sObject, records)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]salesforce.CollectionResult), args.Error(1)
}

func (m *mockSalesforce) UpdateCollection(ctx context.Context, sObject string, records []map[string]any) ([]salesforce.CollectionResult, error) {
	args := m.Called(ctx, sObject, records)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]salesforce.CollectionResult), args.Error(1)
}
