package salesforce

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type mockClient struct {
	mock.Mock
}

func (m *mockClient) Query(ctx context.Context, soql string, out any) error {
	args := m.Called(ctx, soql, out)
	return args.Error(0)
}

func (m *mockClient) InsertCollection(ctx context.Context, sObject string, records []map[string]any) ([]CollectionResult, error) {
	args := m.Called(ctx, sObject, records)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]CollectionResult), args.Error(1)
}

func (m *mockClient) UpdateCollection(ctx context.Context, sObject string, records []map[string]any) ([]CollectionResult, error) {
	args := m.Called(ctx, sObject, records)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]CollectionResult), args.Error(1)
}
