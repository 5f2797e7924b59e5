package store

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/lead-finder/internal/model"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) UpsertLeads(ctx context.Context, leads []model.Lead) ([]string, error) {
	args := m.Called(ctx, leads)
	ids, _ := args.Get(0).([]string)
	return ids, args.Error(1)
}

func (m *mockStore) SearchLeads(ctx context.Context, opts SearchOptions) ([]model.Lead, error) {
	args := m.Called(ctx, opts)
	leads, _ := args.Get(0).([]model.Lead)
	return leads, args.Error(1)
}

func (m *mockStore) GetLeads(ctx context.Context, ids []string) ([]model.Lead, error) {
	args := m.Called(ctx, ids)
	leads, _ := args.Get(0).([]model.Lead)
	return leads, args.Error(1)
}

func (m *mockStore) UpsertSubscribers(ctx context.Context, subs []model.Subscriber) (int, error) {
	args := m.Called(ctx, subs)
	return args.Int(0), args.Error(1)
}

func (m *mockStore) ListSubscribers(ctx context.Context, filter SubscriberFilter) ([]model.Subscriber, error) {
	args := m.Called(ctx, filter)
	subs, _ := args.Get(0).([]model.Subscriber)
	return subs, args.Error(1)
}

func (m *mockStore) Migrate(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockStore) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockStore) Close() error {
	return m.Called().Error(0)
}
