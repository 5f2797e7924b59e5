package server

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/lead-finder/internal/enrich"
	"github.com/sells-group/lead-finder/internal/finder"
	"github.com/sells-group/lead-finder/internal/model"
	"github.com/sells-group/lead-finder/internal/store"
)

type mockFinder struct {
	mock.Mock
}

func (m *mockFinder) Search(ctx context.Context, q model.Query) (*finder.Result, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*finder.Result), args.Error(1)
}

func (m *mockFinder) SearchDomains(ctx context.Context, domains []string, opts finder.BulkOptions) (*finder.BulkResult, error) {
	args := m.Called(ctx, domains, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*finder.BulkResult), args.Error(1)
}

type mockEnricher struct {
	mock.Mock
}

func (m *mockEnricher) Enrich(ctx context.Context, leads []model.Lead, th enrich.Threshold) (*enrich.Result, error) {
	args := m.Called(ctx, leads, th)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*enrich.Result), args.Error(1)
}

type mockGateway struct {
	mock.Mock
}

func (m *mockGateway) Save(ctx context.Context, leads []model.Lead) (*store.SaveResult, error) {
	args := m.Called(ctx, leads)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.SaveResult), args.Error(1)
}

func (m *mockGateway) Search(ctx context.Context, opts store.SearchOptions) ([]model.Lead, error) {
	args := m.Called(ctx, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Lead), args.Error(1)
}

func (m *mockGateway) Get(ctx context.Context, ids []string) ([]model.Lead, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Lead), args.Error(1)
}

func (m *mockGateway) SaveSubscribers(ctx context.Context, subs []model.Subscriber) (int, []store.Rejection, error) {
	args := m.Called(ctx, subs)
	var rejected []store.Rejection
	if args.Get(1) != nil {
		rejected = args.Get(1).([]store.Rejection)
	}
	return args.Int(0), rejected, args.Error(2)
}

type mockPinger struct {
	mock.Mock
}

func (m *mockPinger) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}
