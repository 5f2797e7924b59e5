package source

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/lead-finder/internal/model"
	"github.com/sells-group/lead-finder/internal/scrape"
	"github.com/sells-group/lead-finder/internal/store"
)

type mockLeadSearcher struct {
	mock.Mock
}

func (m *mockLeadSearcher) Search(ctx context.Context, opts store.SearchOptions) ([]model.Lead, error) {
	args := m.Called(ctx, opts)
	leads, _ := args.Get(0).([]model.Lead)
	return leads, args.Error(1)
}

type mockSearcher struct {
	mock.Mock
}

func (m *mockSearcher) Name() string { return "mock" }

func (m *mockSearcher) Search(ctx context.Context, query string, limit int) ([]scrape.SearchResult, error) {
	args := m.Called(ctx, query, limit)
	rs, _ := args.Get(0).([]scrape.SearchResult)
	return rs, args.Error(1)
}

type mockFetcher struct {
	mock.Mock
}

func (m *mockFetcher) ScrapeAll(ctx context.Context, urls []string, maxConcurrent int) []model.Page {
	args := m.Called(ctx, urls, maxConcurrent)
	pages, _ := args.Get(0).([]model.Page)
	return pages
}

type mockGenerator struct {
	mock.Mock
}

func (m *mockGenerator) Name() string { return "mockgen" }

func (m *mockGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}
