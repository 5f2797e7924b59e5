package finder

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/lead-finder/internal/model"
	"github.com/sells-group/lead-finder/internal/store"
)

// stubSource returns fixed leads or an error and counts its calls.
type stubSource struct {
	name  string
	stage model.Stage
	leads []model.Lead
	err   error
	fn    func(q model.Query) []model.Lead

	mu      sync.Mutex
	queries []model.Query
}

func (s *stubSource) Name() string       { return s.name }
func (s *stubSource) Stage() model.Stage { return s.stage }

func (s *stubSource) Search(_ context.Context, q model.Query) ([]model.Lead, error) {
	s.mu.Lock()
	s.queries = append(s.queries, q)
	s.mu.Unlock()
	if s.fn != nil {
		return s.fn(q), nil
	}
	return s.leads, s.err
}

func (s *stubSource) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queries)
}

type mockSaver struct {
	mock.Mock
}

func (m *mockSaver) Save(ctx context.Context, leads []model.Lead) (*store.SaveResult, error) {
	args := m.Called(ctx, leads)
	res, _ := args.Get(0).(*store.SaveResult)
	return res, args.Error(1)
}

type mockGenerator struct {
	reply string
}

func (m *mockGenerator) Name() string { return "mockgen" }

func (m *mockGenerator) Generate(context.Context, string) (string, error) {
	return m.reply, nil
}
