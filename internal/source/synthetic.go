package source

import (
	"context"

	"github.com/sells-group/lead-finder/internal/fabricate"
	"github.com/sells-group/lead-finder/internal/model"
)

// SyntheticSource fabricates plausible leads from lookup tables. Every lead
// it returns is tagged synthetic. It never fails.
type SyntheticSource struct {
	gen *fabricate.Generator
}

// NewSyntheticSource creates a SyntheticSource over tables.
func NewSyntheticSource(tables *fabricate.Tables) *SyntheticSource {
	return &SyntheticSource{gen: fabricate.NewGenerator(tables)}
}

func (s *SyntheticSource) Name() string       { return "synthetic" }
func (s *SyntheticSource) Stage() model.Stage { return model.StageLocalFallback }

func (s *SyntheticSource) Search(ctx context.Context, q model.Query) ([]model.Lead, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return finish(q, s.gen.Leads(q)), nil
}
