package source

import (
	"context"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/sells-group/lead-finder/internal/generate"
	"github.com/sells-group/lead-finder/internal/model"
	"github.com/sells-group/lead-finder/internal/synth"
)

// GenerativeSource asks a generative model for leads as a JSON array.
type GenerativeSource struct {
	gen generate.Generator
}

// NewGenerativeSource creates a GenerativeSource.
func NewGenerativeSource(gen generate.Generator) *GenerativeSource {
	return &GenerativeSource{gen: gen}
}

func (s *GenerativeSource) Name() string       { return s.gen.Name() }
func (s *GenerativeSource) Stage() model.Stage { return model.StageGeneratingAI }

// Search sends the lead prompt for q. A reply that does not parse yields
// no leads rather than an error. Ids in the reply are replaced.
func (s *GenerativeSource) Search(ctx context.Context, q model.Query) ([]model.Lead, error) {
	text, err := s.gen.Generate(ctx, generate.LeadPrompt(q))
	if err != nil {
		return nil, eris.Wrapf(err, "source: %s generate", s.gen.Name())
	}

	leads := generate.ParseLeads(text)
	for i := range leads {
		leads[i].ID = uuid.NewString()
		if q.Domain != "" && leads[i].Website == "" {
			leads[i].Website = synth.WebsiteFromURL(q.Domain)
		}
	}
	return finish(q, leads), nil
}
