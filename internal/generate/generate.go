// Package generate asks a hosted text model for lead records and parses
// its loosely formatted replies.
package generate

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/lead-finder/internal/config"
	"github.com/sells-group/lead-finder/pkg/anthropic"
	"github.com/sells-group/lead-finder/pkg/perplexity"
)

// Generator sends one prompt and returns the model's text reply.
type Generator interface {
	Name() string
	Generate(ctx context.Context, prompt string) (string, error)
}

// FromConfig builds the Generator selected by generative.provider.
func FromConfig(ctx context.Context, cfg *config.Config) (Generator, error) {
	switch cfg.Generative.Provider {
	case "anthropic":
		return NewAnthropic(anthropic.NewClient(cfg.Anthropic.Key), cfg.Anthropic.Model, cfg.Anthropic.MaxTokens), nil
	case "gemini":
		return NewGemini(ctx, cfg.Gemini.Key, cfg.Gemini.Model)
	case "perplexity":
		pc := perplexity.NewClient(cfg.Perplexity.Key,
			perplexity.WithBaseURL(cfg.Perplexity.BaseURL),
			perplexity.WithModel(cfg.Perplexity.Model),
		)
		return NewPerplexity(pc), nil
	default:
		return nil, eris.Errorf("generate: unknown provider %q", cfg.Generative.Provider)
	}
}
