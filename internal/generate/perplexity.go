package generate

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/lead-finder/pkg/perplexity"
)

// PerplexityGenerator generates text with Perplexity, whose models search
// the web before answering.
type PerplexityGenerator struct {
	client perplexity.Client
}

// NewPerplexity wraps a Perplexity client.
func NewPerplexity(client perplexity.Client) *PerplexityGenerator {
	return &PerplexityGenerator{client: client}
}

// Name implements Generator.
func (g *PerplexityGenerator) Name() string { return "perplexity" }

// Generate implements Generator.
func (g *PerplexityGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	temp := 0.2
	resp, err := g.client.ChatCompletion(ctx, perplexity.ChatCompletionRequest{
		Messages: []perplexity.Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		Temperature:         &temp,
		SearchRecencyFilter: "year",
		WebSearchOptions:    &perplexity.WebSearchOptions{SearchContextSize: "medium"},
	})
	if err != nil {
		return "", eris.Wrap(err, "generate: perplexity")
	}
	zap.L().Debug("generate: perplexity answered",
		zap.String("model", resp.Model),
		zap.Int("citations", len(resp.Citations)),
		zap.Int("tokens", resp.Usage.TotalTokens),
	)
	return resp.Text(), nil
}
