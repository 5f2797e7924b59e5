package generate

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/lead-finder/pkg/anthropic"
)

const systemPrompt = "You are a B2B lead research assistant. Reply with a JSON array only, no prose."

// AnthropicGenerator generates text with Claude.
type AnthropicGenerator struct {
	client    anthropic.Client
	model     string
	maxTokens int64
}

// NewAnthropic wraps an Anthropic client.
func NewAnthropic(client anthropic.Client, model string, maxTokens int64) *AnthropicGenerator {
	if maxTokens <= 0 {
		maxTokens = 4096
	}
	return &AnthropicGenerator{client: client, model: model, maxTokens: maxTokens}
}

// Name implements Generator.
func (g *AnthropicGenerator) Name() string { return "anthropic" }

// Generate implements Generator.
func (g *AnthropicGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     g.model,
		MaxTokens: g.maxTokens,
		System:    systemPrompt,
		Messages:  []anthropic.Message{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", eris.Wrap(err, "generate: anthropic")
	}
	resp.Usage.Log(g.model, "leads")
	return resp.Text(), nil
}
