// Package strategy implements the Strategy Compiler (C2): turns a free-text
// prompt into a validated, schema-clamped, per-participant-unique Strategy
// Description.
package strategy

import (
	"context"
	"time"

	"tokenarena/internal/models"
	"tokenarena/pkg/llm"
)

// Compiler turns prompts into strategies. LLMClient is nil unless the LLM
// parse path is enabled.
type Compiler struct {
	LLMClient *llm.OpenAIClient
	LLMEnabled bool
}

func New(llmClient *llm.OpenAIClient, llmEnabled bool) *Compiler {
	return &Compiler{LLMClient: llmClient, LLMEnabled: llmEnabled}
}

// Compile sanitizes, parses, validates, and injects per-participant
// uniqueness noise into a prompt, returning the final Strategy.
func (c *Compiler) Compile(ctx context.Context, prompt string, seed uint64) (models.Strategy, error) {
	clean, err := sanitize(prompt)
	if err != nil {
		return models.Strategy{}, err
	}

	parsed, err := c.parse(ctx, clean)
	if err != nil {
		return models.Strategy{}, err
	}

	return injectUniqueness(validate(parsed), seed), nil
}

// Preview compiles without persistence side effects, using the current time
// as the uniqueness seed so repeated previews of the same prompt still
// diverge slightly like a real submission would.
func (c *Compiler) Preview(ctx context.Context, prompt string) (models.Strategy, error) {
	return c.Compile(ctx, prompt, uint64(time.Now().UnixNano()))
}

func (c *Compiler) parse(ctx context.Context, prompt string) (models.Strategy, error) {
	if c.LLMEnabled && c.LLMClient != nil {
		raw, err := llmParse(ctx, c.LLMClient, prompt)
		if err != nil {
			return models.Strategy{}, &ParseFailed{Underlying: err}
		}
		return raw.toStrategy(), nil
	}
	return patternParse(prompt), nil
}
