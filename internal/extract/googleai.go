package extract

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
)

// GoogleAIGenerator implements Generator over the Gemini API. One client
// serves every candidate model; the model is chosen per call.
type GoogleAIGenerator struct {
	llm *googleai.GoogleAI
}

// NewGoogleAIGenerator builds a GoogleAIGenerator.
func NewGoogleAIGenerator(ctx context.Context, apiKey string) (*GoogleAIGenerator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	llm, err := googleai.New(ctx, googleai.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("init googleai client: %w", err)
	}
	return &GoogleAIGenerator{llm: llm}, nil
}

// Generate runs one completion against the named model in JSON mode.
func (g *GoogleAIGenerator) Generate(ctx context.Context, model, prompt string) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, g.llm, prompt,
		llms.WithModel(model),
		llms.WithJSONMode(),
	)
}
