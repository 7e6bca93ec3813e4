// Package extract turns scraped page text into structured content items by
// prompting a generative model over a ranked list of candidates.
package extract

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/localmark/content-crawler/internal/content"
	"github.com/localmark/content-crawler/internal/metrics"
)

// Generator issues one structured-output generation request against a named
// model. Implementations wrap a concrete LLM SDK; tests provide fakes.
type Generator interface {
	Generate(ctx context.Context, model string, prompt string) (string, error)
}

// Config controls the extraction stage.
type Config struct {
	// ModelCandidates is tried in order, most to least capable. Availability
	// and quota vary per deployment, and the task tolerates a weaker model.
	ModelCandidates []string
	MaxPromptChars  int
	Timeout         time.Duration
}

// Extractor implements content.Extractor with first-success-wins fallthrough
// over the candidate models.
type Extractor struct {
	cfg    Config
	gen    Generator
	logger *zap.Logger
}

// New builds an Extractor.
func New(cfg Config, gen Generator, logger *zap.Logger) (*Extractor, error) {
	if len(cfg.ModelCandidates) == 0 {
		return nil, fmt.Errorf("at least one model candidate is required")
	}
	if gen == nil {
		return nil, fmt.Errorf("generator is required")
	}
	if cfg.MaxPromptChars <= 0 {
		cfg.MaxPromptChars = 30000
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{cfg: cfg, gen: gen, logger: logger}, nil
}

// Extract prompts the candidate models with the page text and parses the
// first non-empty answer. All candidates failing is an extraction failure;
// a candidate answering garbage is a parse failure, not a fallthrough.
func (e *Extractor) Extract(ctx context.Context, pageText string, target string) ([]content.ExtractedItem, error) {
	prompt := BuildPrompt(target, truncateRunes(pageText, e.cfg.MaxPromptChars))

	var lastErr error
	for i, model := range e.cfg.ModelCandidates {
		text, err := e.generate(ctx, model, prompt)
		if err != nil {
			lastErr = err
			metrics.ObserveModelRequest(model, "error")
			e.logger.Warn("model candidate failed",
				zap.String("model", model),
				zap.Error(err),
			)
			continue
		}
		if strings.TrimSpace(text) == "" {
			metrics.ObserveModelRequest(model, "empty")
			e.logger.Warn("model candidate returned empty text", zap.String("model", model))
			continue
		}
		metrics.ObserveModelRequest(model, "ok")
		metrics.ObserveFallthroughDepth(i + 1)
		e.logger.Debug("model candidate answered",
			zap.String("model", model),
			zap.Int("chars", len(text)),
		)
		return content.ParseItems(text)
	}

	if lastErr == nil {
		lastErr = errors.New("all model candidates returned empty text")
	}
	return nil, content.NewExtractError(fmt.Errorf("all %d model candidates failed: %w", len(e.cfg.ModelCandidates), lastErr))
}

func (e *Extractor) generate(ctx context.Context, model, prompt string) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	defer cancel()
	return e.gen.Generate(callCtx, model, prompt)
}

func truncateRunes(s string, maxRunes int) string {
	runes := []rune(s)
	if len(runes) <= maxRunes {
		return s
	}
	return string(runes[:maxRunes])
}
