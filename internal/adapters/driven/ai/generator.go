package ai

import (
	"context"
	"fmt"

	"github.com/custodia-labs/sercha-research/internal/core/domain"
	"github.com/custodia-labs/sercha-research/internal/core/ports/driven"
)

// Synthesis request parameters.
const (
	synthesisMaxTokens   = 8192
	synthesisTemperature = 0.2
)

// Ensure LLMGenerator implements the interfaces.
var (
	_ driven.GenerationService = (*LLMGenerator)(nil)
	_ driven.PromptStoreAware  = (*LLMGenerator)(nil)
)

// LLMGenerator produces research reports with a language model.
type LLMGenerator struct {
	llm         driven.LLMService
	promptStore driven.PromptStore
}

// NewLLMGenerator creates a generator backed by llm.
func NewLLMGenerator(llm driven.LLMService) *LLMGenerator {
	return &LLMGenerator{llm: llm}
}

// SetPromptStore sets the prompt store for loading customisable prompts.
func (g *LLMGenerator) SetPromptStore(store driven.PromptStore) {
	g.promptStore = store
}

// Generate sends one synthesis request with the report schema attached.
func (g *LLMGenerator) Generate(ctx context.Context, req driven.GenerationRequest) ([]byte, error) {
	if g.llm == nil {
		return nil, domain.ErrLLMUnavailable
	}

	prompt := fmt.Sprintf(loadPrompt(g.promptStore, driven.PromptSynthesize), req.Topic, req.Instructions, req.Context)

	resp, err := g.llm.Generate(ctx, prompt, driven.GenerateOptions{
		SystemPrompt:   loadPrompt(g.promptStore, driven.PromptSynthesizeSystem),
		MaxTokens:      synthesisMaxTokens,
		Temperature:    synthesisTemperature,
		ResponseSchema: req.Schema,
	})
	if err != nil {
		return nil, fmt.Errorf("generate: %w", err)
	}
	return []byte(resp), nil
}
