package ai

import (
	"context"
	"fmt"

	"github.com/custodia-labs/sercha-research/internal/core/domain"
	"github.com/custodia-labs/sercha-research/internal/core/ports/driven"
)

// Ranking request parameters.
const (
	rankMaxTokens   = 100
	rankTemperature = 0.0
)

// Ensure LLMRanker implements the interfaces.
var (
	_ driven.RankingService   = (*LLMRanker)(nil)
	_ driven.PromptStoreAware = (*LLMRanker)(nil)
)

// LLMRanker asks a language model for the indices of relevant chunks.
type LLMRanker struct {
	llm         driven.LLMService
	promptStore driven.PromptStore
}

// NewLLMRanker creates a ranker backed by llm.
func NewLLMRanker(llm driven.LLMService) *LLMRanker {
	return &LLMRanker{llm: llm}
}

// SetPromptStore sets the prompt store for loading customisable prompts.
func (r *LLMRanker) SetPromptStore(store driven.PromptStore) {
	r.promptStore = store
}

// Rank sends one ranking prompt and returns the raw response text.
func (r *LLMRanker) Rank(ctx context.Context, req driven.RankRequest) (string, error) {
	if r.llm == nil {
		return "", domain.ErrLLMUnavailable
	}

	prompt := fmt.Sprintf(loadPrompt(r.promptStore, driven.PromptRank), req.Topic, req.Context)

	resp, err := r.llm.Generate(ctx, prompt, driven.GenerateOptions{
		MaxTokens:   rankMaxTokens,
		Temperature: rankTemperature,
	})
	if err != nil {
		return "", fmt.Errorf("rank: %w", err)
	}
	return resp, nil
}
