package ai

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-research/internal/core/domain"
	"github.com/custodia-labs/sercha-research/internal/core/ports/driven"
)

func TestLLMRanker_Rank(t *testing.T) {
	llm := &mockLLM{response: "2, 0, 1"}
	ranker := NewLLMRanker(llm)

	resp, err := ranker.Rank(context.Background(), driven.RankRequest{
		Topic:   "battery storage",
		Context: "[0] (A) first\n\n[1] (A) second",
	})

	require.NoError(t, err)
	assert.Equal(t, "2, 0, 1", resp)
	assert.Equal(t, 1, llm.callCount())
	assert.Contains(t, llm.prompts[0], "battery storage")
	assert.Contains(t, llm.prompts[0], "[1] (A) second")
	assert.Equal(t, rankMaxTokens, llm.opts[0].MaxTokens)
	assert.Empty(t, llm.opts[0].ResponseSchema)
}

func TestLLMRanker_CustomPrompt(t *testing.T) {
	llm := &mockLLM{response: "0"}
	ranker := NewLLMRanker(llm)
	ranker.SetPromptStore(&mockPromptStore{prompts: map[string]string{
		driven.PromptRank: "TOPIC=%s CONTEXT=%s",
	}})

	_, err := ranker.Rank(context.Background(), driven.RankRequest{Topic: "t", Context: "c"})

	require.NoError(t, err)
	assert.Equal(t, "TOPIC=t CONTEXT=c", llm.prompts[0])
}

func TestLLMRanker_PromptStoreMissFallsBack(t *testing.T) {
	llm := &mockLLM{response: "0"}
	ranker := NewLLMRanker(llm)
	ranker.SetPromptStore(&mockPromptStore{})

	_, err := ranker.Rank(context.Background(), driven.RankRequest{Topic: "solar", Context: "ctx"})

	require.NoError(t, err)
	assert.Contains(t, llm.prompts[0], "comma-separated list of integers")
}

func TestLLMRanker_Errors(t *testing.T) {
	_, err := NewLLMRanker(nil).Rank(context.Background(), driven.RankRequest{})
	assert.ErrorIs(t, err, domain.ErrLLMUnavailable)

	boom := errors.New("timeout")
	_, err = NewLLMRanker(&mockLLM{err: boom}).Rank(context.Background(), driven.RankRequest{})
	assert.ErrorIs(t, err, boom)
}
