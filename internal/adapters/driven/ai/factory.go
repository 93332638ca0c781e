// Package ai provides factory functions for creating AI service adapters
// and the ranking, generation and validation services built on them.
package ai

import (
	"context"
	"fmt"
	"time"

	anthropicllm "github.com/custodia-labs/sercha-research/internal/adapters/driven/llm/anthropic"
	geminillm "github.com/custodia-labs/sercha-research/internal/adapters/driven/llm/gemini"
	ollamallm "github.com/custodia-labs/sercha-research/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/sercha-research/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/sercha-research/internal/core/domain"
	"github.com/custodia-labs/sercha-research/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-research/internal/logger"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// InitResult contains the result of AI service initialisation.
type InitResult struct {
	LLMService  driven.LLMService
	Ranker      driven.RankingService
	Generator   driven.GenerationService
	Validator   driven.ReportValidator
	PromptStore driven.PromptStore // User-customisable prompt templates.
	Warnings    []string           // Non-fatal issues that caused fallback.
}

// Close releases all resources held by InitResult.
func (r *InitResult) Close() {
	if r.LLMService != nil {
		r.LLMService.Close()
	}
}

// Init builds the research services from settings. A missing or failing LLM
// is not fatal: the ranker falls back and synthesis reports ErrLLMUnavailable.
// The LLM is not pinged; the first real call surfaces connectivity errors.
func Init(ctx context.Context, settings domain.AppSettings, prompts driven.PromptStore) (*InitResult, error) {
	validator, err := NewSchemaValidator()
	if err != nil {
		return nil, err
	}

	result := &InitResult{
		Validator:   validator,
		PromptStore: prompts,
	}

	llm, err := CreateLLMService(ctx, &settings.LLM)
	switch {
	case err != nil:
		result.Warnings = append(result.Warnings, fmt.Sprintf("LLM unavailable: %v", err))
	case llm == nil:
		result.Warnings = append(result.Warnings, "LLM not configured; run 'sercha-research settings set llm.provider <provider>'")
	default:
		cfg := DefaultGuardConfig(settings.LLM.Provider.String())
		cfg.RequestsPerMinute = settings.LLM.RequestsPerMinute
		result.LLMService = NewGuard(llm, cfg)
	}

	generator := NewLLMGenerator(result.LLMService)
	generator.SetPromptStore(prompts)
	result.Generator = generator

	switch settings.Retrieval.Ranker {
	case domain.RankerLexical:
		result.Ranker = NewLexicalRanker(DefaultLexicalTopK)
	default:
		ranker := NewLLMRanker(result.LLMService)
		ranker.SetPromptStore(prompts)
		result.Ranker = ranker
	}

	for _, w := range result.Warnings {
		logger.Warn("%s", w)
	}
	return result, nil
}

// CreateAndValidateLLMService creates an LLM service and validates connectivity.
// Returns the service if successful, or an error with guidance.
func CreateAndValidateLLMService(ctx context.Context, settings *domain.LLMSettings) (driven.LLMService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	svc, err := CreateLLMService(ctx, settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w. Run 'sercha-research settings show' to check",
			domain.ErrLLMUnavailable, err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := svc.Ping(pingCtx); err != nil {
		svc.Close()
		return nil, fmt.Errorf("%w: service unreachable (%w). Run 'sercha-research settings show' to check",
			domain.ErrLLMUnavailable, err)
	}

	return svc, nil
}

// ValidateLLMConfig validates an LLM configuration by creating a service and pinging it.
func ValidateLLMConfig(settings *domain.LLMSettings) error {
	if settings == nil || !settings.IsConfigured() {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	svc, err := CreateLLMService(ctx, settings)
	if err != nil {
		return err
	}
	defer svc.Close()

	return svc.Ping(ctx)
}

// CreateLLMService creates the appropriate LLM service based on settings.
// Returns nil if the provider is not configured.
func CreateLLMService(ctx context.Context, settings *domain.LLMSettings) (driven.LLMService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderOllama:
		return ollamallm.NewLLMService(ollamallm.LLMConfig{
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		}), nil

	case domain.AIProviderOpenAI:
		return openaillm.NewLLMService(openaillm.LLMConfig{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})

	case domain.AIProviderAnthropic:
		return anthropicllm.NewLLMService(anthropicllm.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})

	case domain.AIProviderGemini:
		return geminillm.NewLLMService(ctx, geminillm.Config{
			APIKey: settings.APIKey,
			Model:  settings.Model,
		})

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", settings.Provider)
	}
}
