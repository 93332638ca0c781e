package driven

import (
	"context"
	"encoding/json"
)

// LLMService provides language model completion for ranking and synthesis.
// This is an optional service - when nil, the LLM ranker falls back and
// synthesis reports ErrLLMUnavailable.
//
// Implementations include:
//   - OpenAI (GPT-4o family)
//   - Anthropic (Claude)
//   - Ollama (local models)
//   - Gemini (Google)
type LLMService interface {
	// Generate produces text completion from a prompt.
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)

	// ModelName returns the name of the LLM model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight test request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// GenerateOptions configures text generation behaviour.
type GenerateOptions struct {
	// SystemPrompt is sent as the system message where the provider supports one.
	SystemPrompt string

	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic, 1.0 = creative).
	Temperature float64

	// StopWords are sequences that stop generation when encountered.
	StopWords []string

	// ResponseSchema is a JSON Schema the response must conform to.
	// Providers map it to their native structured output feature.
	ResponseSchema json.RawMessage
}
