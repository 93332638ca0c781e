package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestAIProvider_IsValid tests all valid and invalid providers
func TestAIProvider_IsValid(t *testing.T) {
	tests := []struct {
		name     string
		provider AIProvider
		expected bool
	}{
		{name: "ollama is valid", provider: AIProviderOllama, expected: true},
		{name: "openai is valid", provider: AIProviderOpenAI, expected: true},
		{name: "anthropic is valid", provider: AIProviderAnthropic, expected: true},
		{name: "gemini is valid", provider: AIProviderGemini, expected: true},
		{name: "empty string is invalid", provider: AIProvider(""), expected: false},
		{name: "unknown provider is invalid", provider: AIProvider("cohere"), expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.provider.IsValid())
		})
	}
}

func TestAIProvider_RequiresAPIKey(t *testing.T) {
	assert.False(t, AIProviderOllama.RequiresAPIKey())
	assert.True(t, AIProviderOpenAI.RequiresAPIKey())
	assert.True(t, AIProviderAnthropic.RequiresAPIKey())
	assert.True(t, AIProviderGemini.RequiresAPIKey())
}

func TestAIProvider_IsLocal(t *testing.T) {
	assert.True(t, AIProviderOllama.IsLocal())
	assert.False(t, AIProviderOpenAI.IsLocal())
	assert.False(t, AIProviderGemini.IsLocal())
}

func TestAIProvider_Description(t *testing.T) {
	assert.Equal(t, "Ollama (local)", AIProviderOllama.Description())
	assert.Equal(t, "Gemini (cloud)", AIProviderGemini.Description())
	assert.Equal(t, unknownDescription, AIProvider("nope").Description())
}

func TestLLMSettings_IsConfigured(t *testing.T) {
	tests := []struct {
		name     string
		settings LLMSettings
		expected bool
	}{
		{"empty", LLMSettings{}, false},
		{"ollama without key", LLMSettings{Provider: AIProviderOllama}, true},
		{"openai without key", LLMSettings{Provider: AIProviderOpenAI}, false},
		{"openai with key", LLMSettings{Provider: AIProviderOpenAI, APIKey: "sk"}, true},
		{"gemini with key", LLMSettings{Provider: AIProviderGemini, APIKey: "g"}, true},
		{"invalid provider", LLMSettings{Provider: "x", APIKey: "k"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.settings.IsConfigured())
		})
	}
}

func TestRankerKind_IsValid(t *testing.T) {
	assert.True(t, RankerLLM.IsValid())
	assert.True(t, RankerLexical.IsValid())
	assert.False(t, RankerKind("vector").IsValid())
}

func TestStorageBackend_IsValid(t *testing.T) {
	assert.True(t, StorageBackendSQLite.IsValid())
	assert.True(t, StorageBackendMemory.IsValid())
	assert.False(t, StorageBackend("postgres").IsValid())
}

func TestDefaultAppSettings(t *testing.T) {
	s := DefaultAppSettings()

	assert.False(t, s.LLM.IsConfigured())
	assert.Equal(t, RankerLLM, s.Retrieval.Ranker)
	assert.False(t, s.Retrieval.Dedupe)
	assert.Equal(t, 10, s.Retrieval.FallbackLimit)
	assert.Equal(t, 1800, s.Chunker.ChunkSize)
	assert.Equal(t, 200, s.Chunker.Overlap)
	assert.Equal(t, GroundingModeFlag, s.Grounding.Mode)
	assert.Equal(t, StorageBackendSQLite, s.Storage.Backend)
}

func TestDefaultLLMModels_CoverAllProviders(t *testing.T) {
	models := DefaultLLMModels()
	for _, p := range AllLLMProviders() {
		assert.NotEmpty(t, models[p], "provider %s has no default model", p)
	}
}
