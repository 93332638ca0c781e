package domain

const unknownDescription = "Unknown"

// AIProvider identifies an LLM service provider.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"

	// AIProviderGemini is Google Gemini cloud API.
	AIProviderGemini AIProvider = "gemini"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic, AIProviderGemini:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderAnthropic || p == AIProviderGemini
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	case AIProviderGemini:
		return "Gemini (cloud)"
	default:
		return unknownDescription
	}
}

// LLMSettings holds LLM provider configuration.
type LLMSettings struct {
	// Provider is the LLM service provider.
	Provider AIProvider

	// Model is the LLM model name.
	Model string

	// BaseURL is the API endpoint (for Ollama or an OpenAI-compatible proxy).
	BaseURL string

	// APIKey is the API key for cloud providers.
	APIKey string

	// RequestsPerMinute caps outbound calls. Zero disables rate limiting.
	RequestsPerMinute int
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// RankerKind selects the ranking service used by retrieval.
type RankerKind string

// Available rankers.
const (
	// RankerLLM asks the configured LLM for relevant chunk indices.
	RankerLLM RankerKind = "llm"

	// RankerLexical scores chunks by keyword overlap locally.
	RankerLexical RankerKind = "lexical"
)

// IsValid returns true if the ranker kind is recognised.
func (k RankerKind) IsValid() bool {
	return k == RankerLLM || k == RankerLexical
}

// String returns the string representation.
func (k RankerKind) String() string {
	return string(k)
}

// RetrievalSettings holds retrieval stage configuration.
type RetrievalSettings struct {
	// Ranker selects the ranking service.
	Ranker RankerKind

	// Dedupe drops repeated indices from the ranking response.
	Dedupe bool

	// FallbackLimit is how many leading chunks are used when ranking fails.
	FallbackLimit int
}

// ChunkerSettings holds chunking window configuration in bytes.
type ChunkerSettings struct {
	ChunkSize int
	Overlap   int
}

// GroundingSettings holds citation verification configuration.
type GroundingSettings struct {
	Mode GroundingMode
}

// StorageBackend selects the session store implementation.
type StorageBackend string

// Available storage backends.
const (
	StorageBackendSQLite StorageBackend = "sqlite"
	StorageBackendMemory StorageBackend = "memory"
)

// IsValid returns true if the storage backend is recognised.
func (b StorageBackend) IsValid() bool {
	return b == StorageBackendSQLite || b == StorageBackendMemory
}

// String returns the string representation.
func (b StorageBackend) String() string {
	return string(b)
}

// StorageSettings holds session persistence configuration.
type StorageSettings struct {
	Backend StorageBackend
}

// AppSettings holds all application settings.
type AppSettings struct {
	// LLM holds LLM provider settings.
	LLM LLMSettings

	// Retrieval holds retrieval stage settings.
	Retrieval RetrievalSettings

	// Chunker holds chunking settings.
	Chunker ChunkerSettings

	// Grounding holds citation verification settings.
	Grounding GroundingSettings

	// Storage holds session store settings.
	Storage StorageSettings
}

// Pipeline defaults.
const (
	DefaultChunkSize     = 1800
	DefaultChunkOverlap  = 200
	DefaultFallbackLimit = 10
)

// DefaultAppSettings returns settings with sensible defaults.
// The LLM is left unconfigured; users must set a provider before running research.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		LLM: LLMSettings{},
		Retrieval: RetrievalSettings{
			Ranker:        RankerLLM,
			Dedupe:        false,
			FallbackLimit: DefaultFallbackLimit,
		},
		Chunker: ChunkerSettings{
			ChunkSize: DefaultChunkSize,
			Overlap:   DefaultChunkOverlap,
		},
		Grounding: GroundingSettings{
			Mode: GroundingModeFlag,
		},
		Storage: StorageSettings{
			Backend: StorageBackendSQLite,
		},
	}
}

// AllLLMProviders returns providers that support LLM operations.
func AllLLMProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderAnthropic,
		AIProviderGemini,
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:    "llama3.2",
		AIProviderOpenAI:    "gpt-4o-mini",
		AIProviderAnthropic: "claude-3-5-sonnet-latest",
		AIProviderGemini:    "gemini-1.5-flash",
	}
}
