package services

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/custodia-labs/sercha-research/internal/core/domain"
	"github.com/custodia-labs/sercha-research/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-research/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	KeyLLMProvider       = "llm.provider"
	KeyLLMModel          = "llm.model"
	KeyLLMBaseURL        = "llm.base_url"
	KeyLLMAPIKey         = "llm.api_key"
	KeyLLMRPM            = "llm.requests_per_minute"
	KeyRetrievalRanker   = "retrieval.ranker"
	KeyRetrievalDedupe   = "retrieval.dedupe"
	KeyRetrievalFallback = "retrieval.fallback_limit"
	KeyChunkSize         = "chunker.chunk_size"
	KeyChunkOverlap      = "chunker.overlap"
	KeyGroundingMode     = "grounding.mode"
	KeyStorageBackend    = "storage.backend"
)

// SettingKeys returns every key accepted by Set, in display order.
func SettingKeys() []string {
	return []string{
		KeyLLMProvider, KeyLLMModel, KeyLLMBaseURL, KeyLLMAPIKey, KeyLLMRPM,
		KeyRetrievalRanker, KeyRetrievalDedupe, KeyRetrievalFallback,
		KeyChunkSize, KeyChunkOverlap,
		KeyGroundingMode,
		KeyStorageBackend,
	}
}

// apiKeyEnvVars lists environment variables consulted when no API key is stored.
var apiKeyEnvVars = map[domain.AIProvider][]string{
	domain.AIProviderOpenAI:    {"SERCHA_LLM_API_KEY", "OPENAI_API_KEY"},
	domain.AIProviderAnthropic: {"SERCHA_LLM_API_KEY", "ANTHROPIC_API_KEY"},
	domain.AIProviderGemini:    {"SERCHA_LLM_API_KEY", "GEMINI_API_KEY"},
}

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
	getenv      func(string) string
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
		getenv:      os.Getenv,
	}
}

// SetEnvLookup replaces the environment lookup. Used in tests.
func (s *SettingsService) SetEnvLookup(getenv func(string) string) {
	if getenv != nil {
		s.getenv = getenv
	}
}

// Get retrieves current application settings.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		LLM: domain.LLMSettings{
			Provider:          s.getProvider(defaults.LLM.Provider),
			Model:             s.getString(KeyLLMModel, defaults.LLM.Model),
			BaseURL:           s.configStore.GetString(KeyLLMBaseURL), // No default - empty is valid for cloud providers
			APIKey:            s.configStore.GetString(KeyLLMAPIKey),
			RequestsPerMinute: s.getInt(KeyLLMRPM, defaults.LLM.RequestsPerMinute),
		},
		Retrieval: domain.RetrievalSettings{
			Ranker:        s.getRanker(defaults.Retrieval.Ranker),
			Dedupe:        s.getBool(KeyRetrievalDedupe, defaults.Retrieval.Dedupe),
			FallbackLimit: s.getInt(KeyRetrievalFallback, defaults.Retrieval.FallbackLimit),
		},
		Chunker: domain.ChunkerSettings{
			ChunkSize: s.getInt(KeyChunkSize, defaults.Chunker.ChunkSize),
			Overlap:   s.getIntAllowZero(KeyChunkOverlap, defaults.Chunker.Overlap),
		},
		Grounding: domain.GroundingSettings{
			Mode: s.getGroundingMode(defaults.Grounding.Mode),
		},
		Storage: domain.StorageSettings{
			Backend: s.getStorageBackend(defaults.Storage.Backend),
		},
	}

	if settings.LLM.Model == "" {
		settings.LLM.Model = domain.DefaultLLMModels()[settings.LLM.Provider]
	}
	if settings.LLM.APIKey == "" {
		settings.LLM.APIKey = s.envAPIKey(settings.LLM.Provider)
	}

	return settings, nil
}

// Save persists application settings.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	values := []struct {
		key   string
		value any
	}{
		{KeyLLMProvider, settings.LLM.Provider.String()},
		{KeyLLMModel, settings.LLM.Model},
		{KeyLLMBaseURL, settings.LLM.BaseURL},
		{KeyLLMRPM, settings.LLM.RequestsPerMinute},
		{KeyRetrievalRanker, settings.Retrieval.Ranker.String()},
		{KeyRetrievalDedupe, settings.Retrieval.Dedupe},
		{KeyRetrievalFallback, settings.Retrieval.FallbackLimit},
		{KeyChunkSize, settings.Chunker.ChunkSize},
		{KeyChunkOverlap, settings.Chunker.Overlap},
		{KeyGroundingMode, settings.Grounding.Mode.String()},
		{KeyStorageBackend, settings.Storage.Backend.String()},
	}
	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}

	// Keys that came from the environment are not written to disk.
	if settings.LLM.APIKey != "" && settings.LLM.APIKey != s.envAPIKey(settings.LLM.Provider) {
		if err := s.configStore.Set(KeyLLMAPIKey, settings.LLM.APIKey); err != nil {
			return fmt.Errorf("save %s: %w", KeyLLMAPIKey, err)
		}
	}

	return nil
}

// Set updates a single setting by key.
//
//nolint:gocyclo // One case per supported key.
func (s *SettingsService) Set(key, value string) error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	value = strings.TrimSpace(value)
	switch key {
	case KeyLLMProvider:
		p := domain.AIProvider(value)
		if !p.IsValid() {
			return fmt.Errorf("%w: invalid LLM provider %q", domain.ErrInvalidInput, value)
		}
		settings.LLM.Provider = p
		settings.LLM.Model = domain.DefaultLLMModels()[p]
	case KeyLLMModel:
		settings.LLM.Model = value
	case KeyLLMBaseURL:
		settings.LLM.BaseURL = value
	case KeyLLMAPIKey:
		settings.LLM.APIKey = value
	case KeyLLMRPM:
		n, err := parseNonNegative(key, value)
		if err != nil {
			return err
		}
		settings.LLM.RequestsPerMinute = n
	case KeyRetrievalRanker:
		k := domain.RankerKind(value)
		if !k.IsValid() {
			return fmt.Errorf("%w: invalid ranker %q", domain.ErrInvalidInput, value)
		}
		settings.Retrieval.Ranker = k
	case KeyRetrievalDedupe:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%w: %s must be true or false", domain.ErrInvalidInput, key)
		}
		settings.Retrieval.Dedupe = b
	case KeyRetrievalFallback:
		n, err := parsePositive(key, value)
		if err != nil {
			return err
		}
		settings.Retrieval.FallbackLimit = n
	case KeyChunkSize:
		n, err := parsePositive(key, value)
		if err != nil {
			return err
		}
		settings.Chunker.ChunkSize = n
	case KeyChunkOverlap:
		n, err := parseNonNegative(key, value)
		if err != nil {
			return err
		}
		settings.Chunker.Overlap = n
	case KeyGroundingMode:
		m := domain.GroundingMode(value)
		if !m.IsValid() {
			return fmt.Errorf("%w: invalid grounding mode %q", domain.ErrInvalidInput, value)
		}
		settings.Grounding.Mode = m
	case KeyStorageBackend:
		b := domain.StorageBackend(value)
		if !b.IsValid() {
			return fmt.Errorf("%w: invalid storage backend %q", domain.ErrInvalidInput, value)
		}
		settings.Storage.Backend = b
	default:
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}

	if err := validateChunker(settings.Chunker); err != nil {
		return err
	}
	return s.Save(settings)
}

// SetLLMProvider configures the LLM provider.
func (s *SettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("invalid LLM provider: %s", provider)
	}

	if apiKey == "" {
		apiKey = s.envAPIKey(provider)
	}
	// Validate API key if required
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("API key required for %s", provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.LLM.Provider = provider

	// Set model - use provided or default
	if model != "" {
		settings.LLM.Model = model
	} else {
		settings.LLM.Model = domain.DefaultLLMModels()[provider]
	}

	// Set base URL based on provider type
	if provider.IsLocal() {
		if settings.LLM.BaseURL == "" {
			settings.LLM.BaseURL = "http://localhost:11434"
		}
	} else {
		settings.LLM.BaseURL = ""
	}

	settings.LLM.APIKey = apiKey

	return s.Save(settings)
}

// Validate checks that the settings are consistent.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}
	if err := validateChunker(settings.Chunker); err != nil {
		return err
	}
	if settings.LLM.Provider != "" && !settings.LLM.IsConfigured() {
		return fmt.Errorf("%w: LLM provider %s is missing an API key", domain.ErrInvalidInput, settings.LLM.Provider)
	}
	return nil
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// ValidateLLMConfig validates the current LLM configuration by pinging the provider.
func (s *SettingsService) ValidateLLMConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateLLM(&settings.LLM)
}

func validateChunker(c domain.ChunkerSettings) error {
	if c.Overlap >= c.ChunkSize {
		return fmt.Errorf("%w: chunker.overlap (%d) must be smaller than chunker.chunk_size (%d)",
			domain.ErrInvalidInput, c.Overlap, c.ChunkSize)
	}
	return nil
}

func parsePositive(key, value string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%w: %s must be a positive integer", domain.ErrInvalidInput, key)
	}
	return n, nil
}

func parseNonNegative(key, value string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %s must be a non-negative integer", domain.ErrInvalidInput, key)
	}
	return n, nil
}

func (s *SettingsService) envAPIKey(provider domain.AIProvider) string {
	for _, name := range apiKeyEnvVars[provider] {
		if v := s.getenv(name); v != "" {
			return v
		}
	}
	return ""
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val == 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getIntAllowZero(key string, defaultVal int) int {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetInt(key)
}

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetBool(key)
}

func (s *SettingsService) getProvider(defaultVal domain.AIProvider) domain.AIProvider {
	provider := domain.AIProvider(s.configStore.GetString(KeyLLMProvider))
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}

func (s *SettingsService) getRanker(defaultVal domain.RankerKind) domain.RankerKind {
	kind := domain.RankerKind(s.configStore.GetString(KeyRetrievalRanker))
	if !kind.IsValid() {
		return defaultVal
	}
	return kind
}

func (s *SettingsService) getGroundingMode(defaultVal domain.GroundingMode) domain.GroundingMode {
	mode := domain.GroundingMode(s.configStore.GetString(KeyGroundingMode))
	if !mode.IsValid() {
		return defaultVal
	}
	return mode
}

func (s *SettingsService) getStorageBackend(defaultVal domain.StorageBackend) domain.StorageBackend {
	backend := domain.StorageBackend(s.configStore.GetString(KeyStorageBackend))
	if !backend.IsValid() {
		return defaultVal
	}
	return backend
}
