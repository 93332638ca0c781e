package cli

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-research/internal/core/domain"
)

func TestMaskAPIKey(t *testing.T) {
	tests := map[string]string{
		"":                             "****",
		"abc123":                       "****",
		"12345678":                     "****",
		"sk-1234567890abcdef":          "sk-1...cdef",
		"sk-ant-REDACTED": "sk-a...zyxw",
	}

	for key, want := range tests {
		assert.Equal(t, want, maskAPIKey(key), "key %q", key)
	}
}

func TestParseChoice(t *testing.T) {
	tests := []struct {
		input string
		want  int
	}{
		{"", 2},
		{"1", 1},
		{"4", 4},
		{"0", 2},
		{"5", 2},
		{"-1", 2},
		{"two", 2},
		{"  ", 2},
	}

	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			assert.Equal(t, tc.want, parseChoice(tc.input, 4, 2))
		})
	}
}

func TestSettingsShow_Text(t *testing.T) {
	settings := newMockSettingsService()
	settings.settings.LLM = domain.LLMSettings{
		Provider: domain.AIProviderOpenAI,
		Model:    "gpt-4o-mini",
		APIKey:   "sk-1234567890abcdef",
	}
	useServices(t, Services{Settings: settings})

	out, err := executeCommand(t, "settings")

	require.NoError(t, err)
	assert.Contains(t, out, "[LLM]")
	assert.Contains(t, out, "OpenAI (cloud)")
	assert.Contains(t, out, "sk-1...cdef")
	assert.NotContains(t, out, "sk-1234567890abcdef")
	assert.Contains(t, out, "[Retrieval]")
	assert.Contains(t, out, "[Grounding]")
	assert.Contains(t, out, "Mode: flag")
	assert.Contains(t, out, "Configuration is valid.")
}

func TestSettingsShow_Warning(t *testing.T) {
	settings := newMockSettingsService()
	settings.validateErr = fmt.Errorf("%w: no provider", domain.ErrLLMUnavailable)
	useServices(t, Services{Settings: settings})

	out, err := executeCommand(t, "settings", "show")

	require.NoError(t, err)
	assert.Contains(t, out, "Warning:")
	assert.Contains(t, out, "settings llm")
}

func TestSettingsShow_JSONMasksKey(t *testing.T) {
	settings := newMockSettingsService()
	settings.settings.LLM.APIKey = "sk-1234567890abcdef"
	useServices(t, Services{Settings: settings})

	out, err := executeCommand(t, "settings", "show", "--format", "json")

	require.NoError(t, err)
	assert.Contains(t, out, "sk-1...cdef")
	assert.NotContains(t, out, "sk-1234567890abcdef")
	assert.Equal(t, "sk-1234567890abcdef", settings.settings.LLM.APIKey)
}

func TestSettingsSet(t *testing.T) {
	settings := newMockSettingsService()
	useServices(t, Services{Settings: settings})

	out, err := executeCommand(t, "settings", "set", "grounding.mode", "drop")
	require.NoError(t, err)
	assert.Contains(t, out, "Set grounding.mode = drop")
	assert.Equal(t, "drop", settings.setCalls["grounding.mode"])

	out, err = executeCommand(t, "settings", "set", "llm.api_key", "sk-1234567890abcdef")
	require.NoError(t, err)
	assert.Contains(t, out, "Set llm.api_key = sk-1...cdef")
}

func TestSettingsSet_UnknownKeyHint(t *testing.T) {
	settings := newMockSettingsService()
	settings.setErr = fmt.Errorf("%w: unknown key", domain.ErrInvalidInput)
	useServices(t, Services{Settings: settings})

	_, err := executeCommand(t, "settings", "set", "bogus.key", "1")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Contains(t, err.Error(), "settings set --help")

	_, err = executeCommand(t, "settings", "set", "chunker.overlap", "-1")
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "--help")
}

func TestSettingsSet_Args(t *testing.T) {
	useServices(t, Services{Settings: newMockSettingsService()})

	_, err := executeCommand(t, "settings", "set", "grounding.mode")

	assert.Error(t, err)
}

func TestSettingsLLM_Interactive(t *testing.T) {
	settings := newMockSettingsService()
	useServices(t, Services{Settings: settings})

	out, _, err := executeCommandWithInput(t, "2\n\nsk-test-key-123\n", "settings", "llm")

	require.NoError(t, err)
	assert.Equal(t, domain.AIProviderOpenAI, settings.provider)
	assert.Equal(t, domain.DefaultLLMModels()[domain.AIProviderOpenAI], settings.model)
	assert.Equal(t, "sk-test-key-123", settings.apiKey)
	assert.Contains(t, out, "Validating configuration... OK")
	assert.Contains(t, out, "LLM provider configured: OpenAI (cloud)")
}

func TestSettingsLLM_LocalSkipsAPIKey(t *testing.T) {
	settings := newMockSettingsService()
	useServices(t, Services{Settings: settings})

	out, _, err := executeCommandWithInput(t, "1\nllama3.2\n", "settings", "llm")

	require.NoError(t, err)
	assert.Equal(t, domain.AIProviderOllama, settings.provider)
	assert.Equal(t, "llama3.2", settings.model)
	assert.Empty(t, settings.apiKey)
	assert.NotContains(t, out, "API key")
}

func TestSettingsLLM_ValidationFails(t *testing.T) {
	settings := newMockSettingsService()
	settings.pingErr = errors.New("connection refused")
	useServices(t, Services{Settings: settings})

	out, _, err := executeCommandWithInput(t, "\n\n", "settings", "llm")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
	assert.Contains(t, out, "FAILED: connection refused")
}

func TestIsKnownKey(t *testing.T) {
	assert.True(t, isKnownKey("llm.provider"))
	assert.True(t, isKnownKey("storage.backend"))
	assert.False(t, isKnownKey("llm"))
}
