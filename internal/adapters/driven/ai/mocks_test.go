package ai

import (
	"context"
	"errors"
	"sync"

	"github.com/custodia-labs/sercha-research/internal/core/ports/driven"
)

// mockLLM implements driven.LLMService.
type mockLLM struct {
	mu       sync.Mutex
	response string
	err      error
	calls    int
	prompts  []string
	opts     []driven.GenerateOptions
	pingErr  error
	closed   bool
}

func (m *mockLLM) Generate(_ context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.prompts = append(m.prompts, prompt)
	m.opts = append(m.opts, opts)
	return m.response, m.err
}

func (m *mockLLM) ModelName() string { return "mock-model" }

func (m *mockLLM) Ping(_ context.Context) error { return m.pingErr }

func (m *mockLLM) Close() error {
	m.closed = true
	return nil
}

func (m *mockLLM) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// mockPromptStore implements driven.PromptStore.
type mockPromptStore struct {
	prompts map[string]string
}

func (m *mockPromptStore) Load(name string) (string, error) {
	if p, ok := m.prompts[name]; ok {
		return p, nil
	}
	return "", errors.New("prompt not found")
}

func (m *mockPromptStore) Reload() {}
