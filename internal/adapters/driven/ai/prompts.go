package ai

import (
	"github.com/custodia-labs/sercha-research/internal/core/ports/driven"
)

// loadPrompt loads a prompt from the store, falling back to the built-in
// template if the store is unset or fails.
func loadPrompt(store driven.PromptStore, name string) string {
	if store != nil {
		if prompt, err := store.Load(name); err == nil && prompt != "" {
			return prompt
		}
	}
	prompt, _ := driven.DefaultPrompt(name)
	return prompt
}
