// Package file provides file-based implementations of driven port interfaces.
// These adapters persist data under the user's ~/.sercha-research directory.
//
// Adapters:
//   - ConfigStore: TOML-based settings storage
//   - PromptStore: user-editable LLM prompt templates
package file
