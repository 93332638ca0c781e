package file

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/custodia-labs/sercha-research/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-research/internal/logger"
)

// Ensure PromptStore implements the interface.
var _ driven.PromptStore = (*PromptStore)(nil)

// PromptStore loads LLM prompts from user-editable files on disk, one
// "<name>.txt" per prompt, falling back to the built-in templates.
//
// Files are created lazily on the first Load, not in the constructor.
// An edited template that drops or adds %s placeholders is ignored in
// favour of the built-in one, since the callers fill a fixed argument list.
type PromptStore struct {
	mu        sync.RWMutex
	promptDir string
	cache     map[string]string
	initOnce  sync.Once
	initErr   error
}

// NewPromptStore creates a new file-based prompt store.
// If promptDir is empty, defaults to ~/.sercha-research/prompts/.
func NewPromptStore(promptDir string) (*PromptStore, error) {
	if promptDir == "" {
		dir, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		promptDir = filepath.Join(dir, "prompts")
	}

	return &PromptStore{
		promptDir: promptDir,
		cache:     make(map[string]string),
	}, nil
}

// Load returns the prompt template for the given name.
func (s *PromptStore) Load(name string) (string, error) {
	builtin, known := driven.DefaultPrompt(name)

	s.initOnce.Do(s.initialise)
	if s.initErr != nil {
		if known {
			return builtin, nil
		}
		return "", fmt.Errorf("prompt store init failed: %w", s.initErr)
	}

	s.mu.RLock()
	if prompt, ok := s.cache[name]; ok {
		s.mu.RUnlock()
		return prompt, nil
	}
	s.mu.RUnlock()

	prompt, err := s.loadFromFile(name)
	switch {
	case err != nil && known:
		prompt = builtin
	case err != nil:
		return "", fmt.Errorf("load prompt %q: %w", name, err)
	case known && placeholders(prompt) != placeholders(builtin):
		logger.Warn("prompt %q has %d placeholders, expected %d; using built-in template",
			name, placeholders(prompt), placeholders(builtin))
		prompt = builtin
	}

	s.mu.Lock()
	if cached, ok := s.cache[name]; ok {
		prompt = cached
	} else {
		s.cache[name] = prompt
	}
	s.mu.Unlock()

	return prompt, nil
}

// Reload clears the prompt cache, forcing fresh loads from disk.
func (s *PromptStore) Reload() {
	s.mu.Lock()
	s.cache = make(map[string]string)
	s.mu.Unlock()
}

// Dir returns the prompt directory path.
func (s *PromptStore) Dir() string {
	return s.promptDir
}

// initialise creates the prompt directory, the default files and a README.
// Existing files are never overwritten.
func (s *PromptStore) initialise() {
	if err := os.MkdirAll(s.promptDir, 0700); err != nil {
		s.initErr = fmt.Errorf("create prompt directory: %w", err)
		return
	}

	for _, name := range driven.PromptNames() {
		content, _ := driven.DefaultPrompt(name)
		if err := writeIfMissing(filepath.Join(s.promptDir, name+".txt"), content); err != nil {
			s.initErr = fmt.Errorf("create default prompt %q: %w", name, err)
			return
		}
	}

	if err := writeIfMissing(filepath.Join(s.promptDir, "README.md"), readme); err != nil {
		s.initErr = fmt.Errorf("create prompt readme: %w", err)
	}
}

func (s *PromptStore) loadFromFile(name string) (string, error) {
	if name == "" || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("invalid prompt name %q", name)
	}
	data, err := os.ReadFile(filepath.Join(s.promptDir, name+".txt"))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

func writeIfMissing(path, content string) error {
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		return nil
	}
	return os.WriteFile(path, []byte(content), 0600)
}

// placeholders counts %s verbs, ignoring escaped percent signs.
func placeholders(template string) int {
	return strings.Count(strings.ReplaceAll(template, "%%", ""), "%s")
}

const readme = `# Research Prompts

This directory contains the prompts sent to the LLM during a research run.

## Files

- ` + "`rank.txt`" + ` - Picks the excerpts most relevant to the topic.
  Placeholders: topic, indexed excerpts.
- ` + "`synthesize.txt`" + ` - Requests the structured report.
  Placeholders: topic, instructions, context.
- ` + "`synthesize_system.txt`" + ` - System prompt for report generation. No placeholders.

## Customisation

Edit any file to change the model's behaviour. Changes take effect on the
next command. Each ` + "`%s`" + ` placeholder must stay in place; a template with the
wrong number of placeholders is ignored and the built-in version is used.
Delete a file to restore its default.
`
