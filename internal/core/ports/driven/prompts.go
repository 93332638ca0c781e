package driven

// PromptStore provides access to LLM prompt templates.
// Implementations may load prompts from files or embed them in the binary.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	// If the prompt is not found, implementations should return a sensible default
	// or an error, depending on whether the prompt is required.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	Reload()
}

// Well-known prompt names used throughout the application.
const (
	// PromptRank asks for relevant chunk indices.
	// The template expects %s (topic) and %s (indexed context) placeholders.
	PromptRank = "rank"

	// PromptSynthesize carries the synthesis request.
	// The template expects %s (topic), %s (instructions) and %s (context) placeholders.
	PromptSynthesize = "synthesize"

	// PromptSynthesizeSystem is the system prompt for synthesis.
	// This prompt has no format placeholders.
	PromptSynthesizeSystem = "synthesize_system"
)

// PromptStoreAware is an optional interface for services that can use custom prompts.
type PromptStoreAware interface {
	// SetPromptStore sets the prompt store for loading customisable prompts.
	// If not set, the service should use hardcoded default prompts.
	SetPromptStore(store PromptStore)
}

// defaultPrompts are the built-in templates for each well-known prompt.
var defaultPrompts = map[string]string{
	PromptRank: `You are selecting source excerpts for a research report.

Topic: %s

Each excerpt below is prefixed with its index in square brackets.

%s

Return the indices of the 5 to 10 excerpts most relevant to the topic, most relevant first,
as a comma-separated list of integers (for example: 4, 0, 7). Return nothing else.`,

	PromptSynthesize: `Research topic: %s

Instructions:
%s

Context:
%s`,

	PromptSynthesizeSystem: `You are a careful research assistant. You write structured research reports
strictly from the excerpts you are given and you quote your sources exactly.`,
}

// DefaultPrompt returns the built-in template for a well-known prompt name.
func DefaultPrompt(name string) (string, bool) {
	p, ok := defaultPrompts[name]
	return p, ok
}

// PromptNames returns every well-known prompt name.
func PromptNames() []string {
	return []string{PromptRank, PromptSynthesize, PromptSynthesizeSystem}
}
