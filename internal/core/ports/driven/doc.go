// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - Normaliser: Converts raw documents to plain text
//   - NormaliserRegistry: Selects the appropriate normaliser
//   - SourceLoader: Reads raw bytes for a source
//   - Chunker: Splits source text into overlapping windows
//   - RankingService: Picks relevant chunk indices for a topic
//   - GenerationService: Produces the structured report
//   - ReportValidator: Owns the report schema and validates responses
//   - SessionStore: Research session persistence
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - LLMService: Language model operations. Without it, only the lexical ranker works
//     and research runs fail at synthesis with ErrLLMUnavailable.
//   - PromptStore: Custom prompt templates. Without it, built-in prompts are used.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or normaliser package
package driven
