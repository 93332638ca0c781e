// Package domain defines the core business entities for Sercha Research.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Source: A document handed to a research session
//   - Chunk: A fixed-size window of a source's extracted text
//   - ResearchOutput: The structured, citation-grounded report
//   - Session: The persistence unit owning sources and results
//   - PipelineContext: The value threaded through one pipeline run
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
