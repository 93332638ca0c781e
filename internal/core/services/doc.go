// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// The research pipeline lives here: Ingestor, the Chunker port, Retriever,
// Synthesizer and Grounder, driven by Pipeline and exposed through
// ResearchService. Services are pure Go with no CGO.
package services
