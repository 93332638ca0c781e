package driven

import (
	"context"
	"encoding/json"

	"github.com/custodia-labs/sercha-research/internal/core/domain"
)

// RankingService chooses the chunks most relevant to a topic.
// The response is free-form text expected to hold comma-separated
// zero-based chunk indices; the retriever owns parsing and fallback.
type RankingService interface {
	// Rank makes exactly one ranking request.
	Rank(ctx context.Context, req RankRequest) (string, error)
}

// RankRequest is a single ranking call.
type RankRequest struct {
	// Topic is the research topic.
	Topic string

	// Context holds every chunk tagged with its positional index.
	Context string

	// Chunks are the candidates in index order, for rankers that score locally.
	Chunks []domain.Chunk
}

// GenerationService produces the structured research report.
type GenerationService interface {
	// Generate makes exactly one generation request and returns the raw response body.
	Generate(ctx context.Context, req GenerationRequest) ([]byte, error)
}

// GenerationRequest is a single synthesis call.
type GenerationRequest struct {
	// Topic is the research topic.
	Topic string

	// Context holds the selected chunks as delimited source blocks.
	Context string

	// Instructions tell the model how to use the context.
	Instructions string

	// Schema is the JSON Schema the response must satisfy.
	Schema json.RawMessage
}

// ReportValidator owns the report schema.
type ReportValidator interface {
	// Schema returns the JSON Schema document sent to the generation service.
	Schema() json.RawMessage

	// Validate checks a JSON document against the schema.
	Validate(data []byte) error
}

// Chunker splits parsed sources into overlapping windows.
// Implementations must be pure and deterministic.
type Chunker interface {
	// Chunk returns chunks in source order then offset order.
	Chunk(sources []domain.Source) []domain.Chunk
}

// SourceLoader reads the raw bytes of a source for parsing.
type SourceLoader interface {
	// Load returns the unparsed document for a source.
	Load(ctx context.Context, source domain.Source) (*domain.RawDocument, error)
}
