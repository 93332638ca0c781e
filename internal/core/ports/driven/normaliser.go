package driven

import (
	"context"

	"github.com/custodia-labs/sercha-research/internal/core/domain"
)

// Normaliser converts raw documents into plain text.
// Each normaliser handles specific MIME types (e.g., PDF, Word).
type Normaliser interface {
	// SupportedMIMETypes returns the MIME types this normaliser handles.
	SupportedMIMETypes() []string

	// Priority returns the selection priority (higher = preferred).
	// Format-specific normalisers should return 50-89.
	// Fallback normalisers should return 1-9.
	Priority() int

	// Normalise extracts text from a raw document.
	Normalise(ctx context.Context, raw *domain.RawDocument) (*NormaliseResult, error)
}

// NormaliseResult contains the output of normalisation.
// Chunking is handled separately by the Chunker.
type NormaliseResult struct {
	// Title is the document title when the format carries one.
	Title string

	// Content is the extracted plain text.
	Content string

	// PageOffsets are byte offsets into Content where each page starts.
	// Nil for formats without pages.
	PageOffsets []int
}
