// Package chunker provides a fixed-size text chunking processor.
package chunker

import (
	"strings"

	"github.com/custodia-labs/sercha-research/internal/core/domain"
	"github.com/custodia-labs/sercha-research/internal/core/ports/driven"
)

// Ensure Processor implements the Chunker interface.
var _ driven.Chunker = (*Processor)(nil)

// DefaultChunkSize is the default number of bytes per chunk.
const DefaultChunkSize = domain.DefaultChunkSize

// DefaultChunkOverlap is the default number of overlapping bytes.
const DefaultChunkOverlap = domain.DefaultChunkOverlap

// Processor splits source content into fixed-size overlapping windows.
// Windows start at 0, S, 2S, ... where S = chunkSize - overlap, and
// emission stops after the first window that reaches the end of the text.
type Processor struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the chunk size in bytes.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in bytes.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		if overlap >= 0 {
			p.overlap = overlap
		}
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(p)
	}

	// Ensure overlap doesn't exceed chunk size
	if p.overlap >= p.chunkSize {
		p.overlap = p.chunkSize / 4
	}

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// Stride returns the distance between consecutive window starts.
func (p *Processor) Stride() int {
	return p.chunkSize - p.overlap
}

// Chunk splits every source into windows. Chunk IDs use a counter shared
// across all sources of the pass, so IDs are unique within one run.
func (p *Processor) Chunk(sources []domain.Source) []domain.Chunk {
	var chunks []domain.Chunk
	n := 0

	for i := range sources {
		src := &sources[i]
		if strings.TrimSpace(src.Content) == "" {
			// Empty content produces no chunks
			continue
		}

		content := src.Content
		contentLen := len(content)
		stride := p.Stride()

		for start := 0; start < contentLen; start += stride {
			end := start + p.chunkSize
			if end > contentLen {
				end = contentLen
			}

			chunk := domain.Chunk{
				ID:       domain.ChunkID(src.ID, n),
				SourceID: src.ID,
				Content:  content[start:end],
				Offset:   start,
				Metadata: domain.ChunkMetadata{
					SourceTitle: src.Title,
				},
			}
			if page, ok := src.PageAt(start); ok {
				chunk.Metadata.Page = &page
			}

			chunks = append(chunks, chunk)
			n++

			if end == contentLen {
				break
			}
		}
	}

	return chunks
}
