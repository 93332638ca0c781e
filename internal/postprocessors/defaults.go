// Package postprocessors builds the content processors used by the research pipeline.
package postprocessors

import (
	"github.com/custodia-labs/sercha-research/internal/core/domain"
	"github.com/custodia-labs/sercha-research/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-research/internal/postprocessors/chunker"
)

// BuildChunker creates a chunker from settings. A ChunkSize of zero or
// less and a negative Overlap fall back to the chunker defaults; an
// Overlap of zero is kept and disables overlap.
func BuildChunker(cfg domain.ChunkerSettings) driven.Chunker {
	var opts []chunker.Option

	if cfg.ChunkSize > 0 {
		opts = append(opts, chunker.WithChunkSize(cfg.ChunkSize))
	}
	if cfg.Overlap >= 0 {
		opts = append(opts, chunker.WithOverlap(cfg.Overlap))
	}

	return chunker.New(opts...)
}
