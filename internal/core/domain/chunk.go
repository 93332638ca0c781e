package domain

import "fmt"

// ChunkMetadata describes where a chunk came from.
type ChunkMetadata struct {
	// Page is the 1-based page the chunk starts on, when known.
	Page *int `json:"page,omitempty"`

	// SourceTitle is the title of the owning source. Citations match on it.
	SourceTitle string `json:"sourceTitle"`
}

// Chunk is a fixed-size window of a source's extracted text.
// Chunks are derived and ephemeral: they are recomputed on every run
// and only persisted as the evidence set of a ResearchOutput.
type Chunk struct {
	// ID is "{sourceId}-chunk-{n}" with n counted across the whole chunking pass.
	ID string `json:"id"`

	// SourceID links to the Source the chunk was cut from.
	SourceID string `json:"sourceId"`

	// Content is the window text.
	Content string `json:"content"`

	// Metadata holds provenance information.
	Metadata ChunkMetadata `json:"metadata"`

	// Offset is the byte offset of the window in the source content.
	Offset int `json:"-"`
}

// ChunkID builds the identifier for the n-th chunk of a chunking pass.
func ChunkID(sourceID string, n int) string {
	return fmt.Sprintf("%s-chunk-%d", sourceID, n)
}
