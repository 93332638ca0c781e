package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/custodia-labs/sercha-research/internal/core/domain"
	"github.com/custodia-labs/sercha-research/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-research/internal/logger"
	"github.com/custodia-labs/sercha-research/internal/telemetry"
)

// Fallback reasons reported by the retriever.
const (
	fallbackNoRanker = "no_ranker"
	fallbackError    = "ranking_error"
	fallbackNoValid  = "no_valid_indices"
)

// Retrieval is the outcome of one retrieval.
type Retrieval struct {
	// Chunks is the selected subset. Always non-empty when the input was.
	Chunks []domain.Chunk

	// Indices are the accepted positions into the input, in response order.
	Indices []int

	// Fallback is true when the leading chunks were used instead of a ranking.
	Fallback bool

	// Reason explains a fallback.
	Reason string
}

// Retriever selects the chunks most relevant to a topic using one ranking call.
// It never fails: any ranking error or unusable response falls back to the
// first chunks in their original order.
type Retriever struct {
	ranker        driven.RankingService
	dedupe        bool
	fallbackLimit int
	metrics       *telemetry.Metrics
}

// RetrieverOption configures a Retriever.
type RetrieverOption func(*Retriever)

// WithDedupe collapses repeated indices to their first occurrence.
func WithDedupe(dedupe bool) RetrieverOption {
	return func(r *Retriever) {
		r.dedupe = dedupe
	}
}

// WithFallbackLimit sets how many leading chunks the fallback uses.
func WithFallbackLimit(n int) RetrieverOption {
	return func(r *Retriever) {
		if n > 0 {
			r.fallbackLimit = n
		}
	}
}

// WithRetrieverMetrics sets the telemetry instruments.
func WithRetrieverMetrics(m *telemetry.Metrics) RetrieverOption {
	return func(r *Retriever) {
		if m != nil {
			r.metrics = m
		}
	}
}

// NewRetriever creates a retriever. ranker may be nil, in which case every
// retrieval uses the fallback.
func NewRetriever(ranker driven.RankingService, opts ...RetrieverOption) *Retriever {
	r := &Retriever{
		ranker:        ranker,
		fallbackLimit: domain.DefaultFallbackLimit,
		metrics:       telemetry.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Retrieve returns the subset of chunks to synthesise from.
func (r *Retriever) Retrieve(ctx context.Context, topic string, chunks []domain.Chunk) Retrieval {
	if len(chunks) == 0 {
		return Retrieval{}
	}

	if r.ranker == nil {
		return r.fallback(ctx, chunks, fallbackNoRanker)
	}

	req := driven.RankRequest{
		Topic:   topic,
		Context: BuildRankContext(chunks),
		Chunks:  chunks,
	}

	done := logger.Timed("ranking")
	resp, err := r.ranker.Rank(ctx, req)
	done()
	if err != nil {
		logger.Warn("Ranking failed: %v (using first %d chunks)", err, r.limit(len(chunks)))
		return r.fallback(ctx, chunks, fallbackError)
	}
	logger.Debug("Ranking response: %q", truncate(resp, 200))

	indices := ParseIndices(resp, len(chunks))
	if r.dedupe {
		indices = dedupeIndices(indices)
	}
	if len(indices) == 0 {
		logger.Warn("Ranking response had no valid indices (using first %d chunks)", r.limit(len(chunks)))
		return r.fallback(ctx, chunks, fallbackNoValid)
	}

	selected := make([]domain.Chunk, len(indices))
	for i, idx := range indices {
		selected[i] = chunks[idx]
	}
	logger.Info("Retrieved %d of %d chunks: %v", len(selected), len(chunks), indices)

	return Retrieval{Chunks: selected, Indices: indices}
}

func (r *Retriever) limit(n int) int {
	if n < r.fallbackLimit {
		return n
	}
	return r.fallbackLimit
}

func (r *Retriever) fallback(ctx context.Context, chunks []domain.Chunk, reason string) Retrieval {
	n := r.limit(len(chunks))
	r.metrics.RecordFallback(ctx, reason)

	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}
	selected := make([]domain.Chunk, n)
	copy(selected, chunks[:n])

	return Retrieval{
		Chunks:   selected,
		Indices:  indices,
		Fallback: true,
		Reason:   reason,
	}
}

// BuildRankContext tags every chunk with its positional index.
func BuildRankContext(chunks []domain.Chunk) string {
	var b strings.Builder
	for i, c := range chunks {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "[%d] (%s) %s", i, c.Metadata.SourceTitle, c.Content)
	}
	return b.String()
}

// ParseIndices extracts chunk indices from a ranking response.
// Tokens are separated by commas or newlines; tokens that are not integers,
// negative values and values >= n are discarded. Order and repeats are kept.
func ParseIndices(resp string, n int) []int {
	tokens := strings.FieldsFunc(resp, func(r rune) bool {
		return r == ',' || r == '\n'
	})

	indices := make([]int, 0, len(tokens))
	for _, tok := range tokens {
		tok = strings.Trim(tok, " \t\r[]().\"'`")
		idx, err := strconv.Atoi(tok)
		if err != nil || idx < 0 || idx >= n {
			continue
		}
		indices = append(indices, idx)
	}
	return indices
}

func dedupeIndices(indices []int) []int {
	seen := make(map[int]bool, len(indices))
	out := indices[:0:0]
	for _, idx := range indices {
		if seen[idx] {
			continue
		}
		seen[idx] = true
		out = append(out, idx)
	}
	return out
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
