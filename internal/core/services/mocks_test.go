package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/custodia-labs/sercha-research/internal/core/domain"
	"github.com/custodia-labs/sercha-research/internal/core/ports/driven"
)

// --- Mock implementations shared by service tests ---

// mockRanker implements driven.RankingService.
type mockRanker struct {
	response string
	err      error
	calls    atomic.Int32
	lastReq  driven.RankRequest
}

func (m *mockRanker) Rank(_ context.Context, req driven.RankRequest) (string, error) {
	m.calls.Add(1)
	m.lastReq = req
	return m.response, m.err
}

// mockGenerator implements driven.GenerationService.
type mockGenerator struct {
	response []byte
	err      error
	calls    atomic.Int32
	lastReq  driven.GenerationRequest
	// block, when set, is waited on before responding.
	block chan struct{}
}

func (m *mockGenerator) Generate(ctx context.Context, req driven.GenerationRequest) ([]byte, error) {
	m.calls.Add(1)
	m.lastReq = req
	if m.block != nil {
		select {
		case <-m.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return m.response, m.err
}

// mockValidator implements driven.ReportValidator.
type mockValidator struct {
	err error
}

func (m *mockValidator) Schema() json.RawMessage { return json.RawMessage(`{"type":"object"}`) }
func (m *mockValidator) Validate(_ []byte) error { return m.err }

// mockLoader implements driven.SourceLoader using Data or a fixed map.
type mockLoader struct {
	mu    sync.Mutex
	files map[string][]byte
	calls int
}

func (m *mockLoader) Load(_ context.Context, src domain.Source) (*domain.RawDocument, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()

	content := src.Data
	if src.URI != "" {
		data, ok := m.files[src.URI]
		if !ok {
			return nil, fmt.Errorf("open %s: no such file", src.URI)
		}
		content = data
	}
	return &domain.RawDocument{
		SourceID: src.ID,
		URI:      src.URI,
		MIMEType: src.Type.MIMEType(),
		Content:  content,
	}, nil
}

// mockRegistry implements driven.NormaliserRegistry. Content starting with
// "CORRUPT" fails to parse; "PAGES:" splits the rest on form feeds.
type mockRegistry struct{}

func (mockRegistry) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	text := string(raw.Content)
	if strings.HasPrefix(text, "CORRUPT") {
		return nil, errors.New("corrupt document")
	}
	if rest, ok := strings.CutPrefix(text, "PAGES:"); ok {
		var b strings.Builder
		var offsets []int
		for _, page := range strings.Split(rest, "\f") {
			offsets = append(offsets, b.Len())
			b.WriteString(page)
		}
		return &driven.NormaliseResult{Content: b.String(), PageOffsets: offsets}, nil
	}
	return &driven.NormaliseResult{Content: text}, nil
}

func (mockRegistry) Register(driven.Normaliser)   {}
func (mockRegistry) SupportedMIMETypes() []string { return []string{"text/plain"} }

// fixedChunker implements driven.Chunker with one chunk per source.
type fixedChunker struct{}

func (fixedChunker) Chunk(sources []domain.Source) []domain.Chunk {
	var out []domain.Chunk
	for i, s := range sources {
		if strings.TrimSpace(s.Content) == "" {
			continue
		}
		out = append(out, domain.Chunk{
			ID:       domain.ChunkID(s.ID, i),
			SourceID: s.ID,
			Content:  s.Content,
			Metadata: domain.ChunkMetadata{SourceTitle: s.Title},
		})
	}
	return out
}

// makeChunks builds n chunks with distinct content.
func makeChunks(n int) []domain.Chunk {
	chunks := make([]domain.Chunk, n)
	for i := range chunks {
		chunks[i] = domain.Chunk{
			ID:       domain.ChunkID("src", i),
			SourceID: "src",
			Content:  fmt.Sprintf("content of chunk %d", i),
			Metadata: domain.ChunkMetadata{SourceTitle: "Source"},
		}
	}
	return chunks
}

// validReportJSON is a schema-complete report citing the given source.
func validReportJSON(title, quote string) []byte {
	return []byte(fmt.Sprintf(`{
  "shortSummary": {"content": "Summary.", "citations": [{"sourceTitle": %[1]q, "text": %[2]q}]},
  "extendedSummary": "# Extended\nDetails.",
  "insights": [{"content": "Insight.", "citation": {"sourceTitle": %[1]q, "text": %[2]q}}],
  "quotes": [{"content": %[2]q, "citation": {"sourceTitle": %[1]q, "text": %[2]q}}],
  "nextSteps": [{"content": "Read more", "explanation": "Because."}],
  "quiz": [{"question": "Q?", "options": ["a", "b"], "correctAnswer": "a", "explanation": "E.",
            "citation": {"sourceTitle": %[1]q, "text": %[2]q}}]
}`, title, quote))
}
