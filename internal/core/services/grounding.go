package services

import (
	"context"
	"strings"

	"github.com/custodia-labs/sercha-research/internal/core/domain"
	"github.com/custodia-labs/sercha-research/internal/logger"
	"github.com/custodia-labs/sercha-research/internal/telemetry"
)

// Grounder verifies that citations quote their evidence verbatim.
// A citation is grounded when its text, after whitespace normalisation,
// occurs in an evidence chunk with the same source title.
type Grounder struct {
	mode    domain.GroundingMode
	metrics *telemetry.Metrics
}

// NewGrounder creates a grounder. Unknown modes behave as flag.
func NewGrounder(mode domain.GroundingMode) *Grounder {
	if !mode.IsValid() {
		mode = domain.GroundingModeFlag
	}
	return &Grounder{mode: mode, metrics: telemetry.Default()}
}

// Mode returns the active grounding mode.
func (g *Grounder) Mode() domain.GroundingMode {
	return g.mode
}

// Apply checks every citation of out against out.EvidenceChunks and records
// the result in out.Grounding. In drop mode, items with ungrounded citations
// are removed. out is modified in place; Apply never fails.
func (g *Grounder) Apply(ctx context.Context, out *domain.ResearchOutput) {
	if out == nil || g.mode == domain.GroundingModeOff {
		return
	}

	index := newEvidenceIndex(out.EvidenceChunks)
	report := &domain.GroundingReport{Mode: g.mode}

	for _, c := range out.Citations() {
		report.Checked++
		chunk := index.find(c)
		ok := chunk != nil
		c.Grounded = &ok
		if !ok {
			report.Ungrounded = append(report.Ungrounded, *c)
			continue
		}
		report.Grounded++
		if c.Page == nil && chunk.Metadata.Page != nil {
			page := *chunk.Metadata.Page
			c.Page = &page
		}
	}

	if g.mode == domain.GroundingModeDrop && len(report.Ungrounded) > 0 {
		dropUngrounded(out)
	}

	out.Grounding = report
	g.metrics.RecordUngrounded(ctx, len(report.Ungrounded), g.mode.String())
	logger.Info("Grounding (%s): %d/%d citations grounded", g.mode, report.Grounded, report.Checked)
	for _, c := range report.Ungrounded {
		logger.Debug("Ungrounded citation [%s]: %q", c.SourceTitle, truncate(c.Text, 80))
	}
}

func isGrounded(c domain.Citation) bool {
	return c.Grounded != nil && *c.Grounded
}

func dropUngrounded(out *domain.ResearchOutput) {
	cites := out.ShortSummary.Citations[:0:0]
	for _, c := range out.ShortSummary.Citations {
		if isGrounded(c) {
			cites = append(cites, c)
		}
	}
	out.ShortSummary.Citations = cites

	insights := out.Insights[:0:0]
	for _, it := range out.Insights {
		if isGrounded(it.Citation) {
			insights = append(insights, it)
		}
	}
	out.Insights = insights

	quotes := out.Quotes[:0:0]
	for _, q := range out.Quotes {
		if isGrounded(q.Citation) {
			quotes = append(quotes, q)
		}
	}
	out.Quotes = quotes

	quiz := out.Quiz[:0:0]
	for _, q := range out.Quiz {
		if isGrounded(q.Citation) {
			quiz = append(quiz, q)
		}
	}
	out.Quiz = quiz
}

// evidenceIndex groups whitespace-normalised chunk text by source title.
type evidenceIndex struct {
	byTitle map[string][]indexedChunk
}

type indexedChunk struct {
	chunk      *domain.Chunk
	normalised string
}

func newEvidenceIndex(chunks []domain.Chunk) *evidenceIndex {
	idx := &evidenceIndex{byTitle: make(map[string][]indexedChunk)}
	for i := range chunks {
		c := &chunks[i]
		idx.byTitle[c.Metadata.SourceTitle] = append(idx.byTitle[c.Metadata.SourceTitle], indexedChunk{
			chunk:      c,
			normalised: normaliseWhitespace(c.Content),
		})
	}
	return idx
}

// find returns the first chunk that grounds the citation, or nil.
func (e *evidenceIndex) find(c *domain.Citation) *domain.Chunk {
	text := normaliseWhitespace(c.Text)
	if text == "" {
		return nil
	}
	for _, ic := range e.byTitle[c.SourceTitle] {
		if strings.Contains(ic.normalised, text) {
			return ic.chunk
		}
	}
	return nil
}

func normaliseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
