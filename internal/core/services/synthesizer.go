package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/custodia-labs/sercha-research/internal/core/domain"
	"github.com/custodia-labs/sercha-research/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-research/internal/logger"
	"github.com/custodia-labs/sercha-research/internal/telemetry"
)

// sourceDelimiter separates source blocks in the synthesis context.
const sourceDelimiter = "\n\n---\n\n"

// DefaultSynthesisInstructions tells the model how to use the context.
const DefaultSynthesisInstructions = `Use ONLY the information in the provided context. Do not use outside knowledge.
Every citation must name the source title exactly as it appears after "[Source: " and
must quote an exact, verbatim snippet copied from that source's text.
Respond strictly with a single JSON object matching the provided schema and nothing else.`

// requiredReportFields are the top-level fields every report must carry.
var requiredReportFields = []string{
	"shortSummary", "extendedSummary", "insights", "quotes", "nextSteps", "quiz",
}

// Synthesizer produces the structured report from the selected chunks with
// one generation call. Any invalid response is fatal.
type Synthesizer struct {
	generator    driven.GenerationService
	validator    driven.ReportValidator
	instructions string
	metrics      *telemetry.Metrics
}

// NewSynthesizer creates a synthesizer. validator may be nil, in which case
// only JSON syntax and the presence of required top-level fields are checked.
func NewSynthesizer(generator driven.GenerationService, validator driven.ReportValidator) *Synthesizer {
	return &Synthesizer{
		generator:    generator,
		validator:    validator,
		instructions: DefaultSynthesisInstructions,
		metrics:      telemetry.Default(),
	}
}

// SetInstructions overrides the default instructions.
func (s *Synthesizer) SetInstructions(instructions string) {
	if strings.TrimSpace(instructions) != "" {
		s.instructions = instructions
	}
}

// SetMetrics sets the telemetry instruments.
func (s *Synthesizer) SetMetrics(m *telemetry.Metrics) {
	if m != nil {
		s.metrics = m
	}
}

// Synthesize returns a validated report whose EvidenceChunks are exactly
// the given chunks, in order. Failures are returned as *domain.SynthesisError.
func (s *Synthesizer) Synthesize(ctx context.Context, topic string, chunks []domain.Chunk) (*domain.ResearchOutput, error) {
	if s.generator == nil {
		return nil, s.fail(ctx, domain.SynthesisStageRequest, domain.ErrLLMUnavailable)
	}

	req := driven.GenerationRequest{
		Topic:        topic,
		Context:      BuildSynthesisContext(chunks),
		Instructions: s.instructions,
	}
	if s.validator != nil {
		req.Schema = s.validator.Schema()
	}

	done := logger.Timed("generation")
	raw, err := s.generator.Generate(ctx, req)
	done()
	if err != nil {
		return nil, s.fail(ctx, domain.SynthesisStageRequest, err)
	}

	body := StripCodeFences(raw)
	logger.Debug("Generation response: %d bytes", len(body))

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, s.fail(ctx, domain.SynthesisStageParse, fmt.Errorf("decode response: %w", err))
	}
	for _, name := range requiredReportFields {
		if v, ok := fields[name]; !ok || bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
			return nil, s.fail(ctx, domain.SynthesisStageValidate, fmt.Errorf("missing required field %q", name))
		}
	}
	if s.validator != nil {
		if err := s.validator.Validate(body); err != nil {
			return nil, s.fail(ctx, domain.SynthesisStageValidate, err)
		}
	}

	var out domain.ResearchOutput
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, s.fail(ctx, domain.SynthesisStageParse, fmt.Errorf("decode report: %w", err))
	}

	// Provenance is local: whatever the model said about evidence or
	// verification is replaced.
	out.EvidenceChunks = make([]domain.Chunk, len(chunks))
	copy(out.EvidenceChunks, chunks)
	out.Grounding = nil
	for _, c := range out.Citations() {
		c.Grounded = nil
	}

	logger.Info("Synthesised report: %d insights, %d quotes, %d quiz items",
		len(out.Insights), len(out.Quotes), len(out.Quiz))

	return &out, nil
}

func (s *Synthesizer) fail(ctx context.Context, stage domain.SynthesisStage, err error) error {
	s.metrics.RecordSynthesisFailure(ctx, string(stage))
	logger.Warn("Synthesis %s failed: %v", stage, err)
	var se *domain.SynthesisError
	if errors.As(err, &se) {
		return se
	}
	return &domain.SynthesisError{Stage: stage, Err: err}
}

// BuildSynthesisContext renders chunks as delimited "[Source: title]" blocks in order.
func BuildSynthesisContext(chunks []domain.Chunk) string {
	blocks := make([]string, len(chunks))
	for i, c := range chunks {
		blocks[i] = fmt.Sprintf("[Source: %s]\n%s", c.Metadata.SourceTitle, c.Content)
	}
	return strings.Join(blocks, sourceDelimiter)
}

// StripCodeFences removes a surrounding Markdown code fence such as ```json ... ```.
// Anything else is returned trimmed but unchanged.
func StripCodeFences(data []byte) []byte {
	s := bytes.TrimSpace(data)
	if !bytes.HasPrefix(s, []byte("```")) {
		return s
	}
	s = s[3:]
	if nl := bytes.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	} else {
		// Single-line fence: drop an optional language tag.
		s = bytes.TrimPrefix(s, []byte("json"))
	}
	s = bytes.TrimSpace(s)
	s = bytes.TrimSuffix(s, []byte("```"))
	return bytes.TrimSpace(s)
}
