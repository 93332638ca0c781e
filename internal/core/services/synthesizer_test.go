package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-research/internal/core/domain"
)

func TestBuildSynthesisContext(t *testing.T) {
	chunks := []domain.Chunk{
		{Content: "alpha", Metadata: domain.ChunkMetadata{SourceTitle: "A"}},
		{Content: "beta", Metadata: domain.ChunkMetadata{SourceTitle: "B"}},
	}

	got := BuildSynthesisContext(chunks)

	assert.Equal(t, "[Source: A]\nalpha\n\n---\n\n[Source: B]\nbeta", got)
	assert.Empty(t, BuildSynthesisContext(nil))
}

func TestStripCodeFences(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain", `{"a":1}`, `{"a":1}`},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"bare fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"surrounding whitespace", "\n  ```json\n{\"a\":1}\n```  \n", `{"a":1}`},
		{"single line fence", "```json{\"a\":1}```", `{"a":1}`},
		{"unterminated fence", "```json\n{\"a\":1}", `{"a":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, string(StripCodeFences([]byte(tt.input))))
		})
	}
}

func TestSynthesizer_Success(t *testing.T) {
	chunks := makeChunks(3)
	gen := &mockGenerator{response: validReportJSON("Source", "content of chunk 1")}
	s := NewSynthesizer(gen, nil)

	out, err := s.Synthesize(context.Background(), "chunks", chunks)

	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Equal(t, "Summary.", out.ShortSummary.Content)
	assert.Len(t, out.Insights, 1)
	assert.Len(t, out.Quotes, 1)
	assert.Len(t, out.NextSteps, 1)
	assert.Len(t, out.Quiz, 1)
	assert.Equal(t, chunks, out.EvidenceChunks)
	assert.Nil(t, out.Grounding)
	assert.Equal(t, int32(1), gen.calls.Load())

	assert.Equal(t, "chunks", gen.lastReq.Topic)
	assert.Equal(t, DefaultSynthesisInstructions, gen.lastReq.Instructions)
	assert.Equal(t, BuildSynthesisContext(chunks), gen.lastReq.Context)
	assert.Nil(t, gen.lastReq.Schema)
}

func TestSynthesizer_EvidenceIgnoresModelOutput(t *testing.T) {
	chunks := makeChunks(2)
	body := strings.Replace(string(validReportJSON("Source", "x")), `"quiz"`,
		`"evidenceChunks": [{"id": "forged"}], "grounding": {"mode": "off"}, "quiz"`, 1)
	s := NewSynthesizer(&mockGenerator{response: []byte(body)}, nil)

	out, err := s.Synthesize(context.Background(), "t", chunks)

	require.NoError(t, err)
	assert.Equal(t, chunks, out.EvidenceChunks)
	assert.Nil(t, out.Grounding)
}

func TestSynthesizer_ClearsModelGroundedFlags(t *testing.T) {
	body := strings.ReplaceAll(string(validReportJSON("Source", "x")), `"text": "x"}`, `"text": "x", "grounded": true}`)
	require.Contains(t, body, `"grounded": true`)
	s := NewSynthesizer(&mockGenerator{response: []byte(body)}, nil)

	out, err := s.Synthesize(context.Background(), "t", makeChunks(1))

	require.NoError(t, err)
	citations := out.Citations()
	require.Len(t, citations, 4)
	for _, c := range citations {
		assert.Nil(t, c.Grounded)
	}
}

func TestSynthesizer_EvidenceDoesNotAliasInput(t *testing.T) {
	chunks := makeChunks(2)
	s := NewSynthesizer(&mockGenerator{response: validReportJSON("Source", "x")}, nil)

	out, err := s.Synthesize(context.Background(), "t", chunks)
	require.NoError(t, err)

	out.EvidenceChunks[0].Content = "mutated"
	assert.Equal(t, "content of chunk 0", chunks[0].Content)
}

func TestSynthesizer_AcceptsFencedResponse(t *testing.T) {
	body := "```json\n" + string(validReportJSON("Source", "x")) + "\n```"
	s := NewSynthesizer(&mockGenerator{response: []byte(body)}, nil)

	out, err := s.Synthesize(context.Background(), "t", makeChunks(1))

	require.NoError(t, err)
	assert.Equal(t, "Summary.", out.ShortSummary.Content)
}

func TestSynthesizer_Failures(t *testing.T) {
	tests := []struct {
		name      string
		gen       *mockGenerator
		validator *mockValidator
		stage     domain.SynthesisStage
	}{
		{
			name:  "request error",
			gen:   &mockGenerator{err: errors.New("connection refused")},
			stage: domain.SynthesisStageRequest,
		},
		{
			name:  "invalid json",
			gen:   &mockGenerator{response: []byte(`{"shortSummary": `)},
			stage: domain.SynthesisStageParse,
		},
		{
			name:  "prose response",
			gen:   &mockGenerator{response: []byte("Here is your report!")},
			stage: domain.SynthesisStageParse,
		},
		{
			name:  "json array",
			gen:   &mockGenerator{response: []byte(`[1, 2]`)},
			stage: domain.SynthesisStageParse,
		},
		{
			name:  "missing field",
			gen:   &mockGenerator{response: []byte(`{"shortSummary": {"content": "x", "citations": []}}`)},
			stage: domain.SynthesisStageValidate,
		},
		{
			name: "null field",
			gen: &mockGenerator{response: []byte(strings.Replace(
				string(validReportJSON("S", "x")), `"extendedSummary": "# Extended\nDetails."`, `"extendedSummary": null`, 1))},
			stage: domain.SynthesisStageValidate,
		},
		{
			name:      "validator rejects",
			gen:       &mockGenerator{response: validReportJSON("Source", "x")},
			validator: &mockValidator{err: errors.New("insights: expected array")},
			stage:     domain.SynthesisStageValidate,
		},
		{
			name:  "wrong field type",
			gen:   &mockGenerator{response: []byte(strings.Replace(string(validReportJSON("S", "x")), `"nextSteps": [`, `"nextSteps": 7, "ignored": [`, 1))},
			stage: domain.SynthesisStageParse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var s *Synthesizer
			if tt.validator != nil {
				s = NewSynthesizer(tt.gen, tt.validator)
			} else {
				s = NewSynthesizer(tt.gen, nil)
			}

			out, err := s.Synthesize(context.Background(), "t", makeChunks(2))

			assert.Nil(t, out)
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrSynthesis)

			var se *domain.SynthesisError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, tt.stage, se.Stage)
			assert.Equal(t, int32(1), tt.gen.calls.Load(), "exactly one generation call, no retry")
		})
	}
}

func TestSynthesizer_NilGenerator(t *testing.T) {
	s := NewSynthesizer(nil, nil)

	_, err := s.Synthesize(context.Background(), "t", makeChunks(1))

	assert.ErrorIs(t, err, domain.ErrSynthesis)
	assert.ErrorIs(t, err, domain.ErrLLMUnavailable)
}

func TestSynthesizer_PassesSchemaAndInstructions(t *testing.T) {
	gen := &mockGenerator{response: validReportJSON("Source", "x")}
	s := NewSynthesizer(gen, &mockValidator{})
	s.SetInstructions("Answer in French.")
	s.SetInstructions("   ")

	_, err := s.Synthesize(context.Background(), "t", makeChunks(1))

	require.NoError(t, err)
	assert.Equal(t, "Answer in French.", gen.lastReq.Instructions)
	assert.JSONEq(t, `{"type":"object"}`, string(gen.lastReq.Schema))
}

func TestSynthesizer_PreservesNestedSynthesisError(t *testing.T) {
	inner := &domain.SynthesisError{Stage: domain.SynthesisStageParse, Err: errors.New("adapter decode")}
	s := NewSynthesizer(&mockGenerator{err: inner}, nil)

	_, err := s.Synthesize(context.Background(), "t", makeChunks(1))

	var se *domain.SynthesisError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, domain.SynthesisStageParse, se.Stage)
}
