package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestErrors_Existence tests that all error variables exist and are not nil
func TestErrors_Existence(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"ErrNotFound", ErrNotFound},
		{"ErrInvalidInput", ErrInvalidInput},
		{"ErrUnsupportedType", ErrUnsupportedType},
		{"ErrLLMUnavailable", ErrLLMUnavailable},
		{"ErrRunInProgress", ErrRunInProgress},
		{"ErrNoUsableSources", ErrNoUsableSources},
		{"ErrNoChunks", ErrNoChunks},
		{"ErrParse", ErrParse},
		{"ErrSynthesis", ErrSynthesis},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotNil(t, tt.err)
			assert.NotEmpty(t, tt.err.Error())
		})
	}
}

// TestErrors_Uniqueness tests that all errors are distinct
func TestErrors_Uniqueness(t *testing.T) {
	allErrors := []error{
		ErrNotFound,
		ErrInvalidInput,
		ErrUnsupportedType,
		ErrLLMUnavailable,
		ErrRunInProgress,
		ErrNoUsableSources,
		ErrNoChunks,
		ErrParse,
		ErrSynthesis,
	}

	for i, err1 := range allErrors {
		for j, err2 := range allErrors {
			if i != j {
				assert.False(t, errors.Is(err1, err2),
					"Error %v should not match error %v", err1, err2)
			}
		}
	}
}

func TestParseError(t *testing.T) {
	cause := errors.New("corrupt xref table")
	err := &ParseError{SourceID: "s1", Title: "Report", Err: cause}

	assert.Equal(t, `parse "Report": corrupt xref table`, err.Error())
	assert.True(t, errors.Is(err, ErrParse))
	assert.True(t, errors.Is(err, cause))
	assert.False(t, errors.Is(err, ErrSynthesis))

	wrapped := fmt.Errorf("ingest: %w", err)
	var pe *ParseError
	require.True(t, errors.As(wrapped, &pe))
	assert.Equal(t, "s1", pe.SourceID)
}

func TestSynthesisError(t *testing.T) {
	cause := errors.New("missing field quiz")
	err := &SynthesisError{Stage: SynthesisStageValidate, Err: cause}

	assert.Equal(t, "synthesis validate: missing field quiz", err.Error())
	assert.True(t, errors.Is(err, ErrSynthesis))
	assert.True(t, errors.Is(err, cause))
	assert.False(t, errors.Is(err, ErrParse))
}

func TestPipelineError(t *testing.T) {
	err := &PipelineError{
		State: PipelineStateSynthesizing,
		Err:   &SynthesisError{Stage: SynthesisStageRequest, Err: errors.New("timeout")},
	}

	assert.Contains(t, err.Error(), "pipeline synthesizing")
	assert.True(t, errors.Is(err, ErrSynthesis))

	var se *SynthesisError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, SynthesisStageRequest, se.Stage)

	noSources := &PipelineError{State: PipelineStateIngesting, Err: ErrNoUsableSources}
	assert.True(t, errors.Is(noSources, ErrNoUsableSources))
	assert.False(t, errors.Is(noSources, ErrNoChunks))
}

// TestErrors_WithWrapping tests error wrapping behavior
func TestErrors_WithWrapping(t *testing.T) {
	wrappedErr := fmt.Errorf("load session: %w", ErrNotFound)

	assert.True(t, errors.Is(wrappedErr, ErrNotFound))
	assert.Contains(t, wrappedErr.Error(), "not found")

	joined := errors.Join(
		&ParseError{SourceID: "a", Title: "A", Err: errors.New("x")},
		&ParseError{SourceID: "b", Title: "B", Err: errors.New("y")},
	)
	assert.True(t, errors.Is(joined, ErrParse))
}
