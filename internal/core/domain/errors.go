package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates an unknown source type or MIME type.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrLLMUnavailable indicates the LLM service is not configured.
	// Ranking falls back and synthesis cannot run without it.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// Pipeline Errors.

	// ErrRunInProgress indicates a research run is already active for the session.
	ErrRunInProgress = errors.New("research run in progress")

	// ErrNoUsableSources indicates every source failed to parse or none were given.
	ErrNoUsableSources = errors.New("no usable sources")

	// ErrNoChunks indicates usable sources produced no text to chunk.
	ErrNoChunks = errors.New("no chunks produced")

	// ErrParse indicates a document could not be converted to plain text.
	ErrParse = errors.New("parse failed")

	// ErrSynthesis indicates the generation service failed or returned an invalid report.
	ErrSynthesis = errors.New("synthesis failed")
)

// ParseError describes a single source that failed to parse.
// It matches ErrParse with errors.Is.
type ParseError struct {
	SourceID string
	Title    string
	Err      error
}

// Error implements error.
func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %q: %v", e.Title, e.Err)
}

// Unwrap returns the underlying cause.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrParse.
func (e *ParseError) Is(target error) bool {
	return target == ErrParse
}

// SynthesisStage names the step of synthesis that failed.
type SynthesisStage string

// Synthesis failure stages.
const (
	SynthesisStageRequest  SynthesisStage = "request"
	SynthesisStageParse    SynthesisStage = "parse"
	SynthesisStageValidate SynthesisStage = "validate"
)

// SynthesisError is the fatal failure of the synthesis stage.
// It matches ErrSynthesis with errors.Is.
type SynthesisError struct {
	Stage SynthesisStage
	Err   error
}

// Error implements error.
func (e *SynthesisError) Error() string {
	return fmt.Sprintf("synthesis %s: %v", e.Stage, e.Err)
}

// Unwrap returns the underlying cause.
func (e *SynthesisError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrSynthesis.
func (e *SynthesisError) Is(target error) bool {
	return target == ErrSynthesis
}

// PipelineError records the state a run was in when it became Errored.
type PipelineError struct {
	State PipelineState
	Err   error
}

// Error implements error.
func (e *PipelineError) Error() string {
	return fmt.Sprintf("pipeline %s: %v", e.State, e.Err)
}

// Unwrap returns the underlying cause.
func (e *PipelineError) Unwrap() error {
	return e.Err
}
