package domain

// PipelineState is a state of the research pipeline state machine.
type PipelineState string

// Pipeline states. Errored is absorbing and reachable from every stage.
const (
	PipelineStateIdle         PipelineState = "idle"
	PipelineStateIngesting    PipelineState = "ingesting"
	PipelineStateChunking     PipelineState = "chunking"
	PipelineStateRetrieving   PipelineState = "retrieving"
	PipelineStateSynthesizing PipelineState = "synthesizing"
	PipelineStateComplete     PipelineState = "complete"
	PipelineStateErrored      PipelineState = "errored"
)

// String returns the string representation.
func (s PipelineState) String() string {
	return string(s)
}

// IsTerminal returns true for Complete and Errored.
func (s PipelineState) IsTerminal() bool {
	return s == PipelineStateComplete || s == PipelineStateErrored
}

// CanTransition reports whether the state machine permits moving from s to next.
func (s PipelineState) CanTransition(next PipelineState) bool {
	if s.IsTerminal() {
		return false
	}
	if next == PipelineStateErrored {
		return s != PipelineStateIdle
	}
	switch s {
	case PipelineStateIdle:
		return next == PipelineStateIngesting
	case PipelineStateIngesting:
		return next == PipelineStateChunking
	case PipelineStateChunking:
		return next == PipelineStateRetrieving
	case PipelineStateRetrieving:
		return next == PipelineStateSynthesizing
	case PipelineStateSynthesizing:
		return next == PipelineStateComplete
	default:
		return false
	}
}

// PipelineContext carries one run through the stages. Each stage receives
// the context by value and returns an updated copy, so a run never mutates
// the session it was started from.
type PipelineContext struct {
	SessionID string
	Topic     string
	State     PipelineState

	// Sources are copies of the session's sources, updated by ingestion.
	Sources []Source

	// Chunks is the full chunk set from the chunking stage.
	Chunks []Chunk

	// Selected is the subset chosen by retrieval.
	Selected []Chunk

	// Output is set when the run completes.
	Output *ResearchOutput

	// Err is the cause when State is Errored.
	Err error

	// Fallback is true when retrieval used the deterministic fallback.
	Fallback bool
}

// UsableSources returns the sources that parsed successfully.
func (c PipelineContext) UsableSources() []Source {
	out := make([]Source, 0, len(c.Sources))
	for _, s := range c.Sources {
		if s.IsUsable() {
			out = append(out, s)
		}
	}
	return out
}

// Fail moves the context to Errored with a cause recording the failing state.
func (c PipelineContext) Fail(err error) PipelineContext {
	c.Err = &PipelineError{State: c.State, Err: err}
	c.State = PipelineStateErrored
	return c
}
