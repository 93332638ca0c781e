package driving

import (
	"context"

	"github.com/custodia-labs/sercha-research/internal/core/domain"
)

// ProgressFunc observes pipeline state transitions.
type ProgressFunc func(state domain.PipelineState)

// RunOptions configures a single research run.
type RunOptions struct {
	// Progress is called on every state transition. May be nil.
	Progress ProgressFunc
}

// ResearchService runs the research pipeline for a session.
type ResearchService interface {
	// Run ingests the session's sources, selects relevant chunks for the topic
	// and synthesises a report. The session's results are replaced only on success.
	// A second concurrent run for the same session returns domain.ErrRunInProgress.
	Run(ctx context.Context, sessionID, topic string, opts RunOptions) (*domain.ResearchOutput, error)
}
