package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/sercha-research/internal/core/domain"
	"github.com/custodia-labs/sercha-research/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-research/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-research/internal/logger"
)

// Ensure ResearchService implements the interface.
var _ driving.ResearchService = (*ResearchService)(nil)

// DefaultRunLease bounds how long a crashed run keeps a session locked.
const DefaultRunLease = 30 * time.Minute

// ResearchService runs the pipeline against stored sessions.
type ResearchService struct {
	sessions driven.SessionStore
	pipeline *Pipeline
	now      func() time.Time
	lease    time.Duration
}

// NewResearchService creates a new research service.
func NewResearchService(sessions driven.SessionStore, pipeline *Pipeline) *ResearchService {
	return &ResearchService{
		sessions: sessions,
		pipeline: pipeline,
		now:      time.Now,
		lease:    DefaultRunLease,
	}
}

// SetRunLease overrides how long a run holds its session lease.
func (s *ResearchService) SetRunLease(d time.Duration) {
	if d > 0 {
		s.lease = d
	}
}

// Run executes one research run for a session. The session is leased in
// the store for the duration of the run, so concurrent runs are rejected
// across processes sharing the store. Results are saved only when the run
// completes, so a failed run leaves stored results untouched.
func (s *ResearchService) Run(
	ctx context.Context,
	sessionID, topic string,
	opts driving.RunOptions,
) (*domain.ResearchOutput, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, fmt.Errorf("%w: topic is required", domain.ErrInvalidInput)
	}

	owner := uuid.New().String()
	if err := s.sessions.AcquireRun(ctx, sessionID, owner, s.lease); err != nil {
		return nil, fmt.Errorf("acquire run: %w", err)
	}
	defer func() {
		if err := s.sessions.ReleaseRun(context.WithoutCancel(ctx), sessionID, owner); err != nil {
			logger.Warn("Failed to release run lease for session %s: %v", sessionID, err)
		}
	}()

	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	logger.Section("Research")
	logger.Debug("Session %s: topic=%q, sources=%d", session.ID, topic, len(session.Sources))

	pc := s.pipeline.Run(ctx, domain.PipelineContext{
		SessionID: session.ID,
		Topic:     topic,
		Sources:   session.Sources,
	}, opts.Progress)

	if pc.State != domain.PipelineStateComplete {
		return nil, pc.Err
	}

	err = s.sessions.SaveRun(ctx, driven.RunRecord{
		SessionID: session.ID,
		Owner:     owner,
		Topic:     topic,
		Output:    pc.Output,
		Sources:   pc.Sources,
		UpdatedAt: s.now(),
	})
	if err != nil {
		return nil, fmt.Errorf("save run: %w", err)
	}

	return pc.Output, nil
}
