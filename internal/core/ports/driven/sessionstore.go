package driven

import (
	"context"
	"time"

	"github.com/custodia-labs/sercha-research/internal/core/domain"
)

// SessionStore persists research sessions.
type SessionStore interface {
	// Save stores or updates a session.
	Save(ctx context.Context, session domain.Session) error

	// Get retrieves a session by ID.
	// Returns domain.ErrNotFound if the session does not exist.
	Get(ctx context.Context, id string) (*domain.Session, error)

	// Delete removes a session.
	Delete(ctx context.Context, id string) error

	// List returns all sessions, most recently updated first.
	List(ctx context.Context) ([]domain.Session, error)

	// AcquireRun takes the run lease on a session for owner until ttl
	// elapses. An owner may renew its own lease.
	// Returns domain.ErrNotFound if the session does not exist and
	// domain.ErrRunInProgress while another owner holds an unexpired lease.
	AcquireRun(ctx context.Context, sessionID, owner string, ttl time.Duration) error

	// ReleaseRun drops owner's lease. Releasing a lease held by someone
	// else, or no lease at all, is a no-op.
	ReleaseRun(ctx context.Context, sessionID, owner string) error

	// SaveRun records a completed run. Only the topic, the report and the
	// parse results of the listed sources are written: sources added while
	// the run was in flight are kept and sources removed meanwhile stay
	// removed.
	// Returns domain.ErrRunInProgress if another owner holds the lease and
	// domain.ErrNotFound if the session was deleted.
	SaveRun(ctx context.Context, run RunRecord) error
}

// RunRecord is the outcome of one research run. Sources carry the content,
// page offsets and status produced by ingestion.
type RunRecord struct {
	SessionID string
	Owner     string
	Topic     string
	Output    *domain.ResearchOutput
	Sources   []domain.Source
	UpdatedAt time.Time
}
