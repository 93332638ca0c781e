package driving

import (
	"context"

	"github.com/custodia-labs/sercha-research/internal/core/domain"
)

// SessionService manages research sessions and their sources.
type SessionService interface {
	// Create starts a new empty session.
	Create(ctx context.Context, title string) (*domain.Session, error)

	// AddSource attaches a pending source to a session.
	AddSource(ctx context.Context, sessionID string, input domain.SourceInput) (*domain.Source, error)

	// RemoveSource detaches a source from a session.
	RemoveSource(ctx context.Context, sessionID, sourceID string) error

	// Get retrieves a session by ID.
	Get(ctx context.Context, id string) (*domain.Session, error)

	// List returns all sessions.
	List(ctx context.Context) ([]domain.Session, error)

	// Delete removes a session and its results.
	Delete(ctx context.Context, id string) error
}
