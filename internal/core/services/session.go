package services

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/sercha-research/internal/core/domain"
	"github.com/custodia-labs/sercha-research/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-research/internal/core/ports/driving"
)

// Ensure SessionService implements the interface.
var _ driving.SessionService = (*SessionService)(nil)

// SessionService manages research sessions.
type SessionService struct {
	store driven.SessionStore
	now   func() time.Time
}

// NewSessionService creates a new session service.
func NewSessionService(store driven.SessionStore) *SessionService {
	return &SessionService{
		store: store,
		now:   time.Now,
	}
}

// Create starts a new empty session.
func (s *SessionService) Create(ctx context.Context, title string) (*domain.Session, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		title = "Untitled research"
	}

	now := s.now()
	session := domain.Session{
		ID:        uuid.New().String(),
		Title:     title,
		Sources:   []domain.Source{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return &session, nil
}

// AddSource attaches a pending source to a session.
func (s *SessionService) AddSource(
	ctx context.Context,
	sessionID string,
	input domain.SourceInput,
) (*domain.Source, error) {
	source, err := newSource(input)
	if err != nil {
		return nil, err
	}

	session, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	session.Sources = append(session.Sources, source)
	session.UpdatedAt = s.now()
	if err := s.store.Save(ctx, *session); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return &source, nil
}

// RemoveSource detaches a source from a session.
func (s *SessionService) RemoveSource(ctx context.Context, sessionID, sourceID string) error {
	session, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("get session: %w", err)
	}

	kept := make([]domain.Source, 0, len(session.Sources))
	for _, src := range session.Sources {
		if src.ID != sourceID {
			kept = append(kept, src)
		}
	}
	if len(kept) == len(session.Sources) {
		return fmt.Errorf("source %s: %w", sourceID, domain.ErrNotFound)
	}

	session.Sources = kept
	session.UpdatedAt = s.now()
	return s.store.Save(ctx, *session)
}

// Get retrieves a session by ID.
func (s *SessionService) Get(ctx context.Context, id string) (*domain.Session, error) {
	return s.store.Get(ctx, id)
}

// List returns all sessions.
func (s *SessionService) List(ctx context.Context) ([]domain.Session, error) {
	return s.store.List(ctx)
}

// Delete removes a session and its results.
func (s *SessionService) Delete(ctx context.Context, id string) error {
	return s.store.Delete(ctx, id)
}

// newSource validates input and builds a pending source.
func newSource(input domain.SourceInput) (domain.Source, error) {
	if !input.Type.IsValid() {
		return domain.Source{}, fmt.Errorf("%w: source type %q", domain.ErrUnsupportedType, input.Type)
	}

	title := strings.TrimSpace(input.Title)
	switch input.Type {
	case domain.SourceTypePasted:
		if strings.TrimSpace(string(input.Data)) == "" {
			return domain.Source{}, fmt.Errorf("%w: pasted text is empty", domain.ErrInvalidInput)
		}
		if title == "" {
			title = "Pasted text"
		}
	default:
		if input.URI == "" && len(input.Data) == 0 {
			return domain.Source{}, fmt.Errorf("%w: file path is required", domain.ErrInvalidInput)
		}
		if title == "" && input.URI != "" {
			base := filepath.Base(input.URI)
			title = strings.TrimSuffix(base, filepath.Ext(base))
		}
	}

	return domain.Source{
		ID:     uuid.New().String(),
		Type:   input.Type,
		Title:  title,
		URI:    input.URI,
		Data:   input.Data,
		Status: domain.SourceStatusPending,
	}, nil
}
