// Package memory provides in-memory implementations of the storage ports.
// They are used for tests and for the "memory" storage backend, where
// sessions live only for the lifetime of the process.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/custodia-labs/sercha-research/internal/core/domain"
	"github.com/custodia-labs/sercha-research/internal/core/ports/driven"
)

// Ensure SessionStore implements the interface.
var _ driven.SessionStore = (*SessionStore)(nil)

// SessionStore is an in-memory implementation of driven.SessionStore.
// Sessions are copied on the way in and out so callers never share state
// with the store.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]domain.Session
	runs     map[string]runLease
	now      func() time.Time
}

type runLease struct {
	owner   string
	expires time.Time
}

// NewSessionStore creates a new in-memory session store.
func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]domain.Session),
		runs:     make(map[string]runLease),
		now:      time.Now,
	}
}

// Save stores or updates a session.
func (s *SessionStore) Save(_ context.Context, session domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = cloneSession(session)
	return nil
}

// Get retrieves a session by ID.
func (s *SessionStore) Get(_ context.Context, id string) (*domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	clone := cloneSession(session)
	return &clone, nil
}

// Delete removes a session.
func (s *SessionStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.sessions, id)
	delete(s.runs, id)
	return nil
}

// List returns all sessions, most recently updated first.
func (s *SessionStore) List(_ context.Context) ([]domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]domain.Session, 0, len(s.sessions))
	for _, session := range s.sessions {
		result = append(result, cloneSession(session))
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].UpdatedAt.After(result[j].UpdatedAt)
	})
	return result, nil
}

// AcquireRun takes the run lease on a session.
func (s *SessionStore) AcquireRun(_ context.Context, sessionID, owner string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sessionID]; !ok {
		return domain.ErrNotFound
	}
	now := s.now()
	if lease, ok := s.runs[sessionID]; ok && lease.owner != owner && now.Before(lease.expires) {
		return domain.ErrRunInProgress
	}
	s.runs[sessionID] = runLease{owner: owner, expires: now.Add(ttl)}
	return nil
}

// ReleaseRun drops owner's lease.
func (s *SessionStore) ReleaseRun(_ context.Context, sessionID, owner string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if lease, ok := s.runs[sessionID]; ok && lease.owner == owner {
		delete(s.runs, sessionID)
	}
	return nil
}

// SaveRun merges a completed run into the stored session.
func (s *SessionStore) SaveRun(_ context.Context, run driven.RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[run.SessionID]
	if !ok {
		return domain.ErrNotFound
	}
	if lease, ok := s.runs[run.SessionID]; ok && lease.owner != run.Owner {
		return domain.ErrRunInProgress
	}

	session = cloneSession(session)
	parsed := make(map[string]domain.Source, len(run.Sources))
	for _, src := range run.Sources {
		parsed[src.ID] = src
	}
	for i, src := range session.Sources {
		p, ok := parsed[src.ID]
		if !ok {
			continue
		}
		session.Sources[i].Content = p.Content
		session.Sources[i].PageOffsets = append([]int(nil), p.PageOffsets...)
		session.Sources[i].Status = p.Status
		session.Sources[i].StatusMessage = p.StatusMessage
	}
	session.Topic = run.Topic
	session.UpdatedAt = run.UpdatedAt
	if run.Output != nil {
		session.Results = run.Output
	}
	s.sessions[run.SessionID] = cloneSession(session)
	return nil
}

func cloneSession(in domain.Session) domain.Session {
	out := in
	if in.Sources != nil {
		out.Sources = make([]domain.Source, len(in.Sources))
		for i, src := range in.Sources {
			out.Sources[i] = src
			out.Sources[i].Data = append([]byte(nil), src.Data...)
			out.Sources[i].PageOffsets = append([]int(nil), src.PageOffsets...)
		}
	}
	if in.Results != nil {
		results := *in.Results
		results.EvidenceChunks = append([]domain.Chunk(nil), in.Results.EvidenceChunks...)
		out.Results = &results
	}
	return out
}
