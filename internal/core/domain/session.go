package domain

import "time"

// Session is a research session: a set of sources and the latest report
// generated from them. It is the unit of persistence for the session store.
type Session struct {
	// ID is the unique identifier for the session.
	ID string `json:"id"`

	// Title is the human-readable name.
	Title string `json:"title"`

	// Topic is the topic of the most recent successful run.
	Topic string `json:"topic,omitempty"`

	// Sources are the documents attached to the session, in insertion order.
	Sources []Source `json:"sources"`

	// Results is the latest report. A rerun replaces it wholesale.
	Results *ResearchOutput `json:"results,omitempty"`

	// CreatedAt is when the session was created.
	CreatedAt time.Time `json:"createdAt"`

	// UpdatedAt is when the session was last saved.
	UpdatedAt time.Time `json:"updatedAt"`
}

// SourceByID returns the source with the given ID, or nil.
func (s *Session) SourceByID(id string) *Source {
	for i := range s.Sources {
		if s.Sources[i].ID == id {
			return &s.Sources[i]
		}
	}
	return nil
}
