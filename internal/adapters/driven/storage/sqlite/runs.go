package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/sercha-research/internal/core/domain"
	"github.com/custodia-labs/sercha-research/internal/core/ports/driven"
)

// AcquireRun takes the run lease on a session. The upsert only overwrites
// a lease that belongs to owner or has expired, so two processes sharing
// the database cannot both win.
func (s *Store) AcquireRun(ctx context.Context, sessionID, owner string, ttl time.Duration) error {
	if err := s.requireSession(ctx, sessionID); err != nil {
		return err
	}

	now := time.Now()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (session_id, owner, expires_at)
		VALUES (?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET
			owner = excluded.owner,
			expires_at = excluded.expires_at
		WHERE runs.owner = excluded.owner OR runs.expires_at <= ?
	`, sessionID, owner, now.Add(ttl).UnixNano(), now.UnixNano())
	if err != nil {
		return fmt.Errorf("acquiring run lease: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("acquiring run lease: %w", err)
	}
	if n == 0 {
		return domain.ErrRunInProgress
	}
	return nil
}

// ReleaseRun drops owner's lease.
func (s *Store) ReleaseRun(ctx context.Context, sessionID, owner string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM runs WHERE session_id = ? AND owner = ?", sessionID, owner)
	if err != nil {
		return fmt.Errorf("releasing run lease: %w", err)
	}
	return nil
}

// SaveRun merges a completed run into the stored session. Source rows are
// updated in place, never inserted or deleted.
func (s *Store) SaveRun(ctx context.Context, run driven.RunRecord) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	// Write first so the transaction holds the write lock before any read.
	res, err := tx.ExecContext(ctx, `
		UPDATE sessions SET topic = ?, updated_at = ?
		WHERE id = ? AND NOT EXISTS (
			SELECT 1 FROM runs WHERE session_id = ? AND owner <> ?
		)
	`, run.Topic, run.UpdatedAt.UTC(), run.SessionID, run.SessionID, run.Owner)
	if err != nil {
		return fmt.Errorf("saving run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("saving run: %w", err)
	}
	if n == 0 {
		var exists int
		if err = tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM sessions WHERE id = ?", run.SessionID).
			Scan(&exists); err != nil {
			return fmt.Errorf("checking session: %w", err)
		}
		if exists == 0 {
			return domain.ErrNotFound
		}
		return domain.ErrRunInProgress
	}

	for _, src := range run.Sources {
		offsets, mErr := marshalOffsets(src.PageOffsets)
		if mErr != nil {
			return mErr
		}
		_, err = tx.ExecContext(ctx, `
			UPDATE sources SET content = ?, page_offsets = ?, status = ?, status_message = ?
			WHERE session_id = ? AND id = ?
		`, src.Content, offsets, string(src.Status), nullString(src.StatusMessage), run.SessionID, src.ID)
		if err != nil {
			return fmt.Errorf("saving source %s: %w", src.ID, err)
		}
	}

	if run.Output != nil {
		if err = upsertReport(ctx, tx, run.SessionID, run.Output); err != nil {
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("committing run: %w", err)
	}
	return nil
}

func (s *Store) requireSession(ctx context.Context, sessionID string) error {
	var exists int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM sessions WHERE id = ?", sessionID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("checking session: %w", err)
	}
	if exists == 0 {
		return domain.ErrNotFound
	}
	return nil
}
