package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/sercha-research/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/sercha-research/internal/core/domain"
	"github.com/custodia-labs/sercha-research/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.SessionStore = (*Store)(nil)

// dbFile is the database file name inside the data directory.
const dbFile = "sessions.db"

// Store is a SQLite-based session store.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.sercha-research/data.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".sercha-research", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, dbFile)

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)&_time_format=sqlite")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if name := entry.Name(); strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// "001_sessions.up.sql" -> 1
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
	}

	return nil
}

// Save stores or updates a session. Sources and the report are replaced
// wholesale inside one transaction.
func (s *Store) Save(ctx context.Context, session domain.Session) (err error) {
	if session.ID == "" {
		return fmt.Errorf("%w: session id is required", domain.ErrInvalidInput)
	}

	now := time.Now().UTC()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = now
	}
	if session.UpdatedAt.IsZero() {
		session.UpdatedAt = now
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO sessions (id, title, topic, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			topic = excluded.topic,
			updated_at = excluded.updated_at
	`, session.ID, session.Title, session.Topic, session.CreatedAt.UTC(), session.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("saving session: %w", err)
	}

	if _, err = tx.ExecContext(ctx, "DELETE FROM sources WHERE session_id = ?", session.ID); err != nil {
		return fmt.Errorf("clearing sources: %w", err)
	}
	for i, src := range session.Sources {
		offsets, mErr := marshalOffsets(src.PageOffsets)
		if mErr != nil {
			return mErr
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO sources (session_id, position, id, type, title, uri, data, content,
				page_offsets, status, status_message)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, session.ID, i, src.ID, string(src.Type), src.Title, nullString(src.URI), src.Data,
			src.Content, offsets, string(src.Status), nullString(src.StatusMessage))
		if err != nil {
			return fmt.Errorf("saving source %s: %w", src.ID, err)
		}
	}

	if session.Results == nil {
		if _, err = tx.ExecContext(ctx, "DELETE FROM reports WHERE session_id = ?", session.ID); err != nil {
			return fmt.Errorf("clearing report: %w", err)
		}
	} else if err = upsertReport(ctx, tx, session.ID, session.Results); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("committing session: %w", err)
	}
	return nil
}

// Get retrieves a session by ID.
func (s *Store) Get(ctx context.Context, id string) (*domain.Session, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT s.id, s.title, s.topic, s.created_at, s.updated_at, r.report
		FROM sessions s LEFT JOIN reports r ON r.session_id = s.id
		WHERE s.id = ?
	`, id)

	session, err := scanSession(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	if session.Sources, err = s.loadSources(ctx, id); err != nil {
		return nil, err
	}
	return session, nil
}

// Delete removes a session together with its sources and report.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM sessions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List returns all sessions, most recently updated first.
func (s *Store) List(ctx context.Context) ([]domain.Session, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT s.id, s.title, s.topic, s.created_at, s.updated_at, r.report
		FROM sessions s LEFT JOIN reports r ON r.session_id = s.id
		ORDER BY s.updated_at DESC, s.id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying sessions: %w", err)
	}
	defer rows.Close()

	var sessions []domain.Session //nolint:prealloc // size unknown from query
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sessions: %w", err)
	}

	for i := range sessions {
		if sessions[i].Sources, err = s.loadSources(ctx, sessions[i].ID); err != nil {
			return nil, err
		}
	}
	return sessions, nil
}

// loadSources returns a session's sources in insertion order.
func (s *Store) loadSources(ctx context.Context, sessionID string) ([]domain.Source, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, type, title, uri, data, content, page_offsets, status, status_message
		FROM sources WHERE session_id = ?
		ORDER BY position
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("querying sources: %w", err)
	}
	defer rows.Close()

	sources := []domain.Source{}
	for rows.Next() {
		var src domain.Source
		var srcType, status string
		var uri, offsets, message sql.NullString
		if err := rows.Scan(&src.ID, &srcType, &src.Title, &uri, &src.Data, &src.Content,
			&offsets, &status, &message); err != nil {
			return nil, fmt.Errorf("scanning source: %w", err)
		}
		src.Type = domain.SourceType(srcType)
		src.Status = domain.SourceStatus(status)
		src.URI = uri.String
		src.StatusMessage = message.String
		if offsets.Valid && offsets.String != "" {
			if err := json.Unmarshal([]byte(offsets.String), &src.PageOffsets); err != nil {
				return nil, fmt.Errorf("unmarshaling page offsets: %w", err)
			}
		}
		sources = append(sources, src)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sources: %w", err)
	}
	return sources, nil
}

// upsertReport writes the session's report row.
func upsertReport(ctx context.Context, tx *sql.Tx, sessionID string, out *domain.ResearchOutput) error {
	report, err := json.Marshal(out)
	if err != nil {
		return fmt.Errorf("marshalling report: %w", err)
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO reports (session_id, report, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET
			report = excluded.report,
			created_at = excluded.created_at
	`, sessionID, string(report), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("saving report: %w", err)
	}
	return nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*domain.Session, error) {
	var session domain.Session
	var createdAt, updatedAt sql.NullTime
	var report sql.NullString
	if err := row.Scan(&session.ID, &session.Title, &session.Topic, &createdAt, &updatedAt, &report); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning session: %w", err)
	}

	if createdAt.Valid {
		session.CreatedAt = createdAt.Time
	}
	if updatedAt.Valid {
		session.UpdatedAt = updatedAt.Time
	}
	if report.Valid {
		var out domain.ResearchOutput
		if err := json.Unmarshal([]byte(report.String), &out); err != nil {
			return nil, fmt.Errorf("unmarshaling report: %w", err)
		}
		session.Results = &out
	}
	return &session, nil
}

func marshalOffsets(offsets []int) (sql.NullString, error) {
	if len(offsets) == 0 {
		return sql.NullString{}, nil
	}
	b, err := json.Marshal(offsets)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("marshalling page offsets: %w", err)
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

// nullString returns a sql.NullString for the given string.
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
