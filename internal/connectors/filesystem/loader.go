// Package filesystem loads research sources from local files and pasted text.
package filesystem

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/sercha-research/internal/core/domain"
	"github.com/custodia-labs/sercha-research/internal/core/ports/driven"
)

// DefaultMaxFileSize caps the bytes read for a single source.
const DefaultMaxFileSize int64 = 50 * 1024 * 1024

// Ensure Loader implements the interface.
var _ driven.SourceLoader = (*Loader)(nil)

// Text extensions that have a dedicated normaliser.
var textMIMETypes = map[string]string{
	".md":       "text/markdown",
	".markdown": "text/markdown",
	".html":     "text/html",
	".htm":      "text/html",
	".csv":      "text/csv",
	".json":     "application/json",
}

// Loader reads source bytes from disk or from the source itself.
type Loader struct {
	maxFileSize int64
}

// New creates a loader with the default size limit.
func New() *Loader {
	return &Loader{maxFileSize: DefaultMaxFileSize}
}

// NewWithLimit creates a loader that rejects files larger than maxFileSize bytes.
func NewWithLimit(maxFileSize int64) *Loader {
	return &Loader{maxFileSize: maxFileSize}
}

// Load returns the raw document for a source. Pasted sources and sources
// carrying Data are served from memory; everything else is read from URI.
func (l *Loader) Load(ctx context.Context, source domain.Source) (*domain.RawDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if source.Type == domain.SourceTypePasted || (source.URI == "" && len(source.Data) > 0) {
		return &domain.RawDocument{
			SourceID: source.ID,
			MIMEType: domain.SourceTypePasted.MIMEType(),
			Content:  source.Data,
			Metadata: map[string]any{"title": source.Title},
		}, nil
	}

	if source.URI == "" {
		return nil, fmt.Errorf("%w: source %q has no location", domain.ErrInvalidInput, source.Title)
	}

	path := LocalPath(source.URI)
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, path)
		}
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", domain.ErrInvalidInput, path)
	}
	if l.maxFileSize > 0 && info.Size() > l.maxFileSize {
		return nil, fmt.Errorf("%w: %s is %d bytes, limit is %d",
			domain.ErrInvalidInput, path, info.Size(), l.maxFileSize)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	return &domain.RawDocument{
		SourceID: source.ID,
		URI:      path,
		MIMEType: detectMIMEType(path, source.Type),
		Content:  content,
		Metadata: map[string]any{
			"title":    source.Title,
			"size":     info.Size(),
			"modified": info.ModTime(),
		},
	}, nil
}

// detectMIMEType maps a source to the MIME type its normaliser is
// registered under. Text sources are refined by extension.
func detectMIMEType(path string, st domain.SourceType) string {
	if st == "" {
		inferred, err := domain.SourceTypeFromPath(path)
		if err != nil {
			return "application/octet-stream"
		}
		st = inferred
	}
	if st == domain.SourceTypeText {
		if mt, ok := textMIMETypes[strings.ToLower(filepath.Ext(path))]; ok {
			return mt
		}
	}
	return st.MIMEType()
}
