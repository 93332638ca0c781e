package domain

import (
	"fmt"
	"path/filepath"
	"strings"
)

// SourceType identifies the format of a source document.
type SourceType string

// Supported source types.
const (
	SourceTypePDF    SourceType = "pdf"
	SourceTypeDOCX   SourceType = "docx"
	SourceTypeText   SourceType = "text"
	SourceTypePasted SourceType = "pasted"
	SourceTypePPT    SourceType = "ppt"
	SourceTypeSheet  SourceType = "sheet"
)

// IsValid returns true if the source type is recognised.
func (t SourceType) IsValid() bool {
	switch t {
	case SourceTypePDF, SourceTypeDOCX, SourceTypeText, SourceTypePasted, SourceTypePPT, SourceTypeSheet:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (t SourceType) String() string {
	return string(t)
}

// MIMEType returns the content type parsers are registered under.
func (t SourceType) MIMEType() string {
	switch t {
	case SourceTypePDF:
		return "application/pdf"
	case SourceTypeDOCX:
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case SourceTypePPT:
		return "application/vnd.openxmlformats-officedocument.presentationml.presentation"
	case SourceTypeSheet:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case SourceTypeText, SourceTypePasted:
		return "text/plain"
	default:
		return "application/octet-stream"
	}
}

// SourceTypeFromPath infers the source type from a file extension.
func SourceTypeFromPath(path string) (SourceType, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return SourceTypePDF, nil
	case ".docx":
		return SourceTypeDOCX, nil
	case ".pptx", ".ppt":
		return SourceTypePPT, nil
	case ".xlsx":
		return SourceTypeSheet, nil
	case ".txt", ".md", ".markdown", ".text", ".csv", ".html", ".htm":
		return SourceTypeText, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedType, filepath.Ext(path))
	}
}

// SourceStatus tracks a source through ingestion.
type SourceStatus string

// Source lifecycle states.
const (
	SourceStatusPending   SourceStatus = "pending"
	SourceStatusIngesting SourceStatus = "ingesting"
	SourceStatusComplete  SourceStatus = "complete"
	SourceStatusError     SourceStatus = "error"
)

// Source is a document handed to a research session.
// Content is populated by a parser during ingestion; a source with
// empty content yields zero chunks.
type Source struct {
	// ID is the unique identifier for the source.
	ID string `json:"id"`

	// Type is the document format.
	Type SourceType `json:"type"`

	// Title is the human-readable title. Citations refer to sources by title.
	Title string `json:"title"`

	// URI is the original location for file-backed sources.
	URI string `json:"uri,omitempty"`

	// Data holds raw bytes for sources without a URI (pasted text).
	Data []byte `json:"data,omitempty"`

	// Content is the extracted plain text.
	Content string `json:"content"`

	// PageOffsets holds the byte offset at which each page starts in Content.
	// Only parsers that know about pages populate it.
	PageOffsets []int `json:"pageOffsets,omitempty"`

	// Status is the ingestion state.
	Status SourceStatus `json:"status"`

	// StatusMessage explains an error status.
	StatusMessage string `json:"statusMessage,omitempty"`
}

// PageAt returns the 1-based page containing the given content offset.
// The boolean is false when the parser recorded no page boundaries.
func (s *Source) PageAt(offset int) (int, bool) {
	if len(s.PageOffsets) == 0 {
		return 0, false
	}
	page := 1
	for i, start := range s.PageOffsets {
		if start > offset {
			break
		}
		page = i + 1
	}
	return page, true
}

// IsUsable returns true if the source finished parsing successfully.
func (s *Source) IsUsable() bool {
	return s.Status == SourceStatusComplete
}

// SourceInput is the raw material for a new source: a file path or pasted text.
type SourceInput struct {
	Type  SourceType
	Title string
	URI   string
	Data  []byte
}
