// Package pdf provides a Normaliser for PDF documents using a pure Go
// PDF reader. Page boundaries are preserved as page offsets so citations
// can be traced back to a page.
package pdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/custodia-labs/sercha-research/internal/core/domain"
	"github.com/custodia-labs/sercha-research/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-research/internal/normalisers/textutil"
)

// MIMEType is the content type of PDF documents.
const MIMEType = "application/pdf"

// maxTitleLength bounds a first line used as a title.
const maxTitleLength = 200

// ErrNoText indicates the PDF has no extractable text layer, as with scans.
var ErrNoText = errors.New("pdf has no extractable text")

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// PageExtractor returns the plain text of each page of a PDF.
type PageExtractor func(content []byte) ([]string, error)

// Normaliser handles PDF documents.
type Normaliser struct {
	extract PageExtractor
}

// New creates a PDF normaliser backed by github.com/ledongthuc/pdf.
func New() *Normaliser {
	return &Normaliser{extract: extractPages}
}

// NewWithExtractor creates a normaliser with a custom page extractor (for testing).
func NewWithExtractor(extract PageExtractor) *Normaliser {
	return &Normaliser{extract: extract}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{MIMEType}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50
}

// Normalise extracts the text of every page.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	pages, err := n.extract(raw.Content)
	if err != nil {
		return nil, err
	}

	for i := range pages {
		pages[i] = strings.TrimSpace(textutil.NormaliseNewlines(pages[i]))
	}
	content, offsets := textutil.Pages(pages)
	if strings.TrimSpace(content) == "" {
		return nil, ErrNoText
	}

	return &driven.NormaliseResult{
		Title:       extractTitle(content, raw.URI),
		Content:     content,
		PageOffsets: offsets,
	}, nil
}

// extractPages reads every page with the pdf library. A page whose text
// cannot be decoded contributes an empty page so numbering stays aligned.
func extractPages(content []byte) (pages []string, err error) {
	// The reader panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			pages, err = nil, fmt.Errorf("%w: malformed pdf: %v", domain.ErrInvalidInput, r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	fonts := make(map[string]*pdf.Font)
	total := reader.NumPage()
	pages = make([]string, 0, total)
	for i := 1; i <= total; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		text, err := page.GetPlainText(fonts)
		if err != nil {
			pages = append(pages, "")
			continue
		}
		pages = append(pages, text)
	}
	return pages, nil
}

// extractTitle uses the first short non-empty line, falling back to the file name.
func extractTitle(content, uri string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || len(line) > maxTitleLength || strings.ContainsRune(line, 0) {
			continue
		}
		return line
	}
	return textutil.TitleFromURI(uri)
}
