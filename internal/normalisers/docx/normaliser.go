// Package docx provides a Normaliser for Word documents.
package docx

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/custodia-labs/sercha-research/internal/core/domain"
	"github.com/custodia-labs/sercha-research/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-research/internal/normalisers/ooxml"
	"github.com/custodia-labs/sercha-research/internal/normalisers/textutil"
)

// MIMEType is the content type of Word documents.
const MIMEType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles DOCX documents.
type Normaliser struct{}

// New creates a new DOCX normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{MIMEType}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50
}

// Normalise extracts paragraph text from word/document.xml.
// Explicit and last-rendered page breaks are recorded as page offsets.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	reader, err := ooxml.Open(raw.Content)
	if err != nil {
		return nil, err
	}

	body, ok, err := ooxml.ReadPart(reader, "word/document.xml")
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: word/document.xml missing", domain.ErrInvalidInput)
	}

	pages, err := extractPages(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	title := ooxml.CoreTitle(reader)
	if title == "" {
		title = textutil.TitleFromURI(raw.URI)
	}

	result := &driven.NormaliseResult{Title: title}
	if len(pages) > 1 {
		result.Content, result.PageOffsets = textutil.Pages(pages)
	} else if len(pages) == 1 {
		result.Content = pages[0]
	}
	return result, nil
}

// extractPages walks the document XML and returns the text of each page.
func extractPages(data []byte) ([]string, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))

	var (
		pages  []string
		page   strings.Builder
		inText bool
	)
	flush := func() {
		pages = append(pages, strings.TrimSpace(page.String()))
		page.Reset()
	}

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				page.WriteByte('\t')
			case "cr":
				page.WriteByte('\n')
			case "br":
				if attr(t, "type") == "page" {
					flush()
				} else {
					page.WriteByte('\n')
				}
			case "lastRenderedPageBreak":
				if page.Len() > 0 {
					flush()
				}
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				page.WriteByte('\n')
			}
		case xml.CharData:
			if inText {
				page.Write(t)
			}
		}
	}
	flush()

	// Drop empty trailing pages left by a final break.
	for len(pages) > 1 && pages[len(pages)-1] == "" {
		pages = pages[:len(pages)-1]
	}
	return pages, nil
}

func attr(el xml.StartElement, local string) string {
	for _, a := range el.Attr {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}
