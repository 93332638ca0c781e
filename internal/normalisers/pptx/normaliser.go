// Package pptx provides a Normaliser for PowerPoint presentations.
// Each slide becomes one page of the extracted text.
package pptx

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/custodia-labs/sercha-research/internal/core/domain"
	"github.com/custodia-labs/sercha-research/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-research/internal/normalisers/ooxml"
	"github.com/custodia-labs/sercha-research/internal/normalisers/textutil"
)

// MIMEType is the content type of PowerPoint presentations.
const MIMEType = "application/vnd.openxmlformats-officedocument.presentationml.presentation"

const slidePrefix = "ppt/slides/slide"

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles PPTX documents.
type Normaliser struct{}

// New creates a new PPTX normaliser.
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

// Normalise extracts the text of every slide in slide order.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	reader, err := ooxml.Open(raw.Content)
	if err != nil {
		return nil, err
	}

	slides := slideFiles(reader)
	if len(slides) == 0 {
		return nil, fmt.Errorf("%w: presentation has no slides", domain.ErrInvalidInput)
	}

	pages := make([]string, 0, len(slides))
	for _, f := range slides {
		data, _, err := ooxml.ReadPart(reader, f.Name)
		if err != nil {
			return nil, err
		}
		text, err := slideText(data)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", domain.ErrInvalidInput, f.Name, err)
		}
		pages = append(pages, text)
	}

	title := ooxml.CoreTitle(reader)
	if title == "" {
		title = textutil.TitleFromURI(raw.URI)
	}

	content, offsets := textutil.Pages(pages)
	return &driven.NormaliseResult{
		Title:       title,
		Content:     content,
		PageOffsets: offsets,
	}, nil
}

// slideFiles returns the slide parts ordered by slide number.
func slideFiles(r *zip.Reader) []*zip.File {
	type numbered struct {
		n int
		f *zip.File
	}
	var found []numbered
	for _, f := range r.File {
		name, ok := strings.CutPrefix(f.Name, slidePrefix)
		if !ok || !strings.HasSuffix(name, ".xml") {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSuffix(name, ".xml"))
		if err != nil {
			continue
		}
		found = append(found, numbered{n: n, f: f})
	}
	sort.Slice(found, func(i, j int) bool { return found[i].n < found[j].n })

	files := make([]*zip.File, len(found))
	for i, s := range found {
		files[i] = s.f
	}
	return files
}

// slideText collects a:t runs, one line per a:p paragraph.
func slideText(data []byte) (string, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	var (
		b      strings.Builder
		inText bool
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "br":
				b.WriteByte('\n')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				b.WriteByte('\n')
			}
		case xml.CharData:
			if inText {
				b.Write(t)
			}
		}
	}
	return textutil.CompactLines(b.String()), nil
}
