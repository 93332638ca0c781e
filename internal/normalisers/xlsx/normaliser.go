// Package xlsx provides a Normaliser for Excel workbooks.
// Each worksheet becomes one page; cells in a row are tab separated.
package xlsx

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/custodia-labs/sercha-research/internal/core/domain"
	"github.com/custodia-labs/sercha-research/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-research/internal/normalisers/textutil"
)

// MIMEType is the content type of Excel workbooks.
const MIMEType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles XLSX workbooks.
type Normaliser struct{}

// New creates a new XLSX normaliser.
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

// Normalise renders every worksheet as text in workbook order.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	f, err := excelize.OpenReader(bytes.NewReader(raw.Content))
	if err != nil {
		return nil, fmt.Errorf("%w: open workbook: %v", domain.ErrInvalidInput, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: workbook has no sheets", domain.ErrInvalidInput)
	}

	pages := make([]string, 0, len(sheets))
	for _, sheet := range sheets {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("%w: sheet %q: %v", domain.ErrInvalidInput, sheet, err)
		}
		pages = append(pages, sheetText(sheet, rows))
	}

	title := ""
	if props, err := f.GetDocProps(); err == nil && props != nil {
		title = strings.TrimSpace(props.Title)
	}
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

// sheetText writes the sheet name followed by its non-empty rows.
func sheetText(name string, rows [][]string) string {
	var b strings.Builder
	b.WriteString(name)
	for _, row := range rows {
		cells := make([]string, len(row))
		empty := true
		for i, cell := range row {
			cells[i] = strings.TrimSpace(cell)
			if cells[i] != "" {
				empty = false
			}
		}
		if empty {
			continue
		}
		b.WriteByte('\n')
		b.WriteString(strings.Join(cells, "\t"))
	}
	return b.String()
}
