// Package ooxml reads the zip container shared by Office Open XML formats.
package ooxml

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/custodia-labs/sercha-research/internal/core/domain"
)

// maxPartSize bounds a single decompressed part.
const maxPartSize = 64 << 20

// Open opens content as a zip archive.
func Open(content []byte) (*zip.Reader, error) {
	r, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("%w: not an office document: %v", domain.ErrInvalidInput, err)
	}
	return r, nil
}

// ReadPart returns the named part. The boolean is false when the part is absent.
func ReadPart(r *zip.Reader, name string) ([]byte, bool, error) {
	for _, f := range r.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, true, fmt.Errorf("open %s: %w", name, err)
		}
		defer rc.Close()

		data, err := io.ReadAll(io.LimitReader(rc, maxPartSize))
		if err != nil {
			return nil, true, fmt.Errorf("read %s: %w", name, err)
		}
		return data, true, nil
	}
	return nil, false, nil
}

// coreProperties represents docProps/core.xml.
type coreProperties struct {
	Title string `xml:"title"`
}

// CoreTitle returns the document title from docProps/core.xml, or "".
func CoreTitle(r *zip.Reader) string {
	data, ok, err := ReadPart(r, "docProps/core.xml")
	if !ok || err != nil {
		return ""
	}
	var core coreProperties
	if err := xml.Unmarshal(data, &core); err != nil {
		return ""
	}
	return strings.TrimSpace(core.Title)
}
