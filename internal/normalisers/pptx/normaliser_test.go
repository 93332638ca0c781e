package pptx

import (
	"archive/zip"
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-research/internal/core/domain"
)

// createTestPPTX builds a presentation from slide bodies keyed by part name.
func createTestPPTX(t *testing.T, parts map[string]string) []byte {
	t.Helper()
	buf := new(bytes.Buffer)
	w := zip.NewWriter(buf)
	for name, body := range parts {
		f, err := w.Create(name)
		require.NoError(t, err)
		_, err = f.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func slide(paragraphs ...string) string {
	var b bytes.Buffer
	b.WriteString(`<p:sld xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" ` +
		`xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main"><p:cSld><p:spTree><p:sp><p:txBody>`)
	for _, p := range paragraphs {
		b.WriteString(`<a:p><a:r><a:t>` + p + `</a:t></a:r></a:p>`)
	}
	b.WriteString(`</p:txBody></p:sp></p:spTree></p:cSld></p:sld>`)
	return b.String()
}

func TestNormalise_SlidesInNumericOrder(t *testing.T) {
	content := createTestPPTX(t, map[string]string{
		"ppt/slides/slide10.xml":      slide("Ten"),
		"ppt/slides/slide2.xml":       slide("Two", "More two"),
		"ppt/slides/slide1.xml":       slide("Intro"),
		"ppt/slides/_rels/slide1.xml": "<Relationships/>",
		"ppt/slideLayouts/slide1.xml": slide("layout text"),
		"ppt/presentation.xml":        "<p:presentation/>",
	})
	raw := &domain.RawDocument{URI: "/talks/q3-review.pptx", MIMEType: MIMEType, Content: content}

	result, err := New().Normalise(context.Background(), raw)

	require.NoError(t, err)
	assert.Equal(t, "q3 review", result.Title)
	assert.Equal(t, "Intro\n\nTwo\nMore two\n\nTen", result.Content)
	assert.Equal(t, []int{0, 7, 21}, result.PageOffsets)
	assert.NotContains(t, result.Content, "layout text")
}

func TestNormalise_CoreTitle(t *testing.T) {
	content := createTestPPTX(t, map[string]string{
		"ppt/slides/slide1.xml": slide("x"),
		"docProps/core.xml":     `<cp:coreProperties xmlns:cp="c" xmlns:dc="d"><dc:title>Roadmap</dc:title></cp:coreProperties>`,
	})

	result, err := New().Normalise(context.Background(), &domain.RawDocument{Content: content})

	require.NoError(t, err)
	assert.Equal(t, "Roadmap", result.Title)
}

func TestNormalise_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content []byte
	}{
		{"not a zip", []byte("plain bytes")},
		{"no slides", createTestPPTX(t, map[string]string{"ppt/presentation.xml": "<p/>"})},
		{"malformed slide", createTestPPTX(t, map[string]string{"ppt/slides/slide1.xml": "<p:sld><a:p>"})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New().Normalise(context.Background(), &domain.RawDocument{Content: tt.content})
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

func TestSupportedMIMETypes(t *testing.T) {
	assert.Equal(t, []string{MIMEType}, New().SupportedMIMETypes())
	assert.Equal(t, domain.SourceTypePPT.MIMEType(), MIMEType)
}
