package plaintext

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-research/internal/core/domain"
	"github.com/custodia-labs/sercha-research/internal/core/ports/driven"
)

func TestSupportedMIMETypes(t *testing.T) {
	mimeTypes := New().SupportedMIMETypes()

	assert.Contains(t, mimeTypes, "text/plain")
	assert.Contains(t, mimeTypes, "text/csv")
}

func TestPriority(t *testing.T) {
	assert.Equal(t, 5, New().Priority())
}

func TestNormalise_Success(t *testing.T) {
	raw := &domain.RawDocument{
		SourceID: "test-source",
		URI:      "/path/to/field_notes.txt",
		MIMEType: "text/plain",
		Content:  []byte("Line one.\r\nLine two."),
	}

	result, err := New().Normalise(context.Background(), raw)

	require.NoError(t, err)
	assert.Equal(t, "field notes", result.Title)
	assert.Equal(t, "Line one.\nLine two.", result.Content)
	assert.Nil(t, result.PageOffsets)
}

func TestNormalise_PastedTextHasNoTitle(t *testing.T) {
	raw := &domain.RawDocument{SourceID: "p", MIMEType: "text/plain", Content: []byte("pasted")}

	result, err := New().Normalise(context.Background(), raw)

	require.NoError(t, err)
	assert.Empty(t, result.Title)
	assert.Equal(t, "pasted", result.Content)
}

func TestNormalise_TitleFromMetadata(t *testing.T) {
	raw := &domain.RawDocument{
		URI:      "/tmp/x.txt",
		Content:  []byte("body"),
		Metadata: map[string]any{"title": "Meeting Notes"},
	}

	result, err := New().Normalise(context.Background(), raw)

	require.NoError(t, err)
	assert.Equal(t, "Meeting Notes", result.Title)
}

func TestNormalise_NilDocument(t *testing.T) {
	result, err := New().Normalise(context.Background(), nil)

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Nil(t, result)
}

func TestNormalise_EmptyContent(t *testing.T) {
	result, err := New().Normalise(context.Background(), &domain.RawDocument{Content: []byte{}})

	require.NoError(t, err)
	assert.Empty(t, result.Content)
}

func TestNormalise_UnicodeContent(t *testing.T) {
	content := "日本語テキスト with émojis 🎉"

	result, err := New().Normalise(context.Background(), &domain.RawDocument{Content: []byte(content)})

	require.NoError(t, err)
	assert.Equal(t, content, result.Content)
}

func TestNormalise_BinaryRejected(t *testing.T) {
	_, err := New().Normalise(context.Background(), &domain.RawDocument{Content: []byte{0xff, 0xfe, 0x00, 0x81}})

	assert.ErrorIs(t, err, domain.ErrUnsupportedType)
}

func TestNormalise_LargeContent(t *testing.T) {
	content := strings.Repeat("Lorem ipsum dolor sit amet. ", 40000)

	result, err := New().Normalise(context.Background(), &domain.RawDocument{Content: []byte(content)})

	require.NoError(t, err)
	assert.Len(t, result.Content, len(content))
}

func TestInterfaceCompliance(t *testing.T) {
	var _ driven.Normaliser = (*Normaliser)(nil)
}

func BenchmarkNormalise(b *testing.B) {
	n := New()
	raw := &domain.RawDocument{Content: []byte(strings.Repeat("text ", 10000))}
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = n.Normalise(ctx, raw)
	}
}
