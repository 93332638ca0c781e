package xlsx

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/custodia-labs/sercha-research/internal/core/domain"
	"github.com/custodia-labs/sercha-research/internal/core/ports/driven"
)

func buildWorkbook(t *testing.T, title string) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	require.NoError(t, f.SetCellValue("Sheet1", "A1", "Region"))
	require.NoError(t, f.SetCellValue("Sheet1", "B1", "Revenue"))
	require.NoError(t, f.SetCellValue("Sheet1", "A2", "North"))
	require.NoError(t, f.SetCellValue("Sheet1", "B2", 120))

	_, err := f.NewSheet("Notes")
	require.NoError(t, err)
	require.NoError(t, f.SetCellValue("Notes", "A1", "Figures are unaudited"))

	if title != "" {
		require.NoError(t, f.SetDocProps(&excelize.DocProperties{Title: title}))
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestSupportedMIMETypes(t *testing.T) {
	assert.Equal(t, []string{MIMEType}, New().SupportedMIMETypes())
	assert.Equal(t, domain.SourceTypeSheet.MIMEType(), MIMEType)
}

func TestNormalise_SheetsArePages(t *testing.T) {
	raw := &domain.RawDocument{URI: "/data/q3_sales.xlsx", MIMEType: MIMEType, Content: buildWorkbook(t, "")}

	result, err := New().Normalise(context.Background(), raw)

	require.NoError(t, err)
	assert.Equal(t, "q3 sales", result.Title)
	assert.Equal(t, "Sheet1\nRegion\tRevenue\nNorth\t120\n\nNotes\nFigures are unaudited", result.Content)
	assert.Equal(t, []int{0, 33}, result.PageOffsets)
}

func TestNormalise_DocPropsTitle(t *testing.T) {
	raw := &domain.RawDocument{URI: "/data/book.xlsx", Content: buildWorkbook(t, "Quarterly Sales")}

	result, err := New().Normalise(context.Background(), raw)

	require.NoError(t, err)
	assert.Equal(t, "Quarterly Sales", result.Title)
}

func TestNormalise_InvalidWorkbook(t *testing.T) {
	_, err := New().Normalise(context.Background(), &domain.RawDocument{Content: []byte("not a zip")})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestNormalise_NilDocument(t *testing.T) {
	_, err := New().Normalise(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSheetText_SkipsEmptyRows(t *testing.T) {
	got := sheetText("S", [][]string{{"a", " b "}, {"", "  "}, {"", "c"}})
	assert.Equal(t, "S\na\tb\n\tc", got)
}

func TestInterfaceCompliance(t *testing.T) {
	var _ driven.Normaliser = (*Normaliser)(nil)
}
