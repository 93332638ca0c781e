package textutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTitleFromURI(t *testing.T) {
	tests := []struct {
		uri      string
		expected string
	}{
		{"/papers/solar_panel-review.pdf", "solar panel review"},
		{"notes.txt", "notes"},
		{"/dir/no-extension", "no extension"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			assert.Equal(t, tt.expected, TitleFromURI(tt.uri))
		})
	}
}

func TestNormaliseNewlines(t *testing.T) {
	assert.Equal(t, "a\nb\nc", NormaliseNewlines("\ufeffa\r\nb\rc"))
}

func TestCompactLines(t *testing.T) {
	assert.Equal(t, "one\ntwo", CompactLines("  one \n\n\t\n two\n"))
	assert.Equal(t, "", CompactLines(" \n "))
}

func TestPages(t *testing.T) {
	text, offsets := Pages([]string{"first", "second", "third"})

	assert.Equal(t, "first\n\nsecond\n\nthird", text)
	assert.Equal(t, []int{0, 7, 15}, offsets)
	assert.Equal(t, "second", text[offsets[1]:offsets[1]+6])

	text, offsets = Pages(nil)
	assert.Empty(t, text)
	assert.Empty(t, offsets)
}
