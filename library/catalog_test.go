package library

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSampleCatalog(t *testing.T) {
	c := SampleCatalog()
	assert.Len(t, c.Books, 4)
	assert.Len(t, c.Videos, 2)
	assert.Len(t, c.Magazines, 2)
	assert.Equal(t, "1984", c.Books[0].Title)
	assert.Equal(t, "9780451524935", c.Books[0].ISBN)

	items := c.Items()
	require.Len(t, items, c.Len())
	assert.Equal(t, KindBook, items[0].Kind())
	assert.Equal(t, KindMagazine, items[len(items)-1].Kind())
	for _, it := range items {
		assert.True(t, it.Available())
	}
}

func TestLoadCatalogFile(t *testing.T) {
	c, err := LoadCatalogFile(filepath.Join("testdata", "catalog.yaml"))
	require.NoError(t, err)
	require.Len(t, c.Videos, 1)
	assert.Equal(t, Video{Format: "DVD", Duration: 117}, c.Videos[0].Video)
	assert.Equal(t, "Frank Herbert", c.Books[0].Author)
	assert.Empty(t, c.Magazines)

	_, err = LoadCatalogFile(filepath.Join("testdata", "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadCatalogErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"book without isbn", "books:\n  - title: Untitled\n", "books[0]: missing isbn"},
		{"missing title", "magazines:\n  - publisher: Someone\n", "magazines[0]: missing title"},
		{"negative duration", "videos:\n  - title: Odd\n    duration: -3\n", "videos[0]: negative duration"},
		{"unknown field", "books:\n  - title: X\n    isbn: \"1\"\n    pages: 300\n", "pages"},
		{"not yaml", "books: [", "decode catalog"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadCatalog(strings.NewReader(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadEmptyCatalog(t *testing.T) {
	c, err := LoadCatalog(strings.NewReader(""))
	require.NoError(t, err)
	assert.Zero(t, c.Len())
}
