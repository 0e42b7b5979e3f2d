package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"lending-library/library"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const twoItemCatalog = `books:
  - title: Dune
    year: 1965
    genre: Science Fiction
    author: Frank Herbert
    isbn: "9780441013593"
magazines:
  - title: Wired
    year: 2024
    genre: Technology
    publisher: Conde Nast
`

func testConfig(t *testing.T) library.Config {
	t.Helper()
	dir := t.TempDir()
	catalog := filepath.Join(dir, "catalog.yaml")
	require.NoError(t, os.WriteFile(catalog, []byte(twoItemCatalog), 0o644))
	return library.Config{DBPath: filepath.Join(dir, "lib.db"), CatalogPath: catalog, LogLevel: "error"}
}

func TestImportCatalogSummary(t *testing.T) {
	cfg := testConfig(t)

	var out bytes.Buffer
	require.NoError(t, importCatalog(&out, cfg, false))
	assert.Contains(t, out.String(), "Importing 2 entries from "+cfg.CatalogPath)
	assert.Contains(t, out.String(), "Added: 2\nAlready present: 0")
	assert.Contains(t, out.String(), "9780441013593")
	assert.Contains(t, out.String(), "MAG0001")

	out.Reset()
	require.NoError(t, importCatalog(&out, cfg, false))
	assert.Contains(t, out.String(), "Added: 0\nAlready present: 2")
}

func TestImportCatalogFreshRemovesOldFiles(t *testing.T) {
	cfg := testConfig(t)
	for _, file := range []string{cfg.DBPath, cfg.DBPath + "-wal"} {
		require.NoError(t, os.WriteFile(file, bytes.Repeat([]byte("not a database "), 1024), 0o644))
	}

	var out bytes.Buffer
	assert.Error(t, importCatalog(&out, cfg, false), "a damaged file is not silently reused")

	out.Reset()
	require.NoError(t, importCatalog(&out, cfg, true))
	assert.Contains(t, out.String(), "Cleaning up existing database files...")
	assert.Contains(t, out.String(), "Added: 2")
	assert.NotContains(t, out.String(), "Warning")

	mgr, err := library.NewLibraryManager(cfg.DBPath, nil)
	require.NoError(t, err)
	defer mgr.Close()
	assert.Len(t, mgr.Registry().Books(), 1)
	assert.Len(t, mgr.Registry().Magazines(), 1)
}
