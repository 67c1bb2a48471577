package inventory_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spacefreq/ificsync/internal/catalog"
	"github.com/spacefreq/ificsync/internal/inventory"
)

func record(name string) catalog.Record {
	return catalog.Record{
		Date: time.Date(2025, time.January, 7, 0, 0, 0, 0, time.UTC),
		Name: name,
		URL:  "https://cdn.example.int/archives/" + name,
	}
}

func TestSnapshot_MissingDirectoryIsEmpty(t *testing.T) {
	inv, err := inventory.Snapshot(filepath.Join(t.TempDir(), "does-not-exist"))
	require.NoError(t, err)
	assert.Equal(t, 0, inv.Len())
	assert.False(t, inv.Has("ific3001.zip"))
}

func TestSnapshot_ListsFilesOnly(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ific3001.zip"), []byte("x"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "subdir"), 0o755))

	inv, err := inventory.Snapshot(dir)
	require.NoError(t, err)

	assert.Equal(t, 1, inv.Len())
	assert.True(t, inv.Has("ific3001.zip"))
	assert.False(t, inv.Has("subdir"))
}

func TestMissing_NeverReportsPresentFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ific3001.zip"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ific3002.zip"), []byte("x"), 0o644))

	inv, err := inventory.Snapshot(dir)
	require.NoError(t, err)

	records := []catalog.Record{record("ific3001.zip"), record("ific3002.zip"), record("ific3003.zip")}
	missing := inv.Missing(records)

	require.Len(t, missing, 1)
	assert.Equal(t, "ific3003.zip", missing[0].Name)
}

func TestMissing_PreservesCatalogOrder(t *testing.T) {
	inv, err := inventory.Snapshot(t.TempDir())
	require.NoError(t, err)

	records := []catalog.Record{record("c.zip"), record("a.zip"), record("b.zip")}
	missing := inv.Missing(records)

	require.Len(t, missing, 3)
	assert.Equal(t, "c.zip", missing[0].Name)
	assert.Equal(t, "a.zip", missing[1].Name)
	assert.Equal(t, "b.zip", missing[2].Name)
}

func TestMissing_EmptyWhenEverythingLocal(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ific3001.zip"), []byte("x"), 0o644))

	inv, err := inventory.Snapshot(dir)
	require.NoError(t, err)

	assert.Empty(t, inv.Missing([]catalog.Record{record("ific3001.zip")}))
}
