package extractor_test

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spacefreq/ificsync/internal/extractor"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// writeArchive builds a zip file with the given member names and contents.
func writeArchive(t *testing.T, dir, name string, members map[string]string) string {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for member, content := range members {
		w, err := zw.Create(member)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

func newEngine(extractDir string) *extractor.Engine {
	return &extractor.Engine{ExtractDir: extractDir, DatabaseExt: ".mdb", Logger: discardLogger()}
}

func TestExtractAll_WritesDatabaseMembersOnly(t *testing.T) {
	srcDir, extractDir := t.TempDir(), t.TempDir()
	archive := writeArchive(t, srcDir, "ific3001.zip", map[string]string{
		"ific3001.mdb": "database-content",
		"readme.txt":   "notes",
	})

	outcomes := newEngine(extractDir).ExtractAll(context.Background(), []string{archive})

	require.Len(t, outcomes, 1)
	out := outcomes[0]
	assert.Equal(t, extractor.StatusExtracted, out.Status)
	require.Len(t, out.Files, 1)

	data, err := os.ReadFile(filepath.Join(extractDir, "ific3001.mdb"))
	require.NoError(t, err)
	assert.Equal(t, "database-content", string(data))

	_, err = os.Stat(filepath.Join(extractDir, "readme.txt"))
	assert.True(t, os.IsNotExist(err), "non-database members must not be written")
}

func TestExtractAll_MatchesExtensionCaseInsensitively(t *testing.T) {
	srcDir, extractDir := t.TempDir(), t.TempDir()
	archive := writeArchive(t, srcDir, "ific3001.zip", map[string]string{
		"IFIC3001.MDB": "database-content",
	})

	outcomes := newEngine(extractDir).ExtractAll(context.Background(), []string{archive})

	require.Len(t, outcomes, 1)
	assert.Equal(t, extractor.StatusExtracted, outcomes[0].Status)
}

func TestExtractAll_SecondRunWritesNothing(t *testing.T) {
	srcDir, extractDir := t.TempDir(), t.TempDir()
	archive := writeArchive(t, srcDir, "ific3001.zip", map[string]string{
		"ific3001.mdb": "database-content",
	})
	engine := newEngine(extractDir)

	first := engine.ExtractAll(context.Background(), []string{archive})
	require.Len(t, first, 1)
	require.Equal(t, extractor.StatusExtracted, first[0].Status)

	outPath := filepath.Join(extractDir, "ific3001.mdb")
	statBefore, err := os.Stat(outPath)
	require.NoError(t, err)

	second := engine.ExtractAll(context.Background(), []string{archive})
	require.Len(t, second, 1)
	assert.Equal(t, extractor.StatusAlreadyExtracted, second[0].Status)
	assert.Empty(t, second[0].Files)

	statAfter, err := os.Stat(outPath)
	require.NoError(t, err)
	assert.Equal(t, statBefore.ModTime(), statAfter.ModTime(), "an existing output must never be rewritten")
}

func TestExtractAll_PreExistingOutputIsPreserved(t *testing.T) {
	srcDir, extractDir := t.TempDir(), t.TempDir()
	archive := writeArchive(t, srcDir, "ific3001.zip", map[string]string{
		"ific3001.mdb": "fresh-content",
	})

	outPath := filepath.Join(extractDir, "ific3001.mdb")
	require.NoError(t, os.WriteFile(outPath, []byte("existing-content"), 0o644))

	outcomes := newEngine(extractDir).ExtractAll(context.Background(), []string{archive})

	require.Len(t, outcomes, 1)
	assert.Equal(t, extractor.StatusAlreadyExtracted, outcomes[0].Status)

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Equal(t, "existing-content", string(data))
}

func TestExtractAll_CorruptArchiveFailsAlone(t *testing.T) {
	srcDir, extractDir := t.TempDir(), t.TempDir()
	corrupt := filepath.Join(srcDir, "ific3001.zip")
	require.NoError(t, os.WriteFile(corrupt, []byte("this is not a zip file"), 0o644))
	good := writeArchive(t, srcDir, "ific3002.zip", map[string]string{
		"ific3002.mdb": "database-content",
	})

	outcomes := newEngine(extractDir).ExtractAll(context.Background(), []string{corrupt, good})

	require.Len(t, outcomes, 2)
	assert.Equal(t, extractor.StatusFailed, outcomes[0].Status)
	assert.Error(t, outcomes[0].Err)
	assert.Equal(t, extractor.StatusExtracted, outcomes[1].Status)
}

func TestExtractAll_ArchiveWithoutDatabaseMemberFails(t *testing.T) {
	srcDir, extractDir := t.TempDir(), t.TempDir()
	archive := writeArchive(t, srcDir, "ific3001.zip", map[string]string{
		"readme.txt": "notes only",
	})

	outcomes := newEngine(extractDir).ExtractAll(context.Background(), []string{archive})

	require.Len(t, outcomes, 1)
	assert.Equal(t, extractor.StatusFailed, outcomes[0].Status)
	assert.Error(t, outcomes[0].Err)
}

func TestExtractAll_CancelledContextFailsRemaining(t *testing.T) {
	srcDir, extractDir := t.TempDir(), t.TempDir()
	archive := writeArchive(t, srcDir, "ific3001.zip", map[string]string{
		"ific3001.mdb": "database-content",
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	outcomes := newEngine(extractDir).ExtractAll(ctx, []string{archive})

	require.Len(t, outcomes, 1)
	assert.Equal(t, extractor.StatusFailed, outcomes[0].Status)
	assert.ErrorIs(t, outcomes[0].Err, context.Canceled)

	_, err := os.Stat(filepath.Join(extractDir, "ific3001.mdb"))
	assert.True(t, os.IsNotExist(err))
}
