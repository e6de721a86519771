package metadata

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eodmsdds/pkg/dds"
)

func testArchive(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scene.zip")
	require.NoError(t, os.WriteFile(path, []byte("archive"), 0644))
	return path
}

func TestSaveAndLoad(t *testing.T) {
	archivePath := testArchive(t)

	item := &dds.Item{
		ArchiveID:    "12345",
		CollectionID: "RCMImageProducts",
		Status:       dds.StatusAvailable,
		DownloadURL:  "https://files.example/scene.zip?size=7",
		Raw:          json.RawMessage(`{"archiveId":"12345","extra":"kept"}`),
	}

	meta := FromItem(item, "EODMS", archivePath, "", 7)
	require.NoError(t, meta.Save(archivePath))

	assert.True(t, Exists(archivePath), "sidecar should exist after save")

	loaded, err := Load(archivePath)
	require.NoError(t, err)
	assert.Equal(t, "12345", loaded.ArchiveID)
	assert.Equal(t, "RCMImageProducts", loaded.CollectionID)
	assert.Equal(t, "EODMS", loaded.Catalog)
	assert.Equal(t, int64(7), loaded.FileSize)

	// Full payload preserved opaquely
	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(loaded.Item, &raw))
	assert.Equal(t, "kept", raw["extra"], "passthrough field should survive")
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.zip"))
	assert.Error(t, err)
}

func TestCleanOrphaned(t *testing.T) {
	dir := t.TempDir()

	kept := filepath.Join(dir, "kept.zip")
	require.NoError(t, os.WriteFile(kept, []byte("a"), 0644))
	for _, path := range []string{kept + ".json", filepath.Join(dir, "orphan.zip.json")} {
		require.NoError(t, os.WriteFile(path, []byte("{}"), 0644))
	}

	require.NoError(t, CleanOrphaned(dir))

	_, err := os.Stat(kept + ".json")
	assert.NoError(t, err, "sidecar with archive should survive")
	_, err = os.Stat(filepath.Join(dir, "orphan.zip.json"))
	assert.True(t, os.IsNotExist(err), "orphaned sidecar should be removed")
}
