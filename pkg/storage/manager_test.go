package storage

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewManagerCreatesLayout(t *testing.T) {
	dir := t.TempDir()

	_, err := NewManager(dir)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	for _, sub := range []string{InProgressDir, CompletedDir} {
		if info, err := os.Stat(filepath.Join(dir, sub)); err != nil || !info.IsDir() {
			t.Errorf("Expected %s directory to exist", sub)
		}
	}
}

func TestSaveMovesToCompleted(t *testing.T) {
	dir := t.TempDir()
	m, err := NewManager(dir)
	if err != nil {
		t.Fatal(err)
	}

	data := []byte("satellite archive bytes")
	path, written, err := m.Save(bytes.NewReader(data), "scene.zip", int64(len(data)))
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if written != int64(len(data)) {
		t.Errorf("Expected %d bytes written, got %d", len(data), written)
	}
	if path != filepath.Join(dir, CompletedDir, "scene.zip") {
		t.Errorf("Unexpected final path: %s", path)
	}

	saved, err := os.ReadFile(path)
	if err != nil || !bytes.Equal(saved, data) {
		t.Error("Completed file does not match written data")
	}

	// No leftover part file
	if _, err := os.Stat(m.PartPath("scene.zip")); !os.IsNotExist(err) {
		t.Error("Expected part file to be removed after rename")
	}
}

func TestSaveSizeMismatch(t *testing.T) {
	dir := t.TempDir()
	m, err := NewManager(dir)
	if err != nil {
		t.Fatal(err)
	}

	data := []byte("short")
	_, _, err = m.Save(bytes.NewReader(data), "scene.zip", 1000)
	if err == nil {
		t.Fatal("Expected size mismatch error")
	}
	if !strings.Contains(err.Error(), "size mismatch") {
		t.Errorf("Expected size mismatch error, got: %v", err)
	}

	// Neither partial nor completed file should remain
	if _, statErr := os.Stat(m.PartPath("scene.zip")); !os.IsNotExist(statErr) {
		t.Error("Expected part file removed on mismatch")
	}
	if m.IsComplete("scene.zip", 0) {
		t.Error("Mismatched file must not count as complete")
	}
}

func TestIsCompleteChecksSize(t *testing.T) {
	dir := t.TempDir()
	m, err := NewManager(dir)
	if err != nil {
		t.Fatal(err)
	}

	data := []byte("0123456789")
	if _, _, err := m.Save(bytes.NewReader(data), "scene.zip", 0); err != nil {
		t.Fatal(err)
	}

	if !m.IsComplete("scene.zip", 10) {
		t.Error("Expected file with matching size to be complete")
	}
	if m.IsComplete("scene.zip", 99) {
		t.Error("Expected size mismatch to report incomplete")
	}
	if !m.IsComplete("scene.zip", 0) {
		t.Error("Expected zero expected size to match any size")
	}
	if m.IsComplete("other.zip", 0) {
		t.Error("Expected unknown file to be incomplete")
	}
}

func TestScanExistingCompleted(t *testing.T) {
	dir := t.TempDir()
	completedDir := filepath.Join(dir, CompletedDir)
	if err := os.MkdirAll(completedDir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(completedDir, "old.zip"), []byte("12345"), 0644); err != nil {
		t.Fatal(err)
	}

	m, err := NewManager(dir)
	if err != nil {
		t.Fatal(err)
	}

	if !m.IsComplete("old.zip", 5) {
		t.Error("Expected pre-existing file to be indexed on startup")
	}
	if m.GetCompletedCount() != 1 {
		t.Errorf("Expected 1 completed file, got %d", m.GetCompletedCount())
	}
}

func writeTestZip(t *testing.T, m *Manager, name string, files map[string]string) {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for entry, content := range files {
		w, err := zw.Create(entry)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	if _, _, err := m.Save(bytes.NewReader(buf.Bytes()), name, 0); err != nil {
		t.Fatal(err)
	}
}

func TestUnzipKeepZip(t *testing.T) {
	dir := t.TempDir()
	m, err := NewManager(dir)
	if err != nil {
		t.Fatal(err)
	}

	writeTestZip(t, m, "scene.zip", map[string]string{
		"imagery/band1.tif": "band one",
		"manifest.xml":      "<manifest/>",
	})

	extracted, err := m.Unzip("scene.zip", true)
	if err != nil {
		t.Fatalf("Unzip failed: %v", err)
	}
	if extracted != filepath.Join(dir, CompletedDir, "scene") {
		t.Errorf("Unexpected extraction dir: %s", extracted)
	}

	content, err := os.ReadFile(filepath.Join(extracted, "imagery", "band1.tif"))
	if err != nil || string(content) != "band one" {
		t.Error("Extracted file content mismatch")
	}

	// Archive kept
	if _, err := os.Stat(m.CompletedPath("scene.zip")); err != nil {
		t.Error("Expected archive to remain with keepZip")
	}
}

func TestUnzipRemovesArchive(t *testing.T) {
	dir := t.TempDir()
	m, err := NewManager(dir)
	if err != nil {
		t.Fatal(err)
	}

	writeTestZip(t, m, "scene.zip", map[string]string{"a.txt": "a"})

	if _, err := m.Unzip("scene.zip", false); err != nil {
		t.Fatalf("Unzip failed: %v", err)
	}
	if _, err := os.Stat(m.CompletedPath("scene.zip")); !os.IsNotExist(err) {
		t.Error("Expected archive removed without keepZip")
	}
}

func TestCleanPartials(t *testing.T) {
	dir := t.TempDir()
	m, err := NewManager(dir)
	if err != nil {
		t.Fatal(err)
	}

	partPath := m.PartPath("stale.zip")
	if err := os.WriteFile(partPath, []byte("partial"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := m.CleanPartials(); err != nil {
		t.Fatalf("CleanPartials failed: %v", err)
	}
	if _, err := os.Stat(partPath); !os.IsNotExist(err) {
		t.Error("Expected stale part file removed")
	}
}
