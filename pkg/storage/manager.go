package storage

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Directory names under the output directory
const (
	InProgressDir = "in_progress"
	CompletedDir  = "completed"
)

// Manager handles the download directory layout. Files stream into
// in_progress/<name>.part and move to completed/<name> only after the full
// body has been written and the size verified.
type Manager struct {
	outputDir string
	completed map[string]int64
	mu        sync.RWMutex
}

// NewManager creates a storage manager rooted at outputDir, creating the
// in_progress and completed subdirectories as needed
func NewManager(outputDir string) (*Manager, error) {
	for _, sub := range []string{InProgressDir, CompletedDir} {
		if err := os.MkdirAll(filepath.Join(outputDir, sub), 0755); err != nil {
			return nil, fmt.Errorf("failed to create %s directory: %w", sub, err)
		}
	}

	manager := &Manager{
		outputDir: outputDir,
		completed: make(map[string]int64),
	}

	if err := manager.scanCompleted(); err != nil {
		return nil, fmt.Errorf("failed to scan completed files: %w", err)
	}

	return manager, nil
}

// scanCompleted indexes files already present in the completed directory
func (m *Manager) scanCompleted() error {
	entries, err := os.ReadDir(filepath.Join(m.outputDir, CompletedDir))
	if err != nil {
		return fmt.Errorf("failed to read directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		m.completed[entry.Name()] = info.Size()
	}

	return nil
}

// IsComplete reports whether a file of the given name and expected size is
// already in the completed directory. A zero expectedSize matches any size.
func (m *Manager) IsComplete(filename string, expectedSize int64) bool {
	m.mu.RLock()
	size, ok := m.completed[filename]
	m.mu.RUnlock()

	if !ok {
		info, err := os.Stat(m.CompletedPath(filename))
		if err != nil {
			return false
		}
		size = info.Size()
		m.mu.Lock()
		m.completed[filename] = size
		m.mu.Unlock()
	}

	return expectedSize == 0 || size == expectedSize
}

// PartPath returns the in-progress path for a filename
func (m *Manager) PartPath(filename string) string {
	return filepath.Join(m.outputDir, InProgressDir, filename+".part")
}

// CompletedPath returns the completed path for a filename
func (m *Manager) CompletedPath(filename string) string {
	return filepath.Join(m.outputDir, CompletedDir, filename)
}

// Save streams r into in_progress/<filename>.part and moves it to
// completed/<filename> once fully written. When expectedSize is non-zero,
// a byte-count mismatch fails the save and removes the partial file.
// Returns the final path and the byte count written.
func (m *Manager) Save(r io.Reader, filename string, expectedSize int64) (string, int64, error) {
	partPath := m.PartPath(filename)

	out, err := os.Create(partPath)
	if err != nil {
		return "", 0, fmt.Errorf("failed to create part file: %w", err)
	}

	written, err := io.Copy(out, r)
	closeErr := out.Close()

	if err != nil {
		os.Remove(partPath)
		return "", written, fmt.Errorf("failed to write download data: %w", err)
	}
	if closeErr != nil {
		os.Remove(partPath)
		return "", written, fmt.Errorf("failed to close part file: %w", closeErr)
	}

	if expectedSize > 0 && written != expectedSize {
		os.Remove(partPath)
		return "", written, fmt.Errorf("size mismatch for %s: expected %d bytes, wrote %d", filename, expectedSize, written)
	}

	finalPath := m.CompletedPath(filename)
	if err := os.Rename(partPath, finalPath); err != nil {
		os.Remove(partPath)
		return "", written, fmt.Errorf("failed to move completed file: %w", err)
	}

	m.mu.Lock()
	m.completed[filename] = written
	m.mu.Unlock()

	return finalPath, written, nil
}

// Unzip extracts a .zip archive from the completed directory into
// completed/<stem>/ and removes the archive unless keepZip is set.
// Returns the extraction directory.
func (m *Manager) Unzip(filename string, keepZip bool) (string, error) {
	archivePath := m.CompletedPath(filename)
	stem := strings.TrimSuffix(filename, filepath.Ext(filename))
	destDir := filepath.Join(m.outputDir, CompletedDir, stem)

	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		return "", fmt.Errorf("failed to open archive: %w", err)
	}
	defer reader.Close()

	if err := os.MkdirAll(destDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create extraction directory: %w", err)
	}

	for _, file := range reader.File {
		if err := extractFile(file, destDir); err != nil {
			return "", err
		}
	}

	if !keepZip {
		reader.Close()
		if err := os.Remove(archivePath); err != nil {
			return destDir, fmt.Errorf("failed to remove archive: %w", err)
		}
		m.mu.Lock()
		delete(m.completed, filename)
		m.mu.Unlock()
	}

	return destDir, nil
}

// extractFile writes a single zip entry under destDir, rejecting paths
// that escape it
func extractFile(file *zip.File, destDir string) error {
	target := filepath.Join(destDir, file.Name)
	if !strings.HasPrefix(target, filepath.Clean(destDir)+string(os.PathSeparator)) {
		return fmt.Errorf("archive entry escapes extraction directory: %s", file.Name)
	}

	if file.FileInfo().IsDir() {
		return os.MkdirAll(target, 0755)
	}

	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", file.Name, err)
	}

	src, err := file.Open()
	if err != nil {
		return fmt.Errorf("failed to open archive entry %s: %w", file.Name, err)
	}
	defer src.Close()

	dst, err := os.Create(target)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", target, err)
	}

	_, err = io.Copy(dst, src)
	closeErr := dst.Close()
	if err != nil {
		return fmt.Errorf("failed to extract %s: %w", file.Name, err)
	}
	if closeErr != nil {
		return fmt.Errorf("failed to close %s: %w", target, closeErr)
	}

	return nil
}

// CleanPartials removes leftover .part files from the in-progress directory
func (m *Manager) CleanPartials() error {
	dir := filepath.Join(m.outputDir, InProgressDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".part" {
			continue
		}
		if err := os.Remove(filepath.Join(dir, entry.Name())); err != nil {
			return fmt.Errorf("failed to remove partial file: %w", err)
		}
	}

	return nil
}

// GetOutputDir returns the output directory path
func (m *Manager) GetOutputDir() string {
	return m.outputDir
}

// GetCompletedCount returns the number of completed downloads
func (m *Manager) GetCompletedCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.completed)
}
