package metadata

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"eodmsdds/pkg/dds"
)

// ItemMetadata is the sidecar record written next to a downloaded archive
type ItemMetadata struct {
	// Core identifiers
	ArchiveID    string `json:"archive_id"`
	CollectionID string `json:"collection_id"`
	Catalog      string `json:"catalog"`

	// Item state at download time
	Status      string `json:"status"`
	Title       string `json:"title,omitempty"`
	DownloadURL string `json:"download_url,omitempty"`

	// Local file properties
	FilePath     string `json:"file_path"`
	FileSize     int64  `json:"file_size,omitempty"`
	ExtractedDir string `json:"extracted_dir,omitempty"`

	// Timestamps
	DownloadedAt time.Time `json:"downloaded_at"`

	// Item is the full metadata payload as returned by the API
	Item json.RawMessage `json:"item,omitempty"`
}

// FromItem builds sidecar metadata for a downloaded item
func FromItem(item *dds.Item, catalog, filePath, extractedDir string, fileSize int64) *ItemMetadata {
	return &ItemMetadata{
		ArchiveID:    item.ID(),
		CollectionID: item.CollectionID,
		Catalog:      catalog,
		Status:       item.Status,
		Title:        item.Title,
		DownloadURL:  item.DownloadURL,
		FilePath:     filePath,
		FileSize:     fileSize,
		ExtractedDir: extractedDir,
		DownloadedAt: time.Now(),
		Item:         item.Raw,
	}
}

// Save writes the metadata next to the archive as <path>.json
func (m *ItemMetadata) Save(archivePath string) error {
	metadataPath := archivePath + ".json"

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	if err := os.WriteFile(metadataPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write metadata file: %w", err)
	}

	return nil
}

// Load reads sidecar metadata for an archive
func Load(archivePath string) (*ItemMetadata, error) {
	metadataPath := archivePath + ".json"

	data, err := os.ReadFile(metadataPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata file: %w", err)
	}

	var meta ItemMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
	}

	return &meta, nil
}

// Exists checks whether a sidecar file exists for an archive
func Exists(archivePath string) bool {
	_, err := os.Stat(archivePath + ".json")
	return err == nil
}

// CleanOrphaned removes sidecar files whose archive is gone
func CleanOrphaned(directory string) error {
	return filepath.Walk(directory, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if filepath.Ext(path) == ".json" && len(path) > 5 {
			archivePath := path[:len(path)-5]

			if _, err := os.Stat(archivePath); os.IsNotExist(err) {
				if err := os.Remove(path); err != nil {
					return fmt.Errorf("failed to remove orphaned metadata %s: %w", path, err)
				}
			}
		}

		return nil
	})
}
