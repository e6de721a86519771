package ledger

import (
	"os"
	"path/filepath"
	"testing"

	"eodmsdds/pkg/logger"
)

func newTestLedger(t *testing.T) (*Ledger, string) {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "ledger.db")
	if err := CreateSchema(dbPath); err != nil {
		t.Fatalf("CreateSchema failed: %v", err)
	}

	l := Open(dbPath, logger.NewNopLogger())
	if !l.Enabled() {
		t.Fatal("Expected ledger enabled with valid schema")
	}
	t.Cleanup(func() { l.Close() })
	return l, dir
}

func TestOpenMissingPathDisabled(t *testing.T) {
	l := Open("", logger.NewNopLogger())
	if l.Enabled() {
		t.Error("Expected ledger disabled with empty path")
	}

	// Disabled ledger methods must no-op without panicking
	l.MarkInProgress("1", "RCMImageProducts", 0, "/tmp/x")
	l.MarkCompleted("1", "RCMImageProducts", 0, "/tmp/x")
	l.MarkFailed("1", "RCMImageProducts", 0, "/tmp/x", nil)
	if id := l.RecordQuery("EODMS", "prod", nil); id != 0 {
		t.Errorf("Expected query id 0 from disabled ledger, got %d", id)
	}
	if status := l.DownloadStatus("1"); status != "" {
		t.Errorf("Expected empty status from disabled ledger, got %q", status)
	}
}

func TestOpenNonexistentFileDisabled(t *testing.T) {
	l := Open(filepath.Join(t.TempDir(), "missing.db"), logger.NewNopLogger())
	if l.Enabled() {
		t.Error("Expected ledger disabled when file does not exist")
	}
}

func TestOpenInvalidSchemaDisabled(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "notaledger.db")
	if err := os.WriteFile(dbPath, []byte{}, 0644); err != nil {
		t.Fatal(err)
	}

	l := Open(dbPath, logger.NewNopLogger())
	if l.Enabled() {
		t.Error("Expected ledger disabled without expected tables")
	}
}

func TestRecordQuery(t *testing.T) {
	l, _ := newTestLedger(t)

	id := l.RecordQuery("EODMS", "prod", map[string]interface{}{"entries": 3})
	if id == 0 {
		t.Fatal("Expected non-zero query id")
	}
	id2 := l.RecordQuery("EODMS", "staging", nil)
	if id2 <= id {
		t.Errorf("Expected increasing query ids, got %d then %d", id, id2)
	}
}

func TestDownloadLifecycle(t *testing.T) {
	l, dir := newTestLedger(t)

	finalPath := filepath.Join(dir, "scene.zip")
	if err := os.WriteFile(finalPath, []byte("archive contents"), 0644); err != nil {
		t.Fatal(err)
	}

	queryID := l.RecordQuery("EODMS", "prod", nil)

	l.MarkInProgress("12345", "RCMImageProducts", queryID, finalPath)
	if status := l.DownloadStatus("12345"); status != StatusInProgress {
		t.Errorf("Expected in_progress, got %q", status)
	}

	l.MarkCompleted("12345", "RCMImageProducts", queryID, finalPath)
	if status := l.DownloadStatus("12345"); status != StatusCompleted {
		t.Errorf("Expected completed, got %q", status)
	}

	var sizeMB float64
	var checksum string
	err := l.db.QueryRow(`SELECT file_size_mb, checksum FROM downloads WHERE archive_id = ?`, "12345").
		Scan(&sizeMB, &checksum)
	if err != nil {
		t.Fatalf("Failed to read download row: %v", err)
	}
	if sizeMB <= 0 {
		t.Error("Expected positive file size")
	}
	if len(checksum) != 32 {
		t.Errorf("Expected md5 hex checksum, got %q", checksum)
	}
}

func TestMarkFailed(t *testing.T) {
	l, _ := newTestLedger(t)

	l.MarkInProgress("777", "RCMImageProducts", 0, "/tmp/scene.zip")
	l.MarkFailed("777", "RCMImageProducts", 0, "/tmp/scene.zip", os.ErrDeadlineExceeded)

	if status := l.DownloadStatus("777"); status != StatusFailed {
		t.Errorf("Expected failed, got %q", status)
	}
}

func TestDownloadStatusUnknownArchive(t *testing.T) {
	l, _ := newTestLedger(t)

	if status := l.DownloadStatus("nope"); status != "" {
		t.Errorf("Expected empty status for unknown archive, got %q", status)
	}
}
