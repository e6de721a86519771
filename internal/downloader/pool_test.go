package downloader

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"eodmsdds/pkg/dds"
	errs "eodmsdds/pkg/errors"
	"eodmsdds/pkg/logger"
	"eodmsdds/pkg/retry"
)

// MockFetcher is a stand-in archive source
type MockFetcher struct {
	data         []byte
	fetchError   error
	failN        int32
	fetchCounter int32
}

func (m *MockFetcher) FetchArchive(ctx context.Context, url string) (io.ReadCloser, int64, error) {
	count := atomic.AddInt32(&m.fetchCounter, 1)
	if m.fetchError != nil {
		return nil, 0, m.fetchError
	}
	if count <= atomic.LoadInt32(&m.failN) {
		return nil, 0, &errs.Error{Type: errs.ErrorTypeServerError, Message: "transient failure", Code: 502}
	}
	return io.NopCloser(bytes.NewReader(m.data)), int64(len(m.data)), nil
}

func (m *MockFetcher) GetFetchCount() int {
	return int(atomic.LoadInt32(&m.fetchCounter))
}

// MockStorage is an in-memory stand-in for the storage manager
type MockStorage struct {
	saved     map[string][]byte
	unzipped  map[string]bool
	saveError error
	mu        sync.Mutex
}

func NewMockStorage() *MockStorage {
	return &MockStorage{
		saved:    make(map[string][]byte),
		unzipped: make(map[string]bool),
	}
}

func (m *MockStorage) IsComplete(filename string, expectedSize int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.saved[filename]
	return ok && (expectedSize == 0 || int64(len(data)) == expectedSize)
}

func (m *MockStorage) Save(r io.Reader, filename string, expectedSize int64) (string, int64, error) {
	if m.saveError != nil {
		return "", 0, m.saveError
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", 0, err
	}
	m.mu.Lock()
	m.saved[filename] = data
	m.mu.Unlock()
	return m.CompletedPath(filename), int64(len(data)), nil
}

func (m *MockStorage) Unzip(filename string, keepZip bool) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.unzipped[filename] = true
	if !keepZip {
		delete(m.saved, filename)
	}
	return filepath.Join("completed", "extracted"), nil
}

func (m *MockStorage) CompletedPath(filename string) string {
	return filepath.Join("completed", filename)
}

func testRetryConfig() *retry.Config {
	return &retry.Config{
		MaxAttempts: 3,
		Backoff:     &retry.ConstantBackoff{Delay: time.Millisecond},
		RetryIf:     retry.DefaultRetryIf,
		Context:     context.Background(),
		Logger:      logger.NewNopLogger(),
	}
}

func testItem(id, url string) *dds.Item {
	return &dds.Item{ArchiveID: id, Status: dds.StatusAvailable, DownloadURL: url}
}

func collectResults(t *testing.T, wp *WorkerPool, n int) []DownloadResult {
	t.Helper()
	results := make([]DownloadResult, 0, n)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for result := range wp.Results() {
			results = append(results, result)
		}
	}()
	wp.Stop()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Timed out waiting for results")
	}
	if len(results) != n {
		t.Fatalf("Expected %d results, got %d", n, len(results))
	}
	return results
}

func TestPoolDownloadsReadyItems(t *testing.T) {
	fetcher := &MockFetcher{data: []byte("archive bytes")}
	storage := NewMockStorage()

	wp := NewWorkerPool(3, fetcher, storage, testRetryConfig(), Options{}, logger.NewNopLogger())
	wp.Start()

	for i := 0; i < 5; i++ {
		item := testItem(string(rune('a'+i)), "https://files.example/scene"+string(rune('a'+i))+".zip")
		if err := wp.Submit(DownloadJob{Item: item, Index: i, Total: 5}); err != nil {
			t.Fatalf("Submit failed: %v", err)
		}
	}

	results := collectResults(t, wp, 5)
	for _, result := range results {
		if !result.Success() {
			t.Errorf("Expected success for %s, got: %v", result.ArchiveID, result.Err)
		}
		if result.Size != int64(len("archive bytes")) {
			t.Errorf("Unexpected size %d", result.Size)
		}
	}
	if len(storage.saved) != 5 {
		t.Errorf("Expected 5 saved archives, got %d", len(storage.saved))
	}
}

func TestPoolRetriesTransientFailures(t *testing.T) {
	fetcher := &MockFetcher{data: []byte("eventually fine"), failN: 2}
	storage := NewMockStorage()

	wp := NewWorkerPool(1, fetcher, storage, testRetryConfig(), Options{}, logger.NewNopLogger())
	wp.Start()

	if err := wp.Submit(DownloadJob{Item: testItem("1", "https://files.example/a.zip"), Total: 1}); err != nil {
		t.Fatal(err)
	}

	results := collectResults(t, wp, 1)
	if !results[0].Success() {
		t.Fatalf("Expected retries to recover, got: %v", results[0].Err)
	}
	if fetcher.GetFetchCount() != 3 {
		t.Errorf("Expected 3 fetch attempts, got %d", fetcher.GetFetchCount())
	}
}

func TestPoolPermanentFailureSurfaces(t *testing.T) {
	fetcher := &MockFetcher{fetchError: &errs.Error{Type: errs.ErrorTypeNotFound, Message: "gone", Code: 404}}
	storage := NewMockStorage()

	wp := NewWorkerPool(1, fetcher, storage, testRetryConfig(), Options{}, logger.NewNopLogger())
	wp.Start()

	if err := wp.Submit(DownloadJob{Item: testItem("1", "https://files.example/a.zip"), Total: 1}); err != nil {
		t.Fatal(err)
	}

	results := collectResults(t, wp, 1)
	if results[0].Success() {
		t.Fatal("Expected failure")
	}
	var apiErr *errs.Error
	if !errors.As(results[0].Err, &apiErr) || apiErr.Type != errs.ErrorTypeNotFound {
		t.Errorf("Expected not_found error, got: %v", results[0].Err)
	}
	if fetcher.GetFetchCount() != 1 {
		t.Errorf("Expected a single attempt for non-retryable error, got %d", fetcher.GetFetchCount())
	}
}

func TestPoolSkipsCompleteFiles(t *testing.T) {
	fetcher := &MockFetcher{data: []byte("unused")}
	storage := NewMockStorage()
	storage.saved["scene.zip"] = []byte("0123456789")

	wp := NewWorkerPool(1, fetcher, storage, testRetryConfig(), Options{}, logger.NewNopLogger())
	wp.Start()

	item := testItem("1", "https://files.example/scene.zip?size=10")
	if err := wp.Submit(DownloadJob{Item: item, Total: 1}); err != nil {
		t.Fatal(err)
	}

	results := collectResults(t, wp, 1)
	if !results[0].Skipped {
		t.Error("Expected already complete file to be skipped")
	}
	if fetcher.GetFetchCount() != 0 {
		t.Errorf("Expected no fetches for skipped file, got %d", fetcher.GetFetchCount())
	}
}

func TestPoolUnzipAfterDownload(t *testing.T) {
	fetcher := &MockFetcher{data: []byte("zip bytes")}
	storage := NewMockStorage()

	wp := NewWorkerPool(1, fetcher, storage, testRetryConfig(), Options{Unzip: true, KeepZip: false}, logger.NewNopLogger())
	wp.Start()

	if err := wp.Submit(DownloadJob{Item: testItem("1", "https://files.example/scene.zip"), Total: 1}); err != nil {
		t.Fatal(err)
	}

	results := collectResults(t, wp, 1)
	if results[0].ExtractedDir == "" {
		t.Error("Expected extraction directory in result")
	}
	if !storage.unzipped["scene.zip"] {
		t.Error("Expected archive to be extracted")
	}
	if _, kept := storage.saved["scene.zip"]; kept {
		t.Error("Expected archive removed without keep-zip")
	}
}

func TestPoolUnzipSkipsNonZip(t *testing.T) {
	fetcher := &MockFetcher{data: []byte("tiff bytes")}
	storage := NewMockStorage()

	wp := NewWorkerPool(1, fetcher, storage, testRetryConfig(), Options{Unzip: true, KeepZip: true}, logger.NewNopLogger())
	wp.Start()

	if err := wp.Submit(DownloadJob{Item: testItem("1", "https://files.example/scene.tif"), Total: 1}); err != nil {
		t.Fatal(err)
	}

	results := collectResults(t, wp, 1)
	if results[0].ExtractedDir != "" {
		t.Error("Expected no extraction for non-zip file")
	}
}

func TestPoolMissingDownloadURL(t *testing.T) {
	fetcher := &MockFetcher{}
	storage := NewMockStorage()

	wp := NewWorkerPool(1, fetcher, storage, testRetryConfig(), Options{}, logger.NewNopLogger())
	wp.Start()

	item := &dds.Item{ArchiveID: "1", Status: dds.StatusAvailable}
	if err := wp.Submit(DownloadJob{Item: item, Total: 1}); err != nil {
		t.Fatal(err)
	}

	results := collectResults(t, wp, 1)
	if results[0].Success() {
		t.Fatal("Expected failure for item without download URL")
	}
}
