package downloader

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"eodmsdds/pkg/dds"
	"eodmsdds/pkg/logger"
	"eodmsdds/pkg/retry"
)

// DownloadJob is a single archive download task
type DownloadJob struct {
	Item  *dds.Item
	Index int
	Total int
}

// DownloadResult is the outcome of one download job
type DownloadResult struct {
	ArchiveID    string
	Dest         string
	ExtractedDir string
	Err          error
	Size         int64
	Duration     time.Duration
	Skipped      bool
}

// Success reports whether the job produced a completed file
func (r DownloadResult) Success() bool {
	return r.Err == nil
}

// ArchiveFetcher opens a streaming body for a resolved download URL
type ArchiveFetcher interface {
	FetchArchive(ctx context.Context, url string) (io.ReadCloser, int64, error)
}

// ArchiveStorage is the download directory layout the pool writes into
type ArchiveStorage interface {
	IsComplete(filename string, expectedSize int64) bool
	Save(r io.Reader, filename string, expectedSize int64) (string, int64, error)
	Unzip(filename string, keepZip bool) (string, error)
	CompletedPath(filename string) string
}

// Options controls post-download handling
type Options struct {
	Unzip   bool
	KeepZip bool
}

// WorkerPool downloads ready archives concurrently
type WorkerPool struct {
	numWorkers  int
	opts        Options
	jobQueue    chan DownloadJob
	resultQueue chan DownloadResult
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
	fetcher     ArchiveFetcher
	storage     ArchiveStorage
	retryCfg    *retry.Config
	logger      logger.Logger
}

// NewWorkerPool creates a download worker pool
func NewWorkerPool(
	numWorkers int,
	fetcher ArchiveFetcher,
	storage ArchiveStorage,
	retryCfg *retry.Config,
	opts Options,
	log logger.Logger,
) *WorkerPool {
	ctx, cancel := context.WithCancel(context.Background())

	if log == nil {
		log = logger.GetLogger()
	}
	if retryCfg == nil {
		retryCfg = retry.DefaultConfig()
	}

	return &WorkerPool{
		numWorkers:  numWorkers,
		opts:        opts,
		jobQueue:    make(chan DownloadJob, numWorkers*2),
		resultQueue: make(chan DownloadResult, numWorkers),
		ctx:         ctx,
		cancel:      cancel,
		fetcher:     fetcher,
		storage:     storage,
		retryCfg:    retryCfg,
		logger:      log,
	}
}

// Start launches the workers
func (wp *WorkerPool) Start() {
	wp.logger.InfoWithFields("Starting download pool", map[string]interface{}{
		"num_workers": wp.numWorkers,
	})

	for i := 0; i < wp.numWorkers; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}
}

// Stop closes the queue, drains the workers, and closes the result channel
func (wp *WorkerPool) Stop() {
	close(wp.jobQueue)
	wp.wg.Wait()
	close(wp.resultQueue)
	wp.cancel()

	wp.logger.Debug("Download pool stopped")
}

// Submit adds a download job to the queue
func (wp *WorkerPool) Submit(job DownloadJob) error {
	select {
	case wp.jobQueue <- job:
		return nil
	case <-wp.ctx.Done():
		return fmt.Errorf("download pool is shutting down")
	}
}

// Results returns the channel download results arrive on
func (wp *WorkerPool) Results() <-chan DownloadResult {
	return wp.resultQueue
}

func (wp *WorkerPool) worker(id int) {
	defer wp.wg.Done()

	for job := range wp.jobQueue {
		select {
		case <-wp.ctx.Done():
			return
		default:
		}

		result := wp.processJob(job, id)

		select {
		case wp.resultQueue <- result:
		case <-wp.ctx.Done():
			return
		}
	}
}

// processJob downloads one archive: skip if already complete, stream to the
// in-progress directory with retries, then optionally extract
func (wp *WorkerPool) processJob(job DownloadJob, workerID int) DownloadResult {
	start := time.Now()
	item := job.Item
	result := DownloadResult{ArchiveID: item.ID()}

	if item.DownloadURL == "" {
		result.Err = fmt.Errorf("item %s has no download URL", item.ID())
		result.Duration = time.Since(start)
		return result
	}

	filename := dds.FilenameFromURL(item.DownloadURL)
	expected := dds.ExpectedSizeFromURL(item.DownloadURL)

	if expected > 0 && wp.storage.IsComplete(filename, expected) {
		wp.logger.DebugWithFields("Archive already complete", map[string]interface{}{
			"worker_id":  workerID,
			"archive_id": item.ID(),
			"file":       filename,
		})
		result.Dest = wp.storage.CompletedPath(filename)
		result.Size = expected
		result.Skipped = true
		result.ExtractedDir, result.Err = wp.maybeUnzip(filename)
		result.Duration = time.Since(start)
		return result
	}

	err := retry.Do(func() error {
		body, size, err := wp.fetcher.FetchArchive(wp.ctx, item.DownloadURL)
		if err != nil {
			return err
		}
		defer body.Close()

		dest, written, err := wp.storage.Save(body, filename, size)
		if err != nil {
			return err
		}

		result.Dest = dest
		result.Size = written
		return nil
	}, wp.retryCfg)
	if err != nil {
		result.Err = fmt.Errorf("download failed: %w", err)
		result.Duration = time.Since(start)

		wp.logger.ErrorWithFields("Archive download failed", map[string]interface{}{
			"worker_id":  workerID,
			"archive_id": item.ID(),
			"error":      err.Error(),
		})

		return result
	}

	result.ExtractedDir, result.Err = wp.maybeUnzip(filename)
	result.Duration = time.Since(start)

	if result.Err == nil {
		wp.logger.InfoWithFields("Archive downloaded", map[string]interface{}{
			"worker_id":  workerID,
			"archive_id": item.ID(),
			"file":       filename,
			"size":       result.Size,
			"duration":   result.Duration,
		})
	}

	return result
}

// maybeUnzip extracts zip archives when the pool is configured to
func (wp *WorkerPool) maybeUnzip(filename string) (string, error) {
	if !wp.opts.Unzip || !strings.HasSuffix(strings.ToLower(filename), ".zip") {
		return "", nil
	}
	dir, err := wp.storage.Unzip(filename, wp.opts.KeepZip)
	if err != nil {
		return "", fmt.Errorf("unzip failed: %w", err)
	}
	return dir, nil
}

// GetQueueSize returns the number of queued jobs
func (wp *WorkerPool) GetQueueSize() int {
	return len(wp.jobQueue)
}

// GetActiveWorkers returns the worker count
func (wp *WorkerPool) GetActiveWorkers() int {
	return wp.numWorkers
}
