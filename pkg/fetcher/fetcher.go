package fetcher

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"eodmsdds/internal/downloader"
	"eodmsdds/pkg/auth"
	"eodmsdds/pkg/config"
	"eodmsdds/pkg/dds"
	"eodmsdds/pkg/ledger"
	"eodmsdds/pkg/logger"
	"eodmsdds/pkg/metadata"
	"eodmsdds/pkg/retry"
	"eodmsdds/pkg/storage"
	"eodmsdds/pkg/ui"
)

// Summary aggregates the outcome of a fetch run
type Summary struct {
	Total      int
	Ready      int
	Queued     int
	Unknown    int
	Downloaded int
	Skipped    int
	Failed     int
	Results    []downloader.DownloadResult
}

// Fetcher orchestrates the item metadata fetch and archive download flow
type Fetcher struct {
	client   Client
	catalog  string
	config   *config.Config
	ledger   *ledger.Ledger
	notifier *ui.Notifier
	logger   logger.Logger
	tui      ui.TUI
}

// New creates a Fetcher, resolving credentials from config or the stored
// account chain
func New(cfg *config.Config) (*Fetcher, error) {
	log := logger.GetLogger()

	account := &auth.Account{
		Username: cfg.EODMS.Username,
		Password: cfg.EODMS.Password,
	}
	if account.Username == "" || account.Password == "" {
		manager, err := auth.NewManager()
		if err != nil {
			return nil, fmt.Errorf("failed to initialize credential manager: %w", err)
		}
		account, err = manager.RetrieveDefault()
		if err != nil {
			return nil, fmt.Errorf("no credentials available: %w", err)
		}
	}

	client := dds.NewClient(account, cfg, log)

	return &Fetcher{
		client:   client,
		catalog:  cfg.EODMS.Catalog,
		config:   cfg,
		ledger:   ledger.Open(cfg.Ledger.Path, log),
		notifier: ui.NewNotifier(),
		logger:   log,
	}, nil
}

// NewWithClient creates a Fetcher around an existing client. Used by tests
// to substitute the API client.
func NewWithClient(client Client, cfg *config.Config, log logger.Logger) *Fetcher {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Fetcher{
		client:   client,
		catalog:  cfg.EODMS.Catalog,
		config:   cfg,
		ledger:   ledger.Open(cfg.Ledger.Path, log),
		notifier: ui.NewNotifier(),
		logger:   log,
	}
}

// SetTUI sets the terminal UI for the fetcher
func (f *Fetcher) SetTUI(tui ui.TUI) {
	f.tui = tui
}

// Close releases the ledger handle
func (f *Fetcher) Close() error {
	return f.ledger.Close()
}

// FetchItems retrieves metadata for all entries in order and returns the
// per-entry results plus the status buckets
func (f *Fetcher) FetchItems(ctx context.Context, entries []dds.Entry) ([]dds.ItemResult, *dds.Buckets, int64, error) {
	f.logger.InfoWithFields("Fetching item metadata", map[string]interface{}{
		"entries": len(entries),
		"catalog": f.catalog,
	})

	queryID := f.ledger.RecordQuery(f.catalog, f.config.EODMS.Environment, map[string]interface{}{
		"entries": len(entries),
	})

	tracker := ui.NewStatusTracker(len(entries))
	showProgress := f.tui == nil && !f.isDebug()

	results, buckets, err := f.client.GetItems(ctx, entries, f.config.Items.RatePerSecond, func(fetched, total int, item *dds.Item, fetchErr error) {
		status := ""
		if item != nil {
			status = item.Status
		}
		tracker.RecordFetch(status)
		if showProgress {
			tracker.PrintProgress()
		}
	})
	if err != nil {
		return results, buckets, queryID, err
	}

	if showProgress {
		tracker.PrintSummary()
	}
	if f.tui != nil {
		f.tui.UpdateItemStatus(len(buckets.Ready), len(buckets.Queued), len(buckets.Unknown))
	}

	f.logger.InfoWithFields("Item metadata fetched", map[string]interface{}{
		"ready":   len(buckets.Ready),
		"queued":  len(buckets.Queued),
		"unknown": len(buckets.Unknown),
	})

	return results, buckets, queryID, nil
}

// DownloadReady downloads every ready item through the worker pool,
// recording ledger state and writing metadata sidecars
func (f *Fetcher) DownloadReady(ctx context.Context, buckets *dds.Buckets, queryID int64) (*Summary, error) {
	summary := &Summary{
		Total:   buckets.Total(),
		Ready:   len(buckets.Ready),
		Queued:  len(buckets.Queued),
		Unknown: len(buckets.Unknown),
	}

	if len(buckets.Ready) == 0 {
		f.logger.Info("No downloadable items")
		return summary, nil
	}

	storageManager, err := storage.NewManager(f.config.Download.OutputDirectory)
	if err != nil {
		return summary, fmt.Errorf("failed to create storage manager: %w", err)
	}

	retryCfg := &retry.Config{
		MaxAttempts: f.config.Retry.MaxAttempts,
		Backoff: &retry.ExponentialBackoff{
			BaseDelay:    f.config.Retry.BaseDelay,
			MaxDelay:     f.config.Retry.MaxDelay,
			Multiplier:   f.config.Retry.BackoffMultiplier,
			JitterFactor: 0.1,
		},
		RetryIf: retry.DefaultRetryIf,
		Context: ctx,
		Logger:  f.logger,
	}

	pool := downloader.NewWorkerPool(
		f.config.Download.Workers,
		f.client,
		storageManager,
		retryCfg,
		downloader.Options{
			Unzip:   f.config.Download.Unzip,
			KeepZip: f.config.Download.KeepZip,
		},
		f.logger,
	)
	pool.Start()

	var progress *ui.ProgressDisplay
	if f.tui == nil {
		progress = ui.NewProgressDisplay(f.catalog, len(buckets.Ready), f.isDebug())
	}

	itemsByID := make(map[string]*dds.Item, len(buckets.Ready))
	for _, item := range buckets.Ready {
		itemsByID[item.ID()] = item
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for result := range pool.Results() {
			f.handleResult(result, itemsByID[result.ArchiveID], queryID, progress, summary)
		}
	}()

	for i, item := range buckets.Ready {
		f.ledger.MarkInProgress(item.ID(), item.CollectionID, queryID, storageManager.CompletedPath(dds.FilenameFromURL(item.DownloadURL)))

		if f.tui != nil {
			f.tui.StartDownload(item.ID(), item.CollectionID, dds.FilenameFromURL(item.DownloadURL), dds.ExpectedSizeFromURL(item.DownloadURL))
		} else if progress != nil {
			progress.StartDownload(item.ID())
		}

		if err := pool.Submit(downloader.DownloadJob{Item: item, Index: i, Total: len(buckets.Ready)}); err != nil {
			f.logger.WithError(err).Error("Failed to submit download job")
		}
	}

	pool.Stop()
	wg.Wait()

	if progress != nil {
		progress.Complete()
	}

	f.notifyCompletion(summary)

	return summary, nil
}

// handleResult applies a single download outcome to the ledger, sidecars,
// and the progress surfaces
func (f *Fetcher) handleResult(result downloader.DownloadResult, item *dds.Item, queryID int64, progress *ui.ProgressDisplay, summary *Summary) {
	summary.Results = append(summary.Results, result)
	logger.LogDownload(result.ArchiveID, result.Dest, result.Success(), result.Err)

	collection := ""
	if item != nil {
		collection = item.CollectionID
	}

	if result.Err != nil {
		summary.Failed++
		f.ledger.MarkFailed(result.ArchiveID, collection, queryID, result.Dest, result.Err)

		if f.tui != nil {
			f.tui.FailDownload(result.ArchiveID, result.Err)
		} else if progress != nil {
			progress.FailDownload(result.ArchiveID, result.Err)
		}
		return
	}

	summary.Downloaded++
	if result.Skipped {
		summary.Skipped++
	}
	f.ledger.MarkCompleted(result.ArchiveID, collection, queryID, result.Dest)

	if item != nil && result.Dest != "" {
		sidecar := metadata.FromItem(item, f.catalog, result.Dest, result.ExtractedDir, result.Size)
		if err := sidecar.Save(result.Dest); err != nil {
			f.logger.WithError(err).Debug("Failed to write metadata sidecar")
		}
	}

	if f.tui != nil {
		f.tui.CompleteDownload(result.ArchiveID)
	} else if progress != nil {
		progress.CompleteDownload(result.ArchiveID, result.Size, result.Skipped)
	}
}

// Run fetches metadata for the entries and downloads everything ready
func (f *Fetcher) Run(ctx context.Context, entries []dds.Entry) (*Summary, error) {
	_, buckets, queryID, err := f.FetchItems(ctx, entries)
	if err != nil {
		return nil, err
	}
	return f.DownloadReady(ctx, buckets, queryID)
}

// notifyCompletion sends a desktop notification summarizing the run
func (f *Fetcher) notifyCompletion(summary *Summary) {
	if summary.Failed > 0 {
		f.notifier.SendError("Download finished with errors",
			fmt.Sprintf("%d downloaded, %d failed", summary.Downloaded, summary.Failed))
		return
	}
	f.notifier.SendSuccess("Download complete",
		fmt.Sprintf("%d archives downloaded from %s", summary.Downloaded, f.catalog))
}

func (f *Fetcher) isDebug() bool {
	return strings.ToLower(f.config.Logging.Level) == "debug"
}
