package fetcher

import (
	"context"
	"io"

	"eodmsdds/pkg/dds"
)

// Client is the DDS API surface the fetcher depends on
type Client interface {
	GetItems(ctx context.Context, entries []dds.Entry, ratePerSecond float64, progress dds.ProgressFunc) ([]dds.ItemResult, *dds.Buckets, error)
	FetchArchive(ctx context.Context, url string) (io.ReadCloser, int64, error)
}
