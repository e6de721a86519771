package dds

import (
	"context"

	"eodmsdds/pkg/ratelimit"
)

// ProgressFunc is called after each item fetch with the running counts
type ProgressFunc func(fetched, total int, item *Item, err error)

// ItemResult pairs an entry with its fetch outcome, in input order
type ItemResult struct {
	Entry Entry
	Item  *Item
	Err   error
}

// GetItems fetches metadata for every entry serially, preserving the input
// order exactly. Entries are not deduplicated or filtered. Requests are
// spaced by the configured requests-per-second cap.
func (c *Client) GetItems(ctx context.Context, entries []Entry, ratePerSecond float64, progress ProgressFunc) ([]ItemResult, *Buckets, error) {
	limiter := ratelimit.NewInterval(ratePerSecond)

	results := make([]ItemResult, 0, len(entries))
	buckets := &Buckets{}

	for i, entry := range entries {
		if err := ctx.Err(); err != nil {
			return results, buckets, err
		}
		limiter.Wait()

		item, err := c.GetItem(ctx, entry.CollectionID, entry.ArchiveID)
		if item != nil {
			if item.ArchiveID == "" {
				item.ArchiveID = entry.ArchiveID
			}
			if item.CollectionID == "" {
				item.CollectionID = entry.CollectionID
			}
			buckets.add(item)
		} else {
			buckets.Unknown = append(buckets.Unknown, &Item{
				ArchiveID:    entry.ArchiveID,
				CollectionID: entry.CollectionID,
			})
		}

		results = append(results, ItemResult{Entry: entry, Item: item, Err: err})

		if err != nil {
			c.logger.ErrorWithFields("Item fetch failed", map[string]interface{}{
				"collection": entry.CollectionID,
				"archive_id": entry.ArchiveID,
				"error":      err.Error(),
			})
		}

		if progress != nil {
			progress(i+1, len(entries), item, err)
		}
	}

	return results, buckets, nil
}
