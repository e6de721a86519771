// Package fetcher orchestrates the end to end flow: item metadata fetch,
// parallel archive download, ledger bookkeeping, metadata sidecars, and
// progress reporting. The API client is taken through an interface so the
// sequence is testable without a live service.
package fetcher
