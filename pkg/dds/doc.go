// Package dds implements the EODMS Data Delivery Service API client.
//
// A single Client handles token authentication against the AAA service,
// item metadata retrieval, and download URL resolution. Metadata fetches
// run serially in input order with a requests-per-second cap; transient
// failures (429, 5xx, network) are retried with exponential backoff, and
// a Retry-After header on a throttled response overrides the computed
// delay.
package dds
