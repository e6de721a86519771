package dds

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"time"

	errs "eodmsdds/pkg/errors"
)

// ExpectedSizeFromURL extracts the expected byte count from a download
// URL's size query parameter, or 0 when absent
func ExpectedSizeFromURL(rawURL string) int64 {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return 0
	}
	value := parsed.Query().Get("size")
	if value == "" {
		return 0
	}
	size, err := strconv.ParseInt(value, 10, 64)
	if err != nil || size < 0 {
		return 0
	}
	return size
}

// FilenameFromURL derives the local filename from a download URL path
func FilenameFromURL(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "download.bin"
	}
	name := path.Base(parsed.Path)
	if name == "" || name == "." || name == "/" {
		return "download.bin"
	}
	return name
}

// FetchArchive opens a streaming GET against a resolved download URL.
// Download URLs are presigned so no Authorization header is sent. The
// returned size is the expected byte count from the size query parameter,
// falling back to Content-Length, or 0 when neither is known.
func (c *Client) FetchArchive(ctx context.Context, rawURL string) (io.ReadCloser, int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, 0, &errs.Error{Type: errs.ErrorTypeUnknown, Message: fmt.Sprintf("failed to create download request: %v", err)}
	}

	start := time.Now()
	resp, err := c.streamClient.Do(req)
	if err != nil {
		return nil, 0, &errs.Error{Type: errs.ErrorTypeNetwork, Message: fmt.Sprintf("download request failed: %v", err)}
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, 0, errorFromResponse(resp, body)
	}

	expected := ExpectedSizeFromURL(rawURL)
	if expected == 0 && resp.ContentLength > 0 {
		expected = resp.ContentLength
	}

	c.logger.DebugWithFields("Archive stream opened", map[string]interface{}{
		"url":      rawURL,
		"expected": expected,
		"duration": time.Since(start),
	})

	return resp.Body, expected, nil
}
