package ui

import (
	"fmt"
	"strings"
	"time"
)

const (
	ProgressBar   = "█"
	ProgressEmpty = "░"
)

// StatusTracker keeps track of item metadata fetch progress
type StatusTracker struct {
	Total     int
	Fetched   int
	Ready     int
	Queued    int
	Unknown   int
	StartTime time.Time
}

// NewStatusTracker creates a new status tracker for a batch of entries
func NewStatusTracker(total int) *StatusTracker {
	return &StatusTracker{
		Total:     total,
		StartTime: time.Now(),
	}
}

// RecordFetch records a fetched item by availability status
func (st *StatusTracker) RecordFetch(status string) {
	st.Fetched++
	switch status {
	case "Available":
		st.Ready++
	case "Queued":
		st.Queued++
	default:
		st.Unknown++
	}
}

// GetProgress returns a formatted progress bar for the fetch batch
func (st *StatusTracker) GetProgress() string {
	const width = 20
	progress := 0.0
	if st.Total > 0 {
		progress = float64(st.Fetched) / float64(st.Total)
	}
	filled := int(progress * float64(width))

	bar := strings.Repeat(ProgressBar, filled) +
		strings.Repeat(ProgressEmpty, width-filled)

	return fmt.Sprintf("[%s] %d/%d", bar, st.Fetched, st.Total)
}

// GetElapsedTime returns the elapsed time since tracking started
func (st *StatusTracker) GetElapsedTime() time.Duration {
	return time.Since(st.StartTime)
}

// GetFetchRate returns the average fetch rate (items per minute)
func (st *StatusTracker) GetFetchRate() float64 {
	elapsed := st.GetElapsedTime().Minutes()
	if elapsed == 0 {
		return 0
	}
	return float64(st.Fetched) / elapsed
}

// PrintProgress prints the current fetch status line
func (st *StatusTracker) PrintProgress() {
	fmt.Printf("\r%s %s | ready: %d queued: %d unknown: %d",
		Green("[ITEMS]"),
		st.GetProgress(),
		st.Ready,
		st.Queued,
		st.Unknown)
}

// PrintSummary prints the bucket totals after the batch completes
func (st *StatusTracker) PrintSummary() {
	fmt.Printf("\n%s %d ready, %d queued, %d unknown (%d total)\n",
		Magenta("[STATUS]"),
		st.Ready,
		st.Queued,
		st.Unknown,
		st.Fetched)
}
