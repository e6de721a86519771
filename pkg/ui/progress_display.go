package ui

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// ProgressDisplay provides a clean, minimal download progress display
type ProgressDisplay struct {
	mu              sync.Mutex
	catalog         string
	totalArchives   int
	downloadedCount int
	skippedCount    int
	currentArchive  string
	startTime       time.Time
	lastUpdate      time.Time
	bytesDownloaded int64
	errors          int
	isDebug         bool
}

// NewProgressDisplay creates a new progress display
func NewProgressDisplay(catalog string, totalArchives int, debug bool) *ProgressDisplay {
	return &ProgressDisplay{
		catalog:       catalog,
		totalArchives: totalArchives,
		startTime:     time.Now(),
		lastUpdate:    time.Now(),
		isDebug:       debug,
	}
}

// StartDownload marks the start of a new download
func (p *ProgressDisplay) StartDownload(archiveID string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.currentArchive = archiveID
	p.lastUpdate = time.Now()

	if !p.isDebug {
		p.printProgress()
	}
}

// CompleteDownload marks a download as complete
func (p *ProgressDisplay) CompleteDownload(archiveID string, size int64, skipped bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.downloadedCount++
	if skipped {
		p.skippedCount++
	} else {
		p.bytesDownloaded += size
	}
	p.lastUpdate = time.Now()

	if !p.isDebug {
		p.printProgress()
	} else {
		p.printDebugComplete(archiveID, size, skipped)
	}
}

// FailDownload marks a download as failed
func (p *ProgressDisplay) FailDownload(archiveID string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.errors++
	p.lastUpdate = time.Now()

	if !p.isDebug {
		p.printProgress()
	} else {
		fmt.Printf("\n%s Failed: %s - %v\n", Red("✗"), archiveID, err)
	}
}

// printProgress prints the minimal progress line
func (p *ProgressDisplay) printProgress() {
	elapsed := time.Since(p.startTime)
	rate := float64(p.downloadedCount) / elapsed.Minutes()
	eta := p.calculateETA()

	progress := float64(p.downloadedCount) / float64(p.totalArchives)
	barWidth := 20
	filled := int(progress * float64(barWidth))
	bar := strings.Repeat("━", filled) + strings.Repeat("─", barWidth-filled)

	line := fmt.Sprintf("\r%s [%s] %d/%d • %.1f/min • %s • %s",
		Cyan(p.catalog),
		bar,
		p.downloadedCount,
		p.totalArchives,
		rate,
		p.formatBytes(p.bytesDownloaded),
		eta,
	)

	if p.currentArchive != "" {
		line += fmt.Sprintf(" • %s", p.currentArchive)
	}

	if p.errors > 0 {
		line += fmt.Sprintf(" • %s", Red(fmt.Sprintf("%d errors", p.errors)))
	}

	fmt.Printf("\r%s\r%s", strings.Repeat(" ", 120), line)
}

// printDebugComplete prints detailed info in debug mode
func (p *ProgressDisplay) printDebugComplete(archiveID string, size int64, skipped bool) {
	if skipped {
		fmt.Printf("\n%s %s • %s\n",
			Green("✓"),
			archiveID,
			Dim("already complete"),
		)
		return
	}
	fmt.Printf("\n%s %s • %s\n",
		Green("✓"),
		archiveID,
		p.formatBytes(size),
	)
}

// Complete marks the entire operation as complete
func (p *ProgressDisplay) Complete() {
	p.mu.Lock()
	defer p.mu.Unlock()

	elapsed := time.Since(p.startTime)

	fmt.Printf("\n\n%s Downloaded %d archives from %s\n",
		Green("✓"),
		p.downloadedCount,
		p.catalog,
	)

	fmt.Printf("  %s %s in %s (%.1f archives/min)\n",
		Dim("•"),
		p.formatBytes(p.bytesDownloaded),
		p.formatDuration(elapsed),
		float64(p.downloadedCount)/elapsed.Minutes(),
	)

	if p.skippedCount > 0 {
		fmt.Printf("  %s %d already complete, skipped\n",
			Dim("•"),
			p.skippedCount,
		)
	}

	if p.errors > 0 {
		fmt.Printf("  %s %d downloads failed\n",
			Dim("•"),
			p.errors,
		)
	}
}

// calculateETA estimates time remaining
func (p *ProgressDisplay) calculateETA() string {
	if p.downloadedCount == 0 {
		return "calculating..."
	}

	remaining := p.totalArchives - p.downloadedCount
	elapsed := time.Since(p.startTime)
	rate := float64(p.downloadedCount) / elapsed.Seconds()

	if rate == 0 {
		return "calculating..."
	}

	etaSeconds := float64(remaining) / rate
	eta := time.Duration(etaSeconds) * time.Second

	return p.formatDuration(eta)
}

// formatDuration formats a duration in a human-readable way
func (p *ProgressDisplay) formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	} else if d < time.Hour {
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	} else {
		return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
	}
}

// formatBytes formats bytes in a human-readable way
func (p *ProgressDisplay) formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}

	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}

	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

// RateLimitWarning shows a throttling warning
func (p *ProgressDisplay) RateLimitWarning(waitTime time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	fmt.Printf("\n%s Rate limited by server. Waiting %s...\n",
		Yellow("⚠"),
		p.formatDuration(waitTime),
	)
}

// UpdateTotal updates the total archive count
func (p *ProgressDisplay) UpdateTotal(total int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.totalArchives = total
}
