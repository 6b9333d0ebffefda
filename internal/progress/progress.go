// Package progress renders a terminal progress line while large files
// are streamed through the verifier.
package progress

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/term"
)

// IsTerminalFunc is the function used to check if a file descriptor is a terminal.
// It can be overridden for testing.
var IsTerminalFunc = term.IsTerminal

// Reporter displays hashing progress for one verification attempt.
// It is fed from the verifier's per-chunk callback.
type Reporter struct {
	output    io.Writer
	startTime time.Time
	lastPrint time.Time
	mu        sync.Mutex
}

// NewReporter creates a progress reporter writing to output.
func NewReporter(output io.Writer) *Reporter {
	return &Reporter{
		output:    output,
		startTime: time.Now(),
	}
}

// Update renders the current position. label identifies the algorithm
// being computed; total may be negative when the file size is unknown.
func (r *Reporter) Update(label string, done, total int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Rate limit updates to avoid flickering (max 10 updates per second)
	now := time.Now()
	if now.Sub(r.lastPrint) < 100*time.Millisecond {
		return
	}
	r.lastPrint = now

	elapsed := now.Sub(r.startTime).Seconds()
	if elapsed < 0.1 {
		return
	}
	speed := float64(done) / elapsed

	var line string
	if total > 0 {
		percent := float64(done) / float64(total) * 100
		if percent > 100 {
			percent = 100
		}

		var etaStr string
		if speed > 0 {
			remaining := float64(total-done) / speed
			if remaining < 0 {
				remaining = 0
			}
			etaStr = formatDuration(remaining)
		} else {
			etaStr = "--:--"
		}

		barWidth := 30
		filled := int(percent / 100 * float64(barWidth))
		if filled > barWidth {
			filled = barWidth
		}
		bar := strings.Repeat("=", filled)
		if filled < barWidth {
			bar += ">"
			bar += strings.Repeat(" ", barWidth-filled-1)
		}

		line = fmt.Sprintf("\r   %s [%s] %3.0f%% (%s/%s) %s/s ETA: %s",
			label,
			bar,
			percent,
			formatBytes(done),
			formatBytes(total),
			formatBytes(int64(speed)),
			etaStr,
		)
	} else {
		line = fmt.Sprintf("\r   %s: hashed %s (%s/s)",
			label,
			formatBytes(done),
			formatBytes(int64(speed)),
		)
	}

	// Pad with spaces to clear any remaining characters from previous line
	if len(line) < 80 {
		line += strings.Repeat(" ", 80-len(line))
	}
	_, _ = fmt.Fprint(r.output, line)
}

// Finish clears the progress line.
func (r *Reporter) Finish() {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.output, "\r%s\r", strings.Repeat(" ", 80))
}

// formatBytes formats bytes into human-readable format
func formatBytes(b int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
	)

	switch {
	case b >= GB:
		return fmt.Sprintf("%.1fGB", float64(b)/GB)
	case b >= MB:
		return fmt.Sprintf("%.1fMB", float64(b)/MB)
	case b >= KB:
		return fmt.Sprintf("%.1fKB", float64(b)/KB)
	default:
		return fmt.Sprintf("%dB", b)
	}
}

// formatDuration formats seconds into MM:SS or HH:MM:SS format
func formatDuration(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	s := int(seconds)
	if s >= 3600 {
		return fmt.Sprintf("%d:%02d:%02d", s/3600, (s%3600)/60, s%60)
	}
	return fmt.Sprintf("%d:%02d", s/60, s%60)
}

// ShouldShowProgress returns true if progress should be displayed.
// Progress is shown when stdout is a terminal.
func ShouldShowProgress() bool {
	return IsTerminalFunc(int(os.Stdout.Fd()))
}
