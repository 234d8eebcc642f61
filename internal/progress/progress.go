package progress

import (
	"fmt"
	"strings"
)

const unitBase = 1024

var sizeUnits = []string{"B", "KiB", "MiB", "GiB", "TiB"}

// Snapshot holds the counters reported by the daemon for one poll tick.
type Snapshot struct {
	Completed   int64
	Total       int64
	Rate        int64 // bytes per second
	Connections int
}

// Percent is completed/total scaled to [0, 100]. An unknown total reports 0.
func (s Snapshot) Percent() float64 {
	if s.Total <= 0 || s.Completed <= 0 {
		return 0
	}
	if s.Completed >= s.Total {
		return 100
	}
	return float64(s.Completed) / float64(s.Total) * 100
}

// Remaining returns the estimated seconds left, or 0 when it cannot be estimated.
func (s Snapshot) Remaining() int64 {
	if s.Rate <= 0 || s.Total <= s.Completed {
		return 0
	}
	return (s.Total - s.Completed) / s.Rate
}

// ETA is the formatted Remaining value; empty when nothing is left or the rate is zero.
func (s Snapshot) ETA() string {
	return FormatETA(s.Remaining())
}

// Line renders the snapshot as a single display line.
func (s Snapshot) Line() string {
	line := fmt.Sprintf("%s/s %s/%s %.1f%% CN:%d",
		FormatSize(s.Rate),
		FormatSize(s.Completed),
		FormatSize(s.Total),
		s.Percent(),
		s.Connections,
	)
	if eta := s.ETA(); eta != "" {
		line += " ETA:" + eta
	}
	return line
}

// Render builds the display line for raw counters. It has no side effects, so
// callers without a terminal can discard the result.
func Render(completed, total, rate int64, connections int) string {
	return Snapshot{Completed: completed, Total: total, Rate: rate, Connections: connections}.Line()
}

// FormatSize formats a byte count with a 1024 base, e.g. 1048576 -> "1.00MiB".
func FormatSize(n int64) string {
	if n < 0 {
		n = 0
	}
	size := float64(n)
	idx := 0
	for size >= unitBase && idx < len(sizeUnits)-1 {
		size /= unitBase
		idx++
	}
	return fmt.Sprintf("%.2f%s", size, sizeUnits[idx])
}

// FormatETA formats seconds as "1h 2m 3s", dropping zero leading units.
func FormatETA(seconds int64) string {
	if seconds <= 0 {
		return ""
	}
	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	secs := seconds % 60
	var parts []string
	switch {
	case hours > 0:
		parts = append(parts, fmt.Sprintf("%dh", hours), fmt.Sprintf("%dm", minutes), fmt.Sprintf("%ds", secs))
	case minutes > 0:
		parts = append(parts, fmt.Sprintf("%dm", minutes), fmt.Sprintf("%ds", secs))
	default:
		parts = append(parts, fmt.Sprintf("%ds", secs))
	}
	return strings.Join(parts, " ")
}
