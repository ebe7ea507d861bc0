package ui

import (
	"fmt"
	"strings"
	"time"
)

// FormatDuration formats a duration as m:ss.
func FormatDuration(d time.Duration) string {
	total := int(max(d, 0).Seconds())
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

func renderProgressBar(elapsed, total time.Duration, width int) string {
	width = max(width, 10)
	var ratio float64
	if total > 0 {
		ratio = min(max(elapsed.Seconds()/total.Seconds(), 0), 1)
	}
	filled := int(ratio * float64(width))
	return strings.Repeat("━", filled) + strings.Repeat("─", width-filled)
}

func renderVolumePercent(vol float64) string {
	return fmt.Sprintf("vol %d%%", int(vol*100+0.5))
}

func repeatLabel(on bool) string {
	if on {
		return "[repeat]"
	}
	return ""
}
