package core

import (
	"fmt"
	"math"
)

// FormatTimestamp converts seconds to HH:MM:SS, or MM:SS for videos under
// an hour.
func FormatTimestamp(seconds float64) string {
	seconds = math.Max(seconds, 0)
	total := int(seconds)
	hours := total / 3600
	minutes := (total % 3600) / 60
	secs := total % 60

	if hours > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, secs)
	}
	return fmt.Sprintf("%02d:%02d", minutes, secs)
}
