package processors

import "videoAssistant/core"

// SegmentTranscript partitions timestamped snippets into contiguous segments
// of roughly intervalSeconds of source time. Snippets must arrive ordered by
// start time. A segment closes when the next snippet starts at least
// intervalSeconds after the segment began; empty segments are never emitted.
func SegmentTranscript(snippets []core.TranscriptSnippet, intervalSeconds int) []core.Segment {
	if len(snippets) == 0 {
		return nil
	}

	var segments []core.Segment
	current := core.Segment{StartTime: 0, Text: ""}

	for _, snippet := range snippets {
		if snippet.Start-current.StartTime >= float64(intervalSeconds) {
			if current.Text != "" {
				segments = append(segments, current)
			}
			current = core.Segment{StartTime: snippet.Start, Text: snippet.Text}
		} else {
			if current.Text == "" {
				current.Text = snippet.Text
			} else {
				current.Text += " " + snippet.Text
			}
		}
	}

	if current.Text != "" {
		segments = append(segments, current)
	}

	return segments
}
