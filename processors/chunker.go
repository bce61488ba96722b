package processors

import (
	"fmt"
	"strings"

	"videoAssistant/core"
)

// splitSeparators are tried in order when looking for a chunk boundary, from
// paragraph breaks down to word breaks.
var splitSeparators = []string{"\n\n", "\n", ". ", " "}

// SplitText splits text into chunks of at most chunkSize characters,
// preferring to cut at paragraph, sentence, then word boundaries. Consecutive
// chunks overlap by roughly overlap characters to preserve context across the
// cut.
func SplitText(text string, chunkSize, overlap int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if chunkSize <= 0 || len(text) <= chunkSize {
		return []string{text}
	}

	var chunks []string
	start := 0
	for start < len(text) {
		end := start + chunkSize
		if end >= len(text) {
			if tail := strings.TrimSpace(text[start:]); tail != "" {
				chunks = append(chunks, tail)
			}
			break
		}

		cut := end
		window := text[start:end]
		for _, sep := range splitSeparators {
			if idx := strings.LastIndex(window, sep); idx > 0 {
				cut = start + idx + len(sep)
				break
			}
		}

		if chunk := strings.TrimSpace(text[start:cut]); chunk != "" {
			chunks = append(chunks, chunk)
		}

		next := cut - overlap
		if next <= start {
			next = cut
		}
		start = next
	}

	return chunks
}

// BuildTranscriptChunks splits a full transcript and tags each piece with its
// position so retrieval can reason about neighbors.
func BuildTranscriptChunks(transcript string, chunkSize, overlap int) []core.Chunk {
	pieces := SplitText(transcript, chunkSize, overlap)

	chunks := make([]core.Chunk, 0, len(pieces))
	for i, piece := range pieces {
		chunks = append(chunks, core.Chunk{
			Text:        piece,
			ChunkIndex:  i,
			TotalChunks: len(pieces),
			Kind:        core.ChunkTranscript,
			Source:      "youtube_transcript",
		})
	}
	return chunks
}

// BuildMetadataChunks turns video metadata into standalone searchable chunks.
// Metadata chunks carry no transcript position (ChunkIndex -1).
func BuildMetadataChunks(metadata core.VideoMetadata) []core.Chunk {
	var chunks []core.Chunk

	add := func(source, text string) {
		chunks = append(chunks, core.Chunk{
			Text:        text,
			ChunkIndex:  -1,
			TotalChunks: 0,
			Kind:        core.ChunkMetadata,
			Source:      source,
		})
	}

	if metadata.Title != "" {
		add("title", "Video Title: "+metadata.Title)
	}
	if metadata.Description != "" {
		add("description", "Video Description: "+metadata.Description)
	}
	if metadata.ChannelName != "" {
		add("channel", fmt.Sprintf("Channel Name: %s. This video is published by %s.", metadata.ChannelName, metadata.ChannelName))
	}
	if len(metadata.Tags) > 0 {
		tags := metadata.Tags
		if len(tags) > 10 {
			tags = tags[:10]
		}
		add("tags", "Video Tags/Topics: "+strings.Join(tags, ", "))
	}
	if metadata.ViewCount > 0 {
		stats := fmt.Sprintf("Video Statistics: %d views", metadata.ViewCount)
		if metadata.LikeCount > 0 {
			stats += fmt.Sprintf(", %d likes", metadata.LikeCount)
		}
		add("statistics", stats)
	}

	return chunks
}
