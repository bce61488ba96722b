package core

import "errors"

// Client-correctable conditions. Handlers map these to 4xx responses;
// anything else is a generic internal failure.
var (
	// ErrNotProcessed means the video has no index yet.
	ErrNotProcessed = errors.New("video not processed yet")
	// ErrNotFound means the video or conversation id is unknown.
	ErrNotFound = errors.New("not found")
	// ErrInvalidURL means the video URL could not be parsed.
	ErrInvalidURL = errors.New("invalid YouTube URL")
	// ErrNoTranscript means the video has no usable captions.
	ErrNoTranscript = errors.New("no captions available for this video")
)
