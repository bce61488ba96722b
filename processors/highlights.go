package processors

import (
	"context"
	"fmt"
	"log"
	"strings"

	"golang.org/x/sync/errgroup"

	"videoAssistant/config"
	"videoAssistant/core"
)

// segmentTextLimit caps how much segment text is shown to the model per
// highlight.
const segmentTextLimit = 2000

// overallSummaryLimit caps how much transcript feeds the overall summary.
const overallSummaryLimit = 4000

const (
	fallbackMainPoint = "Key discussion point"
	fallbackSubPoint  = "Important topic covered in this section"
)

// Summarizer turns a timestamped transcript into an overall summary plus
// per-segment highlights.
type Summarizer struct {
	llm             TextGenerator
	intervalSeconds int
	maxSegments     int
	workers         int
}

func NewSummarizer(llm TextGenerator, cfg *config.Config) *Summarizer {
	workers := cfg.SummaryWorkers
	if workers < 1 {
		workers = 1
	}
	return &Summarizer{
		llm:             llm,
		intervalSeconds: cfg.SummaryIntervalSeconds,
		maxSegments:     cfg.MaxSummarySegments,
		workers:         workers,
	}
}

// Summarize produces the overall summary and highlights for a transcript.
// Segments beyond maxSegments are silently dropped; that is a scale limit,
// not an error.
func (s *Summarizer) Summarize(ctx context.Context, videoID string, snippets []core.TranscriptSnippet) (*core.SummaryResult, error) {
	texts := make([]string, 0, len(snippets))
	for _, snippet := range snippets {
		texts = append(texts, snippet.Text)
	}
	fullTranscript := strings.Join(texts, " ")

	overall, err := s.overallSummary(ctx, fullTranscript)
	if err != nil {
		return nil, fmt.Errorf("generate overall summary: %w", err)
	}

	segments := SegmentTranscript(snippets, s.intervalSeconds)
	if len(segments) > s.maxSegments {
		segments = segments[:s.maxSegments]
	}

	highlights, err := s.extractHighlights(ctx, segments)
	if err != nil {
		return nil, err
	}

	return &core.SummaryResult{
		VideoID:        videoID,
		OverallSummary: overall,
		Highlights:     highlights,
		Status:         "success",
	}, nil
}

func (s *Summarizer) overallSummary(ctx context.Context, transcript string) (string, error) {
	excerpt := transcript
	if len(excerpt) > overallSummaryLimit {
		excerpt = excerpt[:overallSummaryLimit]
	}

	prompt := fmt.Sprintf(`Analyze the following YouTube video transcript and provide a comprehensive 2-3 sentence summary that captures the main theme and key discussion points.

Transcript:
%s

Summary:`, excerpt)

	return s.llm.Generate(ctx, prompt, 0.3)
}

// extractHighlights fans segments out over a bounded worker group. Segments
// are independent, so calls may overlap; results are written by index to keep
// output ordered regardless of completion order.
func (s *Summarizer) extractHighlights(ctx context.Context, segments []core.Segment) ([]core.Highlight, error) {
	highlights := make([]core.Highlight, len(segments))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for i, segment := range segments {
		g.Go(func() error {
			h, err := s.extractHighlight(gctx, segment)
			if err != nil {
				return err
			}
			highlights[i] = h
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return highlights, nil
}

func (s *Summarizer) extractHighlight(ctx context.Context, segment core.Segment) (core.Highlight, error) {
	text := segment.Text
	if len(text) > segmentTextLimit {
		text = text[:segmentTextLimit]
	}

	prompt := fmt.Sprintf(`Analyze this video segment and extract:
1. A single main point or topic (one sentence, max 25 words)
2. 2-4 key supporting points or details (each as a separate bullet, max 20 words each)

Segment text:
%s

Format your response EXACTLY as:
MAIN: [main point here]
BULLET: [first supporting point]
BULLET: [second supporting point]
BULLET: [third supporting point]`, text)

	response, err := s.llm.Generate(ctx, prompt, 0.3)
	if err != nil {
		return core.Highlight{}, fmt.Errorf("highlight extraction at %s: %w", core.FormatTimestamp(segment.StartTime), err)
	}

	mainPoint, subPoints := ParseHighlightResponse(response)
	return core.Highlight{
		Timestamp: core.FormatTimestamp(segment.StartTime),
		MainPoint: mainPoint,
		SubPoints: subPoints,
	}, nil
}

// ParseHighlightResponse parses MAIN:/BULLET: formatted model output. The
// last MAIN line wins when the model emits several; bullets cap at 4. When no
// MAIN line is present the first non-empty line is treated as the main point
// and the next up-to-three lines as bullets, so non-compliant output degrades
// instead of failing the request.
func ParseHighlightResponse(response string) (string, []string) {
	response = strings.TrimSpace(response)

	var mainPoint string
	var subPoints []string

	for _, line := range strings.Split(response, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "MAIN:") {
			mainPoint = strings.TrimSpace(strings.TrimPrefix(line, "MAIN:"))
		} else if strings.HasPrefix(line, "BULLET:") {
			bullet := strings.TrimSpace(strings.TrimPrefix(line, "BULLET:"))
			if bullet != "" {
				subPoints = append(subPoints, bullet)
			}
		}
	}

	if mainPoint == "" {
		var lines []string
		for _, line := range strings.Split(response, "\n") {
			if trimmed := strings.TrimSpace(line); trimmed != "" {
				lines = append(lines, trimmed)
			}
		}
		if len(lines) == 0 {
			log.Printf("Warning: unparseable highlight output, using placeholder")
			return fallbackMainPoint, []string{fallbackSubPoint}
		}
		mainPoint = lines[0]
		if len(lines) > 1 {
			subPoints = lines[1:]
			if len(subPoints) > 3 {
				subPoints = subPoints[:3]
			}
		} else {
			subPoints = []string{fallbackSubPoint}
		}
	}

	if len(subPoints) > 4 {
		subPoints = subPoints[:4]
	}
	return mainPoint, subPoints
}
