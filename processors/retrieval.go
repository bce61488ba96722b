package processors

import (
	"strings"

	"videoAssistant/config"
	"videoAssistant/core"
)

// RetrievalSizer picks how many chunks to retrieve for a question.
type RetrievalSizer struct {
	defaultK int
	minK     int
	maxK     int
}

func NewRetrievalSizer(cfg *config.Config) *RetrievalSizer {
	return &RetrievalSizer{defaultK: cfg.DefaultK, minK: cfg.MinK, maxK: cfg.MaxK}
}

// OptimalK sizes the retrieval request from transcript length and question
// complexity. Longer transcripts spread relevant evidence across more chunks,
// so the base k grows in tiers; the question word count then nudges k by one
// in either direction. The result is always within [minK, maxK].
func (s *RetrievalSizer) OptimalK(videoLength int, question string) int {
	k := s.defaultK

	switch {
	case videoLength > 50000:
		k = 5
	case videoLength > 20000:
		k = 4
	case videoLength < 5000:
		k = 2
	}

	words := len(strings.Fields(question))
	if words > 20 {
		k++
	} else if words < 5 {
		k--
	}

	if k > s.maxK {
		k = s.maxK
	}
	if k < s.minK {
		k = s.minK
	}
	return k
}

// ExpandWindow widens retrieved chunks with their transcript neighbors so the
// reader gets continuous context instead of isolated fragments.
//
// The window index set is computed but the retrieved set is currently returned
// unchanged, matching observed production behavior. Whether to enable true
// expansion is still undecided; see DESIGN.md and the pending test in
// retrieval_test.go before changing this.
func ExpandWindow(retrieved []core.Chunk, windowSize int) []core.Chunk {
	seen := map[int]struct{}{}

	for _, chunk := range retrieved {
		if chunk.ChunkIndex < 0 {
			// Metadata chunks have no transcript position; pass through.
			continue
		}

		start := chunk.ChunkIndex - windowSize
		if start < 0 {
			start = 0
		}
		end := chunk.ChunkIndex + windowSize
		if end > chunk.TotalChunks-1 {
			end = chunk.TotalChunks - 1
		}
		for idx := start; idx <= end; idx++ {
			seen[idx] = struct{}{}
		}
	}

	return retrieved
}
