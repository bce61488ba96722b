package processors

import (
	"context"
	"fmt"
	"log"
	"strings"
)

// compressionInputLimit caps how much of the joined context is shown to the
// model when summarizing.
const compressionInputLimit = 3000

// ContextCompressor reduces oversized concatenated context to a bounded
// summary. Compression is best-effort: any model failure degrades to plain
// truncation.
type ContextCompressor struct {
	llm TextGenerator
}

func NewContextCompressor(llm TextGenerator) *ContextCompressor {
	return &ContextCompressor{llm: llm}
}

// Compress joins the chunks and, when the result exceeds maxLength, asks the
// model for a question-focused summary. The returned string never exceeds
// maxLength plus the ellipsis marker.
func (c *ContextCompressor) Compress(ctx context.Context, chunks []string, question string, maxLength int) string {
	if len(chunks) == 0 {
		return ""
	}

	combined := strings.Join(chunks, "\n\n")
	if len(combined) <= maxLength {
		return combined
	}

	excerpt := combined
	if len(excerpt) > compressionInputLimit {
		excerpt = excerpt[:compressionInputLimit]
	}

	prompt := fmt.Sprintf(`You are a context compression assistant. Your job is to summarize and condense the following context chunks while preserving all key information relevant to the question.

Question: %s

Context chunks to compress:
%s

Provide a concise but complete summary that includes:
1. All facts and details relevant to the question
2. Key points and arguments
3. Important examples or evidence
4. Maintain chronological order if applicable

Compressed context (max 400 words):`, question, excerpt)

	compressed, err := c.llm.Generate(ctx, prompt, 0.1)
	if err != nil {
		log.Printf("Warning: context compression failed (%v), falling back to truncation", err)
		return combined[:maxLength] + "..."
	}

	compressed = strings.TrimSpace(compressed)
	if compressed == "" {
		return combined[:maxLength] + "..."
	}
	if len(compressed) > maxLength {
		compressed = compressed[:maxLength] + "..."
	}
	return compressed
}
