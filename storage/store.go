package storage

import (
	"context"
	"fmt"
	"math"
	"os"
	"regexp"
	"sort"
	"strings"
	"sync"

	"videoAssistant/config"
	"videoAssistant/core"
)

// VectorStore abstracts the per-video similarity index backend.
type VectorStore interface {
	Upsert(ctx context.Context, videoID string, chunks []core.Chunk) int
	Search(ctx context.Context, videoID, query string, k int) []core.Chunk
	Delete(ctx context.Context, videoID string) int
}

// NewVectorStore selects a backend from the STORE environment variable
// (memory, pgvector, milvus). Any backend init failure falls back to the
// in-memory store so the service still comes up.
func NewVectorStore(cfg *config.Config) VectorStore {
	storeKind := strings.ToLower(strings.TrimSpace(os.Getenv("STORE")))

	switch storeKind {
	case "pgvector":
		if !cfg.HasValidAPI() {
			config.PrintConfigInstructions()
			fmt.Println("Warning: API configuration required for PgVector store, falling back to memory store")
			return NewMemoryVectorStore()
		}
		s, err := newPgVectorStore(cfg)
		if err != nil {
			fmt.Printf("Warning: Failed to initialize PgVector store (%v), falling back to memory store\n", err)
			return NewMemoryVectorStore()
		}
		return s
	case "milvus":
		if !cfg.HasValidAPI() {
			config.PrintConfigInstructions()
			fmt.Println("Warning: API configuration required for Milvus store, falling back to memory store")
			return NewMemoryVectorStore()
		}
		s, err := newMilvusVectorStore(cfg)
		if err != nil {
			fmt.Printf("Warning: Failed to initialize Milvus store (%v), falling back to memory store\n", err)
			return NewMemoryVectorStore()
		}
		return s
	default:
		return NewMemoryVectorStore()
	}
}

// ---------------- Memory implementation (default and fallback) ----------------

type memoryDoc struct {
	chunk core.Chunk
	embed map[string]float64 // term -> weight
}

// MemoryVectorStore ranks chunks by cosine similarity over L2-normalized term
// frequencies. No external calls, so it doubles as the test backend.
type MemoryVectorStore struct {
	mu   sync.RWMutex
	docs map[string][]memoryDoc // videoID -> docs
}

func NewMemoryVectorStore() *MemoryVectorStore {
	return &MemoryVectorStore{docs: map[string][]memoryDoc{}}
}

func (s *MemoryVectorStore) Upsert(ctx context.Context, videoID string, chunks []core.Chunk) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	docs := make([]memoryDoc, 0, len(chunks))
	for _, chunk := range chunks {
		docs = append(docs, memoryDoc{chunk: chunk, embed: embedText(chunk.Text)})
	}
	s.docs[videoID] = docs
	return len(docs)
}

func (s *MemoryVectorStore) Search(ctx context.Context, videoID, query string, k int) []core.Chunk {
	s.mu.RLock()
	defer s.mu.RUnlock()
	docs := s.docs[videoID]
	qv := embedText(query)

	type scored struct {
		i     int
		score float64
	}
	scores := make([]scored, 0, len(docs))
	for i, d := range docs {
		scores = append(scores, scored{i, cosine(qv, d.embed)})
	}
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].score > scores[j].score })

	if k <= 0 || k > len(scores) {
		k = len(scores)
	}
	hits := make([]core.Chunk, 0, k)
	for _, sc := range scores[:k] {
		hits = append(hits, docs[sc.i].chunk)
	}
	return hits
}

func (s *MemoryVectorStore) Delete(ctx context.Context, videoID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.docs[videoID])
	delete(s.docs, videoID)
	return n
}

// ---------------- Term-frequency embedding helpers ----------------

var nonLetter = regexp.MustCompile(`[^a-zA-Z0-9\p{Han}]+`)

var stopwords = map[string]struct{}{
	"the": {}, "and": {}, "a": {}, "an": {}, "of": {}, "to": {}, "in": {},
	"is": {}, "are": {}, "for": {}, "on": {}, "with": {}, "that": {},
	"this": {}, "it": {}, "as": {}, "at": {}, "be": {}, "by": {}, "from": {},
}

func tokenize(s string) []string {
	s = strings.ToLower(s)
	s = nonLetter.ReplaceAllString(s, " ")
	parts := strings.Fields(s)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if _, ok := stopwords[p]; ok {
			continue
		}
		out = append(out, p)
	}
	return out
}

func embedText(text string) map[string]float64 {
	toks := tokenize(text)
	m := map[string]float64{}
	for _, t := range toks {
		m[t] += 1
	}
	// L2 normalize
	var sum float64
	for _, v := range m {
		sum += v * v
	}
	if sum == 0 {
		return m
	}
	norm := math.Sqrt(sum)
	for k, v := range m {
		m[k] = v / norm
	}
	return m
}

func cosine(a, b map[string]float64) float64 {
	var dot float64
	for k, va := range a {
		if vb, ok := b[k]; ok {
			dot += va * vb
		}
	}
	return dot
}
