package processors

import (
	"context"
	"errors"
	"strings"
	"testing"

	"videoAssistant/config"
	"videoAssistant/core"
)

type fakeSearcher struct {
	chunks    []core.Chunk
	lastQuery string
	lastK     int
}

func (f *fakeSearcher) Search(ctx context.Context, videoID, query string, k int) []core.Chunk {
	f.lastQuery = query
	f.lastK = k
	return f.chunks
}

type fakeRegistry struct {
	processed map[string]bool
	latest    string
	info      map[string]core.VideoInfo
	metadata  map[string]core.VideoMetadata
}

func (f *fakeRegistry) IsProcessed(videoID string) bool { return f.processed[videoID] }

func (f *fakeRegistry) LatestVideoID() (string, bool) {
	if f.latest == "" {
		return "", false
	}
	return f.latest, true
}

func (f *fakeRegistry) Info(videoID string) (core.VideoInfo, bool) {
	info, ok := f.info[videoID]
	return info, ok
}

func (f *fakeRegistry) Metadata(videoID string) (core.VideoMetadata, bool) {
	meta, ok := f.metadata[videoID]
	return meta, ok
}

type fakeWeb struct {
	docs        []core.WebDocument
	calls       int
	lastQuery   string
	lastContext string
}

func (f *fakeWeb) CollectDocuments(ctx context.Context, question, videoContext string) []core.WebDocument {
	f.calls++
	f.lastQuery = question
	f.lastContext = videoContext
	return f.docs
}

func orchestratorConfig() *config.Config {
	return &config.Config{
		DefaultK:                3,
		MinK:                    2,
		MaxK:                    6,
		MaxContextLength:        1500,
		CompressionEnabled:      true,
		MaxConversationMessages: 5,
	}
}

func processedRegistry(videoID string) *fakeRegistry {
	return &fakeRegistry{
		processed: map[string]bool{videoID: true},
		latest:    videoID,
		info:      map[string]core.VideoInfo{videoID: {TranscriptLength: 10000}},
		metadata:  map[string]core.VideoMetadata{videoID: {Title: "Gravity Explained", Description: "A physics talk"}},
	}
}

func transcriptChunks() []core.Chunk {
	start := 42.0
	return []core.Chunk{
		{Text: "gravity bends spacetime", ChunkIndex: 0, TotalChunks: 3, Kind: core.ChunkTranscript, Source: "youtube_transcript", StartTime: &start},
		{Text: "mass attracts mass", ChunkIndex: 1, TotalChunks: 3, Kind: core.ChunkTranscript, Source: "youtube_transcript"},
	}
}

func TestAnswerVideoNotProcessed(t *testing.T) {
	registry := &fakeRegistry{processed: map[string]bool{}, latest: "known"}
	orchestrator := NewOrchestrator(orchestratorConfig(), &fakeGenerator{}, NewPhraseClassifier(), &fakeSearcher{}, registry, &fakeWeb{})

	_, err := orchestrator.Answer(context.Background(), "what is said?", "unknown", nil)
	if !errors.Is(err, core.ErrNotProcessed) {
		t.Errorf("Answer for unprocessed video = %v, want ErrNotProcessed", err)
	}
}

func TestAnswerNoVideosAtAll(t *testing.T) {
	registry := &fakeRegistry{processed: map[string]bool{}}
	orchestrator := NewOrchestrator(orchestratorConfig(), &fakeGenerator{}, NewPhraseClassifier(), &fakeSearcher{}, registry, &fakeWeb{})

	_, err := orchestrator.Answer(context.Background(), "anything?", "", nil)
	if !errors.Is(err, core.ErrNotProcessed) {
		t.Errorf("Answer with empty registry = %v, want ErrNotProcessed", err)
	}
}

func TestAnswerDefaultsToLatestVideo(t *testing.T) {
	registry := processedRegistry("vid123")
	searcher := &fakeSearcher{chunks: transcriptChunks()}
	llm := &fakeGenerator{response: "the answer"}
	orchestrator := NewOrchestrator(orchestratorConfig(), llm, NewPhraseClassifier(), searcher, registry, &fakeWeb{})

	result, err := orchestrator.Answer(context.Background(), "what does the speaker say about gravity?", "", nil)
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if result.VideoID != "vid123" {
		t.Errorf("result video id = %q, want latest video", result.VideoID)
	}
}

func TestAnswerVideoContentPath(t *testing.T) {
	registry := processedRegistry("vid123")
	searcher := &fakeSearcher{chunks: transcriptChunks()}
	llm := &fakeGenerator{response: "spacetime curves around mass"}
	orchestrator := NewOrchestrator(orchestratorConfig(), llm, NewPhraseClassifier(), searcher, registry, &fakeWeb{})

	result, err := orchestrator.Answer(context.Background(), "what does the speaker say about gravity?", "vid123", nil)
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}

	if result.AnswerType != "video_content" {
		t.Errorf("answer type = %q, want video_content", result.AnswerType)
	}
	if result.Answer != "spacetime curves around mass" {
		t.Errorf("answer = %q", result.Answer)
	}
	if llm.calls != 1 {
		t.Errorf("model called %d times, want 1", llm.calls)
	}
	if !strings.Contains(llm.prompts[0], "gravity bends spacetime") {
		t.Error("prompt missing retrieved context")
	}
	if len(result.Sources) != 2 {
		t.Fatalf("got %d sources, want 2", len(result.Sources))
	}
	if result.Sources[0].Timestamp != "00:42" {
		t.Errorf("source timestamp = %q, want formatted start time", result.Sources[0].Timestamp)
	}
	if result.Sources[1].Timestamp != "" {
		t.Errorf("source without start time got timestamp %q", result.Sources[1].Timestamp)
	}
}

func TestAnswerRetrievalSizing(t *testing.T) {
	registry := processedRegistry("vid123")
	registry.info["vid123"] = core.VideoInfo{TranscriptLength: 80000}
	searcher := &fakeSearcher{chunks: transcriptChunks()}
	orchestrator := NewOrchestrator(orchestratorConfig(), &fakeGenerator{response: "ok"}, NewPhraseClassifier(), searcher, registry, &fakeWeb{})

	question := "what does the speaker say about the main argument here"
	if _, err := orchestrator.Answer(context.Background(), question, "vid123", nil); err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if searcher.lastK != 5 {
		t.Errorf("retrieval k = %d, want 5 for an 80k transcript", searcher.lastK)
	}
	if searcher.lastQuery != question {
		t.Errorf("search query = %q, want the question verbatim", searcher.lastQuery)
	}
}

// More than three retrieved chunks on the video path collapse into one
// compressed context entry.
func TestAnswerCompressesLargeContext(t *testing.T) {
	registry := processedRegistry("vid123")
	chunks := []core.Chunk{
		{Text: strings.Repeat("a", 600), Kind: core.ChunkTranscript},
		{Text: strings.Repeat("b", 600), Kind: core.ChunkTranscript},
		{Text: strings.Repeat("c", 600), Kind: core.ChunkTranscript},
		{Text: strings.Repeat("d", 600), Kind: core.ChunkTranscript},
	}
	searcher := &fakeSearcher{chunks: chunks}

	llm := &funcGenerator{fn: func(prompt string) (string, error) {
		if strings.Contains(prompt, "context compression assistant") {
			return "condensed context", nil
		}
		return "final answer", nil
	}}

	orchestrator := NewOrchestrator(orchestratorConfig(), llm, NewPhraseClassifier(), searcher, registry, &fakeWeb{})
	result, err := orchestrator.Answer(context.Background(), "what does the speaker say?", "vid123", nil)
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}

	if len(result.Context) != 1 || result.Context[0] != "condensed context" {
		t.Errorf("context = %v, want single compressed entry", result.Context)
	}
	if llm.calls != 2 {
		t.Errorf("model called %d times, want 2 (compression + answer)", llm.calls)
	}
}

func TestAnswerCompressionDisabled(t *testing.T) {
	registry := processedRegistry("vid123")
	chunks := []core.Chunk{
		{Text: "one", Kind: core.ChunkTranscript},
		{Text: "two", Kind: core.ChunkTranscript},
		{Text: "three", Kind: core.ChunkTranscript},
		{Text: "four", Kind: core.ChunkTranscript},
	}
	cfg := orchestratorConfig()
	cfg.CompressionEnabled = false

	orchestrator := NewOrchestrator(cfg, &fakeGenerator{response: "ok"}, NewPhraseClassifier(), &fakeSearcher{chunks: chunks}, registry, &fakeWeb{})
	result, err := orchestrator.Answer(context.Background(), "what does the speaker say?", "vid123", nil)
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if len(result.Context) != 4 {
		t.Errorf("context has %d entries, want 4 raw chunks when compression is off", len(result.Context))
	}
}

func TestAnswerHybridPath(t *testing.T) {
	registry := processedRegistry("vid123")
	searcher := &fakeSearcher{chunks: transcriptChunks()}
	web := &fakeWeb{docs: []core.WebDocument{
		{Text: "web evidence one", URL: "https://example.com/a", Source: "example.com"},
		{Text: "snippet without a page", URL: "", Source: "duckduckgo"},
		{Text: "web evidence two", URL: "https://example.com/b", Source: "example.com"},
	}}
	llm := &fakeGenerator{response: "blended answer"}

	orchestrator := NewOrchestrator(orchestratorConfig(), llm, NewPhraseClassifier(), searcher, registry, web)
	result, err := orchestrator.Answer(context.Background(), "is this true according to research?", "vid123", nil)
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}

	if result.AnswerType != "hybrid" {
		t.Errorf("answer type = %q, want hybrid", result.AnswerType)
	}
	if web.calls != 1 {
		t.Errorf("web source consulted %d times, want 1", web.calls)
	}
	if !strings.Contains(web.lastContext, "Gravity Explained") {
		t.Error("web query context missing video title")
	}

	var webSources []core.SourceRecord
	for _, source := range result.Sources {
		if source.Type == "web" {
			webSources = append(webSources, source)
		}
	}
	if len(webSources) != 2 {
		t.Fatalf("got %d web sources, want 2 (empty URL skipped)", len(webSources))
	}
	if !strings.HasPrefix(webSources[0].Text, "[Web] ") {
		t.Errorf("web source text = %q, want [Web] prefix", webSources[0].Text)
	}
	if webSources[0].Source != "https://example.com/a" {
		t.Errorf("web source url = %q", webSources[0].Source)
	}
	if !strings.Contains(llm.prompts[0], "web evidence one") {
		t.Error("hybrid prompt missing web context")
	}
}

// An empty web result falls back to the general chain but keeps the
// video_content answer type.
func TestAnswerWebEmptyFallsBack(t *testing.T) {
	registry := processedRegistry("vid123")
	searcher := &fakeSearcher{chunks: transcriptChunks()}
	web := &fakeWeb{docs: nil}
	llm := &fakeGenerator{response: "fallback answer"}

	orchestrator := NewOrchestrator(orchestratorConfig(), llm, NewPhraseClassifier(), searcher, registry, web)
	result, err := orchestrator.Answer(context.Background(), "is this true according to research?", "vid123", nil)
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}

	if result.AnswerType != "video_content" {
		t.Errorf("answer type = %q, want video_content after web fallback", result.AnswerType)
	}
	if result.Answer != "fallback answer" {
		t.Errorf("answer = %q", result.Answer)
	}
	for _, source := range result.Sources {
		if source.Type == "web" {
			t.Error("fallback answer should carry no web sources")
		}
	}
}

func TestAnswerModelFailurePropagates(t *testing.T) {
	registry := processedRegistry("vid123")
	modelErr := errors.New("model down")
	llm := &fakeGenerator{err: modelErr}

	orchestrator := NewOrchestrator(orchestratorConfig(), llm, NewPhraseClassifier(), &fakeSearcher{chunks: transcriptChunks()}, registry, &fakeWeb{})
	_, err := orchestrator.Answer(context.Background(), "what does the speaker say?", "vid123", nil)
	if !errors.Is(err, modelErr) {
		t.Errorf("Answer error = %v, want the model error", err)
	}
}

func TestAnswerHistoryShapesPrompt(t *testing.T) {
	registry := processedRegistry("vid123")
	llm := &fakeGenerator{response: "ok"}
	orchestrator := NewOrchestrator(orchestratorConfig(), llm, NewPhraseClassifier(), &fakeSearcher{chunks: transcriptChunks()}, registry, &fakeWeb{})

	history := []core.ConversationMessage{
		{Role: "user", Content: "earlier question"},
		{Role: "assistant", Content: "earlier answer"},
	}
	if _, err := orchestrator.Answer(context.Background(), "what does the speaker say next?", "vid123", history); err != nil {
		t.Fatalf("Answer: %v", err)
	}

	prompt := llm.prompts[0]
	if !strings.Contains(prompt, "Previous conversation:") {
		t.Error("prompt missing rendered history")
	}
	if !strings.Contains(prompt, "follow-up questions") {
		t.Error("prompt should switch to the follow-up instruction when history is present")
	}
}

func TestAnswerCollectsMetadataUsed(t *testing.T) {
	registry := processedRegistry("vid123")
	chunks := append(transcriptChunks(), core.Chunk{
		Text: "Video Title: Gravity Explained", ChunkIndex: -1, Kind: core.ChunkMetadata, Source: "title",
	})

	orchestrator := NewOrchestrator(orchestratorConfig(), &fakeGenerator{response: "ok"}, NewPhraseClassifier(), &fakeSearcher{chunks: chunks}, registry, &fakeWeb{})
	result, err := orchestrator.Answer(context.Background(), "what does the speaker say?", "vid123", nil)
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}

	if result.MetadataUsed["title"] != "Video Title: Gravity Explained" {
		t.Errorf("metadata_used = %v, want title entry", result.MetadataUsed)
	}
}
