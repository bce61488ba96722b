package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"videoAssistant/config"
	"videoAssistant/core"
	"videoAssistant/processors"
	"videoAssistant/storage"
)

const testVideoID = "dQw4w9WgXcQ"

type stubLLM struct {
	response string
}

func (s *stubLLM) Generate(ctx context.Context, prompt string, temperature float32) (string, error) {
	return s.response, nil
}

type stubWeb struct{}

func (stubWeb) CollectDocuments(ctx context.Context, question, videoContext string) []core.WebDocument {
	return nil
}

// newTestApp wires the handler stack onto the in-memory backends with one
// processed video.
func newTestApp(t *testing.T) *app {
	t.Helper()

	cfg := &config.Config{
		ChunkSize:               600,
		ChunkOverlap:            100,
		DefaultK:                3,
		MinK:                    2,
		MaxK:                    6,
		MaxContextLength:        1500,
		CompressionEnabled:      true,
		MaxConversationMessages: 5,
		MaxConversationHistory:  10,
		SummaryIntervalSeconds:  480,
		MaxSummarySegments:      10,
		SummaryWorkers:          2,
	}

	store := storage.NewMemoryVectorStore()
	registry := storage.NewVideoRegistry(cfg.MaxConversationHistory)
	llm := &stubLLM{response: "MAIN: stub answer\nBULLET: stub detail"}

	a := &app{
		cfg:          cfg,
		registry:     registry,
		store:        store,
		orchestrator: processors.NewOrchestrator(cfg, llm, processors.NewPhraseClassifier(), store, registry, stubWeb{}),
		summarizer:   processors.NewSummarizer(llm, cfg),
	}

	snippets := []core.TranscriptSnippet{
		{Text: "the speaker explains gravity", Start: 0, Duration: 10},
		{Text: "then moves on to spacetime", Start: 500, Duration: 10},
	}
	if !registry.Claim(testVideoID) {
		t.Fatal("seed claim failed")
	}
	store.Upsert(context.Background(), testVideoID, processors.BuildTranscriptChunks("the speaker explains gravity then moves on to spacetime", cfg.ChunkSize, cfg.ChunkOverlap))
	registry.Complete(testVideoID,
		core.VideoInfo{Title: "Gravity Explained", TranscriptLength: 56, ChunksCreated: 1},
		core.VideoMetadata{Title: "Gravity Explained"},
		snippets)

	return a
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func TestAskQuestionHandler(t *testing.T) {
	a := newTestApp(t)

	body := `{"question": "what does the speaker say about gravity?", "video_id": "` + testVideoID + `"}`
	req := httptest.NewRequest(http.MethodPost, "/questions/ask", strings.NewReader(body))
	rec := httptest.NewRecorder()
	a.askQuestionHandler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var result core.AnswerResult
	decodeBody(t, rec, &result)
	if result.VideoID != testVideoID {
		t.Errorf("video_id = %q", result.VideoID)
	}
	if result.Answer == "" {
		t.Error("empty answer")
	}

	// The exchange is recorded in the conversation.
	conversation, ok := a.registry.Conversation(testVideoID)
	if !ok || len(conversation) != 2 {
		t.Fatalf("conversation = %v, %v; want user+assistant pair", conversation, ok)
	}
	if conversation[0].Role != "user" || conversation[1].Role != "assistant" {
		t.Errorf("conversation roles = %q, %q", conversation[0].Role, conversation[1].Role)
	}
}

func TestAskQuestionHandlerValidation(t *testing.T) {
	a := newTestApp(t)

	req := httptest.NewRequest(http.MethodPost, "/questions/ask", strings.NewReader(`{"question": "   "}`))
	rec := httptest.NewRecorder()
	a.askQuestionHandler(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("blank question status = %d, want 400", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/questions/ask", strings.NewReader(`not json`))
	rec = httptest.NewRecorder()
	a.askQuestionHandler(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("malformed body status = %d, want 400", rec.Code)
	}
}

func TestAskQuestionHandlerUnprocessedVideo(t *testing.T) {
	a := newTestApp(t)

	body := `{"question": "what is said?", "video_id": "unknown"}`
	req := httptest.NewRequest(http.MethodPost, "/questions/ask", strings.NewReader(body))
	rec := httptest.NewRecorder()
	a.askQuestionHandler(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("unprocessed video status = %d, want 400", rec.Code)
	}
}

func TestListVideosHandler(t *testing.T) {
	a := newTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/videos/list", nil)
	rec := httptest.NewRecorder()
	a.listVideosHandler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp struct {
		Videos []core.VideoListEntry `json:"videos"`
	}
	decodeBody(t, rec, &resp)
	if len(resp.Videos) != 1 || resp.Videos[0].VideoID != testVideoID {
		t.Errorf("videos = %v", resp.Videos)
	}
}

func TestDeleteVideoHandler(t *testing.T) {
	a := newTestApp(t)

	req := httptest.NewRequest(http.MethodDelete, "/videos/x", nil)
	req.SetPathValue("id", testVideoID)
	rec := httptest.NewRecorder()
	a.deleteVideoHandler(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d", rec.Code)
	}
	if a.registry.IsProcessed(testVideoID) {
		t.Error("video still registered after delete")
	}
	if hits := a.store.Search(context.Background(), testVideoID, "gravity", 3); len(hits) != 0 {
		t.Error("chunks survived delete")
	}

	rec = httptest.NewRecorder()
	a.deleteVideoHandler(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", rec.Code)
	}
}

func TestConversationHandlers(t *testing.T) {
	a := newTestApp(t)

	// No conversation yet: empty list, not an error.
	req := httptest.NewRequest(http.MethodGet, "/questions/conversation/x", nil)
	req.SetPathValue("id", testVideoID)
	rec := httptest.NewRecorder()
	a.getConversationHandler(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}
	var resp core.ConversationResponse
	decodeBody(t, rec, &resp)
	if resp.Conversation == nil || len(resp.Conversation) != 0 {
		t.Errorf("conversation = %v, want empty list", resp.Conversation)
	}

	// Clearing before any conversation exists is a 404.
	rec = httptest.NewRecorder()
	clearReq := httptest.NewRequest(http.MethodDelete, "/questions/conversation/x", nil)
	clearReq.SetPathValue("id", testVideoID)
	a.clearConversationHandler(rec, clearReq)
	if rec.Code != http.StatusNotFound {
		t.Errorf("clear without session status = %d, want 404", rec.Code)
	}

	a.registry.AppendConversation(testVideoID, core.ConversationMessage{Role: "user", Content: "hi"})
	rec = httptest.NewRecorder()
	a.clearConversationHandler(rec, clearReq)
	if rec.Code != http.StatusOK {
		t.Errorf("clear status = %d", rec.Code)
	}
}

func TestGenerateSummaryHandler(t *testing.T) {
	a := newTestApp(t)

	req := httptest.NewRequest(http.MethodPost, "/summaries/generate", strings.NewReader(`{"video_id": "`+testVideoID+`"}`))
	rec := httptest.NewRecorder()
	a.generateSummaryHandler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var result core.SummaryResult
	decodeBody(t, rec, &result)
	if result.VideoID != testVideoID || result.Status != "success" {
		t.Errorf("summary result = %+v", result)
	}
	if len(result.Highlights) == 0 {
		t.Error("no highlights produced")
	}
}

func TestGenerateSummaryHandlerValidation(t *testing.T) {
	a := newTestApp(t)

	req := httptest.NewRequest(http.MethodPost, "/summaries/generate", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	a.generateSummaryHandler(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing video_id status = %d, want 400", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/summaries/generate", strings.NewReader(`{"video_id": "unknown"}`))
	rec = httptest.NewRecorder()
	a.generateSummaryHandler(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown video status = %d, want 404", rec.Code)
	}
}

func TestProcessVideoHandlerInvalidURL(t *testing.T) {
	a := newTestApp(t)

	req := httptest.NewRequest(http.MethodPost, "/videos/process", strings.NewReader(`{"video_url": "https://vimeo.com/123"}`))
	rec := httptest.NewRecorder()
	a.processVideoHandler(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid URL status = %d, want 400", rec.Code)
	}
}

func TestProcessVideoHandlerAlreadyProcessed(t *testing.T) {
	a := newTestApp(t)

	req := httptest.NewRequest(http.MethodPost, "/videos/process", strings.NewReader(`{"video_url": "https://youtu.be/`+testVideoID+`"}`))
	rec := httptest.NewRecorder()
	a.processVideoHandler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp core.ProcessVideoResponse
	decodeBody(t, rec, &resp)
	if resp.Status != "already_processed" {
		t.Errorf("status field = %q, want already_processed", resp.Status)
	}
}

func TestHealthAndRoot(t *testing.T) {
	rec := httptest.NewRecorder()
	healthHandler(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("health status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	rootHandler(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("root status = %d", rec.Code)
	}
}
