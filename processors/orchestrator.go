package processors

import (
	"context"
	"fmt"
	"log"
	"strings"

	"videoAssistant/config"
	"videoAssistant/core"
)

// windowSize is the neighbor radius used when widening retrieved chunks.
const windowSize = 1

// hybridVideoExcerptLimit bounds the video-context excerpt in hybrid prompts.
const hybridVideoExcerptLimit = 1000

// webDocExcerptLimit bounds each web document excerpt in hybrid prompts.
const webDocExcerptLimit = 800

// webSourcePreviewLimit bounds web source previews in the source list.
const webSourcePreviewLimit = 150

// ChunkSearcher is the similarity index boundary.
type ChunkSearcher interface {
	Search(ctx context.Context, videoID, query string, k int) []core.Chunk
}

// VideoStateReader exposes the per-video bookkeeping the orchestrator needs.
type VideoStateReader interface {
	IsProcessed(videoID string) bool
	LatestVideoID() (string, bool)
	Info(videoID string) (core.VideoInfo, bool)
	Metadata(videoID string) (core.VideoMetadata, bool)
}

// WebDocumentSource gathers external web context for a question. Returns nil
// on any failure; it never errors to the orchestrator.
type WebDocumentSource interface {
	CollectDocuments(ctx context.Context, question, videoContext string) []core.WebDocument
}

// Orchestrator composes classification, retrieval sizing, context shaping,
// history, and optional web knowledge into a final answer. It selects between
// a video-only chain and a hybrid video+web chain per question.
type Orchestrator struct {
	cfg        *config.Config
	llm        TextGenerator
	classifier Classifier
	sizer      *RetrievalSizer
	compressor *ContextCompressor
	store      ChunkSearcher
	registry   VideoStateReader
	web        WebDocumentSource
}

func NewOrchestrator(cfg *config.Config, llm TextGenerator, classifier Classifier, store ChunkSearcher, registry VideoStateReader, web WebDocumentSource) *Orchestrator {
	return &Orchestrator{
		cfg:        cfg,
		llm:        llm,
		classifier: classifier,
		sizer:      NewRetrievalSizer(cfg),
		compressor: NewContextCompressor(llm),
		store:      store,
		registry:   registry,
		web:        web,
	}
}

// Answer runs the full question pipeline: classify, size the retrieval,
// retrieve, shape context, then route to the video-only or hybrid chain.
// Model failures propagate; web failures silently degrade to video-only.
func (o *Orchestrator) Answer(ctx context.Context, question, videoID string, history []core.ConversationMessage) (*core.AnswerResult, error) {
	if videoID == "" {
		latest, ok := o.registry.LatestVideoID()
		if !ok {
			return nil, fmt.Errorf("no videos processed yet: %w", core.ErrNotProcessed)
		}
		videoID = latest
	}
	if !o.registry.IsProcessed(videoID) {
		return nil, fmt.Errorf("video %s: %w", videoID, core.ErrNotProcessed)
	}

	classification := o.classifier.Classify(question)

	videoLength := 10000
	if info, ok := o.registry.Info(videoID); ok {
		videoLength = info.TranscriptLength
	}
	k := o.sizer.OptimalK(videoLength, question)

	retrieved := o.store.Search(ctx, videoID, question, k)
	retrieved = ExpandWindow(retrieved, windowSize)

	metadataUsed := map[string]string{}
	for _, chunk := range retrieved {
		if chunk.Kind == core.ChunkMetadata {
			metadataUsed[chunk.Source] = chunk.Text
		}
	}

	rawContext := make([]string, 0, len(retrieved))
	for _, chunk := range retrieved {
		rawContext = append(rawContext, chunk.Text)
	}

	// An empty retrieval is not an error; the model still gets an empty
	// context string.
	contextEntries := rawContext
	if len(rawContext) > 3 && classification == ClassVideoContent && o.cfg.CompressionEnabled {
		compressed := o.compressor.Compress(ctx, rawContext, question, o.cfg.MaxContextLength)
		contextEntries = []string{compressed}
	}

	sources := buildSourceRecords(retrieved)
	historyText := FormatHistory(history, o.cfg.MaxConversationMessages)

	var answer string
	var err error
	answerType := string(ClassVideoContent)

	if classification == ClassExternalKnowledge {
		videoContext := ""
		if metadata, ok := o.registry.Metadata(videoID); ok {
			videoContext = metadata.Title + " " + metadata.Description
		}
		webDocs := o.web.CollectDocuments(ctx, question, videoContext)

		if len(webDocs) > 0 {
			answer, err = o.answerHybrid(ctx, question, historyText, contextEntries, webDocs)
			if err != nil {
				return nil, err
			}
			answerType = "hybrid"
			sources = append(sources, webSourceRecords(webDocs)...)
		} else {
			log.Printf("Warning: web search returned nothing for %q, falling back to video-only chain", question)
			answer, err = o.answerGeneral(ctx, question, historyText, contextEntries)
			if err != nil {
				return nil, err
			}
		}
	} else {
		answer, err = o.answerVideoContent(ctx, question, historyText, contextEntries)
		if err != nil {
			return nil, err
		}
	}

	result := &core.AnswerResult{
		Question:   question,
		Answer:     answer,
		Context:    contextEntries,
		Sources:    sources,
		VideoID:    videoID,
		AnswerType: answerType,
	}
	if len(metadataUsed) > 0 {
		result.MetadataUsed = metadataUsed
	}
	return result, nil
}

// answerVideoContent invokes the video-only chain with the transcript-focused
// template, temperature 0 for factual grounding.
func (o *Orchestrator) answerVideoContent(ctx context.Context, question, historyText string, contextEntries []string) (string, error) {
	focus := "Focus on the video content"
	if historyText != "" {
		focus = "Use the conversation history above for context about follow-up questions"
	}

	prompt := fmt.Sprintf(`%sBased on the following context from a YouTube video transcript, answer the question in a natural, conversational way.

Instructions:
- Provide a helpful, well-explained answer
- %s
- Don't just list keywords - form complete thoughts
- Be conversational and informative

Context: %s

Question: %s

Answer:`, historyText, focus, strings.Join(contextEntries, "\n\n"), question)

	return o.llm.Generate(ctx, prompt, 0.0)
}

// answerGeneral is the non-video-content template used when an external
// question falls back to the video-only chain.
func (o *Orchestrator) answerGeneral(ctx context.Context, question, historyText string, contextEntries []string) (string, error) {
	prompt := fmt.Sprintf(`%sYou are a helpful AI assistant analyzing a YouTube video.

You are given:
1. A YouTube video transcript and metadata (partial, may be incomplete).
2. A user question.

Use the video content as your primary source.
If the video doesn't fully address the question, you may use general knowledge to provide helpful context.
Always indicate what comes from the video versus general knowledge.

Video context:
%s

Question:
%s

Answer (clear, structured, and honest):`, historyText, strings.Join(contextEntries, "\n\n"), question)

	return o.llm.Generate(ctx, prompt, 0.3)
}

// answerHybrid blends the video excerpt with up to three web documents in a
// single model call.
func (o *Orchestrator) answerHybrid(ctx context.Context, question, historyText string, contextEntries []string, webDocs []core.WebDocument) (string, error) {
	videoExcerptEntries := contextEntries
	if len(videoExcerptEntries) > 3 {
		videoExcerptEntries = videoExcerptEntries[:3]
	}
	videoContextText := strings.Join(videoExcerptEntries, "\n\n")
	if len(videoContextText) > hybridVideoExcerptLimit {
		videoContextText = o.compressor.Compress(ctx, videoExcerptEntries, question, hybridVideoExcerptLimit)
	}

	docs := webDocs
	if len(docs) > 3 {
		docs = docs[:3]
	}
	excerpts := make([]string, 0, len(docs))
	for _, doc := range docs {
		text := doc.Text
		if len(text) > webDocExcerptLimit {
			text = text[:webDocExcerptLimit]
		}
		excerpts = append(excerpts, text)
	}
	webContextText := strings.Join(excerpts, "\n\n")

	prompt := fmt.Sprintf(`%sYou are a helpful AI assistant.

Context from YouTube video:
%s

Context from web search:
%s

Question:
%s

Answer (clear, structured, and helpful):`, historyText, videoContextText, webContextText, question)

	return o.llm.Generate(ctx, prompt, 0.3)
}

func buildSourceRecords(retrieved []core.Chunk) []core.SourceRecord {
	sources := make([]core.SourceRecord, 0, len(retrieved))
	for _, chunk := range retrieved {
		record := core.SourceRecord{
			Text:   chunk.Text,
			Type:   string(chunk.Kind),
			Source: chunk.Source,
		}
		if chunk.StartTime != nil {
			record.Timestamp = core.FormatTimestamp(*chunk.StartTime)
		}
		sources = append(sources, record)
	}
	return sources
}

func webSourceRecords(webDocs []core.WebDocument) []core.SourceRecord {
	docs := webDocs
	if len(docs) > 3 {
		docs = docs[:3]
	}
	var sources []core.SourceRecord
	for _, doc := range docs {
		if doc.URL == "" {
			continue
		}
		preview := doc.Text
		if len(preview) > webSourcePreviewLimit {
			preview = preview[:webSourcePreviewLimit]
		}
		sources = append(sources, core.SourceRecord{
			Text:   "[Web] " + preview + "...",
			Type:   "web",
			Source: doc.URL,
		})
	}
	return sources
}
