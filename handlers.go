package main

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"videoAssistant/core"
	"videoAssistant/processors"
	"videoAssistant/youtube"
)

// processVideoHandler builds the per-video index: metadata, captions,
// chunking, embedding. Concurrent requests for the same video collapse into
// one build via the registry claim.
func (a *app) processVideoHandler(w http.ResponseWriter, r *http.Request) {
	var req core.ProcessVideoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, core.ErrorResponse{Error: "invalid request body"})
		return
	}

	videoID, built, err := a.processVideoFromURL(r, req.VideoURL)
	if err != nil {
		writeError(w, err)
		return
	}

	info, ok := a.registry.Info(videoID)
	if !ok {
		// Claim lost to a concurrent build that has not completed yet.
		writeJSON(w, http.StatusAccepted, core.ProcessVideoResponse{VideoID: videoID, Status: "processing"})
		return
	}

	status := "already_processed"
	if built {
		status = "processed"
	}
	writeJSON(w, http.StatusOK, core.ProcessVideoResponse{
		VideoID:          videoID,
		Title:            info.Title,
		TranscriptLength: info.TranscriptLength,
		ChunksCreated:    info.ChunksCreated,
		Status:           status,
		Channel:          info.Channel,
		PublishDate:      info.PublishDate,
	})
}

// processVideoFromURL returns the video id once the video is processed.
// built reports whether this request performed the build, as opposed to
// finding it done (or in flight) already.
func (a *app) processVideoFromURL(r *http.Request, videoURL string) (videoID string, built bool, err error) {
	videoID, err = youtube.ExtractVideoID(videoURL)
	if err != nil {
		return "", false, err
	}

	if !a.registry.Claim(videoID) {
		// Already processed or being processed right now; either way the
		// caller gets the current state.
		return videoID, false, nil
	}

	jobID := uuid.NewString()
	log.Printf("[%s] processing video %s", jobID, videoID)

	ctx := r.Context()
	metadata := a.yt.FetchMetadata(ctx, videoID)

	snippets, err := a.yt.FetchTranscript(ctx, videoID)
	if err != nil {
		a.registry.Unclaim(videoID)
		return "", false, err
	}

	texts := make([]string, 0, len(snippets))
	for _, snippet := range snippets {
		texts = append(texts, snippet.Text)
	}
	transcript := strings.Join(texts, " ")

	chunks := processors.BuildTranscriptChunks(transcript, a.cfg.ChunkSize, a.cfg.ChunkOverlap)
	chunks = append(chunks, processors.BuildMetadataChunks(metadata)...)

	created := a.store.Upsert(ctx, videoID, chunks)
	log.Printf("[%s] created %d chunks for video %s", jobID, created, videoID)

	description := metadata.Description
	if len(description) > 200 {
		description = description[:200]
	}
	a.registry.Complete(videoID, core.VideoInfo{
		Title:            metadata.Title,
		TranscriptLength: len(transcript),
		ChunksCreated:    created,
		URL:              videoURL,
		Channel:          metadata.ChannelName,
		PublishDate:      metadata.PublishDate,
		Description:      description,
	}, metadata, snippets)

	return videoID, true, nil
}

func (a *app) listVideosHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"videos": a.registry.List()})
}

func (a *app) deleteVideoHandler(w http.ResponseWriter, r *http.Request) {
	videoID := r.PathValue("id")
	if !a.registry.Delete(videoID) {
		writeError(w, core.ErrNotFound)
		return
	}
	a.store.Delete(r.Context(), videoID)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Video " + videoID + " deleted successfully"})
}

func (a *app) askQuestionHandler(w http.ResponseWriter, r *http.Request) {
	var req core.QuestionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, core.ErrorResponse{Error: "invalid request body"})
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		writeJSON(w, http.StatusBadRequest, core.ErrorResponse{Error: "question is required"})
		return
	}

	result, err := a.orchestrator.Answer(r.Context(), req.Question, req.VideoID, req.ConversationHistory)
	if err != nil {
		writeError(w, err)
		return
	}

	a.registry.AppendConversation(result.VideoID,
		core.ConversationMessage{Role: "user", Content: req.Question},
		core.ConversationMessage{Role: "assistant", Content: result.Answer},
	)

	writeJSON(w, http.StatusOK, result)
}

func (a *app) getConversationHandler(w http.ResponseWriter, r *http.Request) {
	videoID := r.PathValue("id")
	conversation, _ := a.registry.Conversation(videoID)
	if conversation == nil {
		conversation = []core.ConversationMessage{}
	}
	writeJSON(w, http.StatusOK, core.ConversationResponse{VideoID: videoID, Conversation: conversation})
}

func (a *app) clearConversationHandler(w http.ResponseWriter, r *http.Request) {
	videoID := r.PathValue("id")
	if !a.registry.ClearConversation(videoID) {
		writeJSON(w, http.StatusNotFound, core.ErrorResponse{Error: "No conversation found for this video"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Conversation cleared for video " + videoID})
}

func (a *app) generateSummaryHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		VideoID string `json:"video_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.VideoID == "" {
		writeJSON(w, http.StatusBadRequest, core.ErrorResponse{Error: "video_id is required"})
		return
	}

	snippets, ok := a.registry.Transcript(req.VideoID)
	if !ok {
		writeError(w, core.ErrNotFound)
		return
	}

	result, err := a.summarizer.Summarize(r.Context(), req.VideoID, snippets)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// writeError maps the error taxonomy onto response categories:
// client-correctable conditions get 4xx with detail, everything else is a
// generic internal failure.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, core.ErrNotFound):
		writeJSON(w, http.StatusNotFound, core.ErrorResponse{Error: "Video not found. Please process the video first."})
	case errors.Is(err, core.ErrNotProcessed):
		writeJSON(w, http.StatusBadRequest, core.ErrorResponse{Error: err.Error()})
	case errors.Is(err, core.ErrInvalidURL), errors.Is(err, core.ErrNoTranscript):
		writeJSON(w, http.StatusBadRequest, core.ErrorResponse{Error: err.Error()})
	default:
		log.Printf("internal error: %v", err)
		writeJSON(w, http.StatusInternalServerError, core.ErrorResponse{Error: "internal server error"})
	}
}
